package service

import (
	"context"
	"strings"
	"testing"

	"github.com/Mithun-VK/trading-chatbot/internal/apperr"
	"github.com/Mithun-VK/trading-chatbot/internal/chat"
	"github.com/Mithun-VK/trading-chatbot/internal/domain/models"
)

func newChat(t *testing.T, store *memStore, gen *stubGenerator) (*chatService, *fakeMarket, *recordingPublisher) {
	t.Helper()
	fm := &fakeMarket{quotes: map[string]models.Quote{"AAPL": liveQuote("AAPL", 190, 1.2)}}
	pub := &recordingPublisher{}
	var strategies []chat.Strategy
	if gen != nil {
		strategies = append(strategies, chat.LLMStrategy{Generator: gen})
	}
	strategies = append(strategies, chat.TemplateStrategy{})

	var svc ChatService
	if store != nil {
		svc = NewChatService(fm, chat.NewComposer(strategies...), store, pub)
	} else {
		svc = NewChatService(fm, chat.NewComposer(strategies...), nil, pub)
	}
	cs := svc.(*chatService)
	cs.now = fixedNow
	return cs, fm, pub
}

func TestHandleMessage_Validation(t *testing.T) {
	svc, _, _ := newChat(t, nil, nil)

	cases := []struct {
		name    string
		userID  string
		message string
	}{
		{"missing user", " ", "hi"},
		{"empty message", "u1", "   "},
		{"too long", "u1", strings.Repeat("a", MaxMessageLength+1)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.HandleMessage(context.Background(), tc.userID, tc.message)
			if !apperr.Is(err, apperr.Validation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}

	if _, err := svc.HandleMessage(context.Background(), "u1", strings.Repeat("é", MaxMessageLength)); err != nil {
		t.Fatalf("a message of exactly the limit in characters must pass: %v", err)
	}
}

func TestHandleMessage_WithoutStore(t *testing.T) {
	svc, _, pub := newChat(t, nil, nil)

	reply, err := svc.HandleMessage(context.Background(), "u1", "how is AAPL today?")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if reply.Source != models.ReplyTemplate || len(reply.Quotes) != 1 {
		t.Fatalf("expected template reply with one quote, got %+v", reply)
	}
	if len(pub.events) != 1 || pub.events[0].QuoteCount != 1 || pub.events[0].Symbols[0] != "AAPL" {
		t.Fatalf("expected one published event, got %+v", pub.events)
	}
}

func TestHandleMessage_PersistsExchangeAndUsesHistory(t *testing.T) {
	store := newMemStore()
	store.profiles["u1"] = models.UserProfile{UserID: "u1", RiskTolerance: "low"}
	gen := &stubGenerator{text: "AAPL is up today."}
	svc, _, _ := newChat(t, store, gen)

	if _, err := svc.HandleMessage(context.Background(), "u1", "how is AAPL?"); err != nil {
		t.Fatalf("first message: %v", err)
	}
	reply, err := svc.HandleMessage(context.Background(), "u1", "and compared to yesterday?")
	if err != nil {
		t.Fatalf("second message: %v", err)
	}
	if reply.Source != models.ReplyLLM {
		t.Fatalf("expected llm reply, got %s", reply.Source)
	}

	if len(store.messages) != 4 {
		t.Fatalf("expected 4 persisted messages, got %d", len(store.messages))
	}
	user, assistant := store.messages[0], store.messages[1]
	if user.Role != models.RoleUser || assistant.Role != models.RoleAssistant || assistant.Source != models.ReplyLLM {
		t.Fatalf("unexpected roles: %+v / %+v", user, assistant)
	}
	if !assistant.CreatedAt.After(user.CreatedAt) || user.ID == "" || user.ID == assistant.ID {
		t.Fatalf("assistant message must sort after the question with its own id")
	}

	second := gen.prompts[1]
	if !strings.Contains(second, "how is AAPL?") || !strings.Contains(second, "low") {
		t.Fatalf("second prompt must carry history and profile:\n%s", second)
	}
}

func TestHandleMessage_StoreAndPublishFailuresDoNotFail(t *testing.T) {
	store := newMemStore()
	store.failWith = errBoom
	svc, _, pub := newChat(t, store, nil)
	pub.err = errBoom

	reply, err := svc.HandleMessage(context.Background(), "u1", "hello there")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if reply.Source != models.ReplyMock || reply.Text == "" {
		t.Fatalf("expected mock reply, got %+v", reply)
	}
}

func TestHistory(t *testing.T) {
	svc, _, _ := newChat(t, nil, nil)
	if _, err := svc.History(context.Background(), "u1", 10); !apperr.Is(err, apperr.NotConfigured) {
		t.Fatalf("expected not configured without store, got %v", err)
	}

	store := newMemStore()
	svc, _, _ = newChat(t, store, nil)
	msgs, err := svc.History(context.Background(), "nobody", 0)
	if err != nil || msgs == nil || len(msgs) != 0 {
		t.Fatalf("expected empty non-nil history, got %v %v", msgs, err)
	}
	if _, err := svc.History(context.Background(), "", 10); !apperr.Is(err, apperr.Validation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
