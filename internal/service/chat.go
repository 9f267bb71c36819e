package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/Mithun-VK/trading-chatbot/internal/apperr"
	"github.com/Mithun-VK/trading-chatbot/internal/chat"
	"github.com/Mithun-VK/trading-chatbot/internal/domain/models"
	"github.com/Mithun-VK/trading-chatbot/internal/events"
	"github.com/Mithun-VK/trading-chatbot/internal/logger"
	"github.com/Mithun-VK/trading-chatbot/internal/storage"
)

const (
	// MaxMessageLength is the longest accepted chat message, in characters.
	MaxMessageLength = 2000

	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 200

	publishTimeout = 2 * time.Second
)

// ChatService answers chat messages and exposes the conversation history.
type ChatService interface {
	HandleMessage(ctx context.Context, userID, message string) (chat.Reply, error)
	History(ctx context.Context, userID string, limit int) ([]models.ChatMessage, error)
}

type chatService struct {
	data      MarketData
	composer  *chat.Composer
	store     storage.Store
	publisher events.Publisher
	now       func() time.Time
	newID     func() string
}

// NewChatService builds a ChatService. store may be nil, in which case
// replies are produced without history and nothing is persisted.
func NewChatService(data MarketData, composer *chat.Composer, store storage.Store, publisher events.Publisher) ChatService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &chatService{
		data:      data,
		composer:  composer,
		store:     store,
		publisher: publisher,
		now:       systemNow,
		newID:     uuid.NewString,
	}
}

func (s *chatService) HandleMessage(ctx context.Context, userID, message string) (chat.Reply, error) {
	userID = strings.TrimSpace(userID)
	message = strings.TrimSpace(message)
	switch {
	case userID == "":
		return chat.Reply{}, apperr.New(apperr.Validation, "userId is required")
	case message == "":
		return chat.Reply{}, apperr.New(apperr.Validation, "message is required")
	case utf8.RuneCountInString(message) > MaxMessageLength:
		return chat.Reply{}, apperr.New(apperr.Validation, "message is too long")
	}

	askedAt := s.now()
	in := chat.Input{UserID: userID, Message: message}
	s.loadContext(ctx, &in)
	in.Data = s.data.GetRelevantData(ctx, message)

	reply := s.composer.Compose(ctx, in)

	s.persist(ctx, in, reply, askedAt)
	s.publish(ctx, in, reply, askedAt)

	return reply, nil
}

// loadContext attaches recent history and the user profile; failures only degrade the reply.
func (s *chatService) loadContext(ctx context.Context, in *chat.Input) {
	if s.store == nil {
		return
	}
	history, err := s.store.History(ctx, in.UserID, chat.MaxHistoryTurns)
	if err != nil {
		logger.L().Warn().Err(err).Str("user_id", in.UserID).Msg("history unavailable")
	} else {
		in.History = history
	}

	profile, err := s.store.GetProfile(ctx, in.UserID)
	switch {
	case err == nil:
		in.Profile = profile
	case !errors.Is(err, storage.ErrNotFound):
		logger.L().Warn().Err(err).Str("user_id", in.UserID).Msg("profile unavailable")
	}
}

func (s *chatService) persist(ctx context.Context, in chat.Input, reply chat.Reply, askedAt time.Time) {
	if s.store == nil {
		return
	}
	repliedAt := s.now()
	if !repliedAt.After(askedAt) {
		repliedAt = askedAt.Add(time.Millisecond)
	}
	symbols := in.Symbols()
	msgs := []models.ChatMessage{
		{ID: s.newID(), UserID: in.UserID, Role: models.RoleUser, Content: in.Message, Symbols: symbols, CreatedAt: askedAt},
		{ID: s.newID(), UserID: in.UserID, Role: models.RoleAssistant, Content: reply.Text, Symbols: symbols, Source: reply.Source, CreatedAt: repliedAt},
	}
	if err := s.store.AppendMessages(ctx, msgs...); err != nil {
		logger.L().Error().Err(err).Str("user_id", in.UserID).Msg("failed to persist chat exchange")
	}
}

func (s *chatService) publish(ctx context.Context, in chat.Input, reply chat.Reply, at time.Time) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	err := s.publisher.Publish(ctx, events.ChatEvent{
		ID:         s.newID(),
		UserID:     in.UserID,
		Message:    in.Message,
		Reply:      reply.Text,
		Symbols:    in.Symbols(),
		Source:     reply.Source,
		QuoteCount: len(reply.Quotes),
		At:         at,
	})
	if err != nil {
		logger.L().Warn().Err(err).Str("user_id", in.UserID).Msg("failed to publish chat event")
	}
}

func (s *chatService) History(ctx context.Context, userID string, limit int) ([]models.ChatMessage, error) {
	if s.store == nil {
		return nil, errNoStore
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, apperr.New(apperr.Validation, "userId is required")
	}
	switch {
	case limit <= 0:
		limit = DefaultHistoryLimit
	case limit > MaxHistoryLimit:
		limit = MaxHistoryLimit
	}

	msgs, err := s.store.History(ctx, userID, limit)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "failed to load chat history", err)
	}
	if msgs == nil {
		msgs = []models.ChatMessage{}
	}
	return msgs, nil
}
