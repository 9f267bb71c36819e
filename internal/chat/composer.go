// Package chat composes assistant replies from a chain of strategies.
package chat

import (
	"context"
	"errors"

	"github.com/Mithun-VK/trading-chatbot/internal/domain/models"
	"github.com/Mithun-VK/trading-chatbot/internal/llm"
	"github.com/Mithun-VK/trading-chatbot/internal/logger"
	"github.com/Mithun-VK/trading-chatbot/internal/market"
	"github.com/Mithun-VK/trading-chatbot/internal/metrics"
)

// Input is everything a strategy may use to answer one message.
type Input struct {
	UserID  string
	Message string
	// Data is nil when the message mentions no symbols.
	Data    *market.RelevantData
	History []models.ChatMessage
	Profile *models.UserProfile
}

// Quotes returns the quotes attached to the input, never nil.
func (in Input) Quotes() []models.Quote {
	if in.Data == nil || in.Data.Quotes == nil {
		return []models.Quote{}
	}
	return in.Data.Quotes
}

// Symbols returns the symbols extracted from the message, never nil.
func (in Input) Symbols() []string {
	if in.Data == nil || in.Data.ExtractedSymbols == nil {
		return []string{}
	}
	return in.Data.ExtractedSymbols
}

// Reply is the composed answer.
type Reply struct {
	Text        string
	Source      models.ReplySource
	Suggestions []string
	Quotes      []models.Quote
	// Notice explains degraded answers; empty when the preferred strategy answered with live data.
	Notice string
}

// Strategy is one way of answering a message.
type Strategy interface {
	Source() models.ReplySource
	CanRespond(in Input) bool
	Respond(ctx context.Context, in Input) (string, error)
}

const (
	noticeLLMRateLimited = "The AI assistant is busy right now, so this answer was assembled from market data templates."
	noticeLLMUnavailable = "The AI assistant is unavailable right now, so this answer was assembled from market data templates."
	noticeFallback       = "Some services are unavailable right now; this is a limited answer."
	noticeSimulated      = "Live market data is unavailable; figures marked as simulated are not real prices."
)

// Composer tries its strategies in order and returns the first answer.
type Composer struct {
	strategies []Strategy
}

// NewComposer builds a Composer. A MockStrategy is appended when the chain
// does not already end with one, so Compose always produces a reply.
func NewComposer(strategies ...Strategy) *Composer {
	if n := len(strategies); n == 0 || strategies[n-1].Source() != models.ReplyMock {
		strategies = append(strategies, MockStrategy{})
	}
	return &Composer{strategies: strategies}
}

// Compose answers in using the first strategy able to respond.
func (c *Composer) Compose(ctx context.Context, in Input) Reply {
	var lastErr error
	skipped := false

	for _, s := range c.strategies {
		if !s.CanRespond(in) {
			skipped = true
			continue
		}
		text, err := s.Respond(ctx, in)
		if err != nil {
			logger.L().Warn().Err(err).Str("strategy", string(s.Source())).Msg("reply strategy failed, trying next")
			lastErr = err
			continue
		}
		metrics.Replies.WithLabelValues(string(s.Source())).Inc()
		return Reply{
			Text:        text,
			Source:      s.Source(),
			Suggestions: Suggestions(in),
			Quotes:      in.Quotes(),
			Notice:      notice(lastErr, skipped && s.Source() == models.ReplyMock, in.Quotes()),
		}
	}

	// unreachable with a MockStrategy at the end of the chain
	return Reply{Text: genericHelp, Source: models.ReplyMock, Suggestions: Suggestions(in), Quotes: in.Quotes(), Notice: noticeFallback}
}

func notice(lastErr error, degraded bool, quotes []models.Quote) string {
	switch {
	case errors.Is(lastErr, llm.ErrRateLimited):
		return noticeLLMRateLimited
	case errors.Is(lastErr, llm.ErrUnavailable):
		return noticeLLMUnavailable
	case lastErr != nil || degraded:
		return noticeFallback
	}
	for _, q := range quotes {
		if q.IsMock() {
			return noticeSimulated
		}
	}
	return ""
}
