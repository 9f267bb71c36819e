package service

import (
	"context"
	"strings"

	"github.com/Mithun-VK/trading-chatbot/internal/apperr"
	"github.com/Mithun-VK/trading-chatbot/internal/chat"
	"github.com/Mithun-VK/trading-chatbot/internal/domain/models"
	"github.com/Mithun-VK/trading-chatbot/internal/llm"
	"github.com/Mithun-VK/trading-chatbot/internal/logger"
)

// Analysis is the result of analyzing one symbol.
type Analysis struct {
	Symbol         string
	Type           chat.AnalysisType
	Text           string
	Recommendation chat.Recommendation
	Confidence     float64
	Quote          models.Quote
	Source         models.ReplySource
}

// AnalysisService produces a rated analysis of a single symbol.
type AnalysisService interface {
	Analyze(ctx context.Context, symbol, analysisType string) (Analysis, error)
}

type analysisService struct {
	quotes    MarketService
	generator llm.Generator
}

// NewAnalysisService builds an AnalysisService; generator may be nil or llm.Disabled.
func NewAnalysisService(quotes MarketService, generator llm.Generator) AnalysisService {
	return &analysisService{quotes: quotes, generator: generator}
}

func (s *analysisService) Analyze(ctx context.Context, symbol, analysisType string) (Analysis, error) {
	kind, ok := chat.ParseAnalysisType(analysisType)
	if !ok {
		return Analysis{}, apperr.New(apperr.Validation, "analysisType must be one of general, technical, fundamental, sentiment")
	}

	q, err := s.quotes.Quote(ctx, symbol)
	if err != nil {
		return Analysis{}, err
	}

	rec, confidence := chat.Recommend(q)
	out := Analysis{
		Symbol:         q.Symbol,
		Type:           kind,
		Recommendation: rec,
		Confidence:     confidence,
		Quote:          q,
	}

	if text, ok := s.narrate(ctx, q, kind, rec); ok {
		out.Text, out.Source = text, models.ReplyLLM
		return out, nil
	}

	out.Text = chat.AnalysisText(q, kind, rec, confidence)
	out.Source = models.ReplyTemplate
	if q.IsMock() {
		out.Source = models.ReplyMock
	}
	return out, nil
}

func (s *analysisService) narrate(ctx context.Context, q models.Quote, kind chat.AnalysisType, rec chat.Recommendation) (string, bool) {
	if !(chat.LLMStrategy{Generator: s.generator}).CanRespond(chat.Input{}) || q.IsMock() {
		return "", false
	}
	text, err := s.generator.Generate(ctx, chat.AnalysisPrompt(q, kind, rec))
	if err != nil {
		logger.L().Warn().Err(err).Str("symbol", q.Symbol).Msg("analysis narrative failed, using template")
		return "", false
	}
	text = strings.TrimSpace(text)
	return text, text != ""
}
