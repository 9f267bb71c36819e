package service

import (
	"context"
	"errors"
	"time"

	"github.com/Mithun-VK/trading-chatbot/internal/apperr"
	"github.com/Mithun-VK/trading-chatbot/internal/domain/models"
	"github.com/Mithun-VK/trading-chatbot/internal/logger"
	"github.com/Mithun-VK/trading-chatbot/internal/market"
)

// MarketService serves single quotes and the market summary.
type MarketService interface {
	Quote(ctx context.Context, symbol string) (models.Quote, error)
	Summary(ctx context.Context) models.MarketSummary
}

type marketService struct {
	data         MarketData
	mockFallback bool
	now          func() time.Time
}

// NewMarketService builds a MarketService. With mockFallback set, live lookups
// that fail for reasons other than rate limiting are answered with a labeled
// synthetic quote instead of an error.
func NewMarketService(data MarketData, mockFallback bool) MarketService {
	return &marketService{data: data, mockFallback: mockFallback, now: systemNow}
}

func (s *marketService) Quote(ctx context.Context, symbol string) (models.Quote, error) {
	sym, err := validSymbol(symbol)
	if err != nil {
		return models.Quote{}, err
	}

	q, err := s.data.GetQuote(ctx, sym)
	if err == nil {
		return q, nil
	}
	if errors.Is(err, market.ErrUnknownSymbol) {
		return models.Quote{}, apperr.Wrap(apperr.NotFound, "no quote found for "+sym, err)
	}
	// rate limiting stays visible so clients can honor Retry-After
	if errors.Is(err, market.ErrRateLimited) {
		return models.Quote{}, apperr.Wrap(apperr.RateLimited, "market data provider is rate limiting requests", err)
	}
	if s.mockFallback {
		logger.L().Warn().Err(err).Str("symbol", sym).Msg("live quote failed, serving simulated quote")
		return market.MockQuote(sym, s.now()), nil
	}
	return models.Quote{}, apperr.Wrap(apperr.UpstreamUnavailable, "market data provider unavailable", err)
}

func (s *marketService) Summary(ctx context.Context) models.MarketSummary {
	return s.data.GetMarketSummary(ctx)
}
