// Package service holds the business flows behind the HTTP handlers.
package service

import (
	"context"
	"time"

	"github.com/Mithun-VK/trading-chatbot/internal/apperr"
	"github.com/Mithun-VK/trading-chatbot/internal/domain/models"
	"github.com/Mithun-VK/trading-chatbot/internal/market"
)

// MarketData is the part of market.Client the services depend on.
type MarketData interface {
	GetQuote(ctx context.Context, symbol string) (models.Quote, error)
	GetQuotes(ctx context.Context, symbols []string) []models.Quote
	GetRelevantData(ctx context.Context, message string) *market.RelevantData
	GetMarketSummary(ctx context.Context) models.MarketSummary
}

var _ MarketData = (*market.Client)(nil)

var errNoStore = apperr.New(apperr.NotConfigured, "feature unavailable: no document store configured")

// validSymbol normalizes s and rejects anything that cannot be a ticker.
func validSymbol(s string) (string, error) {
	sym := market.NormalizeSymbol(s)
	if sym == "" {
		return "", apperr.New(apperr.Validation, "symbol is required")
	}
	if !market.ValidSymbol(sym) {
		return "", apperr.New(apperr.Validation, "invalid symbol format")
	}
	return sym, nil
}

func systemNow() time.Time { return time.Now().UTC() }
