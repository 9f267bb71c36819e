package app

import (
	"github.com/Mithun-VK/trading-chatbot/config"
	"github.com/Mithun-VK/trading-chatbot/internal/market"
	"github.com/Mithun-VK/trading-chatbot/internal/market/yahoo"
)

// NewMarketClient builds the market data client on the Yahoo provider.
// It is shared by the API and the quote command.
func NewMarketClient(cfg config.Config) *market.Client {
	provider := yahoo.New(cfg.Market.HTTPTimeout)
	return market.NewClient(provider, market.Options{
		RateLimit:  cfg.Market.RateLimit,
		RateWindow: cfg.Market.RateWindow,
		CacheTTL:   cfg.Market.CacheTTL,
		Indices:    cfg.Market.Indices,
	})
}
