package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Mithun-VK/trading-chatbot/internal/domain/models"
)

// ProfileRequest is the body of PUT /api/v1/users/{userId}/profile.
type ProfileRequest struct {
	DisplayName   string `json:"displayName" binding:"max=100" example:"Ann"`
	RiskTolerance string `json:"riskTolerance" example:"medium" enums:"low,medium,high"`
	Experience    string `json:"experience" example:"beginner" enums:"beginner,intermediate,advanced"`
}

// WatchlistRequest is the body of POST /api/v1/users/{userId}/watchlist.
type WatchlistRequest struct {
	Symbol string `json:"symbol" binding:"required,max=12" example:"TSLA"`
}

// WatchlistResponse lists followed symbols with their current quotes.
type WatchlistResponse struct {
	UserID string                 `json:"userId"`
	Items  []models.WatchlistItem `json:"items"`
	Quotes []models.Quote         `json:"quotes"`
}

// PositionRequest is the body of PUT /api/v1/users/{userId}/portfolio.
// Amounts are decimal strings or numbers.
type PositionRequest struct {
	Symbol      string          `json:"symbol" binding:"required,max=12" example:"AAPL"`
	Shares      decimal.Decimal `json:"shares" swaggertype:"string" example:"10"`
	AverageCost decimal.Decimal `json:"averageCost" swaggertype:"string" example:"150.25"`
}

// PositionResponse is one valued position.
type PositionResponse struct {
	Symbol              string          `json:"symbol" example:"AAPL"`
	Shares              decimal.Decimal `json:"shares" swaggertype:"string" example:"10"`
	AverageCost         decimal.Decimal `json:"averageCost" swaggertype:"string" example:"150.25"`
	Price               decimal.Decimal `json:"price" swaggertype:"string" example:"189.84"`
	Priced              bool            `json:"priced"`
	Simulated           bool            `json:"simulated"`
	CostBasis           decimal.Decimal `json:"costBasis" swaggertype:"string" example:"1502.50"`
	MarketValue         decimal.Decimal `json:"marketValue" swaggertype:"string" example:"1898.40"`
	UnrealizedPL        decimal.Decimal `json:"unrealizedPL" swaggertype:"string" example:"395.90"`
	UnrealizedPLPercent decimal.Decimal `json:"unrealizedPLPercent" swaggertype:"string" example:"26.35"`
}

// PortfolioResponse is a user's portfolio valued with current quotes.
type PortfolioResponse struct {
	UserID            string             `json:"userId"`
	Positions         []PositionResponse `json:"positions"`
	TotalCostBasis    decimal.Decimal    `json:"totalCostBasis" swaggertype:"string"`
	TotalMarketValue  decimal.Decimal    `json:"totalMarketValue" swaggertype:"string"`
	TotalUnrealizedPL decimal.Decimal    `json:"totalUnrealizedPL" swaggertype:"string"`
	ValuedAt          time.Time          `json:"valuedAt"`
}

// ImportResponse reports how many positions an import stored.
type ImportResponse struct {
	Imported int `json:"imported" example:"12"`
}
