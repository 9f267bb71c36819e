package models

import "time"

// SourceTag distinguishes live provider data from synthetic data.
type SourceTag string

const (
	SourceLive SourceTag = "live"
	SourceMock SourceTag = "mock"
)

// Quote is the canonical normalized snapshot of one instrument at fetch time.
//
// Numeric core fields are always present (0 when the provider omits them) so
// text templates never deal with missing values. Valuation fields are pointers:
// nil means "unknown", which must stay distinguishable from zero.
//
// swagger:model Quote
type Quote struct {
	Symbol        string    `json:"symbol" example:"AAPL"`
	DisplayName   string    `json:"displayName" example:"Apple Inc."`
	Price         float64   `json:"price" example:"189.84"`
	Change        float64   `json:"change" example:"1.12"`
	ChangePercent float64   `json:"changePercent" example:"0.59"`
	DayHigh       float64   `json:"dayHigh" example:"190.32"`
	DayLow        float64   `json:"dayLow" example:"187.90"`
	Open          float64   `json:"open" example:"188.10"`
	PreviousClose float64   `json:"previousClose" example:"188.72"`
	Volume        float64   `json:"volume" example:"48211000"`
	AverageVolume float64   `json:"averageVolume" example:"55100000"`
	MarketCap     *float64  `json:"marketCap,omitempty" example:"2950000000000"`
	PERatio       *float64  `json:"peRatio,omitempty" example:"29.4"`
	ForwardPE     *float64  `json:"forwardPE,omitempty" example:"27.1"`
	DividendYield *float64  `json:"dividendYield,omitempty" example:"0.0051"`
	Currency      string    `json:"currency" example:"USD"`
	Exchange      string    `json:"exchange,omitempty" example:"NasdaqGS"`
	FetchedAt     time.Time `json:"fetchedAt"`
	SourceTag     SourceTag `json:"sourceTag" example:"live"`
}

// IsMock reports whether the quote is synthetic.
func (q Quote) IsMock() bool { return q.SourceTag == SourceMock }

// Sentiment is the aggregate mood label of the index quotes.
type Sentiment string

const (
	SentimentBullish           Sentiment = "bullish"
	SentimentModeratelyBullish Sentiment = "moderately-bullish"
	SentimentNeutral           Sentiment = "neutral"
	SentimentModeratelyBearish Sentiment = "moderately-bearish"
	SentimentBearish           Sentiment = "bearish"
)

// MarketStatus is the US equity session state at a point in time.
type MarketStatus string

const (
	MarketOpen       MarketStatus = "open"
	MarketPreMarket  MarketStatus = "pre-market"
	MarketAfterHours MarketStatus = "after-hours"
	MarketClosed     MarketStatus = "closed"
)

// MarketSummary aggregates index quotes, trending names and a sentiment label.
type MarketSummary struct {
	Indices     []Quote      `json:"indices"`
	Trending    []Quote      `json:"trending"`
	Sentiment   Sentiment    `json:"sentiment" example:"neutral"`
	Status      MarketStatus `json:"status" example:"open"`
	GeneratedAt time.Time    `json:"generatedAt"`
}
