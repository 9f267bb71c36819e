package market

import (
	"context"
	"errors"
	"fmt"
)

// RawQuote is one provider record keyed by the provider's own field names.
// Field names vary across vendors and SDK versions; Normalize reconciles them.
type RawQuote map[string]any

// Provider is the external market-data source.
//
//go:generate mockgen -source=provider.go -destination=mock_provider_test.go -package=market
type Provider interface {
	// Quotes fetches raw records for symbols in one call. Unknown symbols are
	// simply absent from the result.
	Quotes(ctx context.Context, symbols []string) ([]RawQuote, error)
	// Trending returns up to count trending symbols for a region.
	Trending(ctx context.Context, region string, count int) ([]string, error)
}

var (
	// ErrUnknownSymbol means the provider returned no record for the symbol.
	ErrUnknownSymbol = errors.New("unknown symbol")
	// ErrRateLimited means the provider answered with its rate-limit signal (HTTP 429).
	ErrRateLimited = errors.New("provider rate limited")
)

// UpstreamError is returned by single-symbol lookups when the provider fails.
type UpstreamError struct {
	Symbol string
	Err    error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("quote %s: %v", e.Symbol, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }
