package market

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Mithun-VK/trading-chatbot/internal/domain/models"
	"github.com/Mithun-VK/trading-chatbot/internal/logger"
	"github.com/Mithun-VK/trading-chatbot/internal/metrics"
)

const (
	DefaultTrendingTTL    = 5 * time.Minute
	DefaultTrendingRegion = "US"
	// MaxTrendingQuotes caps the trending section of the market summary.
	MaxTrendingQuotes = 5
	// fallbackParallelism bounds per-symbol lookups after a failed batch.
	fallbackParallelism = 4
)

// DefaultIndices are the indices reported by the market summary.
var DefaultIndices = []string{"^GSPC", "^DJI", "^IXIC"}

// Options tunes a Client. Zero values select the defaults.
type Options struct {
	RateLimit      int
	RateWindow     time.Duration
	CacheTTL       time.Duration
	TrendingTTL    time.Duration
	TrendingRegion string
	Indices        []string
	Clock          Clock
}

// Client is the market data access layer: every provider call goes through
// one rate limiter and results are cached per symbol.
type Client struct {
	provider Provider
	clock    Clock
	limiter  *RateLimiter
	quotes   *Cache[models.Quote]
	trending *Cache[[]string]
	indices  []string
	region   string
}

// RelevantData is the market context attached to a chat message.
type RelevantData struct {
	Quotes           []models.Quote `json:"quotes"`
	ExtractedSymbols []string       `json:"extractedSymbols"`
}

// NewClient builds a Client around provider.
func NewClient(provider Provider, opts Options) *Client {
	clock := opts.Clock
	if clock == nil {
		clock = SystemClock{}
	}
	trendingTTL := opts.TrendingTTL
	if trendingTTL <= 0 {
		trendingTTL = DefaultTrendingTTL
	}
	region := opts.TrendingRegion
	if region == "" {
		region = DefaultTrendingRegion
	}
	indices := opts.Indices
	if len(indices) == 0 {
		indices = DefaultIndices
	}

	return &Client{
		provider: provider,
		clock:    clock,
		limiter:  NewRateLimiter(opts.RateLimit, opts.RateWindow, clock),
		quotes:   NewCache[models.Quote]("quotes", opts.CacheTTL, clock),
		trending: NewCache[[]string]("trending", trendingTTL, clock),
		indices:  indices,
		region:   region,
	}
}

// StartSweepers removes long-expired cache entries in the background until ctx is done.
func (c *Client) StartSweepers(ctx context.Context) {
	c.quotes.StartSweeper(ctx, c.quotes.TTL())
	c.trending.StartSweeper(ctx, c.trending.TTL())
}

// ClearCache drops all cached quotes and trending lists.
func (c *Client) ClearCache() {
	c.quotes.Clear()
	c.trending.Clear()
}

func quoteKey(symbol string) string { return "quote:" + symbol }

// GetQuote returns the quote for one symbol, from cache when fresh.
// Failures are reported as *UpstreamError.
func (c *Client) GetQuote(ctx context.Context, symbol string) (models.Quote, error) {
	sym := NormalizeSymbol(symbol)
	if sym == "" {
		return models.Quote{}, &UpstreamError{Symbol: symbol, Err: ErrUnknownSymbol}
	}

	return c.quotes.GetOrFetch(ctx, quoteKey(sym), func(ctx context.Context) (models.Quote, error) {
		raws, err := c.fetch(ctx, "quote", []string{sym})
		if err != nil {
			return models.Quote{}, &UpstreamError{Symbol: sym, Err: err}
		}
		for _, raw := range raws {
			if s := SymbolOf(raw); s == sym || (s == "" && len(raws) == 1) {
				q := Normalize(raw, c.clock.Now())
				q.Symbol = sym
				return q, nil
			}
		}
		return models.Quote{}, &UpstreamError{Symbol: sym, Err: ErrUnknownSymbol}
	})
}

// GetQuotes returns quotes for symbols in input order, silently dropping the
// ones that could not be resolved. Cached symbols are served locally and the
// rest are fetched in one batch; when the batch fails each symbol is retried
// on its own.
func (c *Client) GetQuotes(ctx context.Context, symbols []string) []models.Quote {
	syms := dedupeSymbols(symbols)
	if len(syms) == 0 {
		return []models.Quote{}
	}

	found := make(map[string]models.Quote, len(syms))
	var missing []string
	for _, s := range syms {
		if q, ok := c.quotes.Get(quoteKey(s)); ok {
			metrics.CacheLookups.WithLabelValues("quotes", "hit").Inc()
			found[s] = q
			continue
		}
		metrics.CacheLookups.WithLabelValues("quotes", "miss").Inc()
		missing = append(missing, s)
	}

	if len(missing) > 0 {
		raws, err := c.fetch(ctx, "batch", missing)
		if err == nil {
			c.storeBatch(raws, missing, found)
		} else {
			logger.L().Warn().Err(err).Strs("symbols", missing).Msg("batch quote fetch failed, falling back to single lookups")
			c.fetchEach(ctx, missing, found)
		}
	}

	out := make([]models.Quote, 0, len(found))
	for _, s := range syms {
		if q, ok := found[s]; ok {
			out = append(out, q)
		}
	}
	return out
}

func (c *Client) storeBatch(raws []RawQuote, requested []string, found map[string]models.Quote) {
	wanted := make(map[string]struct{}, len(requested))
	for _, s := range requested {
		wanted[s] = struct{}{}
	}
	now := c.clock.Now()
	for _, raw := range raws {
		sym := SymbolOf(raw)
		if _, ok := wanted[sym]; !ok {
			continue
		}
		q := Normalize(raw, now)
		c.quotes.Set(quoteKey(sym), q)
		found[sym] = q
	}
}

func (c *Client) fetchEach(ctx context.Context, symbols []string, found map[string]models.Quote) {
	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(fallbackParallelism)
	for _, s := range symbols {
		g.Go(func() error {
			q, err := c.GetQuote(ctx, s)
			if err != nil {
				logger.L().Debug().Err(err).Str("symbol", s).Msg("dropping symbol")
				return nil
			}
			mu.Lock()
			found[s] = q
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
}

// GetRelevantData extracts symbols from message and fetches their quotes.
// It returns nil without touching the provider when no symbol is found.
func (c *Client) GetRelevantData(ctx context.Context, message string) *RelevantData {
	syms := ExtractSymbols(message)
	if len(syms) == 0 {
		return nil
	}
	return &RelevantData{
		Quotes:           c.GetQuotes(ctx, syms),
		ExtractedSymbols: syms,
	}
}

// TrendingSymbols returns the provider's trending list for the configured region.
func (c *Client) TrendingSymbols(ctx context.Context) ([]string, error) {
	return c.trending.GetOrFetch(ctx, "trending:"+c.region, func(ctx context.Context) ([]string, error) {
		if err := c.limiter.Acquire(ctx); err != nil {
			return nil, err
		}
		syms, err := c.provider.Trending(ctx, c.region, MaxTrendingQuotes)
		recordUpstream("trending", err)
		if err != nil {
			return nil, err
		}
		return syms, nil
	})
}

// GetMarketSummary reports index quotes, trending quotes, the derived
// sentiment and the current session status. Index and trending lookups run
// concurrently and a failure in either leaves that section empty.
func (c *Client) GetMarketSummary(ctx context.Context) models.MarketSummary {
	var indices, trending []models.Quote

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		indices = c.GetQuotes(gctx, c.indices)
		return nil
	})
	g.Go(func() error {
		syms, err := c.TrendingSymbols(gctx)
		if err != nil {
			logger.L().Warn().Err(err).Msg("trending lookup failed")
			trending = []models.Quote{}
			return nil
		}
		if len(syms) > MaxTrendingQuotes {
			syms = syms[:MaxTrendingQuotes]
		}
		trending = c.GetQuotes(gctx, syms)
		return nil
	})
	_ = g.Wait()

	now := c.clock.Now()
	return models.MarketSummary{
		Indices:     indices,
		Trending:    trending,
		Sentiment:   Sentiment(indices),
		Status:      SessionStatus(now),
		GeneratedAt: now,
	}
}

// Sentiment classifies the mean changePercent of quotes.
func Sentiment(quotes []models.Quote) models.Sentiment {
	if len(quotes) == 0 {
		return models.SentimentNeutral
	}
	var sum float64
	for _, q := range quotes {
		sum += q.ChangePercent
	}
	avg := sum / float64(len(quotes))
	switch {
	case avg > 1:
		return models.SentimentBullish
	case avg > 0.5:
		return models.SentimentModeratelyBullish
	case avg < -1:
		return models.SentimentBearish
	case avg < -0.5:
		return models.SentimentModeratelyBearish
	default:
		return models.SentimentNeutral
	}
}

// fetch is the only path to Provider.Quotes: it takes a limiter slot first.
func (c *Client) fetch(ctx context.Context, op string, symbols []string) ([]RawQuote, error) {
	if err := c.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	raws, err := c.provider.Quotes(ctx, symbols)
	if err != nil {
		err = classifyProviderError(err)
	}
	recordUpstream(op, err)
	if err != nil {
		return nil, err
	}
	return raws, nil
}

func recordUpstream(op string, err error) {
	outcome := "ok"
	switch {
	case errors.Is(err, ErrRateLimited):
		outcome = "rate_limited"
	case err != nil:
		outcome = "error"
	}
	metrics.UpstreamCalls.WithLabelValues(op, outcome).Inc()
}

// classifyProviderError maps vendor throttling text onto ErrRateLimited.
func classifyProviderError(err error) error {
	if errors.Is(err, ErrRateLimited) {
		return err
	}
	msg := err.Error()
	if strings.Contains(msg, "429") || strings.Contains(strings.ToLower(msg), "too many requests") {
		return fmt.Errorf("%w: %v", ErrRateLimited, err)
	}
	return err
}

func dedupeSymbols(symbols []string) []string {
	out := make([]string, 0, len(symbols))
	seen := make(map[string]struct{}, len(symbols))
	for _, s := range symbols {
		s = NormalizeSymbol(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
