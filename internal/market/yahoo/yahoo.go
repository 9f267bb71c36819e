package yahoo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/equity"

	"github.com/Mithun-VK/trading-chatbot/internal/market"
)

const defaultBaseURL = "https://query1.finance.yahoo.com"

// HTTPClient describes an HTTP client.
//
//go:generate mockgen -package=yahoo_test -destination=mock_http_client_test.go -source=yahoo.go HTTPClient
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// EquityLister fetches equity records for symbols in one request.
type EquityLister func(symbols []string) ([]*finance.Equity, error)

// Provider implements market.Provider on top of the Yahoo Finance quote
// endpoint (through finance-go) and the trending endpoint.
type Provider struct {
	// baseURL is the base URL of the trending endpoint.
	baseURL string
	// httpClient performs trending requests.
	httpClient HTTPClient
	// header contains additional headers sent with each trending request.
	header http.Header
	// list fetches quotes.
	list EquityLister
}

// Option configures a Provider.
type Option func(*Provider)

// WithBaseURL sets the base URL of the trending endpoint.
func WithBaseURL(baseURL string) Option {
	return func(p *Provider) {
		p.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithHTTPClient sets the HTTP client used for trending requests.
func WithHTTPClient(httpClient HTTPClient) Option {
	return func(p *Provider) {
		p.httpClient = httpClient
	}
}

// WithEquityLister replaces the finance-go quote call.
func WithEquityLister(list EquityLister) Option {
	return func(p *Provider) {
		p.list = list
	}
}

// New creates a Yahoo provider. timeout bounds every outbound request,
// including the ones issued by finance-go.
func New(timeout time.Duration, options ...Option) *Provider {
	httpClient := &http.Client{Timeout: timeout}
	sdkClientOnce.Do(func() { finance.SetHTTPClient(httpClient) })

	p := &Provider{
		baseURL:    defaultBaseURL,
		httpClient: httpClient,
		header:     http.Header{"User-Agent": []string{"stockchat/1.0"}},
		list:       listEquities,
	}
	for _, option := range options {
		option(p)
	}
	return p
}

// finance-go keeps its HTTP client in a package variable.
var sdkClientOnce sync.Once

func listEquities(symbols []string) ([]*finance.Equity, error) {
	iter := equity.List(symbols)
	var out []*finance.Equity
	for iter.Next() {
		out = append(out, iter.Equity())
	}
	return out, iter.Err()
}

// Quotes implements market.Provider. finance-go has no context support, so
// the call runs in its own goroutine and is abandoned when ctx ends.
func (p *Provider) Quotes(ctx context.Context, symbols []string) ([]market.RawQuote, error) {
	if len(symbols) == 0 {
		return []market.RawQuote{}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	type result struct {
		equities []*finance.Equity
		err      error
	}
	done := make(chan result, 1)
	go func() {
		eqs, err := p.list(symbols)
		done <- result{eqs, err}
	}()

	var res result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-done:
	}
	if res.err != nil {
		return nil, classify(res.err)
	}

	out := make([]market.RawQuote, 0, len(res.equities))
	for _, eq := range res.equities {
		if eq == nil || eq.Symbol == "" {
			continue
		}
		out = append(out, toRaw(eq))
	}
	return out, nil
}

func classify(err error) error {
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "429") || strings.Contains(msg, "too many requests") {
		return fmt.Errorf("%w: %v", market.ErrRateLimited, err)
	}
	return fmt.Errorf("yahoo quotes: %w", err)
}

// toRaw flattens an SDK record into provider field names. Zero valuation
// values are left out so they read as unknown rather than 0.
func toRaw(eq *finance.Equity) market.RawQuote {
	raw := market.RawQuote{
		"symbol":                     eq.Symbol,
		"regularMarketPrice":         eq.RegularMarketPrice,
		"regularMarketChange":        eq.RegularMarketChange,
		"regularMarketChangePercent": eq.RegularMarketChangePercent,
		"regularMarketDayHigh":       eq.RegularMarketDayHigh,
		"regularMarketDayLow":        eq.RegularMarketDayLow,
		"regularMarketOpen":          eq.RegularMarketOpen,
		"regularMarketPreviousClose": eq.RegularMarketPreviousClose,
		"regularMarketVolume":        eq.RegularMarketVolume,
		"averageDailyVolume3Month":   eq.AverageDailyVolume3Month,
	}
	setText(raw, "longName", eq.LongName)
	setText(raw, "shortName", eq.ShortName)
	setText(raw, "currency", eq.CurrencyID)
	setText(raw, "fullExchangeName", eq.FullExchangeName)

	if eq.MarketCap > 0 {
		raw["marketCap"] = eq.MarketCap
	}
	if eq.TrailingPE != 0 {
		raw["trailingPE"] = eq.TrailingPE
	}
	if eq.ForwardPE != 0 {
		raw["forwardPE"] = eq.ForwardPE
	}
	if eq.TrailingAnnualDividendYield > 0 {
		raw["trailingAnnualDividendYield"] = eq.TrailingAnnualDividendYield
	}
	return raw
}

func setText(raw market.RawQuote, key, v string) {
	if v != "" {
		raw[key] = v
	}
}

// ErrEmptyTrending is returned when the trending endpoint answers without results.
var ErrEmptyTrending = errors.New("empty trending response")

var _ market.Provider = (*Provider)(nil)
