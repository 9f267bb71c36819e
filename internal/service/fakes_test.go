package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/Mithun-VK/trading-chatbot/internal/domain/models"
	"github.com/Mithun-VK/trading-chatbot/internal/events"
	"github.com/Mithun-VK/trading-chatbot/internal/market"
	"github.com/Mithun-VK/trading-chatbot/internal/storage"
)

var t0 = time.Date(2025, 3, 12, 15, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return t0 }

type fakeMarket struct {
	quotes   map[string]models.Quote
	quoteErr error
	summary  models.MarketSummary
	asked    []string
}

func (f *fakeMarket) GetQuote(_ context.Context, symbol string) (models.Quote, error) {
	if f.quoteErr != nil {
		return models.Quote{}, f.quoteErr
	}
	q, ok := f.quotes[symbol]
	if !ok {
		return models.Quote{}, &market.UpstreamError{Symbol: symbol, Err: market.ErrUnknownSymbol}
	}
	return q, nil
}

func (f *fakeMarket) GetQuotes(_ context.Context, symbols []string) []models.Quote {
	f.asked = append(f.asked, symbols...)
	out := []models.Quote{}
	for _, s := range symbols {
		if q, ok := f.quotes[s]; ok {
			out = append(out, q)
		}
	}
	return out
}

func (f *fakeMarket) GetRelevantData(ctx context.Context, message string) *market.RelevantData {
	symbols := market.ExtractSymbols(message)
	if len(symbols) == 0 {
		return nil
	}
	return &market.RelevantData{Quotes: f.GetQuotes(ctx, symbols), ExtractedSymbols: symbols}
}

func (f *fakeMarket) GetMarketSummary(context.Context) models.MarketSummary { return f.summary }

func liveQuote(symbol string, price, changePct float64) models.Quote {
	return models.Quote{Symbol: symbol, DisplayName: symbol, Price: price, ChangePercent: changePct, Currency: "USD", SourceTag: models.SourceLive, FetchedAt: t0}
}

// memStore is an in-memory storage.Store.
type memStore struct {
	mu        sync.Mutex
	messages  []models.ChatMessage
	profiles  map[string]models.UserProfile
	watch     map[string][]models.WatchlistItem
	positions map[string]map[string]models.Position
	failWith  error
}

func newMemStore() *memStore {
	return &memStore{
		profiles:  map[string]models.UserProfile{},
		watch:     map[string][]models.WatchlistItem{},
		positions: map[string]map[string]models.Position{},
	}
}

var _ storage.Store = (*memStore)(nil)

func (m *memStore) AppendMessages(_ context.Context, msgs ...models.ChatMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	m.messages = append(m.messages, msgs...)
	return nil
}

func (m *memStore) History(_ context.Context, userID string, limit int) ([]models.ChatMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	var out []models.ChatMessage
	for _, msg := range m.messages {
		if msg.UserID == userID {
			out = append(out, msg)
		}
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (m *memStore) GetProfile(_ context.Context, userID string) (*models.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &p, nil
}

func (m *memStore) UpsertProfile(_ context.Context, p models.UserProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[p.UserID] = p
	return nil
}

func (m *memStore) Watchlist(_ context.Context, userID string) ([]models.WatchlistItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.WatchlistItem(nil), m.watch[userID]...), nil
}

func (m *memStore) AddToWatchlist(_ context.Context, userID, symbol string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, it := range m.watch[userID] {
		if it.Symbol == symbol {
			return nil
		}
	}
	m.watch[userID] = append(m.watch[userID], models.WatchlistItem{UserID: userID, Symbol: symbol, AddedAt: t0})
	return nil
}

func (m *memStore) RemoveFromWatchlist(_ context.Context, userID, symbol string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := m.watch[userID]
	for i, it := range items {
		if it.Symbol == symbol {
			m.watch[userID] = append(items[:i], items[i+1:]...)
			return nil
		}
	}
	return storage.ErrNotFound
}

func (m *memStore) Portfolio(_ context.Context, userID string) ([]models.Position, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Position{}
	for _, p := range m.positions[userID] {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out, nil
}

func (m *memStore) UpsertPosition(_ context.Context, p models.Position) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	if m.positions[p.UserID] == nil {
		m.positions[p.UserID] = map[string]models.Position{}
	}
	m.positions[p.UserID][p.Symbol] = p
	return nil
}

func (m *memStore) RemovePosition(_ context.Context, userID, symbol string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.positions[userID][symbol]; !ok {
		return storage.ErrNotFound
	}
	delete(m.positions[userID], symbol)
	return nil
}

func (m *memStore) Ping(context.Context) error  { return nil }
func (m *memStore) Close(context.Context) error { return nil }

type recordingPublisher struct {
	events []events.ChatEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e events.ChatEvent) error {
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

type stubGenerator struct {
	text    string
	err     error
	prompts []string
}

func (g *stubGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	return g.text, g.err
}

var errBoom = errors.New("boom")
