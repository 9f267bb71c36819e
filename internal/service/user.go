package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Mithun-VK/trading-chatbot/internal/apperr"
	"github.com/Mithun-VK/trading-chatbot/internal/domain/models"
	"github.com/Mithun-VK/trading-chatbot/internal/storage"
)

var (
	riskTolerances = map[string]bool{"": true, "low": true, "medium": true, "high": true}
	experiences    = map[string]bool{"": true, "beginner": true, "intermediate": true, "advanced": true}

	hundred = decimal.NewFromInt(100)
)

// Watchlist is a user's followed symbols with their current quotes.
type Watchlist struct {
	Items  []models.WatchlistItem
	Quotes []models.Quote
}

// PositionValue is one position valued at the current price.
// Unpriced positions are carried at cost with a zero P/L.
type PositionValue struct {
	models.Position
	Price             decimal.Decimal
	Priced            bool
	CostBasis         decimal.Decimal
	MarketValue       decimal.Decimal
	UnrealizedPL      decimal.Decimal
	UnrealizedPLPct   decimal.Decimal
	QuoteSourceIsMock bool
}

// Portfolio is a user's positions valued with live quotes.
type Portfolio struct {
	UserID            string
	Positions         []PositionValue
	TotalCostBasis    decimal.Decimal
	TotalMarketValue  decimal.Decimal
	TotalUnrealizedPL decimal.Decimal
	ValuedAt          time.Time
}

// UserService manages profiles, watchlists and portfolios. Every method
// fails with apperr.NotConfigured when no store is configured.
type UserService interface {
	GetProfile(ctx context.Context, userID string) (models.UserProfile, error)
	UpdateProfile(ctx context.Context, p models.UserProfile) (models.UserProfile, error)

	Watchlist(ctx context.Context, userID string) (Watchlist, error)
	AddToWatchlist(ctx context.Context, userID, symbol string) error
	RemoveFromWatchlist(ctx context.Context, userID, symbol string) error

	Portfolio(ctx context.Context, userID string) (Portfolio, error)
	UpsertPosition(ctx context.Context, p models.Position) (models.Position, error)
	RemovePosition(ctx context.Context, userID, symbol string) error
	ImportPositions(ctx context.Context, userID string, r io.Reader) (int, error)
}

type userService struct {
	store storage.Store
	data  MarketData
	now   func() time.Time
}

// NewUserService builds a UserService; store may be nil.
func NewUserService(store storage.Store, data MarketData) UserService {
	return &userService{store: store, data: data, now: systemNow}
}

func (s *userService) check(userID string) (string, error) {
	if s.store == nil {
		return "", errNoStore
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", apperr.New(apperr.Validation, "userId is required")
	}
	return userID, nil
}

func storeErr(err error, msg string) error {
	if errors.Is(err, storage.ErrNotFound) {
		return apperr.Wrap(apperr.NotFound, msg, err)
	}
	return apperr.Wrap(apperr.Internal, "storage failure", err)
}

func (s *userService) GetProfile(ctx context.Context, userID string) (models.UserProfile, error) {
	userID, err := s.check(userID)
	if err != nil {
		return models.UserProfile{}, err
	}
	p, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		return models.UserProfile{}, storeErr(err, "profile not found")
	}
	return *p, nil
}

func (s *userService) UpdateProfile(ctx context.Context, p models.UserProfile) (models.UserProfile, error) {
	userID, err := s.check(p.UserID)
	if err != nil {
		return models.UserProfile{}, err
	}
	p.UserID = userID
	p.DisplayName = strings.TrimSpace(p.DisplayName)
	p.RiskTolerance = strings.ToLower(strings.TrimSpace(p.RiskTolerance))
	p.Experience = strings.ToLower(strings.TrimSpace(p.Experience))
	if !riskTolerances[p.RiskTolerance] {
		return models.UserProfile{}, apperr.New(apperr.Validation, "riskTolerance must be one of low, medium, high")
	}
	if !experiences[p.Experience] {
		return models.UserProfile{}, apperr.New(apperr.Validation, "experience must be one of beginner, intermediate, advanced")
	}
	p.UpdatedAt = s.now()

	if err := s.store.UpsertProfile(ctx, p); err != nil {
		return models.UserProfile{}, storeErr(err, "")
	}
	return p, nil
}

func (s *userService) Watchlist(ctx context.Context, userID string) (Watchlist, error) {
	userID, err := s.check(userID)
	if err != nil {
		return Watchlist{}, err
	}
	items, err := s.store.Watchlist(ctx, userID)
	if err != nil {
		return Watchlist{}, storeErr(err, "")
	}
	if items == nil {
		items = []models.WatchlistItem{}
	}

	symbols := make([]string, 0, len(items))
	for _, it := range items {
		symbols = append(symbols, it.Symbol)
	}
	return Watchlist{Items: items, Quotes: s.data.GetQuotes(ctx, symbols)}, nil
}

func (s *userService) AddToWatchlist(ctx context.Context, userID, symbol string) error {
	userID, err := s.check(userID)
	if err != nil {
		return err
	}
	sym, err := validSymbol(symbol)
	if err != nil {
		return err
	}
	if err := s.store.AddToWatchlist(ctx, userID, sym); err != nil {
		return storeErr(err, "")
	}
	return nil
}

func (s *userService) RemoveFromWatchlist(ctx context.Context, userID, symbol string) error {
	userID, err := s.check(userID)
	if err != nil {
		return err
	}
	sym, err := validSymbol(symbol)
	if err != nil {
		return err
	}
	if err := s.store.RemoveFromWatchlist(ctx, userID, sym); err != nil {
		return storeErr(err, sym+" is not on the watchlist")
	}
	return nil
}

func (s *userService) Portfolio(ctx context.Context, userID string) (Portfolio, error) {
	userID, err := s.check(userID)
	if err != nil {
		return Portfolio{}, err
	}
	positions, err := s.store.Portfolio(ctx, userID)
	if err != nil {
		return Portfolio{}, storeErr(err, "")
	}

	symbols := make([]string, 0, len(positions))
	for _, p := range positions {
		symbols = append(symbols, p.Symbol)
	}
	quotes := make(map[string]models.Quote)
	for _, q := range s.data.GetQuotes(ctx, symbols) {
		quotes[q.Symbol] = q
	}

	return valuePortfolio(userID, positions, quotes, s.now()), nil
}

// valuePortfolio computes cost basis, market value and unrealized P/L per
// position and in total.
func valuePortfolio(userID string, positions []models.Position, quotes map[string]models.Quote, at time.Time) Portfolio {
	out := Portfolio{
		UserID:            userID,
		Positions:         make([]PositionValue, 0, len(positions)),
		TotalCostBasis:    decimal.Zero,
		TotalMarketValue:  decimal.Zero,
		TotalUnrealizedPL: decimal.Zero,
		ValuedAt:          at,
	}

	for _, p := range positions {
		v := PositionValue{Position: p, CostBasis: p.Shares.Mul(p.AverageCost)}
		v.MarketValue = v.CostBasis

		if q, ok := quotes[p.Symbol]; ok && q.Price > 0 {
			v.Priced = true
			v.QuoteSourceIsMock = q.IsMock()
			v.Price = decimal.NewFromFloat(q.Price)
			v.MarketValue = p.Shares.Mul(v.Price).Round(2)
		}
		v.UnrealizedPL = v.MarketValue.Sub(v.CostBasis)
		if v.CostBasis.IsPositive() {
			v.UnrealizedPLPct = v.UnrealizedPL.Div(v.CostBasis).Mul(hundred).Round(2)
		}

		out.TotalCostBasis = out.TotalCostBasis.Add(v.CostBasis)
		out.TotalMarketValue = out.TotalMarketValue.Add(v.MarketValue)
		out.Positions = append(out.Positions, v)
	}
	out.TotalUnrealizedPL = out.TotalMarketValue.Sub(out.TotalCostBasis)
	return out
}

func (s *userService) UpsertPosition(ctx context.Context, p models.Position) (models.Position, error) {
	userID, err := s.check(p.UserID)
	if err != nil {
		return models.Position{}, err
	}
	sym, err := validSymbol(p.Symbol)
	if err != nil {
		return models.Position{}, err
	}
	if !p.Shares.IsPositive() {
		return models.Position{}, apperr.New(apperr.Validation, "shares must be positive")
	}
	if p.AverageCost.IsNegative() {
		return models.Position{}, apperr.New(apperr.Validation, "averageCost must not be negative")
	}

	p.UserID, p.Symbol, p.UpdatedAt = userID, sym, s.now()
	if err := s.store.UpsertPosition(ctx, p); err != nil {
		return models.Position{}, storeErr(err, "")
	}
	return p, nil
}

func (s *userService) RemovePosition(ctx context.Context, userID, symbol string) error {
	userID, err := s.check(userID)
	if err != nil {
		return err
	}
	sym, err := validSymbol(symbol)
	if err != nil {
		return err
	}
	if err := s.store.RemovePosition(ctx, userID, sym); err != nil {
		return storeErr(err, "no position in "+sym)
	}
	return nil
}

// ImportPositions parses r with ParsePositions and upserts every row.
// Parsing is all-or-nothing; a storage failure stops the import midway.
func (s *userService) ImportPositions(ctx context.Context, userID string, r io.Reader) (int, error) {
	userID, err := s.check(userID)
	if err != nil {
		return 0, err
	}
	positions, err := ParsePositions(ctx, r)
	if err != nil {
		return 0, apperr.Wrap(apperr.Validation, "invalid portfolio import", err)
	}

	now := s.now()
	for i, p := range positions {
		p.UserID, p.UpdatedAt = userID, now
		if err := s.store.UpsertPosition(ctx, p); err != nil {
			return i, storeErr(err, "")
		}
	}
	return len(positions), nil
}
