package service

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/Mithun-VK/trading-chatbot/internal/apperr"
	"github.com/Mithun-VK/trading-chatbot/internal/domain/models"
)

func newUsers(store *memStore) (*userService, *fakeMarket) {
	fm := &fakeMarket{quotes: map[string]models.Quote{
		"AAPL": liveQuote("AAPL", 200, 1),
		"MSFT": liveQuote("MSFT", 400, -1),
	}}
	var svc UserService
	if store == nil {
		svc = NewUserService(nil, fm)
	} else {
		svc = NewUserService(store, fm)
	}
	us := svc.(*userService)
	us.now = fixedNow
	return us, fm
}

func TestUserService_NoStore(t *testing.T) {
	svc, _ := newUsers(nil)
	ctx := context.Background()

	checks := map[string]error{}
	_, checks["profile"] = svc.GetProfile(ctx, "u1")
	_, checks["watchlist"] = svc.Watchlist(ctx, "u1")
	_, checks["portfolio"] = svc.Portfolio(ctx, "u1")
	checks["add"] = svc.AddToWatchlist(ctx, "u1", "AAPL")
	_, checks["import"] = svc.ImportPositions(ctx, "u1", strings.NewReader(""))

	for name, err := range checks {
		if !apperr.Is(err, apperr.NotConfigured) {
			t.Fatalf("%s: expected not configured, got %v", name, err)
		}
	}
}

func TestUserService_Profile(t *testing.T) {
	svc, _ := newUsers(newMemStore())
	ctx := context.Background()

	if _, err := svc.GetProfile(ctx, "u1"); !apperr.Is(err, apperr.NotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := svc.UpdateProfile(ctx, models.UserProfile{UserID: "u1", RiskTolerance: "yolo"}); !apperr.Is(err, apperr.Validation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	saved, err := svc.UpdateProfile(ctx, models.UserProfile{UserID: " u1 ", DisplayName: " Ann ", RiskTolerance: "High", Experience: "beginner"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if saved.UserID != "u1" || saved.RiskTolerance != "high" || saved.DisplayName != "Ann" || !saved.UpdatedAt.Equal(t0) {
		t.Fatalf("unexpected saved profile: %+v", saved)
	}
	got, err := svc.GetProfile(ctx, "u1")
	if err != nil || got.Experience != "beginner" {
		t.Fatalf("get after update: %+v %v", got, err)
	}
}

func TestUserService_Watchlist(t *testing.T) {
	svc, fm := newUsers(newMemStore())
	ctx := context.Background()

	if err := svc.AddToWatchlist(ctx, "u1", "bad symbol!"); !apperr.Is(err, apperr.Validation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	for _, s := range []string{"aapl", "$MSFT", "AAPL"} {
		if err := svc.AddToWatchlist(ctx, "u1", s); err != nil {
			t.Fatalf("add %s: %v", s, err)
		}
	}

	wl, err := svc.Watchlist(ctx, "u1")
	if err != nil {
		t.Fatalf("watchlist: %v", err)
	}
	if len(wl.Items) != 2 || len(wl.Quotes) != 2 {
		t.Fatalf("expected 2 items and quotes, got %+v", wl)
	}
	if strings.Join(fm.asked, ",") != "AAPL,MSFT" {
		t.Fatalf("quotes must be fetched for the watchlist symbols, got %v", fm.asked)
	}

	if err := svc.RemoveFromWatchlist(ctx, "u1", "TSLA"); !apperr.Is(err, apperr.NotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := svc.RemoveFromWatchlist(ctx, "u1", "aapl"); err != nil {
		t.Fatalf("remove: %v", err)
	}

	empty, err := svc.Watchlist(ctx, "u2")
	if err != nil || empty.Items == nil || len(empty.Items) != 0 {
		t.Fatalf("expected empty non-nil watchlist, got %+v %v", empty, err)
	}
}

func TestUserService_PortfolioValuation(t *testing.T) {
	svc, _ := newUsers(newMemStore())
	ctx := context.Background()

	mustPos := func(symbol, shares, cost string) {
		t.Helper()
		_, err := svc.UpsertPosition(ctx, models.Position{
			UserID: "u1", Symbol: symbol,
			Shares: decimal.RequireFromString(shares), AverageCost: decimal.RequireFromString(cost),
		})
		if err != nil {
			t.Fatalf("upsert %s: %v", symbol, err)
		}
	}
	mustPos("AAPL", "10", "150")
	mustPos("msft", "2", "450")
	mustPos("XYZ", "5", "20")

	pf, err := svc.Portfolio(ctx, "u1")
	if err != nil {
		t.Fatalf("portfolio: %v", err)
	}
	if len(pf.Positions) != 3 {
		t.Fatalf("expected 3 positions, got %d", len(pf.Positions))
	}

	byS := map[string]PositionValue{}
	for _, p := range pf.Positions {
		byS[p.Symbol] = p
	}
	eq := func(d decimal.Decimal, want string) bool { return d.Equal(decimal.RequireFromString(want)) }

	aapl := byS["AAPL"]
	if !aapl.Priced || !eq(aapl.MarketValue, "2000") || !eq(aapl.UnrealizedPL, "500") || !eq(aapl.UnrealizedPLPct, "33.33") {
		t.Fatalf("unexpected AAPL valuation: %+v", aapl)
	}
	msft := byS["MSFT"]
	if !eq(msft.UnrealizedPL, "-100") || !eq(msft.UnrealizedPLPct, "-11.11") {
		t.Fatalf("unexpected MSFT valuation: %+v", msft)
	}
	xyz := byS["XYZ"]
	if xyz.Priced || !eq(xyz.MarketValue, "100") || !xyz.UnrealizedPL.IsZero() {
		t.Fatalf("unpriced position must be carried at cost: %+v", xyz)
	}

	if !eq(pf.TotalCostBasis, "2500") || !eq(pf.TotalMarketValue, "2900") || !eq(pf.TotalUnrealizedPL, "400") {
		t.Fatalf("unexpected totals: cost=%s value=%s pl=%s", pf.TotalCostBasis, pf.TotalMarketValue, pf.TotalUnrealizedPL)
	}
}

func TestUserService_UpsertPositionValidation(t *testing.T) {
	svc, _ := newUsers(newMemStore())
	ctx := context.Background()

	cases := []models.Position{
		{UserID: "u1", Symbol: "AAPL", Shares: decimal.Zero, AverageCost: decimal.NewFromInt(1)},
		{UserID: "u1", Symbol: "AAPL", Shares: decimal.NewFromInt(1), AverageCost: decimal.NewFromInt(-1)},
		{UserID: "u1", Symbol: "", Shares: decimal.NewFromInt(1)},
		{UserID: "", Symbol: "AAPL", Shares: decimal.NewFromInt(1)},
	}
	for i, p := range cases {
		if _, err := svc.UpsertPosition(ctx, p); !apperr.Is(err, apperr.Validation) {
			t.Fatalf("case %d: expected validation error, got %v", i, err)
		}
	}

	if err := svc.RemovePosition(ctx, "u1", "AAPL"); !apperr.Is(err, apperr.NotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUserService_ImportPositions(t *testing.T) {
	store := newMemStore()
	svc, _ := newUsers(store)
	ctx := context.Background()

	n, err := svc.ImportPositions(ctx, "u1", strings.NewReader("symbol;shares;average_cost\nAAPL;10;150,5\nMSFT;1;300\n"))
	if err != nil || n != 2 {
		t.Fatalf("import: n=%d err=%v", n, err)
	}
	if got := store.positions["u1"]["AAPL"]; got.UserID != "u1" || !got.UpdatedAt.Equal(t0) {
		t.Fatalf("imported position not owned by the user: %+v", got)
	}

	if _, err := svc.ImportPositions(ctx, "u1", strings.NewReader("nope\n")); !apperr.Is(err, apperr.Validation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	store.failWith = errBoom
	if _, err := svc.ImportPositions(ctx, "u1", strings.NewReader("symbol;shares;average_cost\nAAPL;1;1\n")); !apperr.Is(err, apperr.Internal) {
		t.Fatalf("expected internal error, got %v", err)
	}
}
