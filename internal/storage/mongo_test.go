package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/Mithun-VK/trading-chatbot/internal/domain/models"
)

func TestMongoStore_Profile(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("not found", func(mt *mtest.T) {
		store := NewMongoStore(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, mt.DB.Name()+"."+ProfilesCollection, mtest.FirstBatch))

		if _, err := store.GetProfile(context.Background(), "nobody"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	mt.Run("found", func(mt *mtest.T) {
		store := NewMongoStore(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, mt.DB.Name()+"."+ProfilesCollection, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "u1"},
			{Key: "display_name", Value: "Ana"},
			{Key: "risk_tolerance", Value: "moderate"},
		}))

		p, err := store.GetProfile(context.Background(), "u1")
		if err != nil {
			t.Fatalf("GetProfile: %v", err)
		}
		if p.UserID != "u1" || p.RiskTolerance != "moderate" {
			t.Fatalf("unexpected profile: %+v", p)
		}
	})

	mt.Run("upsert", func(mt *mtest.T) {
		store := NewMongoStore(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}))

		if err := store.UpsertProfile(context.Background(), models.UserProfile{UserID: "u1", RiskTolerance: "high"}); err != nil {
			t.Fatalf("UpsertProfile: %v", err)
		}
	})
}

func TestMongoStore_History(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("chronological", func(mt *mtest.T) {
		store := NewMongoStore(mt.DB)
		newer := time.Date(2025, 9, 11, 14, 0, 1, 0, time.UTC)
		ns := mt.DB.Name() + "." + MessagesCollection
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			bson.D{{Key: "_id", Value: "m2"}, {Key: "user_id", Value: "u1"}, {Key: "role", Value: "assistant"}, {Key: "created_at", Value: newer}},
			bson.D{{Key: "_id", Value: "m1"}, {Key: "user_id", Value: "u1"}, {Key: "role", Value: "user"}, {Key: "created_at", Value: newer.Add(-time.Second)}},
		))

		got, err := store.History(context.Background(), "u1", 10)
		if err != nil {
			t.Fatalf("History: %v", err)
		}
		if len(got) != 2 || got[0].ID != "m1" || got[1].ID != "m2" {
			t.Fatalf("expected oldest first, got %+v", got)
		}
	})

	mt.Run("append", func(mt *mtest.T) {
		store := NewMongoStore(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		if err := store.AppendMessages(context.Background(), sampleMessages()...); err != nil {
			t.Fatalf("AppendMessages: %v", err)
		}
	})
}

func TestMongoStore_WatchlistAndPortfolio(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("remove missing watchlist symbol", func(mt *mtest.T) {
		store := NewMongoStore(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))

		if err := store.RemoveFromWatchlist(context.Background(), "u1", "AAPL"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	mt.Run("add watchlist symbol", func(mt *mtest.T) {
		store := NewMongoStore(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))

		if err := store.AddToWatchlist(context.Background(), "u1", "AAPL"); err != nil {
			t.Fatalf("AddToWatchlist: %v", err)
		}
	})

	mt.Run("portfolio decimals", func(mt *mtest.T) {
		store := NewMongoStore(mt.DB)
		ns := mt.DB.Name() + "." + PositionsCollection
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			bson.D{{Key: "user_id", Value: "u1"}, {Key: "symbol", Value: "AAPL"}, {Key: "shares", Value: "10.5"}, {Key: "average_cost", Value: "150.25"}},
		))

		got, err := store.Portfolio(context.Background(), "u1")
		if err != nil || len(got) != 1 {
			t.Fatalf("Portfolio: %+v %v", got, err)
		}
		if !got[0].Shares.Equal(decimal.RequireFromString("10.5")) || got[0].AverageCost.String() != "150.25" {
			t.Fatalf("unexpected position: %+v", got[0])
		}
	})

	mt.Run("portfolio bad decimal", func(mt *mtest.T) {
		store := NewMongoStore(mt.DB)
		ns := mt.DB.Name() + "." + PositionsCollection
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			bson.D{{Key: "symbol", Value: "AAPL"}, {Key: "shares", Value: "ten"}, {Key: "average_cost", Value: "1"}},
		))

		if _, err := store.Portfolio(context.Background(), "u1"); err == nil {
			t.Fatalf("expected decode error")
		}
	})
}

func TestPositionDoc_RoundTrip(t *testing.T) {
	in := models.Position{UserID: "u1", Symbol: "MSFT", Shares: decimal.RequireFromString("3.125"), AverageCost: decimal.RequireFromString("401.10")}
	out, err := toPositionDoc(in).position()
	if err != nil {
		t.Fatalf("position: %v", err)
	}
	if !out.Shares.Equal(in.Shares) || !out.AverageCost.Equal(in.AverageCost) || out.Symbol != "MSFT" {
		t.Fatalf("round trip mismatch: %+v", out)
	}
}
