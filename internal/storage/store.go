package storage

import (
	"context"
	"errors"

	"github.com/Mithun-VK/trading-chatbot/internal/domain/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Store persists user-facing data: profiles, chat history, watchlists and portfolios.
type Store interface {
	AppendMessages(ctx context.Context, msgs ...models.ChatMessage) error
	// History returns the latest limit messages of a user in chronological order.
	History(ctx context.Context, userID string, limit int) ([]models.ChatMessage, error)

	GetProfile(ctx context.Context, userID string) (*models.UserProfile, error)
	UpsertProfile(ctx context.Context, p models.UserProfile) error

	Watchlist(ctx context.Context, userID string) ([]models.WatchlistItem, error)
	AddToWatchlist(ctx context.Context, userID, symbol string) error
	RemoveFromWatchlist(ctx context.Context, userID, symbol string) error

	Portfolio(ctx context.Context, userID string) ([]models.Position, error)
	UpsertPosition(ctx context.Context, p models.Position) error
	RemovePosition(ctx context.Context, userID, symbol string) error

	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
