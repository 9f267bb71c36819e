package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"time"

	pq "github.com/lib/pq"

	"github.com/Mithun-VK/trading-chatbot/internal/domain/models"
)

// PostgresStore implements Store on PostgreSQL. Schema lives in db/migrations.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// AppendMessages inserts messages in a single transaction using COPY.
func (s *PostgresStore) AppendMessages(ctx context.Context, msgs ...models.ChatMessage) error {
	if len(msgs) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn(
		"messages",
		"id",
		"user_id",
		"role",
		"content",
		"symbols",
		"source",
		"created_at",
	))
	if err != nil {
		_ = tx.Rollback()
		return err
	}

	// empty source is stored as NULL
	toNullText := func(v string) interface{} {
		if v == "" {
			return nil
		}
		return v
	}

	for _, m := range msgs {
		if _, err := stmt.ExecContext(ctx,
			m.ID,
			m.UserID,
			string(m.Role),
			m.Content,
			pq.Array(m.Symbols),
			toNullText(string(m.Source)),
			m.CreatedAt,
		); err != nil {
			_ = stmt.Close()
			_ = tx.Rollback()
			return err
		}
	}

	if _, err := stmt.ExecContext(ctx); err != nil {
		_ = stmt.Close()
		_ = tx.Rollback()
		return err
	}
	if err := stmt.Close(); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

// History returns the latest limit messages for userID, oldest first.
func (s *PostgresStore) History(ctx context.Context, userID string, limit int) ([]models.ChatMessage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, role, content, symbols, COALESCE(source, ''), created_at
		FROM messages
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.ChatMessage{}
	for rows.Next() {
		var (
			m            models.ChatMessage
			role, source string
			symbols      pq.StringArray
		)
		if err := rows.Scan(&m.ID, &m.UserID, &role, &m.Content, &symbols, &source, &m.CreatedAt); err != nil {
			return nil, err
		}
		m.Role = models.Role(role)
		m.Source = models.ReplySource(source)
		m.Symbols = []string(symbols)
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	slices.Reverse(out)
	return out, nil
}

func (s *PostgresStore) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	var p models.UserProfile
	err := s.db.QueryRowContext(ctx, `
		SELECT user_id, display_name, risk_tolerance, experience, updated_at
		FROM profiles WHERE user_id = $1
	`, userID).Scan(&p.UserID, &p.DisplayName, &p.RiskTolerance, &p.Experience, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *PostgresStore) UpsertProfile(ctx context.Context, p models.UserProfile) error {
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO profiles (user_id, display_name, risk_tolerance, experience, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id)
		DO UPDATE SET display_name = EXCLUDED.display_name,
					  risk_tolerance = EXCLUDED.risk_tolerance,
					  experience = EXCLUDED.experience,
					  updated_at = EXCLUDED.updated_at
	`, p.UserID, p.DisplayName, p.RiskTolerance, p.Experience, p.UpdatedAt)
	return err
}

func (s *PostgresStore) Watchlist(ctx context.Context, userID string) ([]models.WatchlistItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, symbol, added_at FROM watchlists
		WHERE user_id = $1 ORDER BY added_at, symbol
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.WatchlistItem{}
	for rows.Next() {
		var it models.WatchlistItem
		if err := rows.Scan(&it.UserID, &it.Symbol, &it.AddedAt); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// AddToWatchlist is idempotent: adding a followed symbol keeps its original timestamp.
func (s *PostgresStore) AddToWatchlist(ctx context.Context, userID, symbol string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO watchlists (user_id, symbol, added_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id, symbol) DO NOTHING
	`, userID, symbol)
	return err
}

func (s *PostgresStore) RemoveFromWatchlist(ctx context.Context, userID, symbol string) error {
	return s.deleteOne(ctx, `DELETE FROM watchlists WHERE user_id = $1 AND symbol = $2`, userID, symbol)
}

func (s *PostgresStore) Portfolio(ctx context.Context, userID string) ([]models.Position, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, symbol, shares, average_cost, updated_at FROM positions
		WHERE user_id = $1 ORDER BY symbol
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Position{}
	for rows.Next() {
		var p models.Position
		if err := rows.Scan(&p.UserID, &p.Symbol, &p.Shares, &p.AverageCost, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *PostgresStore) UpsertPosition(ctx context.Context, p models.Position) error {
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO positions (user_id, symbol, shares, average_cost, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, symbol)
		DO UPDATE SET shares = EXCLUDED.shares,
					  average_cost = EXCLUDED.average_cost,
					  updated_at = EXCLUDED.updated_at
	`, p.UserID, p.Symbol, p.Shares, p.AverageCost, p.UpdatedAt)
	return err
}

func (s *PostgresStore) RemovePosition(ctx context.Context, userID, symbol string) error {
	return s.deleteOne(ctx, `DELETE FROM positions WHERE user_id = $1 AND symbol = $2`, userID, symbol)
}

func (s *PostgresStore) deleteOne(ctx context.Context, query string, args ...interface{}) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) Close(context.Context) error {
	return s.db.Close()
}

var _ Store = (*PostgresStore)(nil)
