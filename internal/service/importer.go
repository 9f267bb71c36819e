package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Mithun-VK/trading-chatbot/internal/domain/models"
	"github.com/Mithun-VK/trading-chatbot/internal/market"
)

// MaxImportRows caps a single portfolio import.
const MaxImportRows = 500

// importHeaders is the exact header of a portfolio import file.
var importHeaders = []string{"symbol", "shares", "average_cost"}

// ParsePositions reads a ';'-separated portfolio export.
//
// It fails on:
//   - a header not matching importHeaders exactly (order and count)
//   - a row with a different column count, a bad symbol or a bad number
//   - more than MaxImportRows positions
//
// It tolerates:
//   - empty numeric cells (they read as zero)
//   - a decimal comma ("10,50")
//   - blank rows and rows with zero shares, which are skipped
func ParsePositions(ctx context.Context, r io.Reader) ([]models.Position, error) {
	cr := csv.NewReader(r)
	cr.Comma = ';'
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty import")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) != len(importHeaders) {
		return nil, fmt.Errorf("invalid header length: expected %d, got %d", len(importHeaders), len(header))
	}
	for i, h := range header {
		if strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")) != importHeaders[i] {
			return nil, fmt.Errorf("invalid header at col %d: expected %q, got %q", i+1, importHeaders[i], h)
		}
	}

	var out []models.Position
	line := 1
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read line after %d: %w", line, err)
		}
		line++

		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		if len(rec) != len(importHeaders) {
			return nil, fmt.Errorf("invalid column count on line %d: expected %d got %d", line, len(importHeaders), len(rec))
		}

		pos, err := recordToPosition(rec)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if pos.Symbol == "" || pos.Shares.IsZero() {
			continue
		}
		out = append(out, pos)
		if len(out) > MaxImportRows {
			return nil, fmt.Errorf("too many positions: limit is %d", MaxImportRows)
		}
	}
	return out, nil
}

// recordToPosition converts one validated row. Column order:
//
//	0 symbol        → Symbol (normalized, empty allowed)
//	1 shares        → Shares (decimal, comma→dot, empty→0, must not be negative)
//	2 average_cost  → AverageCost (decimal, comma→dot, empty→0, must not be negative)
func recordToPosition(rec []string) (models.Position, error) {
	var p models.Position

	if s := strings.TrimSpace(rec[0]); s != "" {
		p.Symbol = market.NormalizeSymbol(s)
		if !market.ValidSymbol(p.Symbol) {
			return p, fmt.Errorf("invalid symbol %q", s)
		}
	}

	var err error
	if p.Shares, err = parseAmount(rec[1]); err != nil {
		return p, fmt.Errorf("invalid shares: %w", err)
	}
	if p.AverageCost, err = parseAmount(rec[2]); err != nil {
		return p, fmt.Errorf("invalid average_cost: %w", err)
	}
	return p, nil
}

func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", "."))
	if err != nil {
		return decimal.Zero, err
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("negative value %s", s)
	}
	return d, nil
}
