package market

import (
	"hash/fnv"
	"math"
	"time"

	"github.com/Mithun-VK/trading-chatbot/internal/domain/models"
)

// MockQuote builds a clearly labeled synthetic quote for symbol.
//
// Values are derived from a hash of the symbol and the calendar day so repeated
// calls are stable within a day. The result always carries SourceMock and a
// display name saying it is simulated; valuation fields stay nil.
func MockQuote(symbol string, now time.Time) models.Quote {
	symbol = NormalizeSymbol(symbol)

	h := fnv.New64a()
	_, _ = h.Write([]byte(symbol))
	_, _ = h.Write([]byte(now.UTC().Format("2006-01-02")))
	seed := h.Sum64()

	base := 20 + float64(seed%48000)/100      // 20.00 .. 499.99
	pct := (float64((seed>>16)%600) - 300) / 100 // -3.00 .. +2.99
	prev := round2(base)
	price := round2(prev * (1 + pct/100))
	change := round2(price - prev)
	spread := round2(prev * 0.015)
	volume := float64(1_000_000 + (seed>>32)%9_000_000)

	return models.Quote{
		Symbol:        symbol,
		DisplayName:   symbol + " (simulated)",
		Price:         price,
		Change:        change,
		ChangePercent: round2(pct),
		DayHigh:       round2(math.Max(price, prev) + spread),
		DayLow:        round2(math.Min(price, prev) - spread),
		Open:          prev,
		PreviousClose: prev,
		Volume:        volume,
		AverageVolume: volume,
		Currency:      DefaultCurrency,
		FetchedAt:     now,
		SourceTag:     models.SourceMock,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
