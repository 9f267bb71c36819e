package market

import (
	"testing"
	"time"

	"github.com/Mithun-VK/trading-chatbot/internal/domain/models"
)

func TestEasterSunday(t *testing.T) {
	cases := map[int]string{
		2024: "2024-03-31",
		2025: "2025-04-20",
		2026: "2026-04-05",
	}
	for year, want := range cases {
		if got := easterSunday(year).Format("2006-01-02"); got != want {
			t.Fatalf("easterSunday(%d) = %s, want %s", year, got, want)
		}
	}
}

func TestIsTradingDay(t *testing.T) {
	tests := []struct {
		day  string
		want bool
	}{
		{"2025-03-12", true},  // ordinary Wednesday
		{"2025-03-15", false}, // Saturday
		{"2025-04-18", false}, // Good Friday
		{"2025-07-04", false}, // Independence Day
		{"2026-07-03", false}, // Independence Day observed (July 4 is a Saturday)
		{"2025-11-27", false}, // Thanksgiving
		{"2025-06-19", false}, // Juneteenth
		{"2021-12-31", true},  // New Year 2022 on Saturday is not moved back
		{"2023-01-02", false}, // New Year observed on Monday
		{"2025-01-20", false}, // MLK day
		{"2025-05-26", false}, // Memorial Day
	}
	for _, tt := range tests {
		d, err := time.ParseInLocation("2006-01-02", tt.day, newYork)
		if err != nil {
			t.Fatalf("parse %s: %v", tt.day, err)
		}
		if got := IsTradingDay(d); got != tt.want {
			t.Fatalf("IsTradingDay(%s) = %v, want %v", tt.day, got, tt.want)
		}
	}
}

func TestSessionStatus(t *testing.T) {
	at := func(day string, hour, minute int) time.Time {
		d, _ := time.ParseInLocation("2006-01-02", day, newYork)
		return time.Date(d.Year(), d.Month(), d.Day(), hour, minute, 0, 0, newYork)
	}
	tests := []struct {
		name string
		now  time.Time
		want models.MarketStatus
	}{
		{"pre-market", at("2025-03-12", 8, 0), models.MarketPreMarket},
		{"opening bell", at("2025-03-12", 9, 30), models.MarketOpen},
		{"midday", at("2025-03-12", 12, 15), models.MarketOpen},
		{"after-hours", at("2025-03-12", 16, 0), models.MarketAfterHours},
		{"night", at("2025-03-12", 21, 0), models.MarketClosed},
		{"early morning", at("2025-03-12", 3, 59), models.MarketClosed},
		{"weekend", at("2025-03-15", 11, 0), models.MarketClosed},
		{"holiday", at("2025-12-25", 11, 0), models.MarketClosed},
		{"utc input", time.Date(2025, 3, 12, 15, 0, 0, 0, time.UTC), models.MarketOpen},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SessionStatus(tt.now); got != tt.want {
				t.Fatalf("SessionStatus(%v) = %s, want %s", tt.now, got, tt.want)
			}
		})
	}
}
