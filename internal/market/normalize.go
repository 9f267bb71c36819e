package market

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/Mithun-VK/trading-chatbot/internal/domain/models"
)

// DefaultCurrency is used when the provider does not report one.
const DefaultCurrency = "USD"

type numericField struct {
	name    string
	aliases []string
	set     func(q *models.Quote, v float64)
}

type optionalField struct {
	name    string
	aliases []string
	set     func(q *models.Quote, v *float64)
	// percent lists aliases whose providers report the value in percent.
	percent map[string]bool
}

type textField struct {
	name    string
	aliases []string
	set     func(q *models.Quote, v string)
}

// coreFields are always present in the output; missing values become 0.
// Aliases are tried in order and the first present value wins.
var coreFields = []numericField{
	{"price", []string{"regularMarketPrice", "price", "currentPrice", "lastPrice", "c"}, func(q *models.Quote, v float64) { q.Price = v }},
	{"change", []string{"regularMarketChange", "change", "d"}, func(q *models.Quote, v float64) { q.Change = v }},
	{"changePercent", []string{"regularMarketChangePercent", "changePercent", "changesPercentage", "dp"}, func(q *models.Quote, v float64) { q.ChangePercent = v }},
	{"dayHigh", []string{"regularMarketDayHigh", "dayHigh", "high", "h"}, func(q *models.Quote, v float64) { q.DayHigh = v }},
	{"dayLow", []string{"regularMarketDayLow", "dayLow", "low", "l"}, func(q *models.Quote, v float64) { q.DayLow = v }},
	{"open", []string{"regularMarketOpen", "open", "o"}, func(q *models.Quote, v float64) { q.Open = v }},
	{"previousClose", []string{"regularMarketPreviousClose", "previousClose", "pc"}, func(q *models.Quote, v float64) { q.PreviousClose = v }},
	{"volume", []string{"regularMarketVolume", "volume"}, func(q *models.Quote, v float64) { q.Volume = v }},
	{"averageVolume", []string{"averageDailyVolume3Month", "averageVolume", "averageDailyVolume10Day", "avgVolume"}, func(q *models.Quote, v float64) { q.AverageVolume = v }},
}

// valuationFields stay nil when missing: unknown must not read as zero.
var valuationFields = []optionalField{
	{"marketCap", []string{"marketCap", "marketCapitalization"}, func(q *models.Quote, v *float64) { q.MarketCap = v }, nil},
	{"peRatio", []string{"trailingPE", "peRatio", "pe"}, func(q *models.Quote, v *float64) { q.PERatio = v }, nil},
	{"forwardPE", []string{"forwardPE", "forwardPe"}, func(q *models.Quote, v *float64) { q.ForwardPE = v }, nil},
	{"dividendYield", []string{"trailingAnnualDividendYield", "dividendYield", "yield"}, func(q *models.Quote, v *float64) { q.DividendYield = v }, map[string]bool{"dividendYield": true}},
}

var textFields = []textField{
	{"displayName", []string{"longName", "shortName", "displayName", "name", "companyName"}, func(q *models.Quote, v string) { q.DisplayName = v }},
	{"currency", []string{"currency", "currencyCode", "financialCurrency"}, func(q *models.Quote, v string) { q.Currency = strings.ToUpper(v) }},
	{"exchange", []string{"fullExchangeName", "exchange", "exchangeName", "primaryExchange"}, func(q *models.Quote, v string) { q.Exchange = v }},
}

var symbolAliases = []string{"symbol", "ticker"}

// SymbolOf returns the normalized symbol carried by raw, or "" when absent.
func SymbolOf(raw RawQuote) string {
	if s, ok := firstText(raw, symbolAliases); ok {
		return NormalizeSymbol(s)
	}
	return ""
}

// Normalize maps a provider record onto the canonical Quote.
//
// Rules:
//   - every canonical field is resolved through its ordered alias list;
//   - core numeric fields default to 0, valuation fields stay nil;
//   - change and changePercent are derived from price/previousClose when both are missing;
//   - a negative price is treated as missing and inverted day ranges are swapped;
//   - dividend yields are fractions; the dividendYield alias is reported in percent and divided by 100;
//   - displayName falls back to the symbol and currency to USD.
func Normalize(raw RawQuote, now time.Time) models.Quote {
	q := models.Quote{
		Symbol:    SymbolOf(raw),
		FetchedAt: now,
		SourceTag: models.SourceLive,
	}

	present := make(map[string]bool, len(coreFields))
	for _, f := range coreFields {
		if v, ok := firstNumber(raw, f.aliases); ok {
			f.set(&q, v)
			present[f.name] = true
		}
	}
	for _, f := range valuationFields {
		if k, v, ok := firstNumberKey(raw, f.aliases); ok {
			if f.percent[k] {
				v /= 100
			}
			f.set(&q, &v)
		}
	}
	for _, f := range textFields {
		if v, ok := firstText(raw, f.aliases); ok {
			f.set(&q, v)
		}
	}

	if q.Price < 0 {
		q.Price = 0
		present["price"] = false
	}
	if present["price"] && q.PreviousClose > 0 {
		if !present["change"] {
			q.Change = q.Price - q.PreviousClose
		}
		if !present["changePercent"] {
			q.ChangePercent = (q.Price - q.PreviousClose) / q.PreviousClose * 100
		}
	}
	if q.DayHigh > 0 && q.DayLow > 0 && q.DayHigh < q.DayLow {
		q.DayHigh, q.DayLow = q.DayLow, q.DayHigh
	}
	if q.DisplayName == "" {
		q.DisplayName = q.Symbol
	}
	if q.Currency == "" {
		q.Currency = DefaultCurrency
	}
	return q
}

func firstNumber(raw RawQuote, aliases []string) (float64, bool) {
	_, f, ok := firstNumberKey(raw, aliases)
	return f, ok
}

// firstNumberKey also reports which alias supplied the value.
func firstNumberKey(raw RawQuote, aliases []string) (string, float64, bool) {
	for _, k := range aliases {
		if v, ok := raw[k]; ok {
			if f, ok := asFloat(v); ok {
				return k, f, true
			}
		}
	}
	return "", 0, false
}

func firstText(raw RawQuote, aliases []string) (string, bool) {
	for _, k := range aliases {
		if s, ok := raw[k].(string); ok {
			if s = strings.TrimSpace(s); s != "" {
				return s, true
			}
		}
	}
	return "", false
}

// asFloat accepts JSON numbers, Go numeric types, numeric strings and
// Yahoo-style {"raw": n, "fmt": "..."} objects.
func asFloat(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int32:
		f = float64(x)
	case int64:
		f = float64(x)
	case uint64:
		f = float64(x)
	case json.Number:
		n, err := x.Float64()
		if err != nil {
			return 0, false
		}
		f = n
	case string:
		s := strings.TrimSuffix(strings.ReplaceAll(strings.TrimSpace(x), ",", ""), "%")
		if s == "" {
			return 0, false
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = n
	case map[string]any:
		return asFloat(x["raw"])
	case RawQuote:
		return asFloat(x["raw"])
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
