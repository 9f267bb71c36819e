package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/Mithun-VK/trading-chatbot/internal/domain/models"
	"github.com/Mithun-VK/trading-chatbot/internal/llm"
)

// LLMStrategy phrases the answer with a language model.
type LLMStrategy struct {
	Generator llm.Generator
}

func (LLMStrategy) Source() models.ReplySource { return models.ReplyLLM }

func (s LLMStrategy) CanRespond(Input) bool {
	if s.Generator == nil {
		return false
	}
	_, disabled := s.Generator.(llm.Disabled)
	return !disabled
}

func (s LLMStrategy) Respond(ctx context.Context, in Input) (string, error) {
	return s.Generator.Generate(ctx, BuildPrompt(in))
}

// TemplateStrategy describes the fetched quotes without a language model.
type TemplateStrategy struct{}

func (TemplateStrategy) Source() models.ReplySource { return models.ReplyTemplate }

func (TemplateStrategy) CanRespond(in Input) bool { return len(in.Quotes()) > 0 }

func (TemplateStrategy) Respond(_ context.Context, in Input) (string, error) {
	quotes := in.Quotes()
	var b strings.Builder
	for i, q := range quotes {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(DescribeQuote(q))
	}
	if missing := missingSymbols(in.Symbols(), quotes); len(missing) > 0 {
		fmt.Fprintf(&b, "\n\nI couldn't find data for %s.", strings.Join(missing, ", "))
	}
	return b.String(), nil
}

// MockStrategy is the last resort and always answers.
type MockStrategy struct{}

func (MockStrategy) Source() models.ReplySource { return models.ReplyMock }

func (MockStrategy) CanRespond(Input) bool { return true }

func (MockStrategy) Respond(_ context.Context, in Input) (string, error) {
	if syms := in.Symbols(); len(syms) > 0 {
		return fmt.Sprintf("I couldn't retrieve market data for %s right now. Please try again in a minute, or ask about the overall market.",
			strings.Join(syms, ", ")), nil
	}
	return genericHelp, nil
}

const genericHelp = "I can look up stock quotes, summarize how the market is doing, and walk through a basic analysis of a company. " +
	"Try asking about a ticker, for example \"How is AAPL doing today?\"."

// DescribeQuote renders one quote as a short paragraph.
func DescribeQuote(q models.Quote) string {
	var b strings.Builder

	direction := "flat"
	switch {
	case q.ChangePercent > 0:
		direction = "up"
	case q.ChangePercent < 0:
		direction = "down"
	}

	name := q.Symbol
	if q.DisplayName != "" && q.DisplayName != q.Symbol {
		name = fmt.Sprintf("%s (%s)", q.Symbol, q.DisplayName)
	}
	fmt.Fprintf(&b, "%s is trading at %s, %s %.2f%% (%s) today.",
		name, money(q.Price, q.Currency), direction, abs(q.ChangePercent), signed(q.Change))

	if q.DayHigh > 0 && q.DayLow > 0 {
		fmt.Fprintf(&b, " Day range %s to %s.", money(q.DayLow, q.Currency), money(q.DayHigh, q.Currency))
	}
	if q.Volume > 0 {
		fmt.Fprintf(&b, " Volume %s", compact(q.Volume))
		if q.AverageVolume > 0 {
			fmt.Fprintf(&b, " vs %s average", compact(q.AverageVolume))
		}
		b.WriteString(".")
	}
	if q.MarketCap != nil {
		fmt.Fprintf(&b, " Market cap %s.", compact(*q.MarketCap))
	}
	if q.PERatio != nil {
		fmt.Fprintf(&b, " P/E %.1f.", *q.PERatio)
	}
	if q.DividendYield != nil {
		fmt.Fprintf(&b, " Dividend yield %.2f%%.", *q.DividendYield*100)
	}
	if q.IsMock() {
		b.WriteString(" (simulated data)")
	}
	return b.String()
}

func missingSymbols(symbols []string, quotes []models.Quote) []string {
	have := make(map[string]struct{}, len(quotes))
	for _, q := range quotes {
		have[q.Symbol] = struct{}{}
	}
	var out []string
	for _, s := range symbols {
		if _, ok := have[s]; !ok {
			out = append(out, s)
		}
	}
	return out
}

func money(v float64, currency string) string {
	if currency == "" || currency == "USD" {
		return fmt.Sprintf("$%.2f", v)
	}
	return fmt.Sprintf("%.2f %s", v, currency)
}

func signed(v float64) string {
	if v >= 0 {
		return fmt.Sprintf("+%.2f", v)
	}
	return fmt.Sprintf("%.2f", v)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// compact formats large numbers as 1.2K, 3.4M, 5.6B or 7.8T.
func compact(v float64) string {
	units := []struct {
		div    float64
		suffix string
	}{{1e12, "T"}, {1e9, "B"}, {1e6, "M"}, {1e3, "K"}}
	for _, u := range units {
		if abs(v) >= u.div {
			return fmt.Sprintf("%.1f%s", v/u.div, u.suffix)
		}
	}
	return fmt.Sprintf("%.0f", v)
}
