package chat

import (
	"fmt"
	"strings"

	"github.com/Mithun-VK/trading-chatbot/internal/domain/models"
)

// MaxHistoryTurns bounds how much conversation is replayed into a prompt.
const MaxHistoryTurns = 10

// BuildPrompt assembles the model prompt: user profile, market data,
// recent conversation and the question, in that order.
func BuildPrompt(in Input) string {
	var b strings.Builder

	if p := in.Profile; p != nil {
		b.WriteString("User profile:\n")
		if p.RiskTolerance != "" {
			fmt.Fprintf(&b, "- risk tolerance: %s\n", p.RiskTolerance)
		}
		if p.Experience != "" {
			fmt.Fprintf(&b, "- experience: %s\n", p.Experience)
		}
		b.WriteString("\n")
	}

	if quotes := in.Quotes(); len(quotes) > 0 {
		b.WriteString("Market data:\n")
		for _, q := range quotes {
			fmt.Fprintf(&b, "- %s\n", DescribeQuote(q))
		}
		b.WriteString("\n")
	} else if syms := in.Symbols(); len(syms) > 0 {
		fmt.Fprintf(&b, "Market data: unavailable for %s.\n\n", strings.Join(syms, ", "))
	}

	history := in.History
	if len(history) > MaxHistoryTurns {
		history = history[len(history)-MaxHistoryTurns:]
	}
	if len(history) > 0 {
		b.WriteString("Conversation so far:\n")
		for _, m := range history {
			role := "User"
			if m.Role == models.RoleAssistant {
				role = "Assistant"
			}
			fmt.Fprintf(&b, "%s: %s\n", role, m.Content)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Question: %s\n", strings.TrimSpace(in.Message))
	return b.String()
}

// Suggestions proposes follow-up questions for the UI.
func Suggestions(in Input) []string {
	syms := in.Symbols()
	if len(syms) == 0 {
		return []string{
			"How is the market doing today?",
			"What's the price of AAPL?",
			"Give me a fundamental analysis of MSFT",
		}
	}
	first := syms[0]
	out := []string{
		fmt.Sprintf("Show a technical analysis of %s", first),
		fmt.Sprintf("What are the fundamentals of %s?", first),
	}
	if len(syms) > 1 {
		out = append(out, fmt.Sprintf("Compare %s and %s", syms[0], syms[1]))
	} else {
		out = append(out, "How is the market doing today?")
	}
	return out
}
