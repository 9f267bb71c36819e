package market

import (
	"regexp"
	"strings"
)

// MaxExtractedSymbols caps how many symbols one message can yield.
const MaxExtractedSymbols = 5

var symbolPattern = regexp.MustCompile(`\$?\b([A-Z]{1,5})\b`)

// stopwords are uppercase runs that look like tickers but are ordinary words.
// Short real tickers that collide with words (IT, GO, ON, ALL...) are excluded on purpose.
var stopwords = toSet(
	// articles, pronouns, auxiliaries
	"A", "I", "AN", "THE", "AND", "OR", "BUT", "NOR", "SO", "YET", "IF", "THEN", "ELSE",
	"ME", "MY", "WE", "US", "OUR", "YOU", "YOUR", "HE", "HIM", "HIS", "SHE", "HER", "IT", "ITS",
	"THEY", "THEM", "THEIR", "THIS", "THAT", "THESE", "THOSE", "WHO", "WHOM", "WHAT", "WHICH",
	"WHEN", "WHERE", "WHY", "HOW", "AM", "IS", "ARE", "WAS", "WERE", "BE", "BEEN", "BEING",
	"DO", "DOES", "DID", "DONE", "HAVE", "HAS", "HAD", "CAN", "COULD", "WILL", "WOULD",
	"SHALL", "SHOULD", "MAY", "MIGHT", "MUST", "OUGHT",
	// prepositions and connectives
	"AT", "BY", "FOR", "FROM", "IN", "INTO", "OF", "OFF", "ON", "ONTO", "OUT", "OVER", "TO",
	"UP", "DOWN", "WITH", "ABOUT", "ABOVE", "BELOW", "AFTER", "SINCE", "UNTIL", "UNDER",
	"AS", "THAN", "VS", "PER", "VIA", "LIKE", "NEAR",
	// common short words
	"NO", "NOT", "YES", "OK", "OKAY", "HI", "HEY", "HELLO", "THANK", "THANKS", "PLEASE", "PLS",
	"ALL", "ANY", "SOME", "MANY", "MUCH", "MORE", "MOST", "LESS", "FEW", "EACH", "EVERY",
	"BOTH", "ONLY", "JUST", "ALSO", "VERY", "TOO", "NOW", "TODAY", "NEW", "OLD", "GOOD",
	"BAD", "BEST", "WORST", "HIGH", "LOW", "BIG", "SMALL", "TOP", "NEXT", "LAST", "FIRST",
	"GET", "GOT", "GIVE", "TELL", "SHOW", "KNOW", "THINK", "WANT", "NEED", "LOOK", "SEE",
	"MAKE", "TAKE", "GO", "GOING", "COME", "SAY", "SAID", "FIND", "HELP", "CHECK",
	"ONE", "TWO", "THREE", "FOUR", "FIVE", "TEN", "DAY", "DAYS", "WEEK", "MONTH", "YEAR",
	"TIME", "WELL", "EVEN", "STILL", "BACK", "WAY", "LONG", "SHORT", "REAL", "SURE", "RIGHT",
	"OWN", "SAME", "OTHER", "SUCH", "HERE", "THERE", "AGAIN", "EVER", "NEVER", "LOL",
	// contraction fragments ("what's", "don't", "I'll")
	"S", "T", "D", "M", "LL", "RE", "VE", "DON", "ISN", "DIDN", "WON", "AREN", "WASN",
	// finance vocabulary
	"STOCK", "PRICE", "API", "BUY", "SELL", "HOLD", "TRADE", "SHARE", "CHART", "QUOTE",
	"RATIO", "PE", "EPS", "ETF", "IPO", "CEO", "CFO", "USD", "EUR", "GBP", "YTD", "ATH",
	"BULL", "BEAR", "RISK", "GAIN", "LOSS", "CASH", "DEBT", "FUND", "BOND", "RATE", "YIELD",
	"CAP", "VALUE", "WORTH", "INDEX", "NEWS", "DATA", "INFO", "USA", "SEC", "FED", "GDP",
	"CPI", "AI", "ML", "LLM", "CHAT", "BOT", "TREND", "DIP", "MOON",
)

func toSet(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

// IsStopword reports whether token is excluded from symbol extraction.
func IsStopword(token string) bool {
	_, ok := stopwords[strings.ToUpper(token)]
	return ok
}

// ExtractSymbols returns up to five candidate ticker symbols found in message,
// in order of first appearance and without duplicates. The message is upper-cased
// first, so this is a heuristic: ordinary words that are not stopwords will be
// returned as candidates and the market provider decides what is real.
func ExtractSymbols(message string) []string {
	out := []string{}
	if strings.TrimSpace(message) == "" {
		return out
	}

	seen := make(map[string]struct{}, MaxExtractedSymbols)
	for _, m := range symbolPattern.FindAllStringSubmatch(strings.ToUpper(message), -1) {
		token := m[1]
		if _, stop := stopwords[token]; stop {
			continue
		}
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		out = append(out, token)
		if len(out) == MaxExtractedSymbols {
			break
		}
	}
	return out
}

// NormalizeSymbol trims and upper-cases a user supplied symbol.
func NormalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "$")))
}

var validSymbol = regexp.MustCompile(`^\^?[A-Z][A-Z0-9.\-=]{0,9}$`)

// ValidSymbol reports whether s (already normalized) looks like a ticker or index symbol.
func ValidSymbol(s string) bool {
	return validSymbol.MatchString(s)
}
