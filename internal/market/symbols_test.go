package market

import (
	"reflect"
	"testing"
)

func TestExtractSymbols(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    []string
	}{
		{"empty", "", []string{}},
		{"only stopwords", "What is the price of the stock?", []string{}},
		{"contractions", "what's up, don't you know?", []string{}},
		{"order and dedupe", "Compare $AAPL with TSLA and aapl", []string{"AAPL", "TSLA"}},
		{"lowercase input", "how is nvda today", []string{"NVDA"}},
		{"long words ignored", "portfolio diversification", []string{}},
		{"truncated to five", "AAPL MSFT TSLA NVDA AMZN GOOG META", []string{"AAPL", "MSFT", "TSLA", "NVDA", "AMZN"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractSymbols(tt.message)
			if got == nil {
				t.Fatalf("expected non-nil slice")
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("ExtractSymbols(%q) = %v, want %v", tt.message, got, tt.want)
			}
		})
	}
}

func TestNormalizeAndValidSymbol(t *testing.T) {
	tests := []struct {
		in    string
		norm  string
		valid bool
	}{
		{" aapl ", "AAPL", true},
		{"$msft", "MSFT", true},
		{"^gspc", "^GSPC", true},
		{"brk.b", "BRK.B", true},
		{"", "", false},
		{"1ABC", "1ABC", false},
		{"AAPL;DROP", "AAPL;DROP", false},
	}
	for _, tt := range tests {
		norm := NormalizeSymbol(tt.in)
		if norm != tt.norm {
			t.Fatalf("NormalizeSymbol(%q) = %q, want %q", tt.in, norm, tt.norm)
		}
		if ValidSymbol(norm) != tt.valid {
			t.Fatalf("ValidSymbol(%q) = %v, want %v", norm, !tt.valid, tt.valid)
		}
	}
}

func TestIsStopword(t *testing.T) {
	if !IsStopword("stock") || !IsStopword("IT") {
		t.Fatalf("expected domain words to be stopwords")
	}
	if IsStopword("AAPL") {
		t.Fatalf("AAPL must not be a stopword")
	}
}
