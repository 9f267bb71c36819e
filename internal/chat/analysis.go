package chat

import (
	"fmt"
	"math"
	"strings"

	"github.com/Mithun-VK/trading-chatbot/internal/domain/models"
	"github.com/Mithun-VK/trading-chatbot/internal/market"
)

// AnalysisType selects the angle of an analysis.
type AnalysisType string

const (
	AnalysisGeneral     AnalysisType = "general"
	AnalysisTechnical   AnalysisType = "technical"
	AnalysisFundamental AnalysisType = "fundamental"
	AnalysisSentiment   AnalysisType = "sentiment"
)

// ParseAnalysisType accepts the known types case-insensitively; empty means general.
func ParseAnalysisType(s string) (AnalysisType, bool) {
	switch t := AnalysisType(strings.ToLower(strings.TrimSpace(s))); t {
	case "":
		return AnalysisGeneral, true
	case AnalysisGeneral, AnalysisTechnical, AnalysisFundamental, AnalysisSentiment:
		return t, true
	}
	return "", false
}

// Recommendation is the rule-based call attached to an analysis.
type Recommendation string

const (
	Buy  Recommendation = "BUY"
	Hold Recommendation = "HOLD"
	Sell Recommendation = "SELL"
)

const (
	minConfidence = 0.3
	maxConfidence = 0.9
)

// Recommend scores a quote on momentum, position within the day range and
// valuation. Scores of +2 and above read as BUY, -2 and below as SELL.
// Confidence grows with the score magnitude and is clamped to [0.3, 0.9];
// simulated quotes always get the minimum.
func Recommend(q models.Quote) (Recommendation, float64) {
	score := 0
	switch {
	case q.ChangePercent > 2:
		score += 2
	case q.ChangePercent > 0.5:
		score++
	case q.ChangePercent < -2:
		score -= 2
	case q.ChangePercent < -0.5:
		score--
	}

	if q.DayHigh > q.DayLow && q.DayLow > 0 {
		pos := (q.Price - q.DayLow) / (q.DayHigh - q.DayLow)
		switch {
		case pos >= 0.8:
			score++
		case pos <= 0.2:
			score--
		}
	}

	if q.PERatio != nil && *q.PERatio > 0 {
		switch {
		case *q.PERatio < 15:
			score++
		case *q.PERatio > 40:
			score--
		}
	}

	rec := Hold
	switch {
	case score >= 2:
		rec = Buy
	case score <= -2:
		rec = Sell
	}

	if q.IsMock() {
		return rec, minConfidence
	}
	conf := 0.5 + 0.1*math.Abs(float64(score))
	return rec, math.Max(minConfidence, math.Min(maxConfidence, conf))
}

// AnalysisPrompt asks the model for an analysis of q from the given angle.
func AnalysisPrompt(q models.Quote, kind AnalysisType, rec Recommendation) string {
	focus := map[AnalysisType]string{
		AnalysisGeneral:     "Give a balanced overview covering price action and valuation.",
		AnalysisTechnical:   "Focus on price action: daily move, position in the day range, volume versus average.",
		AnalysisFundamental: "Focus on valuation: market cap, P/E, forward P/E and dividend yield where available.",
		AnalysisSentiment:   "Focus on what today's move and volume suggest about market sentiment.",
	}[kind]

	return fmt.Sprintf("Market data:\n- %s\n\n%s\nA simple rule-based model rates it %s; explain whether the data supports that, and name the main risks.\n",
		DescribeQuote(q), focus, rec)
}

// AnalysisText is the templated analysis used when no model is available.
func AnalysisText(q models.Quote, kind AnalysisType, rec Recommendation, confidence float64) string {
	var b strings.Builder
	b.WriteString(DescribeQuote(q))
	b.WriteString("\n\n")

	switch kind {
	case AnalysisTechnical:
		if q.DayHigh > q.DayLow {
			pos := (q.Price - q.DayLow) / (q.DayHigh - q.DayLow) * 100
			fmt.Fprintf(&b, "The price sits at %.0f%% of today's range. ", pos)
		}
		if q.AverageVolume > 0 && q.Volume > 0 {
			fmt.Fprintf(&b, "Volume is running at %.1fx the average. ", q.Volume/q.AverageVolume)
		}
	case AnalysisFundamental:
		if q.PERatio == nil && q.MarketCap == nil {
			b.WriteString("Valuation data is not available for this instrument. ")
		}
	case AnalysisSentiment:
		fmt.Fprintf(&b, "Today's move reads as %s. ", market.Sentiment([]models.Quote{q}))
	}

	fmt.Fprintf(&b, "Rule-based rating: %s (confidence %.0f%%). This is not financial advice.", rec, confidence*100)
	return b.String()
}
