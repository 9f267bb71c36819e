package dto

import "github.com/Mithun-VK/trading-chatbot/internal/domain/models"

// AnalyzeRequest is the body of POST /api/v1/analyze.
type AnalyzeRequest struct {
	Symbol       string `json:"symbol" binding:"required,max=12" example:"MSFT"`
	AnalysisType string `json:"analysisType" example:"fundamental" enums:"general,technical,fundamental,sentiment"`
}

// AnalyzeResponse carries the narrative, the rule-based rating and the quote it was based on.
type AnalyzeResponse struct {
	Symbol         string             `json:"symbol" example:"MSFT"`
	AnalysisType   string             `json:"analysisType" example:"fundamental"`
	Text           string             `json:"text"`
	Recommendation string             `json:"recommendation" example:"HOLD" enums:"BUY,HOLD,SELL"`
	Confidence     float64            `json:"confidence" example:"0.6"`
	Quote          models.Quote       `json:"quote"`
	Source         models.ReplySource `json:"source" example:"template"`
}
