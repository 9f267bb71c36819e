package dto

import "github.com/Mithun-VK/trading-chatbot/internal/domain/models"

// ChatRequest is the body of POST /api/v1/chat/message.
type ChatRequest struct {
	UserID  string `json:"userId" binding:"required,max=128" example:"user-42"`
	Message string `json:"message" binding:"required" example:"How is AAPL doing today?"`
}

// ChatResponse is the composed reply to a chat message.
//
// Source tells which strategy answered (llm, template or mock); Notice is set
// when the answer is degraded and explains why.
type ChatResponse struct {
	Reply       string             `json:"reply" example:"Apple Inc. (AAPL) is trading at $189.84, up 0.59% today."`
	Suggestions []string           `json:"suggestions"`
	Quotes      []models.Quote     `json:"quotes,omitempty"`
	Source      models.ReplySource `json:"source" example:"llm"`
	Notice      string             `json:"notice,omitempty"`
}

// HistoryResponse lists a user's chat messages oldest first.
type HistoryResponse struct {
	UserID   string               `json:"userId" example:"user-42"`
	Messages []models.ChatMessage `json:"messages"`
}
