package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Role of a chat message author.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ReplySource tells which strategy produced an assistant reply.
type ReplySource string

const (
	ReplyLLM      ReplySource = "llm"
	ReplyTemplate ReplySource = "template"
	ReplyMock     ReplySource = "mock"
)

// ChatMessage is one persisted turn of a conversation.
type ChatMessage struct {
	ID        string      `json:"id" bson:"_id"`
	UserID    string      `json:"userId" bson:"user_id"`
	Role      Role        `json:"role" bson:"role"`
	Content   string      `json:"content" bson:"content"`
	Symbols   []string    `json:"symbols,omitempty" bson:"symbols,omitempty"`
	Source    ReplySource `json:"source,omitempty" bson:"source,omitempty"`
	CreatedAt time.Time   `json:"createdAt" bson:"created_at"`
}

// UserProfile holds per-user preferences used to tune replies.
type UserProfile struct {
	UserID        string    `json:"userId" bson:"_id"`
	DisplayName   string    `json:"displayName" bson:"display_name"`
	RiskTolerance string    `json:"riskTolerance" bson:"risk_tolerance"`
	Experience    string    `json:"experience" bson:"experience"`
	UpdatedAt     time.Time `json:"updatedAt" bson:"updated_at"`
}

// WatchlistItem is one symbol a user follows.
type WatchlistItem struct {
	UserID  string    `json:"userId" bson:"user_id"`
	Symbol  string    `json:"symbol" bson:"symbol"`
	AddedAt time.Time `json:"addedAt" bson:"added_at"`
}

// Position is a holding in a user's portfolio.
type Position struct {
	UserID      string          `json:"userId"`
	Symbol      string          `json:"symbol"`
	Shares      decimal.Decimal `json:"shares"`
	AverageCost decimal.Decimal `json:"averageCost"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}
