package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Mithun-VK/trading-chatbot/internal/apperr"
	"github.com/Mithun-VK/trading-chatbot/internal/domain/dto"
	"github.com/Mithun-VK/trading-chatbot/internal/service"
)

// Handler provides the HTTP handlers of the chat gateway.
//
// Handlers validate input, call one service and map the result to a DTO.
// Failures are attached with c.Error and rendered by middleware.ErrorHandler.
type Handler struct {
	chat     service.ChatService
	market   service.MarketService
	analysis service.AnalysisService
	users    service.UserService
}

// NewHandler constructs a Handler from its services.
func NewHandler(chat service.ChatService, market service.MarketService, analysis service.AnalysisService, users service.UserService) *Handler {
	return &Handler{chat: chat, market: market, analysis: analysis, users: users}
}

// SendMessage godoc
// @Summary      Send a chat message
// @Description  Extracts ticker symbols, looks up quotes and answers with the language model, a data template or a fallback message
// @Tags         chat
// @Accept       json
// @Produce      json
// @Param        request  body      dto.ChatRequest   true  "Message"
// @Success      200      {object}  dto.ChatResponse  "Reply"
// @Failure      400      {object}  dto.ErrorResponse "Bad Request"
// @Failure      500      {object}  dto.ErrorResponse "Internal Error"
// @Router       /api/v1/chat/message [post]
func (h *Handler) SendMessage(c *gin.Context) {
	var req dto.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		return
	}

	reply, err := h.chat.HandleMessage(c.Request.Context(), req.UserID, req.Message)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.ChatResponse{
		Reply:       reply.Text,
		Suggestions: reply.Suggestions,
		Quotes:      reply.Quotes,
		Source:      reply.Source,
		Notice:      reply.Notice,
	})
}

// GetHistory godoc
// @Summary      Chat history
// @Description  Returns the latest messages of a user, oldest first
// @Tags         chat
// @Produce      json
// @Param        userId  path      string  true   "User id"
// @Param        limit   query     int     false  "Max messages (default 50, max 200)"
// @Success      200     {object}  dto.HistoryResponse
// @Failure      400     {object}  dto.ErrorResponse
// @Failure      503     {object}  dto.ErrorResponse  "No document store configured"
// @Router       /api/v1/chat/history/{userId} [get]
func (h *Handler) GetHistory(c *gin.Context) {
	limit := 0
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			_ = c.Error(apperr.New(apperr.Validation, "limit must be a positive integer"))
			return
		}
		limit = n
	}

	userID := c.Param("userId")
	msgs, err := h.chat.History(c.Request.Context(), userID, limit)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.HistoryResponse{UserID: userID, Messages: msgs})
}

// GetQuote godoc
// @Summary      Quote for a symbol
// @Description  Returns the normalized quote; sourceTag is "mock" when live data was unavailable and simulated data is enabled
// @Tags         market
// @Produce      json
// @Param        symbol  path      string  true  "Ticker symbol"  example(AAPL)
// @Success      200     {object}  models.Quote
// @Failure      400     {object}  dto.ErrorResponse  "Invalid symbol"
// @Failure      404     {object}  dto.ErrorResponse  "Unknown symbol"
// @Failure      429     {object}  dto.ErrorResponse  "Provider rate limited"
// @Failure      502     {object}  dto.ErrorResponse  "Provider unavailable"
// @Router       /api/v1/market/{symbol} [get]
func (h *Handler) GetQuote(c *gin.Context) {
	q, err := h.market.Quote(c.Request.Context(), c.Param("symbol"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, q)
}

// GetMarketSummary godoc
// @Summary      Market summary
// @Description  Major indices, trending symbols, an aggregate sentiment label and the US session status
// @Tags         market
// @Produce      json
// @Success      200  {object}  models.MarketSummary
// @Router       /api/v1/market/summary [get]
func (h *Handler) GetMarketSummary(c *gin.Context) {
	c.JSON(http.StatusOK, h.market.Summary(c.Request.Context()))
}

// Analyze godoc
// @Summary      Analyze a symbol
// @Description  Rule-based BUY/HOLD/SELL rating with a narrative from the language model or a template
// @Tags         analysis
// @Accept       json
// @Produce      json
// @Param        request  body      dto.AnalyzeRequest   true  "Symbol and analysis type"
// @Success      200      {object}  dto.AnalyzeResponse
// @Failure      400      {object}  dto.ErrorResponse
// @Failure      404      {object}  dto.ErrorResponse
// @Failure      502      {object}  dto.ErrorResponse
// @Router       /api/v1/analyze [post]
func (h *Handler) Analyze(c *gin.Context) {
	var req dto.AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		return
	}

	a, err := h.analysis.Analyze(c.Request.Context(), req.Symbol, req.AnalysisType)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.AnalyzeResponse{
		Symbol:         a.Symbol,
		AnalysisType:   string(a.Type),
		Text:           a.Text,
		Recommendation: string(a.Recommendation),
		Confidence:     a.Confidence,
		Quote:          a.Quote,
		Source:         a.Source,
	})
}
