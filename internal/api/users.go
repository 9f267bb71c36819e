package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Mithun-VK/trading-chatbot/internal/domain/dto"
	"github.com/Mithun-VK/trading-chatbot/internal/domain/models"
	"github.com/Mithun-VK/trading-chatbot/internal/service"
)

// maxImportBytes bounds the body of a portfolio import.
const maxImportBytes = 1 << 20

// GetProfile godoc
// @Summary      Get user profile
// @Tags         users
// @Produce      json
// @Param        userId  path      string  true  "User id"
// @Success      200     {object}  models.UserProfile
// @Failure      404     {object}  dto.ErrorResponse
// @Failure      503     {object}  dto.ErrorResponse  "No document store configured"
// @Router       /api/v1/users/{userId}/profile [get]
func (h *Handler) GetProfile(c *gin.Context) {
	p, err := h.users.GetProfile(c.Request.Context(), c.Param("userId"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// PutProfile godoc
// @Summary      Create or replace user profile
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        userId   path      string              true  "User id"
// @Param        request  body      dto.ProfileRequest  true  "Profile"
// @Success      200      {object}  models.UserProfile
// @Failure      400      {object}  dto.ErrorResponse
// @Failure      503      {object}  dto.ErrorResponse
// @Router       /api/v1/users/{userId}/profile [put]
func (h *Handler) PutProfile(c *gin.Context) {
	var req dto.ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		return
	}
	p, err := h.users.UpdateProfile(c.Request.Context(), models.UserProfile{
		UserID:        c.Param("userId"),
		DisplayName:   req.DisplayName,
		RiskTolerance: req.RiskTolerance,
		Experience:    req.Experience,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// GetWatchlist godoc
// @Summary      Get watchlist with quotes
// @Tags         users
// @Produce      json
// @Param        userId  path      string  true  "User id"
// @Success      200     {object}  dto.WatchlistResponse
// @Failure      503     {object}  dto.ErrorResponse
// @Router       /api/v1/users/{userId}/watchlist [get]
func (h *Handler) GetWatchlist(c *gin.Context) {
	userID := c.Param("userId")
	wl, err := h.users.Watchlist(c.Request.Context(), userID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.WatchlistResponse{UserID: userID, Items: wl.Items, Quotes: wl.Quotes})
}

// AddToWatchlist godoc
// @Summary      Follow a symbol
// @Tags         users
// @Accept       json
// @Param        userId   path  string                true  "User id"
// @Param        request  body  dto.WatchlistRequest  true  "Symbol"
// @Success      204
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/v1/users/{userId}/watchlist [post]
func (h *Handler) AddToWatchlist(c *gin.Context) {
	var req dto.WatchlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		return
	}
	if err := h.users.AddToWatchlist(c.Request.Context(), c.Param("userId"), req.Symbol); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RemoveFromWatchlist godoc
// @Summary      Unfollow a symbol
// @Tags         users
// @Param        userId  path  string  true  "User id"
// @Param        symbol  path  string  true  "Ticker symbol"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/v1/users/{userId}/watchlist/{symbol} [delete]
func (h *Handler) RemoveFromWatchlist(c *gin.Context) {
	if err := h.users.RemoveFromWatchlist(c.Request.Context(), c.Param("userId"), c.Param("symbol")); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetPortfolio godoc
// @Summary      Get valued portfolio
// @Description  Positions valued with current quotes; unpriced positions are carried at cost
// @Tags         users
// @Produce      json
// @Param        userId  path      string  true  "User id"
// @Success      200     {object}  dto.PortfolioResponse
// @Failure      503     {object}  dto.ErrorResponse
// @Router       /api/v1/users/{userId}/portfolio [get]
func (h *Handler) GetPortfolio(c *gin.Context) {
	pf, err := h.users.Portfolio(c.Request.Context(), c.Param("userId"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, toPortfolioResponse(pf))
}

// PutPosition godoc
// @Summary      Create or replace a position
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        userId   path      string               true  "User id"
// @Param        request  body      dto.PositionRequest  true  "Position"
// @Success      200      {object}  models.Position
// @Failure      400      {object}  dto.ErrorResponse
// @Failure      503      {object}  dto.ErrorResponse
// @Router       /api/v1/users/{userId}/portfolio [put]
func (h *Handler) PutPosition(c *gin.Context) {
	var req dto.PositionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		return
	}
	p, err := h.users.UpsertPosition(c.Request.Context(), models.Position{
		UserID:      c.Param("userId"),
		Symbol:      req.Symbol,
		Shares:      req.Shares,
		AverageCost: req.AverageCost,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// RemovePosition godoc
// @Summary      Remove a position
// @Tags         users
// @Param        userId  path  string  true  "User id"
// @Param        symbol  path  string  true  "Ticker symbol"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/v1/users/{userId}/portfolio/{symbol} [delete]
func (h *Handler) RemovePosition(c *gin.Context) {
	if err := h.users.RemovePosition(c.Request.Context(), c.Param("userId"), c.Param("symbol")); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ImportPortfolio godoc
// @Summary      Import positions
// @Description  Body is ';'-separated text with the header "symbol;shares;average_cost". Decimal commas are accepted.
// @Tags         users
// @Accept       plain
// @Produce      json
// @Param        userId  path      string  true  "User id"
// @Param        file    body      string  true  "Positions"
// @Success      200     {object}  dto.ImportResponse
// @Failure      400     {object}  dto.ErrorResponse
// @Failure      503     {object}  dto.ErrorResponse
// @Router       /api/v1/users/{userId}/portfolio/import [post]
func (h *Handler) ImportPortfolio(c *gin.Context) {
	body := http.MaxBytesReader(c.Writer, c.Request.Body, maxImportBytes)
	n, err := h.users.ImportPositions(c.Request.Context(), c.Param("userId"), body)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.ImportResponse{Imported: n})
}

func toPortfolioResponse(pf service.Portfolio) dto.PortfolioResponse {
	out := dto.PortfolioResponse{
		UserID:            pf.UserID,
		Positions:         make([]dto.PositionResponse, 0, len(pf.Positions)),
		TotalCostBasis:    pf.TotalCostBasis,
		TotalMarketValue:  pf.TotalMarketValue,
		TotalUnrealizedPL: pf.TotalUnrealizedPL,
		ValuedAt:          pf.ValuedAt,
	}
	for _, p := range pf.Positions {
		out.Positions = append(out.Positions, dto.PositionResponse{
			Symbol:              p.Symbol,
			Shares:              p.Shares,
			AverageCost:         p.AverageCost,
			Price:               p.Price,
			Priced:              p.Priced,
			Simulated:           p.QuoteSourceIsMock,
			CostBasis:           p.CostBasis,
			MarketValue:         p.MarketValue,
			UnrealizedPL:        p.UnrealizedPL,
			UnrealizedPLPercent: p.UnrealizedPLPct,
		})
	}
	return out
}
