package api

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/Mithun-VK/trading-chatbot/internal/metrics"
	"github.com/Mithun-VK/trading-chatbot/internal/middleware"
)

// DefaultRequestTimeout applies when RouterConfig.RequestTimeout is zero.
const DefaultRequestTimeout = 75 * time.Second

// RouterConfig tunes the middleware chain.
type RouterConfig struct {
	RequestTimeout time.Duration
	// RateStore backs the per-IP limiter; nil disables it.
	RateStore middleware.RateStore
}

// NewRouter creates a Gin engine with routes configured.
// It receives a Handler instance with all business logic already injected.
//
// Responsibilities:
//   - Registers global middlewares (RequestID, Logger, Recovery, ErrorHandler, RateLimiter).
//   - Adds a per-request timeout.
//   - Mounts Swagger docs (/swagger/*any) and Prometheus metrics (/metrics).
//   - Configures API v1 routes (/api/v1).
//
// Note:
//   - Health endpoints (/health, /healthz, /readyz) are registered in app.InitializeApp().
func NewRouter(handler *Handler, cfg RouterConfig) *gin.Engine {
	router := gin.New()

	// ─── Middlewares ───────────────────────────────
	router.Use(
		middleware.RequestID(),
		middleware.RequestLogger(),
		middleware.RecoveryMiddleware(),
		middleware.ErrorHandler,
	)
	if cfg.RateStore != nil {
		router.Use(middleware.RateLimiter(cfg.RateStore))
	}

	// ─── Timeout ──────────────────────────────────
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	router.Use(func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	})

	// ─── Swagger & metrics ────────────────────────
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	// ─── API v1 ───────────────────────────────────
	v1 := router.Group("/api/v1")
	{
		v1.POST("/chat/message", handler.SendMessage)
		v1.GET("/chat/history/:userId", handler.GetHistory)

		v1.GET("/market/summary", handler.GetMarketSummary)
		v1.GET("/market/:symbol", handler.GetQuote)

		v1.POST("/analyze", handler.Analyze)

		users := v1.Group("/users/:userId")
		users.GET("/profile", handler.GetProfile)
		users.PUT("/profile", handler.PutProfile)
		users.GET("/watchlist", handler.GetWatchlist)
		users.POST("/watchlist", handler.AddToWatchlist)
		users.DELETE("/watchlist/:symbol", handler.RemoveFromWatchlist)
		users.GET("/portfolio", handler.GetPortfolio)
		users.PUT("/portfolio", handler.PutPosition)
		users.POST("/portfolio/import", handler.ImportPortfolio)
		users.DELETE("/portfolio/:symbol", handler.RemovePosition)
	}

	return router
}
