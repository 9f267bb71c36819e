package app

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/Mithun-VK/trading-chatbot/config"
	"github.com/Mithun-VK/trading-chatbot/internal/api"
	"github.com/Mithun-VK/trading-chatbot/internal/chat"
	"github.com/Mithun-VK/trading-chatbot/internal/events"
	"github.com/Mithun-VK/trading-chatbot/internal/llm"
	"github.com/Mithun-VK/trading-chatbot/internal/logger"
	"github.com/Mithun-VK/trading-chatbot/internal/middleware"
	"github.com/Mithun-VK/trading-chatbot/internal/service"
	"github.com/Mithun-VK/trading-chatbot/internal/storage"
)

const closeTimeout = 5 * time.Second

// InitializeApp sets up all application dependencies and returns
// a fully configured Gin router, a cleanup function for graceful shutdown,
// and any error encountered during initialization.
//
// Responsibilities:
//   - Builds the market data client (Yahoo provider, rate limiter, caches).
//   - Selects the reply generator: Gemini behind a circuit breaker, or disabled.
//   - Opens the optional document store selected by STORE_DRIVER.
//   - Picks the gateway rate-limit store (Redis when configured, memory otherwise).
//   - Creates the Kafka publisher for chat events when brokers are configured.
//   - Wires services, handlers, router and health probes.
//
// Only a store that is configured but unreachable fails startup. Every other
// optional collaborator degrades to its in-process fallback.
func InitializeApp() (*gin.Engine, func(), error) {
	cfg := config.AppConfig
	ctx, cancel := context.WithCancel(context.Background())

	var closers []func()
	cleanup := func() {
		cancel()
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	store, err := storeOpener(ctx, cfg)
	if err != nil {
		cancel()
		return nil, nil, fmt.Errorf("failed to initialize store: %w", err)
	}
	var ping func(context.Context) error
	if store != nil {
		ping = store.Ping
		closers = append(closers, func() {
			closeCtx, done := context.WithTimeout(context.Background(), closeTimeout)
			defer done()
			if err := store.Close(closeCtx); err != nil {
				logger.L().Warn().Err(err).Msg("store close failed")
			}
		})
	}

	client := NewMarketClient(cfg)
	client.StartSweepers(ctx)

	generator, closeGenerator := newGenerator(ctx, cfg)
	closers = append(closers, closeGenerator)

	composer := chat.NewComposer(
		chat.LLMStrategy{Generator: generator},
		chat.TemplateStrategy{},
	)

	publisher := newPublisher(cfg)
	closers = append(closers, func() {
		if err := publisher.Close(); err != nil {
			logger.L().Warn().Err(err).Msg("publisher close failed")
		}
	})

	rateStore, closeRates := newRateStore(cfg)
	closers = append(closers, closeRates)

	markets := service.NewMarketService(client, cfg.Market.MockFallback)
	handler := api.NewHandler(
		service.NewChatService(client, composer, store, publisher),
		markets,
		service.NewAnalysisService(markets, generator),
		service.NewUserService(store, client),
	)

	router := api.NewRouter(handler, api.RouterConfig{
		RequestTimeout: cfg.Server.RequestTimeout,
		RateStore:      rateStore,
	})

	api.NewHealthHandler(ping).Register(router)

	logger.L().Info().
		Str("store", driverName(cfg)).
		Bool("llm", cfg.LLM.APIKey != "").
		Bool("redis", cfg.Redis.Addr != "").
		Bool("kafka", len(cfg.Kafka.Brokers) > 0).
		Msg("application initialized")

	return router, cleanup, nil
}

// storeOpener is an indirection used by InitializeApp; overridden in tests to avoid real connections.
var storeOpener = openStore

// openStore returns the document store selected by cfg.Store.Driver, or nil
// when persistence is disabled.
func openStore(ctx context.Context, cfg config.Config) (storage.Store, error) {
	switch cfg.Store.Driver {
	case "postgres":
		db, err := postgresOpener(cfg)
		if err != nil {
			return nil, err
		}
		return storage.NewPostgresStore(db), nil
	case "mongo":
		ms, err := storage.ConnectMongo(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
		if err != nil {
			return nil, err
		}
		if err := ms.EnsureIndexes(ctx); err != nil {
			logger.L().Warn().Err(err).Msg("mongo index creation failed")
		}
		return ms, nil
	default:
		return nil, nil
	}
}

func driverName(cfg config.Config) string {
	if cfg.Store.Driver == "" {
		return "none"
	}
	return cfg.Store.Driver
}

// newGenerator returns Gemini behind a circuit breaker, or llm.Disabled when
// no key is configured or the client cannot be created.
func newGenerator(ctx context.Context, cfg config.Config) (llm.Generator, func()) {
	if cfg.LLM.APIKey == "" {
		logger.L().Info().Msg("no GEMINI_API_KEY, replies are template based")
		return llm.Disabled{}, func() {}
	}
	gemini, err := llm.NewGemini(ctx, cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLM.Timeout)
	if err != nil {
		logger.L().Warn().Err(err).Msg("gemini unavailable, replies are template based")
		return llm.Disabled{}, func() {}
	}
	return llm.NewBreaker(gemini, llm.BreakerSettings{}), func() { _ = gemini.Close() }
}

func newPublisher(cfg config.Config) events.Publisher {
	if len(cfg.Kafka.Brokers) == 0 {
		return events.Nop{}
	}
	return events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
}

// newRateStore shares gateway limits through Redis when REDIS_ADDR is set.
func newRateStore(cfg config.Config) (middleware.RateStore, func()) {
	limit := cfg.Server.RateLimit
	if limit <= 0 {
		return nil, func() {}
	}
	if cfg.Redis.Addr == "" {
		return middleware.NewMemoryRateStore(limit, time.Minute), func() {}
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	return middleware.NewRedisRateStore(rdb, limit, time.Minute), func() { _ = rdb.Close() }
}
