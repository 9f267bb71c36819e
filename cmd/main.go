package main

//
//  @title           stockchat API
//  @version         1.0
//  @description     Conversational stock market assistant: chat, quotes, analysis, watchlists and portfolios.
//  @contact.name    API Support
//  @contact.url     https://github.com/Mithun-VK/trading-chatbot
//  @license.name    MIT
//  @license.url     https://opensource.org/licenses/MIT
//  @host            localhost:8080
//  @BasePath        /
//  @schemes         http
//
//  @tag.name        chat
//  @tag.description Conversational endpoint and history
//
//  @tag.name        market
//  @tag.description Quotes and market summary
//
//  @tag.name        analysis
//  @tag.description Single-symbol analysis with a recommendation
//
//  @tag.name        users
//  @tag.description Profiles, watchlists and portfolios
//
//  @tag.name        health
//  @tag.description Liveness and readiness probes

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Mithun-VK/trading-chatbot/config"
	_ "github.com/Mithun-VK/trading-chatbot/docs" // swagger docs
	"github.com/Mithun-VK/trading-chatbot/internal/app"
	"github.com/Mithun-VK/trading-chatbot/internal/domain/models"
	"github.com/Mithun-VK/trading-chatbot/internal/ingestion"
	"github.com/Mithun-VK/trading-chatbot/internal/logger"
	"github.com/Mithun-VK/trading-chatbot/internal/market"
)

// startServer initializes and starts the HTTP server in a separate goroutine.
//
// Parameters:
//   - router (http.Handler): The HTTP router (Gin Engine) configured with all routes.
//   - port (string): The port where the server will listen for incoming requests.
//
// Returns:
//   - *http.Server: The initialized HTTP server instance.
func startServer(router http.Handler, port string) *http.Server {
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      90 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.L().Info().Str("port", port).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.L().Fatal().Err(err).Msg("server failed to start")
		}
	}()

	return server
}

// gracefulShutdown gracefully terminates the HTTP server and cleans up resources
// when an OS interrupt signal (SIGINT, SIGTERM) is received.
//
// Parameters:
//   - ctx (context.Context): A context with timeout for graceful shutdown.
//   - server (*http.Server): The HTTP server instance to shut down.
//   - cleanup (func()): Cleanup callback to release resources (e.g., DB connections).
func gracefulShutdown(ctx context.Context, server *http.Server, cleanup func()) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	logger.L().Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.L().Fatal().Err(err).Msg("server forced to shutdown")
	}

	cleanup()
	logger.L().Info().Msg("server exited gracefully")
}

// quoteFetcher is the part of the market client the quote command needs.
type quoteFetcher interface {
	GetQuotes(ctx context.Context, symbols []string) []models.Quote
}

// printQuotes fetches symbols in one batch and writes them to w as indented JSON.
// Invalid symbols are rejected before any provider call.
func printQuotes(ctx context.Context, w io.Writer, data quoteFetcher, list string) error {
	var symbols []string
	for _, s := range strings.Split(list, ",") {
		s = market.NormalizeSymbol(s)
		if s == "" {
			continue
		}
		if !market.ValidSymbol(s) {
			return fmt.Errorf("invalid symbol %q", s)
		}
		symbols = append(symbols, s)
	}
	if len(symbols) == 0 {
		return errors.New("no symbols given, use --symbols AAPL,MSFT")
	}

	quotes := data.GetQuotes(ctx, symbols)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(quotes)
}

// main is the entry point of the stockchat application.
//
// Modes (selected via --mode flag):
//   - api:   Starts the REST API (chat, market, analysis, users, health).
//   - quote:  Prints live quotes for --symbols as JSON and exits.
//   - import: Loads every <userId>.csv in --dir into that user's portfolio.
//
// Flags:
//   - --mode:     Execution mode ("api", "quote" or "import"). Default: "api".
//   - --symbols:  Comma-separated tickers for quote mode.
//   - --dir:      Directory with portfolio CSV files for import mode.
//   - --parallel: Files imported concurrently (0=auto up to CPU, max 8).
//   - --port:    Port for the API server. Defaults to value from config (SERVER_PORT).
func main() {
	ctx := context.Background()

	// Load configuration from environment or .env file
	config.LoadConfig()

	// Initialize JSON logger
	logger.Init()

	mode := flag.String("mode", "api", "Mode: api, quote or import")
	symbols := flag.String("symbols", "", "Comma-separated symbols for quote mode")
	dir := flag.String("dir", "./data/portfolios", "Directory with <userId>.csv files for import mode")
	parallel := flag.Int("parallel", 0, "How many files to import concurrently (0=auto up to CPU, max 8)")
	port := flag.String("port", config.AppConfig.Server.Port, "Port for API mode")
	flag.Parse()

	switch *mode {
	case "quote":
		qctx, cancel := context.WithTimeout(ctx, 90*time.Second)
		defer cancel()
		client := app.NewMarketClient(config.AppConfig)
		if err := printQuotes(qctx, os.Stdout, client, *symbols); err != nil {
			logger.L().Fatal().Err(err).Msg("quote failed")
		}

	case "import":
		users, cleanup, err := app.OpenUserService(ctx, config.AppConfig)
		if err != nil {
			logger.L().Fatal().Err(err).Msg("store init error")
		}
		results, err := ingestion.ImportDirectory(ctx, *dir, users, *parallel)
		cleanup()
		if err != nil {
			logger.L().Fatal().Err(err).Msg("portfolio import failed")
		}
		logger.L().Info().Int("files", len(results)).Msg("portfolio import completed successfully")

	case "api":
		logger.L().Info().Msg("starting API server")

		router, cleanup, err := app.InitializeApp()
		if err != nil {
			logger.L().Fatal().Err(err).Msg("app init error")
		}

		server := startServer(router, *port)
		gracefulShutdown(ctx, server, cleanup)

	default:
		logger.L().Fatal().Str("mode", *mode).Msg("unknown mode")
	}
}
