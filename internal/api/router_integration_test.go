//go:build integration
// +build integration

package api_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	_ "github.com/lib/pq"
	goose "github.com/pressly/goose/v3"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/Mithun-VK/trading-chatbot/config"
	"github.com/Mithun-VK/trading-chatbot/internal/app"
)

func startPG(t *testing.T) (dsn string, host string, port nat.Port, terminate func()) {
	t.Helper()
	ctx := context.Background()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_DB":       "stockchat",
			"POSTGRES_USER":     "postgres",
			"POSTGRES_PASSWORD": "postgres",
		},
		WaitingFor: wait.ForSQL("5432/tcp", "postgres", func(h string, p nat.Port) string {
			return fmt.Sprintf("host=%s port=%s user=postgres password=postgres dbname=stockchat sslmode=disable", h, p.Port())
		}).WithStartupTimeout(60 * time.Second),
	}
	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		t.Fatalf("container: %v", err)
	}
	h, err := c.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	mp, err := c.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", "postgres", "postgres", h, mp.Port(), "stockchat")
	terminate = func() { _ = c.Terminate(context.Background()) }
	return dsn, h, mp, terminate
}

func openAndMigrate(t *testing.T, dsn string) *sql.DB {
	t.Helper()
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := db.Ping(); err != nil {
		t.Fatalf("ping: %v", err)
	}
	if err := goose.SetDialect("postgres"); err != nil {
		t.Fatalf("dialect: %v", err)
	}
	path := filepath.Join("..", "..", "db", "migrations")
	if err := goose.Up(db, path); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func serve(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestAPI_E2E_UserData_Postgres(t *testing.T) {
	dsn, host, port, term := startPG(t)
	defer term()
	db := openAndMigrate(t, dsn)
	defer db.Close()

	old := config.AppConfig
	t.Cleanup(func() { config.AppConfig = old })
	p, _ := nat.ParsePort(port.Port())
	config.AppConfig = config.Config{
		Server: config.ServerConfig{Port: "0", RequestTimeout: 5 * time.Second},
		Market: config.MarketConfig{RateLimit: 30, RateWindow: time.Minute, CacheTTL: time.Minute, HTTPTimeout: time.Second},
		Store:  config.StoreConfig{Driver: "postgres"},
		Postgres: config.PostgresConfig{
			Host:     host,
			Port:     p,
			User:     "postgres",
			Password: "postgres",
			DBName:   "stockchat",
			SSLMode:  "disable",
		},
	}

	router, cleanup, err := app.InitializeApp()
	if err != nil {
		t.Fatalf("init app: %v", err)
	}
	defer cleanup()

	if w := serve(t, router, http.MethodGet, "/readyz", ""); w.Code != http.StatusOK {
		t.Fatalf("readyz: %d", w.Code)
	}

	if w := serve(t, router, http.MethodGet, "/api/v1/users/e2e/profile", ""); w.Code != http.StatusNotFound {
		t.Fatalf("missing profile: expected 404, got %d", w.Code)
	}
	w := serve(t, router, http.MethodPut, "/api/v1/users/e2e/profile", `{"displayName":"Ann","riskTolerance":"high","experience":"advanced"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("put profile: %d body=%s", w.Code, w.Body.String())
	}
	w = serve(t, router, http.MethodGet, "/api/v1/users/e2e/profile", "")
	var profile struct {
		DisplayName   string `json:"displayName"`
		RiskTolerance string `json:"riskTolerance"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &profile); err != nil || profile.RiskTolerance != "high" || profile.DisplayName != "Ann" {
		t.Fatalf("unexpected profile %s (%v)", w.Body.String(), err)
	}

	if w := serve(t, router, http.MethodPost, "/api/v1/users/e2e/watchlist", `{"symbol":"tsla"}`); w.Code != http.StatusNoContent {
		t.Fatalf("add watchlist: %d body=%s", w.Code, w.Body.String())
	}
	var stored string
	if err := db.QueryRow(`SELECT symbol FROM watchlists WHERE user_id = 'e2e'`).Scan(&stored); err != nil || stored != "TSLA" {
		t.Fatalf("watchlist row: %q (%v)", stored, err)
	}
	if w := serve(t, router, http.MethodDelete, "/api/v1/users/e2e/watchlist/TSLA", ""); w.Code != http.StatusNoContent {
		t.Fatalf("remove watchlist: %d", w.Code)
	}
	if w := serve(t, router, http.MethodDelete, "/api/v1/users/e2e/watchlist/TSLA", ""); w.Code != http.StatusNotFound {
		t.Fatalf("second remove: expected 404, got %d", w.Code)
	}

	w = serve(t, router, http.MethodGet, "/api/v1/chat/history/e2e", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"messages":[]`) {
		t.Fatalf("empty history: %d body=%s", w.Code, w.Body.String())
	}
}
