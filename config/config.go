package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the full application configuration loaded from environment variables or .env file.
//
// It is composed of smaller structs that represent different concerns of the system,
// such as server settings, the market-data layer, the language model, and the
// optional collaborators (document store, Redis, Kafka).
//
// Example ENV equivalent:
//
//	SERVER_PORT=8080
//	MARKET_RATE_LIMIT=30
//	MARKET_CACHE_TTL=60s
//	GEMINI_API_KEY=...
//	STORE_DRIVER=mongo
//	MONGO_URI=mongodb://localhost:27017
//	REDIS_ADDR=localhost:6379
//	KAFKA_BROKERS=localhost:9092
type Config struct {
	Server   ServerConfig   // HTTP server configuration
	Market   MarketConfig   // Market data access layer
	LLM      LLMConfig      // Generative-language provider
	Store    StoreConfig    // Optional document store
	Mongo    MongoConfig    // MongoDB connection settings
	Postgres PostgresConfig // PostgreSQL connection settings
	Redis    RedisConfig    // Gateway rate-limit store
	Kafka    KafkaConfig    // Chat event publishing
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port           string        // The TCP port the HTTP server will listen on (e.g., "8080")
	RequestTimeout time.Duration // Per-request deadline applied by the router
	RateLimit      int           // Requests per minute per client IP at the HTTP edge
}

// MarketConfig tunes the market-data client.
//
// Fields:
//   - RateLimit / RateWindow: fixed-window budget for provider calls.
//   - CacheTTL: how long a fetched quote is served from memory.
//   - HTTPTimeout: deadline for every provider HTTP call.
//   - MockFallback: when true, failed lookups other than rate limiting may be answered with labeled synthetic quotes.
//   - Indices: index symbols used by the market summary.
type MarketConfig struct {
	RateLimit    int
	RateWindow   time.Duration
	CacheTTL     time.Duration
	HTTPTimeout  time.Duration
	MockFallback bool
	Indices      []string
}

// LLMConfig configures the generative-language provider. An empty APIKey disables it.
type LLMConfig struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

// StoreConfig selects the document store backend: "none", "mongo" or "postgres".
type StoreConfig struct {
	Driver string
}

// MongoConfig holds the MongoDB URI and database name.
type MongoConfig struct {
	URI      string
	Database string
}

// PostgresConfig defines connection details for PostgreSQL.
//
// Fields:
//   - Host: hostname of the database server.
//   - Port: port number of the database server (default 5432).
//   - User: username for authentication.
//   - Password: password for authentication.
//   - DBName: target database name.
//   - SSLMode: SSL mode (e.g., "disable", "require").
//   - URL: computed DSN used by database/sql to connect.
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	URL      string
}

// RedisConfig points the gateway rate limiter at Redis. Empty Addr keeps it in memory.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// KafkaConfig enables chat event publishing when Brokers is non-empty.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// AppConfig is the globally accessible configuration instance.
//
// It is populated once via LoadConfig() and used throughout the application.
// All services should import this package and read from AppConfig instead of
// reloading environment variables directly.
var AppConfig Config

// LoadConfig initializes the global AppConfig by reading from .env file
// or directly from environment variables.
//
// Precedence (from lowest to highest):
//  1. Defaults set in this function.
//  2. Values from .env file (if present).
//  3. Environment variables.
//
// Fatal exit:
//   - If required variables are missing or invalid, validateConfig() will terminate
//     the app with a descriptive log message.
func LoadConfig() {
	setDefaults()

	// Optionally read from .env if present (common in local dev)
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig() // ignore error if no .env

	// Read environment variables automatically
	viper.AutomaticEnv()

	AppConfig = Config{
		Server: ServerConfig{
			Port:           viper.GetString("SERVER_PORT"),
			RequestTimeout: viper.GetDuration("REQUEST_TIMEOUT"),
			RateLimit:      viper.GetInt("HTTP_RATE_LIMIT"),
		},
		Market: MarketConfig{
			RateLimit:    viper.GetInt("MARKET_RATE_LIMIT"),
			RateWindow:   viper.GetDuration("MARKET_RATE_WINDOW"),
			CacheTTL:     viper.GetDuration("MARKET_CACHE_TTL"),
			HTTPTimeout:  viper.GetDuration("MARKET_HTTP_TIMEOUT"),
			MockFallback: viper.GetBool("MARKET_MOCK_FALLBACK"),
			Indices:      splitList(viper.GetString("MARKET_INDICES")),
		},
		LLM: LLMConfig{
			APIKey:  viper.GetString("GEMINI_API_KEY"),
			Model:   viper.GetString("GEMINI_MODEL"),
			Timeout: viper.GetDuration("LLM_TIMEOUT"),
		},
		Store: StoreConfig{
			Driver: strings.ToLower(viper.GetString("STORE_DRIVER")),
		},
		Mongo: MongoConfig{
			URI:      viper.GetString("MONGO_URI"),
			Database: viper.GetString("MONGO_DB"),
		},
		Postgres: PostgresConfig{
			Host:     viper.GetString("POSTGRES_HOST"),
			Port:     viper.GetInt("POSTGRES_PORT"),
			User:     viper.GetString("POSTGRES_USER"),
			Password: viper.GetString("POSTGRES_PASSWORD"),
			DBName:   viper.GetString("POSTGRES_DB"),
			SSLMode:  viper.GetString("POSTGRES_SSLMODE"),
		},
		Redis: RedisConfig{
			Addr:     viper.GetString("REDIS_ADDR"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(viper.GetString("KAFKA_BROKERS")),
			Topic:   viper.GetString("KAFKA_TOPIC"),
		},
	}

	// Construct Postgres DSN (used by database/sql)
	AppConfig.Postgres.URL = fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		AppConfig.Postgres.User,
		AppConfig.Postgres.Password,
		AppConfig.Postgres.Host,
		AppConfig.Postgres.Port,
		AppConfig.Postgres.DBName,
		AppConfig.Postgres.SSLMode,
	)

	// Validate critical fields
	validateConfig()
}

func setDefaults() {
	viper.SetDefault("SERVER_PORT", "8080")
	// longer than MARKET_RATE_WINDOW so a request can outlast a full limiter wait
	viper.SetDefault("REQUEST_TIMEOUT", "75s")
	viper.SetDefault("HTTP_RATE_LIMIT", 60)

	viper.SetDefault("MARKET_RATE_LIMIT", 30)
	viper.SetDefault("MARKET_RATE_WINDOW", "60s")
	viper.SetDefault("MARKET_CACHE_TTL", "60s")
	viper.SetDefault("MARKET_HTTP_TIMEOUT", "10s")
	viper.SetDefault("MARKET_MOCK_FALLBACK", true)
	viper.SetDefault("MARKET_INDICES", "^GSPC,^DJI,^IXIC")

	viper.SetDefault("GEMINI_MODEL", "gemini-1.5-flash")
	viper.SetDefault("LLM_TIMEOUT", "20s")

	viper.SetDefault("STORE_DRIVER", "none")
	viper.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	viper.SetDefault("MONGO_DB", "stockchat")

	viper.SetDefault("POSTGRES_HOST", "localhost")
	viper.SetDefault("POSTGRES_PORT", 5432)
	viper.SetDefault("POSTGRES_USER", "postgres")
	viper.SetDefault("POSTGRES_PASSWORD", "postgres")
	viper.SetDefault("POSTGRES_DB", "stockchat")
	viper.SetDefault("POSTGRES_SSLMODE", "disable")

	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("KAFKA_TOPIC", "chat.exchanges")
}

// splitList turns "a, b,,c" into ["a" "b" "c"].
func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// validateConfig ensures required variables are present and terminates
// the application if they are missing.
//
// Behavior:
//   - Checks each critical field of AppConfig.
//   - Postgres and Mongo settings are only required when STORE_DRIVER selects them.
//   - If any are missing, logs them and terminates the app with log.Fatalf().
func validateConfig() {
	var missing []string

	if AppConfig.Server.Port == "" {
		missing = append(missing, "SERVER_PORT")
	}
	if AppConfig.Market.RateLimit <= 0 {
		missing = append(missing, "MARKET_RATE_LIMIT")
	}
	if AppConfig.Market.RateWindow <= 0 {
		missing = append(missing, "MARKET_RATE_WINDOW")
	}
	if AppConfig.Market.CacheTTL <= 0 {
		missing = append(missing, "MARKET_CACHE_TTL")
	}

	switch AppConfig.Store.Driver {
	case "", "none":
	case "mongo":
		if AppConfig.Mongo.URI == "" {
			missing = append(missing, "MONGO_URI")
		}
		if AppConfig.Mongo.Database == "" {
			missing = append(missing, "MONGO_DB")
		}
	case "postgres":
		if AppConfig.Postgres.Host == "" {
			missing = append(missing, "POSTGRES_HOST")
		}
		if AppConfig.Postgres.Port == 0 {
			missing = append(missing, "POSTGRES_PORT")
		}
		if AppConfig.Postgres.User == "" {
			missing = append(missing, "POSTGRES_USER")
		}
		if AppConfig.Postgres.DBName == "" {
			missing = append(missing, "POSTGRES_DB")
		}
	default:
		missing = append(missing, "STORE_DRIVER (none|mongo|postgres)")
	}

	if len(missing) > 0 {
		log.Fatalf("Missing or invalid environment variables: %v\n", missing)
	}
}
