package logger

import (
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

const serviceName = "stockchat"

var (
	base zerolog.Logger
)

// Options describes the global logger. Zero values select the defaults.
type Options struct {
	Level     zerolog.Level
	Pretty    bool
	File      string // rotated log file written next to stdout; empty disables it
	MaxSizeMB int
}

// Init configures the global JSON logger from the environment.
//
// Environment variables (optional):
//   - LOG_LEVEL: debug|info|warn|error (default: info)
//   - LOG_PRETTY: true|false (default: false)
//   - LOG_FILE: path of a rotated log file; when set, logs go to stdout and the file
//   - LOG_MAX_SIZE_MB: rotation size for LOG_FILE (default: 100)
func Init() {
	base = New(os.Stdout, optionsFromEnv())
}

// New builds a logger writing to out. Every event carries a timestamp and the service name.
func New(out io.Writer, opts Options) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	w := out
	if opts.Pretty {
		w = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	if opts.File != "" {
		w = zerolog.MultiLevelWriter(w, fileWriter(opts.File, opts.MaxSizeMB))
	}
	return zerolog.New(w).
		With().Timestamp().Str("service", serviceName).Logger().
		Level(opts.Level)
}

// L returns the global logger. Call Init() once on startup.
func L() *zerolog.Logger {
	if base.GetLevel() == zerolog.NoLevel {
		Init()
	}
	return &base
}

func optionsFromEnv() Options {
	size, err := strconv.Atoi(getenv("LOG_MAX_SIZE_MB", "100"))
	if err != nil {
		size = 0
	}
	return Options{
		Level:     parseLevel(getenv("LOG_LEVEL", "info")),
		Pretty:    strings.EqualFold(getenv("LOG_PRETTY", "false"), "true"),
		File:      getenv("LOG_FILE", ""),
		MaxSizeMB: size,
	}
}

func fileWriter(path string, sizeMB int) *lumberjack.Logger {
	if sizeMB <= 0 {
		sizeMB = 100
	}
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    sizeMB,
		MaxBackups: 5,
		MaxAge:     14,
		Compress:   true,
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseLevel(s string) zerolog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error", "err":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
