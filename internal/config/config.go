package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the CORE engine.
type Config struct {
	EmbeddingBaseURL   string
	EmbeddingModelName string
	EmbeddingAPIKey    string

	DataDir       string // directory holding one SQLite file per book
	PageSizeChars int

	// QdrantURL and QdrantCollection configure the optional alternate
	// VectorBackend (see internal/store/qdrant.go); unset means the
	// in-process cosine scanner is the only vector path.
	QdrantURL        string
	QdrantCollection string

	APIPort string

	LogLevel  slog.Level
	LogFormat string // "text" or "json"
}

// Load reads configuration from environment variables, applying
// a default to every unset field; only PAGE_SIZE_CHARS is validated
// (it must be a positive integer). A .env
// file in the working directory or an ancestor (up to 5 levels, where
// go.mod typically lives) is loaded first if present; real
// environment variables always take precedence over it.
func Load() (*Config, error) {
	_ = godotenv.Load()

	wd, err := os.Getwd()
	if err == nil {
		dir := wd
		for i := 0; i < 5; i++ {
			envPath := filepath.Join(dir, ".env")
			if _, err := os.Stat(envPath); err == nil {
				_ = godotenv.Load(envPath)
				break
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}

	cfg := &Config{
		EmbeddingBaseURL:   getEnv("EMBEDDING_BASE_URL", "http://localhost:8081"),
		EmbeddingModelName: getEnv("EMBEDDING_MODEL_NAME", "granite-embedding-278m-multilingual"),
		EmbeddingAPIKey:    getEnv("EMBEDDING_API_KEY", "dummy-key"),
		DataDir:            getEnv("DATA_DIR", "./data"),
		QdrantURL:          getEnv("QDRANT_URL", ""),
		QdrantCollection:   getEnv("QDRANT_COLLECTION", "readest-ai-chunks"),
		APIPort:            getEnv("API_PORT", "9000"),
		LogLevel:           parseLogLevel(getEnv("LOG_LEVEL", "info")),
		LogFormat:          getEnv("LOG_FORMAT", "text"),
	}

	pageSizeStr := getEnv("PAGE_SIZE_CHARS", "1800")
	pageSize, err := strconv.Atoi(pageSizeStr)
	if err != nil {
		return nil, fmt.Errorf("PAGE_SIZE_CHARS must be a valid integer: %w", err)
	}
	if pageSize <= 0 {
		return nil, fmt.Errorf("PAGE_SIZE_CHARS must be greater than 0")
	}
	cfg.PageSizeChars = pageSize

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseLogLevel maps a LOG_LEVEL string to a slog.Level, defaulting to
// Info for an empty or unrecognized value.
func parseLogLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
