package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func setEnv(key, value string) { _ = os.Setenv(key, value) }
func unsetEnv(key string)      { _ = os.Unsetenv(key) }

func TestLoad(t *testing.T) {
	envVars := []string{
		"EMBEDDING_BASE_URL", "EMBEDDING_MODEL_NAME", "EMBEDDING_API_KEY",
		"DATA_DIR", "PAGE_SIZE_CHARS", "QDRANT_URL", "QDRANT_COLLECTION", "API_PORT",
		"LOG_LEVEL", "LOG_FORMAT",
	}
	originalEnv := make(map[string]string)
	for _, key := range envVars {
		originalEnv[key] = os.Getenv(key)
		unsetEnv(key)
	}
	defer func() {
		for key, value := range originalEnv {
			if value != "" {
				setEnv(key, value)
			} else {
				unsetEnv(key)
			}
		}
	}()

	tests := []struct {
		name        string
		setupEnv    func(*testing.T)
		wantErr     bool
		checkConfig func(*Config) bool
	}{
		{
			name:    "default values for optional fields",
			setupEnv: func(t *testing.T) {},
			wantErr: false,
			checkConfig: func(cfg *Config) bool {
				return cfg.EmbeddingBaseURL == "http://localhost:8081" &&
					cfg.EmbeddingModelName == "granite-embedding-278m-multilingual" &&
					cfg.EmbeddingAPIKey == "dummy-key" &&
					cfg.PageSizeChars == 1800 &&
					cfg.QdrantURL == "" &&
					cfg.QdrantCollection == "readest-ai-chunks" &&
					cfg.APIPort == "9000" &&
					cfg.LogLevel == slog.LevelInfo &&
					cfg.LogFormat == "text"
			},
		},
		{
			name: "custom optional values",
			setupEnv: func(t *testing.T) {
				setEnv("EMBEDDING_BASE_URL", "http://custom:9090")
				setEnv("EMBEDDING_MODEL_NAME", "custom-model")
				setEnv("PAGE_SIZE_CHARS", "2000")
				setEnv("LOG_LEVEL", "debug")
				setEnv("LOG_FORMAT", "json")
			},
			wantErr: false,
			checkConfig: func(cfg *Config) bool {
				return cfg.EmbeddingBaseURL == "http://custom:9090" &&
					cfg.EmbeddingModelName == "custom-model" &&
					cfg.PageSizeChars == 2000 &&
					cfg.LogLevel == slog.LevelDebug &&
					cfg.LogFormat == "json"
			},
		},
		{
			name: "invalid PAGE_SIZE_CHARS",
			setupEnv: func(t *testing.T) {
				setEnv("PAGE_SIZE_CHARS", "not-a-number")
			},
			wantErr: true,
		},
		{
			name: "zero PAGE_SIZE_CHARS",
			setupEnv: func(t *testing.T) {
				setEnv("PAGE_SIZE_CHARS", "0")
			},
			wantErr: true,
		},
		{
			name: "negative PAGE_SIZE_CHARS",
			setupEnv: func(t *testing.T) {
				setEnv("PAGE_SIZE_CHARS", "-5")
			},
			wantErr: true,
		},
		{
			name: "custom DATA_DIR is created",
			setupEnv: func(t *testing.T) {
				setEnv("DATA_DIR", filepath.Join(t.TempDir(), "nested", "data"))
			},
			wantErr: false,
			checkConfig: func(cfg *Config) bool {
				_, err := os.Stat(cfg.DataDir)
				return err == nil
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()
			originalWd, _ := os.Getwd()
			_ = os.Chdir(tmpDir)
			defer func() { _ = os.Chdir(originalWd) }()

			for _, key := range envVars {
				unsetEnv(key)
			}
			defer func() {
				for key, value := range originalEnv {
					if value != "" {
						setEnv(key, value)
					} else {
						unsetEnv(key)
					}
				}
			}()

			tt.setupEnv(t)

			cfg, err := Load()

			if tt.wantErr {
				if err == nil {
					t.Errorf("Load() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Load() unexpected error: %v", err)
			}
			if cfg == nil {
				t.Fatal("Load() returned nil config")
			}
			if tt.checkConfig != nil && !tt.checkConfig(cfg) {
				t.Errorf("Load() config validation failed for %+v", cfg)
			}
		})
	}
}

func TestGetEnv(t *testing.T) {
	originalValue := os.Getenv("TEST_ENV_VAR")
	defer func() {
		if originalValue != "" {
			setEnv("TEST_ENV_VAR", originalValue)
		} else {
			unsetEnv("TEST_ENV_VAR")
		}
	}()

	tests := []struct {
		name         string
		setupEnv     func()
		defaultValue string
		want         string
	}{
		{
			name:         "env var set",
			setupEnv:     func() { setEnv("TEST_ENV_VAR", "set-value") },
			defaultValue: "default",
			want:         "set-value",
		},
		{
			name:         "env var not set",
			setupEnv:     func() { unsetEnv("TEST_ENV_VAR") },
			defaultValue: "default",
			want:         "default",
		},
		{
			name:         "empty env var uses default",
			setupEnv:     func() { setEnv("TEST_ENV_VAR", "") },
			defaultValue: "default",
			want:         "default",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupEnv()
			if got := getEnv("TEST_ENV_VAR", tt.defaultValue); got != tt.want {
				t.Errorf("getEnv() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		raw  string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"nonsense", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLogLevel(tt.raw); got != tt.want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}
