package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	APIURL            string
	TokenFile         string
	APITimeout        time.Duration
	APIRetryMax       int
	APIRetryBaseDelay time.Duration
	AuthErrorStatuses []int
	AuthErrorDetails  []string
	ChartMaxPoints    int
	FetchConcurrency  int
	HTTPHost          string
	HTTPPort          string
	AdminAPIKey       string
	DatabaseURL       string
	SyncInterval      time.Duration
	ReportInterval    time.Duration
	LogLevel          string
	LogFile           string
	SheetsSpreadsheet string
	SheetsCredentials string
	ExportFile        string
}

// Load reads configuration from environment variables and an optional .env
// file, with sensible defaults.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "error", err)
	}

	return Config{
		APIURL:            envOrDefault("WEALTH_API_URL", "http://localhost:8000/"),
		TokenFile:         envOrDefault("WEALTH_TOKEN_FILE", defaultTokenFile()),
		APITimeout:        envOrDefaultDuration("API_TIMEOUT", 30*time.Second),
		APIRetryMax:       envOrDefaultInt("API_RETRY_MAX", 3),
		APIRetryBaseDelay: envOrDefaultDuration("API_RETRY_BASE_DELAY", 1*time.Second),
		AuthErrorStatuses: envOrDefaultInts("AUTH_ERROR_STATUSES", []int{422}),
		AuthErrorDetails:  envOrDefaultList("AUTH_ERROR_DETAILS", []string{"Signature has expired", "Signature verification failed"}),
		ChartMaxPoints:    envOrDefaultInt("CHART_MAX_POINTS", 200),
		FetchConcurrency:  envOrDefaultInt("FETCH_CONCURRENCY", 4),
		HTTPHost:          envOrDefault("HTTP_HOST", "127.0.0.1"),
		HTTPPort:          envOrDefault("HTTP_PORT", "8080"),
		AdminAPIKey:       envOrDefault("ADMIN_API_KEY", ""),
		DatabaseURL:       envOrDefault("DATABASE_URL", ""),
		SyncInterval:      envOrDefaultDuration("SYNC_INTERVAL", 15*time.Minute),
		ReportInterval:    envOrDefaultDuration("REPORT_INTERVAL", 24*time.Hour),
		LogLevel:          envOrDefault("LOG_LEVEL", "info"),
		LogFile:           envOrDefault("LOG_FILE", ""),
		SheetsSpreadsheet: envOrDefault("SHEETS_SPREADSHEET_ID", ""),
		SheetsCredentials: envOrDefault("SHEETS_CREDENTIALS_JSON", ""),
		ExportFile:        envOrDefault("EXPORT_FILE", ""),
	}
}

func defaultTokenFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "wealth", "tokens.json")
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envOrDefaultInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			slog.Warn("invalid integer env var, using default", "key", key, "value", v, "default", defaultVal)
			return defaultVal
		}
		return n
	}
	return defaultVal
}

func envOrDefaultDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			slog.Warn("invalid duration env var, using default", "key", key, "value", v, "default", defaultVal)
			return defaultVal
		}
		return d
	}
	return defaultVal
}

// envOrDefaultList splits a comma-separated value, dropping blank items.
func envOrDefaultList(key string, defaultVal []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}

func envOrDefaultInts(key string, defaultVal []int) []int {
	items := envOrDefaultList(key, nil)
	if items == nil {
		return defaultVal
	}
	out := make([]int, 0, len(items))
	for _, item := range items {
		n, err := strconv.Atoi(item)
		if err != nil {
			slog.Warn("invalid integer list env var, using default", "key", key, "value", os.Getenv(key), "default", defaultVal)
			return defaultVal
		}
		out = append(out, n)
	}
	return out
}
