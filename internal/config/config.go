// Package config provides environment configuration and logging setup.
package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Provider identifies an LLM backend.
type Provider string

const (
	ProviderAnthropic Provider = "anthropic"
	ProviderOpenAI    Provider = "openai"
	ProviderOllama    Provider = "ollama"
)

// Store backends.
const (
	StoreSurreal = "surreal"
	StoreMemory  = "memory"
)

// Config holds all configuration values.
type Config struct {
	// Conversation store
	StoreBackend       string
	SurrealDBURL       string
	SurrealDBNamespace string
	SurrealDBDatabase  string
	SurrealDBUser      string
	SurrealDBPass      string
	SurrealDBAuthLevel string

	// LLM gateway
	LLMProvider     Provider
	DefaultModel    string
	AnthropicAPIKey string
	OpenAIAPIKey    string
	OllamaHost      string
	LLMTimeout      time.Duration

	// Context assembly
	ContextBudget int

	// Turn pacing and store visibility retries
	SendInterval  time.Duration
	FetchRetries  int
	FetchBackoff  time.Duration

	// Code review collection
	ReviewDirs []string

	// Persisted user settings (last model choice)
	SettingsFile string

	// Logging
	LogFile  string
	LogLevel slog.Level
}

// Load reads configuration from environment variables.
func Load() Config {
	return Config{
		// Store
		StoreBackend:       getEnv("CHATMEM_STORE", StoreSurreal),
		SurrealDBURL:       getEnv("SURREALDB_URL", "ws://localhost:8000/rpc"),
		SurrealDBNamespace: getEnv("SURREALDB_NAMESPACE", "chatmem"),
		SurrealDBDatabase:  getEnv("SURREALDB_DATABASE", "conversations"),
		SurrealDBUser:      getEnv("SURREALDB_USER", "root"),
		SurrealDBPass:      getEnv("SURREALDB_PASS", "root"),
		SurrealDBAuthLevel: getEnv("SURREALDB_AUTH_LEVEL", "root"),

		// LLM
		LLMProvider:     Provider(getEnv("CHATMEM_LLM_PROVIDER", string(ProviderAnthropic))),
		DefaultModel:    getEnv("CHATMEM_MODEL", "claude-3-5-sonnet-20241022"),
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		OllamaHost:      getEnv("OLLAMA_HOST", "http://localhost:11434"),
		LLMTimeout:      getDuration("CHATMEM_LLM_TIMEOUT", 90*time.Second),

		// Context assembly
		ContextBudget: getInt("CHATMEM_CONTEXT_BUDGET", 2048),

		// Pacing / retries
		SendInterval: getDuration("CHATMEM_SEND_INTERVAL", 2*time.Second),
		FetchRetries: getInt("CHATMEM_FETCH_RETRIES", 3),
		FetchBackoff: getDuration("CHATMEM_FETCH_BACKOFF", 200*time.Millisecond),

		// Review
		ReviewDirs: splitList(getEnv("CHATMEM_REVIEW_DIRS", "")),

		// Settings
		SettingsFile: getEnv("CHATMEM_SETTINGS_FILE", defaultSettingsFile()),

		// Logging
		LogFile:  getEnv("CHATMEM_LOG_FILE", "/tmp/chatmem.log"),
		LogLevel: parseLogLevel(getEnv("CHATMEM_LOG_LEVEL", "INFO")),
	}
}

func defaultSettingsFile() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "chatmem", "settings.yaml")
	}
	return filepath.Join(os.TempDir(), "chatmem-settings.yaml")
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

func splitList(val string) []string {
	if val == "" {
		return nil
	}
	parts := strings.Split(val, string(os.PathListSeparator))
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
