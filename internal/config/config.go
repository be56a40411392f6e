// Package config loads application configuration from the environment,
// an optional .env file and an optional config file, in that precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	// Server
	Port        int
	LogLevel    string
	CORSOrigins []string

	// External services
	AgentAPIURL       string // LLM gateway; empty selects the offline classifier and extractors
	PriceSearchURL    string
	PriceSearchAPIKey string

	// HTTP client
	HTTPTimeout time.Duration
	CallTimeout time.Duration // per external call made by a flow node

	// Resilience
	MaxRetries     int
	InitialBackoff time.Duration
	MaxConcurrency int

	// Cache
	CacheTTL time.Duration

	// Conversation
	HistoryWindow int

	// Observability
	OTLPEndpoint string

	// Storage
	DatabaseURL        string
	SupabaseURL        string
	SupabaseAnonKey    string
	SupabaseServiceKey string
	UseSupabase        bool

	// Telegram
	TelegramBotToken string
}

// Defaults applied before any source is read.
var defaults = map[string]any{
	"PORT":                        8080,
	"LOG_LEVEL":                   "info",
	"CORS_ORIGINS":                "*",
	"AGENT_API_URL":               "",
	"PRICE_SEARCH_URL":            "https://api.tavily.com",
	"PRICE_SEARCH_API_KEY":        "",
	"HTTP_TIMEOUT":                "10s",
	"CALL_TIMEOUT":                "20s",
	"MAX_RETRIES":                 3,
	"INITIAL_BACKOFF":             "100ms",
	"MAX_CONCURRENCY":             50,
	"CACHE_TTL":                   "5m",
	"HISTORY_WINDOW":              10,
	"OTEL_EXPORTER_OTLP_ENDPOINT": "",
	"DATABASE_URL":                "",
	"SUPABASE_URL":                "",
	"SUPABASE_ANON_KEY":           "",
	"SUPABASE_SERVICE_ROLE_KEY":   "",
	"USE_SUPABASE":                false,
	"TELEGRAM_BOT_TOKEN":          "",
}

// Load reads .env (if present) and then the environment. It never fails on a
// missing .env file.
func Load() (*Config, error) {
	return LoadFrom(viper.New(), "")
}

// LoadFrom fills v from dotenv, environment and the optional configFile, and
// decodes the result. Keys are the environment variable names; config files
// use the same names in lower or upper case.
func LoadFrom(v *viper.Viper, configFile string) (*Config, error) {
	// godotenv never overrides variables already present in the environment.
	_ = godotenv.Load()

	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config %s: %w", configFile, err)
			}
		}
	}

	cfg := &Config{
		Port:        v.GetInt("PORT"),
		LogLevel:    strings.ToLower(v.GetString("LOG_LEVEL")),
		CORSOrigins: splitList(v.GetString("CORS_ORIGINS")),

		AgentAPIURL:       strings.TrimRight(v.GetString("AGENT_API_URL"), "/"),
		PriceSearchURL:    strings.TrimRight(v.GetString("PRICE_SEARCH_URL"), "/"),
		PriceSearchAPIKey: v.GetString("PRICE_SEARCH_API_KEY"),

		HTTPTimeout: v.GetDuration("HTTP_TIMEOUT"),
		CallTimeout: v.GetDuration("CALL_TIMEOUT"),

		MaxRetries:     v.GetInt("MAX_RETRIES"),
		InitialBackoff: v.GetDuration("INITIAL_BACKOFF"),
		MaxConcurrency: v.GetInt("MAX_CONCURRENCY"),

		CacheTTL: v.GetDuration("CACHE_TTL"),

		HistoryWindow: v.GetInt("HISTORY_WINDOW"),

		OTLPEndpoint: v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),

		DatabaseURL:        v.GetString("DATABASE_URL"),
		SupabaseURL:        v.GetString("SUPABASE_URL"),
		SupabaseAnonKey:    v.GetString("SUPABASE_ANON_KEY"),
		SupabaseServiceKey: v.GetString("SUPABASE_SERVICE_ROLE_KEY"),
		UseSupabase:        v.GetBool("USE_SUPABASE"),

		TelegramBotToken: v.GetString("TELEGRAM_BOT_TOKEN"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.Port <= 0 || c.Port > 65535:
		return fmt.Errorf("config: PORT out of range: %d", c.Port)
	case c.MaxConcurrency <= 0:
		return fmt.Errorf("config: MAX_CONCURRENCY must be > 0")
	case c.MaxRetries < 0:
		return fmt.Errorf("config: MAX_RETRIES must be >= 0")
	case c.InitialBackoff <= 0:
		return fmt.Errorf("config: INITIAL_BACKOFF must be > 0")
	case c.HistoryWindow <= 0:
		return fmt.Errorf("config: HISTORY_WINDOW must be > 0")
	case c.CacheTTL <= 0:
		return fmt.Errorf("config: CACHE_TTL must be > 0")
	}
	return nil
}

// SupabaseEnabled reports whether the Supabase backend is selected and usable.
func (c *Config) SupabaseEnabled() bool {
	return c.UseSupabase && c.SupabaseURL != "" && c.SupabaseServiceKey != ""
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
