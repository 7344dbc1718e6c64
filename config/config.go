// Package config loads server and CLI settings from defaults, an optional
// YAML file and the environment, in that order of precedence (lowest first).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all application-level configuration
type Config struct {
	// Server
	Port     string `yaml:"port"`
	GinMode  string `yaml:"gin_mode"`
	LogLevel string `yaml:"log_level"`
	DataDir  string `yaml:"data_dir"`
	DevMode  bool   `yaml:"dev_mode"`

	// Generation
	LLMProvider    string  `yaml:"llm_provider"`
	OpenAIAPIKey   string  `yaml:"openai_api_key"`
	OpenAIBaseURL  string  `yaml:"openai_base_url"`
	OpenAIModel    string  `yaml:"openai_model"`
	LLMTemperature float32 `yaml:"llm_temperature"`

	// Fetching and analysis
	FetchMode      string        `yaml:"fetch_mode"`
	FetchTimeout   time.Duration `yaml:"fetch_timeout"`
	AnalyzeTimeout time.Duration `yaml:"analyze_timeout"`
	MaxSnippetLen  int           `yaml:"max_snippet_len"`

	// Report cache
	CacheTTL      time.Duration `yaml:"cache_ttl"`
	CacheSize     int           `yaml:"cache_size"`
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`

	// Scan store
	StoreDriver string `yaml:"store_driver"`
	DatabaseURL string `yaml:"database_url"`
	SQLitePath  string `yaml:"sqlite_path"`

	// Per-IP rate limit
	RateLimit float64 `yaml:"rate_limit"`
	RateBurst float64 `yaml:"rate_burst"`
}

const (
	ProviderOpenAI    = "openai"
	ProviderLangChain = "langchain"

	FetchHTTP    = "http"
	FetchBrowser = "browser"

	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Port:           "8082",
		GinMode:        "release",
		LogLevel:       "info",
		DataDir:        "data",
		LLMProvider:    ProviderOpenAI,
		OpenAIModel:    "gpt-4.1-mini",
		LLMTemperature: 0.2,
		FetchMode:      FetchHTTP,
		FetchTimeout:   15 * time.Second,
		AnalyzeTimeout: 60 * time.Second,
		MaxSnippetLen:  5000,
		CacheTTL:       30 * time.Minute,
		CacheSize:      1000,
		StoreDriver:    DriverSQLite,
		RateLimit:      2,
		RateBurst:      5,
	}
}

// LoadEnv loads .env.development, falling back to .env. Both are optional;
// it reports which file was used, or "" if none.
func LoadEnv() string {
	// Try to load .env.development first (for local development)
	if err := godotenv.Load(".env.development"); err == nil {
		return ".env.development"
	}
	if err := godotenv.Load(); err == nil {
		return ".env"
	}
	return ""
}

// Load builds the configuration from defaults, the YAML file at path (if
// path is not empty) and environment overrides, then validates it.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	var errs []error
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	parse := func(key string, fn func(string) error) {
		if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
			if err := fn(strings.TrimSpace(v)); err != nil {
				errs = append(errs, fmt.Errorf("invalid %s: %w", key, err))
			}
		}
	}
	duration := func(key string, dst *time.Duration) {
		parse(key, func(v string) (err error) {
			*dst, err = time.ParseDuration(v)
			return err
		})
	}
	integer := func(key string, dst *int) {
		parse(key, func(v string) (err error) {
			*dst, err = strconv.Atoi(v)
			return err
		})
	}
	float := func(key string, dst *float64) {
		parse(key, func(v string) (err error) {
			*dst, err = strconv.ParseFloat(v, 64)
			return err
		})
	}

	str("PORT", &c.Port)
	str("GIN_MODE", &c.GinMode)
	str("LOG_LEVEL", &c.LogLevel)
	str("DATA_DIR", &c.DataDir)
	parse("DEV_MODE", func(v string) (err error) {
		c.DevMode, err = strconv.ParseBool(v)
		return err
	})

	str("LLM_PROVIDER", &c.LLMProvider)
	str("OPENAI_API_KEY", &c.OpenAIAPIKey)
	str("OPENAI_BASE_URL", &c.OpenAIBaseURL)
	str("OPENAI_MODEL", &c.OpenAIModel)
	parse("LLM_TEMPERATURE", func(v string) error {
		t, err := strconv.ParseFloat(v, 32)
		c.LLMTemperature = float32(t)
		return err
	})

	str("FETCH_MODE", &c.FetchMode)
	duration("FETCH_TIMEOUT", &c.FetchTimeout)
	duration("ANALYZE_TIMEOUT", &c.AnalyzeTimeout)
	integer("MAX_SNIPPET_LEN", &c.MaxSnippetLen)

	duration("CACHE_TTL", &c.CacheTTL)
	integer("CACHE_SIZE", &c.CacheSize)
	str("REDIS_ADDR", &c.RedisAddr)
	str("REDIS_PASSWORD", &c.RedisPassword)
	integer("REDIS_DB", &c.RedisDB)

	str("STORE_DRIVER", &c.StoreDriver)
	str("DATABASE_URL", &c.DatabaseURL)
	str("SQLITE_PATH", &c.SQLitePath)

	float("RATE_LIMIT", &c.RateLimit)
	float("RATE_BURST", &c.RateBurst)

	return errors.Join(errs...)
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	var errs []error
	switch c.LLMProvider {
	case ProviderOpenAI, ProviderLangChain:
	default:
		errs = append(errs, fmt.Errorf("unknown llm provider %q", c.LLMProvider))
	}
	switch c.FetchMode {
	case FetchHTTP, FetchBrowser:
	default:
		errs = append(errs, fmt.Errorf("unknown fetch mode %q", c.FetchMode))
	}
	switch c.StoreDriver {
	case DriverSQLite:
	case DriverPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("postgres store requires DATABASE_URL"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store driver %q", c.StoreDriver))
	}
	if _, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Errorf("invalid port %q", c.Port))
	}
	if c.FetchTimeout <= 0 {
		errs = append(errs, errors.New("fetch timeout must be positive"))
	}
	if c.AnalyzeTimeout < 0 {
		errs = append(errs, errors.New("analyze timeout must not be negative"))
	}
	if c.MaxSnippetLen <= 0 {
		errs = append(errs, errors.New("max snippet length must be positive"))
	}
	if c.RateLimit <= 0 || c.RateBurst < 1 {
		errs = append(errs, errors.New("rate limit must be positive with a burst of at least 1"))
	}
	return errors.Join(errs...)
}

// SQLiteFile is the SQLite database path, defaulting into the data dir.
func (c *Config) SQLiteFile() string {
	if c.SQLitePath != "" {
		return c.SQLitePath
	}
	return filepath.Join(c.DataDir, "ariclear.db")
}
