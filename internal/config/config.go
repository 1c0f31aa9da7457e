// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/pracownik123GWW/CbosaEmailSender/internal/cbosa"
)

// Config captures all configuration knobs loaded via Viper.
type Config struct {
	Portal    PortalConfig    `mapstructure:"portal"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Retrieval RetrievalConfig `mapstructure:"retrieval"`
	OpenAI    OpenAIConfig    `mapstructure:"openai"`
	DB        DBConfig        `mapstructure:"db"`
	Server    ServerConfig    `mapstructure:"server"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// PortalConfig points at the CBOSA portal endpoints.
type PortalConfig struct {
	BaseURL    string `mapstructure:"base_url"`
	QueryPath  string `mapstructure:"query_path"`
	SearchPath string `mapstructure:"search_path"`
	UserAgent  string `mapstructure:"user_agent"`
}

// HTTPConfig tunes the resilient HTTP layer.
type HTTPConfig struct {
	DelayMs          int     `mapstructure:"delay_ms"`
	PageTimeoutSec   int     `mapstructure:"page_timeout_seconds"`
	DocTimeoutSec    int     `mapstructure:"doc_timeout_seconds"`
	PageRetries      int     `mapstructure:"page_retries"`
	DocRetries       int     `mapstructure:"doc_retries"`
	PageBackoff      float64 `mapstructure:"page_backoff"`
	DocBackoff       float64 `mapstructure:"doc_backoff"`
	JitterMs         int     `mapstructure:"jitter_ms"`
	RateLimitExtraMs int     `mapstructure:"rate_limit_extra_ms"`
}

// RetrievalConfig governs a retrieval run.
type RetrievalConfig struct {
	MaxResults           int    `mapstructure:"max_results"`
	MaxPages             int    `mapstructure:"max_pages"`
	MaxConsecutiveErrors int    `mapstructure:"max_consecutive_errors"`
	OutputDir            string `mapstructure:"output_dir"`
}

// OpenAIConfig configures the judgment analyzer. Analysis is skipped when
// the API key is empty.
type OpenAIConfig struct {
	APIKey              string `mapstructure:"api_key"`
	Model               string `mapstructure:"model"`
	MaxCompletionTokens int    `mapstructure:"max_completion_tokens"`
}

// DBConfig controls access to the relational database. Persistence is
// skipped when the DSN is empty.
type DBConfig struct {
	DSN      string `mapstructure:"dsn"`
	MaxConns int32  `mapstructure:"max_conns"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// LoggingConfig toggles zap development features and file output.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	File        string `mapstructure:"file"`
	MaxSizeMB   int    `mapstructure:"max_size_mb"`
	MaxBackups  int    `mapstructure:"max_backups"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("CBOSA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	def := cbosa.DefaultConfig()
	v.SetDefault("portal.base_url", def.BaseURL)
	v.SetDefault("portal.query_path", def.QueryPath)
	v.SetDefault("portal.search_path", def.SearchPath)
	v.SetDefault("portal.user_agent", def.UserAgent)

	v.SetDefault("http.delay_ms", 1000)
	v.SetDefault("http.page_timeout_seconds", 30)
	v.SetDefault("http.doc_timeout_seconds", 45)
	v.SetDefault("http.page_retries", 4)
	v.SetDefault("http.doc_retries", 5)
	v.SetDefault("http.page_backoff", 1.6)
	v.SetDefault("http.doc_backoff", 1.8)
	v.SetDefault("http.jitter_ms", 400)
	v.SetDefault("http.rate_limit_extra_ms", 1500)

	v.SetDefault("retrieval.max_results", 50)
	v.SetDefault("retrieval.max_pages", 20)
	v.SetDefault("retrieval.max_consecutive_errors", 3)
	v.SetDefault("retrieval.output_dir", "./out")

	v.SetDefault("openai.model", "gpt-5-nano")
	v.SetDefault("openai.max_completion_tokens", 2000)

	v.SetDefault("db.max_conns", 4)
	v.SetDefault("server.port", 8080)
	v.SetDefault("logging.development", false)
}

// Validate rejects configurations that cannot work.
func (c Config) Validate() error {
	if c.Portal.BaseURL == "" {
		return fmt.Errorf("portal.base_url is required")
	}
	if !strings.HasPrefix(c.Portal.BaseURL, "http://") && !strings.HasPrefix(c.Portal.BaseURL, "https://") {
		return fmt.Errorf("portal.base_url must be an http(s) URL, got %q", c.Portal.BaseURL)
	}
	if c.Retrieval.MaxResults <= 0 {
		return fmt.Errorf("retrieval.max_results must be positive")
	}
	if c.Retrieval.MaxPages <= 0 {
		return fmt.Errorf("retrieval.max_pages must be positive")
	}
	if c.HTTP.PageRetries <= 0 || c.HTTP.DocRetries <= 0 {
		return fmt.Errorf("http retry counts must be positive")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	return nil
}

// EngineConfig translates the loaded configuration into the retrieval
// engine's immutable Config.
func (c Config) EngineConfig() cbosa.Config {
	return cbosa.Config{
		BaseURL:         c.Portal.BaseURL,
		QueryPath:       c.Portal.QueryPath,
		SearchPath:      c.Portal.SearchPath,
		UserAgent:       c.Portal.UserAgent,
		Delay:           time.Duration(c.HTTP.DelayMs) * time.Millisecond,
		PageTimeout:     time.Duration(c.HTTP.PageTimeoutSec) * time.Second,
		DocumentTimeout: time.Duration(c.HTTP.DocTimeoutSec) * time.Second,
		PageRetry: cbosa.RetryPolicy{
			Attempts:         c.HTTP.PageRetries,
			Backoff:          c.HTTP.PageBackoff,
			JitterMax:        time.Duration(c.HTTP.JitterMs) * time.Millisecond,
			RateLimitPenalty: time.Duration(c.HTTP.RateLimitExtraMs) * time.Millisecond,
		},
		DocumentRetry: cbosa.RetryPolicy{
			Attempts:         c.HTTP.DocRetries,
			Backoff:          c.HTTP.DocBackoff,
			JitterMax:        time.Duration(c.HTTP.JitterMs) * time.Millisecond,
			RateLimitPenalty: time.Duration(c.HTTP.RateLimitExtraMs) * time.Millisecond,
		},
		MaxPages:             c.Retrieval.MaxPages,
		MaxConsecutiveErrors: c.Retrieval.MaxConsecutiveErrors,
	}
}
