// Package config provides configuration management for the question pipeline.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Market      MarketConfig `mapstructure:"market"`
	LLM         LLMConfig    `mapstructure:"llm"`
	Server      ServerConfig `mapstructure:"server"`
	Trace       TraceConfig  `mapstructure:"trace"`
	Credentials Credentials  `mapstructure:"-"` // Loaded separately
}

// MarketConfig holds market data retrieval configuration.
type MarketConfig struct {
	BaseURL         string        `mapstructure:"base_url"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	CacheCapacity   int           `mapstructure:"cache_capacity"`
	FetchWorkers    int           `mapstructure:"fetch_workers"`
	DefaultInterval string        `mapstructure:"default_interval"` // 1D, 1W, 1M
}

// LLMConfig holds language model configuration.
type LLMConfig struct {
	Model       string  `mapstructure:"model"`
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
}

// ServerConfig holds the HTTP server configuration.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// TraceConfig controls request trace persistence.
type TraceConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Dir     string `mapstructure:"dir"`
	DBPath  string `mapstructure:"db_path"`
}

// Credentials holds API credentials.
type Credentials struct {
	OpenAI OpenAICredentials `mapstructure:"openai"`
}

// OpenAICredentials holds OpenAI API credentials.
type OpenAICredentials struct {
	APIKey string `mapstructure:"api_key"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/vnquery"
	}
	return filepath.Join(home, ".config", "vnquery")
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	cfg := &Config{}

	// Load main config
	if err := loadConfigFile(configDir, "config", cfg); err != nil {
		return nil, fmt.Errorf("loading config.toml: %w", err)
	}

	// Load credentials
	if err := loadCredentials(configDir, &cfg.Credentials); err != nil {
		return nil, fmt.Errorf("loading credentials.toml: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func loadConfigFile(configDir, name string, target interface{}) error {
	v := viper.New()
	v.SetConfigName(name)
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found, create template
			return createTemplateConfig(configDir, name)
		}
		return err
	}

	return v.Unmarshal(target)
}

func loadCredentials(configDir string, creds *Credentials) error {
	v := viper.New()
	v.SetConfigName("credentials")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Credentials are optional: the OpenAI key may arrive via the
			// environment, and the pipeline degrades gracefully without it.
			return createTemplateCredentials(configDir)
		}
		return err
	}

	return v.Unmarshal(creds)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.Credentials.OpenAI.APIKey = v
	}
	if v := os.Getenv("VNQUERY_LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("VNQUERY_SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("VNQUERY_MARKET_BASE_URL"); v != "" {
		cfg.Market.BaseURL = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "gpt-4o-mini"
	}
	if cfg.Market.RequestTimeout == 0 {
		cfg.Market.RequestTimeout = 30 * time.Second
	}
	if cfg.Market.CacheCapacity == 0 {
		cfg.Market.CacheCapacity = 128
	}
	if cfg.Market.FetchWorkers == 0 {
		cfg.Market.FetchWorkers = 5
	}
	if cfg.Market.DefaultInterval == "" {
		cfg.Market.DefaultInterval = "1D"
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8388"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		// Answering involves two LLM round-trips plus data retrieval.
		cfg.Server.WriteTimeout = 2 * time.Minute
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}
	if cfg.Trace.Dir == "" {
		cfg.Trace.Dir = filepath.Join(DefaultConfigDir(), "traces")
	}
	if cfg.Trace.DBPath == "" {
		cfg.Trace.DBPath = filepath.Join(DefaultConfigDir(), "traces.db")
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	switch c.Market.DefaultInterval {
	case "1D", "1W", "1M":
	default:
		return fmt.Errorf("invalid default_interval: %s (must be 1D, 1W or 1M)", c.Market.DefaultInterval)
	}

	if c.Market.CacheCapacity < 1 {
		return fmt.Errorf("cache_capacity must be positive")
	}
	if c.Market.FetchWorkers < 1 {
		return fmt.Errorf("fetch_workers must be positive")
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("temperature must be between 0 and 2")
	}
	if c.LLM.MaxTokens < 0 {
		return fmt.Errorf("max_tokens must be non-negative")
	}

	return nil
}

// LLMReady reports whether an OpenAI key is available.
func (c *Config) LLMReady() bool {
	return c.Credentials.OpenAI.APIKey != ""
}
