// Package config provides configuration management for the scanner.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Scanner   ScannerConfig   `mapstructure:"scanner"`
	Watchlist WatchlistConfig `mapstructure:"watchlist"`
	Binance   BinanceConfig   `mapstructure:"binance"`
	Alpaca    AlpacaConfig    `mapstructure:"alpaca"`
	Log       LogConfig       `mapstructure:"log"`
}

// ScannerConfig holds scan pipeline configuration.
type ScannerConfig struct {
	Workers        int `mapstructure:"workers"`
	WindowSize     int `mapstructure:"window_size"`
	RetryAttempts  int `mapstructure:"retry_attempts"`
	RetryDelayMs   int `mapstructure:"retry_delay_ms"`
	RequestTimeout int `mapstructure:"request_timeout_seconds"`
}

// WatchlistConfig holds per-asset-class watchlist file paths.
type WatchlistConfig struct {
	Stock  string `mapstructure:"stock"`
	Crypto string `mapstructure:"crypto"`
}

// BinanceConfig holds Binance feed configuration.
type BinanceConfig struct {
	BaseURL string `mapstructure:"base_url"`
	UseSpot bool   `mapstructure:"use_spot"`
}

// AlpacaConfig holds Alpaca feed configuration. Credentials come from the
// environment (or a .env file), never from the config file.
type AlpacaConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	DataFeed  string `mapstructure:"data_feed"`
	APIKey    string `mapstructure:"-"`
	APISecret string `mapstructure:"-"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Console    bool   `mapstructure:"console"`
	File       bool   `mapstructure:"file"`
	FilePath   string `mapstructure:"file_path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// RequestTimeoutDuration returns the per-request HTTP timeout.
func (c ScannerConfig) RequestTimeoutDuration() time.Duration {
	if c.RequestTimeout <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.RequestTimeout) * time.Second
}

// RetryDelayDuration returns the initial retry delay.
func (c ScannerConfig) RetryDelayDuration() time.Duration {
	if c.RetryDelayMs <= 0 {
		return 300 * time.Millisecond
	}
	return time.Duration(c.RetryDelayMs) * time.Millisecond
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/strat-scanner"
	}
	return filepath.Join(home, ".config", "strat-scanner")
}

// Load loads configuration from the specified directory. A missing config
// file is not an error: defaults apply. Alpaca credentials are read from
// APCA_API_KEY_ID / APCA_API_SECRET_KEY, with a .env file in the config
// directory or working directory honored when present.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	// .env is optional; environment variables win either way.
	_ = godotenv.Load(filepath.Join(configDir, ".env"))
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	setDefaults(v, configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return nil, fmt.Errorf("reading config.toml: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config.toml: %w", err)
	}

	cfg.Alpaca.APIKey = os.Getenv("APCA_API_KEY_ID")
	cfg.Alpaca.APISecret = os.Getenv("APCA_API_SECRET_KEY")

	return cfg, nil
}

func setDefaults(v *viper.Viper, configDir string) {
	v.SetDefault("scanner.workers", 8)
	v.SetDefault("scanner.window_size", 4)
	v.SetDefault("scanner.retry_attempts", 4)
	v.SetDefault("scanner.retry_delay_ms", 300)
	v.SetDefault("scanner.request_timeout_seconds", 5)

	v.SetDefault("watchlist.stock", filepath.Join(configDir, "stock_watchlist.txt"))
	v.SetDefault("watchlist.crypto", filepath.Join(configDir, "crypto_watchlist.txt"))

	v.SetDefault("binance.base_url", "")
	v.SetDefault("binance.use_spot", false)
	v.SetDefault("alpaca.base_url", "")
	v.SetDefault("alpaca.data_feed", "iex")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.console", true)
	v.SetDefault("log.file", true)
	v.SetDefault("log.file_path", filepath.Join(configDir, "logs", "scanner.log"))
	v.SetDefault("log.max_size_mb", 50)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age_days", 30)
}
