// Package config handles TOML configuration parsing and validation for anomalyd.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/anomalyd/anomalyd/internal/predictions"
)

// Config is the top-level configuration for anomalyd.
type Config struct {
	Server ServerConfig `toml:"server"`
	Data   DataConfig   `toml:"data"`
	API    APIConfig    `toml:"api"`
}

// ServerConfig holds process-level settings.
type ServerConfig struct {
	LogLevel        string `toml:"log_level"`
	LogFile         string `toml:"log_file"`
	ShutdownTimeout string `toml:"shutdown_timeout"`
}

// DataConfig describes the prediction table loaded at startup.
type DataConfig struct {
	Path                    string `toml:"path"`
	Format                  string `toml:"format"`
	SQLiteTable             string `toml:"sqlite_table"`
	RequirePredictionColumn bool   `toml:"require_prediction_column"`
}

// APIConfig holds HTTP listener settings.
type APIConfig struct {
	Listen         string `toml:"listen"`
	ReadTimeout    string `toml:"read_timeout"`
	WriteTimeout   string `toml:"write_timeout"`
	IdleTimeout    string `toml:"idle_timeout"`
	DisableMetrics bool   `toml:"disable_metrics"`
}

// Load reads, defaults and validates the TOML file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	cfg := &Config{}
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("parsing config file %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}

	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// applyDefaults fills in default values for unset fields.
func applyDefaults(cfg *Config) {
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = DefaultLogLevel
	}
	if cfg.Server.ShutdownTimeout == "" {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout.String()
	}

	if cfg.Data.Path == "" {
		cfg.Data.Path = DefaultDataPath
	}
	if cfg.Data.Format == "" {
		cfg.Data.Format = DefaultDataFormat
	}
	if cfg.Data.SQLiteTable == "" {
		cfg.Data.SQLiteTable = predictions.DefaultSQLiteTable
	}

	if cfg.API.Listen == "" {
		cfg.API.Listen = DefaultAPIListen
	}
	if cfg.API.ReadTimeout == "" {
		cfg.API.ReadTimeout = DefaultReadTimeout.String()
	}
	if cfg.API.WriteTimeout == "" {
		cfg.API.WriteTimeout = DefaultWriteTimeout.String()
	}
	if cfg.API.IdleTimeout == "" {
		cfg.API.IdleTimeout = DefaultIdleTimeout.String()
	}
}

// validate checks the configuration for errors.
func validate(cfg *Config) error {
	switch strings.ToLower(cfg.Server.LogLevel) {
	case "trace", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("server.log_level %q is not one of debug, info, warn, error", cfg.Server.LogLevel)
	}
	if _, err := time.ParseDuration(cfg.Server.ShutdownTimeout); err != nil {
		return fmt.Errorf("server.shutdown_timeout: %w", err)
	}

	if _, err := predictions.ParseFormat(cfg.Data.Format); err != nil {
		return fmt.Errorf("data.format: %w", err)
	}

	if cfg.API.Listen == "" {
		return fmt.Errorf("api.listen is required")
	}
	for name, v := range map[string]string{
		"api.read_timeout":  cfg.API.ReadTimeout,
		"api.write_timeout": cfg.API.WriteTimeout,
		"api.idle_timeout":  cfg.API.IdleTimeout,
	} {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		if d < 0 {
			return fmt.Errorf("%s must not be negative", name)
		}
	}

	return nil
}

// LoadOptions maps the data section onto table loader options.
func (d DataConfig) LoadOptions() predictions.LoadOptions {
	format, _ := predictions.ParseFormat(d.Format)
	return predictions.LoadOptions{
		Format:            format,
		SQLiteTable:       d.SQLiteTable,
		RequirePrediction: d.RequirePredictionColumn,
	}
}

// GetShutdownTimeout returns the graceful shutdown deadline.
func (s ServerConfig) GetShutdownTimeout() time.Duration {
	return durationOr(s.ShutdownTimeout, DefaultShutdownTimeout)
}

// GetReadTimeout returns the HTTP read timeout.
func (a APIConfig) GetReadTimeout() time.Duration {
	return durationOr(a.ReadTimeout, DefaultReadTimeout)
}

// GetWriteTimeout returns the HTTP write timeout.
func (a APIConfig) GetWriteTimeout() time.Duration {
	return durationOr(a.WriteTimeout, DefaultWriteTimeout)
}

// GetIdleTimeout returns the HTTP keep-alive idle timeout.
func (a APIConfig) GetIdleTimeout() time.Duration {
	return durationOr(a.IdleTimeout, DefaultIdleTimeout)
}

func durationOr(s string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	return def
}
