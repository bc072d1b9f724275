package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/anomalyd/anomalyd/internal/predictions"
)

func writeTestConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "test.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const fullConfig = `
[server]
log_level = "debug"
log_file = "/var/log/anomalyd.json"
shutdown_timeout = "10s"

[data]
path = "/srv/predictions.sqlite"
format = "sqlite"
sqlite_table = "scored_hosts"
require_prediction_column = true

[api]
listen = "0.0.0.0:8080"
read_timeout = "5s"
write_timeout = "15s"
idle_timeout = "1m"
disable_metrics = true
`

func TestLoadFullConfig(t *testing.T) {
	path := writeTestConfig(t, fullConfig)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.Server.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want %q", cfg.Server.LogLevel, "debug")
	}
	if cfg.Server.LogFile != "/var/log/anomalyd.json" {
		t.Errorf("LogFile = %q", cfg.Server.LogFile)
	}
	if cfg.Data.Path != "/srv/predictions.sqlite" {
		t.Errorf("Data.Path = %q", cfg.Data.Path)
	}
	if cfg.API.Listen != "0.0.0.0:8080" {
		t.Errorf("Listen = %q, want %q", cfg.API.Listen, "0.0.0.0:8080")
	}
	if !cfg.API.DisableMetrics {
		t.Error("DisableMetrics = false, want true")
	}
	if got := cfg.Server.GetShutdownTimeout(); got != 10*time.Second {
		t.Errorf("GetShutdownTimeout() = %v, want 10s", got)
	}
	if got := cfg.API.GetIdleTimeout(); got != time.Minute {
		t.Errorf("GetIdleTimeout() = %v, want 1m", got)
	}

	opts := cfg.Data.LoadOptions()
	if opts.Format != predictions.FormatSQLite {
		t.Errorf("LoadOptions().Format = %q, want sqlite", opts.Format)
	}
	if opts.SQLiteTable != "scored_hosts" {
		t.Errorf("LoadOptions().SQLiteTable = %q", opts.SQLiteTable)
	}
	if !opts.RequirePrediction {
		t.Error("LoadOptions().RequirePrediction = false, want true")
	}
}

func TestLoadEmptyConfigAppliesDefaults(t *testing.T) {
	path := writeTestConfig(t, "")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Data.Path != DefaultDataPath {
		t.Errorf("Data.Path = %q, want %q", cfg.Data.Path, DefaultDataPath)
	}
	if cfg.API.Listen != DefaultAPIListen {
		t.Errorf("Listen = %q, want %q", cfg.API.Listen, DefaultAPIListen)
	}
}

func TestLoadConfigFileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/path.toml")
	if err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestLoadConfigInvalidTOML(t *testing.T) {
	path := writeTestConfig(t, "this is not valid toml {{{{")
	_, err := Load(path)
	if err == nil {
		t.Error("expected error for invalid TOML")
	}
}

func TestLoadConfigUnknownKey(t *testing.T) {
	path := writeTestConfig(t, "[data]\npth = \"typo.csv\"\n")
	_, err := Load(path)
	if err == nil {
		t.Error("expected error for unknown key")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := map[string]string{
		"log level":        "[server]\nlog_level = \"loud\"\n",
		"shutdown timeout": "[server]\nshutdown_timeout = \"soon\"\n",
		"format":           "[data]\nformat = \"pickle\"\n",
		"read timeout":     "[api]\nread_timeout = \"-1s\"\n",
		"idle timeout":     "[api]\nidle_timeout = \"forever\"\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeTestConfig(t, content)); err == nil {
				t.Errorf("expected validation error for %s", name)
			}
		})
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Server.LogLevel != DefaultLogLevel {
		t.Errorf("LogLevel = %q, want %q", cfg.Server.LogLevel, DefaultLogLevel)
	}
	if cfg.Data.Format != DefaultDataFormat {
		t.Errorf("Format = %q, want %q", cfg.Data.Format, DefaultDataFormat)
	}
	if cfg.Data.SQLiteTable != predictions.DefaultSQLiteTable {
		t.Errorf("SQLiteTable = %q", cfg.Data.SQLiteTable)
	}
	if got := cfg.API.GetReadTimeout(); got != DefaultReadTimeout {
		t.Errorf("GetReadTimeout() = %v, want %v", got, DefaultReadTimeout)
	}
	if got := cfg.API.GetWriteTimeout(); got != DefaultWriteTimeout {
		t.Errorf("GetWriteTimeout() = %v, want %v", got, DefaultWriteTimeout)
	}
	if got := cfg.Data.LoadOptions().Format; got != predictions.FormatAuto {
		t.Errorf("LoadOptions().Format = %q, want auto", got)
	}
	if err := validate(cfg); err != nil {
		t.Errorf("default config does not validate: %v", err)
	}
}

func TestDurationFallback(t *testing.T) {
	api := APIConfig{ReadTimeout: "garbage"}
	if got := api.GetReadTimeout(); got != DefaultReadTimeout {
		t.Errorf("GetReadTimeout() = %v, want default %v", got, DefaultReadTimeout)
	}
}
