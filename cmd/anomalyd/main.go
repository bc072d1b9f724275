// anomalyd serves the anomalous rows of a scored prediction table over HTTP.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anomalyd/anomalyd/internal/api"
	"github.com/anomalyd/anomalyd/internal/config"
	"github.com/anomalyd/anomalyd/internal/logging"
	"github.com/anomalyd/anomalyd/internal/metrics"
	"github.com/anomalyd/anomalyd/internal/predictions"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	configPath := flag.String("config", "", "path to configuration file (defaults apply when empty)")
	dataPath := flag.String("data", "", "override data.path from the config file")
	listen := flag.String("listen", "", "override api.listen from the config file")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version)
		return
	}

	cfg, err := loadConfig(*configPath, *dataPath, *listen)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		os.Exit(1)
	}

	logger, closeLog, err := logging.SetupWithFile(cfg.Server.LogLevel, os.Stdout, cfg.Server.LogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	logger.Info("anomalyd starting",
		"version", version,
		"config", *configPath,
		"data", cfg.Data.Path,
		"format", cfg.Data.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The table is loaded exactly once; nothing is served until it is in memory.
	table, err := loadTable(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to load prediction table", "path", cfg.Data.Path, "error", err)
		closeLog()
		os.Exit(1)
	}

	metrics.ServerInfo.WithLabelValues(version).Set(1)
	metrics.ServerStartTime.Set(float64(time.Now().Unix()))

	apiServer := api.NewServer(cfg, table, logger, api.WithVersion(version))
	ln, err := apiServer.Listen()
	if err != nil {
		logger.Error("failed to start API server", "error", err)
		closeLog()
		os.Exit(1)
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- apiServer.Serve(ln)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig.String())
	case err := <-serveErr:
		if err != nil {
			logger.Error("API server stopped", "error", err)
			closeLog()
			os.Exit(1)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.GetShutdownTimeout())
	defer shutdownCancel()
	if err := apiServer.Stop(shutdownCtx); err != nil {
		logger.Warn("API server shutdown incomplete", "error", err)
	}

	logger.Info("anomalyd stopped")
}

// loadConfig reads the TOML file when one is given and applies flag overrides.
func loadConfig(path, dataPath, listen string) (*config.Config, error) {
	var cfg *config.Config
	if path == "" {
		cfg = config.Default()
	} else {
		c, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = c
	}

	if dataPath != "" {
		cfg.Data.Path = dataPath
	}
	if listen != "" {
		cfg.API.Listen = listen
	}
	return cfg, nil
}

// loadTable reads the configured prediction table and publishes its size metrics.
func loadTable(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*predictions.Table, error) {
	start := time.Now()
	table, err := predictions.Load(ctx, cfg.Data.Path, cfg.Data.LoadOptions())
	if err != nil {
		return nil, err
	}
	elapsed := time.Since(start)

	if !table.HasColumn(predictions.PredictionColumn) {
		logger.Warn("prediction table has no prediction column; no rows will be reported",
			"path", cfg.Data.Path,
			"columns", table.Columns())
	}

	anomalies := table.CountAnomalies()
	metrics.TableRows.Set(float64(table.Len()))
	metrics.TableAnomalies.Set(float64(anomalies))
	metrics.TableLoadDuration.Set(elapsed.Seconds())

	logger.Info("prediction table loaded",
		"path", cfg.Data.Path,
		"rows", table.Len(),
		"columns", len(table.Columns()),
		"anomalies", anomalies,
		"duration", elapsed.String())

	return table, nil
}
