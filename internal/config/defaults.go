package config

import "time"

// Default configuration values.
const (
	DefaultLogLevel        = "info"
	DefaultShutdownTimeout = 5 * time.Second
	DefaultDataPath        = "predictions.parquet"
	DefaultDataFormat      = "auto"
	DefaultAPIListen       = "127.0.0.1:5000"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
)
