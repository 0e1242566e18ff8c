package config

import (
	"os"
	"strconv"
	"time"
)

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv(cfg *Config) {
	if port := os.Getenv("MINERVA_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}

	if logLevel := os.Getenv("MINERVA_LOG_LEVEL"); logLevel != "" {
		cfg.Server.LogLevel = logLevel
	}

	if dir := os.Getenv("MINERVA_ARTIFACTS_DIR"); dir != "" {
		cfg.Artifacts.Dir = dir
	}

	if dir := os.Getenv("MINERVA_OUTPUT_DIR"); dir != "" {
		cfg.Bench.OutputDir = dir
	}

	if timeout := os.Getenv("MINERVA_TOOL_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			cfg.Bench.ToolTimeout = d
		}
	}

	if path := os.Getenv("MINERVA_HISTORY_PATH"); path != "" {
		cfg.History.Path = path
	}

	if disabled := os.Getenv("MINERVA_HISTORY_DISABLED"); disabled != "" {
		if b, err := strconv.ParseBool(disabled); err == nil {
			cfg.History.Disabled = b
		}
	}

	if limit := os.Getenv("MINERVA_MAX_UPLOAD_BYTES"); limit != "" {
		if n, err := strconv.ParseInt(limit, 10, 64); err == nil {
			cfg.Server.MaxUploadBytes = n
		}
	}
}
