// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Artifacts ArtifactsConfig `yaml:"artifacts"`
	Bench     BenchConfig     `yaml:"bench"`
	History   HistoryConfig   `yaml:"history"`
}

type ServerConfig struct {
	Port     int    `yaml:"port" default:"8080"`
	LogLevel string `yaml:"log_level" default:"info"`
	// MaxUploadBytes caps multipart uploads before the pipeline runs.
	MaxUploadBytes int64 `yaml:"max_upload_bytes" default:"52428800"`
	// BenchmarkRPS throttles the benchmark endpoints per client.
	BenchmarkRPS   float64 `yaml:"benchmark_rps" default:"1"`
	BenchmarkBurst int     `yaml:"benchmark_burst" default:"2"`
}

type ArtifactsConfig struct {
	// Dir holds manifest.json plus the gzipped model artifacts.
	Dir string `yaml:"dir" default:"./saved_models"`
}

type BenchConfig struct {
	// OutputDir receives per-request compressed outputs.
	OutputDir   string        `yaml:"output_dir" default:"./compressed"`
	ToolTimeout time.Duration `yaml:"tool_timeout" default:"60s"`
}

type HistoryConfig struct {
	// Disabled turns off run recording. The zero value keeps it on.
	Disabled bool   `yaml:"disabled"`
	Path     string `yaml:"path" default:"./minerva_history.db"`
}

// Default returns a Config with every field at its documented default.
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills zero-valued fields with their defaults.
func (c *Config) ApplyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}
	if c.Server.MaxUploadBytes == 0 {
		c.Server.MaxUploadBytes = 50 * 1024 * 1024
	}
	if c.Server.BenchmarkRPS == 0 {
		c.Server.BenchmarkRPS = 1
	}
	if c.Server.BenchmarkBurst == 0 {
		c.Server.BenchmarkBurst = 2
	}
	if c.Artifacts.Dir == "" {
		c.Artifacts.Dir = "./saved_models"
	}
	if c.Bench.OutputDir == "" {
		c.Bench.OutputDir = "./compressed"
	}
	if c.Bench.ToolTimeout == 0 {
		c.Bench.ToolTimeout = 60 * time.Second
	}
	if c.History.Path == "" {
		c.History.Path = "./minerva_history.db"
	}
}

// Load reads a YAML config file, applies defaults and env overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	cfg.ApplyDefaults()
	LoadFromEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server port %d out of range", c.Server.Port)
	}
	if c.Server.MaxUploadBytes < 1 {
		return fmt.Errorf("config: max_upload_bytes must be positive")
	}
	if c.Bench.ToolTimeout < time.Second {
		return fmt.Errorf("config: tool_timeout %s too small", c.Bench.ToolTimeout)
	}
	return nil
}
