// Package server implements the thin HTTP serving layer over the engine:
// shared-token authentication, query parsing, shard dispatch and JSON
// responses. All indexing and search semantics live in pkg/matchbox.
package server

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the server configuration, loaded from YAML with environment
// variable overrides.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Engine  EngineConfig  `yaml:"engine"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`

	// AuthToken is the shared bearer token; empty disables auth.
	AuthToken string `yaml:"authToken"`
}

// EngineConfig holds engine and shard settings.
type EngineConfig struct {
	// DataDir is the directory holding one shard tree per shard name.
	DataDir string `yaml:"dataDir"`

	// DefaultLimit is the result limit when the request omits `n`.
	DefaultLimit int `yaml:"defaultLimit"`

	// ExclusiveLock locks each shard root against other processes.
	ExclusiveLock bool `yaml:"exclusiveLock"`
}

// LoggingConfig holds log settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// MetricsConfig holds the Prometheus listener settings; an empty addr
// disables the metrics endpoint.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8611",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Engine: EngineConfig{
			DataDir:      "data",
			DefaultLimit: 50,
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// LoadConfig reads path (optional; empty uses defaults) and applies
// environment overrides: MATCHBOX_ADDR, MATCHBOX_TRIGRAM_BASEDIR,
// MATCHBOX_BATOKEN, MATCHBOX_LOG_LEVEL, MATCHBOX_METRICS_ADDR.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	if v := os.Getenv("MATCHBOX_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("MATCHBOX_TRIGRAM_BASEDIR"); v != "" {
		cfg.Engine.DataDir = v
	}
	if v := os.Getenv("MATCHBOX_BATOKEN"); v != "" {
		cfg.Server.AuthToken = v
	}
	if v := os.Getenv("MATCHBOX_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("MATCHBOX_METRICS_ADDR"); v != "" {
		cfg.Metrics.Addr = v
	}
	if cfg.Engine.DataDir == "" {
		return nil, fmt.Errorf("engine.dataDir (or MATCHBOX_TRIGRAM_BASEDIR) is required")
	}
	if cfg.Engine.DefaultLimit <= 0 {
		cfg.Engine.DefaultLimit = 50
	}
	return cfg, nil
}
