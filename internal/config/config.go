package config

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"time"
)

// Config is the top-level configuration structure.
type Config struct {
	Server     ServerConfig     `json:"server"`
	Graph      GraphConfig      `json:"graph"`
	Cognitive  CognitiveConfig  `json:"cognitive"`
	Extractor  ExtractorConfig  `json:"extractor"`
	Enrichment EnrichmentConfig `json:"enrichment"`
	Redis      RedisConfig      `json:"redis"`
}

type ServerConfig struct {
	Port     int    `json:"port"`
	LogLevel string `json:"log_level"`
}

// GraphConfig controls where the knowledge graph is persisted.
type GraphConfig struct {
	DumpPath string `json:"dump_path"`
}

// CognitiveConfig controls the background tick loop and action dispatch.
type CognitiveConfig struct {
	TickIntervalMS  int     `json:"tick_interval_ms"`
	StatusQueueSize int     `json:"status_queue_size"`
	ActionThreshold float64 `json:"action_threshold"`
}

// TickInterval returns the configured tick period as a time.Duration,
// defaulting to 1 second if unset.
func (c CognitiveConfig) TickInterval() time.Duration {
	if c.TickIntervalMS <= 0 {
		return time.Second
	}
	return time.Duration(c.TickIntervalMS) * time.Millisecond
}

// ExtractorConfig configures the LM-backed triple extractor.
type ExtractorConfig struct {
	Enabled    bool   `json:"enabled"`
	Endpoint   string `json:"endpoint"`
	Model      string `json:"model"`
	TimeoutSec int    `json:"timeout_sec"`
}

// Timeout returns the configured timeout, defaulting to 20s if unset.
func (c ExtractorConfig) Timeout() time.Duration {
	if c.TimeoutSec <= 0 {
		return 20 * time.Second
	}
	return time.Duration(c.TimeoutSec) * time.Second
}

// EnrichmentConfig configures the opportunistic knowledge-summary fetcher.
type EnrichmentConfig struct {
	Enabled    bool   `json:"enabled"`
	UserAgent  string `json:"user_agent"`
	TimeoutSec int    `json:"timeout_sec"`
}

// Timeout returns the configured timeout, defaulting to 10s if unset.
func (c EnrichmentConfig) Timeout() time.Duration {
	if c.TimeoutSec <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.TimeoutSec) * time.Second
}

// RedisConfig configures the optional status-bus fan-out.
type RedisConfig struct {
	Enabled bool   `json:"enabled"`
	URL     string `json:"url"`
	Stream  string `json:"stream"`
}

// envVarRe matches ${VAR} and ${VAR:default} patterns.
var envVarRe = regexp.MustCompile(`\$\{(\w+)(?::([^}]*))?\}`)

// Load reads a JSON config file and substitutes environment variable
// references of the form ${VAR} or ${VAR:default}.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	resolved := envVarRe.ReplaceAllStringFunc(string(data), func(match string) string {
		parts := envVarRe.FindStringSubmatch(match)
		name := parts[1]
		defaultVal := parts[2]
		if v := os.Getenv(name); v != "" {
			return v
		}
		return defaultVal
	})

	var cfg Config
	if err := json.Unmarshal([]byte(resolved), &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &cfg, nil
}
