// Package config loads and validates session configuration files.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/barscript/feed"
)

// Environment variables that override file settings.
const (
	EnvLogLevel = "BARSCRIPT_LOG_LEVEL"
	EnvTimezone = "BARSCRIPT_TZ"
)

// Config represents the complete session configuration
type Config struct {
	Session SessionConfig  `json:"session" yaml:"session"`
	Scripts []ScriptConfig `json:"scripts" yaml:"scripts"`
	Feed    FeedConfig     `json:"feed" yaml:"feed"`
	Output  OutputConfig   `json:"output" yaml:"output"`
	Logging LoggingConfig  `json:"logging" yaml:"logging"`
}

// SessionConfig contains per-run engine parameters
type SessionConfig struct {
	Timezone string `json:"timezone" yaml:"timezone"`
	// LastBarIndex marks the final bar. Zero means the feed length when
	// known; -1 forces live behavior.
	LastBarIndex   int     `json:"last_bar_index,omitempty" yaml:"last_bar_index,omitempty"`
	Currency       string  `json:"currency" yaml:"currency"`
	InitialCapital float64 `json:"initial_capital,omitempty" yaml:"initial_capital,omitempty"`
}

// Location resolves Timezone, defaulting to UTC.
func (s SessionConfig) Location() (*time.Location, error) {
	if s.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(s.Timezone)
}

// ScriptConfig names one script to run. ID defaults to Name.
type ScriptConfig struct {
	ID     string         `json:"id,omitempty" yaml:"id,omitempty"`
	Name   string         `json:"name" yaml:"name"`
	Inputs map[string]any `json:"inputs,omitempty" yaml:"inputs,omitempty"`
}

// FeedConfig describes the candle source
type FeedConfig struct {
	Type   string `json:"type" yaml:"type"` // "csv" or "parquet"
	Path   string `json:"path" yaml:"path"`
	Symbol string `json:"symbol,omitempty" yaml:"symbol,omitempty"`
	From   string `json:"from,omitempty" yaml:"from,omitempty"` // RFC3339 or 2006-01-02
	To     string `json:"to,omitempty" yaml:"to,omitempty"`

	// Timeframe resamples the source candles (M5, H1, D1...). Empty keeps
	// the source timeframe.
	Timeframe string `json:"timeframe,omitempty" yaml:"timeframe,omitempty"`
}

// Range parses From and To into a feed range.
func (f FeedConfig) Range() (feed.Range, error) {
	var r feed.Range
	var err error
	if r.From, err = parseBound(f.From); err != nil {
		return r, fmt.Errorf("feed.from: %w", err)
	}
	if r.To, err = parseBound(f.To); err != nil {
		return r, fmt.Errorf("feed.to: %w", err)
	}
	return r, nil
}

func parseBound(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, s)
}

// OutputConfig contains sink paths. Empty paths disable the sink.
type OutputConfig struct {
	PlotPath   string `json:"plot_path,omitempty" yaml:"plot_path,omitempty"`
	EquityPath string `json:"equity_path,omitempty" yaml:"equity_path,omitempty"`
	EquityDB   string `json:"equity_db,omitempty" yaml:"equity_db,omitempty"`
	OrgPath    string `json:"org_path,omitempty" yaml:"org_path,omitempty"`
}

// LoggingConfig contains logger parameters
type LoggingConfig struct {
	Level  string `json:"level" yaml:"level"`   // debug|info|warn|error
	Format string `json:"format" yaml:"format"` // json|console
}

// LoadFromFile loads configuration from a file (JSON or YAML based on extension)
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	cfg.ApplyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// ApplyEnv overrides settings from the environment.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(EnvTimezone); v != "" {
		c.Session.Timezone = v
	}
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Session.Currency == "" {
		return fmt.Errorf("session.currency is required")
	}
	if _, err := c.Session.Location(); err != nil {
		return fmt.Errorf("session.timezone: %w", err)
	}
	if c.Session.LastBarIndex < -1 {
		return fmt.Errorf("session.last_bar_index must be >= -1")
	}
	if c.Session.InitialCapital < 0 {
		return fmt.Errorf("session.initial_capital must not be negative")
	}
	if len(c.Scripts) == 0 {
		return fmt.Errorf("at least one script is required")
	}
	seen := make(map[string]bool, len(c.Scripts))
	for i, s := range c.Scripts {
		if s.Name == "" {
			return fmt.Errorf("scripts[%d].name is required", i)
		}
		id := s.ID
		if id == "" {
			id = s.Name
		}
		if seen[id] {
			return fmt.Errorf("duplicate script id %q", id)
		}
		seen[id] = true
	}
	if c.Feed.Type != "csv" && c.Feed.Type != "parquet" {
		return fmt.Errorf("feed.type must be 'csv' or 'parquet'")
	}
	if c.Feed.Path == "" {
		return fmt.Errorf("feed.path is required")
	}
	if _, err := c.Feed.Range(); err != nil {
		return err
	}
	if c.Feed.Timeframe != "" {
		if _, err := feed.ParseTimeframe(c.Feed.Timeframe); err != nil {
			return fmt.Errorf("feed.timeframe: %w", err)
		}
	}
	switch c.Logging.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("logging.format must be 'json' or 'console'")
	}
	return nil
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Session: SessionConfig{
			Timezone:       "UTC",
			Currency:       "USD",
			InitialCapital: 10000,
		},
		Scripts: []ScriptConfig{
			{Name: "sma-cross", Inputs: map[string]any{"fast": 10, "slow": 30}},
		},
		Feed: FeedConfig{
			Type: "csv",
			Path: "./candles.csv",
		},
		Output: OutputConfig{
			PlotPath:   "./plots.csv",
			EquityPath: "./equity.csv",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// ParseInputs converts "k=v" pairs into script inputs. Values that parse
// as integers, floats or booleans are converted; everything else is kept as
// a string.
func ParseInputs(pairs []string) (map[string]any, error) {
	out := make(map[string]any, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("input %q: want name=value", p)
		}
		out[strings.TrimSpace(k)] = parseValue(strings.TrimSpace(v))
	}
	return out, nil
}

func parseValue(v string) any {
	if i, err := strconv.Atoi(v); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(v); err == nil {
		return b
	}
	return v
}
