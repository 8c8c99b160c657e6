package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "TECHHOURSE_"

// Config holds all application configuration
type Config struct {
	Gateway GatewayConfig `json:"gateway"`
	Store   StoreConfig   `json:"store"`
	Catalog CatalogConfig `json:"catalog"`
	History HistoryConfig `json:"history"`
	Logging LoggingConfig `json:"logging"`
	Server  ServerConfig  `json:"server"`
}

// GatewayConfig configures the chat-completions endpoint
type GatewayConfig struct {
	BaseURL                 string `json:"base_url"`
	APIKey                  string `json:"api_key"`
	Model                   string `json:"model"`
	TransportTimeoutSeconds int    `json:"transport_timeout_seconds"` // dial/read/write limit
	DeadlineSeconds         int    `json:"deadline_seconds"`          // end-to-end limit per chat turn
}

// TransportTimeout returns the per-connection HTTP limit.
func (g GatewayConfig) TransportTimeout() time.Duration {
	return time.Duration(g.TransportTimeoutSeconds) * time.Second
}

// Deadline returns the caller-side limit for one turn.
func (g GatewayConfig) Deadline() time.Duration {
	return time.Duration(g.DeadlineSeconds) * time.Second
}

// StoreConfig locates the SQLite database
type StoreConfig struct {
	Path string `json:"path"`
}

// CatalogConfig controls phone catalog import
type CatalogConfig struct {
	ImportPath string `json:"import_path"`
	Watch      bool   `json:"watch"` // reload the catalog when the import file changes
}

// HistoryConfig bounds browsing history
type HistoryConfig struct {
	MaxEntries   int `json:"max_entries"`   // rows retained per user
	DisplayLimit int `json:"display_limit"` // rows returned by default
}

// LoggingConfig controls logging behavior
type LoggingConfig struct {
	Level        string `json:"level"`         // "debug", "info", "warn", "error"
	DebugEnabled bool   `json:"debug_enabled"` // Enable debug file logging
	File         string `json:"file"`          // Debug log file path
	MaxSizeMB    int    `json:"max_size_mb"`   // Max file size before rotation
	MaxBackups   int    `json:"max_backups"`   // Number of backup files to keep
}

// ServerConfig controls HTTP server
type ServerConfig struct {
	Port        int    `json:"port"`
	BindAddress string `json:"bind_address"`
}

// Addr returns host:port for net.Listen.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.BindAddress, s.Port)
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Gateway: GatewayConfig{
			BaseURL:                 "https://dashscope.aliyuncs.com/compatible-mode/v1",
			Model:                   "qwen-plus",
			TransportTimeoutSeconds: 15,
			DeadlineSeconds:         20,
		},
		Store:   StoreConfig{Path: "techhourse.db"},
		Catalog: CatalogConfig{ImportPath: "phones.csv"},
		History: HistoryConfig{MaxEntries: 50, DisplayLimit: 7},
		Logging: LoggingConfig{
			Level:      "info",
			File:       "debug.log",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
		Server: ServerConfig{Port: 8080, BindAddress: "127.0.0.1"},
	}
}

// Load reads configuration from file and environment. A missing file is
// created with defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Unmarshal over the defaults so absent keys keep their default value.
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
		cfg.fillZeroes()
	} else if os.IsNotExist(err) {
		if err := cfg.Save(path); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	} else {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// fillZeroes restores defaults for fields a file set to an empty value.
func (c *Config) fillZeroes() {
	d := Default()
	if c.Gateway.BaseURL == "" {
		c.Gateway.BaseURL = d.Gateway.BaseURL
	}
	if c.Gateway.Model == "" {
		c.Gateway.Model = d.Gateway.Model
	}
	if c.Store.Path == "" {
		c.Store.Path = d.Store.Path
	}
	if c.Catalog.ImportPath == "" {
		c.Catalog.ImportPath = d.Catalog.ImportPath
	}
	if c.Logging.Level == "" {
		c.Logging.Level = d.Logging.Level
	}
	if c.Logging.File == "" {
		c.Logging.File = d.Logging.File
	}
	if c.Server.BindAddress == "" {
		c.Server.BindAddress = d.Server.BindAddress
	}
}

// Save writes configuration to file
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

// applyEnvOverrides applies TECHHOURSE_* environment variables
func (c *Config) applyEnvOverrides() error {
	str := map[string]*string{
		"GATEWAY_BASE_URL":    &c.Gateway.BaseURL,
		"API_KEY":             &c.Gateway.APIKey,
		"GATEWAY_MODEL":       &c.Gateway.Model,
		"DB_PATH":             &c.Store.Path,
		"CATALOG_PATH":        &c.Catalog.ImportPath,
		"LOG_LEVEL":           &c.Logging.Level,
		"LOG_FILE":            &c.Logging.File,
		"SERVER_BIND_ADDRESS": &c.Server.BindAddress,
	}
	for name, dst := range str {
		if v := os.Getenv(EnvPrefix + name); v != "" {
			*dst = v
		}
	}

	ints := map[string]*int{
		"GATEWAY_TIMEOUT":  &c.Gateway.TransportTimeoutSeconds,
		"GATEWAY_DEADLINE": &c.Gateway.DeadlineSeconds,
		"HISTORY_MAX":      &c.History.MaxEntries,
		"HISTORY_DISPLAY":  &c.History.DisplayLimit,
		"SERVER_PORT":      &c.Server.Port,
	}
	for name, dst := range ints {
		v := os.Getenv(EnvPrefix + name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s%s %q: %w", EnvPrefix, name, v, err)
		}
		*dst = n
	}

	bools := map[string]*bool{
		"DEBUG_ENABLED": &c.Logging.DebugEnabled,
		"CATALOG_WATCH": &c.Catalog.Watch,
	}
	for name, dst := range bools {
		v := os.Getenv(EnvPrefix + name)
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s%s %q: %w", EnvPrefix, name, v, err)
		}
		*dst = b
	}
	return nil
}

// Validate checks configuration validity
func (c *Config) Validate() error {
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error (got %q)", c.Logging.Level)
	}
	if c.Gateway.BaseURL == "" {
		return fmt.Errorf("gateway.base_url is required")
	}
	if c.Gateway.Model == "" {
		return fmt.Errorf("gateway.model is required")
	}
	if c.Gateway.TransportTimeoutSeconds <= 0 {
		return fmt.Errorf("gateway.transport_timeout_seconds must be positive")
	}
	if c.Gateway.DeadlineSeconds <= 0 {
		return fmt.Errorf("gateway.deadline_seconds must be positive")
	}
	if c.History.DisplayLimit < 1 {
		return fmt.Errorf("history.display_limit must be at least 1")
	}
	if c.History.MaxEntries < c.History.DisplayLimit {
		return fmt.Errorf("history.max_entries (%d) must be >= history.display_limit (%d)",
			c.History.MaxEntries, c.History.DisplayLimit)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if c.Logging.DebugEnabled && c.Logging.MaxSizeMB <= 0 {
		return fmt.Errorf("logging.max_size_mb must be positive when debug logging is enabled")
	}
	return nil
}
