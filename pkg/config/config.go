package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	Profile    string           `mapstructure:"profile"`
	Database   DatabaseConfig   `mapstructure:"database"`
	RestAPI    RestAPIConfig    `mapstructure:"rest_api"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Activation ActivationConfig `mapstructure:"activation"`
	Search     SearchConfig     `mapstructure:"search"`
	Ollama     OllamaConfig     `mapstructure:"ollama"`
}

// DatabaseConfig holds database configuration.
type DatabaseConfig struct {
	Path           string        `mapstructure:"path"`
	BackupInterval time.Duration `mapstructure:"backup_interval"`
	MaxBackups     int           `mapstructure:"max_backups"`
	AutoMigrate    bool          `mapstructure:"auto_migrate"`
}

// RestAPIConfig holds the optional local REST API server configuration.
type RestAPIConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port"`
	Host    string `mapstructure:"host"`
	CORS    bool   `mapstructure:"cors"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // console, json
}

// ActivationConfig holds the three spreading-activation scalars (spec
// §4.6 / §6 "Environment-derived configuration").
type ActivationConfig struct {
	Decay     float64 `mapstructure:"decay"`
	Threshold float64 `mapstructure:"threshold"`
	MaxHops   int     `mapstructure:"max_hops"`
}

// SearchConfig holds the dual-channel fusion weights (spec §4.7,
// left as positive implementation parameters by design).
type SearchConfig struct {
	FTSWeight   float64 `mapstructure:"fts_weight"`
	GraphWeight float64 `mapstructure:"graph_weight"`
	DefaultSize int     `mapstructure:"default_limit"`
}

// OllamaConfig holds the collaborator transport configuration. Each
// *Model field names the model for one collaborator; an empty name
// disables that collaborator's step, and no installed model is picked
// automatically in its place.
type OllamaConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	BaseURL        string `mapstructure:"base_url"`
	TaggerModel    string `mapstructure:"tagger_model"`
	EnhancerModel  string `mapstructure:"enhancer_model"`
	HierarchyModel string `mapstructure:"hierarchy_model"`
	AnswererModel  string `mapstructure:"answerer_model"`
}

// DefaultConfig returns configuration with documented default values.
func DefaultConfig() *Config {
	return &Config{
		Profile: "default",
		Database: DatabaseConfig{
			Path:           DatabasePath(),
			BackupInterval: 24 * time.Hour,
			MaxBackups:     7,
			AutoMigrate:    true,
		},
		RestAPI: RestAPIConfig{
			Enabled: false,
			Port:    4610,
			Host:    "localhost",
			CORS:    true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Activation: ActivationConfig{
			Decay:     0.7,
			Threshold: 0.1,
			MaxHops:   3,
		},
		Search: SearchConfig{
			FTSWeight:   0.6,
			GraphWeight: 0.4,
			DefaultSize: 10,
		},
		Ollama: OllamaConfig{
			Enabled:        true,
			BaseURL:        "http://localhost:11434",
			TaggerModel:    "",
			EnhancerModel:  "",
			HierarchyModel: "",
			AnswererModel:  "",
		},
	}
}

// Load loads configuration from YAML file with fallback to defaults.
// Searches in multiple locations:
//  1. ./config.yaml (current directory)
//  2. ~/.cons/config.yaml (user home)
//  3. /etc/cons/config.yaml (system-wide)
func Load() (*Config, error) {
	return LoadFrom("")
}

// LoadFrom loads configuration from the given explicit path, or falls
// back to Load's search locations when path is empty (defaults only
// when no file is found there). CONS_*-prefixed environment variables,
// with "." in a key written as "_" (CONS_ACTIVATION_DECAY), override
// the file and the defaults.
func LoadFrom(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("cons")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		v.AddConfigPath(".")
		v.AddConfigPath(ConfigPath())
		v.AddConfigPath("/etc/cons")
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setDefaults sets default values in Viper so environment overrides
// (CONS_* via AutomaticEnv in LoadFrom) have a baseline.
func setDefaults(v *viper.Viper) {
	v.SetDefault("profile", "default")
	v.SetDefault("database.path", DatabasePath())
	v.SetDefault("database.backup_interval", "24h")
	v.SetDefault("database.max_backups", 7)
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("rest_api.enabled", false)
	v.SetDefault("rest_api.port", 4610)
	v.SetDefault("rest_api.host", "localhost")
	v.SetDefault("rest_api.cors", true)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("activation.decay", 0.7)
	v.SetDefault("activation.threshold", 0.1)
	v.SetDefault("activation.max_hops", 3)

	v.SetDefault("search.fts_weight", 0.6)
	v.SetDefault("search.graph_weight", 0.4)
	v.SetDefault("search.default_limit", 10)

	v.SetDefault("ollama.enabled", true)
	v.SetDefault("ollama.base_url", "http://localhost:11434")
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Database.MaxBackups < 0 {
		return fmt.Errorf("database.max_backups must be >= 0")
	}

	if c.RestAPI.Enabled {
		if c.RestAPI.Port < 1 || c.RestAPI.Port > 65535 {
			return fmt.Errorf("rest_api.port must be between 1 and 65535")
		}
		if c.RestAPI.Host == "" {
			return fmt.Errorf("rest_api.host is required when REST API is enabled")
		}
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}

	validFormats := map[string]bool{"console": true, "json": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: console, json")
	}

	if c.Activation.Decay <= 0 {
		return fmt.Errorf("activation.decay must be > 0")
	}
	if c.Activation.Threshold < 0 {
		return fmt.Errorf("activation.threshold must be >= 0")
	}
	if c.Activation.MaxHops < 1 {
		return fmt.Errorf("activation.max_hops must be >= 1")
	}

	if c.Search.FTSWeight <= 0 || c.Search.GraphWeight <= 0 {
		return fmt.Errorf("search.fts_weight and search.graph_weight must both be strictly positive")
	}

	if c.Ollama.Enabled && c.Ollama.BaseURL == "" {
		return fmt.Errorf("ollama.base_url is required when Ollama is enabled")
	}

	return nil
}

// EnsureConfigDir creates the configuration directory if it doesn't exist.
func (c *Config) EnsureConfigDir() error {
	dir := filepath.Dir(c.Database.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return nil
}

// ConfigPath returns the path to the configuration directory.
func ConfigPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".cons")
}

// DatabasePath returns the default database path.
func DatabasePath() string {
	return filepath.Join(ConfigPath(), "notes.db")
}
