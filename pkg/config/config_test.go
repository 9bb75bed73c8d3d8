package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Database.MaxBackups != 7 {
		t.Errorf("Expected MaxBackups=7, got %d", cfg.Database.MaxBackups)
	}
	if cfg.Database.BackupInterval != 24*time.Hour {
		t.Errorf("Expected BackupInterval=24h, got %v", cfg.Database.BackupInterval)
	}
	if !cfg.Database.AutoMigrate {
		t.Error("Expected AutoMigrate=true")
	}

	if cfg.RestAPI.Enabled {
		t.Error("Expected RestAPI.Enabled=false by default")
	}
	if cfg.RestAPI.Host != "localhost" {
		t.Errorf("Expected Host=localhost, got %s", cfg.RestAPI.Host)
	}
	if !cfg.RestAPI.CORS {
		t.Error("Expected CORS=true")
	}

	if cfg.Activation.Decay != 0.7 {
		t.Errorf("Expected Activation.Decay=0.7, got %v", cfg.Activation.Decay)
	}
	if cfg.Activation.Threshold != 0.1 {
		t.Errorf("Expected Activation.Threshold=0.1, got %v", cfg.Activation.Threshold)
	}
	if cfg.Activation.MaxHops != 3 {
		t.Errorf("Expected Activation.MaxHops=3, got %d", cfg.Activation.MaxHops)
	}

	if cfg.Search.FTSWeight <= 0 || cfg.Search.GraphWeight <= 0 {
		t.Error("Expected both search fusion weights to be strictly positive")
	}

	if cfg.Ollama.BaseURL != "http://localhost:11434" {
		t.Errorf("Expected Ollama BaseURL=http://localhost:11434, got %s", cfg.Ollama.BaseURL)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		modify    func(*Config)
		expectErr bool
	}{
		{
			name:      "valid config",
			modify:    func(c *Config) {},
			expectErr: false,
		},
		{
			name: "empty database path",
			modify: func(c *Config) {
				c.Database.Path = ""
			},
			expectErr: true,
		},
		{
			name: "negative max backups",
			modify: func(c *Config) {
				c.Database.MaxBackups = -1
			},
			expectErr: true,
		},
		{
			name: "invalid port when rest api enabled",
			modify: func(c *Config) {
				c.RestAPI.Enabled = true
				c.RestAPI.Port = 99999
			},
			expectErr: true,
		},
		{
			name: "invalid logging level",
			modify: func(c *Config) {
				c.Logging.Level = "invalid"
			},
			expectErr: true,
		},
		{
			name: "non-positive decay",
			modify: func(c *Config) {
				c.Activation.Decay = 0
			},
			expectErr: true,
		},
		{
			name: "negative threshold",
			modify: func(c *Config) {
				c.Activation.Threshold = -0.1
			},
			expectErr: true,
		},
		{
			name: "zero max hops",
			modify: func(c *Config) {
				c.Activation.MaxHops = 0
			},
			expectErr: true,
		},
		{
			name: "non-positive fusion weight",
			modify: func(c *Config) {
				c.Search.GraphWeight = 0
			},
			expectErr: true,
		},
		{
			name: "empty ollama base url when enabled",
			modify: func(c *Config) {
				c.Ollama.Enabled = true
				c.Ollama.BaseURL = ""
			},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.expectErr && err == nil {
				t.Error("Expected error, got nil")
			}
			if !tt.expectErr && err != nil {
				t.Errorf("Expected no error, got: %v", err)
			}
		})
	}
}

func TestLoadConfig_NoFile(t *testing.T) {
	tmpDir := t.TempDir()
	oldWd, _ := os.Getwd()
	defer os.Chdir(oldWd) //nolint:errcheck
	_ = os.Chdir(tmpDir)

	oldHome := os.Getenv("HOME")
	os.Setenv("HOME", tmpDir)
	defer os.Setenv("HOME", oldHome)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected no error with missing config, got: %v", err)
	}

	if cfg == nil {
		t.Fatal("Expected config, got nil")
	}

	if cfg.Activation.MaxHops != 3 {
		t.Errorf("Expected default max_hops 3, got %d", cfg.Activation.MaxHops)
	}
}

func TestLoadConfig_WithFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
profile: test
database:
  path: /tmp/test-cons.db
  backup_interval: 12h
  max_backups: 3
  auto_migrate: false
rest_api:
  enabled: true
  port: 4000
  host: 127.0.0.1
  cors: false
activation:
  decay: 0.5
  threshold: 0.05
  max_hops: 4
logging:
  level: debug
  format: json
`

	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	oldWd, _ := os.Getwd()
	defer os.Chdir(oldWd) //nolint:errcheck
	_ = os.Chdir(tmpDir)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Profile != "test" {
		t.Errorf("Expected profile=test, got %s", cfg.Profile)
	}
	if cfg.Database.Path != "/tmp/test-cons.db" {
		t.Errorf("Expected database path=/tmp/test-cons.db, got %s", cfg.Database.Path)
	}
	if cfg.Database.MaxBackups != 3 {
		t.Errorf("Expected max_backups=3, got %d", cfg.Database.MaxBackups)
	}
	if cfg.RestAPI.Port != 4000 {
		t.Errorf("Expected port=4000, got %d", cfg.RestAPI.Port)
	}
	if cfg.RestAPI.CORS {
		t.Error("Expected CORS=false, got true")
	}
	if cfg.Activation.MaxHops != 4 {
		t.Errorf("Expected max_hops=4, got %d", cfg.Activation.MaxHops)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Expected level=debug, got %s", cfg.Logging.Level)
	}
}

func TestEnsureConfigDir(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := &Config{
		Database: DatabaseConfig{
			Path: filepath.Join(tmpDir, "subdir", "notes.db"),
		},
	}

	if err := cfg.EnsureConfigDir(); err != nil {
		t.Fatalf("EnsureConfigDir failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(tmpDir, "subdir")); os.IsNotExist(err) {
		t.Error("Config directory was not created")
	}
}

func TestConfigPath(t *testing.T) {
	path := ConfigPath()
	if path == "" {
		t.Error("ConfigPath returned empty string")
	}

	homeDir, _ := os.UserHomeDir()
	expected := filepath.Join(homeDir, ".cons")
	if path != expected {
		t.Errorf("Expected %s, got %s", expected, path)
	}
}

func TestDatabasePath(t *testing.T) {
	path := DatabasePath()
	if path == "" {
		t.Error("DatabasePath returned empty string")
	}

	if filepath.Base(path) != "notes.db" {
		t.Errorf("Expected database file named notes.db, got %s", filepath.Base(path))
	}
}
