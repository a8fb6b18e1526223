package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// FileName is the project configuration file created by init.
const FileName = "spendiq.yaml"

// Environment variables that override the file.
const (
	EnvDBPath   = "SPENDIQ_DB_PATH"
	EnvAddr     = "SPENDIQ_ADDR"
	EnvLogLevel = "SPENDIQ_LOG_LEVEL"
)

// Config represents the top-level spendiq.yaml configuration.
type Config struct {
	Business       BusinessConfig    `yaml:"business"`
	Database       DatabaseConfig    `yaml:"database"`
	Server         ServerConfig      `yaml:"server"`
	Log            LogConfig         `yaml:"log"`
	SystemAccounts map[string]string `yaml:"system_accounts"` // role -> account code
}

// BusinessConfig identifies the business entity.
type BusinessConfig struct {
	Name string `yaml:"name"`
}

// DatabaseConfig locates the SQLite database.
type DatabaseConfig struct {
	Path string `yaml:"path"` // relative paths resolve against the project root
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Address string `yaml:"address"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json or text
}

// Load reads a spendiq.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default("")
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new project.
func Default(businessName string) *Config {
	return &Config{
		Business: BusinessConfig{Name: businessName},
		Database: DatabaseConfig{Path: "data/spendiq.db"},
		Server:   ServerConfig{Address: "127.0.0.1:8080"},
		Log:      LogConfig{Level: "info", Format: "text"},
		SystemAccounts: map[string]string{
			"receivable": "1200",
			"payable":    "2100",
			"sales":      "4000",
			"expense":    "5000",
			"bank":       "1010",
		},
	}
}

// ApplyEnv loads dotenv (if it exists) into the process environment and then
// applies the SPENDIQ_* overrides. Variables already set in the environment
// win over the dotenv file.
func ApplyEnv(cfg *Config, dotenv string) error {
	if dotenv != "" {
		if err := godotenv.Load(dotenv); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", dotenv, err)
		}
	}
	cfg.override(os.Getenv)
	return nil
}

func (c *Config) override(getenv func(string) string) {
	if v := getenv(EnvDBPath); v != "" {
		c.Database.Path = v
	}
	if v := getenv(EnvAddr); v != "" {
		c.Server.Address = v
	}
	if v := getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
}
