// Package config provides YAML-based configuration loading for the poker bot.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the top-level bot configuration, loaded from config.yaml.
type Config struct {
	Slack     SlackConfig     `yaml:"slack"`
	DB        DBConfig        `yaml:"db"`
	Server    ServerConfig    `yaml:"server"`
	Admin     AdminConfig     `yaml:"admin"`
	Retention RetentionConfig `yaml:"retention"`
}

// SlackConfig holds Slack app credentials. BotToken is the single-workspace
// default credential; ClientID/ClientSecret enable the OAuth install flow
// for multi-workspace distribution.
type SlackConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	BotToken     string `yaml:"bot_token"`
	RedirectURL  string `yaml:"redirect_url"`
	Scopes       string `yaml:"scopes"`
}

// DBConfig selects the storage backend: "sqlite" (Path) or "mysql"
// (Host/Port/Name/User/Password).
type DBConfig struct {
	Driver   string `yaml:"driver"`
	Path     string `yaml:"path"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// AdminConfig guards the manual cleanup endpoint.
type AdminConfig struct {
	Key string `yaml:"key"`
}

// RetentionConfig controls the scheduled session sweep.
type RetentionConfig struct {
	MaxAgeDays int    `yaml:"max_age_days"`
	Schedule   string `yaml:"schedule"`
}

// Load reads a YAML config file from path and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.Slack.Scopes == "" {
		c.Slack.Scopes = "commands,chat:write,reactions:write"
	}
	if c.DB.Driver == "" {
		c.DB.Driver = "sqlite"
	}
	if c.DB.Driver == "sqlite" && c.DB.Path == "" {
		c.DB.Path = "poker.db"
	}
	if c.DB.Driver == "mysql" {
		if c.DB.Host == "" {
			c.DB.Host = "127.0.0.1"
		}
		if c.DB.Port == 0 {
			c.DB.Port = 3306
		}
	}
	if c.Server.Port == 0 {
		c.Server.Port = 3000
	}
	if c.Retention.MaxAgeDays == 0 {
		c.Retention.MaxAgeDays = 30
	}
	if c.Retention.Schedule == "" {
		c.Retention.Schedule = "0 3 * * *"
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	if c.Slack.BotToken == "" && (c.Slack.ClientID == "" || c.Slack.ClientSecret == "") {
		errs = append(errs, "slack.bot_token or slack.client_id+client_secret is required")
	}
	switch c.DB.Driver {
	case "sqlite":
		// path defaulted above
	case "mysql":
		if c.DB.Name == "" {
			errs = append(errs, "db.name is required for mysql")
		}
		if c.DB.User == "" {
			errs = append(errs, "db.user is required for mysql")
		}
	default:
		errs = append(errs, fmt.Sprintf("db.driver %q is not supported (sqlite, mysql)", c.DB.Driver))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
