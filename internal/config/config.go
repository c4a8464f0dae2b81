package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	HTTPAddr  string          `yaml:"http_addr" json:"http_addr"`
	AdminAddr string          `yaml:"admin_addr" json:"admin_addr"`
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`
}

type RateLimitConfig struct {
	RequestsPerSecond int `yaml:"rps" json:"rps"`
	Burst             int `yaml:"burst" json:"burst"`
}

type ObservabilityConfig struct {
	LogLevel  string `yaml:"log_level" json:"log_level"`
	LogFormat string `yaml:"log_format" json:"log_format"`
}

// RepositoryConfig selects which compiled-in repository plugins are loaded and
// where they keep their state.
type RepositoryConfig struct {
	WorkDir        string   `yaml:"work_dir" json:"work_dir"`
	EnabledPlugins []string `yaml:"enabled_plugins" json:"enabled_plugins"`
}

type Config struct {
	Server        ServerConfig        `yaml:"server" json:"server"`
	Observability ObservabilityConfig `yaml:"observability" json:"observability"`
	Repository    RepositoryConfig    `yaml:"repository" json:"repository"`
}

const DefaultWorkDir = "/opt/trustee/repository"

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.HTTPAddr == "" {
		c.Server.HTTPAddr = ":8080"
	}
	if c.Server.AdminAddr == "" {
		c.Server.AdminAddr = ":9000"
	}
	if c.Observability.LogLevel == "" {
		c.Observability.LogLevel = "info"
	}
	if c.Observability.LogFormat == "" {
		c.Observability.LogFormat = "console"
	}
	if c.Repository.WorkDir == "" {
		c.Repository.WorkDir = DefaultWorkDir
	}
}

func (c *Config) Validate() error {
	if c.Server.RateLimit.RequestsPerSecond < 0 || c.Server.RateLimit.Burst < 0 {
		return errors.New("server.rate_limit values must be >= 0")
	}
	switch c.Observability.LogFormat {
	case "", "console", "json":
	default:
		return fmt.Errorf("observability.log_format %q not supported", c.Observability.LogFormat)
	}
	if c.Repository.WorkDir == "" {
		return errors.New("repository.work_dir empty")
	}
	seen := make(map[string]int, len(c.Repository.EnabledPlugins))
	for i, name := range c.Repository.EnabledPlugins {
		if name == "" {
			return fmt.Errorf("repository.enabled_plugins[%d] empty", i)
		}
		if j, dup := seen[name]; dup {
			return fmt.Errorf("repository.enabled_plugins[%d] duplicates [%d] (%q)", i, j, name)
		}
		seen[name] = i
	}
	return nil
}
