// Package config provides configuration loading and structs for the Karte server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug         bool                `yaml:"debug"`
	Server        ServerConfig        `yaml:"server"`
	Elasticsearch ElasticsearchConfig `yaml:"elasticsearch"`
	Storage       StorageConfig       `yaml:"storage"`
	Auth          AuthConfig          `yaml:"auth"`
	Indices       IndicesConfig       `yaml:"indices"`
	Query         QueryConfig         `yaml:"query"`
	Export        ExportConfig        `yaml:"export"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// ElasticsearchConfig holds the search cluster connection settings.
type ElasticsearchConfig struct {
	Addresses []string `yaml:"addresses"`
	Username  string   `yaml:"username"`
	Password  string   `yaml:"password"`
}

// StorageConfig holds the path for the metadata database.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// AuthConfig holds JWT bearer auth settings. When Enabled is false all
// requests pass through with editor privileges.
type AuthConfig struct {
	Enabled bool   `yaml:"enabled"`
	Secret  string `yaml:"secret"`
}

// IndicesConfig holds the allow-list of queryable index patterns and the
// project->index mapping.
type IndicesConfig struct {
	Allowed  []string          `yaml:"allowed"`
	Projects map[string]string `yaml:"projects"`
}

// QueryConfig holds execution limits for the run and join paths.
type QueryConfig struct {
	DefaultSize    int `yaml:"default_size"`
	MaxSize        int `yaml:"max_size"`
	JoinFetchLimit int `yaml:"join_fetch_limit"`
}

// ExportConfig holds limits for CSV/XLSX export.
type ExportConfig struct {
	MaxRows int `yaml:"max_rows"`
}

// Load reads and parses the config file at path, expands paths, and applies
// defaults. Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)

	return &cfg, nil
}

// expandPath converts a path to absolute. Paths starting with "./" are
// relative to configDir; other relative paths are relative to the home
// directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
