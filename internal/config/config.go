// Package config provides configuration loading and structs for the Silicon server.
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
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Vault     VaultConfig     `yaml:"vault"`
	Storage   StorageConfig   `yaml:"storage"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Search    SearchConfig    `yaml:"search"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// VaultConfig holds source-collection settings.
type VaultConfig struct {
	// Root is the directory of markdown documents to index.
	Root string `yaml:"root"`
	// IgnorePrefixes lists vault-relative path prefixes that are never
	// embedded nor considered for deletion accounting.
	IgnorePrefixes []string `yaml:"ignore_prefixes"`
	// DebounceMillis is the file-watch debounce window.
	DebounceMillis int `yaml:"debounce_millis"`
}

// StorageConfig holds the record database path.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// EmbeddingConfig holds embedding provider settings. APIKey is passed through
// to the provider unchanged.
type EmbeddingConfig struct {
	BaseURL      string `yaml:"base_url"`
	Model        string `yaml:"model"`
	APIKey       string `yaml:"api_key"`
	Dimensions   int    `yaml:"dimensions"`
	MaxChunkSize int    `yaml:"max_chunk_size"`
	Precision    int    `yaml:"precision"`
	CacheSize    int    `yaml:"cache_size"`
}

// SearchConfig holds similarity query settings.
type SearchConfig struct {
	// Threshold is the minimum similarity for a neighbor to be reported.
	// A candidate scoring exactly the threshold is kept.
	Threshold float64 `yaml:"threshold"`
	// Candidates is the oversampled k passed to the scan before filtering.
	Candidates int `yaml:"candidates"`
}

// Load reads and parses the config file at path, applies defaults, and
// expands paths. Returns an error if the file cannot be read or parsed.
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
	cfg.Vault.Root = expandPath(cfg.Vault.Root, configDir)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)

	return &cfg, nil
}

// Save writes the config to path. Used for persisting settings edits.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative
// to configDir; other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
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
