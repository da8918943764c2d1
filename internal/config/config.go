package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"mdserve/internal/logging"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

const APP_NAME = "mdserve" // application name used for config and cache directories

// Built-in categories that cannot be overridden or removed.
var BuiltinCategories = map[string]bool{
	"guide":   true,
	"lang":    true,
	"context": true,
}

// categoryNamePattern restricts category names to a filesystem- and
// URL-safe alphabet.
var categoryNamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Category describes a named document collection: a directory under the
// docroot plus the glob patterns that discover its documents.
type Category struct {
	Dir         string   `yaml:"dir"`
	Patterns    []string `yaml:"patterns"`
	Description string   `yaml:"description,omitempty"`
	AutoLoad    bool     `yaml:"auto_load,omitempty"`
}

// Config holds the document root and category configuration.
type Config struct {
	Docroot    string              `yaml:"docroot"`
	Categories map[string]Category `yaml:"categories"`
	Version    string              `yaml:"version"`
	InitTime   int64               `yaml:"init_time"` // Unix timestamp of first setup
}

// ValidCategoryName reports whether name is acceptable for a category.
func ValidCategoryName(name string) bool {
	return name != "" && categoryNamePattern.MatchString(name)
}

// ValidateCategory checks a category definition for structural problems.
func ValidateCategory(name string, cat Category) error {
	if !ValidCategoryName(name) {
		return fmt.Errorf("invalid category name %q: must match [A-Za-z0-9_-]+", name)
	}
	if cat.Dir == "" {
		return fmt.Errorf("category %q has no directory", name)
	}
	if len(cat.Patterns) == 0 {
		return fmt.Errorf("category %q has no patterns defined", name)
	}
	return nil
}

// ConfigPath returns the standard config file path for the current platform
func ConfigPath() (string, error) {
	configPath := filepath.Join(xdg.ConfigHome, APP_NAME, "config.yaml")
	logging.Debug("Determined config path", "path", configPath)
	return configPath, nil
}

// CacheDir returns the directory for persisted remote-content cache entries.
func CacheDir() string {
	return filepath.Join(xdg.CacheHome, APP_NAME, "content")
}

// Load loads the config from the standard location. A missing config file is
// not an error: the defaults are returned so the server works out of the box.
func Load() (*Config, error) {
	configPath, exists := FindConfigFile()
	logging.Debug("Loading config from", "path", configPath)
	if !exists {
		cfg := DefaultConfig()
		return &cfg, nil
	}
	return LoadFrom(configPath)
}

// LoadFrom loads config from a specific path
func LoadFrom(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	var cfg Config
	dec := yaml.NewDecoder(f)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if cfg.Categories == nil {
		cfg.Categories = make(map[string]Category)
	}
	if cfg.Docroot == "" {
		cfg.Docroot = "."
	}

	return &cfg, nil
}

// FindConfigFile returns the path to an existing config file, and whether it exists.
func FindConfigFile() (string, bool) {
	primary, err := ConfigPath()
	if err != nil {
		logging.Error("Failed to get config path", "error", err)
		return "", false
	}

	if _, err := os.Stat(primary); err == nil {
		logging.Debug("Config found at primary path", "path", primary)
		return primary, true
	}

	// Return primary path for new config
	return primary, false
}

// DefaultConfig returns a Config seeded with the built-in categories.
func DefaultConfig() Config {
	return Config{
		Docroot: ".",
		Categories: map[string]Category{
			"guide": {
				Dir:         "aidocs/guide",
				Patterns:    []string{"guidelines"},
				Description: "Project guidelines",
			},
			"lang": {
				Dir:         "aidocs/lang",
				Patterns:    []string{"*.md"},
				Description: "Language-specific guidance",
			},
			"context": {
				Dir:         "aidocs/project",
				Patterns:    []string{"project-context"},
				Description: "Project context documents",
			},
		},
		Version: "1.0",
	}
}

// Save writes the config to the standard location
func (c *Config) Save() error {
	configPath, _ := FindConfigFile()
	return c.SaveTo(configPath)
}

// SaveTo writes the config to a specific path
func (c *Config) SaveTo(path string) error {
	if c.InitTime == 0 {
		c.InitTime = time.Now().Unix()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Restrictive permissions: the config may reference private doc trees
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	enc := yaml.NewEncoder(f)
	defer enc.Close()

	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// AbsoluteDocroot resolves the docroot to an absolute path, falling back to
// the working directory for relative configurations.
func (c *Config) AbsoluteDocroot() (string, error) {
	if filepath.IsAbs(c.Docroot) {
		return filepath.Clean(c.Docroot), nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("cannot resolve docroot: %w", err)
	}
	return filepath.Join(cwd, c.Docroot), nil
}
