// Package config provides configuration loading for the standards generator.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

// Config represents the complete generator configuration.
type Config struct {
	// Root is the repository root; relative paths resolve against it.
	Root     string         `yaml:"root"`
	Paths    PathsConfig    `yaml:"paths"`
	Patterns PatternsConfig `yaml:"patterns"`
	Site     SiteConfig     `yaml:"site"`
	// Redact scrubs secret-looking values from generated pages.
	Redact bool `yaml:"redact"`
	// Concurrency bounds parallel ruleset rendering (0 = number of CPUs).
	Concurrency int `yaml:"concurrency"`
}

// PathsConfig names the input and output directories.
type PathsConfig struct {
	Guidelines string `yaml:"guidelines"`
	Profiles   string `yaml:"profiles"`
	Rulesets   string `yaml:"rulesets"`
	Output     string `yaml:"output"`
}

// PatternsConfig holds the doublestar patterns used to discover inputs.
type PatternsConfig struct {
	Guidelines string `yaml:"guidelines"`
	Profiles   string `yaml:"profiles"`
	Rulesets   string `yaml:"rulesets"`
}

// SiteConfig configures the documentation site.
type SiteConfig struct {
	// Mode is the site framework: "mkdocs" or "hugo".
	Mode        string `yaml:"mode"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	URL         string `yaml:"url"`
	RepoName    string `yaml:"repo_name"`
	RepoURL     string `yaml:"repo_url"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Root: ".",
		Paths: PathsConfig{
			Guidelines: "guidelines",
			Profiles:   "profiles",
			Rulesets:   "rulesets",
			Output:     "dist",
		},
		Patterns: PatternsConfig{
			Guidelines: "**/*.md",
			Profiles:   "*.toml",
			Rulesets:   "*.toml",
		},
		Site: SiteConfig{
			Mode:        "mkdocs",
			Name:        "Palindrom Standards",
			Description: "Composable coding standards and guidelines",
		},
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Root == "" {
		return fmt.Errorf("root is required")
	}
	for _, f := range []struct{ name, value string }{
		{"paths.guidelines", c.Paths.Guidelines},
		{"paths.profiles", c.Paths.Profiles},
		{"paths.rulesets", c.Paths.Rulesets},
		{"paths.output", c.Paths.Output},
	} {
		if f.value == "" {
			return fmt.Errorf("%s is required", f.name)
		}
	}
	for _, f := range []struct{ name, pattern string }{
		{"patterns.guidelines", c.Patterns.Guidelines},
		{"patterns.profiles", c.Patterns.Profiles},
		{"patterns.rulesets", c.Patterns.Rulesets},
	} {
		if f.pattern == "" || !doublestar.ValidatePattern(f.pattern) {
			return fmt.Errorf("%s: invalid pattern %q", f.name, f.pattern)
		}
	}
	switch c.Site.Mode {
	case "mkdocs", "hugo":
	default:
		return fmt.Errorf("site.mode must be mkdocs or hugo, got %q", c.Site.Mode)
	}
	if c.Site.Name == "" {
		return fmt.Errorf("site.name is required")
	}
	if c.Concurrency < 0 {
		return fmt.Errorf("concurrency must not be negative")
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file on top of the defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// Marshal returns the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}

// Merge merges another config into this one (other takes precedence for non-zero values).
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	if other.Root != "" {
		c.Root = other.Root
	}

	// Paths
	if other.Paths.Guidelines != "" {
		c.Paths.Guidelines = other.Paths.Guidelines
	}
	if other.Paths.Profiles != "" {
		c.Paths.Profiles = other.Paths.Profiles
	}
	if other.Paths.Rulesets != "" {
		c.Paths.Rulesets = other.Paths.Rulesets
	}
	if other.Paths.Output != "" {
		c.Paths.Output = other.Paths.Output
	}

	// Patterns
	if other.Patterns.Guidelines != "" {
		c.Patterns.Guidelines = other.Patterns.Guidelines
	}
	if other.Patterns.Profiles != "" {
		c.Patterns.Profiles = other.Patterns.Profiles
	}
	if other.Patterns.Rulesets != "" {
		c.Patterns.Rulesets = other.Patterns.Rulesets
	}

	// Site
	if other.Site.Mode != "" {
		c.Site.Mode = other.Site.Mode
	}
	if other.Site.Name != "" {
		c.Site.Name = other.Site.Name
	}
	if other.Site.Description != "" {
		c.Site.Description = other.Site.Description
	}
	if other.Site.URL != "" {
		c.Site.URL = other.Site.URL
	}
	if other.Site.RepoName != "" {
		c.Site.RepoName = other.Site.RepoName
	}
	if other.Site.RepoURL != "" {
		c.Site.RepoURL = other.Site.RepoURL
	}

	if other.Redact {
		c.Redact = true
	}
	if other.Concurrency != 0 {
		c.Concurrency = other.Concurrency
	}
}

// resolve joins p onto Root unless p is absolute.
func (c *Config) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Root, p)
}

// GuidelinesDir returns the resolved guidelines directory.
func (c *Config) GuidelinesDir() string { return c.resolve(c.Paths.Guidelines) }

// ProfilesDir returns the resolved profiles directory.
func (c *Config) ProfilesDir() string { return c.resolve(c.Paths.Profiles) }

// RulesetsDir returns the resolved rulesets directory.
func (c *Config) RulesetsDir() string { return c.resolve(c.Paths.Rulesets) }

// OutputDir returns the resolved output directory.
func (c *Config) OutputDir() string { return c.resolve(c.Paths.Output) }

// Workers returns the effective concurrency.
func (c *Config) Workers() int {
	if c.Concurrency > 0 {
		return c.Concurrency
	}
	return runtime.NumCPU()
}
