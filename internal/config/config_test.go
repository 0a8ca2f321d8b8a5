package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, ".", cfg.Root)
	assert.Equal(t, "guidelines", cfg.Paths.Guidelines)
	assert.Equal(t, "dist", cfg.Paths.Output)
	assert.Equal(t, "**/*.md", cfg.Patterns.Guidelines)
	assert.Equal(t, "*.toml", cfg.Patterns.Rulesets)
	assert.Equal(t, "mkdocs", cfg.Site.Mode)
	assert.False(t, cfg.Redact)
	assert.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{"valid default config", func(c *Config) {}, ""},
		{"hugo mode", func(c *Config) { c.Site.Mode = "hugo" }, ""},
		{"missing root", func(c *Config) { c.Root = "" }, "root is required"},
		{"missing output", func(c *Config) { c.Paths.Output = "" }, "paths.output is required"},
		{"bad pattern", func(c *Config) { c.Patterns.Profiles = "[" }, "patterns.profiles"},
		{"empty pattern", func(c *Config) { c.Patterns.Rulesets = "" }, "patterns.rulesets"},
		{"plain site mode", func(c *Config) { c.Site.Mode = "plain" }, "site.mode"},
		{"missing site name", func(c *Config) { c.Site.Name = "" }, "site.name is required"},
		{"negative concurrency", func(c *Config) { c.Concurrency = -1 }, "concurrency"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ProjectConfigFile)
	content := `
paths:
  output: build
site:
  mode: hugo
  url: https://example.com/
redact: true
concurrency: 3
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "build", cfg.Paths.Output)
	assert.Equal(t, "guidelines", cfg.Paths.Guidelines, "unset fields keep defaults")
	assert.Equal(t, "hugo", cfg.Site.Mode)
	assert.Equal(t, "https://example.com/", cfg.Site.URL)
	assert.True(t, cfg.Redact)
	assert.Equal(t, 3, cfg.Workers())
}

func TestLoadFromFile_Errors(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read config file")

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("paths: [unclosed"), 0o644))
	_, err = LoadFromFile(path)
	assert.ErrorContains(t, err, "failed to parse config file")
}

func TestMerge(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Merge(&Config{
		Paths: PathsConfig{Output: "out"},
		Site:  SiteConfig{Mode: "hugo", RepoURL: "https://github.com/acme/std"},
	})

	assert.Equal(t, "out", cfg.Paths.Output)
	assert.Equal(t, "rulesets", cfg.Paths.Rulesets)
	assert.Equal(t, "hugo", cfg.Site.Mode)
	assert.Equal(t, "https://github.com/acme/std", cfg.Site.RepoURL)
	assert.Equal(t, "Palindrom Standards", cfg.Site.Name)

	cfg.Merge(nil)
	assert.Equal(t, "out", cfg.Paths.Output)
}

func TestResolvedDirs(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Root = "/repo"
	assert.Equal(t, filepath.Join("/repo", "guidelines"), cfg.GuidelinesDir())
	assert.Equal(t, filepath.Join("/repo", "profiles"), cfg.ProfilesDir())
	assert.Equal(t, filepath.Join("/repo", "rulesets"), cfg.RulesetsDir())

	abs := filepath.Join(t.TempDir(), "out")
	cfg.Paths.Output = abs
	assert.Equal(t, abs, cfg.OutputDir())
}

func TestWorkersDefaultsToCPUs(t *testing.T) {
	assert.Equal(t, runtime.NumCPU(), DefaultConfig().Workers())
}

func TestLoader_Layers(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ProjectConfigFile), []byte("paths:\n  output: public\nsite:\n  name: Acme\n"), 0o644))

	cfg, err := NewLoader(zaptest.NewLogger(t)).Load(root, "", &Config{Site: SiteConfig{Mode: "hugo"}})
	require.NoError(t, err)

	assert.Equal(t, root, cfg.Root)
	assert.Equal(t, filepath.Join(root, "public"), cfg.OutputDir())
	assert.Equal(t, "Acme", cfg.Site.Name)
	assert.Equal(t, "hugo", cfg.Site.Mode)
}

func TestLoader_NoProjectFile(t *testing.T) {
	root := t.TempDir()
	cfg, err := NewLoader(nil).Load(root, "", nil)
	require.NoError(t, err)
	assert.Equal(t, root, cfg.Root)
	assert.Equal(t, "mkdocs", cfg.Site.Mode)
}

func TestLoader_ExplicitFileMustExist(t *testing.T) {
	_, err := NewLoader(nil).Load(t.TempDir(), filepath.Join(t.TempDir(), "nope.yaml"), nil)
	assert.Error(t, err)
}

func TestLoader_InvalidResult(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ProjectConfigFile), []byte("site:\n  mode: jekyll\n"), 0o644))

	_, err := NewLoader(nil).Load(root, "", nil)
	assert.ErrorContains(t, err, "site.mode")
}

func TestMarshal(t *testing.T) {
	data, err := DefaultConfig().Marshal()
	require.NoError(t, err)
	assert.Contains(t, string(data), "mode: mkdocs")
	assert.Contains(t, string(data), "guidelines: '**/*.md'")
}
