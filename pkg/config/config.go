// Package config loads vizcheck configuration from INI files with an
// embedded-defaults fallback chain: built-in defaults, then the global
// config in ~/.config/vizcheck, then the local .vizcheck directory in
// the repository root. Local values win.
package config

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

//go:embed defaults
var defaultsFS embed.FS

// localDir is the per-repository config directory looked up in the
// current working directory.
const localDir = ".vizcheck"

// Config aggregates scalar values and terminal colors.
type Config struct {
	Values
	Colors ColorConfig

	configDir string // global config directory the values were loaded from
}

// Load loads configuration merging embedded defaults, the global config
// file, and the local .vizcheck/config file. configDir empty uses the
// default location (~/.config/vizcheck). Installs default config files
// into the global directory on first run.
func Load(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		var err error
		if dir, err = DefaultConfigDir(); err != nil {
			return nil, err
		}
	}

	// first run creates the config dir with the default config file
	if err := newDefaultsInstaller(defaultsFS).Install(dir); err != nil {
		return nil, fmt.Errorf("install defaults: %w", err)
	}

	globalPath := filepath.Join(dir, "config")
	localPath := filepath.Join(localDir, "config")

	values, err := newValuesLoader(defaultsFS).Load(localPath, globalPath)
	if err != nil {
		return nil, fmt.Errorf("load values: %w", err)
	}

	colors, err := newColorLoader(defaultsFS).Load(localPath, globalPath)
	if err != nil {
		return nil, fmt.Errorf("load colors: %w", err)
	}

	return &Config{Values: values, Colors: colors, configDir: dir}, nil
}

// ConfigDir returns the global config directory in use.
func (c *Config) ConfigDir() string {
	return c.configDir
}

// GlobalConfigPath returns the path of the global config file.
func (c *Config) GlobalConfigPath() string {
	return filepath.Join(c.configDir, "config")
}

// DefaultConfigDir returns the default global config directory.
func DefaultConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".config", "vizcheck"), nil
}

// Reset overwrites the global config file with the embedded defaults.
// Used by --init --force.
func Reset(configDir string) error {
	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := defaultsFS.ReadFile("defaults/config")
	if err != nil {
		return fmt.Errorf("read embedded config: %w", err)
	}
	if err := os.WriteFile(filepath.Join(configDir, "config"), data, 0o600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// stripComments removes comment lines (starting with # or ;) from INI
// content, used to detect files that are nothing but commented template.
func stripComments(content string) string {
	var b strings.Builder
	for line := range strings.SplitSeq(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, ";") {
			continue
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}
