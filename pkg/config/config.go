// Package config handles tundraix.toml CLI configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FileName is the configuration file the CLI looks for.
const FileName = "tundraix.toml"

// Config represents a tundraix.toml file. Every field has a usable
// default; a missing file is not an error.
type Config struct {
	Log   Log   `toml:"log"`
	Run   Run   `toml:"run"`
	Watch Watch `toml:"watch"`
}

// Log configures CLI diagnostics. Script output always goes to stdout
// untouched.
type Log struct {
	Level  string `toml:"level"`  // debug, info, warn, error
	Format string `toml:"format"` // text, tint
}

// Run configures script execution.
type Run struct {
	Disassemble bool `toml:"disassemble"`
}

// Watch configures the file-watching rerun loop.
type Watch struct {
	DebounceMS int `toml:"debounce_ms"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Log:   Log{Level: "info", Format: "tint"},
		Watch: Watch{DebounceMS: 100},
	}
}

// Load parses a tundraix.toml file from the given directory.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	return cfg, nil
}

// FindAndLoad walks up from startDir looking for a tundraix.toml file.
// When none exists anywhere up the tree it returns the defaults.
func FindAndLoad(startDir string) (*Config, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, FileName)); err == nil {
			return Load(dir)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return Default(), nil
		}
		dir = parent
	}
}
