// Package config loads and saves the on-disk terminal profile: shell
// override, scrollback cap, and palette selection. Format is TOML
// rather than the teacher's JSON, matching the rest of the example
// corpus's preference for BurntSushi/toml for human-edited config files.
package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

const (
	defaultScrollbackCap = 5000
	defaultPalette       = "solarized-light"
)

// Config holds the terminal profile a host process loads at startup.
type Config struct {
	// Shell overrides the discovered login shell when non-empty.
	Shell string `toml:"shell"`
	// ScrollbackCap bounds the number of retired rows Grid retains.
	ScrollbackCap int `toml:"scrollback_cap"`
	// Palette names the colour palette. It is loaded and saved only; no
	// other package reads it, and package palette provides only the
	// "solarized-light" table.
	Palette string `toml:"palette"`
}

// DefaultConfig returns the configuration a fresh install starts with.
func DefaultConfig() *Config {
	return &Config{
		Shell:         "",
		ScrollbackCap: defaultScrollbackCap,
		Palette:       defaultPalette,
	}
}

// Path returns the on-disk location of the config file, creating its
// parent directory if necessary.
func Path() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".vtcore.toml"
	}
	dir := filepath.Join(homeDir, ".config", "vtcore")
	os.MkdirAll(dir, 0755)
	return filepath.Join(dir, "config.toml")
}

// Load reads the config file at Path, returning DefaultConfig if it does
// not yet exist. Fields absent from the file keep DefaultConfig's values.
func Load() (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(Path())
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, err
	}
	if cfg.ScrollbackCap <= 0 {
		cfg.ScrollbackCap = defaultScrollbackCap
	}
	if cfg.Palette == "" {
		cfg.Palette = defaultPalette
	}
	return cfg, nil
}

// Save writes c to Path in TOML form.
func (c *Config) Save() error {
	f, err := os.Create(Path())
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(c)
}

// ResolveShell returns c.Shell if set, or "" to let ptyio discover the
// user's login shell.
func (c *Config) ResolveShell() string {
	return c.Shell
}
