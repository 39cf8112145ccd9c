// Package config loads the optional TOML configuration file described
// in SPEC_FULL.md §4.H. Command-line flags always override values
// loaded here; this package never reads flags itself.
package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// DefaultStackSize is used when no config file sets Stack.Size (there
// is no command-line flag for it). Kept equal to vm.DefaultMaxStack; cmd/nnp-exec threads
// Stack.Size into vm.VM.SetMaxStack so this is a real, enforced bound
// rather than a decorative one.
const DefaultStackSize = 4096

// Config mirrors SPEC_FULL.md §4.H's TOML schema.
type Config struct {
	Stack struct {
		Size int `toml:"size"`
	} `toml:"stack"`
	Output struct {
		Color bool   `toml:"color"`
		Log   string `toml:"log"`
	} `toml:"output"`
}

// Default returns a Config populated with built-in defaults.
func Default() *Config {
	c := &Config{}
	c.Stack.Size = DefaultStackSize
	c.Output.Color = true
	c.Output.Log = "info"
	return c
}

// Load reads and parses path, starting from Default() so unset TOML
// fields keep their default values.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}
