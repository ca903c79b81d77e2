package wardlookup

import (
	"os"

	"github.com/hazyhaar/wardfinder/wardlookup/internal/config"
)

// Config is the top-level wardfinder configuration. Re-exported from internal.
type Config = config.Config

// BrowserConfig controls how each lookup launches Chrome.
type BrowserConfig = config.BrowserConfig

// TimeoutConfig bounds the wait points of a lookup.
type TimeoutConfig = config.TimeoutConfig

// OpenDataConfig configures the Ward Offices enrichment.
type OpenDataConfig = config.OpenDataConfig

// DefaultConfig returns a Config with every default applied.
func DefaultConfig() *Config { return config.Default() }

// LoadConfigFile reads a YAML configuration file.
func LoadConfigFile(path string) (*Config, error) {
	return config.LoadFile(path)
}

// ApplyEnv overrides cfg from the process environment.
func ApplyEnv(cfg *Config) { cfg.ApplyEnv(os.Getenv) }
