// CLAUDE:SUMMARY Defines wardfinder config structs, parses YAML files, applies defaults and env overrides.
// Package config handles wardfinder configuration from YAML files and the environment.
package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultTargetURL is the city's ward and alderperson lookup form.
const DefaultTargetURL = "https://www.chicago.gov/city/en/depts/mayor/iframe/lookup_ward_and_alderman.html"

// DefaultOpenDataURL is the Socrata endpoint of the Ward Offices dataset.
const DefaultOpenDataURL = "https://data.cityofchicago.org/resource/htai-wnw4.json"

// Config is the top-level wardfinder configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Browser  BrowserConfig  `yaml:"browser"`
	Form     FormConfig     `yaml:"form"`
	Timeouts TimeoutConfig  `yaml:"timeouts"`
	OpenData OpenDataConfig `yaml:"opendata"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// BrowserConfig controls how each lookup launches its Chrome session.
type BrowserConfig struct {
	Remote           string   `yaml:"remote"` // ws:// URL of an external Chrome; empty = launch locally
	Bin              string   `yaml:"bin"`    // Chrome binary; empty = launcher lookup/download
	Headless         *bool    `yaml:"headless"`
	Stealth          bool     `yaml:"stealth"`
	ResourceBlocking []string `yaml:"resource_blocking"`
}

// IsHeadless reports whether Chrome runs headless. Default: true.
func (b BrowserConfig) IsHeadless() bool {
	return b.Headless == nil || *b.Headless
}

// FormConfig points at the third-party lookup form.
type FormConfig struct {
	TargetURL string `yaml:"target_url"`
}

// TimeoutConfig bounds the three wait points of a lookup.
type TimeoutConfig struct {
	Navigation time.Duration `yaml:"navigation"`
	Input      time.Duration `yaml:"input"`
	Results    time.Duration `yaml:"results"`
	Poll       time.Duration `yaml:"poll"`
}

// OpenDataConfig configures the Ward Offices enrichment call.
type OpenDataConfig struct {
	BaseURL          string        `yaml:"base_url"`
	AppToken         string        `yaml:"app_token"`
	Timeout          time.Duration `yaml:"timeout"`
	BreakerThreshold int           `yaml:"breaker_threshold"`
	BreakerReset     time.Duration `yaml:"breaker_reset"`
}

// Default returns a Config with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// LoadFile reads a YAML configuration file.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes YAML bytes and applies defaults.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}

// ApplyDefaults fills every zero field.
func (c *Config) ApplyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Form.TargetURL == "" {
		c.Form.TargetURL = DefaultTargetURL
	}
	if c.Browser.ResourceBlocking == nil {
		c.Browser.ResourceBlocking = []string{"images", "fonts", "media"}
	}
	if c.Timeouts.Navigation <= 0 {
		c.Timeouts.Navigation = 30 * time.Second
	}
	if c.Timeouts.Input <= 0 {
		c.Timeouts.Input = 10 * time.Second
	}
	if c.Timeouts.Results <= 0 {
		c.Timeouts.Results = 15 * time.Second
	}
	if c.Timeouts.Poll <= 0 {
		c.Timeouts.Poll = 250 * time.Millisecond
	}
	if c.OpenData.BaseURL == "" {
		c.OpenData.BaseURL = DefaultOpenDataURL
	}
	if c.OpenData.Timeout <= 0 {
		c.OpenData.Timeout = 10 * time.Second
	}
	if c.OpenData.BreakerThreshold <= 0 {
		c.OpenData.BreakerThreshold = 5
	}
	if c.OpenData.BreakerReset <= 0 {
		c.OpenData.BreakerReset = 30 * time.Second
	}
}

// ApplyEnv overrides fields from environment variables. lookup is usually
// os.Getenv; tests pass a map lookup.
func (c *Config) ApplyEnv(lookup func(string) string) {
	if v := lookup("PORT"); v != "" {
		c.Server.Addr = ":" + v
	}
	if v := lookup("WARDFINDER_TARGET_URL"); v != "" {
		c.Form.TargetURL = v
	}
	if v := lookup("WARDFINDER_BROWSER_REMOTE"); v != "" {
		c.Browser.Remote = v
	}
	if v := lookup("WARDFINDER_OPENDATA_URL"); v != "" {
		c.OpenData.BaseURL = v
	}
	if v := lookup("SOCRATA_APP_TOKEN"); v != "" {
		c.OpenData.AppToken = v
	}
}
