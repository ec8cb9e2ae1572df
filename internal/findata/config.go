package findata

import (
	"os"
	"strconv"
	"time"
)

const (
	defaultBaseURL = "https://www.alphavantage.co/query"
	defaultTimeout = 30 * time.Second
)

// Config controls the Alpha Vantage client.
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// LoadConfig reads client settings from the environment.
func LoadConfig() Config {
	cfg := Config{
		APIKey:  os.Getenv("ALPHAVANTAGE_API_KEY"),
		BaseURL: os.Getenv("ALPHAVANTAGE_BASE_URL"),
		Timeout: defaultTimeout,
	}
	if raw := os.Getenv("ALPHAVANTAGE_TIMEOUT"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			cfg.Timeout = d
		} else if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
			cfg.Timeout = time.Duration(secs) * time.Second
		}
	}
	cfg.applyDefaults()
	return cfg
}

// Merge overlays non-zero fields from other onto the receiver.
func (c Config) Merge(other Config) Config {
	merged := c
	if other.APIKey != "" {
		merged.APIKey = other.APIKey
	}
	if other.BaseURL != "" {
		merged.BaseURL = other.BaseURL
	}
	if other.Timeout > 0 {
		merged.Timeout = other.Timeout
	}
	return merged
}

func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
}

// Enabled reports whether an API key is configured.
func (c Config) Enabled() bool {
	return c.APIKey != ""
}
