package config

import (
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// Defaults applied when the corresponding variable is unset
const (
	DefaultBrowserName  = "chrome"
	DefaultBaseURL      = "https://www.amazon.com/"
	DefaultImplicitWait = 3 * time.Second
	DefaultOptionalWait = time.Second
	DefaultCacheSize    = 16
)

// BrowserConfig holds configuration for the browser session
type BrowserConfig struct {
	Name         string
	RemoteURL    string
	Headless     bool
	ImplicitWait time.Duration
	OptionalWait time.Duration
	// SettleDelay is a pause after submitting the search, 0 for none
	SettleDelay time.Duration
	// CacheSize is how many pages the static backend keeps
	CacheSize int
	BaseURL   string
}

// LoadBrowserConfig loads browser configuration from environment variables
func LoadBrowserConfig(getenv func(string) string) (*BrowserConfig, error) {
	config := &BrowserConfig{
		Name:         getenv("BROWSER_NAME"),
		RemoteURL:    getenv("BROWSER_REMOTE_URL"),
		Headless:     true,
		ImplicitWait: DefaultImplicitWait,
		OptionalWait: DefaultOptionalWait,
		CacheSize:    DefaultCacheSize,
		BaseURL:      getenv("BASE_URL"),
	}

	if config.Name == "" {
		config.Name = DefaultBrowserName
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}

	if v := getenv("BROWSER_HEADLESS"); v != "" {
		headless, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid BROWSER_HEADLESS: %w", err)
		}
		config.Headless = headless
	}

	var err error
	if config.ImplicitWait, err = duration(getenv, "BROWSER_IMPLICIT_WAIT", config.ImplicitWait); err != nil {
		return nil, err
	}
	if config.OptionalWait, err = duration(getenv, "BROWSER_OPTIONAL_WAIT", config.OptionalWait); err != nil {
		return nil, err
	}
	if config.SettleDelay, err = duration(getenv, "BROWSER_SETTLE_DELAY", config.SettleDelay); err != nil {
		return nil, err
	}

	if v := getenv("BROWSER_CACHE_SIZE"); v != "" {
		size, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid BROWSER_CACHE_SIZE: %w", err)
		}
		config.CacheSize = size
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks fields that flags may have overridden after loading
func (c *BrowserConfig) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid BASE_URL %q", c.BaseURL)
	}
	if c.RemoteURL != "" {
		if u, err := url.Parse(c.RemoteURL); err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid BROWSER_REMOTE_URL %q", c.RemoteURL)
		}
	}
	if c.CacheSize < 1 {
		return fmt.Errorf("invalid BROWSER_CACHE_SIZE %d: must be at least 1", c.CacheSize)
	}
	return nil
}

// duration parses a Go duration, or whole seconds when the value has no unit
func duration(getenv func(string) string, key string, fallback time.Duration) (time.Duration, error) {
	v := getenv(key)
	if v == "" {
		return fallback, nil
	}
	if secs, err := strconv.Atoi(v); err == nil {
		v = strconv.Itoa(secs) + "s"
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid %s: must not be negative", key)
	}
	return d, nil
}
