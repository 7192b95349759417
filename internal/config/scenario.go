package config

import "github.com/adyen/booksearch/internal/models"

// DefaultSearchQuery is the keyword searched when SEARCH_QUERY is unset
const DefaultSearchQuery = "Java"

// ScenarioConfig holds what to search for and which book must come back
type ScenarioConfig struct {
	Query       string
	Expected    models.VerificationTuple
	MetricsFile string
}

// LoadScenarioConfig loads scenario configuration from environment variables.
// Each expected field falls back to the Head First Java listing on its own.
func LoadScenarioConfig(getenv func(string) string) *ScenarioConfig {
	config := &ScenarioConfig{
		Query:       getenv("SEARCH_QUERY"),
		Expected:    models.HeadFirstJava,
		MetricsFile: getenv("METRICS_FILE"),
	}

	if config.Query == "" {
		config.Query = DefaultSearchQuery
	}
	if v := getenv("EXPECTED_TITLE"); v != "" {
		config.Expected.Title = v
	}
	// The author is not trimmed: its surrounding spaces are part of the match
	if v := getenv("EXPECTED_AUTHOR"); v != "" {
		config.Expected.Author = v
	}
	if v := getenv("EXPECTED_PRICE_LOW"); v != "" {
		config.Expected.PriceLow = v
	}
	if v := getenv("EXPECTED_PRICE_HIGH"); v != "" {
		config.Expected.PriceHigh = v
	}

	return config
}
