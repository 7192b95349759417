package cli

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/adyen/booksearch/internal/browser"
	"github.com/adyen/booksearch/internal/config"
	"github.com/adyen/booksearch/internal/scenario"
)

// SessionOpener starts a browser session for a configuration
type SessionOpener func(cfg *config.BrowserConfig, logger *zap.Logger) (browser.Session, error)

// CheckDependencies holds all dependencies needed for one search check
type CheckDependencies struct {
	BrowserConfig  *config.BrowserConfig
	ScenarioConfig *config.ScenarioConfig
	Logger         *zap.Logger
	OpenSession    SessionOpener
}

// RunCheck opens a browser, runs the search scenario once and closes the
// browser again. Metrics are written to the configured file whatever the
// outcome. A missing book is reported as an error wrapping
// pages.ErrBookNotFound, alongside the result.
func RunCheck(ctx context.Context, deps CheckDependencies) (*scenario.Result, error) {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	session, err := deps.OpenSession(deps.BrowserConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open browser: %w", err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			logger.Warn("failed to close browser", zap.Error(err))
		}
	}()

	metrics := scenario.NewMetrics()
	result, err := scenario.Run(ctx, scenario.Deps{
		Session:      session,
		Logger:       logger,
		Metrics:      metrics,
		BaseURL:      deps.BrowserConfig.BaseURL,
		OptionalWait: deps.BrowserConfig.OptionalWait,
		SettleDelay:  deps.BrowserConfig.SettleDelay,
	}, scenario.Request{
		Query:    deps.ScenarioConfig.Query,
		Expected: deps.ScenarioConfig.Expected,
	})

	if path := deps.ScenarioConfig.MetricsFile; path != "" {
		if werr := metrics.WriteTextfile(path); werr != nil {
			logger.Error("failed to write metrics", zap.String("path", path), zap.Error(werr))
			if err == nil {
				err = fmt.Errorf("failed to write metrics: %w", werr)
			}
		} else {
			logger.Debug("metrics written", zap.String("path", path))
		}
	}

	return result, err
}
