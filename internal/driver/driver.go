// Package driver opens the browser session described by a BrowserConfig.
package driver

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/adyen/booksearch/internal/browser"
	"github.com/adyen/booksearch/internal/browser/cdp"
	"github.com/adyen/booksearch/internal/browser/playwright"
	"github.com/adyen/booksearch/internal/browser/selenium"
	"github.com/adyen/booksearch/internal/browser/static"
	"github.com/adyen/booksearch/internal/config"
)

// Browser names accepted in BrowserConfig.Name
const (
	Chrome  = "chrome"
	Firefox = "firefox"
	Edge    = "edge"
	Safari  = "safari"
	CDP     = "cdp"
	Static  = "static"
)

// Window size used when a headless browser has no screen to maximize to
const (
	HeadlessWidth  = 1920
	HeadlessHeight = 1080
)

// ErrUnsupportedBrowser is returned for a name no backend can launch
var ErrUnsupportedBrowser = errors.New("unsupported browser")

// webDriverNames maps browser names to W3C browserName capabilities
var webDriverNames = map[string]string{
	Chrome:  "chrome",
	Firefox: "firefox",
	Edge:    "MicrosoftEdge",
	Safari:  "safari",
}

type launchers struct {
	playwright func(playwright.LaunchOptions, *zap.Logger) (browser.Session, error)
	selenium   func(remoteURL, browserName string, logger *zap.Logger) (browser.Session, error)
	cdp        func(cdp.Options, *zap.Logger) (browser.Session, error)
	static     func(cacheSize int, logger *zap.Logger) (browser.Session, error)
}

var defaultLaunchers = launchers{
	playwright: func(opts playwright.LaunchOptions, logger *zap.Logger) (browser.Session, error) {
		s, err := playwright.Launch(opts, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	},
	selenium: func(remoteURL, browserName string, logger *zap.Logger) (browser.Session, error) {
		s, err := selenium.Dial(remoteURL, selenium.Capabilities(browserName), logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	},
	cdp: func(opts cdp.Options, logger *zap.Logger) (browser.Session, error) {
		s, err := cdp.Launch(opts, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	},
	static: func(cacheSize int, logger *zap.Logger) (browser.Session, error) {
		s, err := static.New(static.WithCacheSize(cacheSize), static.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		return s, nil
	},
}

// New launches the configured browser, maximized, with the configured
// implicit wait. A remote URL selects a WebDriver session on that endpoint.
func New(cfg *config.BrowserConfig, logger *zap.Logger) (browser.Session, error) {
	return newWith(defaultLaunchers, cfg, logger)
}

func newWith(l launchers, cfg *config.BrowserConfig, logger *zap.Logger) (browser.Session, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("browser", cfg.Name))

	session, err := launch(l, cfg, logger)
	if err != nil {
		return nil, err
	}

	if err := session.SetImplicitWait(cfg.ImplicitWait); err != nil {
		session.Close()
		return nil, fmt.Errorf("failed to set implicit wait: %w", err)
	}

	logger.Info("browser session started",
		zap.Bool("remote", cfg.RemoteURL != ""),
		zap.Bool("headless", cfg.Headless),
		zap.Duration("implicit_wait", cfg.ImplicitWait),
	)
	return session, nil
}

func launch(l launchers, cfg *config.BrowserConfig, logger *zap.Logger) (browser.Session, error) {
	if cfg.RemoteURL != "" {
		name, ok := webDriverNames[cfg.Name]
		if !ok {
			return nil, fmt.Errorf("%w: %q cannot run remotely", ErrUnsupportedBrowser, cfg.Name)
		}
		return l.selenium(cfg.RemoteURL, name, logger)
	}

	opts := playwright.LaunchOptions{Headless: cfg.Headless}
	if cfg.Headless {
		opts.Width, opts.Height = HeadlessWidth, HeadlessHeight
	}

	switch cfg.Name {
	case Chrome:
		opts.Engine = playwright.EngineChromium
	case Firefox:
		opts.Engine = playwright.EngineFirefox
	case Edge:
		opts.Engine = playwright.EngineChromium
		opts.Channel = "msedge"
	case Safari:
		opts.Engine = playwright.EngineWebKit
	case CDP:
		return l.cdp(cdp.Options{Headless: cfg.Headless, Width: opts.Width, Height: opts.Height}, logger)
	case Static:
		return l.static(cfg.CacheSize, logger)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedBrowser, cfg.Name)
	}
	return l.playwright(opts, logger)
}
