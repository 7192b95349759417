// Package playwright adapts a playwright-go page to browser.Session.
package playwright

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"

	"github.com/adyen/booksearch/internal/browser"
)

// Engine names accepted by Launch
const (
	EngineChromium = "chromium"
	EngineFirefox  = "firefox"
	EngineWebKit   = "webkit"
)

// LaunchOptions describes the browser Launch starts
type LaunchOptions struct {
	Engine   string
	Channel  string // e.g. "msedge" for Edge on top of chromium
	Headless bool
	Width    int
	Height   int
}

// Session is a single page. When created by Launch it also owns the browser
// and the playwright driver and stops them on Close.
type Session struct {
	page   playwright.Page
	logger *zap.Logger
	wait   time.Duration

	browser playwright.Browser
	pw      *playwright.Playwright
	owned   bool
}

// Launch starts playwright and a browser, then opens a maximized page in it
func Launch(opts LaunchOptions, logger *zap.Logger) (*Session, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("could not start playwright: %w", err)
	}

	var browserType playwright.BrowserType
	switch opts.Engine {
	case EngineChromium, "":
		browserType = pw.Chromium
	case EngineFirefox:
		browserType = pw.Firefox
	case EngineWebKit:
		browserType = pw.WebKit
	default:
		pw.Stop()
		return nil, fmt.Errorf("unknown playwright engine %q", opts.Engine)
	}

	launch := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
	}
	if opts.Channel != "" {
		launch.Channel = playwright.String(opts.Channel)
	}
	if !opts.Headless && browserType == pw.Chromium {
		launch.Args = []string{"--start-maximized"}
	}

	b, err := browserType.Launch(launch)
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("could not launch %s: %w", browserType.Name(), err)
	}

	s, err := NewSession(b, opts.Width, opts.Height, logger)
	if err != nil {
		b.Close()
		pw.Stop()
		return nil, err
	}
	s.pw = pw
	s.owned = true
	return s, nil
}

// NewSession opens a page in an already running browser. The viewport is
// width x height when both are positive, otherwise the browser's own size.
func NewSession(b playwright.Browser, width, height int, logger *zap.Logger) (*Session, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	pageOpts := playwright.BrowserNewPageOptions{}
	if width > 0 && height > 0 {
		pageOpts.Viewport = &playwright.Size{Width: width, Height: height}
	} else {
		pageOpts.NoViewport = playwright.Bool(true)
	}

	page, err := b.NewPage(pageOpts)
	if err != nil {
		return nil, fmt.Errorf("could not create page: %w", err)
	}
	return &Session{page: page, browser: b, logger: logger}, nil
}

// Page exposes the underlying page for callers that need playwright directly
func (s *Session) Page() playwright.Page { return s.page }

func (s *Session) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := s.page.Goto(url); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	s.logger.Debug("navigated", zap.String("url", url))
	return nil
}

func (s *Session) Find(ctx context.Context, loc browser.Locator) (browser.Element, error) {
	sel, err := selector(loc)
	if err != nil {
		return nil, err
	}
	return s.find(ctx, s.page.Locator(sel), loc)
}

func (s *Session) FindAll(ctx context.Context, loc browser.Locator) ([]browser.Element, error) {
	sel, err := selector(loc)
	if err != nil {
		return nil, err
	}
	return s.findAll(ctx, s.page.Locator(sel))
}

func (s *Session) SetImplicitWait(d time.Duration) error {
	if d < 0 {
		return fmt.Errorf("implicit wait cannot be negative")
	}
	s.wait = d
	return nil
}

func (s *Session) ImplicitWait() time.Duration { return s.wait }

// Close closes the page, and the browser and driver when Launch started them
func (s *Session) Close() error {
	var errs []error
	if err := s.page.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close page: %w", err))
	}
	if s.owned {
		if err := s.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close browser: %w", err))
		}
		if err := s.pw.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stop playwright: %w", err))
		}
	}
	return errors.Join(errs...)
}

// find waits up to the implicit wait for the first match of loc to be attached
func (s *Session) find(ctx context.Context, matches playwright.Locator, loc browser.Locator) (browser.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	first := matches.First()
	found, err := s.waitAttached(first)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%s: %w", loc, browser.ErrElementNotFound)
	}
	return &Element{session: s, loc: first}, nil
}

func (s *Session) findAll(ctx context.Context, matches playwright.Locator) ([]browser.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	found, err := s.waitAttached(matches.First())
	if err != nil {
		return nil, err
	}
	if !found {
		return []browser.Element{}, nil
	}

	all, err := matches.All()
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	out := make([]browser.Element, len(all))
	for i, l := range all {
		out[i] = &Element{session: s, loc: l}
	}
	return out, nil
}

// waitAttached reports whether loc matches something within the implicit wait
func (s *Session) waitAttached(loc playwright.Locator) (bool, error) {
	if s.wait <= 0 {
		n, err := loc.Count()
		if err != nil {
			return false, fmt.Errorf("failed to count matches: %w", err)
		}
		return n > 0, nil
	}

	err := loc.WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateAttached,
		Timeout: playwright.Float(float64(s.wait.Milliseconds())),
	})
	if errors.Is(err, playwright.ErrTimeout) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed waiting for element: %w", err)
	}
	return true, nil
}

// selector turns a locator into a playwright selector with an explicit engine
func selector(loc browser.Locator) (string, error) {
	if loc.Strategy == browser.StrategyXPath {
		if loc.Value == "" {
			return "", fmt.Errorf("%w: empty xpath", browser.ErrUnsupportedLocator)
		}
		return "xpath=" + loc.Value, nil
	}
	css, err := loc.CSS()
	if err != nil {
		return "", err
	}
	return "css=" + css, nil
}
