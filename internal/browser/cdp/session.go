// Package cdp drives a local Chrome over the DevTools protocol with chromedp.
// It needs no driver download, only a Chrome or Chromium binary on the host.
package cdp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/adyen/booksearch/internal/browser"
)

// Options describes the Chrome instance Launch starts
type Options struct {
	ExecPath string
	Headless bool
	Width    int
	Height   int
}

// Session is one Chrome tab
type Session struct {
	ctx    context.Context
	cancel context.CancelFunc
	logger *zap.Logger
	wait   time.Duration
	closed bool
}

// Launch starts Chrome and opens a tab sized to the configured window
func Launch(opts Options, logger *zap.Logger) (*Session, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
	)
	if opts.Width > 0 && opts.Height > 0 {
		allocOpts = append(allocOpts, chromedp.WindowSize(opts.Width, opts.Height))
	} else {
		allocOpts = append(allocOpts, chromedp.Flag("start-maximized", true))
	}
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx, chromedp.WithDebugf(logger.Sugar().Debugf))

	// An empty Run starts the browser so launch failures surface here
	if err := chromedp.Run(tabCtx); err != nil {
		tabCancel()
		allocCancel()
		return nil, fmt.Errorf("could not start chrome: %w", err)
	}

	return &Session{
		ctx: tabCtx,
		cancel: func() {
			tabCancel()
			allocCancel()
		},
		logger: logger,
	}, nil
}

func (s *Session) Navigate(ctx context.Context, url string) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	runCtx, cancel := s.runContext(ctx)
	defer cancel()

	if err := chromedp.Run(runCtx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	s.logger.Debug("navigated", zap.String("url", url))
	return nil
}

func (s *Session) Find(ctx context.Context, loc browser.Locator) (browser.Element, error) {
	return s.first(ctx, loc, nil)
}

func (s *Session) FindAll(ctx context.Context, loc browser.Locator) ([]browser.Element, error) {
	return s.all(ctx, loc, nil)
}

func (s *Session) SetImplicitWait(d time.Duration) error {
	if d < 0 {
		return fmt.Errorf("implicit wait cannot be negative")
	}
	s.wait = d
	return nil
}

func (s *Session) ImplicitWait() time.Duration { return s.wait }

// Close closes the tab and shuts Chrome down
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	err := chromedp.Cancel(s.ctx)
	s.cancel()
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("failed to close chrome: %w", err)
	}
	return nil
}

func (s *Session) check(ctx context.Context) error {
	if s.closed {
		return browser.ErrSessionClosed
	}
	return ctx.Err()
}

// runContext derives from the tab context and is also cancelled with ctx.
// Cancelling it stops the action without closing the tab.
func (s *Session) runContext(ctx context.Context) (context.Context, context.CancelFunc) {
	runCtx, cancel := context.WithCancel(s.ctx)
	stop := context.AfterFunc(ctx, cancel)
	return runCtx, func() {
		stop()
		cancel()
	}
}

func (s *Session) first(ctx context.Context, loc browser.Locator, from *cdp.Node) (browser.Element, error) {
	nodes, err := s.nodes(ctx, loc, from)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%s: %w", loc, browser.ErrElementNotFound)
	}
	return &Element{session: s, node: nodes[0]}, nil
}

func (s *Session) all(ctx context.Context, loc browser.Locator, from *cdp.Node) ([]browser.Element, error) {
	nodes, err := s.nodes(ctx, loc, from)
	if err != nil {
		return nil, err
	}
	out := make([]browser.Element, len(nodes))
	for i, n := range nodes {
		out[i] = &Element{session: s, node: n}
	}
	return out, nil
}

// nodes polls for matches until the implicit wait runs out. Running out is
// reported as no matches, not as an error.
func (s *Session) nodes(ctx context.Context, loc browser.Locator, from *cdp.Node) ([]*cdp.Node, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	sel, opts, err := query(loc, from)
	if err != nil {
		return nil, err
	}

	runCtx, cancel := s.runContext(ctx)
	defer cancel()
	if s.wait > 0 {
		var timeoutCancel context.CancelFunc
		runCtx, timeoutCancel = context.WithTimeout(runCtx, s.wait)
		defer timeoutCancel()
	} else {
		opts = append(opts, chromedp.AtLeast(0))
	}

	var nodes []*cdp.Node
	err = chromedp.Run(runCtx, chromedp.Nodes(sel, &nodes, opts...))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", loc, err)
	}
	return nodes, nil
}

// query maps a locator onto a chromedp selector. XPath is evaluated against
// the whole document, so it cannot be scoped to an element.
func query(loc browser.Locator, from *cdp.Node) (string, []chromedp.QueryOption, error) {
	if loc.Strategy == browser.StrategyXPath {
		if loc.Value == "" {
			return "", nil, fmt.Errorf("%w: empty xpath", browser.ErrUnsupportedLocator)
		}
		if from != nil {
			return "", nil, fmt.Errorf("%w: xpath below an element", browser.ErrUnsupportedLocator)
		}
		return loc.Value, []chromedp.QueryOption{chromedp.BySearch}, nil
	}

	css, err := loc.CSS()
	if err != nil {
		return "", nil, err
	}
	opts := []chromedp.QueryOption{chromedp.ByQueryAll}
	if from != nil {
		opts = append(opts, chromedp.FromNode(from))
	}
	return css, opts, nil
}
