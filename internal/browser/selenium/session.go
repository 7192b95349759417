// Package selenium adapts a WebDriver session from tebeka/selenium to
// browser.Session. It is used for remote execution against a Selenium grid or
// any standalone WebDriver endpoint.
package selenium

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tebeka/selenium"
	"go.uber.org/zap"

	"github.com/adyen/booksearch/internal/browser"
)

// Capabilities returns the W3C capabilities requesting browserName
func Capabilities(browserName string) selenium.Capabilities {
	return selenium.Capabilities{"browserName": browserName}
}

// Session drives one remote WebDriver session
type Session struct {
	wd     selenium.WebDriver
	logger *zap.Logger
	wait   time.Duration
}

// Dial opens a session on the WebDriver endpoint at remoteURL and maximizes its window
func Dial(remoteURL string, caps selenium.Capabilities, logger *zap.Logger) (*Session, error) {
	wd, err := selenium.NewRemote(caps, remoteURL)
	if err != nil {
		return nil, fmt.Errorf("could not open webdriver session at %s: %w", remoteURL, err)
	}
	if err := wd.MaximizeWindow(""); err != nil {
		wd.Quit()
		return nil, fmt.Errorf("could not maximize window: %w", err)
	}
	return NewSession(wd, logger), nil
}

// NewSession wraps an existing WebDriver
func NewSession(wd selenium.WebDriver, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{wd: wd, logger: logger}
}

func (s *Session) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.wd.Get(url); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	s.logger.Debug("navigated", zap.String("url", url))
	return nil
}

func (s *Session) Find(ctx context.Context, loc browser.Locator) (browser.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	by, value, err := byValue(loc)
	if err != nil {
		return nil, err
	}
	el, err := s.wd.FindElement(by, value)
	if err != nil {
		return nil, translate(loc, err)
	}
	return &Element{el: el}, nil
}

func (s *Session) FindAll(ctx context.Context, loc browser.Locator) ([]browser.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	by, value, err := byValue(loc)
	if err != nil {
		return nil, err
	}
	els, err := s.wd.FindElements(by, value)
	if err != nil {
		if isNoSuchElement(err) {
			return []browser.Element{}, nil
		}
		return nil, translate(loc, err)
	}
	return wrapAll(els), nil
}

// SetImplicitWait forwards d to the remote end, which applies it to every lookup
func (s *Session) SetImplicitWait(d time.Duration) error {
	if d < 0 {
		return fmt.Errorf("implicit wait cannot be negative")
	}
	if err := s.wd.SetImplicitWaitTimeout(d); err != nil {
		return fmt.Errorf("failed to set implicit wait: %w", err)
	}
	s.wait = d
	return nil
}

func (s *Session) ImplicitWait() time.Duration { return s.wait }

// Close ends the remote session
func (s *Session) Close() error {
	if err := s.wd.Quit(); err != nil {
		return fmt.Errorf("failed to quit webdriver session: %w", err)
	}
	return nil
}

// Element wraps a remote element reference
type Element struct {
	el selenium.WebElement
}

func (e *Element) Find(ctx context.Context, loc browser.Locator) (browser.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	by, value, err := byValue(loc)
	if err != nil {
		return nil, err
	}
	child, err := e.el.FindElement(by, value)
	if err != nil {
		return nil, translate(loc, err)
	}
	return &Element{el: child}, nil
}

func (e *Element) FindAll(ctx context.Context, loc browser.Locator) ([]browser.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	by, value, err := byValue(loc)
	if err != nil {
		return nil, err
	}
	children, err := e.el.FindElements(by, value)
	if err != nil {
		if isNoSuchElement(err) {
			return []browser.Element{}, nil
		}
		return nil, translate(loc, err)
	}
	return wrapAll(children), nil
}

func (e *Element) Text(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	text, err := e.el.Text()
	if err != nil {
		return "", fmt.Errorf("failed to read text: %w", err)
	}
	return text, nil
}

func (e *Element) Click(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := e.el.Click(); err != nil {
		return fmt.Errorf("failed to click: %w", err)
	}
	return nil
}

func (e *Element) SendKeys(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := e.el.SendKeys(text); err != nil {
		return fmt.Errorf("failed to type: %w", err)
	}
	return nil
}

func wrapAll(els []selenium.WebElement) []browser.Element {
	out := make([]browser.Element, len(els))
	for i, el := range els {
		out[i] = &Element{el: el}
	}
	return out
}

// byValue maps a locator onto the WebDriver strategy of the same meaning
func byValue(loc browser.Locator) (string, string, error) {
	if loc.Value == "" {
		return "", "", fmt.Errorf("%w: empty %s locator", browser.ErrUnsupportedLocator, loc.Strategy)
	}
	switch loc.Strategy {
	case browser.StrategyID:
		return selenium.ByID, loc.Value, nil
	case browser.StrategyCSS:
		return selenium.ByCSSSelector, loc.Value, nil
	case browser.StrategyClass:
		return selenium.ByClassName, loc.Value, nil
	case browser.StrategyTag:
		return selenium.ByTagName, loc.Value, nil
	case browser.StrategyXPath:
		return selenium.ByXPATH, loc.Value, nil
	default:
		return "", "", fmt.Errorf("%w: %s", browser.ErrUnsupportedLocator, loc.Strategy)
	}
}

func isNoSuchElement(err error) bool {
	var werr *selenium.Error
	return errors.As(err, &werr) && werr.Err == "no such element"
}

func translate(loc browser.Locator, err error) error {
	if isNoSuchElement(err) {
		return fmt.Errorf("%s: %w", loc, browser.ErrElementNotFound)
	}
	return fmt.Errorf("%s: %w", loc, err)
}
