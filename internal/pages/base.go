// Package pages holds the page objects of the retail site: what to click,
// what to type and where results are read from.
package pages

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/adyen/booksearch/internal/browser"
)

// DefaultBaseURL is the storefront home page
const DefaultBaseURL = "https://www.amazon.com/"

// Locators shared by every page listing books
var (
	ItemsBookNameTag     = browser.ByTag("h2")
	ItemsAuthorStringTag = browser.ByTag("div")
)

// BasePage wraps a session with the element actions pages are built from
type BasePage struct {
	Session browser.Session
	BaseURL string
	Logger  *zap.Logger
}

// NewBasePage creates a page on session rooted at baseURL
func NewBasePage(session browser.Session, baseURL string, logger *zap.Logger) BasePage {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return BasePage{Session: session, BaseURL: baseURL, Logger: logger}
}

// Element finds the first element matching loc
func (p BasePage) Element(ctx context.Context, loc browser.Locator) (browser.Element, error) {
	return p.Session.Find(ctx, loc)
}

// Elements finds every element matching loc
func (p BasePage) Elements(ctx context.Context, loc browser.Locator) ([]browser.Element, error) {
	return p.Session.FindAll(ctx, loc)
}

// OpenBaseURL navigates to the home page
func (p BasePage) OpenBaseURL(ctx context.Context) error {
	return p.GoToURL(ctx, p.BaseURL)
}

func (p BasePage) ClickOnElement(ctx context.Context, loc browser.Locator) error {
	el, err := p.Element(ctx, loc)
	if err != nil {
		return fmt.Errorf("click: %w", err)
	}
	if err := el.Click(ctx); err != nil {
		return fmt.Errorf("click %s: %w", loc, err)
	}
	return nil
}

func (p BasePage) InputText(ctx context.Context, text string, loc browser.Locator) error {
	el, err := p.Element(ctx, loc)
	if err != nil {
		return fmt.Errorf("input: %w", err)
	}
	if err := el.SendKeys(ctx, text); err != nil {
		return fmt.Errorf("input into %s: %w", loc, err)
	}
	return nil
}

func (p BasePage) GoToURL(ctx context.Context, url string) error {
	p.Logger.Debug("opening page", zap.String("url", url))
	return p.Session.Navigate(ctx, url)
}

// Wait pauses for d or until ctx is done
func Wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
