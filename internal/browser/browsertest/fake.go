// Package browsertest provides in-memory Session and Element fakes for tests
// that need to control lookups directly rather than parse HTML.
package browsertest

import (
	"context"
	"fmt"
	"time"

	"github.com/adyen/booksearch/internal/browser"
)

// MockElement is a browser.Element whose behavior is set per test.
// Children maps a locator to the elements Find/FindAll return for it; a
// locator with no entry is not found. FindFunc and FindAllFunc, when set,
// take precedence over Children.
type MockElement struct {
	Name         string
	Content      string
	Children     map[browser.Locator][]*MockElement
	TextErr      error
	FindFunc     func(ctx context.Context, loc browser.Locator) (browser.Element, error)
	FindAllFunc  func(ctx context.Context, loc browser.Locator) ([]browser.Element, error)
	ClickFunc    func(ctx context.Context) error
	SendKeysFunc func(ctx context.Context, text string) error

	Clicks int
	Typed  []string
}

// NewElement creates an element with the given text
func NewElement(name, text string) *MockElement {
	return &MockElement{Name: name, Content: text, Children: map[browser.Locator][]*MockElement{}}
}

// With adds children under loc and returns e for chaining
func (e *MockElement) With(loc browser.Locator, children ...*MockElement) *MockElement {
	if e.Children == nil {
		e.Children = map[browser.Locator][]*MockElement{}
	}
	e.Children[loc] = append(e.Children[loc], children...)
	return e
}

func (e *MockElement) Find(ctx context.Context, loc browser.Locator) (browser.Element, error) {
	if e.FindFunc != nil {
		return e.FindFunc(ctx, loc)
	}
	children := e.Children[loc]
	if len(children) == 0 {
		return nil, fmt.Errorf("%s under %q: %w", loc, e.Name, browser.ErrElementNotFound)
	}
	return children[0], nil
}

func (e *MockElement) FindAll(ctx context.Context, loc browser.Locator) ([]browser.Element, error) {
	if e.FindAllFunc != nil {
		return e.FindAllFunc(ctx, loc)
	}
	children := e.Children[loc]
	out := make([]browser.Element, len(children))
	for i, c := range children {
		out[i] = c
	}
	return out, nil
}

func (e *MockElement) Text(ctx context.Context) (string, error) {
	if e.TextErr != nil {
		return "", e.TextErr
	}
	return e.Content, nil
}

func (e *MockElement) Click(ctx context.Context) error {
	e.Clicks++
	if e.ClickFunc != nil {
		return e.ClickFunc(ctx)
	}
	return nil
}

func (e *MockElement) SendKeys(ctx context.Context, text string) error {
	e.Typed = append(e.Typed, text)
	if e.SendKeysFunc != nil {
		return e.SendKeysFunc(ctx, text)
	}
	return nil
}

// MockSession is a browser.Session rooted at a MockElement document.
// Every implicit-wait change is recorded in WaitHistory.
type MockSession struct {
	Document     *MockElement
	NavigateFunc func(ctx context.Context, url string) error

	Visited     []string
	WaitHistory []time.Duration
	Closed      bool

	wait time.Duration
}

// NewSession creates a session over an empty document
func NewSession() *MockSession {
	return &MockSession{Document: NewElement("document", "")}
}

func (s *MockSession) Find(ctx context.Context, loc browser.Locator) (browser.Element, error) {
	return s.Document.Find(ctx, loc)
}

func (s *MockSession) FindAll(ctx context.Context, loc browser.Locator) ([]browser.Element, error) {
	return s.Document.FindAll(ctx, loc)
}

func (s *MockSession) Navigate(ctx context.Context, url string) error {
	s.Visited = append(s.Visited, url)
	if s.NavigateFunc != nil {
		return s.NavigateFunc(ctx, url)
	}
	return nil
}

func (s *MockSession) SetImplicitWait(d time.Duration) error {
	s.wait = d
	s.WaitHistory = append(s.WaitHistory, d)
	return nil
}

func (s *MockSession) ImplicitWait() time.Duration { return s.wait }

func (s *MockSession) Close() error {
	s.Closed = true
	return nil
}
