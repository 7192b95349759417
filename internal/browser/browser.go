// Package browser defines the boundary between page objects and whatever is
// driving the browser. Page objects only ever see Session and Element; the
// backends under this directory adapt a concrete automation library to them.
package browser

import (
	"context"
	"errors"
	"time"
)

// Errors returned by every backend
var (
	ErrElementNotFound    = errors.New("element not found")
	ErrUnsupportedLocator = errors.New("locator strategy not supported by this backend")
	ErrSessionClosed      = errors.New("browser session is closed")
)

// Finder locates elements relative to a scope: the whole document for a
// Session, the element's subtree for an Element.
//
// Find waits up to the session's implicit wait for a match and returns
// ErrElementNotFound (possibly wrapped) when there is none. FindAll waits the
// same way but reports no match as an empty slice.
type Finder interface {
	Find(ctx context.Context, loc Locator) (Element, error)
	FindAll(ctx context.Context, loc Locator) ([]Element, error)
}

// Element is a handle to one rendered node
type Element interface {
	Finder
	Text(ctx context.Context) (string, error)
	Click(ctx context.Context) error
	SendKeys(ctx context.Context, text string) error
}

// Session is a live browser tab
type Session interface {
	Finder
	Navigate(ctx context.Context, url string) error
	SetImplicitWait(d time.Duration) error
	ImplicitWait() time.Duration
	Close() error
}

// Lookup is Find for optional elements: a missing element is reported as
// found == false instead of an error. Other failures are still returned.
func Lookup(ctx context.Context, scope Finder, loc Locator) (Element, bool, error) {
	el, err := scope.Find(ctx, loc)
	if errors.Is(err, ErrElementNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return el, true, nil
}

// WithImplicitWait runs fn with the session's implicit wait lowered to d and
// restores the previous value afterwards, whatever fn returns.
func WithImplicitWait(s Session, d time.Duration, fn func() error) error {
	previous := s.ImplicitWait()
	if err := s.SetImplicitWait(d); err != nil {
		return err
	}
	fnErr := fn()
	if err := s.SetImplicitWait(previous); err != nil && fnErr == nil {
		return err
	}
	return fnErr
}
