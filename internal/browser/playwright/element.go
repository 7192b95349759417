package playwright

import (
	"context"
	"fmt"

	"github.com/playwright-community/playwright-go"

	"github.com/adyen/booksearch/internal/browser"
)

// selectOptionJS selects an <option> the way a user picking it would and
// reports whether the element was one. Playwright refuses to click options.
const selectOptionJS = `el => {
  if (el.tagName !== 'OPTION') return false;
  el.selected = true;
  const select = el.closest('select');
  if (select) {
    select.dispatchEvent(new Event('input', {bubbles: true}));
    select.dispatchEvent(new Event('change', {bubbles: true}));
  }
  return true;
}`

// Element is a locator pinned to one match
type Element struct {
	session *Session
	loc     playwright.Locator
}

func (e *Element) Find(ctx context.Context, loc browser.Locator) (browser.Element, error) {
	sel, err := selector(loc)
	if err != nil {
		return nil, err
	}
	return e.session.find(ctx, e.loc.Locator(sel), loc)
}

func (e *Element) FindAll(ctx context.Context, loc browser.Locator) ([]browser.Element, error) {
	sel, err := selector(loc)
	if err != nil {
		return nil, err
	}
	return e.session.findAll(ctx, e.loc.Locator(sel))
}

// Text returns the rendered text of the element
func (e *Element) Text(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	text, err := e.loc.InnerText()
	if err != nil {
		return "", fmt.Errorf("failed to read text: %w", err)
	}
	return text, nil
}

func (e *Element) Click(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	selected, err := e.loc.Evaluate(selectOptionJS, nil)
	if err != nil {
		return fmt.Errorf("failed to inspect element: %w", err)
	}
	if ok, _ := selected.(bool); ok {
		return nil
	}
	if err := e.loc.Click(); err != nil {
		return fmt.Errorf("failed to click: %w", err)
	}
	return nil
}

// SendKeys types text key by key, appending to whatever the field holds
func (e *Element) SendKeys(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := e.loc.PressSequentially(text); err != nil {
		return fmt.Errorf("failed to type: %w", err)
	}
	return nil
}
