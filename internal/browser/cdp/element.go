package cdp

import (
	"context"
	"fmt"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"

	"github.com/adyen/booksearch/internal/browser"
)

// selectOptionFn runs with the clicked node as this
const selectOptionFn = `function() {
  if (this.tagName !== 'OPTION') return false;
  this.selected = true;
  const select = this.closest('select');
  if (select) {
    select.dispatchEvent(new Event('input', {bubbles: true}));
    select.dispatchEvent(new Event('change', {bubbles: true}));
  }
  return true;
}`

// Element is a DOM node of the session's tab
type Element struct {
	session *Session
	node    *cdp.Node
}

func (e *Element) Find(ctx context.Context, loc browser.Locator) (browser.Element, error) {
	return e.session.first(ctx, loc, e.node)
}

func (e *Element) FindAll(ctx context.Context, loc browser.Locator) ([]browser.Element, error) {
	return e.session.all(ctx, loc, e.node)
}

func (e *Element) Text(ctx context.Context) (string, error) {
	var text string
	err := e.run(ctx, chromedp.Text([]cdp.NodeID{e.node.NodeID}, &text, chromedp.ByNodeID))
	if err != nil {
		return "", fmt.Errorf("failed to read text: %w", err)
	}
	return text, nil
}

// Click selects the node if it is an <option>, otherwise clicks its center
func (e *Element) Click(ctx context.Context) error {
	if e.node.NodeName == "OPTION" {
		var selected bool
		err := e.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
			return chromedp.CallFunctionOnNode(ctx, e.node, selectOptionFn, &selected)
		}))
		if err != nil {
			return fmt.Errorf("failed to select option: %w", err)
		}
		return nil
	}
	if err := e.run(ctx, chromedp.MouseClickNode(e.node)); err != nil {
		return fmt.Errorf("failed to click: %w", err)
	}
	return nil
}

func (e *Element) SendKeys(ctx context.Context, text string) error {
	err := e.run(ctx, chromedp.SendKeys([]cdp.NodeID{e.node.NodeID}, text, chromedp.ByNodeID))
	if err != nil {
		return fmt.Errorf("failed to type: %w", err)
	}
	return nil
}

func (e *Element) run(ctx context.Context, action chromedp.Action) error {
	if err := e.session.check(ctx); err != nil {
		return err
	}
	runCtx, cancel := e.session.runContext(ctx)
	defer cancel()
	return chromedp.Run(runCtx, action)
}
