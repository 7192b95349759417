package static

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/adyen/booksearch/internal/browser"
)

// ErrStaleElement is returned when an element from a previous page is used
var ErrStaleElement = errors.New("element belongs to a page that is no longer loaded")

// Element is a single node of the session's current document
type Element struct {
	session *Session
	sel     *goquery.Selection
}

func (e *Element) Find(ctx context.Context, loc browser.Locator) (browser.Element, error) {
	if err := e.check(); err != nil {
		return nil, err
	}
	return e.session.find(e.sel, loc)
}

func (e *Element) FindAll(ctx context.Context, loc browser.Locator) ([]browser.Element, error) {
	if err := e.check(); err != nil {
		return nil, err
	}
	return e.session.findAll(e.sel, loc)
}

// Text returns the node's text with runs of whitespace collapsed and the ends
// trimmed, which is close to what a browser reports as rendered text.
func (e *Element) Text(ctx context.Context) (string, error) {
	if err := e.check(); err != nil {
		return "", err
	}
	return strings.Join(strings.Fields(e.sel.Text()), " "), nil
}

// Click follows links, selects options and submits forms. Clicking anything
// else does nothing.
func (e *Element) Click(ctx context.Context) error {
	if err := e.check(); err != nil {
		return err
	}

	switch goquery.NodeName(e.sel) {
	case "a":
		href, ok := e.sel.Attr("href")
		if !ok || href == "" || strings.HasPrefix(href, "#") {
			return nil
		}
		return e.session.Navigate(ctx, href)
	case "option":
		return e.selectOption()
	case "button":
		if t := strings.ToLower(e.sel.AttrOr("type", "submit")); t != "submit" {
			return nil
		}
		return e.submit(ctx)
	case "input":
		if t := strings.ToLower(e.sel.AttrOr("type", "text")); t != "submit" && t != "image" {
			return nil
		}
		return e.submit(ctx)
	default:
		return nil
	}
}

// SendKeys appends text to an input or textarea value
func (e *Element) SendKeys(ctx context.Context, text string) error {
	if err := e.check(); err != nil {
		return err
	}
	switch name := goquery.NodeName(e.sel); name {
	case "input", "textarea":
		e.session.values[e.sel.Nodes[0]] = e.session.valueOf(e.sel) + text
		return nil
	default:
		return fmt.Errorf("cannot type into <%s>", name)
	}
}

func (e *Element) check() error {
	if e.session.closed {
		return browser.ErrSessionClosed
	}
	if e.session.doc == nil || e.sel.Length() == 0 || e.root() != e.session.doc.Nodes[0] {
		return ErrStaleElement
	}
	return nil
}

// root walks up to the document node that owns the element
func (e *Element) root() *html.Node {
	n := e.sel.Nodes[0]
	for n.Parent != nil {
		n = n.Parent
	}
	return n
}

func (e *Element) selectOption() error {
	sel := e.sel.ParentsFiltered("select").First()
	if sel.Length() == 0 {
		return nil
	}
	e.session.values[sel.Nodes[0]] = optionValue(e.sel)
	return nil
}

func (e *Element) submit(ctx context.Context) error {
	form := e.sel.Closest("form")
	if form.Length() == 0 {
		return nil
	}

	method := strings.ToUpper(form.AttrOr("method", http.MethodGet))
	if method != http.MethodGet {
		return fmt.Errorf("form method %s is not supported", method)
	}

	action, err := e.session.resolve(form.AttrOr("action", e.session.URL()))
	if err != nil {
		return err
	}

	values := url.Values{}
	form.Find("input[name], select[name], textarea[name]").Each(func(_ int, field *goquery.Selection) {
		if _, disabled := field.Attr("disabled"); disabled {
			return
		}
		name := field.AttrOr("name", "")
		if goquery.NodeName(field) == "input" {
			switch strings.ToLower(field.AttrOr("type", "text")) {
			case "submit", "image", "button", "reset", "file":
				return
			case "checkbox", "radio":
				if _, checked := field.Attr("checked"); !checked {
					return
				}
			}
		}
		values.Add(name, e.session.valueOf(field))
	})
	if name, ok := e.sel.Attr("name"); ok && name != "" {
		values.Add(name, e.sel.AttrOr("value", ""))
	}

	action.RawQuery = values.Encode()
	action.Fragment = ""
	return e.session.Navigate(ctx, action.String())
}

// valueOf returns a form field's current value: what was typed or selected
// during this page load, or else what the markup says.
func (s *Session) valueOf(field *goquery.Selection) string {
	if v, ok := s.values[field.Nodes[0]]; ok {
		return v
	}
	switch goquery.NodeName(field) {
	case "textarea":
		return field.Text()
	case "select":
		opt := field.Find("option[selected]").First()
		if opt.Length() == 0 {
			opt = field.Find("option").First()
		}
		if opt.Length() == 0 {
			return ""
		}
		return optionValue(opt)
	default:
		return field.AttrOr("value", "")
	}
}

func optionValue(opt *goquery.Selection) string {
	if v, ok := opt.Attr("value"); ok {
		return v
	}
	return strings.TrimSpace(opt.Text())
}
