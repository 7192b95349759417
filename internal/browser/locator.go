package browser

import (
	"fmt"
	"strings"
)

// Strategy is how a Locator's value is interpreted
type Strategy string

// Supported strategies
const (
	StrategyID    Strategy = "id"
	StrategyCSS   Strategy = "css"
	StrategyClass Strategy = "class"
	StrategyTag   Strategy = "tag"
	StrategyXPath Strategy = "xpath"
)

// Locator identifies how to find an element
type Locator struct {
	Strategy Strategy
	Value    string
}

// ByID locates by element id
func ByID(id string) Locator { return Locator{Strategy: StrategyID, Value: id} }

// ByCSS locates by CSS selector
func ByCSS(selector string) Locator { return Locator{Strategy: StrategyCSS, Value: selector} }

// ByClass locates by a single class name
func ByClass(class string) Locator { return Locator{Strategy: StrategyClass, Value: class} }

// ByTag locates by tag name
func ByTag(tag string) Locator { return Locator{Strategy: StrategyTag, Value: tag} }

// ByXPath locates by XPath expression
func ByXPath(expr string) Locator { return Locator{Strategy: StrategyXPath, Value: expr} }

// CSS translates the locator to an equivalent CSS selector. XPath locators
// have no CSS form and return ErrUnsupportedLocator.
func (l Locator) CSS() (string, error) {
	if l.Value == "" {
		return "", fmt.Errorf("%w: empty %s locator", ErrUnsupportedLocator, l.Strategy)
	}
	switch l.Strategy {
	case StrategyCSS:
		return l.Value, nil
	case StrategyID:
		return "#" + escapeIdent(l.Value), nil
	case StrategyClass:
		return "." + escapeIdent(l.Value), nil
	case StrategyTag:
		return l.Value, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedLocator, l.Strategy)
	}
}

// String formats the locator as strategy=value
func (l Locator) String() string {
	return fmt.Sprintf("%s=%s", l.Strategy, l.Value)
}

// escapeIdent escapes the characters that would end a CSS identifier early.
// Ids and class names in the wild are plain enough that this covers them.
func escapeIdent(s string) string {
	var b strings.Builder
	for i, r := range s {
		switch {
		case r == '-' || r == '_' || r >= 0x80:
			b.WriteRune(r)
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			if i == 0 {
				fmt.Fprintf(&b, `\3%c `, r)
			} else {
				b.WriteRune(r)
			}
		default:
			b.WriteByte('\\')
			b.WriteRune(r)
		}
	}
	return b.String()
}
