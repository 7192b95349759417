package selenium

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tebeka/selenium"

	"github.com/adyen/booksearch/internal/browser"
)

// mockWebDriver implements the few WebDriver methods the session calls; any
// other method panics through the nil embedded interface.
type mockWebDriver struct {
	selenium.WebDriver

	FindElementFunc  func(by, value string) (selenium.WebElement, error)
	FindElementsFunc func(by, value string) ([]selenium.WebElement, error)

	visited []string
	waits   []time.Duration
	quit    bool
}

func (m *mockWebDriver) Get(url string) error {
	m.visited = append(m.visited, url)
	return nil
}

func (m *mockWebDriver) FindElement(by, value string) (selenium.WebElement, error) {
	return m.FindElementFunc(by, value)
}

func (m *mockWebDriver) FindElements(by, value string) ([]selenium.WebElement, error) {
	return m.FindElementsFunc(by, value)
}

func (m *mockWebDriver) SetImplicitWaitTimeout(d time.Duration) error {
	m.waits = append(m.waits, d)
	return nil
}

func (m *mockWebDriver) Quit() error {
	m.quit = true
	return nil
}

type mockWebElement struct {
	selenium.WebElement
	text string
}

func (m *mockWebElement) Text() (string, error) { return m.text, nil }

var errNoSuchElement = &selenium.Error{Err: "no such element", Message: "Unable to locate element"}

func TestByValue(t *testing.T) {
	tests := []struct {
		loc    browser.Locator
		wantBy string
	}{
		{browser.ByID("ap_email"), selenium.ByID},
		{browser.ByCSS("[data-cy]"), selenium.ByCSSSelector},
		{browser.ByClass("a-price-whole"), selenium.ByClassName},
		{browser.ByTag("h2"), selenium.ByTagName},
		{browser.ByXPath("//h2"), selenium.ByXPATH},
	}

	for _, tt := range tests {
		t.Run(string(tt.loc.Strategy), func(t *testing.T) {
			by, value, err := byValue(tt.loc)
			require.NoError(t, err)
			assert.Equal(t, tt.wantBy, by)
			assert.Equal(t, tt.loc.Value, value)
		})
	}

	_, _, err := byValue(browser.ByID(""))
	assert.ErrorIs(t, err, browser.ErrUnsupportedLocator)
}

func TestSession_FindTranslatesNoSuchElement(t *testing.T) {
	wd := &mockWebDriver{
		FindElementFunc: func(by, value string) (selenium.WebElement, error) {
			return nil, errNoSuchElement
		},
	}
	s := NewSession(wd, nil)

	_, err := s.Find(context.Background(), browser.ByID("missing"))

	assert.ErrorIs(t, err, browser.ErrElementNotFound)
}

func TestSession_FindKeepsOtherErrors(t *testing.T) {
	boom := errors.New("session deleted")
	wd := &mockWebDriver{
		FindElementFunc: func(by, value string) (selenium.WebElement, error) {
			return nil, boom
		},
	}
	s := NewSession(wd, nil)

	_, err := s.Find(context.Background(), browser.ByID("x"))

	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, browser.ErrElementNotFound)
}

func TestSession_FindAll(t *testing.T) {
	wd := &mockWebDriver{
		FindElementsFunc: func(by, value string) ([]selenium.WebElement, error) {
			if value == "missing" {
				return nil, errNoSuchElement
			}
			return []selenium.WebElement{&mockWebElement{text: "a"}, &mockWebElement{text: "b"}}, nil
		},
	}
	s := NewSession(wd, nil)
	ctx := context.Background()

	els, err := s.FindAll(ctx, browser.ByClass("item"))
	require.NoError(t, err)
	require.Len(t, els, 2)
	text, err := els[1].Text(ctx)
	require.NoError(t, err)
	assert.Equal(t, "b", text)

	none, err := s.FindAll(ctx, browser.ByClass("missing"))
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSession_ImplicitWaitIsForwarded(t *testing.T) {
	wd := &mockWebDriver{}
	s := NewSession(wd, nil)

	err := browser.WithImplicitWait(s, time.Second, func() error { return nil })

	require.NoError(t, err)
	assert.Equal(t, []time.Duration{time.Second, 0}, wd.waits)
	assert.Equal(t, time.Duration(0), s.ImplicitWait())
}

func TestSession_NavigateAndClose(t *testing.T) {
	wd := &mockWebDriver{}
	s := NewSession(wd, nil)

	require.NoError(t, s.Navigate(context.Background(), "https://www.amazon.com/"))
	require.NoError(t, s.Close())

	assert.Equal(t, []string{"https://www.amazon.com/"}, wd.visited)
	assert.True(t, wd.quit)
}
