// Package static is a browser.Session over parsed HTML. It fetches pages with
// a plain HTTP client, runs no scripts and renders nothing, but it follows
// links and submits GET forms, which is all a server-rendered search flow
// needs. It backs offline runs against the fixture storefront and the page
// object tests.
package static

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/adyen/booksearch/internal/browser"
)

const (
	defaultCacheSize = 16
	userAgent        = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
)

// Session holds the current document plus any form state typed or selected
// into it. Form state is dropped on every navigation.
type Session struct {
	client    *http.Client
	logger    *zap.Logger
	cache     *lru.Cache[string, *goquery.Document]
	cacheSize int

	doc     *goquery.Document
	current *url.URL
	values  map[*html.Node]string
	wait    time.Duration
	closed  bool
}

// Option configures a Session
type Option func(*Session)

// WithHTTPClient sets the client used for navigation
func WithHTTPClient(c *http.Client) Option {
	return func(s *Session) {
		if c != nil {
			s.client = c
		}
	}
}

// WithCacheSize sets how many fetched documents are kept. Values below 1 are ignored.
func WithCacheSize(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.cacheSize = n
		}
	}
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a session with no page loaded
func New(opts ...Option) (*Session, error) {
	s := &Session{
		client:    &http.Client{Timeout: 30 * time.Second},
		logger:    zap.NewNop(),
		cacheSize: defaultCacheSize,
		values:    make(map[*html.Node]string),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	cache, err := lru.New[string, *goquery.Document](s.cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create page cache: %w", err)
	}
	s.cache = cache
	return s, nil
}

// SetContent loads markup directly, as if it had been served from baseURL
func (s *Session) SetContent(baseURL, markup string) error {
	if s.closed {
		return browser.ErrSessionClosed
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return fmt.Errorf("invalid base url: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return fmt.Errorf("failed to parse page: %w", err)
	}
	doc.Url = u
	s.load(u, doc)
	return nil
}

// Navigate fetches rawURL, resolved against the current page, and makes it
// current. A URL already visited in this session is served from the cache
// without a new request, like a browser's back-forward cache. Every visit
// loads a fresh copy of the document, so elements found before it are stale.
func (s *Session) Navigate(ctx context.Context, rawURL string) error {
	if s.closed {
		return browser.ErrSessionClosed
	}
	u, err := s.resolve(rawURL)
	if err != nil {
		return err
	}

	key := u.String()
	if doc, ok := s.cache.Get(key); ok {
		s.logger.Debug("page served from cache", zap.String("url", key))
		s.load(u, goquery.CloneDocument(doc))
		return nil
	}

	doc, err := s.fetch(ctx, u)
	if err != nil {
		return err
	}
	s.cache.Add(key, doc)
	s.load(u, doc)
	s.logger.Debug("page loaded", zap.String("url", key))
	return nil
}

// URL returns the address of the current page, or "" before the first load
func (s *Session) URL() string {
	if s.current == nil {
		return ""
	}
	return s.current.String()
}

func (s *Session) Find(ctx context.Context, loc browser.Locator) (browser.Element, error) {
	root, err := s.root()
	if err != nil {
		return nil, err
	}
	return s.find(root, loc)
}

func (s *Session) FindAll(ctx context.Context, loc browser.Locator) ([]browser.Element, error) {
	root, err := s.root()
	if err != nil {
		return nil, err
	}
	return s.findAll(root, loc)
}

// SetImplicitWait records d. Parsed HTML never changes under the session, so
// there is nothing to wait for.
func (s *Session) SetImplicitWait(d time.Duration) error {
	if d < 0 {
		return fmt.Errorf("implicit wait cannot be negative")
	}
	s.wait = d
	return nil
}

func (s *Session) ImplicitWait() time.Duration { return s.wait }

// Close drops the cached pages. Further calls return browser.ErrSessionClosed.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.cache.Purge()
	s.doc = nil
	return nil
}

func (s *Session) fetch(ctx context.Context, u *url.URL) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", u, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("failed to fetch %s: status %d", u, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", u, err)
	}
	doc.Url = u
	return doc, nil
}

func (s *Session) load(u *url.URL, doc *goquery.Document) {
	s.current = u
	s.doc = doc
	s.values = make(map[*html.Node]string)
}

func (s *Session) resolve(rawURL string) (*url.URL, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid url %q: %w", rawURL, err)
	}
	if s.current != nil {
		u = s.current.ResolveReference(u)
	}
	if !u.IsAbs() {
		return nil, fmt.Errorf("cannot navigate to relative url %q before a page is loaded", rawURL)
	}
	return u, nil
}

func (s *Session) root() (*goquery.Selection, error) {
	if s.closed {
		return nil, browser.ErrSessionClosed
	}
	if s.doc == nil {
		return nil, fmt.Errorf("no page loaded")
	}
	return s.doc.Selection, nil
}

func (s *Session) find(scope *goquery.Selection, loc browser.Locator) (browser.Element, error) {
	css, err := loc.CSS()
	if err != nil {
		return nil, err
	}
	match := scope.Find(css).First()
	if match.Length() == 0 {
		return nil, fmt.Errorf("%s: %w", loc, browser.ErrElementNotFound)
	}
	return &Element{session: s, sel: match}, nil
}

func (s *Session) findAll(scope *goquery.Selection, loc browser.Locator) ([]browser.Element, error) {
	css, err := loc.CSS()
	if err != nil {
		return nil, err
	}
	matches := scope.Find(css)
	out := make([]browser.Element, 0, matches.Length())
	matches.Each(func(_ int, sel *goquery.Selection) {
		out = append(out, &Element{session: s, sel: sel})
	})
	return out, nil
}
