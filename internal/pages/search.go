package pages

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/adyen/booksearch/internal/browser"
	"github.com/adyen/booksearch/internal/models"
)

// Search page locators
var (
	FilterButtonID          = browser.ByID("nav-search-dropdown-card")
	BooksOptionInFilter     = browser.ByCSS(`[value="search-alias=stripbooks-intl-ship"]`)
	SearchFieldID           = browser.ByID("twotabsearchtextbox")
	SearchSubmitButtonID    = browser.ByID("nav-search-submit-button")
	ItemsOnSearchResult     = browser.ByCSS(`[data-component-type="s-search-result"]`)
	ItemsTitle              = browser.ByCSS(`[data-cy="title-recipe"]`)
	ItemsPriceWholeClass    = browser.ByClass("a-price-whole")
	ItemsPriceFractionClass = browser.ByClass("a-price-fraction")
	ItemsBestSellerBadge    = browser.ByCSS(`[data-component-type="s-status-badge-component"]`)
)

// Optional fields reported to a MissingFieldFunc
const (
	FieldPrice = "price"
	FieldBadge = "badge"
)

// DefaultOptionalWait is the implicit wait used while looking up optional fields
const DefaultOptionalWait = time.Second

var (
	ErrMissingTitle  = errors.New("search result has no title")
	ErrMissingAuthor = errors.New("search result has no author")
	ErrBookNotFound  = errors.New("expected book not found")
)

// MissingFieldFunc is told about each optional field a result did not have
type MissingFieldFunc func(field string)

// SearchPage is the home page search bar together with the result list it leads to
type SearchPage struct {
	BasePage

	optionalWait time.Duration
	onMissing    MissingFieldFunc
}

// Option configures a SearchPage
type Option func(*SearchPage)

// WithBaseURL points the page at another storefront
func WithBaseURL(u string) Option {
	return func(p *SearchPage) {
		if u != "" {
			p.BaseURL = u
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(p *SearchPage) {
		if l != nil {
			p.Logger = l
		}
	}
}

// WithOptionalWait sets the implicit wait used for price and badge lookups
func WithOptionalWait(d time.Duration) Option {
	return func(p *SearchPage) { p.optionalWait = d }
}

// WithMissingField registers fn to be called for every absent optional field
func WithMissingField(fn MissingFieldFunc) Option {
	return func(p *SearchPage) { p.onMissing = fn }
}

// NewSearchPage creates a search page on session
func NewSearchPage(session browser.Session, opts ...Option) *SearchPage {
	p := &SearchPage{
		BasePage:     NewBasePage(session, DefaultBaseURL, nil),
		optionalWait: DefaultOptionalWait,
		onMissing:    func(string) {},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// SetBookFilter opens the department dropdown and picks Books
func (p *SearchPage) SetBookFilter(ctx context.Context) error {
	if err := p.ClickOnElement(ctx, FilterButtonID); err != nil {
		return fmt.Errorf("open department filter: %w", err)
	}
	if err := p.ClickOnElement(ctx, BooksOptionInFilter); err != nil {
		return fmt.Errorf("select books department: %w", err)
	}
	return nil
}

// InputAndSearch types text into the search field and submits it
func (p *SearchPage) InputAndSearch(ctx context.Context, text string) error {
	if err := p.InputText(ctx, text, SearchFieldID); err != nil {
		return fmt.Errorf("type search query: %w", err)
	}
	if err := p.ClickOnElement(ctx, SearchSubmitButtonID); err != nil {
		return fmt.Errorf("submit search: %w", err)
	}
	return nil
}

// InformationAboutBooks extracts a record from every result on the page
func (p *SearchPage) InformationAboutBooks(ctx context.Context) ([]models.BookRecord, error) {
	items, err := p.Elements(ctx, ItemsOnSearchResult)
	if err != nil {
		return nil, fmt.Errorf("list search results: %w", err)
	}
	p.Logger.Debug("search results found", zap.Int("count", len(items)))
	return p.ExtractRecords(ctx, items)
}

// ExtractRecords turns result items into records, one per item and in the
// same order. A result without title or author fails the whole extraction.
func (p *SearchPage) ExtractRecords(ctx context.Context, items []browser.Element) ([]models.BookRecord, error) {
	records := make([]models.BookRecord, 0, len(items))
	for i, item := range items {
		record, err := p.NameAndAuthor(ctx, item)
		if err != nil {
			return nil, fmt.Errorf("result %d: %w", i, err)
		}

		extras, err := p.PriceAndBestSeller(ctx, item)
		if err != nil {
			return nil, fmt.Errorf("result %d: %w", i, err)
		}
		record = append(record, extras...)

		p.Logger.Debug("extracted book", zap.Int("index", i), zap.Stringer("record", record))
		records = append(records, record)
	}
	return records, nil
}

// NameAndAuthor reads the mandatory title and author of a result. The
// author line is normalized with ClearString.
func (p *SearchPage) NameAndAuthor(ctx context.Context, item browser.Element) (models.BookRecord, error) {
	title, err := item.Find(ctx, ItemsTitle)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMissingTitle, err)
	}

	name, err := textOf(ctx, title, ItemsBookNameTag)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMissingTitle, err)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrMissingTitle
	}

	authorLine, err := textOf(ctx, title, ItemsAuthorStringTag)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMissingAuthor, err)
	}
	author := ClearString(authorLine)
	if strings.TrimSpace(author) == "" {
		return nil, fmt.Errorf("%w: nothing left of %q", ErrMissingAuthor, authorLine)
	}

	return models.NewBookRecord(name, author), nil
}

// PriceAndBestSeller reads the optional prices and best-seller badge of a
// result with the implicit wait lowered, so absent fields cost little. Absent
// or unreadable fields are left out. Only session failures are returned.
func (p *SearchPage) PriceAndBestSeller(ctx context.Context, item browser.Element) ([]string, error) {
	var result []string
	err := browser.WithImplicitWait(p.Session, p.optionalWait, func() error {
		prices, err := p.prices(ctx, item)
		if err != nil {
			return err
		}
		result = append(result, prices...)

		badge, err := p.badge(ctx, item)
		if err != nil {
			return err
		}
		if badge != "" {
			result = append(result, badge)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// prices pairs whole and fraction parts in rendering order. A part that cannot
// be read ends the list; the prices read before it are kept.
func (p *SearchPage) prices(ctx context.Context, item browser.Element) ([]string, error) {
	wholes, err := item.FindAll(ctx, ItemsPriceWholeClass)
	if err != nil {
		return nil, p.absent(ctx, FieldPrice, err)
	}
	fractions, err := item.FindAll(ctx, ItemsPriceFractionClass)
	if err != nil {
		return nil, p.absent(ctx, FieldPrice, err)
	}

	pairs := min(len(wholes), len(fractions))
	if len(wholes) != len(fractions) {
		p.Logger.Debug("unpaired price parts ignored",
			zap.Int("wholes", len(wholes)),
			zap.Int("fractions", len(fractions)),
		)
	}

	prices := make([]string, 0, pairs)
	for i := 0; i < pairs; i++ {
		whole, err := wholes[i].Text(ctx)
		if err != nil {
			return prices, p.absent(ctx, FieldPrice, err)
		}
		fraction, err := fractions[i].Text(ctx)
		if err != nil {
			return prices, p.absent(ctx, FieldPrice, err)
		}
		whole = strings.TrimSuffix(strings.TrimSpace(whole), ".")
		prices = append(prices, whole+"."+strings.TrimSpace(fraction))
	}
	if len(prices) == 0 {
		p.onMissing(FieldPrice)
	}
	return prices, nil
}

func (p *SearchPage) badge(ctx context.Context, item browser.Element) (string, error) {
	el, found, err := browser.Lookup(ctx, item, ItemsBestSellerBadge)
	if err != nil {
		return "", p.absent(ctx, FieldBadge, err)
	}
	if !found {
		p.onMissing(FieldBadge)
		return "", nil
	}
	text, err := el.Text(ctx)
	if err != nil {
		return "", p.absent(ctx, FieldBadge, err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		p.onMissing(FieldBadge)
	}
	return text, nil
}

// absent records an optional field as missing after a failed lookup. It only
// returns an error when the context is done, which no lookup can recover from.
func (p *SearchPage) absent(ctx context.Context, field string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	p.Logger.Debug("optional field unavailable", zap.String("field", field), zap.Error(err))
	p.onMissing(field)
	return nil
}

func textOf(ctx context.Context, scope browser.Finder, loc browser.Locator) (string, error) {
	el, err := scope.Find(ctx, loc)
	if err != nil {
		return "", err
	}
	return el.Text(ctx)
}
