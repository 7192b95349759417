// Package scenario runs the book search check end to end: filter the
// storefront to books, search, extract every result and look for the
// expected book.
package scenario

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/adyen/booksearch/internal/browser"
	"github.com/adyen/booksearch/internal/config"
	"github.com/adyen/booksearch/internal/models"
	"github.com/adyen/booksearch/internal/pages"
)

// Deps holds everything a run needs besides the request
type Deps struct {
	Session      browser.Session
	Logger       *zap.Logger
	Metrics      *Metrics
	BaseURL      string
	// OptionalWait is the implicit wait around price and badge lookups, 0 for none
	OptionalWait time.Duration
	// SettleDelay pauses after the search is submitted, 0 for none
	SettleDelay time.Duration
}

// Request is what to search for and which book must come back
type Request struct {
	Query    string
	Expected models.VerificationTuple
}

// DefaultRequest searches Java books for Head First Java
func DefaultRequest() Request {
	return Request{Query: config.DefaultSearchQuery, Expected: models.HeadFirstJava}
}

// Result describes one run. Match is the index of the matching record, -1 if none.
type Result struct {
	RunID    string
	Records  []models.BookRecord
	Matched  bool
	Match    int
	Duration time.Duration
}

// FilterBooks opens the home page, restricts the search to books and
// searches for query
func FilterBooks(ctx context.Context, page *pages.SearchPage, query string) error {
	if err := page.OpenBaseURL(ctx); err != nil {
		return fmt.Errorf("open home page: %w", err)
	}
	if err := page.SetBookFilter(ctx); err != nil {
		return err
	}
	return page.InputAndSearch(ctx, query)
}

// Run filters, extracts and verifies. When the expected book is missing the
// result is returned along with an error wrapping pages.ErrBookNotFound.
func Run(ctx context.Context, deps Deps, req Request) (*Result, error) {
	if deps.Session == nil {
		return nil, errors.New("scenario needs a browser session")
	}
	if req.Query == "" {
		return nil, errors.New("search query is required")
	}

	result := &Result{RunID: uuid.NewString(), Match: -1}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("run_id", result.RunID))

	opts := []pages.Option{
		pages.WithBaseURL(deps.BaseURL),
		pages.WithLogger(logger),
		pages.WithMissingField(deps.Metrics.IncMissing),
		pages.WithOptionalWait(deps.OptionalWait),
	}
	page := pages.NewSearchPage(deps.Session, opts...)

	start := time.Now()
	logger.Info("searching books", zap.String("query", req.Query), zap.String("base_url", page.BaseURL))

	err := run(ctx, page, req, deps.SettleDelay, result)
	result.Duration = time.Since(start)

	outcome := OutcomePassed
	switch {
	case errors.Is(err, pages.ErrBookNotFound):
		outcome = OutcomeFailed
	case err != nil:
		outcome = OutcomeError
	}
	deps.Metrics.AddRecords(len(result.Records))
	deps.Metrics.ObserveRun(outcome, result.Duration)

	if err != nil {
		logger.Error("book search check did not pass",
			zap.String("outcome", outcome),
			zap.Int("records", len(result.Records)),
			zap.Error(err),
		)
		if outcome == OutcomeFailed {
			return result, err
		}
		return nil, err
	}

	logger.Info("expected book found",
		zap.Int("records", len(result.Records)),
		zap.Int("match", result.Match),
		zap.Stringer("book", result.Records[result.Match]),
		zap.Duration("duration", result.Duration),
	)
	return result, nil
}

func run(ctx context.Context, page *pages.SearchPage, req Request, settle time.Duration, result *Result) error {
	if err := FilterBooks(ctx, page, req.Query); err != nil {
		return fmt.Errorf("filter books: %w", err)
	}
	if settle > 0 {
		if err := pages.Wait(ctx, settle); err != nil {
			return fmt.Errorf("wait for results: %w", err)
		}
	}

	records, err := page.InformationAboutBooks(ctx)
	if err != nil {
		return fmt.Errorf("extract books: %w", err)
	}
	result.Records = records

	if err := pages.VerifyBookIsInList(records, req.Expected); err != nil {
		return err
	}
	result.Match = pages.FindBook(records, req.Expected)
	result.Matched = true
	return nil
}
