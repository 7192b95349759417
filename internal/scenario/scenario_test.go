package scenario

import (
	"context"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/adyen/booksearch/internal/browser"
	"github.com/adyen/booksearch/internal/browser/browsertest"
	"github.com/adyen/booksearch/internal/browser/static"
	"github.com/adyen/booksearch/internal/models"
	"github.com/adyen/booksearch/internal/pages"
	"github.com/adyen/booksearch/internal/storefront"
)

// startStorefront serves the default catalog and returns a static session
// pointed at nothing yet, plus the storefront's base URL
func startStorefront(t *testing.T) (*static.Session, string) {
	t.Helper()
	handler, err := storefront.NewHandler(storefront.DefaultCatalog(), nil)
	require.NoError(t, err)
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	session, err := static.New(static.WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	t.Cleanup(func() { session.Close() })
	require.NoError(t, session.SetImplicitWait(3*time.Second))
	return session, srv.URL + "/"
}

func TestRun_FindsHeadFirstJava(t *testing.T) {
	// GIVEN the fixture storefront and a metrics bundle
	session, baseURL := startStorefront(t)
	metrics := NewMetrics()
	core, logs := observer.New(zap.InfoLevel)

	// WHEN the default check runs
	result, err := Run(context.Background(), Deps{
		Session: session,
		Logger:  zap.New(core),
		Metrics: metrics,
		BaseURL: baseURL,
	}, DefaultRequest())

	// THEN the expected book is found among the four Java books
	require.NoError(t, err)
	assert.True(t, result.Matched)
	assert.Equal(t, 0, result.Match)
	assert.Len(t, result.Records, 4)
	assert.Equal(t, models.BookRecord{
		"Head First Java: A Brain-Friendly Guide", " by Kathy Sierra, Bert Bates, et al. ", "17.60", "41.79", "Best Seller",
	}, result.Records[0])
	_, err = uuid.Parse(result.RunID)
	assert.NoError(t, err)

	// AND the run is logged under its id
	found := logs.FilterMessage("expected book found").All()
	require.Len(t, found, 1)
	assert.Equal(t, result.RunID, found[0].ContextMap()["run_id"])

	// AND the implicit wait survived the optional lookups
	assert.Equal(t, 3*time.Second, session.ImplicitWait())
}

func TestRun_BookNotFound(t *testing.T) {
	// GIVEN a request for a book the catalog does not price that way
	session, baseURL := startStorefront(t)
	req := DefaultRequest()
	req.Expected.PriceHigh = "99.99"

	// WHEN the check runs
	result, err := Run(context.Background(), Deps{Session: session, BaseURL: baseURL}, req)

	// THEN it fails with the verification error but still reports what it saw
	assert.ErrorIs(t, err, pages.ErrBookNotFound)
	require.NotNil(t, result)
	assert.False(t, result.Matched)
	assert.Equal(t, -1, result.Match)
	assert.Len(t, result.Records, 4)
}

func TestRun_KindleEditionIsFilteredOut(t *testing.T) {
	session, baseURL := startStorefront(t)
	req := Request{
		Query: "Head First Java",
		Expected: models.VerificationTuple{
			Title:     "Head First Java: A Brain-Friendly Guide (Kindle Edition)",
			Author:    " by Kathy Sierra, Bert Bates, et al. ",
			PriceLow:  "35.99",
			PriceHigh: "35.99",
		},
	}

	result, err := Run(context.Background(), Deps{Session: session, BaseURL: baseURL}, req)

	assert.ErrorIs(t, err, pages.ErrBookNotFound)
	require.NotNil(t, result)
	assert.Len(t, result.Records, 1)
}

func TestRun_Errors(t *testing.T) {
	tests := []struct {
		name    string
		deps    func() Deps
		req     Request
		wantErr error
	}{
		{
			name: "no session",
			deps: func() Deps { return Deps{} },
			req:  DefaultRequest(),
		},
		{
			name: "empty query",
			deps: func() Deps { return Deps{Session: browsertest.NewSession()} },
			req:  Request{Expected: models.HeadFirstJava},
		},
		{
			name: "home page unreachable",
			deps: func() Deps {
				s := browsertest.NewSession()
				s.NavigateFunc = func(ctx context.Context, url string) error { return errors.New("connection refused") }
				return Deps{Session: s}
			},
			req: DefaultRequest(),
		},
		{
			name:    "no department filter",
			deps:    func() Deps { return Deps{Session: browsertest.NewSession()} },
			req:     DefaultRequest(),
			wantErr: browser.ErrElementNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			metrics := NewMetrics()
			deps := tt.deps()
			deps.Metrics = metrics

			result, err := Run(context.Background(), deps, tt.req)

			require.Error(t, err)
			assert.Nil(t, result)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestRun_OpensConfiguredBaseURL(t *testing.T) {
	session := browsertest.NewSession()

	_, err := Run(context.Background(), Deps{Session: session, BaseURL: "http://localhost:8080/"}, DefaultRequest())

	require.Error(t, err)
	assert.Equal(t, []string{"http://localhost:8080/"}, session.Visited)
}

// waitRecorder keeps every implicit wait set on a static session
type waitRecorder struct {
	*static.Session
	waits []time.Duration
}

func (w *waitRecorder) SetImplicitWait(d time.Duration) error {
	w.waits = append(w.waits, d)
	return w.Session.SetImplicitWait(d)
}

func TestRun_ZeroOptionalWait(t *testing.T) {
	// GIVEN a run configured for no wait around optional fields
	session, baseURL := startStorefront(t)
	recorder := &waitRecorder{Session: session}

	// WHEN the default check runs
	_, err := Run(context.Background(), Deps{Session: recorder, BaseURL: baseURL, OptionalWait: 0}, DefaultRequest())

	// THEN optional lookups ran without a wait and the default was never used
	require.NoError(t, err)
	assert.Contains(t, recorder.waits, time.Duration(0))
	assert.NotContains(t, recorder.waits, pages.DefaultOptionalWait)
	assert.Equal(t, 3*time.Second, session.ImplicitWait())
}

func TestRun_SettleDelayHonoursContext(t *testing.T) {
	session, baseURL := startStorefront(t)
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	result, err := Run(ctx, Deps{Session: session, BaseURL: baseURL, SettleDelay: time.Hour}, DefaultRequest())

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.ErrorContains(t, err, "wait for results")
	assert.Nil(t, result)
}

func TestMetrics_WriteTextfile(t *testing.T) {
	// GIVEN a successful and a failed run against the storefront
	metrics := NewMetrics()
	session, baseURL := startStorefront(t)
	deps := Deps{Session: session, BaseURL: baseURL, Metrics: metrics}

	_, err := Run(context.Background(), deps, DefaultRequest())
	require.NoError(t, err)
	failing := DefaultRequest()
	failing.Expected.Title = "Head First Go"
	_, err = Run(context.Background(), deps, failing)
	require.ErrorIs(t, err, pages.ErrBookNotFound)

	// WHEN the metrics are written out
	path := filepath.Join(t.TempDir(), "booksearch.prom")
	require.NoError(t, metrics.WriteTextfile(path))

	// THEN the file carries both outcomes and the per-field gaps
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(raw)
	assert.Contains(t, text, "booksearch_records_extracted_total 8")
	assert.Contains(t, text, `booksearch_runs_total{outcome="passed"} 1`)
	assert.Contains(t, text, `booksearch_runs_total{outcome="failed"} 1`)
	// Three of the four Java books lack a badge, one lacks a price
	assert.Contains(t, text, `booksearch_optional_fields_missing_total{field="badge"} 6`)
	assert.Contains(t, text, `booksearch_optional_fields_missing_total{field="price"} 2`)
	assert.Contains(t, text, "booksearch_run_duration_seconds_count 2")
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.AddRecords(3)
		m.IncMissing(pages.FieldBadge)
		m.ObserveRun(OutcomePassed, time.Second)
	})
	assert.NoError(t, m.WriteTextfile(filepath.Join(t.TempDir(), "unused.prom")))
	assert.NoError(t, NewMetrics().WriteTextfile(""))
}
