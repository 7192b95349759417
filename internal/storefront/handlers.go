package storefront

import (
	"embed"
	"html/template"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

// Department is one entry of the search dropdown
type Department struct {
	Alias    string
	Name     string
	Selected bool
}

var departments = []Department{
	{Alias: AllDepartments, Name: "All Departments"},
	{Alias: BooksAlias, Name: "Books"},
	{Alias: KindleAlias, Name: "Kindle Store"},
}

// page is the data every template renders
type page struct {
	Title       string
	Query       string
	Departments []Department
	Results     []Listing
}

func newPage(title, query, department string) page {
	if department == "" {
		department = AllDepartments
	}
	deps := make([]Department, len(departments))
	for i, d := range departments {
		d.Selected = d.Alias == department
		deps[i] = d
	}
	return page{Title: title, Query: query, Departments: deps}
}

func parseTemplate(name string) (*template.Template, error) {
	return template.ParseFS(templateFS, "templates/layout.html", "templates/"+name)
}

// HomeHandler handles the home page requests
type HomeHandler struct {
	template *template.Template
}

// NewHomeHandler creates a new HomeHandler
func NewHomeHandler() (*HomeHandler, error) {
	tmpl, err := parseTemplate("home.html")
	if err != nil {
		return nil, err
	}
	return &HomeHandler{template: tmpl}, nil
}

// ServeHTTP handles the GET / request
func (h *HomeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	if err := h.template.ExecuteTemplate(w, "home.html", newPage("Online Shopping", "", "")); err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
}

// SearchHandler renders the result list of a search
type SearchHandler struct {
	template *template.Template
	catalog  Catalog
}

// NewSearchHandler creates a new SearchHandler over catalog
func NewSearchHandler(catalog Catalog) (*SearchHandler, error) {
	tmpl, err := parseTemplate("results.html")
	if err != nil {
		return nil, err
	}
	return &SearchHandler{template: tmpl, catalog: catalog}, nil
}

// ServeHTTP handles the GET /s?field-keywords=...&url=search-alias%3D... request
func (h *SearchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	query := q.Get("field-keywords")
	department := strings.TrimPrefix(q.Get("url"), "search-alias=")

	data := newPage("Results for "+query, query, department)
	data.Results = h.catalog.Search(query, department)

	if err := h.template.ExecuteTemplate(w, "results.html", data); err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
}

// NewHandler routes the home page and search results over catalog
func NewHandler(catalog Catalog, logger *zap.Logger) (http.Handler, error) {
	home, err := NewHomeHandler()
	if err != nil {
		return nil, err
	}
	search, err := NewSearchHandler(catalog)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/", home)
	mux.Handle("/s", search)
	return LogRequests(logger, mux), nil
}

// statusRecorder remembers the status code written through it
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// LogRequests logs every request at debug level with its status
func LogRequests(logger *zap.Logger, next http.Handler) http.Handler {
	if logger == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Debug("request served",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("query", r.URL.RawQuery),
			zap.Int("status", rec.status),
		)
	})
}
