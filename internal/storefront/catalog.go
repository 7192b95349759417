// Package storefront serves an offline copy of the retail search flow: a
// home page with the department filter and search box, and a result list
// rendered with the same markup the live site uses.
package storefront

import (
	"strings"
)

// Department aliases as they appear in the search form
const (
	AllDepartments = "aps"
	BooksAlias     = "stripbooks-intl-ship"
	KindleAlias    = "digital-text"
)

// Price is a displayed price split the way the result list renders it
type Price struct {
	Whole    string
	Fraction string
}

// Listing is one product in the catalog
type Listing struct {
	ASIN       string
	Title      string
	Byline     string // rendered verbatim, pipes included
	Department string
	Prices     []Price
	BestSeller bool
}

// Catalog is an ordered set of listings
type Catalog []Listing

// Search returns the listings whose title contains query, ignoring case,
// restricted to department unless it is empty or AllDepartments. An empty
// query matches nothing.
func (c Catalog) Search(query, department string) []Listing {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil
	}
	var out []Listing
	for _, l := range c {
		if department != "" && department != AllDepartments && l.Department != department {
			continue
		}
		if strings.Contains(strings.ToLower(l.Title), query) {
			out = append(out, l)
		}
	}
	return out
}

// DefaultCatalog is seeded with the Head First Java listing and neighbours
// that leave out prices or the badge, or format the byline differently.
func DefaultCatalog() Catalog {
	return Catalog{
		{
			ASIN:       "1491910771",
			Title:      "Head First Java: A Brain-Friendly Guide",
			Byline:     "Head First Java: A Brain-Friendly Guide | by Kathy Sierra, Bert Bates, et al. | Jun 21, 2022",
			Department: BooksAlias,
			Prices:     []Price{{"17", "60"}, {"41", "79"}},
			BestSeller: true,
		},
		{
			ASIN:       "0134685997",
			Title:      "Effective Java",
			Byline:     "by Joshua Bloch",
			Department: BooksAlias,
			Prices:     []Price{{"44", "99"}, {"39", "49"}},
		},
		{
			ASIN:       "1098137930",
			Title:      "Java Pocket Guide: Instant Help for Java Programmers",
			Byline:     "Robert Liguori| Paperback",
			Department: BooksAlias,
			Prices:     []Price{{"24", "99"}},
		},
		{
			ASIN:       "0137673620",
			Title:      "Core Java, Vol. I: Fundamentals",
			Byline:     "Hardcover | by Cay Horstmann | Pearson | Dec 20, 2021",
			Department: BooksAlias,
		},
		{
			ASIN:       "B0BSHF7WHW",
			Title:      "Head First Java: A Brain-Friendly Guide (Kindle Edition)",
			Byline:     "Kindle Edition | by Kathy Sierra, Bert Bates, et al. | May 9, 2022",
			Department: KindleAlias,
			Prices:     []Price{{"35", "99"}},
		},
		{
			ASIN:       "1492056111",
			Title:      "Head First Design Patterns",
			Byline:     "Paperback | by Eric Freeman, Elisabeth Robson | Jan 12, 2021",
			Department: BooksAlias,
			Prices:     []Price{{"46", "12"}},
			BestSeller: true,
		},
	}
}
