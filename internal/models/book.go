package models

import (
	"fmt"
	"strings"
)

// BookRecord is the normalized set of fields scraped from one search result.
//
// The first two elements are always the title and the author, in that order.
// Whatever follows is optional: zero or more prices in the order they were
// rendered, then the best-seller badge text when the listing carries one.
type BookRecord []string

// NewBookRecord creates a record from its mandatory fields and any trailing extras
func NewBookRecord(title, author string, extras ...string) BookRecord {
	record := make(BookRecord, 0, 2+len(extras))
	record = append(record, title, author)
	return append(record, extras...)
}

// Title returns the book title
func (r BookRecord) Title() string {
	if len(r) == 0 {
		return ""
	}
	return r[0]
}

// Author returns the normalized author string
func (r BookRecord) Author() string {
	if len(r) < 2 {
		return ""
	}
	return r[1]
}

// Extras returns the optional trailing fields (prices and badge)
func (r BookRecord) Extras() []string {
	if len(r) <= 2 {
		return nil
	}
	return r[2:]
}

// Contains reports whether field is one of the record's members
func (r BookRecord) Contains(field string) bool {
	for _, f := range r {
		if f == field {
			return true
		}
	}
	return false
}

// ContainsAll reports whether every field is a member of the record, regardless of position
func (r BookRecord) ContainsAll(fields ...string) bool {
	for _, field := range fields {
		if !r.Contains(field) {
			return false
		}
	}
	return true
}

// String renders the record as a quoted list for logs and reports
func (r BookRecord) String() string {
	quoted := make([]string, len(r))
	for i, f := range r {
		quoted[i] = fmt.Sprintf("%q", f)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

// VerificationTuple is the expected book a search must surface
type VerificationTuple struct {
	Title     string
	Author    string
	PriceLow  string
	PriceHigh string
}

// Fields returns the tuple members in declaration order
func (v VerificationTuple) Fields() []string {
	return []string{v.Title, v.Author, v.PriceLow, v.PriceHigh}
}

// MatchedBy reports whether record contains every field of the tuple
func (v VerificationTuple) MatchedBy(record BookRecord) bool {
	return record.ContainsAll(v.Fields()...)
}

// String describes the tuple for failure messages
func (v VerificationTuple) String() string {
	return fmt.Sprintf("(%q, %q, %q, %q)", v.Title, v.Author, v.PriceLow, v.PriceHigh)
}

// HeadFirstJava is the listing the Java book search is expected to return
var HeadFirstJava = VerificationTuple{
	Title:     "Head First Java: A Brain-Friendly Guide",
	Author:    " by Kathy Sierra, Bert Bates, et al. ",
	PriceLow:  "17.60",
	PriceHigh: "41.79",
}
