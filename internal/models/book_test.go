package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewBookRecord(t *testing.T) {
	tests := []struct {
		name   string
		title  string
		author string
		extras []string
		want   BookRecord
	}{
		{
			name:   "mandatory fields only",
			title:  "Effective Java",
			author: "Joshua Bloch",
			want:   BookRecord{"Effective Java", "Joshua Bloch"},
		},
		{
			name:   "prices and badge keep their order",
			title:  "Head First Java",
			author: " by Kathy Sierra ",
			extras: []string{"17.60", "41.79", "Best Seller"},
			want:   BookRecord{"Head First Java", " by Kathy Sierra ", "17.60", "41.79", "Best Seller"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewBookRecord(tt.title, tt.author, tt.extras...)

			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.title, got.Title())
			assert.Equal(t, tt.author, got.Author())
			assert.Equal(t, len(tt.extras), len(got.Extras()))
		})
	}
}

func TestBookRecord_AccessorsOnShortRecords(t *testing.T) {
	var empty BookRecord
	assert.Equal(t, "", empty.Title())
	assert.Equal(t, "", empty.Author())
	assert.Nil(t, empty.Extras())

	titleOnly := BookRecord{"Only Title"}
	assert.Equal(t, "Only Title", titleOnly.Title())
	assert.Equal(t, "", titleOnly.Author())
}

func TestBookRecord_ContainsAll(t *testing.T) {
	record := BookRecord{"Title", "Author", "41.79", "17.60"}

	tests := []struct {
		name   string
		fields []string
		want   bool
	}{
		{name: "no fields", fields: nil, want: true},
		{name: "same order", fields: []string{"Title", "Author", "41.79"}, want: true},
		{name: "any position", fields: []string{"17.60", "Title", "41.79", "Author"}, want: true},
		{name: "one field missing", fields: []string{"Title", "Author", "9.99"}, want: false},
		{name: "whitespace matters", fields: []string{" Author "}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, record.ContainsAll(tt.fields...))
		})
	}
}

func TestVerificationTuple_MatchedBy(t *testing.T) {
	// GIVEN a record that holds the expected fields plus a badge, out of order
	record := BookRecord{
		HeadFirstJava.Title,
		HeadFirstJava.Author,
		HeadFirstJava.PriceHigh,
		HeadFirstJava.PriceLow,
		"Best Seller",
	}

	// THEN the tuple matches it, but not a record missing one price
	assert.True(t, HeadFirstJava.MatchedBy(record))
	assert.False(t, HeadFirstJava.MatchedBy(record[:3]))
}

func TestBookRecord_String(t *testing.T) {
	record := NewBookRecord("A", " b ", "1.00")
	assert.Equal(t, `["A", " b ", "1.00"]`, record.String())
}
