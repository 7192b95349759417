package pages

import "strings"

// AuthorDelimiter separates the segments of a result's author line
const AuthorDelimiter = "|"

// ClearString keeps the meaningful segment of an author line. With no
// delimiter the input is returned as is; with one, the text before it; with
// two or more, the text strictly between the first and the last.
func ClearString(s string) string {
	switch strings.Count(s, AuthorDelimiter) {
	case 0:
		return s
	case 1:
		return s[:strings.Index(s, AuthorDelimiter)]
	default:
		first := strings.Index(s, AuthorDelimiter) + len(AuthorDelimiter)
		last := strings.LastIndex(s, AuthorDelimiter)
		return s[first:last]
	}
}
