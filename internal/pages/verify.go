package pages

import (
	"fmt"

	"github.com/adyen/booksearch/internal/models"
)

// VerifyBookIsInList returns nil when some record contains every field of
// expected, in any position, and ErrBookNotFound otherwise.
func VerifyBookIsInList(records []models.BookRecord, expected models.VerificationTuple) error {
	if FindBook(records, expected) < 0 {
		return fmt.Errorf("%w: %s among %d results", ErrBookNotFound, expected, len(records))
	}
	return nil
}

// FindBook returns the index of the first record matching expected, or -1
func FindBook(records []models.BookRecord, expected models.VerificationTuple) int {
	for i, record := range records {
		if expected.MatchedBy(record) {
			return i
		}
	}
	return -1
}
