package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCategory is returned when a request names a category outside
	// the fixed set.
	ErrInvalidCategory = errors.New("invalid category")
	// ErrNoFiles is returned when an upload request carries no files.
	ErrNoFiles = errors.New("no files provided")
	// ErrCaptionMismatch is returned when a batch upload supplies more than
	// one caption but not one per file.
	ErrCaptionMismatch = errors.New("caption count does not match file count")
	// ErrItemNotFound is returned when no item with the requested id exists
	// in any bucket.
	ErrItemNotFound = errors.New("item not found")
)

// ConsistencyError reports a violated catalog invariant.
type ConsistencyError struct {
	ID        string
	Bucket    Category
	Category  Category
	Duplicate bool
}

func (e *ConsistencyError) Error() string {
	if e.Duplicate {
		return fmt.Sprintf("catalog inconsistent: duplicate id %q in bucket %q", e.ID, e.Bucket)
	}
	return fmt.Sprintf("catalog inconsistent: item %q in bucket %q has category %q", e.ID, e.Bucket, e.Category)
}
