// Package clustering groups bookmarks by embedding similarity and names each group from its tags.
package clustering

import "fmt"

// DimensionMismatchError is returned when vectors and bookmarks do not line up,
// or when vectors have differing widths.
type DimensionMismatchError struct {
	Message string
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("dimension mismatch: %s", e.Message)
}

// EmptyInputError is returned when there is nothing to cluster
type EmptyInputError struct {
	Message string
}

func (e *EmptyInputError) Error() string {
	return fmt.Sprintf("empty input: %s", e.Message)
}
