// Package folders analyzes the existing folder hierarchy and proposes a reorganization plan.
package folders

import "fmt"

// EmptyInputError is returned when no cluster result is available
type EmptyInputError struct {
	Message string
}

func (e *EmptyInputError) Error() string {
	return fmt.Sprintf("empty input: %s", e.Message)
}
