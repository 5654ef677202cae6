// Package projects proposes project groupings from folder structure and cluster keywords.
package projects

import "fmt"

// EmptyInputError is returned when no cluster result is available
type EmptyInputError struct {
	Message string
}

func (e *EmptyInputError) Error() string {
	return fmt.Sprintf("empty input: %s", e.Message)
}
