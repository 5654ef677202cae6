// Package server provides the read-only HTTP query API over stored pipeline documents.
package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/bookmark-intelligence/internal/storage"
)

// NotFoundError indicates a requested cluster or project does not exist
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.Key)
}

// ValidationError indicates a malformed request parameter
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		notFound   *NotFoundError
		validation *ValidationError
	)
	switch {
	case errors.As(err, &notFound), errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &validation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// publicMessage hides internal error detail from clients
func publicMessage(err error) string {
	switch HTTPStatus(err) {
	case http.StatusInternalServerError:
		return "internal server error"
	case http.StatusNotFound:
		if errors.Is(err, storage.ErrNotFound) {
			return "AI data not found. Run the pipeline first: bookmark_ai run"
		}
	}
	return err.Error()
}
