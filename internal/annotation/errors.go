// Package annotation enriches bookmarks with model-generated tags, summaries and classification.
package annotation

import "fmt"

// AnnotationParseError represents a model response that could not be decoded as a JSON object.
// It is logged and recovered through the fallback enrichment, never returned to callers.
type AnnotationParseError struct {
	URL     string
	Message string
	Cause   error
}

func (e *AnnotationParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("annotation parse error for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("annotation parse error for %s: %s", e.URL, e.Message)
}

func (e *AnnotationParseError) Unwrap() error {
	return e.Cause
}

// ProviderError represents a transport or provider failure for a single bookmark
type ProviderError struct {
	URL   string
	Cause error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("annotation provider error for %s: %v", e.URL, e.Cause)
}

func (e *ProviderError) Unwrap() error {
	return e.Cause
}
