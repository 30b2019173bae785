package scraper

import "fmt"

// ErrorKind categorizes fetch failures.
type ErrorKind string

const (
	KindNetwork ErrorKind = "network"
	KindStatus  ErrorKind = "status"
	KindParse   ErrorKind = "parse"
)

// FetchError is returned when a page cannot be fetched or parsed.
type FetchError struct {
	Kind       ErrorKind
	URL        string
	StatusCode int
	Err        error
}

// Error implements the error interface
func (e *FetchError) Error() string {
	switch {
	case e.Kind == KindStatus:
		return fmt.Sprintf("%s: %s returned HTTP %d", e.Kind, e.URL, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s (%v)", e.Kind, e.URL, e.Err)
	default:
		return fmt.Sprintf("%s: %s", e.Kind, e.URL)
	}
}

// Unwrap returns the underlying error for error unwrapping
func (e *FetchError) Unwrap() error {
	return e.Err
}

// IsRetryable returns true if the same request may succeed later.
func (e *FetchError) IsRetryable() bool {
	switch e.Kind {
	case KindNetwork:
		return true
	case KindStatus:
		return e.StatusCode == 429 || e.StatusCode >= 500
	default:
		return false
	}
}
