package hub

import (
	"errors"
	"fmt"
)

// Errors that can be checked with errors.Is().
var (
	// ErrNotFound is returned when a product name matches nothing on the
	// hub. The product cannot be served; the pipeline records it as a
	// failure.
	ErrNotFound = errors.New("product not found on hub")

	// ErrAmbiguous is returned when a product name matches more than one
	// dataset. The name should identify exactly one product, so this is
	// terminal in the same way as ErrNotFound.
	ErrAmbiguous = errors.New("product name matches more than one dataset")
)

// StatusError is returned for hub responses outside the 2xx range that
// are not worth retrying.
type StatusError struct {
	// StatusCode is the HTTP status of the response.
	StatusCode int

	// Body is the response body, truncated for logging.
	Body string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("hub returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("hub returned status %d: %s", e.StatusCode, e.Body)
}
