package catalog

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrNotFound indicates the catalog has no video (or no payload) for an id.
var ErrNotFound = errors.New("video not found in catalog")

// ErrInvalidRating is returned when a rating is not a finite number.
var ErrInvalidRating = errors.New("invalid rating")

// StatusError represents an unexpected HTTP status from the catalog service.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("catalog returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("catalog returned status %d: %s", e.StatusCode, e.Body)
}
