package coordinator

import (
	"github.com/pkg/errors"
)

var (
	// ErrUnavailable means the catalog could not be reached or answered with
	// an error. The cache was not modified.
	ErrUnavailable = errors.New("catalog unavailable")

	// ErrNotFound means the id is absent from the cache or the catalog.
	ErrNotFound = errors.New("video not found")

	// ErrInvalidRating means the catalog rejected the submitted rating.
	ErrInvalidRating = errors.New("invalid rating")

	// ErrSuperseded is returned by a refresh whose result arrived after a
	// newer refresh was issued. The result was discarded.
	ErrSuperseded = errors.New("refresh superseded")

	// ErrCacheWriteFailure means a cache write failed and was rolled back.
	// It also matches ErrUnavailable.
	ErrCacheWriteFailure = errors.New("cache write failed")
)

type cacheWriteError struct {
	op string
}

func (e *cacheWriteError) Error() string {
	return e.op + ": " + ErrCacheWriteFailure.Error()
}

func (e *cacheWriteError) Is(target error) bool {
	return target == ErrCacheWriteFailure || target == ErrUnavailable
}

func cacheWriteFailure(op string) error {
	return &cacheWriteError{op: op}
}
