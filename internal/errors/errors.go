// internal/errors/errors.go
package errors

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel classifications for upstream and caller failures. The packages
// that produce them wrap the underlying cause, so callers test with
// errors.Is and still get the full chain in logs.
var (
	// ErrNotFound means the upstream repository does not exist. Terminal,
	// never retried.
	ErrNotFound = errors.New("repository not found")

	// ErrForbidden means the upstream denied access to the repository.
	// Terminal, never retried.
	ErrForbidden = errors.New("repository access forbidden")

	// ErrInvalidSortField rejects a sort_by value outside the allowed set.
	ErrInvalidSortField = errors.New("invalid sort field: must be one of stars, watchers, forks, open_issues")

	// ErrInvalidOrder rejects an order value other than ASC or DESC.
	ErrInvalidOrder = errors.New("invalid order: must be ASC or DESC")

	// ErrInvalidRange rejects a query window where since > until.
	ErrInvalidRange = errors.New("invalid range: since must not be after until")
)

// RateLimitedError is returned when the upstream call budget is exhausted
// and the time until reset exceeds the configured maximum wait. RetryAfter
// tells the caller how long until the budget resets.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("github rate limit exhausted, retry after %s", e.RetryAfter)
}

// StorageError classifies a persistence failure (constraint violation or
// connectivity loss). It is terminal for the upsert that produced it.
type StorageError struct {
	Op    string
	Cause error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s failed: %v", e.Op, e.Cause)
}

func (e *StorageError) Unwrap() error {
	return e.Cause
}

// ErrInvalidRepoFormat is returned when a repository string in the config is not in 'owner/name' format.
type ErrInvalidRepoFormat struct {
	Repo string
}

func (e *ErrInvalidRepoFormat) Error() string {
	return fmt.Sprintf("invalid repository format: %q, expected 'owner/name'", e.Repo)
}
