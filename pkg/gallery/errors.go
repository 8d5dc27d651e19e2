package gallery

import (
	"errors"
	"fmt"
)

var (
	// ErrSuperseded is returned when a fetch finished after the input
	// changed or a newer search started. Its results were dropped.
	ErrSuperseded = errors.New("gallery: fetch superseded by newer input")

	// ErrSubmitDisabled is returned by Submit until the input changes.
	ErrSubmitDisabled = errors.New("gallery: submit disabled until the query changes")
)

// ValidationError rejects a query before any request is made
type ValidationError struct {
	Query  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid query %q: %s", e.Query, e.Reason)
}

// FetchError wraps a failed page request
type FetchError struct {
	Query string
	Page  int
	Err   error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching page %d of %q: %v", e.Page, e.Query, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
