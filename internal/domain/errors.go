package domain

import (
	"errors"
	"fmt"
)

var (
	// Batch-level validation failures
	ErrInvalidPayload    = errors.New("invalid payload")
	ErrNoReferences      = errors.New("no references provided")
	ErrNoValidReferences = errors.New("no valid references provided")
	ErrNoSubscribers     = errors.New("no event subscribers connected")

	// Resolution outcomes that are not exceptional
	ErrNotACollection    = errors.New("reference is not a collection")
	ErrNoStreamAvailable = errors.New("no suitable stream")

	ErrJobNotFound    = errors.New("job not found")
	ErrManagerStopped = errors.New("job manager stopped")
)

// ResolutionError reports a failed collection, item or stream lookup
type ResolutionError struct {
	Scope     string // collection, item, stream
	Reference string
	Err       error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("failed to resolve %s %s: %v", e.Scope, e.Reference, e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// TransferError reports a network or write failure while fetching bytes
type TransferError struct {
	Path string
	Err  error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("transfer to %s failed: %v", e.Path, e.Err)
}

func (e *TransferError) Unwrap() error {
	return e.Err
}

// PathError reports a title that sanitizes to an empty name
type PathError struct {
	Title string
}

func (e *PathError) Error() string {
	return fmt.Sprintf("title %q has no usable characters for a file name", e.Title)
}
