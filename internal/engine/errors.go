package engine

import (
	"errors"
	"fmt"
)

// Input errors reported by Classify and SubmitCorrection.
var (
	ErrMissingIssuer     = errors.New("issuer is missing")
	ErrMissingAmount     = errors.New("amount is missing")
	ErrInvalidAmount     = errors.New("amount is not a valid yen value")
	ErrInvalidCorrection = errors.New("correction needs both debit and credit accounts")
)

// Input errors reported by the typed entry creators.
var (
	ErrUnknownEntryKind = errors.New("unknown entry kind")
	ErrMissingVendor    = errors.New("vendor name is missing")
	ErrUnknownRule      = errors.New("unknown journal rule")
	ErrUnknownBank      = errors.New("unknown bank account")
)

// ClassificationError reports why one input could not be classified.
type ClassificationError struct {
	Err   error
	Field string
	Value string
}

func (e *ClassificationError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("cannot classify: %s %q: %v", e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("cannot classify: %s: %v", e.Field, e.Err)
}

func (e *ClassificationError) Unwrap() error {
	return e.Err
}
