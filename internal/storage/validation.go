// Package storage persists the learning store and the append-only audit ledger.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/shiwake/internal/model"
)

// Validation errors.
var (
	ErrNilContext     = errors.New("context cannot be nil")
	ErrEmptyString    = errors.New("string parameter cannot be empty")
	ErrNilParameter   = errors.New("parameter cannot be nil")
	ErrEmptySlice     = errors.New("slice cannot be empty")
	ErrInvalidEntry   = errors.New("invalid journal entry")
	ErrInvalidSource  = errors.New("invalid source type")
	ErrInvalidLearn   = errors.New("invalid learning record")
	ErrLengthMismatch = errors.New("positional arrays must match the number of entries")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateEntry checks that a journal entry can be recorded in the ledger.
func validateEntry(e model.JournalEntry) error {
	if e.Date.IsZero() {
		return fmt.Errorf("%w: missing date", ErrInvalidEntry)
	}
	if strings.TrimSpace(e.DebitAccount) == "" {
		return fmt.Errorf("%w: missing debit account", ErrInvalidEntry)
	}
	if strings.TrimSpace(e.CreditAccount) == "" {
		return fmt.Errorf("%w: missing credit account", ErrInvalidEntry)
	}
	if e.DebitAmount < 0 || e.CreditAmount < 0 {
		return fmt.Errorf("%w: negative amount", ErrInvalidEntry)
	}
	if !e.IsBalanced() {
		return fmt.Errorf("%w: debit %d does not equal credit %d", ErrInvalidEntry, e.DebitAmount, e.CreditAmount)
	}
	return nil
}

func validateSourceType(st model.SourceType) error {
	if !st.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidSource, st)
	}
	return nil
}

// validateLearning checks a learning record before upsert.
func validateLearning(r *model.LearningRecord) error {
	if r == nil {
		return fmt.Errorf("%w: learning record", ErrNilParameter)
	}
	if strings.TrimSpace(r.Signature) == "" {
		return fmt.Errorf("%w: missing signature", ErrInvalidLearn)
	}
	if !r.Direction.IsValid() {
		return fmt.Errorf("%w: invalid direction %q", ErrInvalidLearn, r.Direction)
	}
	if strings.TrimSpace(r.Mapping.DebitAccount) == "" || strings.TrimSpace(r.Mapping.CreditAccount) == "" {
		return fmt.Errorf("%w: mapping needs both debit and credit accounts", ErrInvalidLearn)
	}
	return nil
}
