// Package apperr defines the error taxonomy shared by the reconciliation engine
// and its callers. Every type is returned by pointer and matched with errors.As.
package apperr

import (
	"fmt"
	"strings"
)

// ValidationError reports malformed input: a non-positive amount, a missing
// date or account, a horizon that is not positive.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation failed: %s", e.Message)
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Message)
}

// NewValidation builds a ValidationError.
func NewValidation(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// NotFoundError reports a missing obligation, schedule entry, account or
// transaction. Hint carries a user-actionable suggestion when one exists.
type NotFoundError struct {
	Entity string
	ID     int64
	Hint   string
}

func (e *NotFoundError) Error() string {
	msg := e.Entity + " not found"
	if e.ID != 0 {
		msg = fmt.Sprintf("%s %d not found", e.Entity, e.ID)
	}
	if e.Hint != "" {
		msg += ": " + e.Hint
	}
	return msg
}

// NewNotFound builds a NotFoundError without a hint.
func NewNotFound(entity string, id int64) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

// DuplicateError reports an attempt to link a second transaction to a
// schedule entry that already has one.
type DuplicateError struct {
	ScheduleEntryID int64
	Period          string // "January 2026"
	TransactionID   int64  // existing transaction, 0 when unknown
}

func (e *DuplicateError) Error() string {
	var b strings.Builder
	b.WriteString("a payment already exists for ")
	if e.Period != "" {
		b.WriteString(e.Period)
	} else {
		fmt.Fprintf(&b, "schedule entry %d", e.ScheduleEntryID)
	}
	if e.TransactionID != 0 {
		fmt.Fprintf(&b, " (transaction %d)", e.TransactionID)
	}
	return b.String()
}

// ConsistencyError reports a multi-step write whose outcome is unknown or
// half-applied. The caller should retry or alert the user.
type ConsistencyError struct {
	Op  string
	Err error
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("%s left ledger and schedule out of sync, retry the operation: %v", e.Op, e.Err)
}

func (e *ConsistencyError) Unwrap() error { return e.Err }

// TypeMismatchError reports a value that should have been a structured date
// or month string but was not.
type TypeMismatchError struct {
	Field string
	Value any
	Want  string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("%s: expected %s, got %v (%T)", e.Field, e.Want, e.Value, e.Value)
}
