package care

import (
	"fmt"
	"strings"
)

// NotFoundError indicates the resource was not found.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ValidationError indicates a client-side validation failure.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on %s: %s", e.Field, e.Message)
}

// ConflictError indicates a uniqueness violation, such as signing up with
// an email that is already registered.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

// InvalidParticipantsError indicates a conversation id was requested for
// an invalid participant pair.
type InvalidParticipantsError struct {
	A, B string
}

func (e *InvalidParticipantsError) Error() string {
	if e.A == e.B {
		return fmt.Sprintf("invalid participants: %q cannot converse with itself", e.A)
	}
	return fmt.Sprintf("invalid participants: %q, %q", e.A, e.B)
}

// PartialIndexError indicates a fan-out write or delete stopped partway,
// leaving the index keys for one record inconsistent. Applied keys hold
// the record's new state; Unapplied keys do not. The record is repairable
// from its primary key.
type PartialIndexError struct {
	Op        string
	Applied   []string
	Unapplied []string
	Err       error
}

func (e *PartialIndexError) Error() string {
	return fmt.Sprintf("partial index %s: %d of %d keys unapplied (%s): %v",
		e.Op, len(e.Unapplied), len(e.Applied)+len(e.Unapplied), strings.Join(e.Unapplied, ", "), e.Err)
}

func (e *PartialIndexError) Unwrap() error {
	return e.Err
}
