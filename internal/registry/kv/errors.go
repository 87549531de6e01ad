package kv

import "fmt"

// UnavailableError indicates the backing store could not be reached.
// Callers may retry; the operation did not observe a definitive answer.
type UnavailableError struct {
	Op  string
	Err error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("kv store unavailable during %s: %v", e.Op, e.Err)
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}
