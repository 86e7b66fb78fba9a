package aggregator

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound  = errors.New("expense not found")
	ErrNoReceipt = errors.New("expense has no receipt")
)

// RecordError names the remote record that could not be normalised.
type RecordError struct {
	ID  string
	Err error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("record %s: %v", e.ID, e.Err)
}

func (e *RecordError) Unwrap() error { return e.Err }
