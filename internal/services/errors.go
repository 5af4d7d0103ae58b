package services

import (
	"errors"
	"fmt"

	"github.com/nimasrn/parcel-shipping/internal/rates"
)

// ValidationError lists invalid request fields, nothing was stored.
type ValidationError = rates.ValidationError

var (
	ErrNotFound          = errors.New("shipment not found")
	ErrUnauthenticated   = errors.New("sign in required")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// SubmissionError means the store could not be reached or refused the
// write. The request may be repeated by the user, it is never retried here.
type SubmissionError struct {
	Op  string
	Err error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

func submissionError(op string, err error) error {
	return &SubmissionError{Op: op, Err: err}
}
