package core

import "errors"

// Failure kinds. Operation errors wrap exactly one of these together with
// the underlying cause, so callers match with errors.Is.
var (
	ErrFetchFailure     = errors.New("fetch failure")
	ErrCreateFailure    = errors.New("create failure")
	ErrUpdateFailure    = errors.New("update failure")
	ErrDeleteFailure    = errors.New("delete failure")
	ErrUploadFailure    = errors.New("upload failure")
	ErrAuthFailure      = errors.New("auth failure")
	ErrRateFetchFailure = errors.New("rate fetch failure")
)

var failureKinds = []error{
	ErrFetchFailure,
	ErrCreateFailure,
	ErrUpdateFailure,
	ErrDeleteFailure,
	ErrUploadFailure,
	ErrAuthFailure,
	ErrRateFetchFailure,
}

// FailureKind returns the failure kind wrapped by err, or nil.
func FailureKind(err error) error {
	if err == nil {
		return nil
	}
	for _, kind := range failureKinds {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
