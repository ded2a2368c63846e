package ledger

import "fmt"

// LoadError reports that the active source could not be read. It is
// retryable: callers back off and retry, and any summary already on screen
// stays valid, because the adapter keeps serving the last good snapshot.
type LoadError struct {
	TripID string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load ledger for trip %s: %v", e.TripID, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Retryable marks the error as transient.
func (e *LoadError) Retryable() bool {
	return true
}
