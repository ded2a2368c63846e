// Package settlement implements the per-record settlement state machine.
//
// A record starts Pending and can move to Settled exactly once. There is no
// reverse transition: a mistaken settlement is corrected with an explicit
// offsetting record, keeping the history auditable.
package settlement

import (
	"time"

	"github.com/tripmate/tripledger/internal/models"
)

// Status is the settlement state of an expense record.
type Status string

const (
	// StatusPending is the initial state: the record still counts toward
	// outstanding balances.
	StatusPending Status = "pending"

	// StatusSettled is terminal: the record contributes zero to balances
	// but remains visible in history.
	StatusSettled Status = "settled"
)

// StatusOf derives the status from a record's settlement flag.
func StatusOf(rec models.ExpenseRecord) Status {
	if rec.IsSettled {
		return StatusSettled
	}
	return StatusPending
}

// MarkSettled applies the Pending -> Settled transition in place.
//
// The transition is idempotent: calling it on an already-settled record
// succeeds without side effects and reports applied == false, leaving
// SettledAt and SettledBy from the first transition untouched. This makes
// concurrent settle calls safe; the only mutable field moves one way, so
// there is no lost-update window.
func MarkSettled(rec *models.ExpenseRecord, by string, at time.Time) (applied bool) {
	if rec.IsSettled {
		return false
	}
	rec.IsSettled = true
	rec.SettledAt = &at
	rec.SettledBy = by
	return true
}
