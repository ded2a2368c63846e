// Package storage provides abstractions for expense record persistence.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/tripmate/tripledger/internal/models"
)

// ErrNotFound is returned when a trip or record does not exist in the
// caller's visible set.
var ErrNotFound = errors.New("not found")

// Store is the persistence boundary for one trip's ledger. Both the
// persisted SQLite store and the seeded in-memory sample store implement
// it, so everything above this interface is source-agnostic.
//
// Required semantics, independent of backend:
//   - InsertExpenseRecord is atomic: a record becomes visible to reads only
//     once all of its fields, participants included, are committed. Readers
//     never observe a half-written record.
//   - UpdateSettlement is atomic and idempotent: settling an already
//     settled record succeeds, reports applied == false and leaves the
//     original SettledAt/SettledBy in place.
//   - Writes to a single trip are serialized; reads are consistent
//     snapshots.
type Store interface {
	// ListExpenseRecords returns every record of the trip, settled ones
	// included, ordered by creation time then id.
	ListExpenseRecords(ctx context.Context, tripID string) ([]models.ExpenseRecord, error)

	// InsertExpenseRecord persists a new record. The ID and CreatedAt
	// fields are populated by the store when unset.
	InsertExpenseRecord(ctx context.Context, rec *models.ExpenseRecord) error

	// UpdateSettlement marks a record settled. Returns the record as
	// stored after the call and whether the transition was applied.
	// Returns ErrNotFound when the record is not part of the trip.
	UpdateSettlement(ctx context.Context, tripID, recordID, by string, at time.Time) (models.ExpenseRecord, bool, error)

	// ListMembers returns the trip's member directory entries.
	ListMembers(ctx context.Context, tripID string) ([]models.Member, error)

	// Close releases any resources held by the store.
	Close() error
}
