// Package sample provides the in-memory implementation of storage.Store,
// backed by a seeded demonstration dataset instead of a database.
//
// It honors the same atomicity and idempotency contract as the SQLite
// store; the contract tests in internal/ledger run identical fixtures
// against both implementations to keep the two sources from drifting.
package sample

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tripmate/tripledger/internal/models"
	"github.com/tripmate/tripledger/internal/settlement"
	"github.com/tripmate/tripledger/internal/storage"
)

// Ensure Store implements storage.Store
var _ storage.Store = (*Store)(nil)

// Store is a mutex-guarded in-memory record store.
type Store struct {
	mu      sync.RWMutex
	records map[string][]models.ExpenseRecord // tripID -> records
	members map[string][]models.Member        // tripID -> members
}

// NewEmpty creates a sample store with no data. Used by tests and by the
// contract fixtures.
func NewEmpty() *Store {
	return &Store{
		records: make(map[string][]models.ExpenseRecord),
		members: make(map[string][]models.Member),
	}
}

// New creates a sample store pre-seeded with the demo trip.
func New() *Store {
	s := NewEmpty()
	seed(s)
	return s
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}

// InsertExpenseRecord appends a record under the write lock, so the record
// appears to readers all at once or not at all.
func (s *Store) InsertExpenseRecord(ctx context.Context, rec *models.ExpenseRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *rec
	stored.SplitParticipants = append([]string(nil), rec.SplitParticipants...)
	s.records[rec.TripID] = append(s.records[rec.TripID], stored)
	return nil
}

// ListExpenseRecords returns copies of the trip's records ordered by
// creation time then id.
func (s *Store) ListExpenseRecords(ctx context.Context, tripID string) ([]models.ExpenseRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.records[tripID]
	records := make([]models.ExpenseRecord, len(stored))
	for i, rec := range stored {
		records[i] = rec
		records[i].SplitParticipants = append([]string(nil), rec.SplitParticipants...)
	}
	sort.Slice(records, func(i, j int) bool {
		if !records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].CreatedAt.Before(records[j].CreatedAt)
		}
		return records[i].ID < records[j].ID
	})
	return records, nil
}

// UpdateSettlement applies the one-way settlement transition. Settling an
// already settled record is a successful no-op.
func (s *Store) UpdateSettlement(ctx context.Context, tripID, recordID, by string, at time.Time) (models.ExpenseRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.records[tripID]
	for i := range records {
		if records[i].ID != recordID {
			continue
		}
		applied := settlement.MarkSettled(&records[i], by, at)
		rec := records[i]
		rec.SplitParticipants = append([]string(nil), records[i].SplitParticipants...)
		return rec, applied, nil
	}
	return models.ExpenseRecord{}, false, fmt.Errorf("expense record %s: %w", recordID, storage.ErrNotFound)
}

// ListMembers returns copies of the trip's member directory entries.
func (s *Store) ListMembers(ctx context.Context, tripID string) ([]models.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	members := append([]models.Member(nil), s.members[tripID]...)
	sort.Slice(members, func(i, j int) bool { return members[i].ID < members[j].ID })
	return members, nil
}

// UpsertMember writes a member directory entry. Used by the seed data and
// by tests simulating profile edits.
func (s *Store) UpsertMember(ctx context.Context, tripID string, m models.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	members := s.members[tripID]
	for i := range members {
		if members[i].ID == m.ID {
			members[i] = m
			return nil
		}
	}
	s.members[tripID] = append(members, m)
	return nil
}
