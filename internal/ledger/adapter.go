// Package ledger contains the reconciliation adapter and the façade that
// screens consume. The adapter is the load-bearing piece: it presents one
// canonical record set and member directory no matter which source backs
// the trip, so balance summaries can never differ by source.
package ledger

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/tripmate/tripledger/internal/metrics"
	"github.com/tripmate/tripledger/internal/models"
	"github.com/tripmate/tripledger/internal/notify"
	"github.com/tripmate/tripledger/internal/storage"
)

// snapshot is the cached canonical view of one trip's ledger.
type snapshot struct {
	records   []models.ExpenseRecord
	directory models.Directory
	dirty     bool
}

// Adapter normalizes records from the active source and caches the last
// good snapshot per trip. The two historical code paths (sample vs
// persisted) drifted in field names and defaulting rules; every record now
// passes through the same normalization regardless of source.
type Adapter struct {
	store        storage.Store
	baseCurrency string

	mu        sync.RWMutex
	snapshots map[string]*snapshot

	// generations counts invalidations per trip. A reload captures the
	// generation before reading the store; if it moved by install time, a
	// write landed mid-read and the snapshot must not be cached as clean.
	generations map[string]uint64

	unsubscribe func()
}

// NewAdapter creates an adapter over the given store. When bus is non-nil
// the adapter subscribes and invalidates trips as change events arrive.
func NewAdapter(store storage.Store, baseCurrency string, bus *notify.Bus) *Adapter {
	a := &Adapter{
		store:        store,
		baseCurrency: strings.ToUpper(strings.TrimSpace(baseCurrency)),
		snapshots:    make(map[string]*snapshot),
		generations:  make(map[string]uint64),
	}
	if bus != nil {
		events, cancel := bus.Subscribe(16)
		a.unsubscribe = cancel
		go a.watch(events)
	}
	return a
}

// Close stops the change subscription.
func (a *Adapter) Close() {
	if a.unsubscribe != nil {
		a.unsubscribe()
	}
}

func (a *Adapter) watch(events <-chan notify.Event) {
	for ev := range events {
		switch ev.Kind {
		case notify.KindMemberUpdated:
			// Display metadata only; leave the records untouched so no
			// monetary recomputation happens.
			if err := a.RefreshMemberMetadata(context.Background(), ev.TripID); err != nil {
				slog.Warn("member metadata refresh failed", "trip_id", ev.TripID, "error", err)
			}
		default:
			a.Invalidate(ev.TripID)
		}
	}
}

// LoadTripLedger returns the canonical record set and member directory for
// a trip. Results come from the cached snapshot when it is fresh; otherwise
// the source is reloaded. A reload failure falls back to the stale snapshot
// when one exists (stale-but-valid beats a blank screen) and returns a
// retryable *LoadError only when there is nothing to serve.
func (a *Adapter) LoadTripLedger(ctx context.Context, tripID string) ([]models.ExpenseRecord, models.Directory, error) {
	a.mu.RLock()
	snap, ok := a.snapshots[tripID]
	if ok && !snap.dirty {
		records, directory := snap.copyOut()
		a.mu.RUnlock()
		return records, directory, nil
	}
	a.mu.RUnlock()

	fresh, gen, err := a.reload(ctx, tripID)
	if err != nil {
		metrics.LoadFailuresTotal.Inc()
		a.mu.RLock()
		stale, ok := a.snapshots[tripID]
		if ok {
			records, directory := stale.copyOut()
			a.mu.RUnlock()
			metrics.StaleServesTotal.Inc()
			slog.Warn("serving stale ledger snapshot after load failure",
				"trip_id", tripID, "error", err)
			return records, directory, nil
		}
		a.mu.RUnlock()
		return nil, nil, &LoadError{TripID: tripID, Err: err}
	}

	records, directory := a.install(tripID, fresh, gen)
	return records, directory, nil
}

// Refresh forces a reload from the source, bypassing the snapshot. Used
// after external events and as the manual retry path; failures surface as
// a retryable *LoadError.
func (a *Adapter) Refresh(ctx context.Context, tripID string) error {
	fresh, gen, err := a.reload(ctx, tripID)
	if err != nil {
		metrics.LoadFailuresTotal.Inc()
		return &LoadError{TripID: tripID, Err: err}
	}

	a.install(tripID, fresh, gen)
	return nil
}

// RefreshMemberMetadata reloads only the member directory of a cached
// snapshot after a profile change. Balance amounts depend on record data
// alone, so the records and any aggregation derived from them stay valid.
func (a *Adapter) RefreshMemberMetadata(ctx context.Context, tripID string) error {
	members, err := a.store.ListMembers(ctx, tripID)
	if err != nil {
		return &LoadError{TripID: tripID, Err: err}
	}
	directory := a.buildDirectory(members)

	a.mu.Lock()
	defer a.mu.Unlock()
	if snap, ok := a.snapshots[tripID]; ok {
		snap.directory = directory
	}
	return nil
}

// Invalidate marks a trip's snapshot dirty and advances its generation. The
// snapshot is kept around as the stale fallback until a reload succeeds. The
// generation bump also covers the cold cache and any reload in flight, so an
// invalidation can never be lost to a concurrent load.
func (a *Adapter) Invalidate(tripID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.generations[tripID]++
	if snap, ok := a.snapshots[tripID]; ok {
		snap.dirty = true
	}
}

// install caches a reloaded snapshot. When the trip's generation moved while
// the store was being read, the snapshot may predate a committed write: it is
// still served (it is no older than what the caller had) but cached dirty so
// the next read reloads.
func (a *Adapter) install(tripID string, snap *snapshot, gen uint64) ([]models.ExpenseRecord, models.Directory) {
	a.mu.Lock()
	defer a.mu.Unlock()
	snap.dirty = a.generations[tripID] != gen
	a.snapshots[tripID] = snap
	return snap.copyOut()
}

func (a *Adapter) reload(ctx context.Context, tripID string) (*snapshot, uint64, error) {
	a.mu.RLock()
	gen := a.generations[tripID]
	a.mu.RUnlock()

	records, err := a.store.ListExpenseRecords(ctx, tripID)
	if err != nil {
		return nil, 0, err
	}
	members, err := a.store.ListMembers(ctx, tripID)
	if err != nil {
		return nil, 0, err
	}

	normalized := make([]models.ExpenseRecord, 0, len(records))
	for _, rec := range records {
		normalized = append(normalized, a.normalizeRecord(rec))
	}
	sort.Slice(normalized, func(i, j int) bool {
		if !normalized[i].CreatedAt.Equal(normalized[j].CreatedAt) {
			return normalized[i].CreatedAt.Before(normalized[j].CreatedAt)
		}
		return normalized[i].ID < normalized[j].ID
	})

	return &snapshot{records: normalized, directory: a.buildDirectory(members)}, gen, nil
}

// normalizeRecord applies the canonical defaulting rules. Both sources get
// the exact same treatment here, which is what keeps summary semantics
// identical across them.
func (a *Adapter) normalizeRecord(rec models.ExpenseRecord) models.ExpenseRecord {
	rec.ID = strings.TrimSpace(rec.ID)
	rec.TripID = strings.TrimSpace(rec.TripID)
	rec.PayerID = strings.TrimSpace(rec.PayerID)
	rec.Description = strings.TrimSpace(rec.Description)

	rec.Currency = strings.ToUpper(strings.TrimSpace(rec.Currency))
	if rec.Currency == "" {
		rec.Currency = a.baseCurrency
	}

	// Participants are a set: drop blanks and duplicates, keep order.
	seen := make(map[string]bool, len(rec.SplitParticipants))
	participants := make([]string, 0, len(rec.SplitParticipants))
	for _, p := range rec.SplitParticipants {
		p = strings.TrimSpace(p)
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		participants = append(participants, p)
	}
	rec.SplitParticipants = participants

	// A resolved participant list is authoritative over a stored count;
	// only unresolved legacy rows keep their explicit count.
	if len(rec.SplitParticipants) > 0 {
		rec.SplitCount = len(rec.SplitParticipants)
	}

	return rec
}

func (a *Adapter) buildDirectory(members []models.Member) models.Directory {
	directory := make(models.Directory, len(members))
	for _, m := range members {
		m.ID = strings.TrimSpace(m.ID)
		m.DisplayName = strings.TrimSpace(m.DisplayName)
		if m.DisplayName == "" {
			m.DisplayName = models.PlaceholderName(m.ID)
		}
		directory[m.ID] = m
	}
	return directory
}

// copyOut returns defensive copies so callers can never mutate the cache.
func (s *snapshot) copyOut() ([]models.ExpenseRecord, models.Directory) {
	records := make([]models.ExpenseRecord, len(s.records))
	for i, rec := range s.records {
		records[i] = rec
		records[i].SplitParticipants = append([]string(nil), rec.SplitParticipants...)
	}
	directory := make(models.Directory, len(s.directory))
	for id, m := range s.directory {
		directory[id] = m
	}
	return records, directory
}
