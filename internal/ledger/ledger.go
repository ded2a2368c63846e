package ledger

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tripmate/tripledger/internal/calculator"
	"github.com/tripmate/tripledger/internal/metrics"
	"github.com/tripmate/tripledger/internal/models"
	"github.com/tripmate/tripledger/internal/notify"
	"github.com/tripmate/tripledger/internal/storage"
)

// Ledger is the façade the screens consume. All balance-affecting writes
// follow invalidate-and-recompute: the write commits, a change event fires,
// and every viewer re-fetches a freshly computed summary. No summary is
// ever patched incrementally or cached past a change.
type Ledger struct {
	store        storage.Store
	adapter      *Adapter
	bus          *notify.Bus
	baseCurrency string
}

// New creates a ledger façade over the given store and adapter.
func New(store storage.Store, adapter *Adapter, bus *notify.Bus, baseCurrency string) *Ledger {
	return &Ledger{
		store:        store,
		adapter:      adapter,
		bus:          bus,
		baseCurrency: strings.ToUpper(strings.TrimSpace(baseCurrency)),
	}
}

// CreatePayment validates and persists a new expense record. Validation
// failures are rejected synchronously with *calculator.InvalidSplitError
// before anything reaches the store.
func (l *Ledger) CreatePayment(ctx context.Context, in models.CreatePaymentInput) (models.ExpenseRecord, error) {
	in.Currency = strings.ToUpper(strings.TrimSpace(in.Currency))
	if err := calculator.ValidateCreateInput(in); err != nil {
		return models.ExpenseRecord{}, err
	}
	if strings.TrimSpace(in.TripID) == "" {
		return models.ExpenseRecord{}, &calculator.InvalidSplitError{Reason: "trip id is required"}
	}
	if strings.TrimSpace(in.PayerID) == "" {
		return models.ExpenseRecord{}, &calculator.InvalidSplitError{Reason: "payer id is required"}
	}

	participants := dedupe(in.SplitParticipants)
	if len(participants) == 0 {
		return models.ExpenseRecord{}, &calculator.InvalidSplitError{Reason: "at least one split participant is required"}
	}

	rec := models.ExpenseRecord{
		ID:                uuid.New().String(),
		TripID:            strings.TrimSpace(in.TripID),
		PayerID:           strings.TrimSpace(in.PayerID),
		Amount:            in.Amount,
		Currency:          in.Currency,
		Description:       strings.TrimSpace(in.Description),
		SplitParticipants: participants,
		SplitCount:        len(participants),
		CreatedAt:         time.Now().UTC(),
	}

	if err := l.store.InsertExpenseRecord(ctx, &rec); err != nil {
		return models.ExpenseRecord{}, err
	}

	// Synchronous invalidation gives the writer read-your-writes; the bus
	// event covers everyone else.
	l.adapter.Invalidate(rec.TripID)

	metrics.PaymentsCreatedTotal.Inc()
	slog.Info("payment created",
		"trip_id", rec.TripID, "record_id", rec.ID,
		"amount", rec.Amount, "currency", rec.Currency,
		"split_count", rec.SplitCount)
	l.publish(notify.Event{TripID: rec.TripID, Kind: notify.KindPaymentCreated, RecordID: rec.ID})

	return rec, nil
}

// MarkSettled transitions a record to settled. Settling twice is a
// successful no-op; a record outside the caller's trip is ErrNotFound.
func (l *Ledger) MarkSettled(ctx context.Context, tripID, recordID, by string) (models.ExpenseRecord, error) {
	rec, applied, err := l.store.UpdateSettlement(ctx, tripID, recordID, by, time.Now().UTC())
	if err != nil {
		return models.ExpenseRecord{}, err
	}

	if applied {
		l.adapter.Invalidate(tripID)
		metrics.SettlementsTotal.WithLabelValues("applied").Inc()
		slog.Info("payment settled", "trip_id", tripID, "record_id", recordID, "by", by)
		l.publish(notify.Event{TripID: tripID, Kind: notify.KindSettlementUpdated, RecordID: recordID})
	} else {
		metrics.SettlementsTotal.WithLabelValues("noop").Inc()
	}

	return rec, nil
}

// GetBalanceSummary recomputes the viewer's summary from the current record
// set. Always a pure read; nothing is cached or persisted.
func (l *Ledger) GetBalanceSummary(ctx context.Context, tripID, viewerID string) (models.BalanceSummary, error) {
	records, directory, err := l.adapter.LoadTripLedger(ctx, tripID)
	if err != nil {
		return models.BalanceSummary{}, err
	}

	summary, err := calculator.Aggregate(records, tripID, viewerID, directory, l.baseCurrency)
	if err != nil {
		return models.BalanceSummary{}, err
	}

	metrics.AggregationsTotal.Inc()
	return summary, nil
}

// ListPayments returns the trip's full payment history, settled records
// included, in stable creation order.
func (l *Ledger) ListPayments(ctx context.Context, tripID string) ([]models.ExpenseRecord, error) {
	records, _, err := l.adapter.LoadTripLedger(ctx, tripID)
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Refresh forces a reload from the active source, e.g. after another
// member created a payment on a different device.
func (l *Ledger) Refresh(ctx context.Context, tripID string) error {
	return l.adapter.Refresh(ctx, tripID)
}

func (l *Ledger) publish(ev notify.Event) {
	if l.bus != nil {
		l.bus.Publish(ev)
	}
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
