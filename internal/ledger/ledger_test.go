package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/tripmate/tripledger/internal/calculator"
	"github.com/tripmate/tripledger/internal/models"
	"github.com/tripmate/tripledger/internal/notify"
	"github.com/tripmate/tripledger/internal/storage"
	"github.com/tripmate/tripledger/internal/storage/sample"
)

const facadeTrip = "trip-facade"

func newTestLedger(t *testing.T) (*Ledger, *sample.Store) {
	t.Helper()
	store := sample.NewEmpty()
	ctx := context.Background()
	_ = store.UpsertMember(ctx, facadeTrip, models.Member{ID: "m-a", DisplayName: "Avery"})
	_ = store.UpsertMember(ctx, facadeTrip, models.Member{ID: "m-b", DisplayName: "Bea"})
	_ = store.UpsertMember(ctx, facadeTrip, models.Member{ID: "m-c", DisplayName: "Cara"})

	bus := notify.NewBus()
	adapter := NewAdapter(store, "EUR", bus)
	t.Cleanup(adapter.Close)

	return New(store, adapter, bus, "EUR"), store
}

func createInput(amount string, participants ...string) models.CreatePaymentInput {
	return models.CreatePaymentInput{
		TripID:            facadeTrip,
		PayerID:           "m-a",
		Amount:            decimal.RequireFromString(amount),
		Currency:          "EUR",
		Description:       "test payment",
		SplitParticipants: participants,
	}
}

func TestCreatePaymentValidation(t *testing.T) {
	ldg, store := newTestLedger(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*models.CreatePaymentInput)
	}{
		{"zero amount", func(in *models.CreatePaymentInput) { in.Amount = decimal.Zero }},
		{"negative amount", func(in *models.CreatePaymentInput) { in.Amount = decimal.RequireFromString("-1") }},
		{"no participants", func(in *models.CreatePaymentInput) { in.SplitParticipants = nil }},
		{"blank participants only", func(in *models.CreatePaymentInput) { in.SplitParticipants = []string{" ", ""} }},
		{"missing currency", func(in *models.CreatePaymentInput) { in.Currency = "" }},
		{"missing trip", func(in *models.CreatePaymentInput) { in.TripID = "" }},
		{"missing payer", func(in *models.CreatePaymentInput) { in.PayerID = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := createInput("10.00", "m-a", "m-b")
			tt.mutate(&in)

			_, err := ldg.CreatePayment(ctx, in)
			var invalid *calculator.InvalidSplitError
			if !errors.As(err, &invalid) {
				t.Errorf("error = %v, want InvalidSplitError", err)
			}
		})
	}

	// Nothing may reach the store on validation failure.
	records, err := store.ListExpenseRecords(ctx, facadeTrip)
	if err != nil {
		t.Fatalf("ListExpenseRecords failed: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("store has %d records after rejected creates, want 0", len(records))
	}
}

func TestCreatePaymentAssignsIdentityAndNormalizes(t *testing.T) {
	ldg, _ := newTestLedger(t)
	ctx := context.Background()

	in := createInput("30.00", "m-a", "m-b", "m-b", "m-c")
	in.Currency = "eur"
	rec, err := ldg.CreatePayment(ctx, in)
	if err != nil {
		t.Fatalf("CreatePayment failed: %v", err)
	}

	if rec.ID == "" || rec.CreatedAt.IsZero() {
		t.Error("expected ID and CreatedAt to be assigned")
	}
	if rec.Currency != "EUR" {
		t.Errorf("Currency = %q, want EUR", rec.Currency)
	}
	if rec.SplitCount != 3 || len(rec.SplitParticipants) != 3 {
		t.Errorf("split = %v (count %d), want 3 deduplicated participants",
			rec.SplitParticipants, rec.SplitCount)
	}
	if rec.IsSettled {
		t.Error("new record must start pending")
	}
}

func TestCreatePaymentRecomputesSummaries(t *testing.T) {
	ldg, _ := newTestLedger(t)
	ctx := context.Background()

	summary, err := ldg.GetBalanceSummary(ctx, facadeTrip, "m-b")
	if err != nil {
		t.Fatalf("GetBalanceSummary failed: %v", err)
	}
	if !summary.NetBalance.IsZero() {
		t.Fatalf("empty trip net = %s, want 0", summary.NetBalance)
	}

	if _, err := ldg.CreatePayment(ctx, createInput("30.00", "m-a", "m-b", "m-c")); err != nil {
		t.Fatalf("CreatePayment failed: %v", err)
	}

	// The write invalidates the snapshot; the next read recomputes.
	summary, err = ldg.GetBalanceSummary(ctx, facadeTrip, "m-b")
	if err != nil {
		t.Fatalf("GetBalanceSummary failed: %v", err)
	}
	if !summary.TotalOwed.Equal(decimal.RequireFromString("10.00")) {
		t.Errorf("TotalOwed = %s, want 10.00", summary.TotalOwed)
	}
	if !summary.NetBalance.Equal(decimal.RequireFromString("-10.00")) {
		t.Errorf("NetBalance = %s, want -10.00", summary.NetBalance)
	}
	if summary.BaseCurrency != "EUR" {
		t.Errorf("BaseCurrency = %q, want EUR", summary.BaseCurrency)
	}
}

func TestMarkSettledFlow(t *testing.T) {
	ldg, _ := newTestLedger(t)
	ctx := context.Background()

	rec, err := ldg.CreatePayment(ctx, createInput("20.00", "m-a", "m-b"))
	if err != nil {
		t.Fatalf("CreatePayment failed: %v", err)
	}

	t.Run("unknown record is NotFound", func(t *testing.T) {
		_, err := ldg.MarkSettled(ctx, facadeTrip, "no-such-record", "m-b")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("error = %v, want ErrNotFound", err)
		}
	})

	t.Run("wrong trip is NotFound", func(t *testing.T) {
		_, err := ldg.MarkSettled(ctx, "trip-other", rec.ID, "m-b")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("error = %v, want ErrNotFound", err)
		}
	})

	t.Run("settlement zeroes the balance", func(t *testing.T) {
		settled, err := ldg.MarkSettled(ctx, facadeTrip, rec.ID, "m-b")
		if err != nil {
			t.Fatalf("MarkSettled failed: %v", err)
		}
		if !settled.IsSettled || settled.SettledAt == nil {
			t.Error("record not settled")
		}

		summary, err := ldg.GetBalanceSummary(ctx, facadeTrip, "m-b")
		if err != nil {
			t.Fatalf("GetBalanceSummary failed: %v", err)
		}
		if !summary.NetBalance.IsZero() {
			t.Errorf("net after settlement = %s, want 0", summary.NetBalance)
		}
	})

	t.Run("repeat settlement does not double count", func(t *testing.T) {
		first, err := ldg.MarkSettled(ctx, facadeTrip, rec.ID, "m-c")
		if err != nil {
			t.Fatalf("repeat MarkSettled failed: %v", err)
		}
		if first.SettledBy != "m-b" {
			t.Errorf("SettledBy = %s, want original m-b", first.SettledBy)
		}

		summary, err := ldg.GetBalanceSummary(ctx, facadeTrip, "m-b")
		if err != nil {
			t.Fatalf("GetBalanceSummary failed: %v", err)
		}
		if !summary.NetBalance.IsZero() {
			t.Errorf("net after repeat settlement = %s, want 0", summary.NetBalance)
		}
	})
}

func TestListPaymentsIncludesSettledHistory(t *testing.T) {
	ldg, _ := newTestLedger(t)
	ctx := context.Background()

	r1, err := ldg.CreatePayment(ctx, createInput("20.00", "m-a", "m-b"))
	if err != nil {
		t.Fatalf("CreatePayment failed: %v", err)
	}
	if _, err := ldg.CreatePayment(ctx, createInput("5.00", "m-a", "m-c")); err != nil {
		t.Fatalf("CreatePayment failed: %v", err)
	}
	if _, err := ldg.MarkSettled(ctx, facadeTrip, r1.ID, "m-b"); err != nil {
		t.Fatalf("MarkSettled failed: %v", err)
	}

	payments, err := ldg.ListPayments(ctx, facadeTrip)
	if err != nil {
		t.Fatalf("ListPayments failed: %v", err)
	}
	if len(payments) != 2 {
		t.Fatalf("got %d payments, want 2 (settled history stays visible)", len(payments))
	}

	var settled int
	for _, p := range payments {
		if p.IsSettled {
			settled++
		}
	}
	if settled != 1 {
		t.Errorf("got %d settled payments, want 1", settled)
	}
}

func TestRefreshSurfacesLoadError(t *testing.T) {
	inner := sample.NewEmpty()
	flaky := &flakyStore{Store: inner, failRecords: true}
	adapter := NewAdapter(flaky, "EUR", nil)
	ldg := New(flaky, adapter, nil, "EUR")

	var loadErr *LoadError
	if err := ldg.Refresh(context.Background(), facadeTrip); !errors.As(err, &loadErr) {
		t.Errorf("Refresh error = %v, want LoadError", err)
	}
}
