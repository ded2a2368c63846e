package calculator

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/tripmate/tripledger/internal/models"
)

func record(amount, currency string, count int) models.ExpenseRecord {
	return models.ExpenseRecord{
		ID:         "rec-1",
		TripID:     "trip-1",
		PayerID:    "m-payer",
		Amount:     decimal.RequireFromString(amount),
		Currency:   currency,
		SplitCount: count,
	}
}

func TestComputeShare(t *testing.T) {
	tests := []struct {
		name         string
		rec          models.ExpenseRecord
		wantPer      string
		wantResidual string
		wantErr      bool
	}{
		{
			name:         "even split, no residual",
			rec:          record("30.00", "USD", 3),
			wantPer:      "10.00",
			wantResidual: "0.00",
		},
		{
			name:         "residual cent goes to payer",
			rec:          record("10.00", "USD", 3),
			wantPer:      "3.33",
			wantResidual: "0.01",
		},
		{
			name:         "negative residual when shares round up",
			rec:          record("20.00", "USD", 3),
			wantPer:      "6.67",
			wantResidual: "-0.01",
		},
		{
			name:         "bankers rounding ties to even, down",
			rec:          record("0.25", "USD", 2),
			wantPer:      "0.12",
			wantResidual: "0.01",
		},
		{
			name:         "bankers rounding ties to even, up",
			rec:          record("0.35", "USD", 2),
			wantPer:      "0.18",
			wantResidual: "-0.01",
		},
		{
			name:         "zero minor unit currency",
			rec:          record("100", "JPY", 3),
			wantPer:      "33",
			wantResidual: "1",
		},
		{
			name:         "unknown currency falls back to two digits",
			rec:          record("10.00", "XXQ", 3),
			wantPer:      "3.33",
			wantResidual: "0.01",
		},
		{
			name:    "zero split count",
			rec:     record("10.00", "USD", 0),
			wantErr: true,
		},
		{
			name:    "negative amount",
			rec:     record("-5.00", "USD", 2),
			wantErr: true,
		},
		{
			name:    "zero amount",
			rec:     record("0", "USD", 2),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			share, err := ComputeShare(tt.rec)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				var invalid *InvalidSplitError
				if !errors.As(err, &invalid) {
					t.Errorf("expected InvalidSplitError, got %T", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ComputeShare() error = %v", err)
			}

			if got := share.PerParticipant.String(); got != tt.wantPer {
				t.Errorf("PerParticipant = %s, want %s", got, tt.wantPer)
			}
			if got := share.PayerResidual.String(); got != tt.wantResidual {
				t.Errorf("PayerResidual = %s, want %s", got, tt.wantResidual)
			}
		})
	}
}

// TestSplitCompleteness verifies that shares plus the payer's residual
// reconstruct the amount exactly: no cent ever leaks through rounding.
func TestSplitCompleteness(t *testing.T) {
	amounts := []string{"10.00", "20.00", "0.01", "0.05", "99.99", "1234.56", "7.77"}
	for _, amount := range amounts {
		for count := 1; count <= 9; count++ {
			rec := record(amount, "EUR", count)
			share, err := ComputeShare(rec)
			if err != nil {
				t.Fatalf("ComputeShare(%s / %d) error = %v", amount, count, err)
			}

			total := share.PerParticipant.Mul(decimal.NewFromInt(int64(count))).Add(share.PayerResidual)
			if !total.Equal(rec.Amount) {
				t.Errorf("amount %s split %d ways: shares sum to %s, want %s",
					amount, count, total, rec.Amount)
			}
		}
	}
}

func TestValidateCreateInput(t *testing.T) {
	valid := models.CreatePaymentInput{
		TripID:            "trip-1",
		PayerID:           "m-a",
		Amount:            decimal.RequireFromString("10.00"),
		Currency:          "EUR",
		SplitParticipants: []string{"m-a", "m-b"},
	}

	t.Run("valid input passes", func(t *testing.T) {
		if err := ValidateCreateInput(valid); err != nil {
			t.Errorf("ValidateCreateInput() error = %v", err)
		}
	})

	t.Run("non-positive amount rejected", func(t *testing.T) {
		in := valid
		in.Amount = decimal.Zero
		if err := ValidateCreateInput(in); err == nil {
			t.Error("expected error for zero amount")
		}
	})

	t.Run("empty participants rejected", func(t *testing.T) {
		in := valid
		in.SplitParticipants = nil
		if err := ValidateCreateInput(in); err == nil {
			t.Error("expected error for empty participants")
		}
	})

	t.Run("missing currency rejected", func(t *testing.T) {
		in := valid
		in.Currency = ""
		if err := ValidateCreateInput(in); err == nil {
			t.Error("expected error for missing currency")
		}
	})
}
