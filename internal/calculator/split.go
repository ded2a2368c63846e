// Package calculator implements the split and balance aggregation
// arithmetic for the trip payment ledger. Everything in this package is a
// pure function over its inputs: no storage, no clocks, no ambient lookups.
package calculator

import (
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"github.com/tripmate/tripledger/internal/models"
)

// InvalidSplitError reports malformed split input. It is raised before any
// record is persisted.
type InvalidSplitError struct {
	Reason string
}

func (e *InvalidSplitError) Error() string {
	return fmt.Sprintf("invalid split: %s", e.Reason)
}

// Share is the result of splitting one expense record equally.
type Share struct {
	// PerParticipant is each participant's share, rounded to the
	// currency's minor-unit precision with banker's rounding.
	PerParticipant decimal.Decimal

	// PayerResidual is the leftover from rounding, attributed to the
	// payer so that PerParticipant*count + PayerResidual == Amount
	// exactly. May be negative when shares round up.
	PayerResidual decimal.Decimal
}

// MinorUnits returns the number of minor-unit digits for an ISO currency
// code. Codes missing from the go-money table fall back to two digits.
func MinorUnits(code string) int32 {
	if c := money.GetCurrency(strings.ToUpper(code)); c != nil {
		return int32(c.Fraction)
	}
	return 2
}

// ComputeShare splits rec.Amount equally across rec.SplitCount shares.
func ComputeShare(rec models.ExpenseRecord) (Share, error) {
	if rec.SplitCount <= 0 {
		return Share{}, &InvalidSplitError{Reason: fmt.Sprintf("split count must be at least 1, got %d", rec.SplitCount)}
	}
	if !rec.Amount.IsPositive() {
		return Share{}, &InvalidSplitError{Reason: fmt.Sprintf("amount must be positive, got %s", rec.Amount)}
	}

	count := decimal.NewFromInt(int64(rec.SplitCount))
	per := rec.Amount.Div(count).RoundBank(MinorUnits(rec.Currency))
	residual := rec.Amount.Sub(per.Mul(count))

	return Share{PerParticipant: per, PayerResidual: residual}, nil
}

// ValidateCreateInput checks the caller-supplied fields of a new payment.
// It applies the same rules ComputeShare will later enforce, so invalid
// splits are rejected synchronously and never reach the store.
func ValidateCreateInput(in models.CreatePaymentInput) error {
	if !in.Amount.IsPositive() {
		return &InvalidSplitError{Reason: fmt.Sprintf("amount must be positive, got %s", in.Amount)}
	}
	if len(in.SplitParticipants) == 0 {
		return &InvalidSplitError{Reason: "at least one split participant is required"}
	}
	if in.Currency == "" {
		return &InvalidSplitError{Reason: "currency is required"}
	}
	return nil
}
