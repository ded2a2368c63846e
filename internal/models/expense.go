package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExpenseRecord represents one shared cost event within a trip.
// All fields except the settlement fields are immutable once created.
type ExpenseRecord struct {
	// ID is the unique identifier for the record (UUID format).
	ID string

	// TripID is the trip this record belongs to.
	TripID string

	// PayerID is the member who fronted the money.
	PayerID string

	// Amount is the total cost of the record. Always positive.
	Amount decimal.Decimal

	// Currency is the ISO 4217 code the amount is tracked in.
	// No conversion is ever applied; the code only selects minor-unit
	// precision and is carried through to balance entries.
	Currency string

	// Description is free text entered by the payer.
	Description string

	// SplitParticipants is the set of member IDs sharing the cost.
	// It may or may not include the payer.
	SplitParticipants []string

	// SplitCount is the number of shares the amount is divided into.
	// Equals len(SplitParticipants) when participants are resolved;
	// legacy records may carry an explicit count with participants
	// unresolved.
	SplitCount int

	// IsSettled reports whether the record has been marked settled.
	// The transition is one-way; see the settlement package.
	IsSettled bool

	// SettledAt is set exactly once, when IsSettled transitions to true.
	SettledAt *time.Time

	// SettledBy is the member who marked the record settled.
	SettledBy string

	// CreatedAt is the immutable creation time, used for stable ordering.
	CreatedAt time.Time
}

// InvolvesMember reports whether the member participates in this record,
// either as payer or as one of the split participants.
func (r ExpenseRecord) InvolvesMember(memberID string) bool {
	if r.PayerID == memberID {
		return true
	}
	for _, p := range r.SplitParticipants {
		if p == memberID {
			return true
		}
	}
	return false
}

// CreatePaymentInput carries the caller-supplied fields for a new record.
type CreatePaymentInput struct {
	TripID            string
	PayerID           string
	Amount            decimal.Decimal
	Currency          string
	Description       string
	SplitParticipants []string
}
