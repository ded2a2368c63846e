package models

import "github.com/shopspring/decimal"

// BalanceEntry is one counterpart relationship from the viewer's
// perspective.
type BalanceEntry struct {
	// CounterpartID is the other member in the relationship.
	CounterpartID string

	// CounterpartName is the resolved display name, or a placeholder when
	// the id could not be resolved.
	CounterpartName string

	// AmountOwed is signed: positive means the counterpart owes the
	// viewer, negative means the viewer owes the counterpart.
	AmountOwed decimal.Decimal

	// Currency is the ISO code of the contributing records.
	Currency string

	// UnsettledRecordIDs lists the expense records contributing to this
	// entry, ordered by creation time.
	UnsettledRecordIDs []string
}

// BalanceSummary is the aggregate net position for one (trip, viewer) pair.
// It is always derived from the current record set and never stored.
type BalanceSummary struct {
	// TripID and ViewerID identify the pair the summary was computed for.
	TripID   string
	ViewerID string

	// TotalOwed is what the viewer owes others. Never negative.
	TotalOwed decimal.Decimal

	// TotalOwedToViewer is what others owe the viewer. Never negative.
	TotalOwedToViewer decimal.Decimal

	// NetBalance is TotalOwedToViewer - TotalOwed.
	NetBalance decimal.Decimal

	// BaseCurrency is a label carried for display; no conversion applies.
	BaseCurrency string

	// Balances holds the per-counterpart breakdown, sorted by absolute
	// AmountOwed descending then CounterpartName ascending.
	Balances []BalanceEntry
}
