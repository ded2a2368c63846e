// Package models defines the core domain models for the trip payment ledger.
//
// # Models
//
//   - ExpenseRecord: one logged shared cost event within a trip
//   - Member: a trip member as seen by the ledger (display metadata only)
//   - BalanceEntry: one counterpart relationship from a viewer's perspective
//   - BalanceSummary: the computed net position for one (trip, viewer) pair
//
// # Design Principles
//
// 1. **Append-only records**: an ExpenseRecord is immutable after creation
// except for its settlement fields. Disputed entries are corrected with an
// offsetting record, never by editing history.
//
// 2. **Derived summaries**: a BalanceSummary is never persisted. It is
// recomputed from the current record set on every read, so it can never go
// stale relative to the records it was derived from.
//
// 3. **Exact money**: amounts are decimal.Decimal, not float64. Rounding
// happens exactly once, in the split calculator, at the currency's
// minor-unit precision.
package models
