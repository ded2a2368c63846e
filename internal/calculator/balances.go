package calculator

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/tripmate/tripledger/internal/models"
)

// counterpartAccum is the running state for one counterpart and currency
// while aggregating a record set.
type counterpartAccum struct {
	net       decimal.Decimal
	recordIDs []string
}

// pairKey keys accumulators by counterpart and currency. Records in
// different currencies never net against each other; conversion is out of
// scope, so a mixed-currency pair yields one entry per currency.
type pairKey struct {
	counterpartID string
	currency      string
}

// Aggregate computes the balance summary for one viewer from a trip's full
// record set.
//
// Algorithm:
//   - Settled records contribute nothing (they stay visible in history via
//     the façade's payment list, not here).
//   - For each unsettled record the per-participant share is computed once.
//     When the viewer is the payer, every other participant owes the viewer
//     one share. When the viewer is a participant and not the payer, the
//     viewer owes the payer one share. The payer's own share is never owed
//     to anyone.
//   - Signed amounts accumulate per counterpart and currency, so multiple
//     records between the same two members net against each other only when
//     they share a currency. The summary totals add across currencies
//     without conversion; they are meaningful labels only for trips kept in
//     the base currency, which normalization makes the common case.
//
// Records that involve the viewer neither as payer nor as participant are
// no-ops. Counterpart ids missing from the directory surface with a
// placeholder name but still count monetarily.
func Aggregate(records []models.ExpenseRecord, tripID, viewerID string, directory models.Directory, baseCurrency string) (models.BalanceSummary, error) {
	accums := make(map[pairKey]*counterpartAccum)

	accumulate := func(counterpartID string, amount decimal.Decimal, rec models.ExpenseRecord) {
		key := pairKey{counterpartID: counterpartID, currency: rec.Currency}
		acc, ok := accums[key]
		if !ok {
			acc = &counterpartAccum{net: decimal.Zero}
			accums[key] = acc
		}
		acc.net = acc.net.Add(amount)
		acc.recordIDs = append(acc.recordIDs, rec.ID)
	}

	for _, rec := range records {
		if rec.IsSettled {
			continue
		}
		if !rec.InvolvesMember(viewerID) {
			continue
		}

		share, err := ComputeShare(rec)
		if err != nil {
			return models.BalanceSummary{}, fmt.Errorf("record %s: %w", rec.ID, err)
		}

		if rec.PayerID == viewerID {
			for _, p := range rec.SplitParticipants {
				if p == viewerID {
					continue
				}
				accumulate(p, share.PerParticipant, rec)
			}
			continue
		}

		for _, p := range rec.SplitParticipants {
			if p == viewerID {
				accumulate(rec.PayerID, share.PerParticipant.Neg(), rec)
				break
			}
		}
	}

	summary := models.BalanceSummary{
		TripID:            tripID,
		ViewerID:          viewerID,
		TotalOwed:         decimal.Zero,
		TotalOwedToViewer: decimal.Zero,
		BaseCurrency:      baseCurrency,
	}

	for key, acc := range accums {
		entry := models.BalanceEntry{
			CounterpartID:      key.counterpartID,
			CounterpartName:    directory.Resolve(key.counterpartID).DisplayName,
			AmountOwed:         acc.net,
			Currency:           key.currency,
			UnsettledRecordIDs: acc.recordIDs,
		}
		summary.Balances = append(summary.Balances, entry)

		switch {
		case acc.net.IsNegative():
			summary.TotalOwed = summary.TotalOwed.Add(acc.net.Neg())
		case acc.net.IsPositive():
			summary.TotalOwedToViewer = summary.TotalOwedToViewer.Add(acc.net)
		}
	}
	summary.NetBalance = summary.TotalOwedToViewer.Sub(summary.TotalOwed)

	// Deterministic ordering: largest absolute balance first, then name,
	// counterpart id and currency as tie-breaks.
	sort.Slice(summary.Balances, func(i, j int) bool {
		a, b := summary.Balances[i], summary.Balances[j]
		absA, absB := a.AmountOwed.Abs(), b.AmountOwed.Abs()
		if !absA.Equal(absB) {
			return absA.GreaterThan(absB)
		}
		if a.CounterpartName != b.CounterpartName {
			return a.CounterpartName < b.CounterpartName
		}
		if a.CounterpartID != b.CounterpartID {
			return a.CounterpartID < b.CounterpartID
		}
		return a.Currency < b.Currency
	})

	return summary, nil
}
