package sample

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tripmate/tripledger/internal/models"
)

// DemoTripID is the trip the seeded dataset belongs to.
const DemoTripID = "trip-lisbon"

// seed loads the demo trip. A couple of the records deliberately carry the
// rough edges seen in real exports (missing currency, a stale split count,
// an id referencing a member who left the group) so the reconciliation
// layer gets exercised even in demo mode.
func seed(s *Store) {
	ctx := context.Background()

	members := []models.Member{
		{ID: "m-asha", DisplayName: "Asha", AvatarRef: "avatars/asha.png"},
		{ID: "m-bruno", DisplayName: "Bruno", AvatarRef: "avatars/bruno.png"},
		{ID: "m-chloe", DisplayName: "Chloe", AvatarRef: "avatars/chloe.png"},
		{ID: "m-dinesh", DisplayName: "Dinesh", AvatarRef: "avatars/dinesh.png"},
	}
	for _, m := range members {
		_ = s.UpsertMember(ctx, DemoTripID, m)
	}

	base := time.Date(2026, time.May, 14, 19, 30, 0, 0, time.UTC)
	settledAt := base.Add(26 * time.Hour)

	records := []models.ExpenseRecord{
		{
			ID:                "seed-dinner",
			TripID:            DemoTripID,
			PayerID:           "m-asha",
			Amount:            decimal.RequireFromString("96.40"),
			Currency:          "EUR",
			Description:       "Dinner at Cervejaria Ramiro",
			SplitParticipants: []string{"m-asha", "m-bruno", "m-chloe", "m-dinesh"},
			SplitCount:        4,
			CreatedAt:         base,
		},
		{
			ID:                "seed-taxi",
			TripID:            DemoTripID,
			PayerID:           "m-bruno",
			Amount:            decimal.RequireFromString("18.00"),
			Currency:          "", // legacy row, currency defaulted on load
			Description:       "Airport taxi",
			SplitParticipants: []string{"m-bruno", "m-asha"},
			SplitCount:        3, // stale count, reconciled against participants
			CreatedAt:         base.Add(2 * time.Hour),
		},
		{
			ID:                "seed-museum",
			TripID:            DemoTripID,
			PayerID:           "m-chloe",
			Amount:            decimal.RequireFromString("45.00"),
			Currency:          "EUR",
			Description:       "Tile museum tickets",
			SplitParticipants: []string{"m-chloe", "m-dinesh", "m-ghost"},
			SplitCount:        3,
			CreatedAt:         base.Add(20 * time.Hour),
		},
		{
			ID:                "seed-groceries",
			TripID:            DemoTripID,
			PayerID:           "m-dinesh",
			Amount:            decimal.RequireFromString("32.75"),
			Currency:          "EUR",
			Description:       "Groceries for the apartment",
			SplitParticipants: []string{"m-asha", "m-bruno", "m-chloe", "m-dinesh"},
			SplitCount:        4,
			IsSettled:         true,
			SettledAt:         &settledAt,
			SettledBy:         "m-dinesh",
			CreatedAt:         base.Add(22 * time.Hour),
		},
	}
	for i := range records {
		_ = s.InsertExpenseRecord(ctx, &records[i])
	}
}
