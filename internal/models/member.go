package models

import "fmt"

// Member represents a trip member as the ledger sees them: display metadata
// only. Accounts, auth and profiles live outside this subsystem.
type Member struct {
	// ID is the member's unique identifier.
	ID string

	// DisplayName is the name shown on balance entries.
	DisplayName string

	// AvatarRef is an opaque reference to the member's avatar, passed
	// through untouched for the screens to resolve.
	AvatarRef string
}

// Directory maps member IDs to members for name resolution during
// aggregation. It is passed explicitly so the aggregator stays a pure
// function with no ambient lookups.
type Directory map[string]Member

// Resolve returns the member for id, or a stable placeholder when the id is
// unknown. Unresolvable ids are a warning condition, never an error: one bad
// reference must not block the rest of the ledger.
func (d Directory) Resolve(id string) Member {
	if m, ok := d[id]; ok {
		return m
	}
	return Member{ID: id, DisplayName: PlaceholderName(id)}
}

// PlaceholderName builds the display name used for member ids that cannot
// be resolved. Stable for a given id so repeated aggregations agree.
func PlaceholderName(id string) string {
	short := id
	if len(short) > 8 {
		short = short[:8]
	}
	if short == "" {
		short = "unknown"
	}
	return fmt.Sprintf("Unknown member (%s)", short)
}
