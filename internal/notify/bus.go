// Package notify implements the in-process change notification stream for
// trip ledgers. A mutation publishes an event keyed by trip id; consumers
// (the reconciliation adapter, live viewers) re-fetch rather than patch in
// place, because one new record can change every member's balance.
package notify

import (
	"log/slog"
	"sync"
)

// Kind classifies a ledger change event.
type Kind string

const (
	// KindPaymentCreated fires after a new expense record is committed.
	KindPaymentCreated Kind = "payment_created"

	// KindSettlementUpdated fires after a record transitions to settled.
	KindSettlementUpdated Kind = "settlement_updated"

	// KindMemberUpdated fires after a member profile change. Only display
	// metadata is affected; no monetary recomputation is needed.
	KindMemberUpdated Kind = "member_updated"
)

// Event describes one change to a trip's ledger.
type Event struct {
	TripID   string
	Kind     Kind
	RecordID string
	MemberID string
}

// Bus is a minimal fan-out event bus. Delivery is best effort: a subscriber
// whose buffer is full has its event dropped rather than stalling the
// writer, since consumers reload full state anyway.
type Bus struct {
	mu   sync.RWMutex
	subs map[int]chan Event
	next int
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan Event)}
}

// Subscribe registers a new subscriber with the given channel buffer.
// The returned cancel func removes the subscription and closes the channel.
func (b *Bus) Subscribe(buffer int) (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.next
	b.next++
	ch := make(chan Event, buffer)
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Publish delivers ev to all subscribers without blocking.
func (b *Bus) Publish(ev Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			slog.Debug("dropping ledger event for slow subscriber",
				"trip_id", ev.TripID, "kind", ev.Kind)
		}
	}
}
