// Package events carries entity-change notifications. After any mutation that
// can change pocket balances or entity sets, the owning service publishes an
// event so other sessions know to re-fetch rather than trust local state.
package events

import (
	"context"
	"sync"
	"time"
)

// Entity names used in change events.
const (
	EntityPockets       = "pockets"
	EntityTransactions  = "transactions"
	EntityCategories    = "categories"
	EntityGroups        = "groups"
	EntityMemberships   = "memberships"
	EntityContributions = "contributions"
)

// Event signals that an entity set changed within a context. Consumers are
// expected to re-fetch; the event intentionally carries no entity payload.
type Event struct {
	Entity  string    `json:"entity"`
	Action  string    `json:"action"`
	UserID  string    `json:"user_id,omitempty"`
	GroupID *string   `json:"group_id,omitempty"`
	At      time.Time `json:"at"`
}

// Bus publishes change events. Publishing is best-effort: services log and
// continue when a publish fails, the mutation itself is already committed.
type Bus interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// NopBus discards all events.
type NopBus struct{}

// Nop returns a bus that discards all events.
func Nop() Bus { return NopBus{} }

// Publish implements Bus.
func (NopBus) Publish(context.Context, Event) error { return nil }

// Close implements Bus.
func (NopBus) Close() error { return nil }

// MemoryBus delivers events synchronously to in-process subscribers. The
// local (demo) authority uses it to mimic the cross-tab notification channel
// of the hosted deployment.
type MemoryBus struct {
	mu   sync.Mutex
	subs []func(Event)
}

// NewMemoryBus creates an in-process bus.
func NewMemoryBus() *MemoryBus { return &MemoryBus{} }

// Subscribe registers a handler invoked for every published event.
func (b *MemoryBus) Subscribe(fn func(Event)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, fn)
}

// Publish implements Bus.
func (b *MemoryBus) Publish(_ context.Context, event Event) error {
	if event.At.IsZero() {
		event.At = time.Now()
	}
	b.mu.Lock()
	subs := append(([]func(Event))(nil), b.subs...)
	b.mu.Unlock()
	for _, fn := range subs {
		fn(event)
	}
	return nil
}

// Close implements Bus.
func (b *MemoryBus) Close() error { return nil }
