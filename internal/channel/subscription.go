package channel

import "sync"

// subscriptionOwner is implemented by Manager; it lets a Handle unsubscribe
// itself without importing the concrete manager type (mirrors the
// SubscriptionOwner abstraction in shared_channel_manager.h).
type subscriptionOwner interface {
	unsubscribe(id uint64)
}

// Handle is an RAII subscription token (§3 Subscription): dropping it (or
// calling Reset explicitly) removes the subscriber entry. A channel with no
// remaining subscribers is destroyed.
type Handle struct {
	mu    sync.Mutex
	id    uint64
	owner subscriptionOwner
}

func newHandle(id uint64, owner subscriptionOwner) *Handle {
	return &Handle{id: id, owner: owner}
}

// Valid reports whether the handle still references a live subscription.
func (h *Handle) Valid() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.id != 0
}

// ID returns the subscription's monotonically increasing identifier, or 0
// once reset.
func (h *Handle) ID() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.id
}

// Reset explicitly releases the subscription. Safe to call more than once
// and safe to call from within a subscriber callback (the manager defers
// removal during fan-out, §5 "Shared-resource policy").
func (h *Handle) Reset() {
	h.mu.Lock()
	id := h.id
	owner := h.owner
	h.id = 0
	h.owner = nil
	h.mu.Unlock()

	if id != 0 && owner != nil {
		owner.unsubscribe(id)
	}
}
