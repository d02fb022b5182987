package docstore

import (
	"sync"

	"github.com/google/uuid"

	"github.com/storebuddy/storebuddy-backend/pkg/db/models"
)

// Notifier fans product snapshots out to per-tenant subscribers. Delivery is
// latest-wins: a subscriber that has not drained its channel sees only the
// most recent snapshot, never a backlog.
type Notifier struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[uuid.UUID]map[uint64]*Subscription
}

// NewNotifier builds an empty notifier.
func NewNotifier() *Notifier {
	return &Notifier{subs: map[uuid.UUID]map[uint64]*Subscription{}}
}

// Subscription is a cancellable handle on a tenant's product snapshot feed.
type Subscription struct {
	mu     sync.Mutex
	ch     chan []models.Product
	closed bool
	cancel func()
}

// Snapshots returns the feed channel. It is closed when the subscription is
// cancelled.
func (s *Subscription) Snapshots() <-chan []models.Product {
	return s.ch
}

// Cancel tears the subscription down and closes the feed channel. Safe to
// call more than once.
func (s *Subscription) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.cancel()
	close(s.ch)
}

func (s *Subscription) deliver(snapshot []models.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	// drop the undelivered snapshot, if any, then push the new one
	select {
	case <-s.ch:
	default:
	}
	select {
	case s.ch <- snapshot:
	default:
	}
}

// Subscribe registers a new subscriber for the tenant.
func (n *Notifier) Subscribe(tenantID uuid.UUID) *Subscription {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.nextID++
	id := n.nextID

	sub := &Subscription{ch: make(chan []models.Product, 1)}
	sub.cancel = func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		if tenantSubs, ok := n.subs[tenantID]; ok {
			delete(tenantSubs, id)
			if len(tenantSubs) == 0 {
				delete(n.subs, tenantID)
			}
		}
	}

	if n.subs[tenantID] == nil {
		n.subs[tenantID] = map[uint64]*Subscription{}
	}
	n.subs[tenantID][id] = sub

	return sub
}

// Publish delivers the snapshot to every live subscriber of the tenant.
func (n *Notifier) Publish(tenantID uuid.UUID, snapshot []models.Product) {
	n.mu.Lock()
	subs := make([]*Subscription, 0, len(n.subs[tenantID]))
	for _, sub := range n.subs[tenantID] {
		subs = append(subs, sub)
	}
	n.mu.Unlock()

	for _, sub := range subs {
		sub.deliver(snapshot)
	}
}
