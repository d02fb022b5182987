package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/storebuddy/storebuddy-backend/internal/cart"
	"github.com/storebuddy/storebuddy-backend/internal/catalog"
	"github.com/storebuddy/storebuddy-backend/internal/docstore"
	"github.com/storebuddy/storebuddy-backend/pkg/logger"
)

// Session is the explicit per-tenant sale context: the catalog mirror fed by
// the store subscription, and the cart. No ambient globals.
type Session struct {
	TenantID uuid.UUID
	Mirror   *catalog.Mirror
	Cart     *cart.Cart

	sub  *docstore.Subscription
	once sync.Once
}

// Close cancels the store subscription. Safe to call more than once.
func (s *Session) Close() {
	s.once.Do(func() {
		if s.sub != nil {
			s.sub.Cancel()
		}
	})
}

// Manager hands out one session per authenticated tenant, created lazily on
// first use and torn down on logout or shutdown.
type Manager struct {
	store docstore.Store
	logg  *logger.Logger

	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
}

// NewManager builds an empty session manager.
func NewManager(store docstore.Store, logg *logger.Logger) (*Manager, error) {
	if store == nil {
		return nil, fmt.Errorf("store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Manager{
		store:    store,
		logg:     logg,
		sessions: map[uuid.UUID]*Session{},
	}, nil
}

// Get returns the tenant's session, creating it on first use. Creation
// subscribes to the product feed and applies the primed snapshot before
// returning, so the mirror is usable immediately.
func (m *Manager) Get(ctx context.Context, tenantID uuid.UUID) (*Session, error) {
	if tenantID == uuid.Nil {
		return nil, fmt.Errorf("tenant id required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if sess, ok := m.sessions[tenantID]; ok {
		return sess, nil
	}

	sub, err := m.store.Subscribe(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("subscribe products: %w", err)
	}

	sess := &Session{
		TenantID: tenantID,
		Mirror:   catalog.NewMirror(),
		Cart:     cart.New(),
		sub:      sub,
	}

	select {
	case snapshot := <-sub.Snapshots():
		sess.Mirror.Apply(catalog.FromModels(snapshot))
	default:
	}

	go m.pump(tenantID, sess)

	m.sessions[tenantID] = sess
	m.logg.Info(m.logg.WithTenantID(ctx, tenantID.String()), "session opened")
	return sess, nil
}

// pump feeds store snapshots into the session's mirror until the
// subscription is cancelled.
func (m *Manager) pump(tenantID uuid.UUID, sess *Session) {
	for snapshot := range sess.sub.Snapshots() {
		sess.Mirror.Apply(catalog.FromModels(snapshot))
	}
}

// Close tears down the tenant's session, if any.
func (m *Manager) Close(tenantID uuid.UUID) {
	m.mu.Lock()
	sess, ok := m.sessions[tenantID]
	if ok {
		delete(m.sessions, tenantID)
	}
	m.mu.Unlock()

	if ok {
		sess.Close()
	}
}

// CloseAll tears down every live session; called on shutdown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, sess := range m.sessions {
		sessions = append(sessions, sess)
	}
	m.sessions = map[uuid.UUID]*Session{}
	m.mu.Unlock()

	for _, sess := range sessions {
		sess.Close()
	}
}
