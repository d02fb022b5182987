package catalog

import (
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/storebuddy/storebuddy-backend/pkg/db/models"
)

// Product is the mirror's view of a catalog entry: the fields the sale flow
// reads, decoupled from the persistence model.
type Product struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	UnitPrice      float64   `json:"price"`
	QuantityOnHand int       `json:"quantity"`
}

// Observer is invoked synchronously after every snapshot swap.
type Observer func(products []Product)

// Mirror holds the latest catalog snapshot pushed by the document store. It
// trusts the store: no validation beyond zero-value defaults. It is replaced
// wholesale on every apply, so readers always see a consistent snapshot, but
// must re-read before use rather than assume an earlier read is current.
type Mirror struct {
	mu        sync.RWMutex
	byID      map[uuid.UUID]Product
	ordered   []Product
	observers []Observer
}

// NewMirror builds an empty mirror.
func NewMirror() *Mirror {
	return &Mirror{byID: map[uuid.UUID]Product{}}
}

// FromModel maps a stored product row onto the mirror's shape.
func FromModel(m models.Product) Product {
	return Product{
		ID:             m.ID,
		Name:           m.Name,
		UnitPrice:      m.Price,
		QuantityOnHand: m.Quantity,
	}
}

// FromModels maps a stored snapshot onto mirror products.
func FromModels(rows []models.Product) []Product {
	products := make([]Product, 0, len(rows))
	for _, row := range rows {
		products = append(products, FromModel(row))
	}
	return products
}

// Observe registers a callback fired after each Apply. Not safe to call
// concurrently with Apply; sessions register observers before subscribing.
func (m *Mirror) Observe(fn Observer) {
	if fn == nil {
		return
	}
	m.observers = append(m.observers, fn)
}

// Apply replaces the held set wholesale and then notifies observers. It never
// touches cart or in-flight checkout state; those hold their own snapshots.
func (m *Mirror) Apply(snapshot []Product) {
	byID := make(map[uuid.UUID]Product, len(snapshot))
	ordered := make([]Product, 0, len(snapshot))
	for _, p := range snapshot {
		byID[p.ID] = p
		ordered = append(ordered, p)
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Name < ordered[j].Name
	})

	m.mu.Lock()
	m.byID = byID
	m.ordered = ordered
	m.mu.Unlock()

	for _, fn := range m.observers {
		fn(ordered)
	}
}

// Get returns the product for the id, if present in the current snapshot.
func (m *Mirror) Get(id uuid.UUID) (Product, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.byID[id]
	return p, ok
}

// All returns the current snapshot ordered by name.
func (m *Mirror) All() []Product {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Product, len(m.ordered))
	copy(out, m.ordered)
	return out
}

// Len returns the number of products in the current snapshot.
func (m *Mirror) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.ordered)
}
