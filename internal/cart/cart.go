package cart

import (
	"sync"

	"github.com/google/uuid"

	"github.com/storebuddy/storebuddy-backend/internal/catalog"
	pkgerrors "github.com/storebuddy/storebuddy-backend/pkg/errors"
)

// ErrOutOfStock rejects adding a product whose quantity-on-hand is zero.
var ErrOutOfStock = pkgerrors.New(pkgerrors.CodeStockExceeded, "product is out of stock")

// ErrStockExceeded rejects a mutation that would push a line past its stock
// ceiling; the previous quantity is retained.
var ErrStockExceeded = pkgerrors.New(pkgerrors.CodeStockExceeded, "no more stock available")

// Line is a cart entry. UnitPrice and StockCeiling are snapshots taken when
// the line was created; later catalog changes do not touch them.
type Line struct {
	ProductID    uuid.UUID `json:"productId"`
	Name         string    `json:"name"`
	UnitPrice    float64   `json:"price"`
	Quantity     int       `json:"quantity"`
	StockCeiling int       `json:"stockCeiling"`
}

// Total returns the line total.
func (l Line) Total() float64 {
	return l.UnitPrice * float64(l.Quantity)
}

// Cart is the working set of a sale in progress: lines unique by product id,
// insertion order preserved, each line holding 1 <= quantity <= stockCeiling.
// A product going out of stock in the background never invalidates a line
// already committed to; the add-time ceiling caps further increases instead.
type Cart struct {
	mu    sync.Mutex
	lines []Line
}

// New builds an empty cart.
func New() *Cart {
	return &Cart{}
}

// AddOne adds one unit of the product. A second add of the same product
// increments its existing line; the ceiling captured at add time bounds it.
func (c *Cart) AddOne(product catalog.Product) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if product.QuantityOnHand == 0 {
		return ErrOutOfStock
	}

	for i := range c.lines {
		if c.lines[i].ProductID == product.ID {
			if c.lines[i].Quantity+1 > c.lines[i].StockCeiling {
				return ErrStockExceeded
			}
			c.lines[i].Quantity++
			return nil
		}
	}

	c.lines = append(c.lines, Line{
		ProductID:    product.ID,
		Name:         product.Name,
		UnitPrice:    product.UnitPrice,
		Quantity:     1,
		StockCeiling: product.QuantityOnHand,
	})
	return nil
}

// ChangeQuantity applies a delta to the line's quantity. A missing line is a
// no-op; dropping to zero or below removes the line; exceeding the ceiling is
// rejected and the earlier quantity retained.
func (c *Cart) ChangeQuantity(productID uuid.UUID, delta int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.lines {
		if c.lines[i].ProductID != productID {
			continue
		}
		newQty := c.lines[i].Quantity + delta
		if newQty <= 0 {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			return nil
		}
		if newQty > c.lines[i].StockCeiling {
			return ErrStockExceeded
		}
		c.lines[i].Quantity = newQty
		return nil
	}
	return nil
}

// Remove drops the line unconditionally.
func (c *Cart) Remove(productID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.lines {
		if c.lines[i].ProductID == productID {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			return
		}
	}
}

// Total sums the line totals; zero for an empty cart.
func (c *Cart) Total() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	var total float64
	for _, line := range c.lines {
		total += line.Total()
	}
	return total
}

// Lines returns a copy of the lines in insertion order.
func (c *Cart) Lines() []Line {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

// Len returns the number of lines.
func (c *Cart) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lines)
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = nil
}
