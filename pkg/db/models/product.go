package models

import (
	"time"

	"github.com/google/uuid"
)

// Product is a catalog entry owned by a single tenant. Quantity is the live
// quantity-on-hand; it is only ever written through the document store.
type Product struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	TenantID  uuid.UUID `gorm:"column:tenant_id;type:uuid;not null;index:idx_products_tenant_name,priority:1"`
	Name      string    `gorm:"column:name;not null;index:idx_products_tenant_name,priority:2"`
	Price     float64   `gorm:"column:price;not null;default:0"`
	Quantity  int       `gorm:"column:quantity;not null;default:0"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
