package models

import (
	"time"

	"github.com/google/uuid"
)

// SaleItem is the immutable line snapshot embedded in a sale record.
type SaleItem struct {
	ProductID   string  `json:"productId"`
	ProductName string  `json:"productName"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
}

// Sale is the durable record produced by a checkout. It is never updated
// after creation, only deleted by the operator.
type Sale struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	TenantID  uuid.UUID  `gorm:"column:tenant_id;type:uuid;not null;index:idx_sales_tenant_date,priority:1"`
	Date      string     `gorm:"column:date;not null;index:idx_sales_tenant_date,priority:2"`
	Total     float64    `gorm:"column:total;not null"`
	Items     []SaleItem `gorm:"column:items;type:jsonb;serializer:json"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
}
