package products

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/storebuddy/storebuddy-backend/internal/docstore"
	"github.com/storebuddy/storebuddy-backend/pkg/db/models"
	pkgerrors "github.com/storebuddy/storebuddy-backend/pkg/errors"
)

// LowStockThreshold marks products running low in inventory views.
const LowStockThreshold = 10

// Service exposes catalog management operations.
type Service interface {
	CreateProduct(ctx context.Context, tenantID uuid.UUID, input CreateProductInput) (*ProductDTO, error)
	UpdateProduct(ctx context.Context, tenantID, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	DeleteProduct(ctx context.Context, tenantID, productID uuid.UUID) error
	GetProduct(ctx context.Context, tenantID, productID uuid.UUID) (*ProductDTO, error)
	ListProducts(ctx context.Context, tenantID uuid.UUID) (*ProductListResult, error)
}

// CreateProductInput holds the validated payload to create a product.
type CreateProductInput struct {
	Name     string
	Price    float64
	Quantity int
}

// UpdateProductInput holds optional mutation values for a product.
type UpdateProductInput struct {
	Name     *string
	Price    *float64
	Quantity *int
}

// ProductDTO is the read shape returned to controllers.
type ProductDTO struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Price    float64   `json:"price"`
	Quantity int       `json:"quantity"`
	LowStock bool      `json:"lowStock"`
}

// ProductListResult is the inventory view: products in name order plus a
// low-stock count.
type ProductListResult struct {
	Products      []ProductDTO `json:"products"`
	LowStockCount int          `json:"lowStockCount"`
}

type service struct {
	store docstore.Store
}

// NewService constructs a product service instance.
func NewService(store docstore.Store) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("document store required")
	}
	return &service{store: store}, nil
}

func (s *service) CreateProduct(ctx context.Context, tenantID uuid.UUID, input CreateProductInput) (*ProductDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}
	if input.Price < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}
	if input.Quantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity cannot be negative")
	}

	created, err := s.store.AddProduct(ctx, tenantID, models.Product{
		Name:     name,
		Price:    input.Price,
		Quantity: input.Quantity,
	})
	if err != nil {
		return nil, err
	}
	return toDTO(created), nil
}

func (s *service) UpdateProduct(ctx context.Context, tenantID, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	patch := docstore.ProductPatch{Price: input.Price, Quantity: input.Quantity}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name cannot be empty")
		}
		patch.Name = &name
	}
	if input.Price != nil && *input.Price < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}
	if input.Quantity != nil && *input.Quantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity cannot be negative")
	}

	if err := s.store.UpdateProduct(ctx, tenantID, productID, patch); err != nil {
		return nil, err
	}
	updated, err := s.store.GetProduct(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}
	return toDTO(updated), nil
}

func (s *service) DeleteProduct(ctx context.Context, tenantID, productID uuid.UUID) error {
	return s.store.DeleteProduct(ctx, tenantID, productID)
}

func (s *service) GetProduct(ctx context.Context, tenantID, productID uuid.UUID) (*ProductDTO, error) {
	product, err := s.store.GetProduct(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}
	return toDTO(product), nil
}

func (s *service) ListProducts(ctx context.Context, tenantID uuid.UUID) (*ProductListResult, error) {
	rows, err := s.store.ListProducts(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	result := &ProductListResult{Products: make([]ProductDTO, 0, len(rows))}
	for i := range rows {
		dto := toDTO(&rows[i])
		if dto.LowStock {
			result.LowStockCount++
		}
		result.Products = append(result.Products, *dto)
	}
	return result, nil
}

func toDTO(p *models.Product) *ProductDTO {
	return &ProductDTO{
		ID:       p.ID,
		Name:     p.Name,
		Price:    p.Price,
		Quantity: p.Quantity,
		LowStock: p.Quantity <= LowStockThreshold,
	}
}
