package sales

import (
	"context"
	"fmt"
	"regexp"

	"github.com/google/uuid"

	"github.com/storebuddy/storebuddy-backend/internal/docstore"
	"github.com/storebuddy/storebuddy-backend/pkg/db/models"
	pkgerrors "github.com/storebuddy/storebuddy-backend/pkg/errors"
)

var dateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Service exposes the sales history operations.
type Service interface {
	ListByDate(ctx context.Context, tenantID uuid.UUID, date string) ([]SaleDTO, error)
	GetSale(ctx context.Context, tenantID, saleID uuid.UUID) (*SaleDTO, error)
	DeleteSale(ctx context.Context, tenantID, saleID uuid.UUID) error
}

// SaleDTO is the read shape returned to controllers.
type SaleDTO struct {
	ID        uuid.UUID         `json:"id"`
	Date      string            `json:"date"`
	Total     float64           `json:"total"`
	ItemCount int               `json:"itemCount"`
	Items     []models.SaleItem `json:"items"`
	CreatedAt string            `json:"createdAt"`
}

type service struct {
	store docstore.Store
}

// NewService constructs a sales history service.
func NewService(store docstore.Store) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("document store required")
	}
	return &service{store: store}, nil
}

func (s *service) ListByDate(ctx context.Context, tenantID uuid.UUID, date string) ([]SaleDTO, error) {
	if !dateRe.MatchString(date) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "date must be YYYY-MM-DD")
	}

	rows, err := s.store.QuerySalesByDate(ctx, tenantID, date)
	if err != nil {
		return nil, err
	}

	out := make([]SaleDTO, 0, len(rows))
	for i := range rows {
		out = append(out, toDTO(&rows[i]))
	}
	return out, nil
}

func (s *service) GetSale(ctx context.Context, tenantID, saleID uuid.UUID) (*SaleDTO, error) {
	sale, err := s.store.GetSale(ctx, tenantID, saleID)
	if err != nil {
		return nil, err
	}
	dto := toDTO(sale)
	return &dto, nil
}

func (s *service) DeleteSale(ctx context.Context, tenantID, saleID uuid.UUID) error {
	return s.store.DeleteSale(ctx, tenantID, saleID)
}

func toDTO(sale *models.Sale) SaleDTO {
	return SaleDTO{
		ID:        sale.ID,
		Date:      sale.Date,
		Total:     sale.Total,
		ItemCount: len(sale.Items),
		Items:     sale.Items,
		CreatedAt: sale.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}
