package docstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storebuddy/storebuddy-backend/pkg/db/models"
	pkgerrors "github.com/storebuddy/storebuddy-backend/pkg/errors"
	"github.com/storebuddy/storebuddy-backend/pkg/logger"
)

// ProductPatch carries the mutable product fields for partial updates. Nil
// fields are left untouched.
type ProductPatch struct {
	Name     *string
	Price    *float64
	Quantity *int
}

// Store is the per-tenant document store holding the products and sales
// collections. Every operation is scoped by tenant id; rows from other
// tenants are never visible.
type Store interface {
	AddProduct(ctx context.Context, tenantID uuid.UUID, product models.Product) (*models.Product, error)
	UpdateProduct(ctx context.Context, tenantID, productID uuid.UUID, patch ProductPatch) error
	DeleteProduct(ctx context.Context, tenantID, productID uuid.UUID) error
	GetProduct(ctx context.Context, tenantID, productID uuid.UUID) (*models.Product, error)
	ListProducts(ctx context.Context, tenantID uuid.UUID) ([]models.Product, error)
	SetProductQuantity(ctx context.Context, tenantID, productID uuid.UUID, quantity int) error

	AddSale(ctx context.Context, tenantID uuid.UUID, sale models.Sale) (*models.Sale, error)
	GetSale(ctx context.Context, tenantID, saleID uuid.UUID) (*models.Sale, error)
	DeleteSale(ctx context.Context, tenantID, saleID uuid.UUID) error
	QuerySalesByDate(ctx context.Context, tenantID uuid.UUID, date string) ([]models.Sale, error)

	Subscribe(ctx context.Context, tenantID uuid.UUID) (*Subscription, error)
}

type store struct {
	db       *gorm.DB
	notifier *Notifier
	logg     *logger.Logger
}

// New builds a GORM-backed store that publishes a full product snapshot to
// subscribers after every product mutation.
func New(db *gorm.DB, notifier *Notifier, logg *logger.Logger) (Store, error) {
	if db == nil {
		return nil, fmt.Errorf("db required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &store{db: db, notifier: notifier, logg: logg}, nil
}

func (s *store) AddProduct(ctx context.Context, tenantID uuid.UUID, product models.Product) (*models.Product, error) {
	if tenantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant id is required")
	}

	product.ID = uuid.New()
	product.TenantID = tenantID
	if err := s.db.WithContext(ctx).Create(&product).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStoreWrite, err, "add product")
	}

	s.publishSnapshot(ctx, tenantID)
	return &product, nil
}

func (s *store) UpdateProduct(ctx context.Context, tenantID, productID uuid.UUID, patch ProductPatch) error {
	updates := map[string]any{}
	if patch.Name != nil {
		updates["name"] = *patch.Name
	}
	if patch.Price != nil {
		updates["price"] = *patch.Price
	}
	if patch.Quantity != nil {
		updates["quantity"] = *patch.Quantity
	}
	if len(updates) == 0 {
		return nil
	}

	res := s.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND tenant_id = ?", productID, tenantID).
		Updates(updates)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeStoreWrite, res.Error, "update product")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}

	s.publishSnapshot(ctx, tenantID)
	return nil
}

func (s *store) DeleteProduct(ctx context.Context, tenantID, productID uuid.UUID) error {
	res := s.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", productID, tenantID).
		Delete(&models.Product{})
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeStoreWrite, res.Error, "delete product")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}

	s.publishSnapshot(ctx, tenantID)
	return nil
}

func (s *store) GetProduct(ctx context.Context, tenantID, productID uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := s.db.WithContext(ctx).
		First(&product, "id = ? AND tenant_id = ?", productID, tenantID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "get product")
	}
	return &product, nil
}

func (s *store) ListProducts(ctx context.Context, tenantID uuid.UUID) ([]models.Product, error) {
	var products []models.Product
	err := s.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("name asc").
		Find(&products).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return products, nil
}

// SetProductQuantity is the inventory write issued per cart line during
// checkout. It never writes a negative quantity; callers clamp beforehand.
func (s *store) SetProductQuantity(ctx context.Context, tenantID, productID uuid.UUID, quantity int) error {
	if quantity < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity cannot be negative")
	}

	res := s.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND tenant_id = ?", productID, tenantID).
		Update("quantity", quantity)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeStoreWrite, res.Error, "set product quantity")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}

	s.publishSnapshot(ctx, tenantID)
	return nil
}

func (s *store) AddSale(ctx context.Context, tenantID uuid.UUID, sale models.Sale) (*models.Sale, error) {
	if tenantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant id is required")
	}
	if len(sale.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sale must contain at least one item")
	}

	sale.ID = uuid.New()
	sale.TenantID = tenantID
	if err := s.db.WithContext(ctx).Create(&sale).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStoreWrite, err, "add sale")
	}
	return &sale, nil
}

func (s *store) GetSale(ctx context.Context, tenantID, saleID uuid.UUID) (*models.Sale, error) {
	var sale models.Sale
	err := s.db.WithContext(ctx).
		First(&sale, "id = ? AND tenant_id = ?", saleID, tenantID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "sale not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "get sale")
	}
	return &sale, nil
}

func (s *store) DeleteSale(ctx context.Context, tenantID, saleID uuid.UUID) error {
	res := s.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", saleID, tenantID).
		Delete(&models.Sale{})
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeStoreWrite, res.Error, "delete sale")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "sale not found")
	}
	return nil
}

func (s *store) QuerySalesByDate(ctx context.Context, tenantID uuid.UUID, date string) ([]models.Sale, error) {
	var sales []models.Sale
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND date = ?", tenantID, date).
		Order("created_at asc").
		Find(&sales).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "query sales")
	}
	return sales, nil
}

// Subscribe registers a push feed for the tenant's product collection and
// primes it with the current snapshot so new subscribers render immediately.
func (s *store) Subscribe(ctx context.Context, tenantID uuid.UUID) (*Subscription, error) {
	if tenantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant id is required")
	}

	sub := s.notifier.Subscribe(tenantID)

	snapshot, err := s.ListProducts(ctx, tenantID)
	if err != nil {
		sub.Cancel()
		return nil, err
	}
	sub.deliver(snapshot)

	return sub, nil
}

func (s *store) publishSnapshot(ctx context.Context, tenantID uuid.UUID) {
	snapshot, err := s.ListProducts(ctx, tenantID)
	if err != nil {
		s.logg.Warn(s.logg.WithTenantID(ctx, tenantID.String()), "snapshot publish skipped: "+err.Error())
		return
	}
	s.notifier.Publish(tenantID, snapshot)
}
