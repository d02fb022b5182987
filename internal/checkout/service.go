package checkout

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/storebuddy/storebuddy-backend/internal/cart"
	"github.com/storebuddy/storebuddy-backend/internal/catalog"
	"github.com/storebuddy/storebuddy-backend/internal/receipts"
	"github.com/storebuddy/storebuddy-backend/pkg/db/models"
	pkgerrors "github.com/storebuddy/storebuddy-backend/pkg/errors"
	"github.com/storebuddy/storebuddy-backend/pkg/logger"
	"github.com/storebuddy/storebuddy-backend/pkg/metrics"
)

// SaleStore is the slice of the document store the transaction writes to.
type SaleStore interface {
	AddSale(ctx context.Context, tenantID uuid.UUID, sale models.Sale) (*models.Sale, error)
	SetProductQuantity(ctx context.Context, tenantID, productID uuid.UUID, quantity int) error
}

// Mirror is the catalog read surface consulted for live quantities.
type Mirror interface {
	Get(id uuid.UUID) (catalog.Product, bool)
}

// Service turns a cart into a durable sale record, reconciles inventory and
// fires the receipt.
type Service interface {
	Execute(ctx context.Context, tenantID uuid.UUID, crt *cart.Cart, mirror Mirror) (*models.Sale, error)
}

type service struct {
	store   SaleStore
	receipt receipts.Trigger
	logg    *logger.Logger
	met     *metrics.CheckoutMetrics
}

// NewService builds the checkout service.
func NewService(store SaleStore, receipt receipts.Trigger, logg *logger.Logger, met *metrics.CheckoutMetrics) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("sale store required")
	}
	if receipt == nil {
		return nil, fmt.Errorf("receipt trigger required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{store: store, receipt: receipt, logg: logg, met: met}, nil
}

// Execute runs the transaction in its strict order: freeze the cart
// snapshot, persist the sale record, then issue the per-line inventory
// writes concurrently, and only when all of that succeeded trigger the
// receipt and clear the cart. The sale record is written before any stock
// mutation: a lost decrement is recoverable by manual reconciliation, a lost
// sale record is not.
func (s *service) Execute(ctx context.Context, tenantID uuid.UUID, crt *cart.Cart, mirror Mirror) (*models.Sale, error) {
	if tenantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant id is required")
	}
	if crt == nil || mirror == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart and mirror are required")
	}

	start := time.Now()

	// step 1: frozen snapshot; later cart mutations cannot affect the sale
	lines := crt.Lines()
	if len(lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	var total float64
	items := make([]models.SaleItem, 0, len(lines))
	for _, line := range lines {
		total += line.Total()
		items = append(items, models.SaleItem{
			ProductID:   line.ProductID.String(),
			ProductName: line.Name,
			Quantity:    line.Quantity,
			Price:       line.UnitPrice,
		})
	}

	ctx = s.logg.WithTenantID(ctx, tenantID.String())

	// step 2: the durable, audit-relevant write happens first
	created, err := s.store.AddSale(ctx, tenantID, models.Sale{
		Date:  time.Now().Format("2006-01-02"),
		Total: total,
		Items: items,
	})
	if err != nil {
		s.met.IncFailure("sale_record")
		s.met.ObserveDuration("failed", time.Since(start))
		s.logg.Error(ctx, "sale record write failed, checkout aborted", err)
		return nil, pkgerrors.Wrap(pkgerrors.CodeStoreWrite, err, "record sale")
	}

	// step 3: the assigned id labels the receipt only
	ctx = s.logg.WithSaleID(ctx, created.ID.String())

	// step 4: concurrent per-line inventory writes, joined before step 6;
	// quantities come from a fresh mirror read, not the stale stock ceiling
	var (
		mu       sync.Mutex
		writeErr error
		wg       sync.WaitGroup
	)
	for _, line := range lines {
		live, ok := mirror.Get(line.ProductID)
		if !ok {
			// deleted concurrently: the line is still charged, the write skipped
			continue
		}

		newQty := live.QuantityOnHand - line.Quantity
		if newQty < 0 {
			newQty = 0
		}

		wg.Add(1)
		go func(productID uuid.UUID, qty int) {
			defer wg.Done()
			if err := s.store.SetProductQuantity(ctx, tenantID, productID, qty); err != nil {
				mu.Lock()
				writeErr = multierr.Append(writeErr, fmt.Errorf("product %s: %w", productID, err))
				mu.Unlock()
			}
		}(line.ProductID, newQty)
	}
	wg.Wait()

	// step 5: the sale record stands, the cart stays, the caller is told
	if writeErr != nil {
		s.met.IncFailure("inventory_write")
		s.met.ObserveDuration("inconsistent", time.Since(start))
		s.logg.Error(ctx, "inventory writes failed after sale was recorded", writeErr)
		return created, pkgerrors.Wrap(pkgerrors.CodeStoreWrite, writeErr, "sale recorded but inventory update failed").
			WithDetails(map[string]any{"saleId": created.ID.String()})
	}

	// step 6: receipt is fire-and-forget, then the cart empties
	s.receipt.TriggerReceipt(ctx, tenantID, receipts.SaleDocument{
		ID:    created.ID.String(),
		Date:  created.Date,
		Total: created.Total,
		Items: created.Items,
	})
	crt.Clear()

	s.met.IncSuccess()
	s.met.ObserveSaleLines(len(lines))
	s.met.ObserveDuration("success", time.Since(start))
	s.logg.Info(ctx, "checkout completed")

	return created, nil
}
