package receipts

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/storebuddy/storebuddy-backend/pkg/logger"
)

// EventTypeSaleCompleted tags receipt events on the wire.
const EventTypeSaleCompleted = "sale.completed"

// Event is the envelope published for asynchronous receipt rendering.
type Event struct {
	EventID  string       `json:"eventId"`
	TenantID string       `json:"tenantId"`
	Sale     SaleDocument `json:"sale"`
}

// Trigger fires receipt generation after a completed checkout. Fire and
// forget: failures are logged, never propagated, and never roll the sale
// back.
type Trigger interface {
	TriggerReceipt(ctx context.Context, tenantID uuid.UUID, sale SaleDocument)
}

// LocalTrigger renders the receipt in-process on a background goroutine.
type LocalTrigger struct {
	renderer *Renderer
	logg     *logger.Logger
}

// NewLocalTrigger builds the in-process trigger.
func NewLocalTrigger(renderer *Renderer, logg *logger.Logger) (*LocalTrigger, error) {
	if renderer == nil {
		return nil, fmt.Errorf("renderer required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &LocalTrigger{renderer: renderer, logg: logg}, nil
}

func (t *LocalTrigger) TriggerReceipt(ctx context.Context, tenantID uuid.UUID, sale SaleDocument) {
	// outlives the request that completed the checkout
	bgCtx := context.WithoutCancel(ctx)
	go func() {
		logCtx := t.logg.WithTenantID(bgCtx, tenantID.String())
		if sale.ID != "" {
			logCtx = t.logg.WithSaleID(logCtx, sale.ID)
		}
		path, err := t.renderer.Render(sale)
		if err != nil {
			t.logg.Error(logCtx, "receipt render failed", err)
			return
		}
		t.logg.Info(t.logg.WithField(logCtx, "path", path), "receipt rendered")
	}()
}

// Publisher abstracts the Pub/Sub publish call for testing.
type Publisher interface {
	Publish(ctx context.Context, data []byte, attrs map[string]string) error
}

// GCPPublisher adapts a Pub/Sub v2 publisher handle to the Publisher surface.
type GCPPublisher struct {
	publisher *pubsub.Publisher
}

// NewGCPPublisher wraps the publisher handle.
func NewGCPPublisher(publisher *pubsub.Publisher) (*GCPPublisher, error) {
	if publisher == nil {
		return nil, fmt.Errorf("pubsub publisher required")
	}
	return &GCPPublisher{publisher: publisher}, nil
}

func (p *GCPPublisher) Publish(ctx context.Context, data []byte, attrs map[string]string) error {
	res := p.publisher.Publish(ctx, &pubsub.Message{Data: data, Attributes: attrs})
	_, err := res.Get(ctx)
	return err
}

// PubSubTrigger publishes a sale.completed event for the receipt worker.
type PubSubTrigger struct {
	publisher Publisher
	logg      *logger.Logger
}

// NewPubSubTrigger builds the asynchronous trigger.
func NewPubSubTrigger(publisher Publisher, logg *logger.Logger) (*PubSubTrigger, error) {
	if publisher == nil {
		return nil, fmt.Errorf("publisher required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &PubSubTrigger{publisher: publisher, logg: logg}, nil
}

func (t *PubSubTrigger) TriggerReceipt(ctx context.Context, tenantID uuid.UUID, sale SaleDocument) {
	bgCtx := context.WithoutCancel(ctx)
	go func() {
		logCtx := t.logg.WithTenantID(bgCtx, tenantID.String())

		event := Event{
			EventID:  uuid.NewString(),
			TenantID: tenantID.String(),
			Sale:     sale,
		}
		data, err := json.Marshal(event)
		if err != nil {
			t.logg.Error(logCtx, "marshal receipt event failed", err)
			return
		}

		attrs := map[string]string{"event_type": EventTypeSaleCompleted}
		if err := t.publisher.Publish(bgCtx, data, attrs); err != nil {
			t.logg.Error(logCtx, "publish receipt event failed", err)
			return
		}
		t.logg.Info(logCtx, "receipt event published")
	}()
}
