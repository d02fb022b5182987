package receipts

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"

	"github.com/storebuddy/storebuddy-backend/pkg/logger"
)

// Consumer renders receipts from sale.completed events.
type Consumer struct {
	renderer     *Renderer
	subscription *pubsub.Subscriber
	logg         *logger.Logger
}

// NewConsumer builds the receipt worker consumer.
func NewConsumer(renderer *Renderer, subscription *pubsub.Subscriber, logg *logger.Logger) (*Consumer, error) {
	if renderer == nil {
		return nil, fmt.Errorf("renderer required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("receipts subscription required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		renderer:     renderer,
		subscription: subscription,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	eventType := msg.Attributes["event_type"]
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": eventType,
	})

	if eventType != EventTypeSaleCompleted {
		c.logg.Info(logCtx, "skipping unrelated event")
		return processResult{ack: true}
	}

	var event Event
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		c.logg.Error(logCtx, "failed to decode receipt event", err)
		return processResult{ack: true}
	}

	logCtx = c.logg.WithTenantID(logCtx, event.TenantID)
	if event.Sale.ID != "" {
		logCtx = c.logg.WithSaleID(logCtx, event.Sale.ID)
	}

	path, err := c.renderer.Render(event.Sale)
	if err != nil {
		c.logg.Error(logCtx, "receipt render failed", err)
		return processResult{nack: true}
	}

	c.logg.Info(c.logg.WithField(logCtx, "path", path), "receipt rendered")
	return processResult{ack: true}
}
