package receipts

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/storebuddy/storebuddy-backend/pkg/config"
	"github.com/storebuddy/storebuddy-backend/pkg/db/models"
	"github.com/storebuddy/storebuddy-backend/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "receipts-test", Output: io.Discard})
}

func TestLocalTriggerRendersInBackground(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	renderer, err := NewRenderer(config.ReceiptsConfig{OutputDir: dir, LinesPerPage: 40})
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	trigger, err := NewLocalTrigger(renderer, testLogger())
	if err != nil {
		t.Fatalf("new trigger: %v", err)
	}

	trigger.TriggerReceipt(context.Background(), uuid.New(), SaleDocument{
		ID:    "s1",
		Date:  "2026-08-30",
		Total: 10,
		Items: []models.SaleItem{{ProductName: "Tea", Quantity: 1, Price: 10}},
	})

	path := filepath.Join(dir, "receipt_2026-08-30_s1.txt")
	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, err := os.Stat(path); err == nil {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("receipt %s never appeared", path)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

type capturedPublish struct {
	data  []byte
	attrs map[string]string
}

type fakePublisher struct {
	published chan capturedPublish
	err       error
}

func (f *fakePublisher) Publish(ctx context.Context, data []byte, attrs map[string]string) error {
	f.published <- capturedPublish{data: data, attrs: attrs}
	return f.err
}

func TestPubSubTriggerPublishesEvent(t *testing.T) {
	t.Parallel()

	pub := &fakePublisher{published: make(chan capturedPublish, 1)}
	trigger, err := NewPubSubTrigger(pub, testLogger())
	if err != nil {
		t.Fatalf("new trigger: %v", err)
	}

	tenant := uuid.New()
	trigger.TriggerReceipt(context.Background(), tenant, SaleDocument{
		ID:    "s1",
		Date:  "2026-08-30",
		Total: 30,
		Items: []models.SaleItem{{ProductName: "Rice", Quantity: 3, Price: 10}},
	})

	select {
	case got := <-pub.published:
		if got.attrs["event_type"] != EventTypeSaleCompleted {
			t.Fatalf("unexpected event type attr: %v", got.attrs)
		}
		var event Event
		if err := json.Unmarshal(got.data, &event); err != nil {
			t.Fatalf("decode event: %v", err)
		}
		if event.TenantID != tenant.String() || event.Sale.ID != "s1" || event.EventID == "" {
			t.Fatalf("unexpected event: %+v", event)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("publish never happened")
	}
}

func TestPubSubTriggerSwallowsPublishFailure(t *testing.T) {
	t.Parallel()

	pub := &fakePublisher{
		published: make(chan capturedPublish, 1),
		err:       errors.New("broker down"),
	}
	trigger, err := NewPubSubTrigger(pub, testLogger())
	if err != nil {
		t.Fatalf("new trigger: %v", err)
	}

	// must not panic or propagate
	trigger.TriggerReceipt(context.Background(), uuid.New(), SaleDocument{Date: "2026-08-30"})

	select {
	case <-pub.published:
	case <-time.After(2 * time.Second):
		t.Fatal("publish never attempted")
	}
}
