package classifier

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/storebuddy/storebuddy-backend/pkg/logger"
	"github.com/storebuddy/storebuddy-backend/pkg/metrics"
)

type stubModel struct {
	mu        sync.Mutex
	loadCalls int32
	loadErr   error
	scores    []LabelScore
	scoresErr error
	loadGate  chan struct{}
}

func (s *stubModel) Load(ctx context.Context) error {
	atomic.AddInt32(&s.loadCalls, 1)
	if s.loadGate != nil {
		<-s.loadGate
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadErr
}

func (s *stubModel) Predict(ctx context.Context, imageBytes []byte) ([]LabelScore, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scores, s.scoresErr
}

func newTestAdapter(t *testing.T, model Model, threshold float64) *Adapter {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "classifier-test", Output: io.Discard})
	adapter, err := NewAdapter(model, threshold, logg, metrics.NewClassifierMetrics(nil))
	if err != nil {
		t.Fatalf("new adapter: %v", err)
	}
	return adapter
}

func TestIdentifyConfidentLabel(t *testing.T) {
	t.Parallel()

	model := &stubModel{scores: []LabelScore{
		{Label: "beans", Probability: 0.4},
		{Label: "rice", Probability: 0.9},
	}}
	adapter := newTestAdapter(t, model, 0.6)

	pred, ok, err := adapter.Identify(context.Background(), []byte("img"))
	if err != nil {
		t.Fatalf("identify: %v", err)
	}
	if !ok {
		t.Fatal("expected a confident prediction")
	}
	if pred.Label != "rice" || pred.Confidence != 0.9 {
		t.Fatalf("expected top-ranked label, got %+v", pred)
	}
}

func TestIdentifyBelowThresholdIsUnknown(t *testing.T) {
	t.Parallel()

	model := &stubModel{scores: []LabelScore{{Label: "rice", Probability: 0.25}}}
	adapter := newTestAdapter(t, model, 0.3)

	_, ok, err := adapter.Identify(context.Background(), []byte("img"))
	if err != nil {
		t.Fatalf("identify: %v", err)
	}
	if ok {
		t.Fatal("confidence 0.25 under threshold 0.3 must resolve to unknown")
	}
}

func TestIdentifyEmptyPredictionsIsUnknown(t *testing.T) {
	t.Parallel()

	adapter := newTestAdapter(t, &stubModel{}, 0.6)

	_, ok, err := adapter.Identify(context.Background(), []byte("img"))
	if err != nil {
		t.Fatalf("identify: %v", err)
	}
	if ok {
		t.Fatal("no labels must resolve to unknown")
	}
}

func TestIdentifyRejectsEmptyImage(t *testing.T) {
	t.Parallel()

	adapter := newTestAdapter(t, &stubModel{}, 0.6)
	if _, _, err := adapter.Identify(context.Background(), nil); err == nil {
		t.Fatal("expected validation error for empty image")
	}
}

func TestModelLoadedOnceAcrossConcurrentCallers(t *testing.T) {
	t.Parallel()

	gate := make(chan struct{})
	model := &stubModel{
		scores:   []LabelScore{{Label: "rice", Probability: 0.9}},
		loadGate: gate,
	}
	adapter := newTestAdapter(t, model, 0.6)

	const callers = 8
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, errs[i] = adapter.Identify(context.Background(), []byte("img"))
		}(i)
	}

	close(gate)
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("caller %d: %v", i, err)
		}
	}
	if calls := atomic.LoadInt32(&model.loadCalls); calls != 1 {
		t.Fatalf("expected a single model load, got %d", calls)
	}
}

func TestFailedLoadRetriesOnNextCall(t *testing.T) {
	t.Parallel()

	model := &stubModel{
		loadErr: errors.New("cold start"),
		scores:  []LabelScore{{Label: "rice", Probability: 0.9}},
	}
	adapter := newTestAdapter(t, model, 0.6)

	if _, _, err := adapter.Identify(context.Background(), []byte("img")); err == nil {
		t.Fatal("expected load error")
	}

	model.mu.Lock()
	model.loadErr = nil
	model.mu.Unlock()

	_, ok, err := adapter.Identify(context.Background(), []byte("img"))
	if err != nil {
		t.Fatalf("retry after failed load: %v", err)
	}
	if !ok {
		t.Fatal("expected a prediction after recovery")
	}
	if calls := atomic.LoadInt32(&model.loadCalls); calls != 2 {
		t.Fatalf("expected load retry, got %d calls", calls)
	}
}
