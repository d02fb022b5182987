package classifier

import (
	"context"
	"fmt"
	"sort"
	"time"

	pkgerrors "github.com/storebuddy/storebuddy-backend/pkg/errors"
	"github.com/storebuddy/storebuddy-backend/pkg/logger"
	"github.com/storebuddy/storebuddy-backend/pkg/metrics"
)

// Model is the loaded prediction resource behind the adapter.
type Model interface {
	Load(ctx context.Context) error
	Predict(ctx context.Context, imageBytes []byte) ([]LabelScore, error)
}

// Prediction is a confident classification result.
type Prediction struct {
	Label      string
	Confidence float64
}

// Adapter wraps the prediction model behind the narrow identify contract.
// The model is loaded lazily and at most once; concurrent callers await the
// same in-flight load. A failed load is retried on the next call rather than
// memoized forever.
type Adapter struct {
	model     Model
	threshold float64
	logg      *logger.Logger
	met       *metrics.ClassifierMetrics

	loadCh chan struct{} // capacity 1: load permit
	loaded bool
}

// NewAdapter builds an adapter over the model with the configured confidence
// threshold.
func NewAdapter(model Model, threshold float64, logg *logger.Logger, met *metrics.ClassifierMetrics) (*Adapter, error) {
	if model == nil {
		return nil, fmt.Errorf("model required")
	}
	if threshold < 0 || threshold > 1 {
		return nil, fmt.Errorf("threshold must be within [0, 1]")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}

	loadCh := make(chan struct{}, 1)
	loadCh <- struct{}{}

	return &Adapter{
		model:     model,
		threshold: threshold,
		logg:      logg,
		met:       met,
		loadCh:    loadCh,
	}, nil
}

// Identify classifies the image. The boolean is false when no label clears
// the threshold or the model returns nothing; callers must treat that
// identically to "no match" and never guess.
func (a *Adapter) Identify(ctx context.Context, imageBytes []byte) (Prediction, bool, error) {
	if len(imageBytes) == 0 {
		return Prediction{}, false, pkgerrors.New(pkgerrors.CodeValidation, "image bytes are required")
	}

	if err := a.ensureLoaded(ctx); err != nil {
		return Prediction{}, false, err
	}

	start := time.Now()
	scores, err := a.model.Predict(ctx, imageBytes)
	a.met.ObservePredict(time.Since(start))
	if err != nil {
		return Prediction{}, false, err
	}
	if len(scores) == 0 {
		a.met.IncPrediction("unknown")
		return Prediction{}, false, nil
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Probability > scores[j].Probability
	})

	top := scores[0]
	if top.Label == "" || top.Probability < a.threshold {
		a.met.IncPrediction("unknown")
		return Prediction{}, false, nil
	}

	a.met.IncPrediction("matched")
	return Prediction{Label: top.Label, Confidence: top.Probability}, true, nil
}

// ensureLoaded performs the memoized lazy load. The permit channel admits
// one loader at a time; concurrent callers wait on the same in-flight load
// instead of triggering duplicates. A failed load releases the permit so the
// next caller retries.
func (a *Adapter) ensureLoaded(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return pkgerrors.Wrap(pkgerrors.CodeDependency, ctx.Err(), "awaiting model load")
	case <-a.loadCh:
	}
	defer func() { a.loadCh <- struct{}{} }()

	if a.loaded {
		return nil
	}

	start := time.Now()
	if err := a.model.Load(ctx); err != nil {
		a.met.ObserveLoad(time.Since(start))
		a.met.IncLoadFailure()
		a.logg.Error(ctx, "classifier model load failed", err)
		return err
	}
	a.met.ObserveLoad(time.Since(start))

	a.loaded = true
	a.logg.Info(ctx, "classifier model loaded")
	return nil
}
