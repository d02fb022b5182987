package controllers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/storebuddy/storebuddy-backend/internal/classifier"
	"github.com/storebuddy/storebuddy-backend/pkg/metrics"
)

type fixedModel struct {
	scores []classifier.LabelScore
}

func (m fixedModel) Load(context.Context) error { return nil }

func (m fixedModel) Predict(context.Context, []byte) ([]classifier.LabelScore, error) {
	return m.scores, nil
}

func newScanAdapter(t *testing.T, env *testEnv, scores []classifier.LabelScore) *classifier.Adapter {
	t.Helper()
	adapter, err := classifier.NewAdapter(fixedModel{scores: scores}, 0.6, env.logg, metrics.NewClassifierMetrics(nil))
	if err != nil {
		t.Fatalf("build adapter: %v", err)
	}
	return adapter
}

func scanBody() string {
	return fmt.Sprintf(`{"image":%q}`, base64.StdEncoding.EncodeToString([]byte("jpeg-bytes")))
}

func decodeScanResponse(t *testing.T, rec *httptest.ResponseRecorder) scanResponse {
	t.Helper()
	var envelope struct {
		Data scanResponse `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode scan response: %v", err)
	}
	return envelope.Data
}

func TestScanAddsMatchingProduct(t *testing.T) {
	env := newTestEnv(t)
	env.addProduct(t, "basmati rice", 3.20, 4)

	adapter := newScanAdapter(t, env, []classifier.LabelScore{
		{Label: "Basmati Rice", Probability: 0.91},
	})
	handler := ScanAdd(adapter, env.sessions, nil)

	req := env.authed(httptest.NewRequest(http.MethodPost, "/api/v1/scan", strings.NewReader(scanBody())))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeScanResponse(t, rec)
	if resp.Outcome != scanOutcomeAdded {
		t.Fatalf("expected added outcome, got %q", resp.Outcome)
	}
	if resp.Cart == nil || len(resp.Cart.Lines) != 1 {
		t.Fatalf("expected one cart line, got %+v", resp.Cart)
	}
}

func TestScanLowConfidenceIsUnknown(t *testing.T) {
	env := newTestEnv(t)
	env.addProduct(t, "basmati rice", 3.20, 4)

	adapter := newScanAdapter(t, env, []classifier.LabelScore{
		{Label: "basmati rice", Probability: 0.25},
	})
	handler := ScanAdd(adapter, env.sessions, nil)

	req := env.authed(httptest.NewRequest(http.MethodPost, "/api/v1/scan", strings.NewReader(scanBody())))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	resp := decodeScanResponse(t, rec)
	if resp.Outcome != scanOutcomeUnknown {
		t.Fatalf("expected unknown outcome, got %q", resp.Outcome)
	}
	if resp.Cart != nil {
		t.Fatalf("expected no cart payload for unknown outcome")
	}
}

func TestScanLabelWithoutCatalogMatchIsUnmatched(t *testing.T) {
	env := newTestEnv(t)
	env.addProduct(t, "olive oil", 7.50, 5)

	adapter := newScanAdapter(t, env, []classifier.LabelScore{
		{Label: "toothpaste", Probability: 0.88},
	})
	handler := ScanAdd(adapter, env.sessions, nil)

	req := env.authed(httptest.NewRequest(http.MethodPost, "/api/v1/scan", strings.NewReader(scanBody())))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	resp := decodeScanResponse(t, rec)
	if resp.Outcome != scanOutcomeUnmatched {
		t.Fatalf("expected unmatched outcome, got %q", resp.Outcome)
	}
	if resp.Label != "toothpaste" {
		t.Fatalf("expected label echoed back, got %q", resp.Label)
	}
}

func TestScanRejectsInvalidBase64(t *testing.T) {
	env := newTestEnv(t)
	adapter := newScanAdapter(t, env, nil)
	handler := ScanAdd(adapter, env.sessions, nil)

	req := env.authed(httptest.NewRequest(http.MethodPost, "/api/v1/scan", strings.NewReader(`{"image":"not-base64!!"}`)))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
