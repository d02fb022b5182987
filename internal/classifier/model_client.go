package classifier

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	pkgerrors "github.com/storebuddy/storebuddy-backend/pkg/errors"
)

const (
	responseBodyReadLimit int64 = 1024
)

var (
	errBaseURLRequired   = errors.New("classifier base url is required")
	errModelNameRequired = errors.New("classifier model name is required")
)

// ModelClient is the loaded model resource: a handle on a model the predict
// service has prepared, ready to rank labels for an image.
type ModelClient struct {
	httpClient *http.Client
	baseURL    string
	modelName  string
}

// Option configures optional client behavior.
type Option func(*ModelClient)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *ModelClient) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout sets the default HTTP client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *ModelClient) {
		if timeout > 0 && c.httpClient != nil {
			c.httpClient.Timeout = timeout
		}
	}
}

// NewModelClient builds a predict-service client for the named model.
func NewModelClient(baseURL, modelName string, opts ...Option) (*ModelClient, error) {
	trimmedURL := strings.TrimSpace(baseURL)
	if trimmedURL == "" {
		return nil, errBaseURLRequired
	}
	trimmedModel := strings.TrimSpace(modelName)
	if trimmedModel == "" {
		return nil, errModelNameRequired
	}

	client := &ModelClient{
		baseURL:    trimmedURL,
		modelName:  trimmedModel,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	return client, nil
}

// Load verifies the model exists and is servable. The adapter calls this once
// per process, memoized.
func (c *ModelClient) Load(ctx context.Context) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "classifier client not configured")
	}

	endpoint := fmt.Sprintf("%s/v1/models/%s", strings.TrimRight(c.baseURL, "/"), url.PathEscape(c.modelName))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build model status request")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute model status request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "model not servable")
	}

	return nil
}

// LabelScore is one ranked prediction.
type LabelScore struct {
	Label       string
	Probability float64
}

// Predict sends the image to the predict endpoint and returns the ranked
// label/probability pairs, best first.
func (c *ModelClient) Predict(ctx context.Context, imageBytes []byte) ([]LabelScore, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "classifier client not configured")
	}
	if len(imageBytes) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "image bytes are required")
	}

	payload, err := json.Marshal(map[string]any{
		"instances": []map[string]string{
			{"image_bytes": base64.StdEncoding.EncodeToString(imageBytes)},
		},
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal predict request")
	}

	endpoint := fmt.Sprintf("%s/v1/models/%s:predict", strings.TrimRight(c.baseURL, "/"), url.PathEscape(c.modelName))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build predict request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute predict request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "predict request failed")
	}

	var apiResp struct {
		Predictions []struct {
			Label       string  `json:"label"`
			Probability float64 `json:"probability"`
		} `json:"predictions"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode predict response")
	}

	scores := make([]LabelScore, 0, len(apiResp.Predictions))
	for _, p := range apiResp.Predictions {
		scores = append(scores, LabelScore{Label: p.Label, Probability: p.Probability})
	}
	return scores, nil
}
