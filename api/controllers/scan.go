package controllers

import (
	"encoding/base64"
	"net/http"

	"github.com/storebuddy/storebuddy-backend/api/responses"
	"github.com/storebuddy/storebuddy-backend/api/validators"
	"github.com/storebuddy/storebuddy-backend/internal/catalog"
	"github.com/storebuddy/storebuddy-backend/internal/classifier"
	"github.com/storebuddy/storebuddy-backend/internal/session"
	pkgerrors "github.com/storebuddy/storebuddy-backend/pkg/errors"
	"github.com/storebuddy/storebuddy-backend/pkg/logger"
)

const (
	scanOutcomeAdded     = "added"
	scanOutcomeUnknown   = "unknown"
	scanOutcomeUnmatched = "unmatched"
)

type scanRequest struct {
	Image string `json:"image" validate:"required"`
}

type scanResponse struct {
	Outcome    string    `json:"outcome"`
	Label      string    `json:"label,omitempty"`
	Confidence float64   `json:"confidence,omitempty"`
	Cart       *cartView `json:"cart,omitempty"`
}

// ScanAdd classifies a product photo and, when the label matches a catalog
// product, adds one unit of it to the cart. A low-confidence prediction or a
// label with no catalog match is a normal outcome, not an error.
func ScanAdd(adapter *classifier.Adapter, sessions *session.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if adapter == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "classifier unavailable"))
			return
		}

		sess, err := tillSession(r, sessions)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload scanRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		imageBytes, err := base64.StdEncoding.DecodeString(payload.Image)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "image must be base64 encoded"))
			return
		}

		prediction, confident, err := adapter.Identify(r.Context(), imageBytes)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !confident {
			responses.WriteSuccess(w, scanResponse{Outcome: scanOutcomeUnknown})
			return
		}

		product, ok := catalog.Resolve(prediction.Label, sess.Mirror.All())
		if !ok {
			responses.WriteSuccess(w, scanResponse{
				Outcome:    scanOutcomeUnmatched,
				Label:      prediction.Label,
				Confidence: prediction.Confidence,
			})
			return
		}

		if err := sess.Cart.AddOne(product); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view := viewOf(sess.Cart)
		responses.WriteSuccess(w, scanResponse{
			Outcome:    scanOutcomeAdded,
			Label:      prediction.Label,
			Confidence: prediction.Confidence,
			Cart:       &view,
		})
	}
}
