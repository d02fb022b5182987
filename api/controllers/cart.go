package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/storebuddy/storebuddy-backend/api/responses"
	"github.com/storebuddy/storebuddy-backend/api/validators"
	"github.com/storebuddy/storebuddy-backend/internal/cart"
	"github.com/storebuddy/storebuddy-backend/internal/session"
	pkgerrors "github.com/storebuddy/storebuddy-backend/pkg/errors"
	"github.com/storebuddy/storebuddy-backend/pkg/logger"
)

type addCartLineRequest struct {
	ProductID uuid.UUID `json:"productId" validate:"required"`
}

type changeQuantityRequest struct {
	Delta int `json:"delta" validate:"required"`
}

type cartView struct {
	Lines []cart.Line `json:"lines"`
	Total float64     `json:"total"`
	Count int         `json:"count"`
}

func viewOf(c *cart.Cart) cartView {
	lines := c.Lines()
	if lines == nil {
		lines = []cart.Line{}
	}
	return cartView{
		Lines: lines,
		Total: c.Total(),
		Count: c.Len(),
	}
}

// CartView returns the current cart for the authenticated till.
func CartView(sessions *session.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := tillSession(r, sessions)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, viewOf(sess.Cart))
	}
}

// CartAdd adds one unit of a catalog product to the cart.
func CartAdd(sessions *session.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := tillSession(r, sessions)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload addCartLineRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, ok := sess.Mirror.Get(payload.ProductID)
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "product not in catalog"))
			return
		}

		if err := sess.Cart.AddOne(product); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, viewOf(sess.Cart))
	}
}

// CartChangeQuantity adjusts one line by a signed delta.
func CartChangeQuantity(sessions *session.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := tillSession(r, sessions)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		productID, err := uuidParam(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload changeQuantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := sess.Cart.ChangeQuantity(productID, payload.Delta); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, viewOf(sess.Cart))
	}
}

// CartRemove drops one line from the cart.
func CartRemove(sessions *session.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := tillSession(r, sessions)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		productID, err := uuidParam(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sess.Cart.Remove(productID)
		responses.WriteSuccess(w, viewOf(sess.Cart))
	}
}

// CartClear empties the cart without recording a sale.
func CartClear(sessions *session.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := tillSession(r, sessions)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sess.Cart.Clear()
		responses.WriteSuccess(w, viewOf(sess.Cart))
	}
}

func tillSession(r *http.Request, sessions *session.Manager) (*session.Session, error) {
	if sessions == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "session manager unavailable")
	}
	tenant, err := tenantID(r)
	if err != nil {
		return nil, err
	}
	sess, err := sessions.Get(r.Context(), tenant)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "open till session")
	}
	return sess, nil
}
