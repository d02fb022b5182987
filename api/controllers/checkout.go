package controllers

import (
	"net/http"

	"github.com/storebuddy/storebuddy-backend/api/responses"
	"github.com/storebuddy/storebuddy-backend/internal/checkout"
	"github.com/storebuddy/storebuddy-backend/internal/session"
	pkgerrors "github.com/storebuddy/storebuddy-backend/pkg/errors"
	"github.com/storebuddy/storebuddy-backend/pkg/logger"
)

// CheckoutExecute records the sale, decrements stock, and clears the cart.
func CheckoutExecute(svc checkout.Service, sessions *session.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		sess, err := tillSession(r, sessions)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sale, err := svc.Execute(r.Context(), sess.TenantID, sess.Cart, sess.Mirror)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, sale)
	}
}
