package controllers

import (
	"net/http"
	"strings"

	"github.com/storebuddy/storebuddy-backend/api/responses"
	"github.com/storebuddy/storebuddy-backend/internal/catalog"
	"github.com/storebuddy/storebuddy-backend/internal/session"
	"github.com/storebuddy/storebuddy-backend/pkg/logger"
)

// CatalogSearch filters the in-memory catalog mirror by name substring. An
// empty query returns the whole catalog.
func CatalogSearch(sessions *session.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := tillSession(r, sessions)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		term := strings.TrimSpace(r.URL.Query().Get("q"))
		matches := catalog.Filter(term, sess.Mirror.All())
		if matches == nil {
			matches = []catalog.Product{}
		}

		responses.WriteSuccess(w, map[string]any{"products": matches})
	}
}
