package httpapi

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// SessionCookie names the cookie carrying the browser-scoped session key.
const SessionCookie = "storefront_session"

// SessionMiddleware attaches a stable session ID to each request, minting one
// on first contact. The ID is per-browser, not per-account: it also keys the
// persisted unseen-deal acknowledgment.
func SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := ""
		if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
			id = c.Value
		}
		if id == "" {
			id = r.Header.Get("X-Session-ID")
		}
		if id == "" {
			id = uuid.New().String()
			http.SetCookie(w, &http.Cookie{
				Name:     SessionCookie,
				Value:    id,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}

		ctx := context.WithValue(r.Context(), "session_id", id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
