package httpapi

import (
	"context"
	"crypto/subtle"
	"net/http"
)

// requireAuth authenticates the Bearer token and stores the resulting
// session in the request context. Missing or invalid tokens get a 401.
func (h *Handler) requireAuth(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		sess, err := h.authSvc.Authenticate(r.Context(), token)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		ctx := context.WithValue(r.Context(), sessionKey{}, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireAdmin admits requests carrying an admin session token, or the
// shared admin secret header when one is configured. The secret path exists
// for bootstrap tooling that runs before any admin user is registered.
func (h *Handler) requireAdmin(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.cfg.AdminSecret != "" {
			secret := r.Header.Get("X-Admin-Secret")
			if secret != "" && subtle.ConstantTimeCompare([]byte(secret), []byte(h.cfg.AdminSecret)) == 1 {
				next.ServeHTTP(w, r)
				return
			}
		}
		token := bearerToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		sess, err := h.authSvc.Authenticate(r.Context(), token)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		if !sess.IsAdmin {
			writeError(w, http.StatusForbidden, "admin access required")
			return
		}
		ctx := context.WithValue(r.Context(), sessionKey{}, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
