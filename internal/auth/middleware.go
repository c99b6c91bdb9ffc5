package auth

import (
	"log/slog"
	"net/http"
	"strings"
)

// RequireAuth resolves the session and stores the Identity in the request
// context. Pages redirect to /login; /api/ paths answer 401.
func RequireAuth(sessions *SessionStore, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		id, err := sessions.Validate(r)
		if err != nil {
			if err != ErrNoSession {
				slog.Error("validating session", "error", err)
			}
			if strings.HasPrefix(r.URL.Path, "/api/") {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

// RequireManager answers 403 unless the request identity is a manager.
// It must run inside RequireAuth.
func RequireManager(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := IdentityFrom(r.Context())
		if !ok || !id.IsManager() {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func isPublicPath(path string) bool {
	switch path {
	case "/login", "/health", "/metrics":
		return true
	}
	return strings.HasPrefix(path, "/static/")
}
