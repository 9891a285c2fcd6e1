package daemon

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"pantrypal/internal/logging"
	"pantrypal/internal/services"
)

// TokenVerifier resolves a bearer token to the caller's user id.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// adminMiddleware guards operator routes with a static bearer token.
// If token is empty, no authentication is required and all requests pass through.
func adminMiddleware(token string, next http.HandlerFunc) http.HandlerFunc {
	if token == "" {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		presented, ok := bearerToken(r)
		if !ok || subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
			writeUnauthorized(w)
			return
		}
		next(w, r)
	}
}

// userMiddleware verifies the caller's JWT and scopes the request context to
// their owner id. Without a verifier every user route is rejected.
func userMiddleware(tokens TokenVerifier, logger *slog.Logger, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		presented, ok := bearerToken(r)
		if !ok || tokens == nil {
			writeUnauthorized(w)
			return
		}
		owner, err := tokens.Verify(presented)
		if err != nil {
			logger.Debug("bearer token rejected", logging.Error(err))
			writeUnauthorized(w)
			return
		}
		next(w, r.WithContext(services.WithOwnerID(r.Context(), owner)))
	}
}

// requestIDMiddleware tags each request with a correlation id, reusing the
// caller's X-Request-ID when present.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get("X-Request-ID"))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(services.WithRequestID(r.Context(), id)))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	return token, token != ""
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","kind":"unauthorized"}` + "\n"))
}
