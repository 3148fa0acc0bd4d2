package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/flightdesk-api/internal/domain"
)

type identityLookup interface {
	Resolve(ctx context.Context, email string) (*domain.Identity, error)
}

// Active rejects credentials whose account has been disabled since they were
// issued. It must sit behind Auth.
func Active(lookup identityLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				WriteError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			ident, err := lookup.Resolve(r.Context(), claims.Email)
			switch {
			case errors.Is(err, domain.ErrUnavailable):
				slog.Error("identity lookup unavailable", "user_id", claims.UserID(), "err", err)
				WriteError(w, http.StatusServiceUnavailable, "service temporarily unavailable")
				return
			case err != nil:
				slog.Error("identity lookup failed", "user_id", claims.UserID(), "err", err)
				WriteError(w, http.StatusInternalServerError, "internal server error")
				return
			case !ident.Enable:
				WriteError(w, http.StatusForbidden, "account disabled")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
