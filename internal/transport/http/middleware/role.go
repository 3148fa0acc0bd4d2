package middleware

import (
	"log/slog"
	"net/http"

	"github.com/flightdesk-api/internal/application/authz"
	"github.com/flightdesk-api/internal/domain"
)

// Guard turns gate decisions into HTTP responses. Routes using it must sit
// behind Auth: a missing credential is 401 even when the gate is bypassed.
type Guard struct {
	Gate authz.Gate
	// OnDeny, when set, is called with the requirement that was not met.
	OnDeny func(required string)
}

// RequireRole allows callers whose role ranks at least role.
func (g Guard) RequireRole(role domain.Role) func(http.Handler) http.Handler {
	return g.require(string(role))
}

// RequirePermission allows callers holding perm.
func (g Guard) RequirePermission(perm string) func(http.Handler) http.Handler {
	return g.require(perm)
}

func (g Guard) require(required string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject, ok := SubjectFromContext(r.Context())
			if !ok {
				WriteError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			if g.Gate.Authorize(subject, required) == authz.Deny {
				slog.Debug("gate denied request", "user_id", subject.UserID, "role", subject.Role.String(), "required", required)
				if g.OnDeny != nil {
					g.OnDeny(required)
				}
				WriteError(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
