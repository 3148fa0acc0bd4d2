package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/flightdesk-api/internal/domain"
	"github.com/flightdesk-api/internal/transport/http/middleware"
)

const maxJSONBody = 1 << 20

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// MagicLinkEnvelope answers a link request. Token is only present in development.
type MagicLinkEnvelope struct {
	Message   string    `json:"message"`
	Token     string    `json:"token,omitempty"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// SessionEnvelope wraps a freshly issued credential.
type SessionEnvelope struct {
	AccessToken string           `json:"access_token"`
	ExpiresAt   time.Time        `json:"expiresAt"`
	User        *domain.Identity `json:"user"`
}

// UsersPageEnvelope wraps a page of identities.
type UsersPageEnvelope struct {
	Data       []domain.Identity `json:"data"`
	NextCursor string            `json:"next_cursor,omitempty"`
}

type DataEnvelope[T any] struct {
	Data []T `json:"data"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	middleware.WriteJSON(w, status, v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	middleware.WriteError(w, status, msg)
}

var statusBySentinel = []struct {
	err    error
	status int
}{
	{domain.ErrBadRequest, http.StatusBadRequest},
	{domain.ErrUnauthorized, http.StatusUnauthorized},
	{domain.ErrForbidden, http.StatusForbidden},
	{domain.ErrNotFound, http.StatusNotFound},
	{domain.ErrConflict, http.StatusConflict},
	{domain.ErrUnavailable, http.StatusServiceUnavailable},
}

// writeServiceError maps a service error onto a status code. Client errors
// carry the wrapped message without the sentinel suffix; anything else is
// logged and answered generically.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	for _, m := range statusBySentinel {
		if !errors.Is(err, m.err) {
			continue
		}
		if m.status == http.StatusServiceUnavailable {
			slog.Error("backend unavailable", "path", r.URL.Path, "err", err)
			writeError(w, m.status, "service temporarily unavailable")
			return
		}
		writeError(w, m.status, publicMessage(err, m.err))
		return
	}
	slog.Error("unhandled service error", "path", r.URL.Path, "err", err)
	writeError(w, http.StatusInternalServerError, "internal server error")
}

func publicMessage(err, sentinel error) string {
	msg := err.Error()
	if i := strings.Index(msg, ": "+sentinel.Error()); i > 0 {
		return msg[:i]
	}
	return msg
}

// decodeJSON reads a size-limited JSON body into v, answering 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
