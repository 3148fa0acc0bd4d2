package handler

import (
	"net/http"

	"github.com/flightdesk-api/internal/application/auth"
	"github.com/flightdesk-api/internal/transport/http/middleware"
)

// AuthHandler serves the magic-link and sign-in endpoints.
type AuthHandler struct {
	svc auth.Service
}

func NewAuthHandler(svc auth.Service) *AuthHandler { return &AuthHandler{svc: svc} }

type magicLinkRequest struct {
	Email string `json:"email"`
}

type verifyRequest struct {
	Token string `json:"token"`
}

type googleRequest struct {
	IDToken string `json:"id_token"`
}

func (h *AuthHandler) RequestLink(w http.ResponseWriter, r *http.Request) {
	var req magicLinkRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.svc.RequestLink(r.Context(), req.Email)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MagicLinkEnvelope{
		Message:   "magic link sent",
		Token:     res.Token,
		ExpiresAt: res.ExpiresAt,
	})
}

// Verify accepts the token as a query parameter (GET, the link itself) or in
// a JSON body (POST, from a client that extracted it).
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if r.Method == http.MethodPost {
		var req verifyRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		token = req.Token
	}
	sess, err := h.svc.VerifyLink(r.Context(), token)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionEnvelope(sess))
}

func (h *AuthHandler) Google(w http.ResponseWriter, r *http.Request) {
	var req googleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	sess, err := h.svc.SignInWithGoogle(r.Context(), req.IDToken)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionEnvelope(sess))
}

func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	ident, err := h.svc.Profile(r.Context(), claims.Email)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ident)
}

func toSessionEnvelope(s *auth.Session) SessionEnvelope {
	return SessionEnvelope{AccessToken: s.AccessToken, ExpiresAt: s.ExpiresAt, User: s.Identity}
}
