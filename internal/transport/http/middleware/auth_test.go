package middleware

import (
	"crypto/rand"
	"crypto/rsa"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/flightdesk-api/internal/domain"
	jwtinfra "github.com/flightdesk-api/internal/infrastructure/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestProvider generates a fresh RSA key pair and returns a provider using it.
func newTestProvider(t *testing.T, expiry time.Duration) *jwtinfra.Provider {
	t.Helper()
	privKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return jwtinfra.NewProviderFromKeys(privKey, &privKey.PublicKey, "flightdesk-test", expiry)
}

func okHandler(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }

func bearer(t *testing.T, p *jwtinfra.Provider, ident *domain.Identity) string {
	t.Helper()
	signed, _, err := p.Sign(ident)
	require.NoError(t, err)
	return "Bearer " + signed
}

func TestAuth_MissingHeader(t *testing.T) {
	p := newTestProvider(t, time.Hour)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	Auth(p)(http.HandlerFunc(okHandler)).ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"missing or invalid authorization header"}`, rr.Body.String())
}

func TestAuth_BadToken(t *testing.T) {
	p := newTestProvider(t, time.Hour)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-real-token")
	rr := httptest.NewRecorder()
	Auth(p)(http.HandlerFunc(okHandler)).ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAuth_ExpiredToken(t *testing.T) {
	p := newTestProvider(t, -time.Minute)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", bearer(t, p, &domain.Identity{UserID: "u1", Role: domain.RoleUser}))
	rr := httptest.NewRecorder()
	Auth(p)(http.HandlerFunc(okHandler)).ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAuth_OtherKeyRejected(t *testing.T) {
	signer := newTestProvider(t, time.Hour)
	verifier := newTestProvider(t, time.Hour)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", bearer(t, signer, &domain.Identity{UserID: "u1", Role: domain.RoleAdmin}))
	rr := httptest.NewRecorder()
	Auth(verifier)(http.HandlerFunc(okHandler)).ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAuth_ValidToken_InjectsClaims(t *testing.T) {
	p := newTestProvider(t, time.Hour)

	var gotClaims *jwtinfra.Claims
	captureHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotClaims, _ = ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", bearer(t, p, &domain.Identity{
		UserID: "u1", Email: "u1@school.aero", Role: domain.RoleInstructor, Permissions: []string{"invoices:read"},
	}))
	rr := httptest.NewRecorder()
	Auth(p)(captureHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	require.NotNil(t, gotClaims)
	assert.Equal(t, "u1", gotClaims.UserID())
	assert.Equal(t, "instructor", gotClaims.Role)
	assert.Equal(t, []string{"invoices:read"}, gotClaims.Permissions)
}
