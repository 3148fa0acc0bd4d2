package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/flightdesk-api/internal/domain"
	"github.com/stretchr/testify/assert"
)

type lookupFunc func(ctx context.Context, email string) (*domain.Identity, error)

func (f lookupFunc) Resolve(ctx context.Context, email string) (*domain.Identity, error) {
	return f(ctx, email)
}

func activeStatus(t *testing.T, lookup identityLookup) (int, string) {
	t.Helper()
	p := newTestProvider(t, time.Hour)
	h := Auth(p)(Active(lookup)(http.HandlerFunc(okHandler)))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", bearer(t, p, &domain.Identity{UserID: "u1", Email: "u1@school.aero", Role: domain.RoleUser}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr.Code, rr.Body.String()
}

func TestActive_EnabledPasses(t *testing.T) {
	var asked string
	code, _ := activeStatus(t, lookupFunc(func(_ context.Context, email string) (*domain.Identity, error) {
		asked = email
		return &domain.Identity{UserID: "u1", Email: email, Enable: true}, nil
	}))
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "u1@school.aero", asked)
}

func TestActive_DisabledRejected(t *testing.T) {
	code, body := activeStatus(t, lookupFunc(func(_ context.Context, email string) (*domain.Identity, error) {
		return &domain.Identity{UserID: "u1", Email: email, Enable: false}, nil
	}))
	assert.Equal(t, http.StatusForbidden, code)
	assert.JSONEq(t, `{"error":"account disabled"}`, body)
}

func TestActive_LookupUnavailable(t *testing.T) {
	code, _ := activeStatus(t, lookupFunc(func(context.Context, string) (*domain.Identity, error) {
		return nil, fmt.Errorf("redis down: %w", domain.ErrUnavailable)
	}))
	assert.Equal(t, http.StatusServiceUnavailable, code)
}

func TestActive_WithoutClaims(t *testing.T) {
	rr := httptest.NewRecorder()
	Active(lookupFunc(func(context.Context, string) (*domain.Identity, error) {
		t.Fatal("lookup must not run without a credential")
		return nil, nil
	}))(http.HandlerFunc(okHandler)).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestWriteError_Shape(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteError(rr, http.StatusTeapot, "short and stout")
	assert.Equal(t, http.StatusTeapot, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"short and stout"}`, rr.Body.String())
}
