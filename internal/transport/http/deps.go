package http

import (
	"github.com/flightdesk-api/internal/application/aircraft"
	"github.com/flightdesk-api/internal/application/auth"
	"github.com/flightdesk-api/internal/application/authz"
	"github.com/flightdesk-api/internal/application/base"
	"github.com/flightdesk-api/internal/application/identity"
	"github.com/flightdesk-api/internal/application/user"
	jwtinfra "github.com/flightdesk-api/internal/infrastructure/jwt"
	"github.com/flightdesk-api/internal/observability"
	"github.com/flightdesk-api/internal/transport/http/handler"
)

// CredentialVerifier checks a bearer credential.
type CredentialVerifier interface {
	Verify(tokenStr string) (*jwtinfra.Claims, error)
}

// Deps holds the services and cross-cutting pieces the router wires together.
type Deps struct {
	Auth     auth.Service
	Users    user.Service
	Bases    base.Service
	Aircraft aircraft.Service

	Verifier CredentialVerifier
	// Identities, when set, is consulted on every /v1 request so that disabled
	// accounts lose access before their credential expires.
	Identities identity.Resolver
	Gate       authz.Gate
	// Metrics may be nil, in which case /metrics is not mounted.
	Metrics *observability.Metrics
	// Checks are run by /health/ready, keyed by dependency name.
	Checks map[string]handler.Check
}
