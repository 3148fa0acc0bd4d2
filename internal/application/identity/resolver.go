package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/flightdesk-api/internal/domain"
	"github.com/flightdesk-api/internal/pkg/id"
)

// Resolver maps an email address to an identity. Unknown addresses get a
// fresh "user" identity; resolving is never refused for an unknown email.
type Resolver interface {
	Resolve(ctx context.Context, email string) (*domain.Identity, error)
}

type identityStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.Identity, error)
	Create(ctx context.Context, ident *domain.Identity) error
}

type seedTable interface {
	Lookup(email string) (*domain.Identity, bool)
}

type resolver struct {
	seed  seedTable
	store identityStore
	now   func() time.Time
}

type ServiceDeps struct {
	Seed  seedTable
	Store identityStore
}

func NewResolver(deps ServiceDeps) Resolver {
	return &resolver{seed: deps.Seed, store: deps.Store, now: time.Now}
}

func (r *resolver) Resolve(ctx context.Context, email string) (*domain.Identity, error) {
	if r.seed != nil {
		if ident, ok := r.seed.Lookup(email); ok {
			return ident, nil
		}
	}

	ident, err := r.store.GetByEmail(ctx, email)
	if err == nil {
		return ident, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	// First sign-in for this address. Persist so the ID is stable; if another
	// request created it in the meantime, theirs wins.
	now := r.now().UTC()
	fresh := &domain.Identity{
		UserID:    id.NewAt(now),
		Email:     email,
		Role:      domain.RoleUser,
		Enable:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	switch err := r.store.Create(ctx, fresh); {
	case err == nil:
		return fresh, nil
	case errors.Is(err, domain.ErrConflict):
		existing, err := r.store.GetByEmail(ctx, email)
		if err != nil {
			return nil, fmt.Errorf("reload identity after conflict: %w", err)
		}
		return existing, nil
	default:
		return nil, err
	}
}
