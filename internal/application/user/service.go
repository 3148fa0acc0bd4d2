package user

import (
	"context"
	"fmt"
	"strings"

	"github.com/flightdesk-api/internal/application/authz"
	"github.com/flightdesk-api/internal/domain"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Service is the admin surface over identities.
type Service interface {
	List(ctx context.Context, limit int, cursor string) ([]domain.Identity, string, error)
	Get(ctx context.Context, userID string) (*domain.Identity, error)
	Update(ctx context.Context, actor authz.Subject, userID string, req domain.UpdateIdentityRequest) (*domain.Identity, error)
}

type identityStore interface {
	Get(ctx context.Context, userID string) (*domain.Identity, error)
	List(ctx context.Context, limit int32, cursor string) ([]domain.Identity, string, error)
	Update(ctx context.Context, ident *domain.Identity) error
}

type service struct {
	repo identityStore
	gate authz.Gate
}

type ServiceDeps struct {
	IdentityRepo identityStore
	Gate         authz.Gate
}

func NewService(deps ServiceDeps) Service {
	return &service{repo: deps.IdentityRepo, gate: deps.Gate}
}

func (s *service) List(ctx context.Context, limit int, cursor string) ([]domain.Identity, string, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return s.repo.List(ctx, int32(limit), cursor)
}

func (s *service) Get(ctx context.Context, userID string) (*domain.Identity, error) {
	return s.repo.Get(ctx, userID)
}

// Update changes another user's access. Nobody may change their own record
// here, a role change needs roles:write, and explicit permissions can only be
// granted by someone who holds them.
func (s *service) Update(ctx context.Context, actor authz.Subject, userID string, req domain.UpdateIdentityRequest) (*domain.Identity, error) {
	if actor.UserID == userID {
		return nil, fmt.Errorf("cannot change your own access: %w", domain.ErrForbidden)
	}
	ident, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	// Accounts ranked above the actor are only reachable with roles:write.
	if !authz.AtLeast(actor.Role, ident.Role) && s.gate.Authorize(actor, domain.PermRolesWrite) == authz.Deny {
		return nil, fmt.Errorf("cannot modify a %s account: %w", ident.Role.String(), domain.ErrForbidden)
	}

	if req.Role != nil {
		role := domain.ParseRole(*req.Role)
		if !role.Valid() {
			return nil, fmt.Errorf("unknown role %q: %w", *req.Role, domain.ErrBadRequest)
		}
		if role != ident.Role && s.gate.Authorize(actor, domain.PermRolesWrite) == authz.Deny {
			return nil, fmt.Errorf("changing roles requires %s: %w", domain.PermRolesWrite, domain.ErrForbidden)
		}
		ident.Role = role
	}
	if req.Permissions != nil {
		perms, err := s.grantable(actor, *req.Permissions)
		if err != nil {
			return nil, err
		}
		ident.Permissions = perms
	}
	if req.Enable != nil {
		ident.Enable = *req.Enable
	}
	if req.FirstName != nil {
		ident.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		ident.LastName = strings.TrimSpace(*req.LastName)
	}

	if err := s.repo.Update(ctx, ident); err != nil {
		return nil, err
	}
	return ident, nil
}

func (s *service) grantable(actor authz.Subject, requested []string) ([]string, error) {
	seen := make(map[string]bool, len(requested))
	perms := make([]string, 0, len(requested))
	for _, p := range requested {
		p = domain.NormalizePermission(p)
		if p == "" || seen[p] {
			continue
		}
		required := p
		if p == domain.PermAll {
			required = domain.PermRolesWrite
		}
		if s.gate.Authorize(actor, required) == authz.Deny {
			return nil, fmt.Errorf("cannot grant %q: %w", p, domain.ErrForbidden)
		}
		seen[p] = true
		perms = append(perms, p)
	}
	if len(perms) == 0 {
		return nil, nil
	}
	return perms, nil
}
