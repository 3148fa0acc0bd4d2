// Package authz decides whether a subject may perform an action. Every
// function here is pure: no I/O, no clock, no environment.
package authz

import "github.com/flightdesk-api/internal/domain"

// Decision is the outcome of an authorization check.
type Decision bool

const (
	Deny  Decision = false
	Allow Decision = true
)

func (d Decision) String() string {
	if d {
		return "allow"
	}
	return "deny"
}

// Subject is who a check is made for.
type Subject struct {
	UserID      string
	Role        domain.Role
	Permissions []string
}

// NewSubject builds a Subject from raw credential values. Role names are
// parsed, so unrecognised roles become domain.RoleUnknown.
func NewSubject(userID, role string, perms []string) Subject {
	return Subject{UserID: userID, Role: domain.ParseRole(role), Permissions: perms}
}

func SubjectOf(ident *domain.Identity) Subject {
	return NewSubject(ident.UserID, string(ident.Role), ident.Permissions)
}

// AtLeast reports whether role ranks at or above required. Unknown roles on
// either side never satisfy the check.
func AtLeast(role, required domain.Role) bool {
	have, ok := role.Rank()
	if !ok {
		return false
	}
	need, ok := required.Rank()
	if !ok {
		return false
	}
	return have >= need
}

// HasPermission reports whether s holds perm, either granted explicitly or
// through the default capabilities of its role.
func HasPermission(s Subject, perm string) bool {
	if s.Role == domain.RoleSuperAdmin {
		return true
	}
	perm = domain.NormalizePermission(perm)
	if perm == "" {
		return false
	}
	explicitAll := false
	explicit := false
	for _, p := range s.Permissions {
		switch domain.NormalizePermission(p) {
		case domain.PermAll:
			explicitAll = true
		case perm:
			explicit = true
		}
	}
	if explicitAll {
		return true
	}
	if !s.Role.Valid() {
		return false
	}
	if explicit {
		return true
	}
	for _, p := range domain.DefaultCapabilities(s.Role) {
		if p == perm {
			return true
		}
	}
	return false
}

// Authorize checks s against required, which is either a role name
// (hierarchy mode) or a capability string (capability mode).
func Authorize(s Subject, required string) Decision {
	if s.Role == domain.RoleSuperAdmin {
		return Allow
	}
	if r := domain.ParseRole(required); r.Valid() {
		return Decision(AtLeast(s.Role, r))
	}
	return Decision(HasPermission(s, required))
}

// Gate applies Authorize with startup configuration.
type Gate struct {
	// BypassAuth allows every check. Configuration refuses it in production.
	BypassAuth bool
}

func (g Gate) Authorize(s Subject, required string) Decision {
	if g.BypassAuth {
		return Allow
	}
	return Authorize(s, required)
}
