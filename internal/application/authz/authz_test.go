package authz

import (
	"testing"

	"github.com/flightdesk-api/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestAtLeast(t *testing.T) {
	assert.False(t, AtLeast(domain.RoleInstructor, domain.RoleAdmin))
	assert.True(t, AtLeast(domain.RoleAdmin, domain.RoleAdmin))
	assert.True(t, AtLeast(domain.RoleSuperAdmin, domain.RoleUser))
	assert.False(t, AtLeast(domain.RoleUnknown, domain.RoleUser))
	assert.False(t, AtLeast(domain.Role("pilot"), domain.RoleUser))
	assert.False(t, AtLeast(domain.RoleAdmin, domain.RoleUnknown))
}

func TestAuthorize_HierarchyMode(t *testing.T) {
	assert.Equal(t, Deny, Authorize(NewSubject("u", "instructor", nil), "admin"))
	assert.Equal(t, Allow, Authorize(NewSubject("u", "admin", nil), "instructor"))
	assert.Equal(t, Allow, Authorize(NewSubject("u", "base_manager", nil), "base_manager"))
}

func TestAuthorize_SuperAdminAlwaysAllowed(t *testing.T) {
	for _, role := range []string{"superadmin", "super_admin"} {
		s := NewSubject("u", role, nil)
		for _, req := range []string{"admin", "super_admin", "roles:write", "anything:at-all", ""} {
			assert.Equal(t, Allow, Authorize(s, req), "%s -> %s", role, req)
		}
	}
}

func TestAuthorize_CapabilityMode(t *testing.T) {
	admin := NewSubject("u", "admin", nil)
	assert.Equal(t, Allow, Authorize(admin, "users:write"))
	assert.Equal(t, Deny, Authorize(admin, "roles:write"))

	user := NewSubject("u", "user", nil)
	assert.Equal(t, Allow, Authorize(user, "aircraft:read"))
	assert.Equal(t, Deny, Authorize(user, "aircraft:write"))
	assert.Equal(t, Allow, Authorize(user, "  Aircraft:Read "), "normalised")
}

func TestAuthorize_ExplicitPermission(t *testing.T) {
	s := NewSubject("u", "instructor", []string{"invoices:read"})
	assert.Equal(t, Allow, Authorize(s, "invoices:read"))
	assert.Equal(t, Deny, Authorize(s, "invoices:write"))
}

func TestAuthorize_UnknownRoleFailsClosed(t *testing.T) {
	s := NewSubject("u", "pilot", []string{"bases:read"})
	assert.Equal(t, domain.RoleUnknown, s.Role)
	for _, req := range []string{"user", "admin", "profile:read", "bases:read"} {
		assert.Equal(t, Deny, Authorize(s, req), req)
	}

	wild := NewSubject("u", "", []string{"*"})
	assert.Equal(t, Allow, Authorize(wild, "bases:write"), "explicit wildcard")
	assert.Equal(t, Deny, Authorize(wild, "user"), "wildcard permission does not grant rank")
}

func TestGate(t *testing.T) {
	s := NewSubject("u", "user", nil)
	assert.Equal(t, Deny, Gate{}.Authorize(s, "admin"))
	assert.Equal(t, Allow, Gate{BypassAuth: true}.Authorize(s, "admin"))
	assert.Equal(t, Allow, Gate{BypassAuth: true}.Authorize(Subject{}, "roles:write"))
}

func TestSubjectOf(t *testing.T) {
	s := SubjectOf(&domain.Identity{UserID: "01A", Role: "superadmin", Permissions: []string{"x"}})
	assert.Equal(t, "01A", s.UserID)
	assert.Equal(t, domain.RoleSuperAdmin, s.Role)
	assert.Equal(t, "allow", Allow.String())
	assert.Equal(t, "deny", Deny.String())
}
