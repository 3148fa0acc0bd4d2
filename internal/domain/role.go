package domain

import "strings"

// Role is the closed set of account roles, ordered by privilege.
type Role string

const (
	RoleUnknown     Role = ""
	RoleUser        Role = "user"
	RoleInstructor  Role = "instructor"
	RoleBaseManager Role = "base_manager"
	RoleAdmin       Role = "admin"
	RoleSuperAdmin  Role = "super_admin"
)

// roleRank is the role hierarchy. Anything missing from it ranks below RoleUser.
var roleRank = map[Role]int{
	RoleUser:        0,
	RoleInstructor:  1,
	RoleBaseManager: 2,
	RoleAdmin:       3,
	RoleSuperAdmin:  4,
}

// ParseRole maps a stored or transmitted role name onto the enum.
// "superadmin" is accepted as an alias. Unrecognised names yield RoleUnknown.
func ParseRole(s string) Role {
	r := Role(s)
	if _, ok := roleRank[r]; ok {
		return r
	}
	if s == "superadmin" {
		return RoleSuperAdmin
	}
	return RoleUnknown
}

// Rank returns the position of r in the hierarchy and false for unknown roles.
func (r Role) Rank() (int, bool) {
	n, ok := roleRank[r]
	return n, ok
}

func (r Role) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

func (r Role) String() string {
	if r == RoleUnknown {
		return "unknown"
	}
	return string(r)
}

// Roles lists every known role from least to most privileged.
func Roles() []Role {
	return []Role{RoleUser, RoleInstructor, RoleBaseManager, RoleAdmin, RoleSuperAdmin}
}

// Capability strings checked by the permission gate.
const (
	PermProfileRead   = "profile:read"
	PermBasesRead     = "bases:read"
	PermBasesWrite    = "bases:write"
	PermAircraftRead  = "aircraft:read"
	PermAircraftWrite = "aircraft:write"
	PermServicesRead  = "services:read"
	PermServicesWrite = "services:write"
	PermFlightsRead   = "flights:read"
	PermFlightsWrite  = "flights:write"
	PermStudentsRead  = "students:read"
	PermInvoicesRead  = "invoices:read"
	PermInvoicesWrite = "invoices:write"
	PermUsersRead     = "users:read"
	PermUsersWrite    = "users:write"
	PermFilesWrite    = "files:write"
	PermRolesWrite    = "roles:write"
	PermAll           = "*"
)

// roleCapabilities holds the capabilities each role adds on top of the role below it.
var roleCapabilities = map[Role][]string{
	RoleUser: {
		PermProfileRead, PermBasesRead, PermAircraftRead, PermServicesRead, PermFlightsRead,
	},
	RoleInstructor: {
		PermFlightsWrite, PermStudentsRead,
	},
	RoleBaseManager: {
		PermBasesWrite, PermAircraftWrite, PermServicesWrite, PermInvoicesRead, PermUsersRead, PermFilesWrite,
	},
	RoleAdmin: {
		PermUsersWrite, PermInvoicesWrite,
	},
	RoleSuperAdmin: {
		PermAll,
	},
}

// DefaultCapabilities returns the cumulative capability set granted to r by the
// static table. Unknown roles get nothing.
func DefaultCapabilities(r Role) []string {
	rank, ok := r.Rank()
	if !ok {
		return nil
	}
	var caps []string
	for _, lower := range Roles()[:rank+1] {
		caps = append(caps, roleCapabilities[lower]...)
	}
	return caps
}

// NormalizePermission trims and lowercases a capability string.
func NormalizePermission(p string) string {
	return strings.ToLower(strings.TrimSpace(p))
}
