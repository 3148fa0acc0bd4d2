package domain

import "time"

// Identity is the account record resolved from an email address.
type Identity struct {
	UserID         string    `json:"id" dynamodbav:"user_id" yaml:"id"`
	Email          string    `json:"email" dynamodbav:"email" yaml:"email"`
	Role           Role      `json:"role" dynamodbav:"role" yaml:"role"`
	Permissions    []string  `json:"permissions" dynamodbav:"permissions,stringset,omitempty" yaml:"permissions"`
	FirstName      string    `json:"first_name" dynamodbav:"first_name" yaml:"first_name"`
	LastName       string    `json:"last_name" dynamodbav:"last_name" yaml:"last_name"`
	Verified       bool      `json:"verified" dynamodbav:"verified" yaml:"verified"`
	EmailConfirmed bool      `json:"email_confirmed" dynamodbav:"email_confirmed" yaml:"email_confirmed"`
	Enable         bool      `json:"enable" dynamodbav:"enable" yaml:"enable"`
	FlightHours    float64   `json:"flight_hours" dynamodbav:"flight_hours" yaml:"flight_hours"`
	CreditedHours  float64   `json:"credited_hours" dynamodbav:"credited_hours" yaml:"credited_hours"`
	CreatedAt      time.Time `json:"created" dynamodbav:"created_at" yaml:"-"`
	UpdatedAt      time.Time `json:"updated" dynamodbav:"updated_at" yaml:"-"`
}

// HasExplicitPermission reports whether p was granted to the identity directly,
// independent of its role.
func (i *Identity) HasExplicitPermission(p string) bool {
	p = NormalizePermission(p)
	for _, have := range i.Permissions {
		if NormalizePermission(have) == p {
			return true
		}
	}
	return false
}

// UpdateIdentityRequest is the admin payload for changing a user's access.
type UpdateIdentityRequest struct {
	Role        *string   `json:"role"`
	Permissions *[]string `json:"permissions"`
	Enable      *bool     `json:"enable"`
	FirstName   *string   `json:"first_name"`
	LastName    *string   `json:"last_name"`
}
