package seed

import (
	"fmt"
	"os"
	"time"

	"github.com/flightdesk-api/internal/domain"
	"gopkg.in/yaml.v3"
)

type file struct {
	Identities []domain.Identity `yaml:"identities"`
}

// presence records which optional keys each entry actually set.
type presence struct {
	Identities []struct {
		Enable *bool `yaml:"enable"`
	} `yaml:"identities"`
}

// Table is a fixed set of identities that take precedence over the persisted
// store. It is read once at startup and never written.
type Table struct {
	byEmail map[string]domain.Identity
}

// Load reads a YAML seed file. An empty path yields an empty table.
func Load(path string) (*Table, error) {
	if path == "" {
		return &Table{byEmail: map[string]domain.Identity{}}, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed identities: %w", err)
	}
	return Parse(raw)
}

// Parse builds a Table from YAML. Every entry needs an id and an email, and its
// role must be a known role name. An entry without an enable key is enabled.
func Parse(raw []byte) (*Table, error) {
	var f file
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse seed identities: %w", err)
	}
	var set presence
	if err := yaml.Unmarshal(raw, &set); err != nil {
		return nil, fmt.Errorf("parse seed identities: %w", err)
	}
	t := &Table{byEmail: make(map[string]domain.Identity, len(f.Identities))}
	now := time.Now().UTC()
	for i, ident := range f.Identities {
		if ident.Email == "" || ident.UserID == "" {
			return nil, fmt.Errorf("seed identity #%d: id and email are required", i)
		}
		role := domain.ParseRole(string(ident.Role))
		if !role.Valid() {
			return nil, fmt.Errorf("seed identity %s: unknown role %q", ident.Email, ident.Role)
		}
		if _, dup := t.byEmail[ident.Email]; dup {
			return nil, fmt.Errorf("seed identity %s: duplicate email", ident.Email)
		}
		ident.Role = role
		// Seeded accounts are enabled unless the entry says otherwise.
		if set.Identities[i].Enable == nil {
			ident.Enable = true
		}
		ident.CreatedAt, ident.UpdatedAt = now, now
		t.byEmail[ident.Email] = ident
	}
	return t, nil
}

// Lookup returns a copy of the seeded identity for email.
func (t *Table) Lookup(email string) (*domain.Identity, bool) {
	ident, ok := t.byEmail[email]
	if !ok {
		return nil, false
	}
	ident.Permissions = append([]string(nil), ident.Permissions...)
	return &ident, true
}

func (t *Table) Len() int { return len(t.byEmail) }
