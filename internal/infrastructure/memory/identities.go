package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/flightdesk-api/internal/domain"
)

// IdentityStore keeps identities in process memory, keyed by email. Intended
// for local development and tests.
type IdentityStore struct {
	mu      sync.RWMutex
	byEmail map[string]domain.Identity
}

func NewIdentityStore() *IdentityStore {
	return &IdentityStore{byEmail: make(map[string]domain.Identity)}
}

func (s *IdentityStore) GetByEmail(_ context.Context, email string) (*domain.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ident, ok := s.byEmail[email]
	if !ok {
		return nil, fmt.Errorf("identity %s: %w", email, domain.ErrNotFound)
	}
	return clone(ident), nil
}

func (s *IdentityStore) Get(_ context.Context, userID string) (*domain.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ident := range s.byEmail {
		if ident.UserID == userID {
			return clone(ident), nil
		}
	}
	return nil, fmt.Errorf("identity %s: %w", userID, domain.ErrNotFound)
}

// Create stores ident unless its email is already taken.
func (s *IdentityStore) Create(_ context.Context, ident *domain.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byEmail[ident.Email]; taken {
		return fmt.Errorf("identity %s: %w", ident.Email, domain.ErrConflict)
	}
	s.byEmail[ident.Email] = *clone(*ident)
	return nil
}

func (s *IdentityStore) Update(_ context.Context, ident *domain.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byEmail[ident.Email]; !ok {
		return fmt.Errorf("identity %s: %w", ident.UserID, domain.ErrNotFound)
	}
	s.byEmail[ident.Email] = *clone(*ident)
	return nil
}

// List pages through identities in email order. The cursor is the last email
// of the previous page.
func (s *IdentityStore) List(_ context.Context, limit int32, cursor string) ([]domain.Identity, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	emails := make([]string, 0, len(s.byEmail))
	for email := range s.byEmail {
		if email > cursor {
			emails = append(emails, email)
		}
	}
	sort.Strings(emails)

	next := ""
	if limit > 0 && len(emails) > int(limit) {
		emails = emails[:limit]
		next = emails[len(emails)-1]
	}
	out := make([]domain.Identity, 0, len(emails))
	for _, email := range emails {
		out = append(out, *clone(s.byEmail[email]))
	}
	return out, next, nil
}

func clone(ident domain.Identity) *domain.Identity {
	if ident.Permissions != nil {
		ident.Permissions = append([]string(nil), ident.Permissions...)
	}
	return &ident
}
