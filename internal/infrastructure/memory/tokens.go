package memory

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/flightdesk-api/internal/domain"
	pkgtoken "github.com/flightdesk-api/internal/pkg/token"
)

const maxIssueAttempts = 5

type entry struct {
	email     string
	expiresAt time.Time
}

// TokenStore keeps pending magic-link tokens in process memory. It is only
// correct for a single instance; shared deployments use the Redis or DynamoDB store.
type TokenStore struct {
	mu      sync.Mutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time
}

func NewTokenStore(ttl time.Duration) *TokenStore {
	return &TokenStore{entries: make(map[string]entry), ttl: ttl, now: time.Now}
}

// WithClock replaces the time source. Used by tests.
func (s *TokenStore) WithClock(now func() time.Time) *TokenStore {
	s.now = now
	return s
}

func (s *TokenStore) Issue(_ context.Context, email string) (domain.PendingToken, error) {
	for i := 0; i < maxIssueAttempts; i++ {
		tok, err := pkgtoken.New()
		if err != nil {
			return domain.PendingToken{}, err
		}
		key := pkgtoken.Hash(tok)

		s.mu.Lock()
		if _, taken := s.entries[key]; taken {
			s.mu.Unlock()
			continue
		}
		exp := s.now().Add(s.ttl)
		s.entries[key] = entry{email: email, expiresAt: exp}
		s.mu.Unlock()
		return domain.PendingToken{Token: tok, Email: email, ExpiresAt: exp}, nil
	}
	return domain.PendingToken{}, errors.New("could not allocate a unique token")
}

func (s *TokenStore) Redeem(_ context.Context, tok string) (string, error) {
	key := pkgtoken.Hash(tok)

	s.mu.Lock()
	e, ok := s.entries[key]
	delete(s.entries, key)
	s.mu.Unlock()

	if !ok {
		return "", domain.ErrTokenNotFound
	}
	if s.now().After(e.expiresAt) {
		return "", domain.ErrTokenExpired
	}
	return e.email, nil
}

// Sweep drops expired entries and returns how many were removed.
func (s *TokenStore) Sweep() int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, k)
			n++
		}
	}
	return n
}

// Len returns the number of pending entries.
func (s *TokenStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// RunSweeper calls Sweep every interval until ctx is cancelled.
func (s *TokenStore) RunSweeper(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := s.Sweep(); n > 0 {
				slog.Debug("swept expired magic-link tokens", "count", n)
			}
		}
	}
}
