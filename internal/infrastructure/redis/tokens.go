package redisinfra

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/flightdesk-api/internal/domain"
	pkgtoken "github.com/flightdesk-api/internal/pkg/token"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix        = "magiclink:"
	maxIssueAttempts = 5
	// retention keeps expired entries around long enough for Redeem to report
	// them as expired rather than missing; Redis evicts them afterwards.
	retention = 24 * time.Hour
)

type record struct {
	Email     string `json:"email"`
	ExpiresAt int64  `json:"expires_at"` // Unix milliseconds
}

// TokenStore keeps pending magic-link tokens in Redis so every API instance
// sees the same set. Redemption uses GETDEL, which is atomic server-side.
type TokenStore struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenStore(client *redis.Client, ttl time.Duration) *TokenStore {
	return &TokenStore{client: client, ttl: ttl, now: time.Now}
}

// WithClock replaces the time source. Used by tests.
func (s *TokenStore) WithClock(now func() time.Time) *TokenStore {
	s.now = now
	return s
}

func (s *TokenStore) Issue(ctx context.Context, email string) (domain.PendingToken, error) {
	for i := 0; i < maxIssueAttempts; i++ {
		tok, err := pkgtoken.New()
		if err != nil {
			return domain.PendingToken{}, err
		}
		exp := s.now().Add(s.ttl)
		payload, err := json.Marshal(record{Email: email, ExpiresAt: exp.UnixMilli()})
		if err != nil {
			return domain.PendingToken{}, fmt.Errorf("marshal token record: %w", err)
		}
		ok, err := s.client.SetNX(ctx, keyPrefix+pkgtoken.Hash(tok), payload, s.ttl+retention).Result()
		if err != nil {
			return domain.PendingToken{}, fmt.Errorf("store token: %v: %w", err, domain.ErrUnavailable)
		}
		if !ok {
			continue
		}
		return domain.PendingToken{Token: tok, Email: email, ExpiresAt: exp}, nil
	}
	return domain.PendingToken{}, errors.New("could not allocate a unique token")
}

func (s *TokenStore) Redeem(ctx context.Context, tok string) (string, error) {
	raw, err := s.client.GetDel(ctx, keyPrefix+pkgtoken.Hash(tok)).Bytes()
	if errors.Is(err, redis.Nil) {
		return "", domain.ErrTokenNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redeem token: %v: %w", err, domain.ErrUnavailable)
	}
	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return "", fmt.Errorf("decode token record: %w", err)
	}
	if s.now().After(time.UnixMilli(rec.ExpiresAt)) {
		return "", domain.ErrTokenExpired
	}
	return rec.Email, nil
}
