package domain

import (
	"context"
	"time"
)

// PendingToken is a magic-link token waiting to be redeemed.
type PendingToken struct {
	Token     string
	Email     string
	ExpiresAt time.Time
}

// TokenStore issues single-use tokens and redeems them at most once.
// Redeem removes the entry on every attempt, successful or not.
type TokenStore interface {
	Issue(ctx context.Context, email string) (PendingToken, error)
	Redeem(ctx context.Context, token string) (string, error)
}

// LinkDelivery is what a delivery channel needs to send a magic link.
type LinkDelivery struct {
	Email     string
	URL       string
	ExpiresAt time.Time
}
