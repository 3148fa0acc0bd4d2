package google

import (
	"context"
	"fmt"

	"github.com/flightdesk-api/internal/domain"
	"google.golang.org/api/idtoken"
)

// Payload holds the verified claims extracted from a Google ID token.
type Payload struct {
	Sub       string
	Email     string
	FirstName string
	LastName  string
}

type validateFunc func(ctx context.Context, token, audience string) (*idtoken.Payload, error)

// Verifier verifies Google ID tokens against a specific client ID.
type Verifier struct {
	clientID string
	validate validateFunc
}

func NewVerifier(clientID string) *Verifier {
	return &Verifier{clientID: clientID, validate: idtoken.Validate}
}

// Verify validates the Google ID token and returns the extracted payload.
// Tokens whose email Google has not verified are rejected, since the email is
// what the identity is resolved from. Failures wrap domain.ErrUnauthorized.
func (v *Verifier) Verify(ctx context.Context, token string) (*Payload, error) {
	p, err := v.validate(ctx, token, v.clientID)
	if err != nil {
		return nil, fmt.Errorf("invalid google token: %w", domain.ErrUnauthorized)
	}
	email, _ := p.Claims["email"].(string)
	emailVerified, _ := p.Claims["email_verified"].(bool)
	if email == "" || !emailVerified {
		return nil, fmt.Errorf("google account email not verified: %w", domain.ErrUnauthorized)
	}
	firstName, _ := p.Claims["given_name"].(string)
	lastName, _ := p.Claims["family_name"].(string)
	return &Payload{
		Sub:       p.Subject,
		Email:     email,
		FirstName: firstName,
		LastName:  lastName,
	}, nil
}
