package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/flightdesk-api/internal/domain"
	"github.com/flightdesk-api/internal/infrastructure/google"
)

// LinkResult is returned to the caller of RequestLink. Token is only set when
// the service runs with ExposeToken (development).
type LinkResult struct {
	Token     string
	ExpiresAt time.Time
}

// Session is a signed credential together with the identity it was issued for.
type Session struct {
	AccessToken string
	ExpiresAt   time.Time
	Identity    *domain.Identity
}

type Service interface {
	RequestLink(ctx context.Context, email string) (*LinkResult, error)
	VerifyLink(ctx context.Context, token string) (*Session, error)
	SignInWithGoogle(ctx context.Context, idToken string) (*Session, error)
	Profile(ctx context.Context, email string) (*domain.Identity, error)
}

type identityResolver interface {
	Resolve(ctx context.Context, email string) (*domain.Identity, error)
}

type credentialSigner interface {
	Sign(ident *domain.Identity) (string, time.Time, error)
}

type linkSender interface {
	SendLink(ctx context.Context, d domain.LinkDelivery) error
}

type googleVerifier interface {
	Verify(ctx context.Context, idToken string) (*google.Payload, error)
}

// Metrics receives magic-link lifecycle events.
type Metrics interface {
	LinkIssued()
	LinkRedeemed()
	LinkRejected(reason string)
}

type noopMetrics struct{}

func (noopMetrics) LinkIssued()         {}
func (noopMetrics) LinkRedeemed()       {}
func (noopMetrics) LinkRejected(string) {}

// Rejection reasons reported to Metrics.
const (
	ReasonNotFound = "not_found"
	ReasonExpired  = "expired"
	ReasonDisabled = "disabled"
)

type service struct {
	tokens      domain.TokenStore
	resolver    identityResolver
	signer      credentialSigner
	sender      linkSender
	google      googleVerifier
	metrics     Metrics
	baseURL     string
	exposeToken bool
}

type ServiceDeps struct {
	Tokens   domain.TokenStore
	Resolver identityResolver
	Signer   credentialSigner
	// Sender may be nil, in which case links are only logged at debug level.
	Sender linkSender
	// Google may be nil when Google sign-in is not configured.
	Google      googleVerifier
	Metrics     Metrics
	BaseURL     string
	ExposeToken bool
}

func NewService(deps ServiceDeps) Service {
	m := deps.Metrics
	if m == nil {
		m = noopMetrics{}
	}
	return &service{
		tokens:      deps.Tokens,
		resolver:    deps.Resolver,
		signer:      deps.Signer,
		sender:      deps.Sender,
		google:      deps.Google,
		metrics:     m,
		baseURL:     deps.BaseURL,
		exposeToken: deps.ExposeToken,
	}
}

func (s *service) RequestLink(ctx context.Context, email string) (*LinkResult, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, fmt.Errorf("email is required: %w", domain.ErrBadRequest)
	}
	pt, err := s.tokens.Issue(ctx, email)
	if err != nil {
		return nil, err
	}
	s.metrics.LinkIssued()

	link, err := buildLink(s.baseURL, pt.Token)
	if err != nil {
		return nil, err
	}
	if s.sender == nil {
		slog.Debug("magic link delivery disabled", "email", email)
	} else if err := s.sender.SendLink(ctx, domain.LinkDelivery{Email: email, URL: link, ExpiresAt: pt.ExpiresAt}); err != nil {
		slog.Warn("magic link delivery failed", "email", email, "err", err)
		return nil, fmt.Errorf("deliver magic link: %w", domain.ErrUnavailable)
	}

	res := &LinkResult{ExpiresAt: pt.ExpiresAt}
	if s.exposeToken {
		res.Token = pt.Token
	}
	return res, nil
}

func (s *service) VerifyLink(ctx context.Context, token string) (*Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, fmt.Errorf("token is required: %w", domain.ErrBadRequest)
	}
	email, err := s.tokens.Redeem(ctx, token)
	switch {
	case errors.Is(err, domain.ErrTokenExpired):
		s.metrics.LinkRejected(ReasonExpired)
		return nil, fmt.Errorf("invalid or expired link: %w", domain.ErrUnauthorized)
	case errors.Is(err, domain.ErrTokenNotFound):
		s.metrics.LinkRejected(ReasonNotFound)
		return nil, fmt.Errorf("invalid or expired link: %w", domain.ErrUnauthorized)
	case err != nil:
		return nil, err
	}

	sess, err := s.issueSession(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrForbidden) {
			s.metrics.LinkRejected(ReasonDisabled)
		}
		return nil, err
	}
	s.metrics.LinkRedeemed()
	return sess, nil
}

func (s *service) SignInWithGoogle(ctx context.Context, idToken string) (*Session, error) {
	if s.google == nil {
		return nil, fmt.Errorf("google sign-in is not configured: %w", domain.ErrNotFound)
	}
	if strings.TrimSpace(idToken) == "" {
		return nil, fmt.Errorf("id_token is required: %w", domain.ErrBadRequest)
	}
	p, err := s.google.Verify(ctx, idToken)
	if err != nil {
		return nil, err
	}
	return s.issueSession(ctx, p.Email)
}

// Profile re-resolves the identity so role changes show up before the
// credential expires.
func (s *service) Profile(ctx context.Context, email string) (*domain.Identity, error) {
	if email == "" {
		return nil, fmt.Errorf("credential carries no email: %w", domain.ErrUnauthorized)
	}
	ident, err := s.resolver.Resolve(ctx, email)
	if err != nil {
		return nil, err
	}
	if !ident.Enable {
		return nil, fmt.Errorf("account disabled: %w", domain.ErrForbidden)
	}
	return ident, nil
}

func (s *service) issueSession(ctx context.Context, email string) (*Session, error) {
	ident, err := s.resolver.Resolve(ctx, email)
	if err != nil {
		return nil, err
	}
	if !ident.Enable {
		return nil, fmt.Errorf("account disabled: %w", domain.ErrForbidden)
	}
	tok, exp, err := s.signer.Sign(ident)
	if err != nil {
		return nil, err
	}
	return &Session{AccessToken: tok, ExpiresAt: exp, Identity: ident}, nil
}

func buildLink(base, token string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse magic link base URL: %w", err)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
