package smtp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/flightdesk-api/internal/config"
	"github.com/flightdesk-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingMailer struct {
	to, subject, body string
	err               error
}

func (m *recordingMailer) SendEmail(to, subject, body string) error {
	m.to, m.subject, m.body = to, subject, body
	return m.err
}

func TestLinkSender_ComposesEmail(t *testing.T) {
	rec := &recordingMailer{}
	s := NewLinkSender(rec)
	exp := time.Date(2026, 4, 2, 14, 30, 0, 0, time.UTC)

	err := s.SendLink(context.Background(), domain.LinkDelivery{
		Email: "pilot@school.aero", URL: "https://app.example/auth/verify?token=abc", ExpiresAt: exp,
	})
	require.NoError(t, err)
	assert.Equal(t, "pilot@school.aero", rec.to)
	assert.Equal(t, linkSubject, rec.subject)
	assert.Contains(t, rec.body, "https://app.example/auth/verify?token=abc")
	assert.Contains(t, rec.body, "2026-04-02 14:30")
}

func TestLinkSender_PropagatesFailure(t *testing.T) {
	s := NewLinkSender(&recordingMailer{err: errors.New("smtp down")})
	err := s.SendLink(context.Background(), domain.LinkDelivery{Email: "a@b.com"})
	assert.ErrorContains(t, err, "smtp down")
}

func TestMailer_RejectsHeaderInjection(t *testing.T) {
	m := NewMailer(&config.Config{SMTPHost: "localhost", SMTPPort: "1025", SMTPFrom: "noreply@x"})
	err := m.SendEmail("a@b.com\r\nBcc: evil@x", "hi", "body")
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}
