package email

import (
	"medimind_backend/internal/logger"
)

// Provider sends transactional mail. Services depend on this
// interface so tests can swap in the noop sender.
type Provider interface {
	Send(to, subject, body string) error
}

// NoopProvider logs instead of sending. Used when SMTP is not
// configured (local development and integration tests).
type NoopProvider struct{}

func (NoopProvider) Send(to, subject, body string) error {
	logger.GetLogger().Info("email suppressed (smtp not configured)",
		"to", to,
		"subject", subject,
	)
	return nil
}
