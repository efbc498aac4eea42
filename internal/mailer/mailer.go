package mailer

import (
	"context"
	"fmt"
	"time"

	"gopkg.in/gomail.v2"

	"github.com/mohd-saif-1850/trophy-store-api/internal/config"
	"github.com/mohd-saif-1850/trophy-store-api/pkg/circuitbreaker"
	"github.com/mohd-saif-1850/trophy-store-api/pkg/errors"
	"github.com/mohd-saif-1850/trophy-store-api/pkg/logger"
	"github.com/mohd-saif-1850/trophy-store-api/pkg/retry"
)

// sendTimeout bounds a single SMTP conversation so a slow provider can
// never hold up the notification pipeline.
const sendTimeout = 5 * time.Second

// Sender delivers one rendered email
type Sender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// SMTPMailer sends mail through an SMTP provider, guarded by a per-call
// timeout, retries with backoff, and a circuit breaker so a down
// provider fails fast instead of tying up the outbox processor.
type SMTPMailer struct {
	dialer      *gomail.Dialer
	from        string
	fromName    string
	breaker     *circuitbreaker.CircuitBreaker
	retryConfig *retry.RetryConfig
	logger      logger.Logger
}

// NewSMTPMailer creates a mailer for the configured SMTP transport
func NewSMTPMailer(cfg config.SMTPConfig, logger logger.Logger) *SMTPMailer {
	breaker := circuitbreaker.New(circuitbreaker.Config{
		FailureThreshold: 5,
		ResetTimeout:     30 * time.Second,
		HalfOpenMaxCalls: 2,
	})

	retryConfig := &retry.RetryConfig{
		MaxAttempts: 3,
		BackoffStrategy: &retry.ExponentialBackoff{
			InitialInterval: 500 * time.Millisecond,
			MaxInterval:     5 * time.Second,
			Multiplier:      1.5,
			JitterFactor:    0.2,
		},
		Logger: logger,
		RetryableErrors: []error{
			errors.ErrTimeout,
			errors.ErrTemporaryFailure,
			errors.ErrServiceUnavailable,
		},
	}

	return &SMTPMailer{
		dialer:      gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
		from:        cfg.From,
		fromName:    cfg.FromName,
		breaker:     breaker,
		retryConfig: retryConfig,
		logger:      logger,
	}
}

// Breaker exposes the circuit breaker for the admin status endpoint
func (m *SMTPMailer) Breaker() *circuitbreaker.CircuitBreaker {
	return m.breaker
}

// Send delivers one email, retrying transient failures
func (m *SMTPMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	sendFunc := func() error {
		if !m.breaker.Allow() {
			return errors.NewTemporaryError("mail transport circuit open")
		}

		err := m.sendOnce(ctx, to, subject, htmlBody)

		if err != nil {
			m.breaker.Failure()
			return err
		}

		m.breaker.Success()
		return nil
	}

	err := retry.Retry(ctx, sendFunc, m.retryConfig)

	if err != nil {
		m.logger.Error("Failed to send email after retries",
			"error", err,
			"to", to,
			"subject", subject)
		return err
	}

	return nil
}

// sendOnce runs one SMTP conversation under the send timeout. gomail has
// no context support, so the dial-and-send runs in a goroutine and the
// caller observes the deadline; an abandoned attempt finishes in the
// background and only costs its connection.
func (m *SMTPMailer) sendOnce(ctx context.Context, to, subject, htmlBody string) error {
	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", m.from, m.fromName)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	done := make(chan error, 1)

	go func() {
		done <- m.dialer.DialAndSend(msg)
	}()

	select {
	case err := <-done:
		if err != nil {
			return errors.NewTemporaryError(fmt.Sprintf("smtp send failed: %v", err))
		}
		return nil
	case <-ctx.Done():
		return errors.NewTimeoutError("smtp send timed out")
	}
}
