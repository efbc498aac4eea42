package outbox

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohd-saif-1850/trophy-store-api/internal/models"
	"github.com/mohd-saif-1850/trophy-store-api/pkg/logger"
)

type recordingSender struct {
	to      []string
	subject []string
	body    []string
	err     error
}

func (r *recordingSender) Send(ctx context.Context, to, subject, htmlBody string) error {
	if r.err != nil {
		return r.err
	}
	r.to = append(r.to, to)
	r.subject = append(r.subject, subject)
	r.body = append(r.body, htmlBody)
	return nil
}

func emailOutboxMessage(t *testing.T, eventType string, payload models.EmailPayload) *models.OutboxMessage {
	t.Helper()

	msg, err := models.NewEmailEvent(eventType, "ord-1a2b3c4d", payload)
	require.NoError(t, err)
	msg.ID = 1

	return msg
}

func TestEmailHandlerSendsRenderedMail(t *testing.T) {
	sender := &recordingSender{}
	h := NewEmailHandler(sender, logger.NewNopLogger())

	msg := emailOutboxMessage(t, models.EventEmailOrderOTP, models.EmailPayload{
		To:      "anas@example.com",
		Name:    "Anas",
		OrderID: "ord-1a2b3c4d",
		OTP:     "482913",
	})

	require.NoError(t, h.HandleMessage(context.Background(), msg))

	require.Len(t, sender.to, 1)
	assert.Equal(t, "anas@example.com", sender.to[0])
	assert.Contains(t, sender.subject[0], "ord-1a2b3c4d")
	assert.Contains(t, sender.body[0], "482913")
}

func TestEmailHandlerRejectsMissingRecipient(t *testing.T) {
	sender := &recordingSender{}
	h := NewEmailHandler(sender, logger.NewNopLogger())

	msg := emailOutboxMessage(t, models.EventEmailOrderOTP, models.EmailPayload{
		Name: "Anas",
		OTP:  "482913",
	})

	assert.Error(t, h.HandleMessage(context.Background(), msg))
	assert.Empty(t, sender.to)
}

func TestEmailHandlerRejectsBadPayload(t *testing.T) {
	sender := &recordingSender{}
	h := NewEmailHandler(sender, logger.NewNopLogger())

	msg := &models.OutboxMessage{
		ID:        7,
		EventType: models.EventEmailOrderOTP,
		Payload:   json.RawMessage(`{not json`),
	}

	assert.Error(t, h.HandleMessage(context.Background(), msg))
}

func TestEmailHandlerPropagatesSendFailure(t *testing.T) {
	sender := &recordingSender{err: assert.AnError}
	h := NewEmailHandler(sender, logger.NewNopLogger())

	msg := emailOutboxMessage(t, models.EventEmailUserVerification, models.EmailPayload{
		To:   "anas@example.com",
		Name: "Anas",
		OTP:  "123456",
	})

	assert.ErrorIs(t, h.HandleMessage(context.Background(), msg), assert.AnError)
}
