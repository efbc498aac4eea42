package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mohd-saif-1850/trophy-store-api/internal/mailer"
	"github.com/mohd-saif-1850/trophy-store-api/internal/models"
	"github.com/mohd-saif-1850/trophy-store-api/pkg/logger"
)

// emailEvent is the payload envelope with the notification data typed
type emailEvent struct {
	EventType   string              `json:"event_type"`
	EventID     string              `json:"event_id"`
	AggregateID string              `json:"aggregate_id"`
	OccurredAt  time.Time           `json:"occurred_at"`
	Data        models.EmailPayload `json:"data"`
}

// EmailHandler renders and sends notification messages from the outbox
type EmailHandler struct {
	sender mailer.Sender
	logger logger.Logger
}

// NewEmailHandler creates a new EmailHandler
func NewEmailHandler(sender mailer.Sender, logger logger.Logger) *EmailHandler {
	return &EmailHandler{
		sender: sender,
		logger: logger,
	}
}

// HandleMessage renders the email for the event and hands it to the
// mail transport.
func (h *EmailHandler) HandleMessage(ctx context.Context, message *models.OutboxMessage) error {
	var event emailEvent

	if err := json.Unmarshal(message.Payload, &event); err != nil {
		return fmt.Errorf("failed to unmarshal notification payload: %w", err)
	}

	if event.Data.To == "" {
		return fmt.Errorf("notification %d has no recipient", message.ID)
	}

	html, err := mailer.Render(message.EventType, event.Data)

	if err != nil {
		return fmt.Errorf("failed to render notification: %w", err)
	}

	subject := mailer.Subject(message.EventType, event.Data)

	if err := h.sender.Send(ctx, event.Data.To, subject, html); err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}

	h.logger.Info("Notification sent",
		"messageID", message.ID,
		"eventType", message.EventType,
		"to", event.Data.To)

	return nil
}
