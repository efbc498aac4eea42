package models

import (
	"encoding/json"
	"time"
)

// OutboxStatus represents the status of an outbox message
type OutboxStatus string

const (
	OutboxStatusPending    OutboxStatus = "pending"
	OutboxStatusProcessing OutboxStatus = "processing"
	OutboxStatusCompleted  OutboxStatus = "completed"
	OutboxStatusFailed     OutboxStatus = "failed"
)

// Outbox aggregate types
const (
	AggregateOrder        = "order"
	AggregateNotification = "notification"
)

// Event types routed by the outbox processor. The order events go to
// Kafka; the email events go to the mail handler.
const (
	EventOrderCreated       = "order_created"
	EventOrderStatusChanged = "order_status_changed"

	EventEmailOrderConfirmation = "email_order_confirmation"
	EventEmailOrderOTP          = "email_order_otp"
	EventEmailOrderCancelled    = "email_order_cancelled"
	EventEmailUserVerification  = "email_user_verification"
	EventEmailPasswordReset     = "email_password_reset"
)

// OutboxMessage represents a message awaiting dispatch from the outbox table
type OutboxMessage struct {
	ID                 int64        `db:"id" json:"id"`
	AggregateType      string       `db:"aggregate_type" json:"aggregate_type"`
	AggregateID        string       `db:"aggregate_id" json:"aggregate_id"`
	EventType          string       `db:"event_type" json:"event_type"`
	Payload            []byte       `db:"payload" json:"payload"`
	CreatedAt          time.Time    `db:"created_at" json:"created_at"`
	ProcessedAt        *time.Time   `db:"processed_at" json:"processed_at,omitempty"`
	ProcessingAttempts int          `db:"processing_attempts" json:"processing_attempts"`
	LastError          *string      `db:"last_error" json:"last_error,omitempty"`
	Status             OutboxStatus `db:"status" json:"status"`
}

// OutboxMessageEvent is the envelope serialized into the payload column
type OutboxMessageEvent struct {
	EventType   string      `json:"event_type"`
	EventID     string      `json:"event_id"`
	AggregateID string      `json:"aggregate_id"`
	OccurredAt  time.Time   `json:"occurred_at"`
	Data        interface{} `json:"data"`
}

// EmailPayload carries everything a notification sender needs to render
// and address one transactional email.
type EmailPayload struct {
	To      string  `json:"to"`
	Name    string  `json:"name"`
	OrderID string  `json:"order_id,omitempty"`
	OTP     string  `json:"otp,omitempty"`
	Reason  string  `json:"reason,omitempty"`
	Total   float64 `json:"total,omitempty"`
}

func newOutboxMessage(aggregateType, aggregateID, eventType string, data interface{}) (*OutboxMessage, error) {
	event := OutboxMessageEvent{
		EventType:   eventType,
		EventID:     GenerateID("evt"),
		AggregateID: aggregateID,
		OccurredAt:  GetCurrentTime(),
		Data:        data,
	}

	payload, err := json.Marshal(event)

	if err != nil {
		return nil, err
	}

	return &OutboxMessage{
		AggregateType:      aggregateType,
		AggregateID:        aggregateID,
		EventType:          eventType,
		Payload:            payload,
		CreatedAt:          GetCurrentTime(),
		ProcessingAttempts: 0,
		Status:             OutboxStatusPending,
	}, nil
}

// NewOrderCreatedEvent builds the stream event for a freshly placed order
func NewOrderCreatedEvent(order *Order) (*OutboxMessage, error) {
	return newOutboxMessage(AggregateOrder, order.ID, EventOrderCreated, order)
}

// NewOrderStatusChangedEvent builds the stream event for a status transition
func NewOrderStatusChangedEvent(order *Order, oldStatus OrderStatus) (*OutboxMessage, error) {
	return newOutboxMessage(AggregateOrder, order.ID, EventOrderStatusChanged, map[string]interface{}{
		"order_id":   order.ID,
		"user_id":    order.UserID,
		"old_status": oldStatus,
		"new_status": order.Status,
	})
}

// NewEmailEvent builds a notification event of the given email type
func NewEmailEvent(eventType, aggregateID string, payload EmailPayload) (*OutboxMessage, error) {
	return newOutboxMessage(AggregateNotification, aggregateID, eventType, payload)
}
