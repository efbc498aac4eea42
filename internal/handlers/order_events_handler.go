package handlers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Shopify/sarama"

	"github.com/mohd-saif-1850/trophy-store-api/internal/models"
	"github.com/mohd-saif-1850/trophy-store-api/pkg/logger"
)

// OrderEventsHandler consumes the order stream and writes an audit log
// line per event. It is the in-process subscriber of the same topic
// external systems consume.
type OrderEventsHandler struct {
	logger logger.Logger
}

// NewOrderEventsHandler creates a handler for the order stream
func NewOrderEventsHandler(logger logger.Logger) *OrderEventsHandler {
	return &OrderEventsHandler{logger: logger}
}

// HandleMessage logs one consumed order event
func (h *OrderEventsHandler) HandleMessage(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var event models.OutboxMessageEvent

	if err := json.Unmarshal(msg.Value, &event); err != nil {
		h.logger.Error("Failed to decode order event",
			"error", err,
			"topic", msg.Topic,
			"partition", msg.Partition,
			"offset", msg.Offset,
		)
		return fmt.Errorf("decode order event: %w", err)
	}

	h.logger.Info("Order event received",
		"eventType", event.EventType,
		"eventID", event.EventID,
		"orderID", event.AggregateID,
		"occurredAt", event.OccurredAt,
		"partition", msg.Partition,
		"offset", msg.Offset,
	)

	return nil
}
