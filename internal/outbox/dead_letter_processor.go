package outbox

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mohd-saif-1850/trophy-store-api/internal/models"
	"github.com/mohd-saif-1850/trophy-store-api/pkg/logger"
)

// DeadLetterQueue is the slice of the dead letter repository the
// processor needs.
type DeadLetterQueue interface {
	GetPending(ctx context.Context, limit int) ([]*models.DeadLetterMessage, error)
	MarkRetrying(ctx context.Context, id int64) error
	MarkPending(ctx context.Context, id int64, errorMessage string) error
	MarkResolved(ctx context.Context, id int64) error
	MarkDiscarded(ctx context.Context, id int64) error
}

// DeadLetterProcessor retries dead-lettered messages on a slower cadence
// than the outbox processor, and eventually gives up on them.
type DeadLetterProcessor struct {
	queue           DeadLetterQueue
	handlers        map[string]MessageHandler
	pollingInterval time.Duration
	batchSize       int
	maxRetries      int
	logger          logger.Logger
	ctx             context.Context
	cancel          context.CancelFunc
	wg              sync.WaitGroup
	running         bool
	mu              sync.Mutex
}

// DeadLetterProcessorConfig holds the configuration for the DeadLetterProcessor
type DeadLetterProcessorConfig struct {
	PollingInterval time.Duration
	BatchSize       int
	MaxRetries      int
}

// NewDeadLetterProcessor creates a new DeadLetterProcessor
func NewDeadLetterProcessor(queue DeadLetterQueue, config DeadLetterProcessorConfig, logger logger.Logger) *DeadLetterProcessor {
	ctx, cancel := context.WithCancel(context.Background())

	return &DeadLetterProcessor{
		queue:           queue,
		handlers:        make(map[string]MessageHandler),
		pollingInterval: config.PollingInterval,
		batchSize:       config.BatchSize,
		maxRetries:      config.MaxRetries,
		logger:          logger,
		ctx:             ctx,
		cancel:          cancel,
	}
}

// RegisterHandler registers a message handler for a specific event type
func (p *DeadLetterProcessor) RegisterHandler(eventType string, handler MessageHandler) {
	p.handlers[eventType] = handler
}

// Start starts the dead letter processor
func (p *DeadLetterProcessor) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return
	}

	p.running = true
	p.wg.Add(1)

	go func() {
		defer p.wg.Done()
		p.loop()
	}()

	p.logger.Info("Dead letter processor started",
		"pollingInterval", p.pollingInterval,
		"batchSize", p.batchSize)
}

// Stop stops the dead letter processor
func (p *DeadLetterProcessor) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}

	p.cancel()
	p.wg.Wait()
	p.running = false

	p.logger.Info("Dead letter processor stopped")
}

func (p *DeadLetterProcessor) loop() {
	ticker := time.NewTicker(p.pollingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			if err := p.ProcessBatch(p.ctx); err != nil {
				p.logger.Error("Failed to process dead letter batch", "error", err)
			}
		}
	}
}

// ProcessBatch retries one batch of pending dead letter messages
func (p *DeadLetterProcessor) ProcessBatch(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, p.pollingInterval)
	defer cancel()

	messages, err := p.queue.GetPending(ctx, p.batchSize)

	if err != nil {
		return fmt.Errorf("failed to get pending dead letters: %w", err)
	}

	for _, msg := range messages {
		if err := p.Redeliver(ctx, msg); err != nil {
			p.logger.Warn("Dead letter redelivery failed",
				"error", err,
				"messageID", msg.ID,
				"eventType", msg.EventType)
		}
	}

	return nil
}

// Redeliver attempts one redelivery of a dead letter message. It is
// also invoked directly by the admin retry endpoint.
func (p *DeadLetterProcessor) Redeliver(ctx context.Context, msg *models.DeadLetterMessage) error {
	handler, exists := p.handlers[msg.EventType]

	if !exists {
		if err := p.queue.MarkDiscarded(ctx, msg.ID); err != nil {
			p.logger.Error("Failed to discard dead letter", "error", err, "messageID", msg.ID)
		}
		return fmt.Errorf("no handler registered for event type: %s", msg.EventType)
	}

	if err := p.queue.MarkRetrying(ctx, msg.ID); err != nil {
		return fmt.Errorf("failed to mark dead letter as retrying: %w", err)
	}
	msg.RetryCount++

	outboxMsg := &models.OutboxMessage{
		ID:            msg.OriginalMessageID,
		AggregateType: msg.AggregateType,
		AggregateID:   msg.AggregateID,
		EventType:     msg.EventType,
		Payload:       msg.Payload,
	}

	err := handler.HandleMessage(ctx, outboxMsg)

	if err != nil {
		if msg.RetryCount >= p.maxRetries {
			p.logger.Error("Dead letter exhausted retries, discarding",
				"messageID", msg.ID,
				"retries", msg.RetryCount)

			if markErr := p.queue.MarkDiscarded(ctx, msg.ID); markErr != nil {
				p.logger.Error("Failed to discard dead letter", "error", markErr, "messageID", msg.ID)
			}
			return err
		}

		if markErr := p.queue.MarkPending(ctx, msg.ID, err.Error()); markErr != nil {
			p.logger.Error("Failed to requeue dead letter", "error", markErr, "messageID", msg.ID)
		}
		return err
	}

	if err := p.queue.MarkResolved(ctx, msg.ID); err != nil {
		p.logger.Error("Failed to mark dead letter as resolved", "error", err, "messageID", msg.ID)
		return err
	}

	p.logger.Info("Dead letter redelivered",
		"messageID", msg.ID,
		"eventType", msg.EventType)

	return nil
}
