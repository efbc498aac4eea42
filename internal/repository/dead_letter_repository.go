package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mohd-saif-1850/trophy-store-api/internal/database"
	"github.com/mohd-saif-1850/trophy-store-api/internal/models"
	"github.com/mohd-saif-1850/trophy-store-api/pkg/logger"
)

const deadLetterColumns = `
	id, original_message_id, aggregate_type, aggregate_id, event_type, payload,
	error_message, failure_reason, retry_count, last_retry_at, status, created_at, resolved_at
`

// DeadLetterRepository handles database operations for dead letter messages
type DeadLetterRepository struct {
	db     *database.Database
	logger logger.Logger
}

// NewDeadLetterRepository creates a new DeadLetterRepository
func NewDeadLetterRepository(db *database.Database, logger logger.Logger) *DeadLetterRepository {
	return &DeadLetterRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new dead letter message
func (r *DeadLetterRepository) Create(ctx context.Context, msg *models.DeadLetterMessage) error {
	query := `
		INSERT INTO dead_letter_messages (
			original_message_id, aggregate_type, aggregate_id, event_type, payload,
			error_message, failure_reason, retry_count, status, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
		) RETURNING id
	`

	var id int64

	err := r.db.DB.QueryRowContext(
		ctx,
		query,
		msg.OriginalMessageID,
		msg.AggregateType,
		msg.AggregateID,
		msg.EventType,
		msg.Payload,
		msg.ErrorMessage,
		msg.FailureReason,
		msg.RetryCount,
		msg.Status,
		msg.CreatedAt,
	).Scan(&id)

	if err != nil {
		r.logger.Error("Failed to create dead letter message", "error", err)
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	msg.ID = id
	return nil
}

// GetByID retrieves a dead letter message by ID
func (r *DeadLetterRepository) GetByID(ctx context.Context, id int64) (*models.DeadLetterMessage, error) {
	var msg models.DeadLetterMessage

	err := r.db.DB.GetContext(ctx, &msg, `SELECT `+deadLetterColumns+` FROM dead_letter_messages WHERE id = $1`, id)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		r.logger.Error("Failed to get dead letter message", "error", err, "messageID", id)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return &msg, nil
}

// GetAll retrieves dead letter messages newest first with pagination
func (r *DeadLetterRepository) GetAll(ctx context.Context, limit, offset int) ([]*models.DeadLetterMessage, error) {
	query := `SELECT ` + deadLetterColumns + ` FROM dead_letter_messages ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	var messages []*models.DeadLetterMessage

	err := r.db.DB.SelectContext(ctx, &messages, query, limit, offset)

	if err != nil {
		r.logger.Error("Failed to get dead letter messages", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return messages, nil
}

// GetPending retrieves pending dead letter messages oldest first
func (r *DeadLetterRepository) GetPending(ctx context.Context, limit int) ([]*models.DeadLetterMessage, error) {
	query := `
		SELECT ` + deadLetterColumns + `
		FROM dead_letter_messages
		WHERE status = $1
		ORDER BY created_at ASC
		LIMIT $2
	`

	var messages []*models.DeadLetterMessage

	err := r.db.DB.SelectContext(ctx, &messages, query, models.DeadLetterStatusPending, limit)

	if err != nil {
		r.logger.Error("Failed to get pending dead letter messages", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return messages, nil
}

// MarkRetrying counts a retry attempt on a dead letter message
func (r *DeadLetterRepository) MarkRetrying(ctx context.Context, id int64) error {
	query := `
		UPDATE dead_letter_messages
		SET status = $1, retry_count = retry_count + 1, last_retry_at = $2
		WHERE id = $3
	`

	return r.exec(ctx, query, models.DeadLetterStatusRetrying, time.Now().UTC(), id)
}

// MarkPending puts a dead letter message back in the retry queue
func (r *DeadLetterRepository) MarkPending(ctx context.Context, id int64, errorMessage string) error {
	query := `
		UPDATE dead_letter_messages
		SET status = $1, error_message = $2
		WHERE id = $3
	`

	return r.exec(ctx, query, models.DeadLetterStatusPending, errorMessage, id)
}

// MarkResolved flags a dead letter message as successfully redelivered
func (r *DeadLetterRepository) MarkResolved(ctx context.Context, id int64) error {
	query := `
		UPDATE dead_letter_messages
		SET status = $1, resolved_at = $2
		WHERE id = $3
	`

	return r.exec(ctx, query, models.DeadLetterStatusResolved, time.Now().UTC(), id)
}

// MarkDiscarded flags a dead letter message as given up on
func (r *DeadLetterRepository) MarkDiscarded(ctx context.Context, id int64) error {
	query := `
		UPDATE dead_letter_messages
		SET status = $1, resolved_at = $2
		WHERE id = $3
	`

	return r.exec(ctx, query, models.DeadLetterStatusDiscarded, time.Now().UTC(), id)
}

func (r *DeadLetterRepository) exec(ctx context.Context, query string, args ...interface{}) error {
	result, err := r.db.DB.ExecContext(ctx, query, args...)

	if err != nil {
		r.logger.Error("Failed to update dead letter message", "error", err)
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	rowsAffected, err := result.RowsAffected()

	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}
