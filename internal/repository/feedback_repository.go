package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mohd-saif-1850/trophy-store-api/internal/database"
	"github.com/mohd-saif-1850/trophy-store-api/internal/models"
	"github.com/mohd-saif-1850/trophy-store-api/pkg/logger"
)

const feedbackColumns = `id, user_id, name, email, comment, rating, reply, status, created_at, updated_at`

// FeedbackRepository handles database operations for feedback entries
type FeedbackRepository struct {
	db     *database.Database
	logger logger.Logger
}

// NewFeedbackRepository creates a new FeedbackRepository
func NewFeedbackRepository(db *database.Database, logger logger.Logger) *FeedbackRepository {
	return &FeedbackRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new feedback entry
func (r *FeedbackRepository) Create(ctx context.Context, fb *models.Feedback) error {
	query := `
		INSERT INTO feedbacks (id, user_id, name, email, comment, rating, reply, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.DB.ExecContext(
		ctx,
		query,
		fb.ID,
		fb.UserID,
		fb.Name,
		fb.Email,
		fb.Comment,
		fb.Rating,
		fb.Reply,
		fb.Status,
		fb.CreatedAt,
		fb.UpdatedAt,
	)

	if err != nil {
		r.logger.Error("Failed to create feedback", "error", err, "feedbackID", fb.ID)
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return nil
}

// GetByID retrieves a feedback entry by its ID
func (r *FeedbackRepository) GetByID(ctx context.Context, id string) (*models.Feedback, error) {
	var fb models.Feedback

	err := r.db.DB.GetContext(ctx, &fb, `SELECT `+feedbackColumns+` FROM feedbacks WHERE id = $1`, id)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		r.logger.Error("Failed to get feedback by ID", "error", err, "feedbackID", id)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return &fb, nil
}

// GetAll retrieves all feedback entries newest first
func (r *FeedbackRepository) GetAll(ctx context.Context) ([]*models.Feedback, error) {
	var feedbacks []*models.Feedback

	err := r.db.DB.SelectContext(
		ctx,
		&feedbacks,
		`SELECT `+feedbackColumns+` FROM feedbacks ORDER BY created_at DESC`,
	)

	if err != nil {
		r.logger.Error("Failed to get all feedback", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return feedbacks, nil
}

// GetByEmail retrieves a user's feedback entries newest first
func (r *FeedbackRepository) GetByEmail(ctx context.Context, email string) ([]*models.Feedback, error) {
	var feedbacks []*models.Feedback

	err := r.db.DB.SelectContext(
		ctx,
		&feedbacks,
		`SELECT `+feedbackColumns+` FROM feedbacks WHERE email = $1 ORDER BY created_at DESC`,
		email,
	)

	if err != nil {
		r.logger.Error("Failed to get feedback by email", "error", err, "email", email)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return feedbacks, nil
}

// UpdateStatus sets the moderation status and the admin reply
func (r *FeedbackRepository) UpdateStatus(ctx context.Context, id, status, reply string) error {
	query := `
		UPDATE feedbacks
		SET status = $1, reply = COALESCE(NULLIF($2, ''), reply), updated_at = $3
		WHERE id = $4
	`

	result, err := r.db.DB.ExecContext(ctx, query, status, reply, models.GetCurrentTime(), id)

	if err != nil {
		r.logger.Error("Failed to update feedback status", "error", err, "feedbackID", id)
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

// Delete removes a feedback entry
func (r *FeedbackRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.DB.ExecContext(ctx, `DELETE FROM feedbacks WHERE id = $1`, id)

	if err != nil {
		r.logger.Error("Failed to delete feedback", "error", err, "feedbackID", id)
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
