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

const reviewColumns = `id, user_id, COALESCE(trophy_id, '') AS trophy_id, rating, comment, created_at, updated_at`

// ReviewRepository handles database operations for product reviews
type ReviewRepository struct {
	db     *database.Database
	logger logger.Logger
}

// NewReviewRepository creates a new ReviewRepository
func NewReviewRepository(db *database.Database, logger logger.Logger) *ReviewRepository {
	return &ReviewRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new review
func (r *ReviewRepository) Create(ctx context.Context, review *models.Review) error {
	query := `
		INSERT INTO reviews (id, user_id, trophy_id, rating, comment, created_at, updated_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7)
	`

	_, err := r.db.DB.ExecContext(
		ctx,
		query,
		review.ID,
		review.UserID,
		review.TrophyID,
		review.Rating,
		review.Comment,
		review.CreatedAt,
		review.UpdatedAt,
	)

	if err != nil {
		r.logger.Error("Failed to create review", "error", err, "reviewID", review.ID)
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return nil
}

// GetByID retrieves a review by its ID
func (r *ReviewRepository) GetByID(ctx context.Context, id string) (*models.Review, error) {
	var review models.Review

	err := r.db.DB.GetContext(ctx, &review, `SELECT `+reviewColumns+` FROM reviews WHERE id = $1`, id)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		r.logger.Error("Failed to get review by ID", "error", err, "reviewID", id)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return &review, nil
}

// GetAll retrieves all reviews newest first
func (r *ReviewRepository) GetAll(ctx context.Context) ([]*models.Review, error) {
	var reviews []*models.Review

	err := r.db.DB.SelectContext(
		ctx,
		&reviews,
		`SELECT `+reviewColumns+` FROM reviews ORDER BY created_at DESC`,
	)

	if err != nil {
		r.logger.Error("Failed to get all reviews", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return reviews, nil
}
