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

const trophyColumns = `id, name, price, category, image, description, priority, created_at, updated_at`

// TrophyRepository handles database operations for catalog products
type TrophyRepository struct {
	db     *database.Database
	logger logger.Logger
}

// NewTrophyRepository creates a new TrophyRepository
func NewTrophyRepository(db *database.Database, logger logger.Logger) *TrophyRepository {
	return &TrophyRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new trophy
func (r *TrophyRepository) Create(ctx context.Context, trophy *models.Trophy) error {
	query := `
		INSERT INTO trophies (id, name, price, category, image, description, priority, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.DB.ExecContext(
		ctx,
		query,
		trophy.ID,
		trophy.Name,
		trophy.Price,
		trophy.Category,
		trophy.Image,
		trophy.Description,
		trophy.Priority,
		trophy.CreatedAt,
		trophy.UpdatedAt,
	)

	if err != nil {
		r.logger.Error("Failed to create trophy", "error", err, "trophyID", trophy.ID)
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return nil
}

// GetByID retrieves a trophy by its ID
func (r *TrophyRepository) GetByID(ctx context.Context, id string) (*models.Trophy, error) {
	var trophy models.Trophy

	err := r.db.DB.GetContext(ctx, &trophy, `SELECT `+trophyColumns+` FROM trophies WHERE id = $1`, id)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		r.logger.Error("Failed to get trophy by ID", "error", err, "trophyID", id)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return &trophy, nil
}

// GetAll retrieves all trophies newest first
func (r *TrophyRepository) GetAll(ctx context.Context) ([]*models.Trophy, error) {
	var trophies []*models.Trophy

	err := r.db.DB.SelectContext(
		ctx,
		&trophies,
		`SELECT `+trophyColumns+` FROM trophies ORDER BY priority DESC, created_at DESC`,
	)

	if err != nil {
		r.logger.Error("Failed to get all trophies", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return trophies, nil
}

// Search finds trophies whose name contains the query, case-insensitive
func (r *TrophyRepository) Search(ctx context.Context, query string, limit int) ([]*models.Trophy, error) {
	var trophies []*models.Trophy

	err := r.db.DB.SelectContext(
		ctx,
		&trophies,
		`SELECT `+trophyColumns+` FROM trophies WHERE name ILIKE '%' || $1 || '%' ORDER BY name LIMIT $2`,
		query,
		limit,
	)

	if err != nil {
		r.logger.Error("Failed to search trophies", "error", err, "query", query)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return trophies, nil
}

// Update updates an existing trophy
func (r *TrophyRepository) Update(ctx context.Context, trophy *models.Trophy) error {
	query := `
		UPDATE trophies
		SET name = $1, price = $2, category = $3, image = $4, description = $5, priority = $6, updated_at = $7
		WHERE id = $8
	`

	result, err := r.db.DB.ExecContext(
		ctx,
		query,
		trophy.Name,
		trophy.Price,
		trophy.Category,
		trophy.Image,
		trophy.Description,
		trophy.Priority,
		models.GetCurrentTime(),
		trophy.ID,
	)

	if err != nil {
		r.logger.Error("Failed to update trophy", "error", err, "trophyID", trophy.ID)
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

// Delete deletes a trophy by its ID
func (r *TrophyRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.DB.ExecContext(ctx, `DELETE FROM trophies WHERE id = $1`, id)

	if err != nil {
		r.logger.Error("Failed to delete trophy", "error", err, "trophyID", id)
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
