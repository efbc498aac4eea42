package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mohd-saif-1850/trophy-store-api/internal/database"
	"github.com/mohd-saif-1850/trophy-store-api/internal/models"
	"github.com/mohd-saif-1850/trophy-store-api/pkg/logger"
)

// userRow adapts nullable columns and the JSONB cart for scanning
type userRow struct {
	models.User
	OTP  sql.NullString `db:"otp"`
	Cart []byte         `db:"cart"`
}

func (r userRow) toUser() (*models.User, error) {
	u := r.User
	u.OTP = r.OTP.String
	u.Cart = []models.CartItem{}

	if len(r.Cart) > 0 {
		if err := json.Unmarshal(r.Cart, &u.Cart); err != nil {
			return nil, fmt.Errorf("%w: bad cart payload: %v", ErrDatabase, err)
		}
	}

	return &u, nil
}

const userColumns = `
	id, name, mobile_number, email, password_hash, role, verified,
	otp, otp_expiry, expires_at, cart, created_at, updated_at
`

// UserRepository handles database operations for user accounts
type UserRepository struct {
	db     *database.Database
	logger logger.Logger
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *database.Database, logger logger.Logger) *UserRepository {
	return &UserRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new user
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	cart, err := json.Marshal(user.Cart)

	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	query := `
		INSERT INTO users (
			id, name, mobile_number, email, password_hash, role, verified,
			otp, otp_expiry, expires_at, cart, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), $9, $10, $11, $12, $13
		)
	`

	_, err = r.db.DB.ExecContext(
		ctx,
		query,
		user.ID,
		user.Name,
		user.MobileNumber,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.Verified,
		user.OTP,
		user.OTPExpiry,
		user.ExpiresAt,
		cart,
		user.CreatedAt,
		user.UpdatedAt,
	)

	if err != nil {
		r.logger.Error("Failed to create user", "error", err, "email", user.Email)
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return nil
}

// GetByID retrieves a user by id
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

// GetByIdentifier retrieves a user by email or mobile number
func (r *UserRepository) GetByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	return r.getOne(
		ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1 OR mobile_number = $1`,
		identifier,
	)
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg interface{}) (*models.User, error) {
	var row userRow
	err := r.db.DB.GetContext(ctx, &row, query, arg)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		r.logger.Error("Failed to get user", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return row.toUser()
}

// ExistsByEmailOrMobile reports whether an account already uses the email
// or mobile number.
func (r *UserRepository) ExistsByEmailOrMobile(ctx context.Context, email, mobile string) (bool, error) {
	var count int

	err := r.db.DB.GetContext(
		ctx,
		&count,
		`SELECT COUNT(*) FROM users WHERE email = $1 OR mobile_number = $2`,
		email,
		mobile,
	)

	if err != nil {
		r.logger.Error("Failed to check user existence", "error", err)
		return false, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return count > 0, nil
}

// Update writes the mutable account fields
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	cart, err := json.Marshal(user.Cart)

	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	query := `
		UPDATE users
		SET name = $1, mobile_number = $2, password_hash = $3, verified = $4,
			otp = NULLIF($5, ''), otp_expiry = $6, expires_at = $7, cart = $8, updated_at = $9
		WHERE id = $10
	`

	result, err := r.db.DB.ExecContext(
		ctx,
		query,
		user.Name,
		user.MobileNumber,
		user.PasswordHash,
		user.Verified,
		user.OTP,
		user.OTPExpiry,
		user.ExpiresAt,
		cart,
		models.GetCurrentTime(),
		user.ID,
	)

	if err != nil {
		r.logger.Error("Failed to update user", "error", err, "userID", user.ID)
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

// Delete removes a user account
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.DB.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)

	if err != nil {
		r.logger.Error("Failed to delete user", "error", err, "userID", id)
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

// DeleteExpiredUnverified removes unverified accounts whose account or
// OTP expiry has passed. Verified accounts are never touched.
func (r *UserRepository) DeleteExpiredUnverified(ctx context.Context, now time.Time) (int64, error) {
	query := `
		DELETE FROM users
		WHERE verified = FALSE AND (expires_at < $1 OR otp_expiry < $1)
	`

	result, err := r.db.DB.ExecContext(ctx, query, now)

	if err != nil {
		r.logger.Error("Failed to delete expired unverified users", "error", err)
		return 0, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	deleted, err := result.RowsAffected()

	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return deleted, nil
}
