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

var (
	ErrNotFound = errors.New("record not found")
	ErrDatabase = errors.New("database error")
	// ErrStatusConflict is returned when a guarded status update matched
	// no row, meaning a concurrent transition got there first.
	ErrStatusConflict = errors.New("order status changed concurrently")
)

// orderRow flattens the address columns for sqlx scanning
type orderRow struct {
	models.Order
	Street     string `db:"street"`
	City       string `db:"city"`
	State      string `db:"state"`
	PostalCode string `db:"postal_code"`
	Country    string `db:"country"`
	Msg        sql.NullString `db:"msg"`
	OTP        sql.NullString `db:"otp"`
	PrimaryNumber   sql.NullString `db:"primary_number"`
	AlternateNumber sql.NullString `db:"alternate_number"`
}

func (r orderRow) toOrder() *models.Order {
	o := r.Order
	o.Address = models.Address{
		Street:     r.Street,
		City:       r.City,
		State:      r.State,
		PostalCode: r.PostalCode,
		Country:    r.Country,
	}
	o.Msg = r.Msg.String
	o.OTP = r.OTP.String
	o.PrimaryNumber = r.PrimaryNumber.String
	o.AlternateNumber = r.AlternateNumber.String
	return &o
}

const orderColumns = `
	id, user_id, email, primary_number, alternate_number,
	street, city, state, postal_code, country,
	total_amount, status, msg, otp, otp_expiry, delivery_date,
	created_at, updated_at
`

// OrderRepository handles database operations for orders
type OrderRepository struct {
	db     *database.Database
	logger logger.Logger
}

// NewOrderRepository creates a new OrderRepository
func NewOrderRepository(db *database.Database, logger logger.Logger) *OrderRepository {
	return &OrderRepository{
		db:     db,
		logger: logger,
	}
}

// BeginTx starts a transaction
func (r *OrderRepository) BeginTx(ctx context.Context) (*sql.Tx, error) {
	tx, err := r.db.DB.BeginTx(ctx, nil)

	if err != nil {
		r.logger.Error("Failed to begin transaction", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return tx, nil
}

// CreateInTx inserts an order and its item snapshot within a transaction
func (r *OrderRepository) CreateInTx(tx *sql.Tx, order *models.Order) error {
	query := `
		INSERT INTO orders (
			id, user_id, email, primary_number, alternate_number,
			street, city, state, postal_code, country,
			total_amount, status, msg, otp, otp_expiry, delivery_date,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, NULLIF($4, ''), NULLIF($5, ''),
			$6, $7, $8, $9, $10,
			$11, $12, NULLIF($13, ''), NULLIF($14, ''), $15, $16,
			$17, $18
		)
	`

	_, err := tx.Exec(
		query,
		order.ID,
		order.UserID,
		order.Email,
		order.PrimaryNumber,
		order.AlternateNumber,
		order.Address.Street,
		order.Address.City,
		order.Address.State,
		order.Address.PostalCode,
		order.Address.Country,
		order.TotalAmount,
		order.Status,
		order.Msg,
		order.OTP,
		order.OTPExpiry,
		order.DeliveryDate,
		order.CreatedAt,
		order.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	for _, it := range order.Items {
		_, err := tx.Exec(
			`INSERT INTO order_items (order_id, trophy_id, quantity, price) VALUES ($1, $2, $3, $4)`,
			order.ID, it.TrophyID, it.Quantity, it.Price,
		)

		if err != nil {
			return fmt.Errorf("%w: %v", ErrDatabase, err)
		}
	}

	return nil
}

// GetByID retrieves an order with its items
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	var row orderRow
	err := r.db.DB.GetContext(ctx, &row, query, id)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		r.logger.Error("Failed to get order by ID", "error", err, "orderID", id)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	order := row.toOrder()

	if err := r.loadItems(ctx, order); err != nil {
		return nil, err
	}

	return order, nil
}

func (r *OrderRepository) loadItems(ctx context.Context, order *models.Order) error {
	var items []models.OrderItem

	err := r.db.DB.SelectContext(
		ctx,
		&items,
		`SELECT id, order_id, trophy_id, quantity, price FROM order_items WHERE order_id = $1 ORDER BY id`,
		order.ID,
	)

	if err != nil {
		r.logger.Error("Failed to load order items", "error", err, "orderID", order.ID)
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	order.Items = items
	return nil
}

// GetAll retrieves orders newest first with pagination
func (r *OrderRepository) GetAll(ctx context.Context, limit, offset int) ([]*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	var rows []orderRow
	err := r.db.DB.SelectContext(ctx, &rows, query, limit, offset)

	if err != nil {
		r.logger.Error("Failed to get all orders", "error", err, "limit", limit, "offset", offset)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return r.withItems(ctx, rows)
}

// GetByEmail retrieves a customer's orders newest first
func (r *OrderRepository) GetByEmail(ctx context.Context, email string) ([]*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE email = $1 ORDER BY created_at DESC`

	var rows []orderRow
	err := r.db.DB.SelectContext(ctx, &rows, query, email)

	if err != nil {
		r.logger.Error("Failed to get orders by email", "error", err, "email", email)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return r.withItems(ctx, rows)
}

func (r *OrderRepository) withItems(ctx context.Context, rows []orderRow) ([]*models.Order, error) {
	orders := make([]*models.Order, 0, len(rows))

	for _, row := range rows {
		order := row.toOrder()

		if err := r.loadItems(ctx, order); err != nil {
			return nil, err
		}

		orders = append(orders, order)
	}

	return orders, nil
}

// Count counts the total number of orders
func (r *OrderRepository) Count(ctx context.Context) (int, error) {
	var count int

	err := r.db.DB.GetContext(ctx, &count, `SELECT COUNT(*) FROM orders`)

	if err != nil {
		r.logger.Error("Failed to count orders", "error", err)
		return 0, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return count, nil
}

// UpdateMutableInTx writes the mutable workflow fields (status, msg, otp,
// otp expiry) guarded on the status the caller read. Zero rows affected
// means another request transitioned the order first.
func (r *OrderRepository) UpdateMutableInTx(tx *sql.Tx, order *models.Order, expected models.OrderStatus) error {
	query := `
		UPDATE orders
		SET status = $1, msg = NULLIF($2, ''), otp = NULLIF($3, ''), otp_expiry = $4, updated_at = $5
		WHERE id = $6 AND status = $7
	`

	result, err := tx.Exec(
		query,
		order.Status,
		order.Msg,
		order.OTP,
		order.OTPExpiry,
		models.GetCurrentTime(),
		order.ID,
		expected,
	)

	if err != nil {
		r.logger.Error("Failed to update order", "error", err, "orderID", order.ID)
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	rowsAffected, err := result.RowsAffected()

	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	if rowsAffected == 0 {
		return ErrStatusConflict
	}

	return nil
}
