package repository

import (
	"context"
	"fmt"

	"github.com/mohd-saif-1850/trophy-store-api/internal/models"
	"github.com/mohd-saif-1850/trophy-store-api/pkg/logger"
)

// OrderStore composes order writes with their outbox events so that an
// order mutation and the events it implies commit atomically or not at
// all.
type OrderStore struct {
	orders *OrderRepository
	outbox *OutboxRepository
	logger logger.Logger
}

// NewOrderStore creates a store over the order and outbox repositories
func NewOrderStore(orders *OrderRepository, outbox *OutboxRepository, logger logger.Logger) *OrderStore {
	return &OrderStore{
		orders: orders,
		outbox: outbox,
		logger: logger,
	}
}

// CreateWithEvents inserts a new order and its outbox events in one
// transaction.
func (s *OrderStore) CreateWithEvents(ctx context.Context, order *models.Order, events []*models.OutboxMessage) error {
	tx, err := s.orders.BeginTx(ctx)

	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	defer tx.Rollback()

	if err := s.orders.CreateInTx(tx, order); err != nil {
		return err
	}

	for _, event := range events {
		if err := s.outbox.CreateInTx(tx, event); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("Failed to commit order creation", "error", err, "orderID", order.ID)
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return nil
}

// UpdateWithEvents applies an order mutation guarded by the expected
// current status and writes the outbox events in the same transaction.
// Returns ErrStatusConflict when another caller transitioned the order
// first.
func (s *OrderStore) UpdateWithEvents(ctx context.Context, order *models.Order, expected models.OrderStatus, events []*models.OutboxMessage) error {
	tx, err := s.orders.BeginTx(ctx)

	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	defer tx.Rollback()

	if err := s.orders.UpdateMutableInTx(tx, order, expected); err != nil {
		return err
	}

	for _, event := range events {
		if err := s.outbox.CreateInTx(tx, event); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("Failed to commit order update", "error", err, "orderID", order.ID)
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return nil
}

// GetByID delegates to the order repository
func (s *OrderStore) GetByID(ctx context.Context, id string) (*models.Order, error) {
	return s.orders.GetByID(ctx, id)
}

// GetAll delegates to the order repository
func (s *OrderStore) GetAll(ctx context.Context, limit, offset int) ([]*models.Order, error) {
	return s.orders.GetAll(ctx, limit, offset)
}

// GetByEmail delegates to the order repository
func (s *OrderStore) GetByEmail(ctx context.Context, email string) ([]*models.Order, error) {
	return s.orders.GetByEmail(ctx, email)
}

// Count delegates to the order repository
func (s *OrderStore) Count(ctx context.Context) (int, error) {
	return s.orders.Count(ctx)
}
