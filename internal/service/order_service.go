package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mohd-saif-1850/trophy-store-api/internal/models"
	"github.com/mohd-saif-1850/trophy-store-api/internal/repository"
	apperrors "github.com/mohd-saif-1850/trophy-store-api/pkg/errors"
	"github.com/mohd-saif-1850/trophy-store-api/pkg/logger"
)

// OrderStore is the persistence surface the order service needs. Writes
// carry their outbox events so they commit atomically with the order row.
type OrderStore interface {
	CreateWithEvents(ctx context.Context, order *models.Order, events []*models.OutboxMessage) error
	UpdateWithEvents(ctx context.Context, order *models.Order, expected models.OrderStatus, events []*models.OutboxMessage) error
	GetByID(ctx context.Context, id string) (*models.Order, error)
	GetAll(ctx context.Context, limit, offset int) ([]*models.Order, error)
	GetByEmail(ctx context.Context, email string) ([]*models.Order, error)
	Count(ctx context.Context) (int, error)
}

// OrderService owns the order workflow, including the two-phase
// verified completion.
type OrderService struct {
	store  OrderStore
	logger logger.Logger
}

// NewOrderService creates an order service
func NewOrderService(store OrderStore, logger logger.Logger) *OrderService {
	return &OrderService{
		store:  store,
		logger: logger,
	}
}

// PlaceOrder validates the cart snapshot and creates a Pending order
// together with its stream and confirmation-email events.
func (s *OrderService) PlaceOrder(ctx context.Context, user *models.User, items []models.OrderItem, address models.Address, alternateNumber string) (*models.Order, error) {
	if len(items) == 0 {
		return nil, apperrors.NewInvalidInputError("Order must contain at least one item")
	}

	for i, item := range items {
		if strings.TrimSpace(item.TrophyID) == "" {
			return nil, apperrors.NewInvalidInputError(fmt.Sprintf("Item %d is missing a trophy id", i+1))
		}
		if item.Quantity < 1 {
			return nil, apperrors.NewInvalidInputError(fmt.Sprintf("Item %d has an invalid quantity", i+1))
		}
		if item.Price < 0 {
			return nil, apperrors.NewInvalidInputError(fmt.Sprintf("Item %d has a negative price", i+1))
		}
	}

	order := models.NewOrder(user, items, address, alternateNumber)

	createdEvent, err := models.NewOrderCreatedEvent(order)

	if err != nil {
		return nil, apperrors.NewInternalError("Failed to build order event")
	}

	emailEvent, err := models.NewEmailEvent(models.EventEmailOrderConfirmation, order.ID, models.EmailPayload{
		To:      order.Email,
		Name:    user.Name,
		OrderID: order.ID,
		Total:   order.TotalAmount,
	})

	if err != nil {
		return nil, apperrors.NewInternalError("Failed to build notification event")
	}

	if err := s.store.CreateWithEvents(ctx, order, []*models.OutboxMessage{createdEvent, emailEvent}); err != nil {
		s.logger.Error("Failed to place order", "error", err, "userID", user.ID)
		return nil, mapRepositoryError(err, "order")
	}

	s.logger.Info("Order placed", "orderID", order.ID, "userID", user.ID, "total", order.TotalAmount)

	return order, nil
}

// RequestStatusChange moves an order along the workflow. A request for
// Completed does not complete the order; it stores a fresh verification
// code and emails it, leaving the status untouched until the code is
// confirmed. A repeat of the current status is a no-op success.
func (s *OrderService) RequestStatusChange(ctx context.Context, id, requestedStatus, customerName, msg string) (*models.Order, error) {
	target, ok := models.ParseStatus(requestedStatus)

	if !ok {
		return nil, apperrors.NewInvalidInputError(fmt.Sprintf("Unknown order status %q", requestedStatus))
	}

	order, err := s.store.GetByID(ctx, id)

	if err != nil {
		return nil, mapRepositoryError(err, "order")
	}

	if order.Status == target {
		return order, nil
	}

	if !models.CanTransition(order.Status, target) {
		return nil, apperrors.NewInvalidStateError(fmt.Sprintf("Order cannot move from %s to %s", order.Status, target))
	}

	expected := order.Status

	switch target {
	case models.OrderStatusCompleted:
		return s.beginCompletion(ctx, order, customerName)

	case models.OrderStatusCancelled:
		return s.cancel(ctx, order, expected, customerName, msg)

	default:
		order.Status = target

		statusEvent, err := models.NewOrderStatusChangedEvent(order, expected)

		if err != nil {
			return nil, apperrors.NewInternalError("Failed to build order event")
		}

		if err := s.store.UpdateWithEvents(ctx, order, expected, []*models.OutboxMessage{statusEvent}); err != nil {
			return nil, mapRepositoryError(err, "order")
		}

		s.logger.Info("Order status changed", "orderID", order.ID, "from", expected, "to", target)

		return order, nil
	}
}

// beginCompletion stores a verification code on the order and queues the
// code email. The status stays as it was.
func (s *OrderService) beginCompletion(ctx context.Context, order *models.Order, customerName string) (*models.Order, error) {
	expected := order.Status

	otpExpiry := models.GetCurrentTime().Add(models.OTPValidity)
	order.OTP = models.GenerateOTP()
	order.OTPExpiry = &otpExpiry

	emailEvent, err := models.NewEmailEvent(models.EventEmailOrderOTP, order.ID, models.EmailPayload{
		To:      order.Email,
		Name:    customerName,
		OrderID: order.ID,
		OTP:     order.OTP,
	})

	if err != nil {
		return nil, apperrors.NewInternalError("Failed to build notification event")
	}

	if err := s.store.UpdateWithEvents(ctx, order, expected, []*models.OutboxMessage{emailEvent}); err != nil {
		return nil, mapRepositoryError(err, "order")
	}

	s.logger.Info("Order completion code issued", "orderID", order.ID)

	return order, nil
}

func (s *OrderService) cancel(ctx context.Context, order *models.Order, expected models.OrderStatus, customerName, msg string) (*models.Order, error) {
	order.Status = models.OrderStatusCancelled
	// An empty reason keeps whatever message the order already carries
	if msg != "" {
		order.Msg = msg
	}
	order.OTP = ""
	order.OTPExpiry = nil

	statusEvent, err := models.NewOrderStatusChangedEvent(order, expected)

	if err != nil {
		return nil, apperrors.NewInternalError("Failed to build order event")
	}

	emailEvent, err := models.NewEmailEvent(models.EventEmailOrderCancelled, order.ID, models.EmailPayload{
		To:      order.Email,
		Name:    customerName,
		OrderID: order.ID,
		Reason:  order.Msg,
	})

	if err != nil {
		return nil, apperrors.NewInternalError("Failed to build notification event")
	}

	if err := s.store.UpdateWithEvents(ctx, order, expected, []*models.OutboxMessage{statusEvent, emailEvent}); err != nil {
		return nil, mapRepositoryError(err, "order")
	}

	s.logger.Info("Order cancelled", "orderID", order.ID, "from", expected)

	return order, nil
}

// ConfirmCompletion finishes the two-phase completion. The supplied code
// must match the stored one and still be inside its validity window. A
// wrong or expired code leaves the order untouched.
func (s *OrderService) ConfirmCompletion(ctx context.Context, id, otp string) (*models.Order, error) {
	order, err := s.store.GetByID(ctx, id)

	if err != nil {
		return nil, mapRepositoryError(err, "order")
	}

	if !models.CanTransition(order.Status, models.OrderStatusCompleted) || order.Status == models.OrderStatusCompleted {
		return nil, apperrors.NewInvalidStateError(fmt.Sprintf("Order in status %s cannot be completed", order.Status))
	}

	if !order.HasPendingOTP() {
		return nil, apperrors.NewInvalidStateError("No completion code was requested for this order")
	}

	if order.OTPExpired(models.GetCurrentTime()) {
		return nil, apperrors.NewOTPMismatchError("Verification code has expired, request completion again")
	}

	if otp != order.OTP {
		return nil, apperrors.NewOTPMismatchError("Invalid verification code")
	}

	expected := order.Status
	order.Status = models.OrderStatusCompleted
	order.OTP = ""
	order.OTPExpiry = nil

	statusEvent, err := models.NewOrderStatusChangedEvent(order, expected)

	if err != nil {
		return nil, apperrors.NewInternalError("Failed to build order event")
	}

	if err := s.store.UpdateWithEvents(ctx, order, expected, []*models.OutboxMessage{statusEvent}); err != nil {
		return nil, mapRepositoryError(err, "order")
	}

	s.logger.Info("Order completed", "orderID", order.ID)

	return order, nil
}

// CancelByCustomer lets the order's owner cancel while the order is
// still Pending.
func (s *OrderService) CancelByCustomer(ctx context.Context, id string, user *models.User, msg string) (*models.Order, error) {
	order, err := s.store.GetByID(ctx, id)

	if err != nil {
		return nil, mapRepositoryError(err, "order")
	}

	if !strings.EqualFold(order.Email, user.Email) {
		return nil, apperrors.NewForbiddenError("You can only cancel your own orders")
	}

	if order.Status != models.OrderStatusPending {
		return nil, apperrors.NewInvalidStateError(fmt.Sprintf("Order in status %s can no longer be cancelled by the customer", order.Status))
	}

	return s.cancel(ctx, order, models.OrderStatusPending, user.Name, msg)
}

// GetOrder fetches one order with its items
func (s *OrderService) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	order, err := s.store.GetByID(ctx, id)

	if err != nil {
		return nil, mapRepositoryError(err, "order")
	}

	return order, nil
}

// GetAllOrders lists orders for the admin panel
func (s *OrderService) GetAllOrders(ctx context.Context, limit, offset int) ([]*models.Order, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	orders, err := s.store.GetAll(ctx, limit, offset)

	if err != nil {
		return nil, mapRepositoryError(err, "order")
	}

	return orders, nil
}

// GetMyOrders lists the orders placed from the given account email
func (s *OrderService) GetMyOrders(ctx context.Context, email string) ([]*models.Order, error) {
	orders, err := s.store.GetByEmail(ctx, email)

	if err != nil {
		return nil, mapRepositoryError(err, "order")
	}

	return orders, nil
}

// CountOrders returns the total number of orders
func (s *OrderService) CountOrders(ctx context.Context) (int, error) {
	count, err := s.store.Count(ctx)

	if err != nil {
		return 0, mapRepositoryError(err, "order")
	}

	return count, nil
}

// mapRepositoryError translates repository sentinels into API errors.
// Already-typed errors pass through unchanged.
func mapRepositoryError(err error, entity string) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}

	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NewNotFoundError(fmt.Sprintf("The requested %s was not found", entity))
	case errors.Is(err, repository.ErrStatusConflict):
		return apperrors.NewConflictError("The order was updated by someone else, reload and retry")
	default:
		return apperrors.NewInternalError("A storage error occurred")
	}
}
