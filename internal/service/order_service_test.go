package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohd-saif-1850/trophy-store-api/internal/models"
	"github.com/mohd-saif-1850/trophy-store-api/internal/repository"
	apperrors "github.com/mohd-saif-1850/trophy-store-api/pkg/errors"
	"github.com/mohd-saif-1850/trophy-store-api/pkg/logger"
)

// fakeOrderStore mimics the conditional-update semantics of the real
// store, including the status guard on writes.
type fakeOrderStore struct {
	orders map[string]*models.Order
	events []*models.OutboxMessage
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{orders: make(map[string]*models.Order)}
}

func (f *fakeOrderStore) CreateWithEvents(ctx context.Context, order *models.Order, events []*models.OutboxMessage) error {
	cp := *order
	f.orders[order.ID] = &cp
	f.events = append(f.events, events...)
	return nil
}

func (f *fakeOrderStore) UpdateWithEvents(ctx context.Context, order *models.Order, expected models.OrderStatus, events []*models.OutboxMessage) error {
	stored, ok := f.orders[order.ID]

	if !ok {
		return repository.ErrNotFound
	}

	if stored.Status != expected {
		return repository.ErrStatusConflict
	}

	cp := *order
	f.orders[order.ID] = &cp
	f.events = append(f.events, events...)
	return nil
}

func (f *fakeOrderStore) GetByID(ctx context.Context, id string) (*models.Order, error) {
	order, ok := f.orders[id]

	if !ok {
		return nil, repository.ErrNotFound
	}

	cp := *order
	return &cp, nil
}

func (f *fakeOrderStore) GetAll(ctx context.Context, limit, offset int) ([]*models.Order, error) {
	var out []*models.Order
	for _, o := range f.orders {
		cp := *o
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeOrderStore) GetByEmail(ctx context.Context, email string) ([]*models.Order, error) {
	var out []*models.Order
	for _, o := range f.orders {
		if o.Email == email {
			cp := *o
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeOrderStore) Count(ctx context.Context) (int, error) {
	return len(f.orders), nil
}

func (f *fakeOrderStore) eventsOfType(eventType string) []*models.OutboxMessage {
	var out []*models.OutboxMessage
	for _, ev := range f.events {
		if ev.EventType == eventType {
			out = append(out, ev)
		}
	}
	return out
}

func testUser() *models.User {
	return models.NewUser("Anas", "9876543210", "anas@example.com", "hash")
}

func testItems() []models.OrderItem {
	return []models.OrderItem{
		{TrophyID: "trf-1", Quantity: 2, Price: 250},
	}
}

func placeTestOrder(t *testing.T, svc *OrderService, store *fakeOrderStore) *models.Order {
	t.Helper()

	order, err := svc.PlaceOrder(context.Background(), testUser(), testItems(), models.Address{City: "Moradabad"}, "")
	require.NoError(t, err)

	return order
}

func TestPlaceOrder(t *testing.T) {
	store := newFakeOrderStore()
	svc := NewOrderService(store, logger.NewNopLogger())

	order := placeTestOrder(t, svc, store)

	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.InDelta(t, 500, order.TotalAmount, 0.001)

	assert.Len(t, store.eventsOfType(models.EventOrderCreated), 1)
	assert.Len(t, store.eventsOfType(models.EventEmailOrderConfirmation), 1)
}

func TestPlaceOrderValidation(t *testing.T) {
	store := newFakeOrderStore()
	svc := NewOrderService(store, logger.NewNopLogger())
	ctx := context.Background()

	_, err := svc.PlaceOrder(ctx, testUser(), nil, models.Address{}, "")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = svc.PlaceOrder(ctx, testUser(), []models.OrderItem{{TrophyID: "trf-1", Quantity: 0, Price: 10}}, models.Address{}, "")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = svc.PlaceOrder(ctx, testUser(), []models.OrderItem{{TrophyID: "trf-1", Quantity: 1, Price: -5}}, models.Address{}, "")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	assert.Empty(t, store.events)
}

func TestRequestStatusChangeShipped(t *testing.T) {
	store := newFakeOrderStore()
	svc := NewOrderService(store, logger.NewNopLogger())
	ctx := context.Background()

	order := placeTestOrder(t, svc, store)

	updated, err := svc.RequestStatusChange(ctx, order.ID, "shipped", "Admin", "")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusShipped, updated.Status)
	assert.Len(t, store.eventsOfType(models.EventOrderStatusChanged), 1)

	// repeating the current status is a no-op, no second event
	again, err := svc.RequestStatusChange(ctx, order.ID, "Shipped", "Admin", "")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusShipped, again.Status)
	assert.Len(t, store.eventsOfType(models.EventOrderStatusChanged), 1)
}

func TestRequestStatusChangeUnknownStatus(t *testing.T) {
	store := newFakeOrderStore()
	svc := NewOrderService(store, logger.NewNopLogger())

	order := placeTestOrder(t, svc, store)

	_, err := svc.RequestStatusChange(context.Background(), order.ID, "delivered", "Admin", "")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestCompletionIsTwoPhase(t *testing.T) {
	store := newFakeOrderStore()
	svc := NewOrderService(store, logger.NewNopLogger())
	ctx := context.Background()

	order := placeTestOrder(t, svc, store)

	// phase one stores a code and does not change the status
	afterRequest, err := svc.RequestStatusChange(ctx, order.ID, "Completed", "Admin", "")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, afterRequest.Status)
	assert.True(t, afterRequest.HasPendingOTP())
	require.Len(t, store.eventsOfType(models.EventEmailOrderOTP), 1)

	// a wrong code leaves the order untouched
	_, err = svc.ConfirmCompletion(ctx, order.ID, "000000")
	assert.ErrorIs(t, err, apperrors.ErrOTPMismatch)

	current, err := svc.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, current.Status)
	assert.True(t, current.HasPendingOTP())

	// phase two with the stored code completes the order
	completed, err := svc.ConfirmCompletion(ctx, order.ID, current.OTP)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCompleted, completed.Status)
	assert.False(t, completed.HasPendingOTP())

	// resubmitting after success is rejected as an illegal state
	_, err = svc.ConfirmCompletion(ctx, order.ID, current.OTP)
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)
}

func TestConfirmCompletionWithoutRequest(t *testing.T) {
	store := newFakeOrderStore()
	svc := NewOrderService(store, logger.NewNopLogger())

	order := placeTestOrder(t, svc, store)

	_, err := svc.ConfirmCompletion(context.Background(), order.ID, "123456")
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)
}

func TestConfirmCompletionExpiredCode(t *testing.T) {
	store := newFakeOrderStore()
	svc := NewOrderService(store, logger.NewNopLogger())
	ctx := context.Background()

	order := placeTestOrder(t, svc, store)

	_, err := svc.RequestStatusChange(ctx, order.ID, "Completed", "Admin", "")
	require.NoError(t, err)

	stored := store.orders[order.ID]
	expired := models.GetCurrentTime().Add(-time.Minute)
	stored.OTPExpiry = &expired

	_, err = svc.ConfirmCompletion(ctx, order.ID, stored.OTP)
	assert.ErrorIs(t, err, apperrors.ErrOTPMismatch)

	assert.Equal(t, models.OrderStatusPending, store.orders[order.ID].Status)
}

func TestCancellationRetainsMessage(t *testing.T) {
	store := newFakeOrderStore()
	svc := NewOrderService(store, logger.NewNopLogger())
	ctx := context.Background()

	order := placeTestOrder(t, svc, store)

	cancelled, err := svc.RequestStatusChange(ctx, order.ID, "Cancelled", "Admin", "out of stock")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, cancelled.Status)
	assert.Equal(t, "out of stock", cancelled.Msg)

	// exactly one cancellation notification is enqueued
	emails := store.eventsOfType(models.EventEmailOrderCancelled)
	require.Len(t, emails, 1)

	stored, err := svc.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "out of stock", stored.Msg)
}

func TestCancellationWithoutReasonKeepsExistingMessage(t *testing.T) {
	store := newFakeOrderStore()
	svc := NewOrderService(store, logger.NewNopLogger())
	ctx := context.Background()

	order := placeTestOrder(t, svc, store)
	store.orders[order.ID].Msg = "deliver after 6pm"

	cancelled, err := svc.RequestStatusChange(ctx, order.ID, "Cancelled", "Admin", "")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, cancelled.Status)
	assert.Equal(t, "deliver after 6pm", cancelled.Msg)

	stored, err := svc.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "deliver after 6pm", stored.Msg)
}

func TestTerminalStatesRejectTransitions(t *testing.T) {
	store := newFakeOrderStore()
	svc := NewOrderService(store, logger.NewNopLogger())
	ctx := context.Background()

	order := placeTestOrder(t, svc, store)

	_, err := svc.RequestStatusChange(ctx, order.ID, "Cancelled", "Admin", "")
	require.NoError(t, err)

	_, err = svc.RequestStatusChange(ctx, order.ID, "Shipped", "Admin", "")
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)

	_, err = svc.RequestStatusChange(ctx, order.ID, "Completed", "Admin", "")
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)
}

func TestCancelByCustomer(t *testing.T) {
	store := newFakeOrderStore()
	svc := NewOrderService(store, logger.NewNopLogger())
	ctx := context.Background()

	owner := testUser()
	order, err := svc.PlaceOrder(ctx, owner, testItems(), models.Address{}, "")
	require.NoError(t, err)

	stranger := models.NewUser("Someone", "9000000000", "someone@example.com", "hash")
	_, err = svc.CancelByCustomer(ctx, order.ID, stranger, "changed my mind")
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	cancelled, err := svc.CancelByCustomer(ctx, order.ID, owner, "changed my mind")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, cancelled.Status)
	assert.Equal(t, "changed my mind", cancelled.Msg)

	// once cancelled, the customer cannot cancel again
	_, err = svc.CancelByCustomer(ctx, order.ID, owner, "again")
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)
}

func TestCancelByCustomerRequiresPending(t *testing.T) {
	store := newFakeOrderStore()
	svc := NewOrderService(store, logger.NewNopLogger())
	ctx := context.Background()

	owner := testUser()
	order, err := svc.PlaceOrder(ctx, owner, testItems(), models.Address{}, "")
	require.NoError(t, err)

	_, err = svc.RequestStatusChange(ctx, order.ID, "Shipped", "Admin", "")
	require.NoError(t, err)

	_, err = svc.CancelByCustomer(ctx, order.ID, owner, "too late")
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)
}

func TestConcurrentTransitionConflict(t *testing.T) {
	store := newFakeOrderStore()
	svc := NewOrderService(store, logger.NewNopLogger())
	ctx := context.Background()

	order := placeTestOrder(t, svc, store)

	// another writer moves the order after our read
	stored := store.orders[order.ID]
	stored.Status = models.OrderStatusShipped

	// the service read Pending, the guard sees Shipped
	store.orders[order.ID] = stored
	svcOrder, err := svc.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, models.OrderStatusShipped, svcOrder.Status)

	stored.Status = models.OrderStatusCancelled
	_, err = svc.RequestStatusChange(ctx, order.ID, "Completed", "Admin", "")
	assert.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidState) || errors.Is(err, apperrors.ErrConflict))
}

func TestGetMyOrders(t *testing.T) {
	store := newFakeOrderStore()
	svc := NewOrderService(store, logger.NewNopLogger())
	ctx := context.Background()

	owner := testUser()
	_, err := svc.PlaceOrder(ctx, owner, testItems(), models.Address{}, "")
	require.NoError(t, err)

	other := models.NewUser("Someone", "9000000000", "someone@example.com", "hash")
	_, err = svc.PlaceOrder(ctx, other, testItems(), models.Address{}, "")
	require.NoError(t, err)

	mine, err := svc.GetMyOrders(ctx, owner.Email)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	count, err := svc.CountOrders(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
