package outbox

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohd-saif-1850/trophy-store-api/internal/models"
	"github.com/mohd-saif-1850/trophy-store-api/pkg/logger"
)

// fakeOutboxStore keeps messages in memory with outbox status semantics
type fakeOutboxStore struct {
	messages map[int64]*models.OutboxMessage
	nextID   int64
}

func newFakeOutboxStore() *fakeOutboxStore {
	return &fakeOutboxStore{messages: make(map[int64]*models.OutboxMessage), nextID: 1}
}

func (f *fakeOutboxStore) add(eventType string) *models.OutboxMessage {
	msg := &models.OutboxMessage{
		ID:            f.nextID,
		AggregateType: models.AggregateNotification,
		AggregateID:   "ord-1",
		EventType:     eventType,
		Payload:       []byte(`{}`),
		Status:        models.OutboxStatusPending,
		CreatedAt:     time.Now().UTC(),
	}
	f.messages[f.nextID] = msg
	f.nextID++
	return msg
}

func (f *fakeOutboxStore) GetPendingMessages(ctx context.Context, limit int) ([]*models.OutboxMessage, error) {
	var out []*models.OutboxMessage
	for _, msg := range f.messages {
		if msg.Status == models.OutboxStatusPending {
			cp := *msg
			out = append(out, &cp)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeOutboxStore) MarkAsProcessing(ctx context.Context, id int64) error {
	msg := f.messages[id]
	msg.Status = models.OutboxStatusProcessing
	msg.ProcessingAttempts++
	return nil
}

func (f *fakeOutboxStore) MarkAsPending(ctx context.Context, id int64, lastError string) error {
	msg := f.messages[id]
	msg.Status = models.OutboxStatusPending
	msg.LastError = &lastError
	return nil
}

func (f *fakeOutboxStore) MarkAsCompleted(ctx context.Context, id int64) error {
	f.messages[id].Status = models.OutboxStatusCompleted
	return nil
}

func (f *fakeOutboxStore) MarkAsFailed(ctx context.Context, id int64, errorMessage string) error {
	msg := f.messages[id]
	msg.Status = models.OutboxStatusFailed
	msg.LastError = &errorMessage
	return nil
}

type fakeDeadLetterStore struct {
	created []*models.DeadLetterMessage
}

func (f *fakeDeadLetterStore) Create(ctx context.Context, msg *models.DeadLetterMessage) error {
	f.created = append(f.created, msg)
	return nil
}

// countingHandler fails a fixed number of times before succeeding
type countingHandler struct {
	failures int
	calls    int
}

func (h *countingHandler) HandleMessage(ctx context.Context, message *models.OutboxMessage) error {
	h.calls++
	if h.calls <= h.failures {
		return errors.New("downstream unavailable")
	}
	return nil
}

func newTestProcessor(store *fakeOutboxStore, dlq *fakeDeadLetterStore) *Processor {
	return NewProcessor(store, dlq, ProcessorConfig{
		PollingInterval: time.Second,
		BatchSize:       10,
		MaxRetries:      3,
	}, logger.NewNopLogger())
}

func TestProcessBatchDispatchesByEventType(t *testing.T) {
	store := newFakeOutboxStore()
	dlq := &fakeDeadLetterStore{}
	p := newTestProcessor(store, dlq)

	orderHandler := &countingHandler{}
	emailHandler := &countingHandler{}
	p.RegisterHandler(models.EventOrderCreated, orderHandler)
	p.RegisterHandler(models.EventEmailOrderConfirmation, emailHandler)

	orderMsg := store.add(models.EventOrderCreated)
	emailMsg := store.add(models.EventEmailOrderConfirmation)

	require.NoError(t, p.ProcessBatch(context.Background()))

	assert.Equal(t, 1, orderHandler.calls)
	assert.Equal(t, 1, emailHandler.calls)
	assert.Equal(t, models.OutboxStatusCompleted, store.messages[orderMsg.ID].Status)
	assert.Equal(t, models.OutboxStatusCompleted, store.messages[emailMsg.ID].Status)
}

func TestProcessBatchRequeuesFailures(t *testing.T) {
	store := newFakeOutboxStore()
	dlq := &fakeDeadLetterStore{}
	p := newTestProcessor(store, dlq)

	handler := &countingHandler{failures: 1}
	p.RegisterHandler(models.EventEmailOrderOTP, handler)

	msg := store.add(models.EventEmailOrderOTP)

	// first pass fails and requeues
	require.NoError(t, p.ProcessBatch(context.Background()))
	assert.Equal(t, models.OutboxStatusPending, store.messages[msg.ID].Status)
	require.NotNil(t, store.messages[msg.ID].LastError)

	// second pass succeeds
	require.NoError(t, p.ProcessBatch(context.Background()))
	assert.Equal(t, models.OutboxStatusCompleted, store.messages[msg.ID].Status)
	assert.Empty(t, dlq.created)
}

func TestProcessBatchDeadLettersAfterMaxRetries(t *testing.T) {
	store := newFakeOutboxStore()
	dlq := &fakeDeadLetterStore{}
	p := newTestProcessor(store, dlq)

	handler := &countingHandler{failures: 100}
	p.RegisterHandler(models.EventEmailOrderOTP, handler)

	msg := store.add(models.EventEmailOrderOTP)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.NoError(t, p.ProcessBatch(ctx))
	}

	assert.Equal(t, 3, handler.calls)
	assert.Equal(t, models.OutboxStatusFailed, store.messages[msg.ID].Status)
	require.Len(t, dlq.created, 1)
	assert.Equal(t, msg.ID, dlq.created[0].OriginalMessageID)

	// failed messages are not picked up again
	require.NoError(t, p.ProcessBatch(ctx))
	assert.Equal(t, 3, handler.calls)
}

func TestProcessBatchUnknownEventTypeFails(t *testing.T) {
	store := newFakeOutboxStore()
	dlq := &fakeDeadLetterStore{}
	p := newTestProcessor(store, dlq)

	msg := store.add("unknown_event")

	require.NoError(t, p.ProcessBatch(context.Background()))
	assert.Equal(t, models.OutboxStatusFailed, store.messages[msg.ID].Status)
}

func TestProcessorStartStop(t *testing.T) {
	store := newFakeOutboxStore()
	dlq := &fakeDeadLetterStore{}

	p := NewProcessor(store, dlq, ProcessorConfig{
		PollingInterval: 10 * time.Millisecond,
		BatchSize:       10,
		MaxRetries:      3,
	}, logger.NewNopLogger())

	handler := &countingHandler{}
	p.RegisterHandler(models.EventOrderCreated, handler)
	store.add(models.EventOrderCreated)

	p.Start()
	time.Sleep(50 * time.Millisecond)
	p.Stop()

	assert.Equal(t, 1, handler.calls)
}
