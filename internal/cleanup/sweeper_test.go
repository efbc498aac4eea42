package cleanup

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mohd-saif-1850/trophy-store-api/pkg/logger"
)

type fakePurger struct {
	mu      sync.Mutex
	calls   int
	deleted int64
	err     error
}

func (f *fakePurger) DeleteExpiredUnverified(ctx context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.deleted, f.err
}

func (f *fakePurger) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestSweepCallsPurger(t *testing.T) {
	purger := &fakePurger{deleted: 2}
	s := NewSweeper(purger, time.Minute, logger.NewNopLogger())

	s.Sweep(context.Background())

	assert.Equal(t, 1, purger.callCount())
}

func TestSweepLogsErrorAndContinues(t *testing.T) {
	purger := &fakePurger{err: errors.New("db down")}
	s := NewSweeper(purger, time.Minute, logger.NewNopLogger())

	// must not panic or propagate
	s.Sweep(context.Background())
	s.Sweep(context.Background())

	assert.Equal(t, 2, purger.callCount())
}

func TestSweeperLifecycle(t *testing.T) {
	purger := &fakePurger{}
	s := NewSweeper(purger, 10*time.Millisecond, logger.NewNopLogger())

	s.Start()
	// a second Start is a no-op
	s.Start()

	time.Sleep(35 * time.Millisecond)
	s.Stop()

	calls := purger.callCount()
	assert.GreaterOrEqual(t, calls, 1)

	// no more sweeps after Stop
	time.Sleep(25 * time.Millisecond)
	assert.Equal(t, calls, purger.callCount())
}
