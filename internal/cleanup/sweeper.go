package cleanup

import (
	"context"
	"sync"
	"time"

	"github.com/mohd-saif-1850/trophy-store-api/pkg/logger"
)

// UserPurger deletes unverified accounts whose expiry has passed
type UserPurger interface {
	DeleteExpiredUnverified(ctx context.Context, now time.Time) (int64, error)
}

// Sweeper periodically removes unverified accounts that were never
// confirmed. It only ever targets rows that are both unverified and
// already expired, so running alongside sign-up needs no extra locking.
type Sweeper struct {
	users    UserPurger
	interval time.Duration
	logger   logger.Logger
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	running  bool
	mu       sync.Mutex
}

// NewSweeper creates a sweeper with the given interval
func NewSweeper(users UserPurger, interval time.Duration, logger logger.Logger) *Sweeper {
	ctx, cancel := context.WithCancel(context.Background())

	return &Sweeper{
		users:    users,
		interval: interval,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start begins the periodic sweep
func (s *Sweeper) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}

	s.running = true
	s.wg.Add(1)

	go func() {
		defer s.wg.Done()
		s.loop()
	}()

	s.logger.Info("User cleanup sweeper started", "interval", s.interval)
}

// Stop halts the sweep and waits for an in-flight pass to finish
func (s *Sweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	s.cancel()
	s.wg.Wait()
	s.running = false

	s.logger.Info("User cleanup sweeper stopped")
}

func (s *Sweeper) loop() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(s.ctx)
		}
	}
}

// Sweep runs one cleanup pass
func (s *Sweeper) Sweep(ctx context.Context) {
	deleted, err := s.users.DeleteExpiredUnverified(ctx, time.Now().UTC())

	if err != nil {
		s.logger.Error("Failed to clean unverified users", "error", err)
		return
	}

	if deleted > 0 {
		s.logger.Info("Deleted unverified users", "count", deleted)
	}
}
