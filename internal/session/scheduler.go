package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultCleanupAfter is how long a session lives before cleanup.
const DefaultCleanupAfter = 30 * time.Minute

const defaultCleanupTimeout = 30 * time.Second

// CleanupFunc releases a backend session.
type CleanupFunc func(ctx context.Context, sessionID string) error

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithCleanupTimeout bounds each cleanup request.
func WithCleanupTimeout(d time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithOnCleanup registers a hook that runs after every fired cleanup.
func WithOnCleanup(fn func(sessionID string, err error)) SchedulerOption {
	return func(s *Scheduler) { s.onDone = fn }
}

type pending struct {
	timer *time.Timer
	gen   uint64
}

// Scheduler arms one delayed cleanup per session. Cleanups are
// fire-and-forget; failures are logged.
type Scheduler struct {
	fn      CleanupFunc
	after   time.Duration
	timeout time.Duration
	onDone  func(string, error)

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	timers  map[string]pending
	gen     uint64
	stopped bool
	wg      sync.WaitGroup
}

// NewScheduler creates a Scheduler that calls fn after the given delay.
// A non-positive delay uses DefaultCleanupAfter.
func NewScheduler(fn CleanupFunc, after time.Duration, opts ...SchedulerOption) *Scheduler {
	if after <= 0 {
		after = DefaultCleanupAfter
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		fn:      fn,
		after:   after,
		timeout: defaultCleanupTimeout,
		ctx:     ctx,
		cancel:  cancel,
		timers:  make(map[string]pending),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Schedule arms cleanup for sessionID, re-arming an existing timer.
// It is a no-op after Stop.
func (s *Scheduler) Schedule(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	if p, ok := s.timers[sessionID]; ok {
		p.timer.Stop()
	}
	s.gen++
	gen := s.gen
	s.timers[sessionID] = pending{
		timer: time.AfterFunc(s.after, func() { s.fire(sessionID, gen) }),
		gen:   gen,
	}
	zap.L().Debug("session: cleanup scheduled",
		zap.String("session_id", sessionID),
		zap.Duration("after", s.after),
	)
}

// Cancel disarms cleanup for sessionID. It reports whether a timer was armed.
func (s *Scheduler) Cancel(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.timers[sessionID]
	if !ok {
		return false
	}
	p.timer.Stop()
	delete(s.timers, sessionID)
	return true
}

// Pending returns the number of armed timers.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Stop disarms every timer, aborts running cleanups and waits for them.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	for id, p := range s.timers {
		p.timer.Stop()
		delete(s.timers, id)
	}
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
}

func (s *Scheduler) fire(sessionID string, gen uint64) {
	s.mu.Lock()
	p, ok := s.timers[sessionID]
	if s.stopped || !ok || p.gen != gen {
		s.mu.Unlock()
		return
	}
	delete(s.timers, sessionID)
	s.wg.Add(1)
	s.mu.Unlock()
	defer s.wg.Done()

	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	err := s.fn(ctx, sessionID)
	if err != nil {
		zap.L().Warn("session: cleanup failed",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
	} else {
		zap.L().Info("session: cleaned up", zap.String("session_id", sessionID))
	}
	if s.onDone != nil {
		s.onDone(sessionID, err)
	}
}
