package reconcile

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/notesync/internal/client/signals"
	"github.com/dmitrijs2005/notesync/internal/logging"
)

// DefaultInterval is the period of the background flush.
const DefaultInterval = 30 * time.Second

// Target is one reconcilable entity kind. *Engine implements it.
type Target interface {
	Name() string
	Pull(ctx context.Context, ownerID string) error
	FlushPending(ctx context.Context, ownerID string) (FlushReport, error)
}

type SchedulerConfig struct {
	// Owner returns the signed-in user id, "" when signed out.
	Owner func() string
	// Online reports connectivity; nil means always online.
	Online   func() bool
	Bus      *signals.Bus
	Interval time.Duration
	Logger   logging.Logger
}

// Scheduler runs the targets in response to triggers. At most one run is
// active at any time; a trigger that finds a run in progress is dropped.
type Scheduler struct {
	targets  []Target
	owner    func() string
	online   func() bool
	bus      *signals.Bus
	interval time.Duration
	logger   logging.Logger

	busy atomic.Bool
	wg   sync.WaitGroup

	// mu guards baseCtx and stopping, and orders wg.Add before Wait.
	mu       sync.Mutex
	baseCtx  context.Context
	stopping bool
}

func NewScheduler(cfg SchedulerConfig, targets ...Target) *Scheduler {
	s := &Scheduler{
		targets:  targets,
		owner:    cfg.Owner,
		online:   cfg.Online,
		bus:      cfg.Bus,
		interval: cfg.Interval,
		logger:   cfg.Logger,
		baseCtx:  context.Background(),
	}
	if s.online == nil {
		s.online = func() bool { return true }
	}
	if s.interval <= 0 {
		s.interval = DefaultInterval
	}
	if s.logger == nil {
		s.logger = logging.Discard()
	}
	if s.bus == nil {
		s.bus = signals.NewBus()
	}
	return s
}

// Busy reports whether a run is in progress.
func (s *Scheduler) Busy() bool {
	return s.busy.Load()
}

// OnAuthAvailable pulls every target and then flushes it.
func (s *Scheduler) OnAuthAvailable(ctx context.Context) bool {
	return s.exclusive(ctx, "auth-available", s.pullThenFlush)
}

// OnReconnect flushes every target and then pulls it.
func (s *Scheduler) OnReconnect(ctx context.Context) bool {
	return s.exclusive(ctx, "reconnect", s.flushThenPull)
}

// SyncNow is the user-requested full sync: flush, then pull.
func (s *Scheduler) SyncNow(ctx context.Context) bool {
	return s.exclusive(ctx, "manual", s.flushThenPull)
}

// Tick flushes every target while online.
func (s *Scheduler) Tick(ctx context.Context) bool {
	if !s.online() {
		return false
	}
	return s.exclusive(ctx, "interval", s.flush)
}

// OnLocalMutation starts a flush in the background and returns at once.
// Once Run is shutting down the mutation is left for the next session.
func (s *Scheduler) OnLocalMutation() {
	s.mu.Lock()
	if s.stopping {
		s.mu.Unlock()
		s.logger.Debug(context.Background(), "scheduler stopping, local mutation not flushed")
		return
	}
	ctx := s.baseCtx
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		s.exclusive(ctx, "local-mutation", s.flush)
	}()
}

// Wait blocks until background flushes started by OnLocalMutation end.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

// Run dispatches bus signals and interval ticks until ctx is done. A
// restored session is synced right away.
func (s *Scheduler) Run(ctx context.Context) {
	s.mu.Lock()
	s.baseCtx = ctx
	s.mu.Unlock()
	defer s.stop()

	events, unsubscribe := s.bus.Subscribe(16)
	defer unsubscribe()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	if s.owner() != "" {
		s.OnAuthAvailable(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick(ctx)
		case sig, ok := <-events:
			if !ok {
				return
			}
			switch sig {
			case signals.AuthChanged:
				s.OnAuthAvailable(ctx)
			case signals.Online:
				s.OnReconnect(ctx)
			}
		}
	}
}

// stop refuses new background flushes and waits for the running ones.
func (s *Scheduler) stop() {
	s.mu.Lock()
	s.stopping = true
	s.mu.Unlock()

	s.Wait()
}

// exclusive runs fn unless another run is active. The run is detached
// from ctx's cancellation so a started flush is not cut off mid-row.
func (s *Scheduler) exclusive(ctx context.Context, trigger string, fn func(ctx context.Context, ownerID string)) bool {
	ownerID := s.owner()
	if ownerID == "" {
		return false
	}

	if !s.busy.CompareAndSwap(false, true) {
		s.logger.Debug(ctx, "sync in progress, trigger dropped", "trigger", trigger)
		return false
	}
	defer s.busy.Store(false)

	s.logger.Debug(ctx, "sync started", "trigger", trigger)
	fn(context.WithoutCancel(ctx), ownerID)
	return true
}

func (s *Scheduler) pullThenFlush(ctx context.Context, ownerID string) {
	for _, t := range s.targets {
		s.pull(ctx, t, ownerID)
		s.flushTarget(ctx, t, ownerID)
	}
}

func (s *Scheduler) flushThenPull(ctx context.Context, ownerID string) {
	for _, t := range s.targets {
		s.flushTarget(ctx, t, ownerID)
		s.pull(ctx, t, ownerID)
	}
}

func (s *Scheduler) flush(ctx context.Context, ownerID string) {
	for _, t := range s.targets {
		s.flushTarget(ctx, t, ownerID)
	}
}

func (s *Scheduler) pull(ctx context.Context, t Target, ownerID string) {
	if err := t.Pull(ctx, ownerID); err != nil {
		s.logger.Warn(ctx, "pull failed, keeping local data", "kind", t.Name(), "error", err)
	}
}

func (s *Scheduler) flushTarget(ctx context.Context, t Target, ownerID string) {
	if _, err := t.FlushPending(ctx, ownerID); err != nil {
		s.logger.Error(ctx, "flush failed", "kind", t.Name(), "error", err)
	}
}
