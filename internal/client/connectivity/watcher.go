// Package connectivity tracks whether the server is reachable by probing
// its health endpoint and publishes online/offline transitions.
package connectivity

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/notesync/internal/client/signals"
	"github.com/dmitrijs2005/notesync/internal/logging"
)

// Pinger probes the server.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Watcher starts in the offline state.
type Watcher struct {
	pinger   Pinger
	bus      *signals.Bus
	logger   logging.Logger
	interval time.Duration
	timeout  time.Duration

	online atomic.Bool
}

func NewWatcher(p Pinger, bus *signals.Bus, logger logging.Logger, interval time.Duration) *Watcher {
	return &Watcher{
		pinger:   p,
		bus:      bus,
		logger:   logger,
		interval: interval,
		timeout:  3 * time.Second,
	}
}

func (w *Watcher) Online() bool {
	return w.online.Load()
}

// Check probes once and publishes a signal if the state changed.
func (w *Watcher) Check(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	err := w.pinger.Ping(ctx)
	cancel()

	up := err == nil
	if w.online.Swap(up) == up {
		return up
	}

	if up {
		w.logger.Info(ctx, "server reachable, switched to online mode")
		w.bus.Publish(signals.Online)
	} else {
		w.logger.Warn(ctx, "server unreachable, switched to offline mode", "error", err)
		w.bus.Publish(signals.Offline)
	}
	return up
}

// Run probes immediately and then on every interval until ctx is done.
func (w *Watcher) Run(ctx context.Context) {
	w.Check(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.Check(ctx)
		case <-ctx.Done():
			return
		}
	}
}
