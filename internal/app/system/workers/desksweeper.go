// internal/app/system/workers/desksweeper.go
package workers

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// DeskSource is the registry of open desks.
type DeskSource interface {
	Sweep(maxIdle time.Duration) []string
}

// Forgetter drops a desk's pending toasts. Queues without it (Redis) expire
// their keys on their own.
type Forgetter interface {
	Forget(deskID string)
}

// DeskSweeper is a background worker that closes desks nobody has used for
// a while, together with their queued toasts.
type DeskSweeper struct {
	desks   DeskSource
	queue   Forgetter
	log     *zap.Logger
	every   time.Duration
	maxIdle time.Duration
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewDeskSweeper creates a sweeper. queue may be nil.
//
// Parameters:
//   - every: how often to sweep (e.g., 1 minute)
//   - maxIdle: how long a desk may go unused before it is closed (e.g., 30 minutes)
func NewDeskSweeper(desks DeskSource, queue Forgetter, logger *zap.Logger, every, maxIdle time.Duration) *DeskSweeper {
	return &DeskSweeper{
		desks:   desks,
		queue:   queue,
		log:     logger,
		every:   every,
		maxIdle: maxIdle,
		stopCh:  make(chan struct{}),
	}
}

// Start begins the background sweep loop.
func (w *DeskSweeper) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("desk sweeper started",
		zap.Duration("interval", w.every),
		zap.Duration("max_idle", w.maxIdle))
}

// Stop signals the worker to stop and waits for it to finish.
func (w *DeskSweeper) Stop() {
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("desk sweeper stopped")
}

func (w *DeskSweeper) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.every)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.SweepOnce()
		}
	}
}

// SweepOnce closes the idle desks now and returns how many were closed.
func (w *DeskSweeper) SweepOnce() int {
	ids := w.desks.Sweep(w.maxIdle)
	if w.queue != nil {
		for _, id := range ids {
			w.queue.Forget(id)
		}
	}
	if len(ids) > 0 {
		w.log.Info("closed idle desks", zap.Int("count", len(ids)))
	}
	return len(ids)
}
