// internal/app/system/workers/notificationretention.go
package workers

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ReadNotificationPurger deletes read notifications created before cutoff.
type ReadNotificationPurger interface {
	DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// NotificationRetention is a background worker that removes read
// notifications older than the retention window. Unread rows are never
// touched.
type NotificationRetention struct {
	store     ReadNotificationPurger
	log       *zap.Logger
	interval  time.Duration
	retention time.Duration
	now       func() time.Time
	stopCh    chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup
}

// NewNotificationRetention creates a new retention worker.
//
// Parameters:
//   - store: the notifications store
//   - logger: zap logger for logging
//   - interval: how often to sweep (e.g., 1 hour)
//   - retention: how long read notifications are kept (e.g., 90 days)
func NewNotificationRetention(store ReadNotificationPurger, logger *zap.Logger, interval, retention time.Duration) *NotificationRetention {
	return &NotificationRetention{
		store:     store,
		log:       logger,
		interval:  interval,
		retention: retention,
		now:       time.Now,
		stopCh:    make(chan struct{}),
	}
}

// Start runs one sweep immediately, then one per interval.
func (w *NotificationRetention) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("notification retention worker started",
		zap.Duration("interval", w.interval),
		zap.Duration("retention", w.retention))
}

// Stop signals the worker to stop and waits for it to finish. Safe to call twice.
func (w *NotificationRetention) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
	w.wg.Wait()
	w.log.Info("notification retention worker stopped")
}

func (w *NotificationRetention) run() {
	defer w.wg.Done()

	w.Sweep()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.Sweep()
		}
	}
}

// Sweep performs one retention pass and returns the number of rows removed.
func (w *NotificationRetention) Sweep() int64 {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cutoff := w.now().UTC().Add(-w.retention)
	count, err := w.store.DeleteReadBefore(ctx, cutoff)
	if err != nil {
		w.log.Error("failed to purge read notifications", zap.Error(err))
		return 0
	}

	if count > 0 {
		w.log.Info("purged read notifications",
			zap.Int64("count", count),
			zap.Time("cutoff", cutoff))
	}
	return count
}
