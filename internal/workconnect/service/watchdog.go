package service

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/workconnect/server/internal/feed"
	"github.com/workconnect/server/internal/workconnect/store"
	"github.com/workconnect/server/internal/workconnect/types"
)

// AutoEndWatchdog force-ends shifts that stay open past MaxShiftDuration.
// It reacts to marker change events from the feed and additionally sweeps
// the open markers on an interval, so shifts left open while no events flow
// still get closed eventually.
//
// A per-user single-flight guard keeps a burst of change events from
// triggering concurrent force-ends for the same user. The guard is
// in-process only; the force-end itself goes through the same atomic shift
// transaction, so a lost race degrades to NOT_STARTED, never a double end.
type AutoEndWatchdog struct {
	attendance *AttendanceService
	store      store.AttendanceStore
	feed       *feed.Feed
	interval   time.Duration
	logger     logrus.FieldLogger

	now    func() time.Time
	cancel context.CancelFunc
	done   chan struct{}

	mu       sync.Mutex
	inFlight map[string]bool
}

// WatchdogConfig holds the parameters for NewAutoEndWatchdog.
type WatchdogConfig struct {
	// SweepIntervalMinutes is how often the fallback sweep runs.
	// Defaults to 15.
	SweepIntervalMinutes int
}

func NewAutoEndWatchdog(att *AttendanceService, st store.AttendanceStore, f *feed.Feed, cfg WatchdogConfig, logger logrus.FieldLogger) *AutoEndWatchdog {
	interval := time.Duration(cfg.SweepIntervalMinutes) * time.Minute
	if interval <= 0 {
		interval = 15 * time.Minute
	}

	return &AutoEndWatchdog{
		attendance: att,
		store:      st,
		feed:       f,
		interval:   interval,
		logger:     logger,
		now:        time.Now,
		done:       make(chan struct{}),
		inFlight:   make(map[string]bool),
	}
}

// Start begins the background loop. It runs an immediate sweep on startup,
// then reacts to feed events and repeats the sweep on the configured
// interval. The loop exits when ctx is cancelled or Stop is called.
func (w *AutoEndWatchdog) Start(ctx context.Context) {
	ctx, w.cancel = context.WithCancel(ctx)

	events, unsubscribe := w.feed.Subscribe()
	go w.loop(ctx, events, unsubscribe)

	w.logger.WithField("sweepInterval", w.interval.String()).
		Info("auto-end watchdog started")
}

// Stop signals the watchdog to exit and waits for it to finish.
func (w *AutoEndWatchdog) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	<-w.done
}

func (w *AutoEndWatchdog) loop(ctx context.Context, events <-chan feed.MarkerEvent, unsubscribe func()) {
	defer close(w.done)
	defer unsubscribe()

	w.sweep(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if ev.Marker != nil && w.expired(ev.Marker.StartedAt) {
				w.forceEnd(ctx, ev.UserID)
			}
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *AutoEndWatchdog) sweep(ctx context.Context) {
	cutoff := w.now().UTC().Add(-MaxShiftDuration)
	markers, err := w.store.OpenShiftsOlderThan(ctx, cutoff)
	if err != nil {
		w.logger.WithError(err).Error("auto-end sweep failed")
		return
	}
	for _, m := range markers {
		w.forceEnd(ctx, m.UserID)
	}
}

func (w *AutoEndWatchdog) expired(startedAt time.Time) bool {
	return w.now().UTC().Sub(startedAt) > MaxShiftDuration
}

func (w *AutoEndWatchdog) forceEnd(ctx context.Context, userID string) {
	w.mu.Lock()
	if w.inFlight[userID] {
		w.mu.Unlock()
		return
	}
	w.inFlight[userID] = true
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		delete(w.inFlight, userID)
		w.mu.Unlock()
	}()

	res, err := w.attendance.EndShiftAt(ctx, userID, w.now().UTC(), nil)
	if err != nil {
		w.logger.WithError(err).WithField("userId", userID).
			Error("auto-end failed")
		return
	}
	if res == types.ShiftEnded {
		w.logger.WithField("userId", userID).Info("shift auto-ended")
	}
}
