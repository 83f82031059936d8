package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/workconnect/server/internal/workconnect/store"
)

// RetentionPruner periodically deletes ledger entries whose 370-day expiry
// has passed. It stands in for the document database's TTL mechanism and
// runs as a background goroutine, safe to stop via its context or Stop.
type RetentionPruner struct {
	store    store.AttendanceStore
	interval time.Duration
	logger   logrus.FieldLogger
	cancel   context.CancelFunc
	done     chan struct{}
}

// RetentionConfig holds the parameters for NewRetentionPruner.
type RetentionConfig struct {
	// IntervalHours is how often the pruner runs. Defaults to 6.
	IntervalHours int
}

func NewRetentionPruner(s store.AttendanceStore, cfg RetentionConfig, logger logrus.FieldLogger) *RetentionPruner {
	interval := time.Duration(cfg.IntervalHours) * time.Hour
	if interval <= 0 {
		interval = 6 * time.Hour
	}

	return &RetentionPruner{
		store:    s,
		interval: interval,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Start begins the background pruning loop. It runs an immediate prune on
// startup, then repeats on the configured interval.
func (p *RetentionPruner) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)

	go p.loop(ctx)

	p.logger.WithField("interval", p.interval.String()).
		Info("retention pruner started")
}

// Stop signals the pruner to exit and waits for it to finish.
func (p *RetentionPruner) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	<-p.done
}

func (p *RetentionPruner) loop(ctx context.Context) {
	defer close(p.done)

	p.prune(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.prune(ctx)
		}
	}
}

func (p *RetentionPruner) prune(ctx context.Context) {
	deleted, err := p.store.PruneExpired(ctx, time.Now().UTC())
	if err != nil {
		p.logger.WithError(err).Error("retention prune failed")
		return
	}
	if deleted > 0 {
		p.logger.WithField("deleted", deleted).Info("expired ledger entries pruned")
	}
}
