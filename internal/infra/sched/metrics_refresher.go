package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"sitepilot/internal/domain/ports/repository"
	"sitepilot/internal/infra/metrics"
)

// MetricsRefresher periodically republishes the subscription counts as the
// subscriptions_total gauge. Counts come from the database so restarts and
// out-of-band changes never leave the gauge stale.
type MetricsRefresher struct {
	subs     repository.SubscriptionRepository
	interval time.Duration
	log      *zerolog.Logger
}

func NewMetricsRefresher(subs repository.SubscriptionRepository, interval time.Duration, logger *zerolog.Logger) *MetricsRefresher {
	if interval <= 0 {
		interval = time.Minute
	}
	return &MetricsRefresher{subs: subs, interval: interval, log: logger}
}

func (r *MetricsRefresher) Start(ctx context.Context) {
	r.tick(ctx)
	t := time.NewTicker(r.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.tick(ctx)
		}
	}
}

func (r *MetricsRefresher) tick(ctx context.Context) {
	counts, err := r.subs.CountByStatus(ctx, nil)
	if err != nil {
		r.log.Error().Err(err).Msg("metrics-refresher: count by status failed")
		return
	}
	metrics.SetSubscriptionsTotal(counts)
}
