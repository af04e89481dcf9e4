package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"sitepilot/internal/domain/model"
	"sitepilot/internal/domain/ports/repository"
	"sitepilot/internal/infra/metrics"
)

// PendingSweeper periodically marks stale pending payments as failed.
// A checkout the customer abandoned never gets a webhook, so without the
// sweeper those rows stay pending forever and pollute the heuristic
// matcher's candidate set.
type PendingSweeper struct {
	payments   repository.PaymentRepository
	interval   time.Duration
	staleAfter time.Duration
	log        *zerolog.Logger
}

func NewPendingSweeper(payments repository.PaymentRepository, interval, staleAfter time.Duration, logger *zerolog.Logger) *PendingSweeper {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if staleAfter <= 0 {
		staleAfter = 24 * time.Hour
	}
	return &PendingSweeper{payments: payments, interval: interval, staleAfter: staleAfter, log: logger}
}

func (w *PendingSweeper) Start(ctx context.Context) {
	t := time.NewTicker(w.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			w.tick(ctx)
		}
	}
}

func (w *PendingSweeper) tick(ctx context.Context) {
	cutoff := time.Now().Add(-w.staleAfter)
	pending, err := w.payments.ListPendingOlderThan(ctx, nil, cutoff, 200)
	if err != nil {
		w.log.Error().Err(err).Msg("pending-sweeper: list pending failed")
		return
	}
	for _, p := range pending {
		claimed, err := w.payments.ClaimPending(ctx, nil, p.ID, model.PaymentStatusFailed, "")
		if err != nil {
			w.log.Error().Err(err).Str("payment_id", p.ID).Msg("pending-sweeper: claim failed")
			continue
		}
		if !claimed {
			// A webhook landed between the list and the claim. Leave it.
			continue
		}
		metrics.IncPayment(string(model.PaymentStatusFailed))
		w.log.Info().Str("payment_id", p.ID).Time("created_at", p.CreatedAt).Msg("pending-sweeper: abandoned checkout marked failed")
	}
}
