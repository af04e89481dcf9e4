package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"sitepilot/internal/domain"
	"sitepilot/internal/domain/model"
	"sitepilot/internal/domain/ports/repository"
	"sitepilot/internal/infra/gateway"
	"sitepilot/internal/infra/metrics"
)

// MatchResult identifies the user and plan behind a captured-payment event,
// plus the local payment row when one was found.
type MatchResult struct {
	UserID       string
	PlanID       string
	PlanName     string
	BillingCycle model.BillingCycle
	PaymentID    string // empty when no local pending row matched
	Degraded     bool   // user resolved but plan unknown; sentinel substituted
}

// PaymentMatcher correlates a gateway event with a local pending payment.
// Correlation notes are the deterministic path; when the gateway drops them
// the matcher falls back to amount+recency against pending rows. Two pending
// payments of the same amount inside the window are indistinguishable; the
// newest wins.
type PaymentMatcher struct {
	payments repository.PaymentRepository
	window   time.Duration
	log      *zerolog.Logger
}

func NewPaymentMatcher(payments repository.PaymentRepository, window time.Duration, logger *zerolog.Logger) *PaymentMatcher {
	if window <= 0 {
		window = time.Hour
	}
	return &PaymentMatcher{payments: payments, window: window, log: logger}
}

// Match resolves the event inside the caller's transaction. Returns
// domain.ErrNoMatch when no user can be resolved by either path; the
// gateway's own retry policy covers that case.
func (m *PaymentMatcher) Match(ctx context.Context, tx repository.Tx, entity *gateway.Entity) (*MatchResult, error) {
	userID := entity.Notes[gateway.NoteUserID]
	planID := entity.Notes[gateway.NotePlanID]

	if userID != "" && planID != "" {
		res := &MatchResult{
			UserID:       userID,
			PlanID:       planID,
			PlanName:     entity.Notes[gateway.NotePlanName],
			BillingCycle: model.ParseBillingCycle(entity.Notes[gateway.NoteBillingCycle]),
		}
		if p := m.findLocalRow(ctx, tx, entity); p != nil {
			res.PaymentID = p.ID
		}
		return res, nil
	}

	// Heuristic fallback: pending rows, exact amount, recency window.
	var row *model.Payment
	if p := m.findLocalRow(ctx, tx, entity); p != nil {
		row = p
	} else {
		cutoff := time.Now().Add(-m.window)
		candidates, err := m.payments.FindPendingByAmount(ctx, tx, entity.Amount, cutoff, 1)
		if err != nil && err != domain.ErrNotFound {
			return nil, err
		}
		if len(candidates) > 0 {
			row = candidates[0]
		}
		metrics.IncMatchFallback(row != nil)
	}

	res := &MatchResult{UserID: userID, PlanID: planID}
	if row != nil {
		if res.UserID == "" {
			res.UserID = row.UserID
		}
		if res.PlanID == "" {
			res.PlanID = row.PlanID
		}
		res.PlanName = row.PlanName
		res.BillingCycle = row.BillingCycle
		res.PaymentID = row.ID
	}
	if res.UserID == "" {
		return nil, domain.ErrNoMatch
	}
	if res.PlanID == "" {
		// User found but plan lost. Record the payment under the sentinel
		// plan rather than dropping it.
		res.PlanID = model.SentinelPlanID
		res.PlanName = model.SentinelPlanID
		res.BillingCycle = model.BillingCycleMonthly
		res.Degraded = true
		metrics.IncDegradedMatch()
		m.log.Warn().Str("user_id", userID).Str("gateway_payment_id", entity.ID).
			Msg("payment matched without plan metadata; recording under sentinel plan")
	}
	return res, nil
}

// findLocalRow looks up the local row by the gateway identifiers present on
// the entity. A row already carrying this gateway payment id is a redelivery
// and is returned whatever its status, so replays converge on the same row
// instead of minting a duplicate.
func (m *PaymentMatcher) findLocalRow(ctx context.Context, tx repository.Tx, entity *gateway.Entity) *model.Payment {
	if entity.ID != "" {
		if p, err := m.payments.FindByGatewayPaymentID(ctx, tx, entity.ID); err == nil {
			return p
		}
	}
	if entity.OrderID != "" {
		if p, err := m.payments.FindByGatewayOrderID(ctx, tx, entity.OrderID); err == nil && p.Status == model.PaymentStatusPending {
			return p
		}
	}
	if entity.PaymentLinkID != "" {
		if p, err := m.payments.FindByGatewayPaymentLinkID(ctx, tx, entity.PaymentLinkID); err == nil && p.Status == model.PaymentStatusPending {
			return p
		}
	}
	return nil
}
