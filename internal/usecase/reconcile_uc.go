package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"sitepilot/internal/domain"
	"sitepilot/internal/domain/model"
	"sitepilot/internal/domain/ports/repository"
	"sitepilot/internal/infra/gateway"
	"sitepilot/internal/infra/logging"
	"sitepilot/internal/infra/metrics"
	"sitepilot/internal/infra/redis"
)

// Compile-time check
var _ ReconcileUseCase = (*reconcileUC)(nil)

// ReconcileUseCase converges subscription and website state from gateway
// webhook events. Events arrive at-least-once and possibly out of order;
// every write path is an upsert or a conditional claim so replays converge
// to the same state.
type ReconcileUseCase interface {
	// HandleEvent dispatches a verified webhook envelope. A nil error means
	// the event was handled or deliberately ignored; domain.ErrNoMatch means
	// the event could not be correlated to a user.
	HandleEvent(ctx context.Context, env *gateway.Envelope) error
}

type reconcileUC struct {
	payments repository.PaymentRepository
	subs     repository.SubscriptionRepository
	profiles repository.ProfileRepository
	tm       repository.TransactionManager
	matcher  *PaymentMatcher
	locker   redis.Locker
	sites    *WebsiteActivator
	notifier *Notifier
	catalog  *PlanCatalog
	log      *zerolog.Logger
}

func NewReconcileUseCase(
	payments repository.PaymentRepository,
	subs repository.SubscriptionRepository,
	profiles repository.ProfileRepository,
	tm repository.TransactionManager,
	matcher *PaymentMatcher,
	locker redis.Locker,
	sites *WebsiteActivator,
	notifier *Notifier,
	catalog *PlanCatalog,
	logger *zerolog.Logger,
) *reconcileUC {
	return &reconcileUC{
		payments: payments,
		subs:     subs,
		profiles: profiles,
		tm:       tm,
		matcher:  matcher,
		locker:   locker,
		sites:    sites,
		notifier: notifier,
		catalog:  catalog,
		log:      logger,
	}
}

func (u *reconcileUC) HandleEvent(ctx context.Context, env *gateway.Envelope) error {
	ctx = logging.WithEvent(ctx, env.Event)
	defer logging.TraceDuration(logging.With(ctx, u.log), "ReconcileUC.HandleEvent")()

	switch {
	case env.Event == gateway.EventPaymentCaptured:
		return u.handleCaptured(ctx, env.Payment(), "", false)

	case env.Event == gateway.EventPaymentLinkPaid:
		return u.handlePaymentLinkPaid(ctx, env)

	case env.Event == gateway.EventPaymentFailed:
		return u.handleOneOffFailed(ctx, env.Payment())

	case env.Event == gateway.EventInvoicePaymentFailed:
		return u.handleChargeRetryFailed(ctx, env.Invoice())

	case env.Event == gateway.EventSubscriptionPending:
		return u.handleChargeRetryFailed(ctx, env.Subscription())

	case env.Event == gateway.EventSubscriptionCharged:
		return u.handleSubscriptionCharged(ctx, env)

	case gateway.IsSubscriptionEvent(env.Event):
		return u.handleSubscriptionLifecycle(ctx, env.Subscription())

	default:
		// Unrecognized events are acknowledged and ignored.
		u.log.Debug().Str("event", env.Event).Msg("ignoring unrecognized webhook event")
		return nil
	}
}

// handleCaptured is the shared success path for one-off captures, paid
// payment links and recurring charges.
func (u *reconcileUC) handleCaptured(ctx context.Context, entity *gateway.Entity, gatewaySubID string, autopay bool) error {
	if entity == nil {
		return domain.ErrInvalidArgument
	}
	log := logging.With(ctx, u.log)

	// When the event carries no usable notes the matcher has to guess by
	// amount. Serialize deliveries per amount bucket so two copies of the
	// same event cannot both claim a pending row.
	if entity.Notes[gateway.NoteUserID] == "" || entity.Notes[gateway.NotePlanID] == "" {
		key := fmt.Sprintf("payment-match:amount:%d", entity.Amount)
		token, err := u.locker.TryLock(ctx, key, 10*time.Second)
		if err == nil {
			defer func() { _ = u.locker.Unlock(context.Background(), key, token) }()
		} else {
			log.Warn().Err(err).Str("key", key).Msg("match lock unavailable; continuing with row locks only")
		}
	}

	var (
		match   *MatchResult
		payment *model.Payment
	)
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		m, err := u.matcher.Match(ctx, tx, entity)
		if err != nil {
			return err
		}
		match = m

		if m.PaymentID != "" {
			claimed, err := u.payments.ClaimPending(ctx, tx, m.PaymentID, model.PaymentStatusSuccess, entity.ID)
			if err != nil {
				return err
			}
			if !claimed {
				// Duplicate delivery: the row already left pending. The
				// subscription upsert below is idempotent, so continue.
				log.Info().Str("payment_id", m.PaymentID).Msg("payment already claimed; replaying subscription upsert")
			}
			payment, err = u.payments.FindByID(ctx, tx, m.PaymentID)
			if err != nil {
				return err
			}
		} else {
			// No local pending row (checkout happened elsewhere, or a
			// previous heuristic claim consumed it). Record the capture
			// anyway; duplicate payment rows are an accepted limitation.
			payment = &model.Payment{
				ID:                    ulid.Make().String(),
				UserID:                m.UserID,
				GatewayOrderID:        entity.OrderID,
				GatewayPaymentID:      entity.ID,
				GatewayPaymentLinkID:  entity.PaymentLinkID,
				GatewaySubscriptionID: gatewaySubID,
				Amount:                entity.Amount,
				Currency:              entity.Currency,
				Status:                model.PaymentStatusSuccess,
				PlanID:                m.PlanID,
				PlanName:              m.PlanName,
				BillingCycle:          m.BillingCycle,
				ContactEmail:          entity.Email,
				ContactPhone:          entity.Contact,
				CreatedAt:             time.Now(),
				UpdatedAt:             time.Now(),
			}
			if err := u.payments.Save(ctx, tx, payment); err != nil {
				return err
			}
		}

		sub, err := model.NewActiveSubscription(
			uuid.NewString(), m.UserID, m.PlanID, m.PlanName, m.BillingCycle,
			entity.Amount, gatewaySubID, autopay,
		)
		if err != nil {
			return err
		}
		return u.subs.Upsert(ctx, tx, sub)
	})
	if err != nil {
		if err == domain.ErrNoMatch {
			log.Warn().Str("gateway_payment_id", entity.ID).Int64("amount", entity.Amount).
				Msg("captured payment could not be correlated")
			return err
		}
		return err
	}

	metrics.IncPayment(string(model.PaymentStatusSuccess))
	metrics.AddRevenue(match.PlanID, entity.Amount)
	metrics.IncSubscriptionTransition(model.SubscriptionStatusActive)

	// Everything past the commit is best-effort.
	u.refreshProfile(ctx, match)
	u.sites.Reconcile(ctx, match.UserID, model.SubscriptionStatusActive, "")
	if payment.ContactEmail == "" {
		payment.ContactEmail = u.lookupEmail(ctx, match.UserID)
	}
	u.notifier.PaymentCaptured(payment, match.PlanName)

	log.Info().Str("user_id", match.UserID).Str("plan_id", match.PlanID).
		Int64("amount", entity.Amount).Bool("degraded", match.Degraded).
		Msg("payment reconciled")
	return nil
}

// handlePaymentLinkPaid merges the payment and payment_link entities; the
// notes usually ride on the link, the money fields on the payment.
func (u *reconcileUC) handlePaymentLinkPaid(ctx context.Context, env *gateway.Envelope) error {
	entity := env.Payment()
	link := env.PaymentLink()
	if entity == nil {
		entity = link
	}
	if entity == nil {
		return domain.ErrInvalidArgument
	}
	if link != nil {
		if entity.PaymentLinkID == "" {
			entity.PaymentLinkID = link.ID
		}
		if len(entity.Notes) == 0 {
			entity.Notes = link.Notes
		}
		if entity.Amount == 0 {
			entity.Amount = link.AmountPaid
		}
	}
	return u.handleCaptured(ctx, entity, "", false)
}

// handleSubscriptionCharged records the renewal charge and re-activates the
// subscription row.
func (u *reconcileUC) handleSubscriptionCharged(ctx context.Context, env *gateway.Envelope) error {
	sub := env.Subscription()
	entity := env.Payment()
	if entity == nil {
		entity = sub
	}
	if entity == nil {
		return domain.ErrInvalidArgument
	}
	gatewaySubID := ""
	if sub != nil {
		gatewaySubID = sub.ID
		if len(entity.Notes) == 0 {
			entity.Notes = sub.Notes
		}
	}

	// A renewal for a known subscription can be correlated without notes.
	if entity.Notes[gateway.NoteUserID] == "" && gatewaySubID != "" {
		if local, err := u.subs.FindByGatewaySubscriptionID(ctx, nil, gatewaySubID); err == nil {
			if entity.Notes == nil {
				entity.Notes = gateway.Notes{}
			}
			entity.Notes[gateway.NoteUserID] = local.UserID
			entity.Notes[gateway.NotePlanID] = local.PlanID
			entity.Notes[gateway.NotePlanName] = local.PlanName
			entity.Notes[gateway.NoteBillingCycle] = string(local.BillingCycle)
		}
	}
	return u.handleCaptured(ctx, entity, gatewaySubID, true)
}

// handleSubscriptionLifecycle maps gateway subscription statuses onto the
// local state machine. Unmapped statuses are acknowledged and ignored.
func (u *reconcileUC) handleSubscriptionLifecycle(ctx context.Context, entity *gateway.Entity) error {
	if entity == nil {
		return domain.ErrInvalidArgument
	}
	log := logging.With(ctx, u.log)

	var target model.SubscriptionStatus
	switch entity.Status {
	case "cancelled", "completed", "expired":
		target = model.SubscriptionStatusCancelled
	case "paused", "halted":
		target = model.SubscriptionStatusPaused
	default:
		log.Debug().Str("gateway_status", entity.Status).Msg("ignoring subscription status")
		return nil
	}

	userID := entity.Notes[gateway.NoteUserID]
	if userID == "" {
		local, err := u.subs.FindByGatewaySubscriptionID(ctx, nil, entity.ID)
		if err != nil {
			log.Warn().Str("gateway_subscription_id", entity.ID).Msg("subscription event could not be correlated")
			return domain.ErrNoMatch
		}
		userID = local.UserID
	}

	if err := u.subs.UpdateStatus(ctx, nil, userID, target); err != nil {
		return err
	}
	metrics.IncSubscriptionTransition(target)

	reason := fmt.Sprintf("subscription %s", target)
	u.sites.Reconcile(ctx, userID, target, reason)
	u.notifier.SubscriptionStatusChanged(userID, u.lookupEmail(ctx, userID), target)

	log.Info().Str("user_id", userID).Str("status", string(target)).Msg("subscription lifecycle reconciled")
	return nil
}

// handleChargeRetryFailed suspends websites after a failed recurring charge
// without touching the subscription row; the gateway keeps retrying and a
// later success reactivates everything.
func (u *reconcileUC) handleChargeRetryFailed(ctx context.Context, entity *gateway.Entity) error {
	if entity == nil {
		return domain.ErrInvalidArgument
	}
	log := logging.With(ctx, u.log)

	userID := entity.Notes[gateway.NoteUserID]
	if userID == "" {
		gatewaySubID := entity.SubscriptionID
		if gatewaySubID == "" {
			gatewaySubID = entity.ID
		}
		local, err := u.subs.FindByGatewaySubscriptionID(ctx, nil, gatewaySubID)
		if err != nil {
			log.Warn().Str("gateway_subscription_id", gatewaySubID).Msg("failed-charge event could not be correlated")
			return domain.ErrNoMatch
		}
		userID = local.UserID
	}

	u.sites.SuspendForPaymentFailure(ctx, userID)
	u.notifier.PaymentRetryFailed(userID, u.lookupEmail(ctx, userID))

	log.Info().Str("user_id", userID).Msg("websites suspended after failed charge")
	return nil
}

// handleOneOffFailed marks the local payment row failed. Subscription state
// is untouched. A failure we never initiated locally is logged and dropped;
// there is nothing to converge.
func (u *reconcileUC) handleOneOffFailed(ctx context.Context, entity *gateway.Entity) error {
	if entity == nil {
		return domain.ErrInvalidArgument
	}
	log := logging.With(ctx, u.log)

	var row *model.Payment
	if entity.OrderID != "" {
		if p, err := u.payments.FindByGatewayOrderID(ctx, nil, entity.OrderID); err == nil {
			row = p
		}
	}
	if row == nil && entity.PaymentLinkID != "" {
		if p, err := u.payments.FindByGatewayPaymentLinkID(ctx, nil, entity.PaymentLinkID); err == nil {
			row = p
		}
	}
	if row == nil {
		log.Info().Str("gateway_payment_id", entity.ID).Msg("failed payment has no local row; ignoring")
		return nil
	}
	if row.Status != model.PaymentStatusPending {
		return nil
	}
	if _, err := u.payments.ClaimPending(ctx, nil, row.ID, model.PaymentStatusFailed, entity.ID); err != nil {
		return err
	}
	metrics.IncPayment(string(model.PaymentStatusFailed))
	log.Info().Str("payment_id", row.ID).Msg("payment marked failed")
	return nil
}

func (u *reconcileUC) refreshProfile(ctx context.Context, m *MatchResult) {
	err := u.profiles.UpdatePlan(ctx, nil, m.UserID, m.PlanID, m.PlanName, m.BillingCycle, u.catalog.Tier(m.PlanID))
	if err != nil {
		u.log.Warn().Err(err).Str("user_id", m.UserID).Msg("profile plan refresh failed")
	}
}

func (u *reconcileUC) lookupEmail(ctx context.Context, userID string) string {
	p, err := u.profiles.FindByID(ctx, nil, userID)
	if err != nil {
		return ""
	}
	return p.Email
}
