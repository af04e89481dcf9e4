package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"sitepilot/internal/domain/model"
	"sitepilot/internal/domain/ports/repository"
	"sitepilot/internal/infra/metrics"
)

// WebsiteActivator keeps a user's websites in step with their subscription
// status. Best-effort: each site is an independent update, and a failure on
// one site does not stop the loop or the webhook response.
type WebsiteActivator struct {
	websites repository.WebsiteRepository
	log      *zerolog.Logger
}

func NewWebsiteActivator(websites repository.WebsiteRepository, logger *zerolog.Logger) *WebsiteActivator {
	return &WebsiteActivator{websites: websites, log: logger}
}

// Reconcile flips the user's websites to match the subscription status.
// Returns the number of sites changed.
func (a *WebsiteActivator) Reconcile(ctx context.Context, userID string, status model.SubscriptionStatus, reason string) int {
	sites, err := a.websites.ListByUser(ctx, nil, userID)
	if err != nil {
		a.log.Error().Err(err).Str("user_id", userID).Msg("website activator: list failed")
		return 0
	}

	now := time.Now()
	changed := 0
	for _, site := range sites {
		switch {
		case status == model.SubscriptionStatusActive && site.Status == model.WebsiteStatusSuspended:
			// Only lift suspensions this service imposed.
			if !site.SuspendedForBilling() {
				continue
			}
			if err := a.websites.Reactivate(ctx, nil, site.ID, now); err != nil {
				a.log.Error().Err(err).Str("website_id", site.ID).Msg("website activator: reactivate failed")
				continue
			}
			metrics.IncWebsiteTransition("live")
			a.log.Info().Str("website_id", site.ID).Str("user_id", userID).Msg("website reactivated")
			changed++

		case (status == model.SubscriptionStatusCancelled || status == model.SubscriptionStatusPaused) && site.Status == model.WebsiteStatusLive:
			if err := a.websites.Suspend(ctx, nil, site.ID, reason, now); err != nil {
				a.log.Error().Err(err).Str("website_id", site.ID).Msg("website activator: suspend failed")
				continue
			}
			metrics.IncWebsiteTransition("suspended")
			a.log.Info().Str("website_id", site.ID).Str("user_id", userID).Str("reason", reason).Msg("website suspended")
			changed++
		}
	}
	return changed
}

// SuspendForPaymentFailure suspends live sites after a failed recurring
// charge without touching the subscription row. A single failed retry must
// not cancel the subscription.
func (a *WebsiteActivator) SuspendForPaymentFailure(ctx context.Context, userID string) int {
	sites, err := a.websites.ListByUser(ctx, nil, userID)
	if err != nil {
		a.log.Error().Err(err).Str("user_id", userID).Msg("website activator: list failed")
		return 0
	}

	now := time.Now()
	changed := 0
	for _, site := range sites {
		if site.Status != model.WebsiteStatusLive {
			continue
		}
		if err := a.websites.Suspend(ctx, nil, site.ID, "payment failed for subscription renewal", now); err != nil {
			a.log.Error().Err(err).Str("website_id", site.ID).Msg("website activator: suspend failed")
			continue
		}
		metrics.IncWebsiteTransition("suspended")
		a.log.Info().Str("website_id", site.ID).Str("user_id", userID).Msg("website suspended after failed charge")
		changed++
	}
	return changed
}
