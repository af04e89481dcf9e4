package usecase

import (
	"context"

	"github.com/rs/zerolog"

	"sitepilot/internal/domain"
	"sitepilot/internal/domain/model"
	"sitepilot/internal/domain/ports/repository"
)

// Compile-time check
var _ BillingUseCase = (*billingUC)(nil)

// BillingSummary feeds the dashboard's billing page.
type BillingSummary struct {
	Profile      *model.Profile
	Subscription *model.Subscription
	Payments     []*model.Payment
	Websites     []*model.Website
}

type BillingUseCase interface {
	Summary(ctx context.Context, userID string) (*BillingSummary, error)
}

type billingUC struct {
	payments repository.PaymentRepository
	subs     repository.SubscriptionRepository
	profiles repository.ProfileRepository
	websites repository.WebsiteRepository
	log      *zerolog.Logger
}

func NewBillingUseCase(payments repository.PaymentRepository, subs repository.SubscriptionRepository, profiles repository.ProfileRepository, websites repository.WebsiteRepository, logger *zerolog.Logger) *billingUC {
	return &billingUC{payments: payments, subs: subs, profiles: profiles, websites: websites, log: logger}
}

func (u *billingUC) Summary(ctx context.Context, userID string) (*BillingSummary, error) {
	if userID == "" {
		return nil, domain.ErrInvalidArgument
	}
	out := &BillingSummary{}

	if p, err := u.profiles.FindByID(ctx, nil, userID); err == nil {
		out.Profile = p
	}
	if s, err := u.subs.FindByUserID(ctx, nil, userID); err == nil {
		out.Subscription = s
	}
	payments, err := u.payments.ListByUser(ctx, nil, userID, 20)
	if err != nil {
		return nil, err
	}
	out.Payments = payments
	if sites, err := u.websites.ListByUser(ctx, nil, userID); err == nil {
		out.Websites = sites
	}
	return out, nil
}
