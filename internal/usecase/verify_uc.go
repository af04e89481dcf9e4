package usecase

import (
	"context"

	"github.com/rs/zerolog"

	"sitepilot/internal/domain"
	"sitepilot/internal/domain/model"
	"sitepilot/internal/domain/ports/repository"
)

// Compile-time check
var _ VerifyUseCase = (*verifyUC)(nil)

// VerifyResult is what the frontend polls for after the gateway redirect.
type VerifyResult struct {
	Verified     bool
	PlanID       string
	PlanName     string
	Subscription *model.Subscription
	Payment      *model.Payment
}

// VerifyUseCase answers the synchronous post-redirect check. It only reads
// local state; the webhook path owns the writes. A false result tells the
// caller to keep polling while the webhook catches up.
type VerifyUseCase interface {
	Verify(ctx context.Context, userID, paymentID, linkID, gatewaySubID string) (*VerifyResult, error)
}

type verifyUC struct {
	payments repository.PaymentRepository
	subs     repository.SubscriptionRepository
	log      *zerolog.Logger
}

func NewVerifyUseCase(payments repository.PaymentRepository, subs repository.SubscriptionRepository, logger *zerolog.Logger) *verifyUC {
	return &verifyUC{payments: payments, subs: subs, log: logger}
}

func (u *verifyUC) Verify(ctx context.Context, userID, paymentID, linkID, gatewaySubID string) (*VerifyResult, error) {
	if userID == "" {
		return nil, domain.ErrInvalidArgument
	}

	if p, err := u.payments.FindSuccessfulForVerify(ctx, nil, userID, paymentID, linkID); err == nil {
		sub, _ := u.subs.FindByUserID(ctx, nil, userID)
		return &VerifyResult{
			Verified:     true,
			PlanID:       p.PlanID,
			PlanName:     p.PlanName,
			Subscription: sub,
			Payment:      p,
		}, nil
	}

	if gatewaySubID != "" {
		if sub, err := u.subs.FindByGatewaySubscriptionID(ctx, nil, gatewaySubID); err == nil &&
			sub.UserID == userID && sub.Status == model.SubscriptionStatusActive {
			return &VerifyResult{
				Verified:     true,
				PlanID:       sub.PlanID,
				PlanName:     sub.PlanName,
				Subscription: sub,
			}, nil
		}
	}

	if sub, err := u.subs.FindByUserID(ctx, nil, userID); err == nil && sub.Status == model.SubscriptionStatusActive {
		return &VerifyResult{
			Verified:     true,
			PlanID:       sub.PlanID,
			PlanName:     sub.PlanName,
			Subscription: sub,
		}, nil
	}

	// Webhook has not landed yet; the caller polls.
	return &VerifyResult{Verified: false}, nil
}
