package usecase

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"sitepilot/internal/domain"
	"sitepilot/internal/domain/model"
	"sitepilot/internal/domain/ports/adapter"
	"sitepilot/internal/domain/ports/repository"
	"sitepilot/internal/infra/gateway"
	"sitepilot/internal/infra/metrics"
)

// Compile-time check
var _ CheckoutUseCase = (*checkoutUC)(nil)

type CheckoutUseCase interface {
	// Initiate creates the gateway object with correlation notes embedded and
	// persists a pending payment row. Returns the payment and the customer
	// payment URL.
	Initiate(ctx context.Context, userID, planID string, cycle model.BillingCycle, name, email, phone string) (*model.Payment, string, error)
	// Cancel asks the gateway to stop a recurring subscription. The local row
	// transitions when the gateway's webhook confirms.
	Cancel(ctx context.Context, userID string) error
}

type checkoutUC struct {
	payments repository.PaymentRepository
	subs     repository.SubscriptionRepository
	catalog  *PlanCatalog
	gw       adapter.PaymentGateway
	callback string
	log      *zerolog.Logger
}

func NewCheckoutUseCase(payments repository.PaymentRepository, subs repository.SubscriptionRepository, catalog *PlanCatalog, gw adapter.PaymentGateway, callbackURL string, logger *zerolog.Logger) *checkoutUC {
	return &checkoutUC{
		payments: payments,
		subs:     subs,
		catalog:  catalog,
		gw:       gw,
		callback: callbackURL,
		log:      logger,
	}
}

func (u *checkoutUC) Initiate(ctx context.Context, userID, planID string, cycle model.BillingCycle, name, email, phone string) (*model.Payment, string, error) {
	if userID == "" {
		return nil, "", domain.ErrInvalidArgument
	}
	plan, err := u.catalog.FindByID(planID)
	if err != nil {
		return nil, "", err
	}
	amount, err := plan.Price(cycle)
	if err != nil {
		return nil, "", err
	}

	req := adapter.CheckoutRequest{
		Amount:       amount,
		Currency:     "INR",
		Description:  plan.Name + " plan (" + string(cycle) + ")",
		CallbackURL:  u.callback,
		CustomerName: name,
		Email:        email,
		Phone:        phone,
		Notes: map[string]string{
			gateway.NoteUserID:       userID,
			gateway.NotePlanID:       plan.ID,
			gateway.NotePlanName:     plan.Name,
			gateway.NoteBillingCycle: string(cycle),
		},
	}

	var res adapter.CheckoutResult
	switch cycle {
	case model.BillingCycleMonthly:
		req.GatewayPlanID = plan.GatewayPlanIDMonthly
		req.TotalCycles = 120
	case model.BillingCycleYearly:
		req.GatewayPlanID = plan.GatewayPlanIDYearly
		req.TotalCycles = 10
	}
	if req.GatewayPlanID != "" {
		res, err = u.gw.CreateSubscription(ctx, req)
	} else {
		res, err = u.gw.CreatePaymentLink(ctx, req)
	}
	if err != nil {
		return nil, "", err
	}

	now := time.Now()
	p := &model.Payment{
		ID:                    ulid.Make().String(),
		UserID:                userID,
		GatewayOrderID:        res.OrderID,
		GatewayPaymentLinkID:  res.PaymentLinkID,
		GatewaySubscriptionID: res.SubscriptionID,
		Amount:                amount,
		Currency:              "INR",
		Status:                model.PaymentStatusPending,
		PlanID:                plan.ID,
		PlanName:              plan.Name,
		BillingCycle:          cycle,
		ContactEmail:          email,
		ContactPhone:          phone,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	if err := u.payments.Save(ctx, nil, p); err != nil {
		return nil, "", err
	}
	metrics.IncPayment(string(model.PaymentStatusPending))

	u.log.Info().Str("user_id", userID).Str("plan_id", plan.ID).Int64("amount", amount).
		Str("payment_id", p.ID).Msg("checkout initiated")
	return p, res.ShortURL, nil
}

func (u *checkoutUC) Cancel(ctx context.Context, userID string) error {
	sub, err := u.subs.FindByUserID(ctx, nil, userID)
	if err != nil {
		return err
	}
	if sub.GatewaySubscriptionID == "" {
		// One-off plan: nothing to cancel gateway-side; mark locally.
		return u.subs.UpdateStatus(ctx, nil, userID, model.SubscriptionStatusCancelled)
	}
	return u.gw.CancelSubscription(ctx, sub.GatewaySubscriptionID)
}
