package usecase

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"sitepilot/internal/domain/model"
	"sitepilot/internal/domain/ports/adapter"
	"sitepilot/internal/infra/metrics"
	"sitepilot/internal/infra/notify"
)

// Notifier fires founder and customer notifications after reconciliation.
// Everything here is fire-and-forget: sends run on the dispatcher's workers,
// failures are logged and counted, and nothing propagates to the webhook
// response.
type Notifier struct {
	mailer       adapter.Mailer
	messenger    adapter.Messenger
	dispatcher   *notify.Dispatcher
	founderEmail string
	log          *zerolog.Logger
}

func NewNotifier(mailer adapter.Mailer, messenger adapter.Messenger, dispatcher *notify.Dispatcher, founderEmail string, logger *zerolog.Logger) *Notifier {
	return &Notifier{
		mailer:       mailer,
		messenger:    messenger,
		dispatcher:   dispatcher,
		founderEmail: founderEmail,
		log:          logger,
	}
}

func (n *Notifier) submitMail(to, subject, body string) {
	if to == "" {
		return
	}
	err := n.dispatcher.Submit(func(ctx context.Context) error {
		if err := n.mailer.Send(ctx, to, subject, body); err != nil {
			metrics.IncNotificationFailure("email")
			return fmt.Errorf("send to %s: %w", to, err)
		}
		return nil
	})
	if err != nil {
		metrics.IncNotificationFailure("email")
		n.log.Warn().Err(err).Str("to", to).Msg("notification dropped")
	}
}

func (n *Notifier) submitMessage(phone, message string) {
	if phone == "" {
		return
	}
	err := n.dispatcher.Submit(func(ctx context.Context) error {
		if err := n.messenger.Send(ctx, phone, message); err != nil {
			metrics.IncNotificationFailure("whatsapp")
			return fmt.Errorf("send to %s: %w", phone, err)
		}
		return nil
	})
	if err != nil {
		metrics.IncNotificationFailure("whatsapp")
		n.log.Warn().Err(err).Msg("notification dropped")
	}
}

// PaymentCaptured notifies the founder of a sale and sends the customer a
// receipt.
func (n *Notifier) PaymentCaptured(p *model.Payment, planName string) {
	amount := fmt.Sprintf("%.2f %s", float64(p.Amount)/100, p.Currency)
	n.submitMail(n.founderEmail,
		fmt.Sprintf("New payment: %s (%s)", amount, planName),
		fmt.Sprintf("<p>Payment <b>%s</b> captured for user %s.</p><p>Plan: %s, amount: %s.</p>", p.GatewayPaymentID, p.UserID, planName, amount))

	n.submitMail(p.ContactEmail,
		"Your sitepilot payment was received",
		fmt.Sprintf("<p>Thanks! We received your payment of <b>%s</b> for the %s plan. Your website stays live.</p>", amount, planName))
	n.submitMessage(p.ContactPhone,
		fmt.Sprintf("sitepilot: payment of %s received. Thank you!", amount))
}

// SubscriptionStatusChanged notifies both parties of a lifecycle change.
func (n *Notifier) SubscriptionStatusChanged(userID, email string, status model.SubscriptionStatus) {
	n.submitMail(n.founderEmail,
		fmt.Sprintf("Subscription %s: user %s", status, userID),
		fmt.Sprintf("<p>Subscription for user %s is now <b>%s</b>.</p>", userID, status))

	switch status {
	case model.SubscriptionStatusCancelled, model.SubscriptionStatusPaused:
		n.submitMail(email,
			"Your sitepilot subscription has changed",
			fmt.Sprintf("<p>Your subscription is now <b>%s</b> and your website has been suspended. Renew any time to bring it back.</p>", status))
	}
}

// PaymentRetryFailed warns the customer after a failed recurring charge.
func (n *Notifier) PaymentRetryFailed(userID, email string) {
	n.submitMail(n.founderEmail,
		fmt.Sprintf("Renewal charge failed: user %s", userID),
		fmt.Sprintf("<p>A renewal charge for user %s failed. Their website has been suspended until payment succeeds.</p>", userID))
	n.submitMail(email,
		"Action needed: sitepilot renewal failed",
		"<p>We could not charge your payment method for this billing cycle. Your website is suspended until the payment goes through.</p>")
}
