package gateway

import (
	"encoding/json"
	"strings"
)

// Webhook event names delivered by the gateway.
const (
	EventPaymentCaptured      = "payment.captured"
	EventPaymentLinkPaid      = "payment_link.paid"
	EventPaymentFailed        = "payment.failed"
	EventInvoicePaymentFailed = "invoice.payment_failed"
	EventSubscriptionPending  = "subscription.pending"
	EventSubscriptionCharged  = "subscription.charged"

	subscriptionEventPrefix = "subscription."
)

// IsSubscriptionEvent matches the subscription.* event family.
func IsSubscriptionEvent(event string) bool {
	return strings.HasPrefix(event, subscriptionEventPrefix)
}

// Notes is the key-value correlation metadata we attach at checkout time and
// the gateway echoes back. The gateway serializes empty notes as [] instead
// of {}, so decoding has to tolerate both.
type Notes map[string]string

func (n *Notes) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '[' {
		*n = nil
		return nil
	}
	var m map[string]string
	if err := json.Unmarshal(b, &m); err != nil {
		// Notes may carry non-string values set by other tools; drop them.
		var raw map[string]json.RawMessage
		if err2 := json.Unmarshal(b, &raw); err2 != nil {
			return err
		}
		m = make(map[string]string, len(raw))
		for k, v := range raw {
			var s string
			if json.Unmarshal(v, &s) == nil {
				m[k] = s
			}
		}
	}
	*n = m
	return nil
}

// Correlation note keys written by the checkout flow.
const (
	NoteUserID       = "user_id"
	NotePlanID       = "plan_id"
	NotePlanName     = "plan_name"
	NoteBillingCycle = "billing_cycle"
)

// Entity is the superset of the gateway entity shapes we consume. Payments
// carry order_id/amount/contact, payment links carry amount and notes,
// subscriptions carry plan_id/status, invoices carry subscription_id.
type Entity struct {
	ID             string `json:"id"`
	OrderID        string `json:"order_id"`
	PaymentLinkID  string `json:"payment_link_id"`
	SubscriptionID string `json:"subscription_id"`
	PlanID         string `json:"plan_id"`
	Amount         int64  `json:"amount"`
	AmountPaid     int64  `json:"amount_paid"`
	Currency       string `json:"currency"`
	Status         string `json:"status"`
	Email          string `json:"email"`
	Contact        string `json:"contact"`
	Notes          Notes  `json:"notes"`
}

type entityWrap struct {
	Entity Entity `json:"entity"`
}

type payload struct {
	Payment      *entityWrap `json:"payment"`
	PaymentLink  *entityWrap `json:"payment_link"`
	Subscription *entityWrap `json:"subscription"`
	Invoice      *entityWrap `json:"invoice"`
}

// Envelope is the top-level webhook body.
type Envelope struct {
	Event   string  `json:"event"`
	Payload payload `json:"payload"`
}

func ParseEnvelope(rawBody []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(rawBody, &env); err != nil {
		return nil, err
	}
	return &env, nil
}

// Payment returns the payment entity, or nil.
func (e *Envelope) Payment() *Entity {
	if e.Payload.Payment == nil {
		return nil
	}
	return &e.Payload.Payment.Entity
}

// PaymentLink returns the payment_link entity, or nil.
func (e *Envelope) PaymentLink() *Entity {
	if e.Payload.PaymentLink == nil {
		return nil
	}
	return &e.Payload.PaymentLink.Entity
}

// Subscription returns the subscription entity, or nil.
func (e *Envelope) Subscription() *Entity {
	if e.Payload.Subscription == nil {
		return nil
	}
	return &e.Payload.Subscription.Entity
}

// Invoice returns the invoice entity, or nil.
func (e *Envelope) Invoice() *Entity {
	if e.Payload.Invoice == nil {
		return nil
	}
	return &e.Payload.Invoice.Entity
}
