package adapter

import "context"

// CheckoutRequest carries everything the gateway needs to create an order,
// payment link or subscription. Notes are echoed back verbatim in webhook
// events and are the deterministic correlation path.
type CheckoutRequest struct {
	Amount       int64 // minor units
	Currency     string
	Description  string
	CallbackURL  string
	CustomerName string
	Email        string
	Phone        string
	Notes        map[string]string
	// GatewayPlanID set means a recurring subscription is created instead
	// of a one-off order.
	GatewayPlanID string
	TotalCycles   int
}

// CheckoutResult identifies the gateway object backing the checkout.
type CheckoutResult struct {
	OrderID        string
	PaymentLinkID  string
	SubscriptionID string
	ShortURL       string // customer-facing payment URL, when applicable
}

// PaymentGateway is the port for the external payment processor.
type PaymentGateway interface {
	Name() string
	CreateOrder(ctx context.Context, req CheckoutRequest) (CheckoutResult, error)
	CreatePaymentLink(ctx context.Context, req CheckoutRequest) (CheckoutResult, error)
	CreateSubscription(ctx context.Context, req CheckoutRequest) (CheckoutResult, error)
	CancelSubscription(ctx context.Context, gatewaySubID string) error
}
