package model

import "time"

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending" // checkout initiated; awaiting gateway confirmation
	PaymentStatusSuccess PaymentStatus = "success" // captured at the gateway
	PaymentStatusFailed  PaymentStatus = "failed"  // declined, abandoned or explicitly failed
)

// Payment records a single checkout attempt against the gateway.
// Created as pending when checkout is initiated; flipped to success/failed
// exactly once by whichever of the webhook or verify path arrives first.
// Rows are never deleted.
type Payment struct {
	ID                    string // ULID
	UserID                string // empty until matched when the gateway omits our notes
	GatewayOrderID        string
	GatewayPaymentID      string
	GatewayPaymentLinkID  string
	GatewaySubscriptionID string
	Amount                int64 // minor units (paise)
	Currency              string
	Status                PaymentStatus
	PlanID                string
	PlanName              string
	BillingCycle          BillingCycle
	ContactEmail          string
	ContactPhone          string
	CreatedAt             time.Time
	UpdatedAt             time.Time
}
