package model

import (
	"time"

	"sitepilot/internal/domain"
)

type SubscriptionStatus string

const (
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
	SubscriptionStatusPaused    SubscriptionStatus = "paused"
	SubscriptionStatusExpired   SubscriptionStatus = "expired"
)

type BillingCycle string

const (
	BillingCycleMonthly BillingCycle = "monthly"
	BillingCycleYearly  BillingCycle = "yearly"
	BillingCycleOnetime BillingCycle = "onetime"
)

// SentinelPlanID is recorded when a payment can be attributed to a user but
// the plan cannot be recovered from the gateway event. Revenue booked under
// it is visible in reporting rather than lost.
const SentinelPlanID = "unknown"

// Subscription is a user's single subscription row. At most one row exists
// per user; every write is an upsert keyed on UserID. Rows are never deleted,
// only status-transitioned (a cancelled subscription returns to active on a
// new successful charge).
type Subscription struct {
	ID                    string // UUID
	UserID                string
	PlanID                string
	PlanName              string
	BillingCycle          BillingCycle
	Amount                int64 // minor units
	Status                SubscriptionStatus
	StartDate             time.Time
	EndDate               *time.Time // nil for onetime plans
	NextBillingDate       *time.Time // nil for onetime plans
	AutopayEnabled        bool
	GatewaySubscriptionID string
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// NextPeriodEnd returns the end of the billing period that begins at from.
// Onetime plans have no recurring period.
func (c BillingCycle) NextPeriodEnd(from time.Time) *time.Time {
	switch c {
	case BillingCycleMonthly:
		t := from.AddDate(0, 1, 0)
		return &t
	case BillingCycleYearly:
		t := from.AddDate(1, 0, 0)
		return &t
	default:
		return nil
	}
}

// ParseBillingCycle normalizes a gateway-supplied cycle string, defaulting
// to monthly for anything unrecognized.
func ParseBillingCycle(s string) BillingCycle {
	switch BillingCycle(s) {
	case BillingCycleMonthly, BillingCycleYearly, BillingCycleOnetime:
		return BillingCycle(s)
	default:
		return BillingCycleMonthly
	}
}

// NewActiveSubscription builds the row written on a successful charge.
func NewActiveSubscription(id, userID, planID, planName string, cycle BillingCycle, amount int64, gatewaySubID string, autopay bool) (*Subscription, error) {
	if id == "" || userID == "" {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	end := cycle.NextPeriodEnd(now)
	return &Subscription{
		ID:                    id,
		UserID:                userID,
		PlanID:                planID,
		PlanName:              planName,
		BillingCycle:          cycle,
		Amount:                amount,
		Status:                SubscriptionStatusActive,
		StartDate:             now,
		EndDate:               end,
		NextBillingDate:       end,
		AutopayEnabled:        autopay,
		GatewaySubscriptionID: gatewaySubID,
		CreatedAt:             now,
		UpdatedAt:             now,
	}, nil
}
