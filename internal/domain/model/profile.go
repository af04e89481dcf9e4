package model

import "time"

// Profile is a denormalized plan-tier cache keyed by user ID, refreshed
// opportunistically alongside subscription writes. Display-only; the
// Subscription row is authoritative.
type Profile struct {
	ID           string // = user ID
	Name         string
	Email        string
	PlanID       string
	PlanName     string
	BillingCycle BillingCycle
	PlanTier     string
	UpdatedAt    time.Time
}
