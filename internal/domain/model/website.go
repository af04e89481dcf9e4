package model

import (
	"strings"
	"time"
)

type WebsiteStatus string

const (
	WebsiteStatusLive      WebsiteStatus = "live"
	WebsiteStatusSuspended WebsiteStatus = "suspended"
)

// Website is the customer-facing site whose availability tracks the owner's
// subscription. Provisioning is handled elsewhere; this service only flips
// the status in response to subscription changes.
type Website struct {
	ID               string // UUID
	UserID           string
	SiteURL          string
	Status           WebsiteStatus
	SuspendedAt      *time.Time
	SuspensionReason string
	ReactivatedAt    *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// SuspendedForBilling reports whether the site was suspended by this service
// (as opposed to, say, an abuse takedown). Only billing suspensions are
// lifted automatically when the subscription becomes active again.
func (w *Website) SuspendedForBilling() bool {
	reason := strings.ToLower(w.SuspensionReason)
	return strings.Contains(reason, "subscription") || strings.Contains(reason, "payment failed")
}
