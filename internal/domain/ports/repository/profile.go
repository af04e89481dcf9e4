package repository

import (
	"context"

	"sitepilot/internal/domain/model"
)

type ProfileRepository interface {
	FindByID(ctx context.Context, tx Tx, userID string) (*model.Profile, error)
	// UpdatePlan refreshes the denormalized plan fields. Best-effort cache;
	// callers log and continue on failure.
	UpdatePlan(ctx context.Context, tx Tx, userID, planID, planName string, cycle model.BillingCycle, tier string) error
}
