package repository

import (
	"context"

	"sitepilot/internal/domain/model"
)

type SubscriptionRepository interface {
	// Upsert writes the row keyed on user_id. At most one subscription row
	// exists per user; replaying the same event is idempotent here.
	Upsert(ctx context.Context, tx Tx, s *model.Subscription) error
	FindByUserID(ctx context.Context, tx Tx, userID string) (*model.Subscription, error)
	FindByGatewaySubscriptionID(ctx context.Context, tx Tx, gatewaySubID string) (*model.Subscription, error)
	UpdateStatus(ctx context.Context, tx Tx, userID string, status model.SubscriptionStatus) error
	CountByStatus(ctx context.Context, tx Tx) (map[model.SubscriptionStatus]int, error)
}
