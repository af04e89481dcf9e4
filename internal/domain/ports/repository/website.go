package repository

import (
	"context"
	"time"

	"sitepilot/internal/domain/model"
)

type WebsiteRepository interface {
	ListByUser(ctx context.Context, tx Tx, userID string) ([]*model.Website, error)
	Suspend(ctx context.Context, tx Tx, id, reason string, at time.Time) error
	Reactivate(ctx context.Context, tx Tx, id string, at time.Time) error
}
