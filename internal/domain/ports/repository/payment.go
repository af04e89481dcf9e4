package repository

import (
	"context"
	"time"

	"sitepilot/internal/domain/model"
)

type PaymentRepository interface {
	Save(ctx context.Context, tx Tx, p *model.Payment) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Payment, error)
	FindByGatewayOrderID(ctx context.Context, tx Tx, orderID string) (*model.Payment, error)
	FindByGatewayPaymentID(ctx context.Context, tx Tx, paymentID string) (*model.Payment, error)
	FindByGatewayPaymentLinkID(ctx context.Context, tx Tx, linkID string) (*model.Payment, error)
	// FindPendingByAmount returns pending payments of exactly amount created
	// after cutoff, newest first. Inside a tx the rows are locked with
	// SKIP LOCKED so concurrent deliveries never claim the same row.
	FindPendingByAmount(ctx context.Context, tx Tx, amount int64, cutoff time.Time, limit int) ([]*model.Payment, error)
	// ClaimPending flips a payment out of pending atomically. Returns false
	// when another writer got there first.
	ClaimPending(ctx context.Context, tx Tx, id string, status model.PaymentStatus, gatewayPaymentID string) (bool, error)
	UpdateStatus(ctx context.Context, tx Tx, id string, status model.PaymentStatus, gatewayPaymentID string) error
	ListByUser(ctx context.Context, tx Tx, userID string, limit int) ([]*model.Payment, error)
	ListPendingOlderThan(ctx context.Context, tx Tx, olderThan time.Time, limit int) ([]*model.Payment, error)
	FindSuccessfulForVerify(ctx context.Context, tx Tx, userID, paymentID, linkID string) (*model.Payment, error)
}
