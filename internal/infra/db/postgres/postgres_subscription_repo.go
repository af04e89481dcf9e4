package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"sitepilot/internal/domain"
	"sitepilot/internal/domain/model"
	"sitepilot/internal/domain/ports/repository"
)

var _ repository.SubscriptionRepository = (*subscriptionRepo)(nil)

type subscriptionRepo struct{ pool *pgxpool.Pool }

func NewSubscriptionRepo(pool *pgxpool.Pool) *subscriptionRepo {
	return &subscriptionRepo{pool: pool}
}

const subscriptionColumns = `id, user_id, plan_id, plan_name, billing_cycle, amount, status, start_date, end_date, next_billing_date, autopay_enabled, gateway_subscription_id, created_at, updated_at`

func scanSubscription(row pgx.Row) (*model.Subscription, error) {
	s := &model.Subscription{}
	if err := row.Scan(&s.ID, &s.UserID, &s.PlanID, &s.PlanName, &s.BillingCycle, &s.Amount, &s.Status, &s.StartDate, &s.EndDate, &s.NextBillingDate, &s.AutopayEnabled, &s.GatewaySubscriptionID, &s.CreatedAt, &s.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return s, nil
}

// Upsert writes the subscription keyed on user_id. The unique constraint on
// user_id is what makes webhook replays idempotent for this row; the insert
// id is discarded on conflict.
func (r *subscriptionRepo) Upsert(ctx context.Context, tx repository.Tx, s *model.Subscription) error {
	const q = `
INSERT INTO subscriptions (
  id, user_id, plan_id, plan_name, billing_cycle, amount, status, start_date, end_date, next_billing_date, autopay_enabled, gateway_subscription_id, created_at, updated_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14
) ON CONFLICT (user_id) DO UPDATE SET
  plan_id=$3, plan_name=$4, billing_cycle=$5, amount=$6, status=$7, start_date=$8, end_date=$9, next_billing_date=$10, autopay_enabled=$11, gateway_subscription_id=COALESCE(NULLIF($12, ''), subscriptions.gateway_subscription_id), updated_at=$14;`

	_, err := execSQL(ctx, r.pool, tx, q, s.ID, s.UserID, s.PlanID, s.PlanName, s.BillingCycle, s.Amount, s.Status, s.StartDate, s.EndDate, s.NextBillingDate, s.AutopayEnabled, s.GatewaySubscriptionID, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *subscriptionRepo) FindByUserID(ctx context.Context, tx repository.Tx, userID string) (*model.Subscription, error) {
	q := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE user_id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, userID)
	if err != nil {
		return nil, err
	}
	return scanSubscription(row)
}

func (r *subscriptionRepo) FindByGatewaySubscriptionID(ctx context.Context, tx repository.Tx, gatewaySubID string) (*model.Subscription, error) {
	q := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE gateway_subscription_id=$1 LIMIT 1;`
	row, err := pickRow(ctx, r.pool, tx, q, gatewaySubID)
	if err != nil {
		return nil, err
	}
	return scanSubscription(row)
}

func (r *subscriptionRepo) UpdateStatus(ctx context.Context, tx repository.Tx, userID string, status model.SubscriptionStatus) error {
	const q = `UPDATE subscriptions SET status=$2, updated_at=NOW() WHERE user_id=$1;`
	_, err := execSQL(ctx, r.pool, tx, q, userID, status)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *subscriptionRepo) CountByStatus(ctx context.Context, tx repository.Tx) (map[model.SubscriptionStatus]int, error) {
	const q = `SELECT status, COUNT(*) FROM subscriptions GROUP BY status;`
	rows, err := queryRows(ctx, r.pool, tx, q)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return nil, err
		default:
			return nil, domain.ErrOperationFailed
		}
	}
	defer rows.Close()

	out := make(map[model.SubscriptionStatus]int)
	for rows.Next() {
		var status model.SubscriptionStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out[status] = count
	}
	return out, nil
}
