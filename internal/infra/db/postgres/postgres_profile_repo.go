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

var _ repository.ProfileRepository = (*profileRepo)(nil)

type profileRepo struct{ pool *pgxpool.Pool }

func NewProfileRepo(pool *pgxpool.Pool) *profileRepo {
	return &profileRepo{pool: pool}
}

func (r *profileRepo) FindByID(ctx context.Context, tx repository.Tx, userID string) (*model.Profile, error) {
	const q = `SELECT id, name, email, plan_id, plan_name, billing_cycle, plan_tier, updated_at FROM profiles WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, userID)
	if err != nil {
		return nil, err
	}
	p := &model.Profile{}
	if err := row.Scan(&p.ID, &p.Name, &p.Email, &p.PlanID, &p.PlanName, &p.BillingCycle, &p.PlanTier, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return p, nil
}

func (r *profileRepo) UpdatePlan(ctx context.Context, tx repository.Tx, userID, planID, planName string, cycle model.BillingCycle, tier string) error {
	const q = `UPDATE profiles SET plan_id=$2, plan_name=$3, billing_cycle=$4, plan_tier=$5, updated_at=NOW() WHERE id=$1;`
	_, err := execSQL(ctx, r.pool, tx, q, userID, planID, planName, cycle, tier)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}
