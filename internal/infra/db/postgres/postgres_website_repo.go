package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"sitepilot/internal/domain"
	"sitepilot/internal/domain/model"
	"sitepilot/internal/domain/ports/repository"
)

var _ repository.WebsiteRepository = (*websiteRepo)(nil)

type websiteRepo struct{ pool *pgxpool.Pool }

func NewWebsiteRepo(pool *pgxpool.Pool) *websiteRepo {
	return &websiteRepo{pool: pool}
}

const websiteColumns = `id, user_id, site_url, status, suspended_at, suspension_reason, reactivated_at, created_at, updated_at`

func scanWebsite(row pgx.Row) (*model.Website, error) {
	w := &model.Website{}
	if err := row.Scan(&w.ID, &w.UserID, &w.SiteURL, &w.Status, &w.SuspendedAt, &w.SuspensionReason, &w.ReactivatedAt, &w.CreatedAt, &w.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return w, nil
}

func (r *websiteRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.Website, error) {
	q := `SELECT ` + websiteColumns + ` FROM websites WHERE user_id=$1 ORDER BY created_at;`
	rows, err := queryRows(ctx, r.pool, tx, q, userID)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return nil, err
		default:
			return nil, domain.ErrOperationFailed
		}
	}
	defer rows.Close()

	var out []*model.Website
	for rows.Next() {
		w, err := scanWebsite(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, nil
}

func (r *websiteRepo) Suspend(ctx context.Context, tx repository.Tx, id, reason string, at time.Time) error {
	const q = `UPDATE websites SET status='suspended', suspended_at=$2, suspension_reason=$3, updated_at=NOW() WHERE id=$1;`
	_, err := execSQL(ctx, r.pool, tx, q, id, at, reason)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *websiteRepo) Reactivate(ctx context.Context, tx repository.Tx, id string, at time.Time) error {
	const q = `UPDATE websites SET status='live', suspended_at=NULL, suspension_reason='', reactivated_at=$2, updated_at=NOW() WHERE id=$1;`
	_, err := execSQL(ctx, r.pool, tx, q, id, at)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}
