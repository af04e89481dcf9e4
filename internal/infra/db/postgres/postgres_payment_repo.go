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

var _ repository.PaymentRepository = (*paymentRepo)(nil)

type paymentRepo struct{ pool *pgxpool.Pool }

func NewPaymentRepo(pool *pgxpool.Pool) *paymentRepo {
	return &paymentRepo{pool: pool}
}

const paymentColumns = `id, user_id, gateway_order_id, gateway_payment_id, gateway_payment_link_id, gateway_subscription_id, amount, currency, status, plan_id, plan_name, billing_cycle, contact_email, contact_phone, created_at, updated_at`

func scanPayment(row pgx.Row) (*model.Payment, error) {
	p := &model.Payment{}
	if err := row.Scan(&p.ID, &p.UserID, &p.GatewayOrderID, &p.GatewayPaymentID, &p.GatewayPaymentLinkID, &p.GatewaySubscriptionID, &p.Amount, &p.Currency, &p.Status, &p.PlanID, &p.PlanName, &p.BillingCycle, &p.ContactEmail, &p.ContactPhone, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return p, nil
}

func (r *paymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	const q = `
INSERT INTO payments (
  id, user_id, gateway_order_id, gateway_payment_id, gateway_payment_link_id, gateway_subscription_id, amount, currency, status, plan_id, plan_name, billing_cycle, contact_email, contact_phone, created_at, updated_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16
) ON CONFLICT (id) DO UPDATE SET
  user_id=$2, gateway_order_id=$3, gateway_payment_id=$4, gateway_payment_link_id=$5, gateway_subscription_id=$6, amount=$7, currency=$8, status=$9, plan_id=$10, plan_name=$11, billing_cycle=$12, contact_email=$13, contact_phone=$14, updated_at=$16;`

	_, err := execSQL(ctx, r.pool, tx, q, p.ID, p.UserID, p.GatewayOrderID, p.GatewayPaymentID, p.GatewayPaymentLinkID, p.GatewaySubscriptionID, p.Amount, p.Currency, p.Status, p.PlanID, p.PlanName, p.BillingCycle, p.ContactEmail, p.ContactPhone, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *paymentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Payment, error) {
	q := `SELECT ` + paymentColumns + ` FROM payments WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanPayment(row)
}

func (r *paymentRepo) FindByGatewayOrderID(ctx context.Context, tx repository.Tx, orderID string) (*model.Payment, error) {
	q := `SELECT ` + paymentColumns + ` FROM payments WHERE gateway_order_id=$1 LIMIT 1;`
	row, err := pickRow(ctx, r.pool, tx, q, orderID)
	if err != nil {
		return nil, err
	}
	return scanPayment(row)
}

func (r *paymentRepo) FindByGatewayPaymentID(ctx context.Context, tx repository.Tx, paymentID string) (*model.Payment, error) {
	q := `SELECT ` + paymentColumns + ` FROM payments WHERE gateway_payment_id=$1 LIMIT 1;`
	row, err := pickRow(ctx, r.pool, tx, q, paymentID)
	if err != nil {
		return nil, err
	}
	return scanPayment(row)
}

func (r *paymentRepo) FindByGatewayPaymentLinkID(ctx context.Context, tx repository.Tx, linkID string) (*model.Payment, error) {
	q := `SELECT ` + paymentColumns + ` FROM payments WHERE gateway_payment_link_id=$1 LIMIT 1;`
	row, err := pickRow(ctx, r.pool, tx, q, linkID)
	if err != nil {
		return nil, err
	}
	return scanPayment(row)
}

func (r *paymentRepo) FindPendingByAmount(ctx context.Context, tx repository.Tx, amount int64, cutoff time.Time, limit int) ([]*model.Payment, error) {
	if limit <= 0 {
		limit = 10
	}
	q := `SELECT ` + paymentColumns + ` FROM payments WHERE status='pending' AND amount=$1 AND created_at >= $2 ORDER BY created_at DESC LIMIT $3`
	// Inside a transaction the candidate rows are locked so a concurrent
	// delivery cannot claim the same pending payment.
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE SKIP LOCKED"
	}
	q += ";"
	rows, err := queryRows(ctx, r.pool, tx, q, amount, cutoff, limit)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return nil, err
		default:
			return nil, domain.ErrOperationFailed
		}
	}
	defer rows.Close()

	var out []*model.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// ClaimPending atomically flips a payment out of pending. Returns false when
// another writer already claimed the row.
func (r *paymentRepo) ClaimPending(ctx context.Context, tx repository.Tx, id string, status model.PaymentStatus, gatewayPaymentID string) (bool, error) {
	const q = `
	UPDATE payments
	   SET status = $2,
	       gateway_payment_id = COALESCE(NULLIF($3, ''), gateway_payment_id),
	       updated_at = NOW()
	 WHERE id = $1
	   AND status = 'pending';`

	cmd, err := execSQL(ctx, r.pool, tx, q, id, string(status), gatewayPaymentID)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return false, err
		}
		return false, domain.ErrOperationFailed
	}
	return cmd.RowsAffected() >= 1, nil
}

func (r *paymentRepo) UpdateStatus(ctx context.Context, tx repository.Tx, id string, status model.PaymentStatus, gatewayPaymentID string) error {
	const q = `UPDATE payments SET status=$2, gateway_payment_id=COALESCE(NULLIF($3, ''), gateway_payment_id), updated_at=NOW() WHERE id=$1;`
	_, err := execSQL(ctx, r.pool, tx, q, id, status, gatewayPaymentID)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *paymentRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string, limit int) ([]*model.Payment, error) {
	if limit <= 0 {
		limit = 20
	}
	q := `SELECT ` + paymentColumns + ` FROM payments WHERE user_id=$1 ORDER BY created_at DESC LIMIT $2;`
	rows, err := queryRows(ctx, r.pool, tx, q, userID, limit)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return nil, err
		default:
			return nil, domain.ErrOperationFailed
		}
	}
	defer rows.Close()

	var out []*model.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *paymentRepo) ListPendingOlderThan(ctx context.Context, tx repository.Tx, olderThan time.Time, limit int) ([]*model.Payment, error) {
	if limit <= 0 {
		limit = 100
	}
	q := `SELECT ` + paymentColumns + ` FROM payments WHERE status='pending' AND created_at < $1 ORDER BY created_at ASC LIMIT $2;`
	rows, err := queryRows(ctx, r.pool, tx, q, olderThan, limit)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return nil, err
		default:
			return nil, domain.ErrOperationFailed
		}
	}
	defer rows.Close()

	var out []*model.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// FindSuccessfulForVerify looks for a successful payment for the user,
// optionally narrowed to a specific gateway payment or payment-link id.
func (r *paymentRepo) FindSuccessfulForVerify(ctx context.Context, tx repository.Tx, userID, paymentID, linkID string) (*model.Payment, error) {
	q := `SELECT ` + paymentColumns + ` FROM payments
 WHERE user_id=$1 AND status='success'
   AND ($2 = '' OR gateway_payment_id = $2)
   AND ($3 = '' OR gateway_payment_link_id = $3)
 ORDER BY updated_at DESC LIMIT 1;`
	row, err := pickRow(ctx, r.pool, tx, q, userID, paymentID, linkID)
	if err != nil {
		return nil, err
	}
	return scanPayment(row)
}
