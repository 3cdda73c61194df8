package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"captive-wifi-billing/internal/domain"
	"captive-wifi-billing/internal/domain/model"
	"captive-wifi-billing/internal/domain/ports/repository"
)

var _ repository.PaymentRepository = (*paymentRepo)(nil)

type paymentRepo struct{ pool *pgxpool.Pool }

func NewPaymentRepo(pool *pgxpool.Pool) *paymentRepo {
	return &paymentRepo{pool: pool}
}

const paymentColumns = `id, user_id, plan_slug, plan_name, amount, phone, status, transaction_id, checkout_request_id, created_at`

func (r *paymentRepo) Save(ctx context.Context, p *model.Payment) error {
	const q = `
INSERT INTO payments (
  id, user_id, plan_slug, plan_name, amount, phone, status, transaction_id, checkout_request_id, created_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10
) ON CONFLICT (id) DO UPDATE SET
  status=$7, transaction_id=$8;`

	_, err := r.pool.Exec(ctx, q,
		p.ID, p.UserID, p.PlanSlug, p.PlanName, p.Amount, p.Phone,
		p.Status, nullable(p.TransactionID), nullable(p.CheckoutRequestID), p.CreatedAt)
	if err != nil {
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *paymentRepo) FindByID(ctx context.Context, id string) (*model.Payment, error) {
	const q = `SELECT ` + paymentColumns + ` FROM payments WHERE id=$1;`
	return r.scanOne(r.pool.QueryRow(ctx, q, id))
}

func (r *paymentRepo) FindByCheckoutRequestID(ctx context.Context, checkoutRequestID string) (*model.Payment, error) {
	const q = `SELECT ` + paymentColumns + ` FROM payments WHERE checkout_request_id=$1 LIMIT 1;`
	return r.scanOne(r.pool.QueryRow(ctx, q, checkoutRequestID))
}

// UpdateStatusIfPending finalizes a record only while it is still pending,
// so a terminal status can never be overwritten.
func (r *paymentRepo) UpdateStatusIfPending(ctx context.Context, id string, status model.PaymentStatus, transactionID string) (bool, error) {
	const q = `
UPDATE payments
   SET status = $2,
       transaction_id = COALESCE($3, transaction_id)
 WHERE id = $1
   AND status = 'pending';`

	cmd, err := r.pool.Exec(ctx, q, id, status, nullable(transactionID))
	if err != nil {
		return false, domain.ErrOperationFailed
	}
	return cmd.RowsAffected() >= 1, nil
}

func (r *paymentRepo) scanOne(row pgx.Row) (*model.Payment, error) {
	p := &model.Payment{}
	var transactionID, checkoutRequestID *string
	err := row.Scan(&p.ID, &p.UserID, &p.PlanSlug, &p.PlanName, &p.Amount, &p.Phone,
		&p.Status, &transactionID, &checkoutRequestID, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrOperationFailed
	}
	if transactionID != nil {
		p.TransactionID = *transactionID
	}
	if checkoutRequestID != nil {
		p.CheckoutRequestID = *checkoutRequestID
	}
	return p, nil
}

// nullable maps empty strings to SQL NULL.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
