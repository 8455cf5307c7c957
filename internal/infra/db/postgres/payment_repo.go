package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"photo-market/internal/domain"
	"photo-market/internal/domain/model"
	"photo-market/internal/domain/ports/repository"
)

var _ repository.PaymentRepository = (*paymentRepo)(nil)

type paymentRepo struct{ pool *pgxpool.Pool }

func NewPaymentRepo(pool *pgxpool.Pool) *paymentRepo {
	return &paymentRepo{pool: pool}
}

const paymentColumns = `id, user_id, ad_id, type, amount, status, provider, COALESCE(authority, ''), ref_id,
       description, created_at, updated_at, paid_at`

func (r *paymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	const q = `
INSERT INTO payments (
  id, user_id, ad_id, type, amount, status, provider, authority, ref_id, description, created_at, updated_at, paid_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,NULLIF($8,''),$9,$10,$11,$12,$13
) ON CONFLICT (id) DO UPDATE SET
  status=$6, authority=NULLIF($8,''), ref_id=$9, description=$10, updated_at=$12, paid_at=$13;`
	_, err := execSQL(ctx, r.pool, tx, q,
		p.ID, p.UserID, p.AdID, string(p.Type), p.Amount, string(p.Status), p.Provider,
		p.Authority, p.RefID, p.Description, p.CreatedAt, p.UpdatedAt, p.PaidAt)
	if isUniqueViolation(err) {
		return domain.ErrAlreadyExists
	}
	return err
}

func scanPayment(row pgx.Row) (*model.Payment, error) {
	var (
		p          model.Payment
		typ, state string
	)
	if err := row.Scan(&p.ID, &p.UserID, &p.AdID, &typ, &p.Amount, &state, &p.Provider, &p.Authority,
		&p.RefID, &p.Description, &p.CreatedAt, &p.UpdatedAt, &p.PaidAt); err != nil {
		return nil, notFound(err)
	}
	p.Type = model.PaymentType(typ)
	p.Status = model.PaymentStatus(state)
	return &p, nil
}

func (r *paymentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Payment, error) {
	row, err := pickRow(ctx, r.pool, tx, forUpdate(`SELECT `+paymentColumns+` FROM payments WHERE id=$1`, tx), id)
	if err != nil {
		return nil, err
	}
	return scanPayment(row)
}

func (r *paymentRepo) FindByAuthority(ctx context.Context, tx repository.Tx, authority string) (*model.Payment, error) {
	if authority == "" {
		return nil, domain.ErrNotFound
	}
	row, err := pickRow(ctx, r.pool, tx, forUpdate(`SELECT `+paymentColumns+` FROM payments WHERE authority=$1`, tx), authority)
	if err != nil {
		return nil, err
	}
	return scanPayment(row)
}

func (r *paymentRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.Payment, error) {
	rows, err := queryRows(ctx, r.pool, tx, `SELECT `+paymentColumns+` FROM payments WHERE user_id=$1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	return collectPayments(rows)
}

func (r *paymentRepo) ListPendingOlderThan(ctx context.Context, tx repository.Tx, cutoff time.Time, limit int) ([]*model.Payment, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `SELECT ` + paymentColumns + ` FROM payments
 WHERE status='pending' AND authority IS NOT NULL AND created_at < $1
 ORDER BY created_at ASC LIMIT $2`
	rows, err := queryRows(ctx, r.pool, tx, q, cutoff, limit)
	if err != nil {
		return nil, err
	}
	return collectPayments(rows)
}

func collectPayments(rows pgx.Rows) ([]*model.Payment, error) {
	defer rows.Close()
	var out []*model.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *paymentRepo) Stats(ctx context.Context, tx repository.Tx) (model.PaymentStats, error) {
	const q = `
SELECT COUNT(*),
       COUNT(*) FILTER (WHERE status='completed'),
       COUNT(*) FILTER (WHERE status='pending'),
       COUNT(*) FILTER (WHERE status='failed'),
       COALESCE(SUM(amount) FILTER (WHERE status='completed'), 0)::BIGINT
  FROM payments;`
	var s model.PaymentStats
	row, err := pickRow(ctx, r.pool, tx, q)
	if err != nil {
		return s, err
	}
	if err := row.Scan(&s.Total, &s.Completed, &s.Pending, &s.Failed, &s.Revenue); err != nil {
		return s, fmt.Errorf("payment stats: %w", err)
	}
	return s, nil
}
