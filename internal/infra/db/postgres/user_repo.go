package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"photo-market/internal/domain"
	"photo-market/internal/domain/model"
	"photo-market/internal/domain/ports/repository"
)

var _ repository.UserRepository = (*PostgresUserRepo)(nil)

type PostgresUserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *PostgresUserRepo {
	return &PostgresUserRepo{pool: pool}
}

const userColumns = `id, telegram_id, phone_number, first_name, last_name, username,
       is_premium, free_ads_count, is_blocked, created_at, updated_at`

func (r *PostgresUserRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	const q = `
INSERT INTO users (
  id, telegram_id, phone_number, first_name, last_name, username,
  is_premium, free_ads_count, is_blocked, created_at, updated_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11
) ON CONFLICT (id) DO UPDATE SET
  telegram_id=$2, phone_number=$3, first_name=$4, last_name=$5, username=$6,
  is_premium=$7, free_ads_count=$8, is_blocked=$9, updated_at=$11;`
	_, err := execSQL(ctx, r.pool, tx, q,
		u.ID, u.TelegramID, u.PhoneNumber, u.FirstName, u.LastName, u.Username,
		u.IsPremium, u.FreeAdsCount, u.IsBlocked, u.CreatedAt, u.UpdatedAt)
	if isUniqueViolation(err) {
		return domain.ErrAlreadyExists
	}
	return err
}

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	if err := row.Scan(&u.ID, &u.TelegramID, &u.PhoneNumber, &u.FirstName, &u.LastName, &u.Username,
		&u.IsPremium, &u.FreeAdsCount, &u.IsBlocked, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (r *PostgresUserRepo) FindByTelegramID(ctx context.Context, tx repository.Tx, tgID int64) (*model.User, error) {
	row, err := pickRow(ctx, r.pool, tx, forUpdate(`SELECT `+userColumns+` FROM users WHERE telegram_id=$1`, tx), tgID)
	if err != nil {
		return nil, err
	}
	return scanUser(row)
}

func (r *PostgresUserRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	row, err := pickRow(ctx, r.pool, tx, forUpdate(`SELECT `+userColumns+` FROM users WHERE id=$1`, tx), id)
	if err != nil {
		return nil, err
	}
	return scanUser(row)
}

func (r *PostgresUserRepo) List(ctx context.Context, tx repository.Tx, offset, limit int) ([]*model.User, error) {
	q := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC OFFSET $1`
	args := []interface{}{offset}
	if limit > 0 {
		q += ` LIMIT $2`
		args = append(args, limit)
	}
	rows, err := queryRows(ctx, r.pool, tx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *PostgresUserRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	tag, err := execSQL(ctx, r.pool, tx, `DELETE FROM users WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PostgresUserRepo) CountUsers(ctx context.Context, tx repository.Tx) (int, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT COUNT(*) FROM users`)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

func (r *PostgresUserRepo) ResetFreeAds(ctx context.Context, tx repository.Tx, count int) (int, error) {
	tag, err := execSQL(ctx, r.pool, tx,
		`UPDATE users SET free_ads_count=$1, updated_at=NOW() WHERE NOT is_premium AND free_ads_count <> $1`, count)
	if err != nil {
		return 0, fmt.Errorf("reset free ads: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
