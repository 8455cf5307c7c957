package postgres

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"photo-market/internal/domain"
	"photo-market/internal/domain/model"
	"photo-market/internal/domain/ports/repository"
)

var _ repository.SettingRepository = (*settingRepo)(nil)

type settingRepo struct{ pool *pgxpool.Pool }

func NewSettingRepo(pool *pgxpool.Pool) *settingRepo {
	return &settingRepo{pool: pool}
}

func scanSetting(row pgx.Row) (*model.Setting, error) {
	var s model.Setting
	if err := row.Scan(&s.Key, &s.Value, &s.Description, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

func (r *settingRepo) Get(ctx context.Context, tx repository.Tx, key string) (*model.Setting, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT key, value, description, created_at, updated_at FROM settings WHERE key=$1`, key)
	if err != nil {
		return nil, err
	}
	return scanSetting(row)
}

func (r *settingRepo) List(ctx context.Context, tx repository.Tx) ([]*model.Setting, error) {
	rows, err := queryRows(ctx, r.pool, tx, `SELECT key, value, description, created_at, updated_at FROM settings ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.Setting
	for rows.Next() {
		s, err := scanSetting(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *settingRepo) Upsert(ctx context.Context, tx repository.Tx, s *model.Setting) error {
	const q = `
INSERT INTO settings (key, value, description, created_at, updated_at)
VALUES ($1,$2,$3,NOW(),NOW())
ON CONFLICT (key) DO UPDATE SET
  value=$2,
  description=CASE WHEN $3 = '' THEN settings.description ELSE $3 END,
  updated_at=NOW()
RETURNING created_at, updated_at;`
	row, err := pickRow(ctx, r.pool, tx, q, s.Key, s.Value, s.Description)
	if err != nil {
		return err
	}
	return row.Scan(&s.CreatedAt, &s.UpdatedAt)
}

func (r *settingRepo) Delete(ctx context.Context, tx repository.Tx, key string) error {
	tag, err := execSQL(ctx, r.pool, tx, `DELETE FROM settings WHERE key=$1`, key)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
