package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"photo-market/internal/domain"
	"photo-market/internal/domain/model"
	"photo-market/internal/domain/ports/repository"
)

var _ repository.AdRepository = (*adRepo)(nil)

type adRepo struct{ pool *pgxpool.Pool }

func NewAdRepo(pool *pgxpool.Pool) *adRepo {
	return &adRepo{pool: pool}
}

const adColumns = `id, user_id, title, description, category, brand, condition, price, province, city,
       latitude, longitude, status, expiration_date, is_featured, featured_until, is_boosted, boost_until,
       telegram_message_id, created_at, updated_at`

// Featured first, then boosted, then newest.
const adOrder = ` ORDER BY is_featured DESC, is_boosted DESC, created_at DESC`

func (r *adRepo) Save(ctx context.Context, tx repository.Tx, a *model.Ad) error {
	const q = `
INSERT INTO ads (
  id, user_id, title, description, category, brand, condition, price, province, city,
  latitude, longitude, status, expiration_date, is_featured, featured_until, is_boosted, boost_until,
  telegram_message_id, created_at, updated_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21
) ON CONFLICT (id) DO UPDATE SET
  title=$3, description=$4, category=$5, brand=$6, condition=$7, price=$8, province=$9, city=$10,
  latitude=$11, longitude=$12, status=$13, expiration_date=$14, is_featured=$15, featured_until=$16,
  is_boosted=$17, boost_until=$18, telegram_message_id=$19, updated_at=$21;`
	_, err := execSQL(ctx, r.pool, tx, q,
		a.ID, a.UserID, a.Title, a.Description, a.Category, a.Brand, a.Condition, a.Price, a.Province, a.City,
		a.Latitude, a.Longitude, string(a.Status), a.ExpirationDate, a.IsFeatured, a.FeaturedUntil,
		a.IsBoosted, a.BoostUntil, a.TelegramMessageID, a.CreatedAt, a.UpdatedAt)
	return err
}

func (r *adRepo) SaveImages(ctx context.Context, tx repository.Tx, adID string, images []model.AdImage) error {
	if _, err := execSQL(ctx, r.pool, tx, `DELETE FROM ad_images WHERE ad_id=$1`, adID); err != nil {
		return fmt.Errorf("clear images: %w", err)
	}
	const q = `
INSERT INTO ad_images (id, ad_id, url, filename, sort_order, size, mime_type, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8);`
	for _, img := range images {
		if _, err := execSQL(ctx, r.pool, tx, q,
			img.ID, adID, img.URL, img.Filename, img.Order, img.Size, img.MimeType, img.CreatedAt); err != nil {
			return fmt.Errorf("insert image: %w", err)
		}
	}
	return nil
}

func scanAd(row pgx.Row) (*model.Ad, error) {
	var (
		a      model.Ad
		status string
	)
	if err := row.Scan(&a.ID, &a.UserID, &a.Title, &a.Description, &a.Category, &a.Brand, &a.Condition,
		&a.Price, &a.Province, &a.City, &a.Latitude, &a.Longitude, &status, &a.ExpirationDate,
		&a.IsFeatured, &a.FeaturedUntil, &a.IsBoosted, &a.BoostUntil, &a.TelegramMessageID,
		&a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, notFound(err)
	}
	a.Status = model.AdStatus(status)
	return &a, nil
}

func (r *adRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Ad, error) {
	row, err := pickRow(ctx, r.pool, tx, forUpdate(`SELECT `+adColumns+` FROM ads WHERE id=$1`, tx), id)
	if err != nil {
		return nil, err
	}
	a, err := scanAd(row)
	if err != nil {
		return nil, err
	}
	if err := r.attachImages(ctx, tx, []*model.Ad{a}); err != nil {
		return nil, err
	}
	return a, nil
}

func (r *adRepo) List(ctx context.Context, tx repository.Tx, f model.AdFilter) ([]*model.Ad, int, error) {
	f.Normalize()
	var (
		conds []string
		args  []interface{}
	)
	add := func(col string, v string) {
		if v == "" {
			return
		}
		args = append(args, v)
		conds = append(conds, fmt.Sprintf("%s=$%d", col, len(args)))
	}
	add("status", string(f.Status))
	add("category", f.Category)
	add("province", f.Province)
	add("city", f.City)
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	row, err := pickRow(ctx, r.pool, tx, `SELECT COUNT(*) FROM ads`+where, args...)
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := row.Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count ads: %w", err)
	}

	q := fmt.Sprintf(`SELECT %s FROM ads%s%s LIMIT $%d OFFSET $%d`, adColumns, where, adOrder, len(args)+1, len(args)+2)
	ads, err := r.collect(ctx, tx, q, append(args, f.Limit, f.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	return ads, total, nil
}

func (r *adRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.Ad, error) {
	return r.collect(ctx, tx, `SELECT `+adColumns+` FROM ads WHERE user_id=$1 ORDER BY created_at DESC`, userID)
}

func (r *adRepo) collect(ctx context.Context, tx repository.Tx, q string, args ...interface{}) ([]*model.Ad, error) {
	rows, err := queryRows(ctx, r.pool, tx, q, args...)
	if err != nil {
		return nil, err
	}
	var out []*model.Ad
	for rows.Next() {
		a, err := scanAd(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, a)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.attachImages(ctx, tx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// attachImages loads the image rows of all ads with one query.
func (r *adRepo) attachImages(ctx context.Context, tx repository.Tx, ads []*model.Ad) error {
	if len(ads) == 0 {
		return nil
	}
	ids := make([]string, len(ads))
	byID := make(map[string]*model.Ad, len(ads))
	for i, a := range ads {
		ids[i] = a.ID
		byID[a.ID] = a
		a.Images = []model.AdImage{}
	}
	rows, err := queryRows(ctx, r.pool, tx, `
SELECT id, ad_id, url, filename, sort_order, size, mime_type, created_at
  FROM ad_images WHERE ad_id = ANY($1) ORDER BY ad_id, sort_order`, ids)
	if err != nil {
		return fmt.Errorf("load images: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var img model.AdImage
		if err := rows.Scan(&img.ID, &img.AdID, &img.URL, &img.Filename, &img.Order, &img.Size, &img.MimeType, &img.CreatedAt); err != nil {
			return err
		}
		if a, ok := byID[img.AdID]; ok {
			a.Images = append(a.Images, img)
		}
	}
	return rows.Err()
}

func (r *adRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	tag, err := execSQL(ctx, r.pool, tx, `DELETE FROM ads WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *adRepo) SetTelegramMessageID(ctx context.Context, tx repository.Tx, id string, messageID int) error {
	tag, err := execSQL(ctx, r.pool, tx, `UPDATE ads SET telegram_message_id=$2, updated_at=NOW() WHERE id=$1`, id, messageID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *adRepo) ExpireDue(ctx context.Context, tx repository.Tx, now time.Time) (int, error) {
	tag, err := execSQL(ctx, r.pool, tx, `
UPDATE ads SET status='expired', updated_at=$1
 WHERE status IN ('pending','approved') AND expiration_date <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("expire ads: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (r *adRepo) ClearPromotions(ctx context.Context, tx repository.Tx, now time.Time) (int, error) {
	tag, err := execSQL(ctx, r.pool, tx, `
UPDATE ads SET
  is_featured    = CASE WHEN featured_until <= $1 THEN FALSE ELSE is_featured END,
  featured_until = CASE WHEN featured_until <= $1 THEN NULL ELSE featured_until END,
  is_boosted     = CASE WHEN boost_until <= $1 THEN FALSE ELSE is_boosted END,
  boost_until    = CASE WHEN boost_until <= $1 THEN NULL ELSE boost_until END,
  updated_at     = $1
 WHERE (is_featured AND featured_until <= $1) OR (is_boosted AND boost_until <= $1)`, now)
	if err != nil {
		return 0, fmt.Errorf("clear promotions: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
