package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"content-marketplace/internal/domain"
	"content-marketplace/internal/domain/model"
	"content-marketplace/internal/domain/ports/repository"
)

var _ repository.CouponRepository = (*couponRepo)(nil)

type couponRepo struct{ pool *pgxpool.Pool }

func NewCouponRepo(pool *pgxpool.Pool) *couponRepo {
	return &couponRepo{pool: pool}
}

func (r *couponRepo) Save(ctx context.Context, tx repository.Tx, c *model.Coupon) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}

	const q = `
INSERT INTO coupons (id, code, product_id, kind, value, usage_limit, used_count)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO UPDATE SET
  kind = EXCLUDED.kind,
  value = EXCLUDED.value,
  usage_limit = EXCLUDED.usage_limit;`

	_, err := execSQL(ctx, r.pool, tx, q, c.ID, c.Code, c.ProductID, c.Kind, c.Value, c.UsageLimit, c.UsedCount)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

// FindByCode returns every coupon row for the code whose usage limit is
// not exhausted.
func (r *couponRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) ([]*model.Coupon, error) {
	const q = `
SELECT id, code, product_id, kind, value, usage_limit, used_count
  FROM coupons
 WHERE code = $1
   AND (usage_limit IS NULL OR used_count < usage_limit);`

	rows, err := queryRows(ctx, r.pool, tx, q, code)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return nil, err
		}
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.Coupon
	for rows.Next() {
		c := new(model.Coupon)
		if err := rows.Scan(&c.ID, &c.Code, &c.ProductID, &c.Kind, &c.Value, &c.UsageLimit, &c.UsedCount); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, c)
	}
	if len(out) == 0 {
		return nil, domain.ErrNotFound
	}
	return out, nil
}

// ConsumeUse is a single check-and-increment statement so two
// concurrent redemptions can never both pass a limit of one.
func (r *couponRepo) ConsumeUse(ctx context.Context, tx repository.Tx, id string) error {
	const q = `
UPDATE coupons
   SET used_count = used_count + 1
 WHERE id = $1
   AND (usage_limit IS NULL OR used_count < usage_limit);`

	cmd, err := execSQL(ctx, r.pool, tx, q, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNotFound
		}
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrCouponExhausted
	}
	return nil
}
