package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"content-marketplace/internal/domain"
	"content-marketplace/internal/domain/model"
	"content-marketplace/internal/domain/ports/repository"
)

var _ repository.ProductRepository = (*productRepo)(nil)

type productRepo struct{ pool *pgxpool.Pool }

func NewProductRepo(pool *pgxpool.Pool) *productRepo {
	return &productRepo{pool: pool}
}

func (r *productRepo) Save(ctx context.Context, tx repository.Tx, p *model.Product) error {
	const q = `
INSERT INTO products (id, name, price, access_id, duration_value, duration_unit)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (id) DO UPDATE SET
  name = EXCLUDED.name,
  price = EXCLUDED.price,
  access_id = EXCLUDED.access_id,
  duration_value = EXCLUDED.duration_value,
  duration_unit = EXCLUDED.duration_unit;`

	_, err := execSQL(ctx, r.pool, tx, q, p.ID, p.Name, p.Price, p.AccessID, p.DurationValue, p.DurationUnit)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *productRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Product, error) {
	const q = `SELECT id, name, price, access_id, duration_value, duration_unit FROM products WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}

	p := &model.Product{}
	if err := row.Scan(&p.ID, &p.Name, &p.Price, &p.AccessID, &p.DurationValue, &p.DurationUnit); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return p, nil
}

func (r *productRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Product, error) {
	const q = `SELECT id, name, price, access_id, duration_value, duration_unit FROM products ORDER BY name;`
	rows, err := queryRows(ctx, r.pool, tx, q)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return nil, err
		}
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.Product
	for rows.Next() {
		p := new(model.Product)
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.AccessID, &p.DurationValue, &p.DurationUnit); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, p)
	}
	return out, nil
}
