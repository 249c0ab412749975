package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"content-marketplace/internal/domain"
	"content-marketplace/internal/domain/model"
	"content-marketplace/internal/domain/ports/repository"
)

var _ repository.TransactionRepository = (*transactionRepo)(nil)

type transactionRepo struct{ pool *pgxpool.Pool }

func NewTransactionRepo(pool *pgxpool.Pool) *transactionRepo {
	return &transactionRepo{pool: pool}
}

func (r *transactionRepo) Save(ctx context.Context, tx repository.Tx, t *model.Transaction) error {
	couponsJSON, err := json.Marshal(t.Coupons)
	if err != nil {
		return domain.ErrInvalidArgument
	}

	const q = `
INSERT INTO transactions (
  id, buyer_id, amount, product_ids, coupons, status, provider_payload, created_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8
) ON CONFLICT (id) DO UPDATE SET
  status=$6, provider_payload=$7;`

	_, err = execSQL(ctx, r.pool, tx, q, t.ID, t.BuyerID, t.Amount, t.ProductIDs, couponsJSON, t.Status, t.ProviderPayload, t.CreatedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *transactionRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Transaction, error) {
	q := `SELECT id, buyer_id, amount, product_ids, coupons, status, provider_payload, created_at FROM transactions WHERE id=$1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += ";"
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}

	t := &model.Transaction{}
	var couponsJSON []byte
	if err := row.Scan(&t.ID, &t.BuyerID, &t.Amount, &t.ProductIDs, &couponsJSON, &t.Status, &t.ProviderPayload, &t.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	if len(couponsJSON) > 0 {
		if err := json.Unmarshal(couponsJSON, &t.Coupons); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
	}
	return t, nil
}

// UpdateStatusIfPending atomically updates status only when the current
// status is still 'pending'; the first writer to a terminal state wins.
func (r *transactionRepo) UpdateStatusIfPending(ctx context.Context, tx repository.Tx, id string, status model.TransactionStatus) (bool, error) {
	const q = `
UPDATE transactions
   SET status = $2
 WHERE id = $1
   AND status = 'pending';`

	cmd, err := execSQL(ctx, r.pool, tx, q, id, string(status))
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return false, err
		}
		return false, domain.ErrOperationFailed
	}
	return cmd.RowsAffected() >= 1, nil
}

func (r *transactionRepo) SetProviderPayload(ctx context.Context, tx repository.Tx, id string, payload string) error {
	const q = `UPDATE transactions SET provider_payload=$2 WHERE id=$1;`
	_, err := execSQL(ctx, r.pool, tx, q, id, payload)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}
