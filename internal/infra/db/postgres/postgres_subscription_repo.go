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

var _ repository.SubscriptionRepository = (*subscriptionRepo)(nil)

// subscriptionRepo stores each buyer's entitlement list as one JSONB
// document, replaced wholesale on every update.
type subscriptionRepo struct{ pool *pgxpool.Pool }

func NewSubscriptionRepo(pool *pgxpool.Pool) *subscriptionRepo {
	return &subscriptionRepo{pool: pool}
}

func (r *subscriptionRepo) ListByBuyer(ctx context.Context, tx repository.Tx, buyerID string) ([]model.SubscriptionEntry, error) {
	q := `SELECT entries FROM buyer_subscriptions WHERE buyer_id=$1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += ";"
	row, err := pickRow(ctx, r.pool, tx, q, buyerID)
	if err != nil {
		return nil, err
	}

	var raw []byte
	if err := row.Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return []model.SubscriptionEntry{}, nil
		}
		return nil, domain.ErrReadDatabaseRow
	}

	var entries []model.SubscriptionEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return entries, nil
}

func (r *subscriptionRepo) ReplaceForBuyer(ctx context.Context, tx repository.Tx, buyerID string, entries []model.SubscriptionEntry) error {
	if entries == nil {
		entries = []model.SubscriptionEntry{}
	}
	raw, err := json.Marshal(entries)
	if err != nil {
		return domain.ErrInvalidArgument
	}

	const q = `
INSERT INTO buyer_subscriptions (buyer_id, entries, updated_at)
VALUES ($1, $2, NOW())
ON CONFLICT (buyer_id) DO UPDATE SET
  entries = EXCLUDED.entries,
  updated_at = NOW();`

	_, err = execSQL(ctx, r.pool, tx, q, buyerID, raw)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}
