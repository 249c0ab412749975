package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"content-marketplace/internal/domain"
	"content-marketplace/internal/domain/ports/repository"
)

var _ repository.GrantMarkerRepository = (*grantMarkerRepo)(nil)

type grantMarkerRepo struct{ pool *pgxpool.Pool }

func NewGrantMarkerRepo(pool *pgxpool.Pool) *grantMarkerRepo {
	return &grantMarkerRepo{pool: pool}
}

// MarkApplied inserts the marker row; ON CONFLICT DO NOTHING makes the
// row count the check-and-set verdict, so only one caller ever sees
// first == true for a given transaction.
func (r *grantMarkerRepo) MarkApplied(ctx context.Context, tx repository.Tx, transactionID string) (bool, error) {
	const q = `
INSERT INTO entitlement_grants (transaction_id, applied_at)
VALUES ($1, NOW())
ON CONFLICT (transaction_id) DO NOTHING;`

	cmd, err := execSQL(ctx, r.pool, tx, q, transactionID)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return false, err
		}
		return false, domain.ErrOperationFailed
	}
	return cmd.RowsAffected() == 1, nil
}
