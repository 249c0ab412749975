package repository

import (
	"context"

	"content-marketplace/internal/domain/model"
)

// TransactionRepository is the port for purchase transactions.
type TransactionRepository interface {
	Save(ctx context.Context, tx Tx, t *model.Transaction) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Transaction, error)

	// UpdateStatusIfPending moves the transaction to the given status only
	// when it is still pending. Returns whether this call performed the
	// transition; the first writer wins, later callers observe false.
	UpdateStatusIfPending(ctx context.Context, tx Tx, id string, status model.TransactionStatus) (bool, error)

	// SetProviderPayload stores the raw notification fields (JSON) on the row.
	SetProviderPayload(ctx context.Context, tx Tx, id string, payload string) error
}
