package repository

import (
	"context"

	"content-marketplace/internal/domain/model"
)

// SubscriptionRepository is the port for buyer entitlement lists.
// The list is always replaced wholesale; callers build a new list and
// write it back, there is no per-entry patching.
type SubscriptionRepository interface {
	ListByBuyer(ctx context.Context, tx Tx, buyerID string) ([]model.SubscriptionEntry, error)
	ReplaceForBuyer(ctx context.Context, tx Tx, buyerID string, entries []model.SubscriptionEntry) error
}
