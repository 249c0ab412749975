package repository

import "context"

// GrantMarkerRepository tracks which transactions have had their
// entitlements applied. The marker is the source of truth for the
// exactly-once grant, independent of transaction status: a completed
// transaction can still be re-delivered to the completion path.
type GrantMarkerRepository interface {
	// MarkApplied records the grant for the transaction. Returns true on
	// first application, false when the marker already existed.
	MarkApplied(ctx context.Context, tx Tx, transactionID string) (bool, error)
}
