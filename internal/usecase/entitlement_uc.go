// File: internal/usecase/entitlement_uc.go
package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"content-marketplace/internal/domain/model"
	"content-marketplace/internal/domain/ports/repository"
	"content-marketplace/internal/infra/metrics"
)

// Compile-time check
var _ EntitlementUseCase = (*entitlementUC)(nil)

// EntitlementUseCase drives a transaction to completed and grants the
// purchased entitlements. Both the zero-cost checkout path and the
// webhook path converge here.
type EntitlementUseCase interface {
	// Complete is idempotent per transaction ID: repeated or concurrent
	// calls produce exactly one subscription mutation, guarded by the
	// grant marker rather than by transaction status alone.
	Complete(ctx context.Context, transactionID string) error
}

type entitlementUC struct {
	transactions repository.TransactionRepository
	products     repository.ProductRepository
	subs         repository.SubscriptionRepository
	grants       repository.GrantMarkerRepository
	tm           repository.TransactionManager
	log          *zerolog.Logger
}

func NewEntitlementUseCase(
	transactions repository.TransactionRepository,
	products repository.ProductRepository,
	subs repository.SubscriptionRepository,
	grants repository.GrantMarkerRepository,
	tm repository.TransactionManager,
	logger *zerolog.Logger,
) *entitlementUC {
	return &entitlementUC{
		transactions: transactions,
		products:     products,
		subs:         subs,
		grants:       grants,
		tm:           tm,
		log:          logger,
	}
}

func (u *entitlementUC) Complete(ctx context.Context, transactionID string) error {
	t, err := u.transactions.FindByID(ctx, repository.NoTX, transactionID)
	if err != nil {
		return err
	}

	granted := false
	err = u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		moved, err := u.transactions.UpdateStatusIfPending(ctx, tx, t.ID, model.TransactionStatusCompleted)
		if err != nil {
			return fmt.Errorf("update transaction status: %w", err)
		}
		if !moved {
			// Someone else moved it first. Only an already-completed
			// transaction may still grant; a failed one never does.
			cur, err := u.transactions.FindByID(ctx, tx, t.ID)
			if err != nil {
				return err
			}
			if cur.Status != model.TransactionStatusCompleted {
				u.log.Warn().Str("transaction_id", t.ID).Str("status", string(cur.Status)).Msg("completion attempt on terminal transaction")
				return nil
			}
		}

		first, err := u.grants.MarkApplied(ctx, tx, t.ID)
		if err != nil {
			return fmt.Errorf("mark entitlement applied: %w", err)
		}
		if !first {
			u.log.Debug().Str("transaction_id", t.ID).Msg("entitlement already granted; duplicate completion")
			return nil
		}

		entries, err := u.subs.ListByBuyer(ctx, tx, t.BuyerID)
		if err != nil {
			return fmt.Errorf("list subscriptions: %w", err)
		}

		now := time.Now()
		for _, pid := range t.ProductIDs {
			p, err := u.products.FindByID(ctx, tx, pid)
			if err != nil {
				return fmt.Errorf("load product %s: %w", pid, err)
			}
			entries = model.ExtendEntitlements(entries, p.AccessID, p.DurationValue, p.DurationUnit, now)
		}

		if err := u.subs.ReplaceForBuyer(ctx, tx, t.BuyerID, entries); err != nil {
			return fmt.Errorf("replace subscriptions: %w", err)
		}

		granted = true
		return nil
	})
	if err != nil {
		return err
	}

	// Counters only move once the grant is durably committed.
	if granted {
		metrics.IncEntitlementGrant()
		metrics.AddRevenue(t.Amount)
		u.log.Info().Str("transaction_id", t.ID).Str("buyer_id", t.BuyerID).Int("products", len(t.ProductIDs)).Msg("entitlements granted")
	}
	return nil
}
