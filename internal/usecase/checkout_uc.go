// File: internal/usecase/checkout_uc.go
package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"content-marketplace/internal/domain"
	"content-marketplace/internal/domain/model"
	"content-marketplace/internal/domain/ports/adapter"
	"content-marketplace/internal/domain/ports/repository"
	"content-marketplace/internal/infra/metrics"
)

// Compile-time check
var _ CheckoutUseCase = (*checkoutUC)(nil)

// CheckoutResult is returned to the caller of Checkout. Completed is
// true for zero-cost orders that were granted immediately; otherwise
// PayURL carries the provider redirect.
type CheckoutResult struct {
	TransactionID string
	Amount        int64
	Discount      int64
	PayURL        string
	Completed     bool
}

type CheckoutUseCase interface {
	Checkout(ctx context.Context, buyerID string, items []model.CartItem, couponCode, payType string) (*CheckoutResult, error)
}

type checkoutUC struct {
	transactions repository.TransactionRepository
	coupons      CouponUseCase
	entitlements EntitlementUseCase
	gateway      adapter.PaymentGateway
	log          *zerolog.Logger
}

func NewCheckoutUseCase(
	transactions repository.TransactionRepository,
	coupons CouponUseCase,
	entitlements EntitlementUseCase,
	gateway adapter.PaymentGateway,
	logger *zerolog.Logger,
) *checkoutUC {
	return &checkoutUC{
		transactions: transactions,
		coupons:      coupons,
		entitlements: entitlements,
		gateway:      gateway,
		log:          logger,
	}
}

func (u *checkoutUC) Checkout(ctx context.Context, buyerID string, items []model.CartItem, couponCode, payType string) (*CheckoutResult, error) {
	if len(items) == 0 {
		return nil, domain.ErrEmptyCart
	}

	var gross int64
	productIDs := make([]string, 0, len(items))
	for _, it := range items {
		if it.ProductID == "" || it.Price < 0 {
			return nil, domain.ErrInvalidArgument
		}
		gross += it.Price
		productIDs = append(productIDs, it.ProductID)
	}

	// Coupon usage is consumed here, before the payment outcome is
	// known; a later gateway failure does not refund the slot.
	var applied []model.AppliedCoupon
	var discount int64
	if couponCode != "" {
		var err error
		applied, err = u.coupons.RedeemForCart(ctx, couponCode, items)
		if err != nil {
			return nil, err
		}
		for _, a := range applied {
			discount += a.Discount
		}
	}

	net := gross - discount
	if net < 0 {
		net = 0
	}

	t := &model.Transaction{
		ID:         uuid.NewString(),
		BuyerID:    buyerID,
		Amount:     net,
		ProductIDs: productIDs,
		Coupons:    applied,
		Status:     model.TransactionStatusPending,
		CreatedAt:  time.Now(),
	}
	if err := u.transactions.Save(ctx, repository.NoTX, t); err != nil {
		return nil, fmt.Errorf("save transaction: %w", err)
	}

	res := &CheckoutResult{TransactionID: t.ID, Amount: net, Discount: discount}

	if net == 0 {
		if err := u.entitlements.Complete(ctx, t.ID); err != nil {
			return nil, fmt.Errorf("complete zero-cost transaction: %w", err)
		}
		metrics.IncCheckout("completed")
		u.log.Info().Str("transaction_id", t.ID).Str("buyer_id", buyerID).Int64("discount", discount).Msg("zero-cost checkout completed")
		res.Completed = true
		return res, nil
	}

	order, err := u.gateway.CreateOrder(ctx, t.OrderNo(), net, payType, orderSubject(len(items)))
	if err != nil {
		// Never leave the transaction pending on a gateway failure.
		if _, markErr := u.transactions.UpdateStatusIfPending(ctx, repository.NoTX, t.ID, model.TransactionStatusFailed); markErr != nil {
			u.log.Error().Err(markErr).Str("transaction_id", t.ID).Msg("failed to mark transaction failed")
		}
		metrics.IncCheckout("failed")
		return nil, fmt.Errorf("create payment order: %w", err)
	}

	metrics.IncCheckout("pending")
	u.log.Info().Str("transaction_id", t.ID).Str("buyer_id", buyerID).Int64("amount", net).Int64("discount", discount).Str("provider", u.gateway.Name()).Msg("checkout pending payment")
	res.PayURL = order.PayURL
	return res, nil
}

func orderSubject(itemCount int) string {
	if itemCount == 1 {
		return "content package"
	}
	return fmt.Sprintf("%d content packages", itemCount)
}
