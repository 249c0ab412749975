// File: internal/usecase/checkout_uc_test.go
package usecase

import (
	"context"
	"errors"
	"testing"

	"content-marketplace/internal/domain"
	"content-marketplace/internal/domain/model"
	"content-marketplace/internal/domain/ports/adapter"
)

type checkoutFixture struct {
	transactions *memTransactionRepo
	coupons      *memCouponRepo
	products     *memProductRepo
	subs         *memSubscriptionRepo
	grants       *memGrantRepo
	gateway      *mockGateway
	uc           CheckoutUseCase
}

func newCheckoutFixture(t *testing.T) *checkoutFixture {
	t.Helper()
	ctx := context.Background()
	log := newTestLogger()

	f := &checkoutFixture{
		transactions: newMemTransactionRepo(),
		coupons:      newMemCouponRepo(),
		products:     newMemProductRepo(),
		subs:         newMemSubscriptionRepo(),
		grants:       newMemGrantRepo(),
		gateway:      &mockGateway{},
	}

	if err := f.products.Save(ctx, nil, &model.Product{ID: "prod-a", Name: "Algebra", Price: 100, AccessID: "pkg-a", DurationValue: 1, DurationUnit: model.DurationMonth}); err != nil {
		t.Fatal(err)
	}
	if err := f.coupons.Save(ctx, nil, &model.Coupon{ID: "c-full", Code: "FREE", ProductID: "prod-a", Kind: model.DiscountPercent, Value: 150}); err != nil {
		t.Fatal(err)
	}
	if err := f.coupons.Save(ctx, nil, &model.Coupon{ID: "c-ten", Code: "TEN", ProductID: "prod-a", Kind: model.DiscountPercent, Value: 10}); err != nil {
		t.Fatal(err)
	}

	couponUC := NewCouponUseCase(f.coupons, f.products, log)
	entUC := NewEntitlementUseCase(f.transactions, f.products, f.subs, f.grants, memTxManager{}, log)
	f.uc = NewCheckoutUseCase(f.transactions, couponUC, entUC, f.gateway, log)
	return f
}

func TestCheckoutEmptyCart(t *testing.T) {
	f := newCheckoutFixture(t)
	_, err := f.uc.Checkout(context.Background(), "buyer-1", nil, "", "web")
	if !errors.Is(err, domain.ErrEmptyCart) {
		t.Fatalf("err = %v, want ErrEmptyCart", err)
	}
}

func TestCheckoutRejectsBadItems(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()

	_, err := f.uc.Checkout(ctx, "buyer-1", []model.CartItem{{ProductID: "", Price: 10}}, "", "web")
	if !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("err = %v, want ErrInvalidArgument", err)
	}
	_, err = f.uc.Checkout(ctx, "buyer-1", []model.CartItem{{ProductID: "prod-a", Price: -1}}, "", "web")
	if !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("err = %v, want ErrInvalidArgument", err)
	}
}

func TestCheckoutPendingPath(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()

	res, err := f.uc.Checkout(ctx, "buyer-1", []model.CartItem{{ProductID: "prod-a", Price: 100}}, "", "web")
	if err != nil {
		t.Fatal(err)
	}
	if res.Completed {
		t.Fatal("paid checkout must not be completed immediately")
	}
	if res.Amount != 100 || res.Discount != 0 {
		t.Fatalf("amount/discount = %d/%d", res.Amount, res.Discount)
	}
	if res.PayURL == "" {
		t.Fatal("missing pay URL")
	}

	saved, err := f.transactions.FindByID(ctx, nil, res.TransactionID)
	if err != nil {
		t.Fatal(err)
	}
	if saved.Status != model.TransactionStatusPending {
		t.Fatalf("status = %s, want pending", saved.Status)
	}
	if f.gateway.calls() != 1 {
		t.Fatalf("gateway calls = %d, want 1", f.gateway.calls())
	}
}

func TestCheckoutAppliesCouponDiscount(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()

	res, err := f.uc.Checkout(ctx, "buyer-1", []model.CartItem{{ProductID: "prod-a", Price: 100}}, "TEN", "web")
	if err != nil {
		t.Fatal(err)
	}
	if res.Discount != 10 || res.Amount != 90 {
		t.Fatalf("discount/amount = %d/%d, want 10/90", res.Discount, res.Amount)
	}
	if got := f.coupons.usedCount("c-ten"); got != 1 {
		t.Fatalf("used_count = %d, want 1", got)
	}

	saved, err := f.transactions.FindByID(ctx, nil, res.TransactionID)
	if err != nil {
		t.Fatal(err)
	}
	if len(saved.Coupons) != 1 || saved.Coupons[0].Code != "TEN" {
		t.Fatalf("recorded coupons: %+v", saved.Coupons)
	}
}

func TestCheckoutZeroNetCompletesImmediately(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()

	// 150% discount clamps to the full cart price.
	res, err := f.uc.Checkout(ctx, "buyer-1", []model.CartItem{{ProductID: "prod-a", Price: 100}}, "FREE", "web")
	if err != nil {
		t.Fatal(err)
	}
	if !res.Completed {
		t.Fatal("zero-net checkout must complete immediately")
	}
	if res.Amount != 0 || res.Discount != 100 {
		t.Fatalf("amount/discount = %d/%d, want 0/100", res.Amount, res.Discount)
	}
	if res.PayURL != "" {
		t.Fatal("zero-net checkout must not produce a pay URL")
	}
	if f.gateway.calls() != 0 {
		t.Fatal("gateway must not be called for a zero-net checkout")
	}

	saved, err := f.transactions.FindByID(ctx, nil, res.TransactionID)
	if err != nil {
		t.Fatal(err)
	}
	if saved.Status != model.TransactionStatusCompleted {
		t.Fatalf("status = %s, want completed", saved.Status)
	}

	entries, err := f.subs.ListByBuyer(ctx, nil, "buyer-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].AccessID != "pkg-a" {
		t.Fatalf("entitlements after zero-net checkout: %+v", entries)
	}
}

func TestCheckoutGatewayFailureMarksFailed(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()
	f.gateway.CreateOrderFunc = func(ctx context.Context, orderNo string, amount int64, payType, subject string) (*adapter.PaymentOrder, error) {
		return nil, errors.New("provider down")
	}

	_, err := f.uc.Checkout(ctx, "buyer-1", []model.CartItem{{ProductID: "prod-a", Price: 100}}, "", "web")
	if err == nil {
		t.Fatal("expected error from gateway failure")
	}

	// The transaction was persisted and moved to failed.
	f.transactions.mu.Lock()
	var tr *model.Transaction
	for _, v := range f.transactions.store {
		tr = v
	}
	f.transactions.mu.Unlock()
	if tr == nil {
		t.Fatal("transaction was not persisted")
	}
	if tr.Status != model.TransactionStatusFailed {
		t.Fatalf("status = %s, want failed", tr.Status)
	}
}

func TestCheckoutCouponConsumedEvenWhenGatewayFails(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()
	f.gateway.CreateOrderFunc = func(ctx context.Context, orderNo string, amount int64, payType, subject string) (*adapter.PaymentOrder, error) {
		return nil, errors.New("provider down")
	}

	_, err := f.uc.Checkout(ctx, "buyer-1", []model.CartItem{{ProductID: "prod-a", Price: 100}}, "TEN", "web")
	if err == nil {
		t.Fatal("expected error from gateway failure")
	}
	if got := f.coupons.usedCount("c-ten"); got != 1 {
		t.Fatalf("used_count = %d, want 1 (usage is not refunded)", got)
	}
}
