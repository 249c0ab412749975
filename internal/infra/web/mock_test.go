package web

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"content-marketplace/internal/domain"
	"content-marketplace/internal/domain/model"
	"content-marketplace/internal/domain/ports/adapter"
	"content-marketplace/internal/domain/ports/repository"
	"content-marketplace/internal/infra/payment"
	"content-marketplace/internal/usecase"
)

type stubTransactionRepo struct {
	mu    sync.Mutex
	store map[string]*model.Transaction
}

func newStubTransactionRepo() *stubTransactionRepo {
	return &stubTransactionRepo{store: make(map[string]*model.Transaction)}
}

func (m *stubTransactionRepo) Save(ctx context.Context, tx repository.Tx, t *model.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *t
	m.store[t.ID] = &cp
	return nil
}

func (m *stubTransactionRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *stubTransactionRepo) UpdateStatusIfPending(ctx context.Context, tx repository.Tx, id string, status model.TransactionStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.store[id]
	if !ok {
		return false, domain.ErrNotFound
	}
	if t.Status != model.TransactionStatusPending {
		return false, nil
	}
	t.Status = status
	return true, nil
}

func (m *stubTransactionRepo) SetProviderPayload(ctx context.Context, tx repository.Tx, id string, payload string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.store[id]
	if !ok {
		return domain.ErrNotFound
	}
	t.ProviderPayload = payload
	return nil
}

type stubCouponRepo struct {
	mu    sync.Mutex
	store map[string]*model.Coupon
}

func newStubCouponRepo() *stubCouponRepo {
	return &stubCouponRepo{store: make(map[string]*model.Coupon)}
}

func (m *stubCouponRepo) Save(ctx context.Context, tx repository.Tx, c *model.Coupon) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	m.store[c.ID] = &cp
	return nil
}

func (m *stubCouponRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) ([]*model.Coupon, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Coupon
	for _, c := range m.store {
		if c.Code == code && !c.Exhausted() {
			cp := *c
			out = append(out, &cp)
		}
	}
	if len(out) == 0 {
		return nil, domain.ErrNotFound
	}
	return out, nil
}

func (m *stubCouponRepo) ConsumeUse(ctx context.Context, tx repository.Tx, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.store[id]
	if !ok {
		return domain.ErrNotFound
	}
	if c.UsageLimit != nil && c.UsedCount >= *c.UsageLimit {
		return domain.ErrCouponExhausted
	}
	c.UsedCount++
	return nil
}

type stubProductRepo struct {
	mu    sync.Mutex
	store map[string]*model.Product
}

func newStubProductRepo() *stubProductRepo {
	return &stubProductRepo{store: make(map[string]*model.Product)}
}

func (m *stubProductRepo) Save(ctx context.Context, tx repository.Tx, p *model.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.store[p.ID] = &cp
	return nil
}

func (m *stubProductRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *stubProductRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.Product, 0, len(m.store))
	for _, p := range m.store {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

type stubSubscriptionRepo struct {
	mu    sync.Mutex
	store map[string][]model.SubscriptionEntry
}

func newStubSubscriptionRepo() *stubSubscriptionRepo {
	return &stubSubscriptionRepo{store: make(map[string][]model.SubscriptionEntry)}
}

func (m *stubSubscriptionRepo) ListByBuyer(ctx context.Context, tx repository.Tx, buyerID string) ([]model.SubscriptionEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entries := m.store[buyerID]
	out := make([]model.SubscriptionEntry, len(entries))
	copy(out, entries)
	return out, nil
}

func (m *stubSubscriptionRepo) ReplaceForBuyer(ctx context.Context, tx repository.Tx, buyerID string, entries []model.SubscriptionEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]model.SubscriptionEntry, len(entries))
	copy(cp, entries)
	m.store[buyerID] = cp
	return nil
}

type stubGrantRepo struct {
	mu      sync.Mutex
	applied map[string]bool
}

func newStubGrantRepo() *stubGrantRepo {
	return &stubGrantRepo{applied: make(map[string]bool)}
}

func (m *stubGrantRepo) MarkApplied(ctx context.Context, tx repository.Tx, transactionID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.applied[transactionID] {
		return false, nil
	}
	m.applied[transactionID] = true
	return true, nil
}

type stubTxManager struct{}

func (stubTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	return fn(ctx, nil)
}

type stubGateway struct {
	CreateOrderFunc func(ctx context.Context, orderNo string, amount int64, payType, subject string) (*adapter.PaymentOrder, error)
	VerifyFunc      func(fields map[string]string) bool
	SucceededFunc   func(fields map[string]string) bool
}

func (g *stubGateway) Name() string { return "stub" }

func (g *stubGateway) CreateOrder(ctx context.Context, orderNo string, amount int64, payType, subject string) (*adapter.PaymentOrder, error) {
	if g.CreateOrderFunc != nil {
		return g.CreateOrderFunc(ctx, orderNo, amount, payType, subject)
	}
	return &adapter.PaymentOrder{ProviderID: "prov-1", PayURL: "https://pay.example/o/" + orderNo}, nil
}

func (g *stubGateway) VerifyNotification(fields map[string]string) bool {
	if g.VerifyFunc != nil {
		return g.VerifyFunc(fields)
	}
	return true
}

func (g *stubGateway) NotificationSucceeded(fields map[string]string) bool {
	if g.SucceededFunc != nil {
		return g.SucceededFunc(fields)
	}
	return true
}

type stubLimiter struct{ allow bool }

func (l *stubLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	return l.allow, nil
}

type serverFixture struct {
	transactions *stubTransactionRepo
	coupons      *stubCouponRepo
	products     *stubProductRepo
	subs         *stubSubscriptionRepo
	grants       *stubGrantRepo
	auth         *AuthManager
	srv          *Server
}

// newServerFixture wires a Server against in-memory storage. The
// gateway defaults to the real PayHub adapter configured with test
// credentials so signature checks run for real; pass a stub to bypass.
func newServerFixture(gateway adapter.PaymentGateway, limiter RateLimiter) *serverFixture {
	log := zerolog.Nop()
	f := &serverFixture{
		transactions: newStubTransactionRepo(),
		coupons:      newStubCouponRepo(),
		products:     newStubProductRepo(),
		subs:         newStubSubscriptionRepo(),
		grants:       newStubGrantRepo(),
		auth:         NewAuthManager("test-secret", time.Hour),
	}
	if gateway == nil {
		gateway = payment.NewPayHubGateway(testMerchant, testSecret, "http://unused", "http://unused/notify", "", time.Second)
	}

	couponUC := usecase.NewCouponUseCase(f.coupons, f.products, &log)
	entUC := usecase.NewEntitlementUseCase(f.transactions, f.products, f.subs, f.grants, stubTxManager{}, &log)
	checkoutUC := usecase.NewCheckoutUseCase(f.transactions, couponUC, entUC, gateway, &log)

	f.srv = NewServer(checkoutUC, couponUC, entUC, f.transactions, f.products, gateway, f.auth, limiter, nil, 10, &log)
	return f
}
