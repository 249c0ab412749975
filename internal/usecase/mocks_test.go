// File: internal/usecase/mocks_test.go
package usecase

import (
	"context"
	"sync"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"content-marketplace/internal/domain"
	"content-marketplace/internal/domain/model"
	"content-marketplace/internal/domain/ports/adapter"
	"content-marketplace/internal/domain/ports/repository"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// memTransactionRepo is a small in-memory implementation used by unit tests.
type memTransactionRepo struct {
	mu    sync.Mutex
	store map[string]*model.Transaction
}

func newMemTransactionRepo() *memTransactionRepo {
	return &memTransactionRepo{store: make(map[string]*model.Transaction)}
}

func (m *memTransactionRepo) Save(ctx context.Context, tx repository.Tx, t *model.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *t
	m.store[t.ID] = &cp
	return nil
}

func (m *memTransactionRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *memTransactionRepo) UpdateStatusIfPending(ctx context.Context, tx repository.Tx, id string, status model.TransactionStatus) (bool, error) {
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

func (m *memTransactionRepo) SetProviderPayload(ctx context.Context, tx repository.Tx, id string, payload string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.store[id]
	if !ok {
		return domain.ErrNotFound
	}
	t.ProviderPayload = payload
	return nil
}

// memCouponRepo enforces the same check-and-increment semantics as the
// SQL implementation, under a mutex, so concurrency tests are meaningful.
type memCouponRepo struct {
	mu    sync.Mutex
	store map[string]*model.Coupon
}

func newMemCouponRepo() *memCouponRepo {
	return &memCouponRepo{store: make(map[string]*model.Coupon)}
}

func (m *memCouponRepo) Save(ctx context.Context, tx repository.Tx, c *model.Coupon) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	m.store[c.ID] = &cp
	return nil
}

func (m *memCouponRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) ([]*model.Coupon, error) {
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

func (m *memCouponRepo) ConsumeUse(ctx context.Context, tx repository.Tx, id string) error {
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

func (m *memCouponRepo) usedCount(id string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.store[id]; ok {
		return c.UsedCount
	}
	return -1
}

type memProductRepo struct {
	mu    sync.Mutex
	store map[string]*model.Product
}

func newMemProductRepo() *memProductRepo {
	return &memProductRepo{store: make(map[string]*model.Product)}
}

func (m *memProductRepo) Save(ctx context.Context, tx repository.Tx, p *model.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.store[p.ID] = &cp
	return nil
}

func (m *memProductRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memProductRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.Product, 0, len(m.store))
	for _, p := range m.store {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

type memSubscriptionRepo struct {
	mu    sync.Mutex
	store map[string][]model.SubscriptionEntry
}

func newMemSubscriptionRepo() *memSubscriptionRepo {
	return &memSubscriptionRepo{store: make(map[string][]model.SubscriptionEntry)}
}

func (m *memSubscriptionRepo) ListByBuyer(ctx context.Context, tx repository.Tx, buyerID string) ([]model.SubscriptionEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entries := m.store[buyerID]
	out := make([]model.SubscriptionEntry, len(entries))
	copy(out, entries)
	return out, nil
}

func (m *memSubscriptionRepo) ReplaceForBuyer(ctx context.Context, tx repository.Tx, buyerID string, entries []model.SubscriptionEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]model.SubscriptionEntry, len(entries))
	copy(cp, entries)
	m.store[buyerID] = cp
	return nil
}

type memGrantRepo struct {
	mu      sync.Mutex
	applied map[string]bool
}

func newMemGrantRepo() *memGrantRepo {
	return &memGrantRepo{applied: make(map[string]bool)}
}

func (m *memGrantRepo) MarkApplied(ctx context.Context, tx repository.Tx, transactionID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.applied[transactionID] {
		return false, nil
	}
	m.applied[transactionID] = true
	return true, nil
}

// memTxManager executes the callback without a real DB transaction.
type memTxManager struct{}

func (memTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	return fn(ctx, nil)
}

// commitFailTxManager runs the callback but fails the commit.
type commitFailTxManager struct{}

func (commitFailTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if err := fn(ctx, nil); err != nil {
		return err
	}
	return domain.ErrOperationFailed
}

// mockGateway records calls and answers from configurable funcs.
type mockGateway struct {
	mu               sync.Mutex
	createOrderCalls int
	CreateOrderFunc  func(ctx context.Context, orderNo string, amount int64, payType, subject string) (*adapter.PaymentOrder, error)
}

func (g *mockGateway) Name() string { return "mock" }

func (g *mockGateway) CreateOrder(ctx context.Context, orderNo string, amount int64, payType, subject string) (*adapter.PaymentOrder, error) {
	g.mu.Lock()
	g.createOrderCalls++
	g.mu.Unlock()
	if g.CreateOrderFunc != nil {
		return g.CreateOrderFunc(ctx, orderNo, amount, payType, subject)
	}
	return &adapter.PaymentOrder{ProviderID: "prov-1", PayURL: "https://pay.example/o/" + orderNo}, nil
}

func (g *mockGateway) VerifyNotification(fields map[string]string) bool { return true }

func (g *mockGateway) NotificationSucceeded(fields map[string]string) bool { return true }

func (g *mockGateway) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.createOrderCalls
}
