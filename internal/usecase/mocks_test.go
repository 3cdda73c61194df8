//go:build !integration

package usecase

import (
	"context"
	"sync"
	"time"

	"captive-wifi-billing/internal/domain"
	"captive-wifi-billing/internal/domain/model"
	"captive-wifi-billing/internal/domain/ports/adapter"

	"github.com/rs/zerolog"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// --- payments ---

type statusUpdate struct {
	id            string
	status        model.PaymentStatus
	transactionID string
}

type mockPaymentRepo struct {
	mu       sync.Mutex
	store    map[string]*model.Payment
	updates  []statusUpdate
	SaveFunc func(ctx context.Context, p *model.Payment) error
}

func newMockPaymentRepo() *mockPaymentRepo {
	return &mockPaymentRepo{store: make(map[string]*model.Payment)}
}

func (m *mockPaymentRepo) Save(ctx context.Context, p *model.Payment) error {
	if m.SaveFunc != nil {
		if err := m.SaveFunc(ctx, p); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.store[p.ID] = &cp
	return nil
}

func (m *mockPaymentRepo) FindByID(_ context.Context, id string) (*model.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockPaymentRepo) FindByCheckoutRequestID(_ context.Context, checkoutRequestID string) (*model.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.store {
		if p.CheckoutRequestID == checkoutRequestID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockPaymentRepo) UpdateStatusIfPending(_ context.Context, id string, status model.PaymentStatus, transactionID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updates = append(m.updates, statusUpdate{id, status, transactionID})
	p, ok := m.store[id]
	if !ok || p.Status != model.PaymentStatusPending {
		return false, nil
	}
	p.Status = status
	if transactionID != "" {
		p.TransactionID = transactionID
	}
	return true, nil
}

func (m *mockPaymentRepo) single() *model.Payment {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.store {
		cp := *p
		return &cp
	}
	return nil
}

// --- plans ---

type mockPlanRepo struct {
	mu    sync.Mutex
	store map[string]*model.Plan // by slug
}

func newMockPlanRepo() *mockPlanRepo {
	return &mockPlanRepo{store: make(map[string]*model.Plan)}
}

func (m *mockPlanRepo) Save(_ context.Context, plan *model.Plan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[plan.Slug]; ok {
		return domain.ErrAlreadyExists
	}
	cp := *plan
	m.store[plan.Slug] = &cp
	return nil
}

func (m *mockPlanRepo) FindBySlug(_ context.Context, slug string) (*model.Plan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[slug]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockPlanRepo) ListAll(_ context.Context) ([]*model.Plan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.Plan, 0, len(m.store))
	for _, p := range m.store {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

// --- users ---

type mockUserRepo struct {
	store map[string]*model.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{store: make(map[string]*model.User)}
}

func (m *mockUserRepo) FindByID(_ context.Context, id string) (*model.User, error) {
	u, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

// --- pending purchases ---

type mockPendingRepo struct {
	mu      sync.Mutex
	entries map[string]*model.PendingPurchase
	deleted []string
}

func newMockPendingRepo() *mockPendingRepo {
	return &mockPendingRepo{entries: make(map[string]*model.PendingPurchase)}
}

func (m *mockPendingRepo) Set(_ context.Context, id string, p *model.PendingPurchase) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.entries[id] = &cp
	return nil
}

func (m *mockPendingRepo) Find(_ context.Context, id string) (*model.PendingPurchase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.entries[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockPendingRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, id)
	m.deleted = append(m.deleted, id)
	return nil
}

// --- gateway ---

type mockGateway struct {
	mu           sync.Mutex
	requests     []adapter.PaymentRequest
	pending      *mockPendingRepo // written on success like the real adapter
	checkoutID   string
	InitiateFunc func(ctx context.Context, req adapter.PaymentRequest) (*adapter.PaymentInitiation, error)
}

func (m *mockGateway) InitiatePayment(ctx context.Context, req adapter.PaymentRequest) (*adapter.PaymentInitiation, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()
	if m.InitiateFunc != nil {
		return m.InitiateFunc(ctx, req)
	}
	id := m.checkoutID
	if id == "" {
		id = "abc123"
	}
	if m.pending != nil {
		_ = m.pending.Set(ctx, id, &model.PendingPurchase{
			UserID:   req.UserID,
			PlanName: req.PlanName,
			Duration: req.Duration,
		})
	}
	return &adapter.PaymentInitiation{CheckoutRequestID: id, MerchantRequestID: "m-1"}, nil
}

func (m *mockGateway) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// --- confirmation broker ---

// chanBroker resolves waits through per-transaction channels, mimicking the
// Redis broker without a server.
type chanBroker struct {
	mu       sync.Mutex
	waiters  map[string]chan brokerOutcome
	failures []string // resolved failure codes
}

type brokerOutcome struct {
	result *model.PaymentResult
	err    error
}

func newChanBroker() *chanBroker {
	return &chanBroker{waiters: make(map[string]chan brokerOutcome)}
}

func (b *chanBroker) waiter(id string) chan brokerOutcome {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch, ok := b.waiters[id]
	if !ok {
		ch = make(chan brokerOutcome, 1)
		b.waiters[id] = ch
	}
	return ch
}

func (b *chanBroker) Await(ctx context.Context, id string, timeout time.Duration) (*model.PaymentResult, error) {
	select {
	case out := <-b.waiter(id):
		return out.result, out.err
	case <-time.After(timeout):
		return nil, domain.ErrConfirmationTimedOut
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (b *chanBroker) ResolveSuccess(_ context.Context, id string, result *model.PaymentResult) error {
	select {
	case b.waiter(id) <- brokerOutcome{result: result}:
	default:
	}
	return nil
}

func (b *chanBroker) ResolveFailure(_ context.Context, id, resultCode string) error {
	b.mu.Lock()
	b.failures = append(b.failures, resultCode)
	b.mu.Unlock()
	select {
	case b.waiter(id) <- brokerOutcome{err: &domain.PaymentDeclinedError{Message: "Payment failed"}}:
	default:
	}
	return nil
}

// --- purchase lock ---

type mockLocker struct {
	mu   sync.Mutex
	held map[string]string
}

func newMockLocker() *mockLocker {
	return &mockLocker{held: make(map[string]string)}
}

func (m *mockLocker) TryLock(_ context.Context, key string, _ time.Duration) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.held[key]; ok {
		return "", domain.ErrPurchaseInProgress
	}
	m.held[key] = "token"
	return "token", nil
}

func (m *mockLocker) Unlock(_ context.Context, key, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.held, key)
	return nil
}

// --- network + scheduler ---

type grantCall struct{ mac, ip string }

type mockNetwork struct {
	mu       sync.Mutex
	grants   []grantCall
	revokes  []grantCall
	grantErr error
}

func (m *mockNetwork) Grant(_ context.Context, mac, ip string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.grantErr != nil {
		return m.grantErr
	}
	m.grants = append(m.grants, grantCall{mac, ip})
	return nil
}

func (m *mockNetwork) Revoke(_ context.Context, mac, ip string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revokes = append(m.revokes, grantCall{mac, ip})
	return nil
}

type scheduled struct {
	userID string
	mac    string
	ip     string
	after  time.Duration
}

type mockRevoker struct {
	mu        sync.Mutex
	schedules []scheduled
}

func (m *mockRevoker) Schedule(userID, mac, ip string, after time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.schedules = append(m.schedules, scheduled{userID, mac, ip, after})
}

func (m *mockRevoker) Cancel(userID string) bool { return false }
