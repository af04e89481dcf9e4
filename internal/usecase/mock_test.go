//go:build !integration

package usecase_test

import (
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"sitepilot/internal/domain"
	"sitepilot/internal/domain/model"
	"sitepilot/internal/domain/ports/adapter"
	"sitepilot/internal/domain/ports/repository"
)

// newTestLogger creates a silent zerolog.Logger for use in tests.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

func clonePayment(p *model.Payment) *model.Payment {
	cp := *p
	return &cp
}

func cloneSubscription(s *model.Subscription) *model.Subscription {
	cs := *s
	return &cs
}

// =============================
// Repositories
// =============================

// ---- In-memory PaymentRepository ----

type MockPaymentRepo struct {
	mu   sync.Mutex
	rows map[string]*model.Payment

	SaveFunc                func(ctx context.Context, tx repository.Tx, p *model.Payment) error
	FindPendingByAmountFunc func(ctx context.Context, tx repository.Tx, amount int64, cutoff time.Time, limit int) ([]*model.Payment, error)
	ClaimPendingFunc        func(ctx context.Context, tx repository.Tx, id string, status model.PaymentStatus, gatewayPaymentID string) (bool, error)
}

var _ repository.PaymentRepository = (*MockPaymentRepo)(nil)

func NewMockPaymentRepo() *MockPaymentRepo {
	return &MockPaymentRepo{rows: map[string]*model.Payment{}}
}

func (m *MockPaymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, p)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[p.ID] = clonePayment(p)
	return nil
}

func (m *MockPaymentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.rows[id]; ok {
		return clonePayment(p), nil
	}
	return nil, domain.ErrNotFound
}

func (m *MockPaymentRepo) findBy(match func(*model.Payment) bool) (*model.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.rows {
		if match(p) {
			return clonePayment(p), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockPaymentRepo) FindByGatewayOrderID(ctx context.Context, tx repository.Tx, orderID string) (*model.Payment, error) {
	return m.findBy(func(p *model.Payment) bool { return orderID != "" && p.GatewayOrderID == orderID })
}

func (m *MockPaymentRepo) FindByGatewayPaymentID(ctx context.Context, tx repository.Tx, paymentID string) (*model.Payment, error) {
	return m.findBy(func(p *model.Payment) bool { return paymentID != "" && p.GatewayPaymentID == paymentID })
}

func (m *MockPaymentRepo) FindByGatewayPaymentLinkID(ctx context.Context, tx repository.Tx, linkID string) (*model.Payment, error) {
	return m.findBy(func(p *model.Payment) bool { return linkID != "" && p.GatewayPaymentLinkID == linkID })
}

func (m *MockPaymentRepo) FindPendingByAmount(ctx context.Context, tx repository.Tx, amount int64, cutoff time.Time, limit int) ([]*model.Payment, error) {
	if m.FindPendingByAmountFunc != nil {
		return m.FindPendingByAmountFunc(ctx, tx, amount, cutoff, limit)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Payment
	for _, p := range m.rows {
		if p.Status == model.PaymentStatusPending && p.Amount == amount && p.CreatedAt.After(cutoff) {
			out = append(out, clonePayment(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MockPaymentRepo) ClaimPending(ctx context.Context, tx repository.Tx, id string, status model.PaymentStatus, gatewayPaymentID string) (bool, error) {
	if m.ClaimPendingFunc != nil {
		return m.ClaimPendingFunc(ctx, tx, id, status, gatewayPaymentID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[id]
	if !ok || p.Status != model.PaymentStatusPending {
		return false, nil
	}
	p.Status = status
	if gatewayPaymentID != "" {
		p.GatewayPaymentID = gatewayPaymentID
	}
	p.UpdatedAt = time.Now()
	return true, nil
}

func (m *MockPaymentRepo) UpdateStatus(ctx context.Context, tx repository.Tx, id string, status model.PaymentStatus, gatewayPaymentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.Status = status
	if gatewayPaymentID != "" {
		p.GatewayPaymentID = gatewayPaymentID
	}
	p.UpdatedAt = time.Now()
	return nil
}

func (m *MockPaymentRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string, limit int) ([]*model.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Payment
	for _, p := range m.rows {
		if p.UserID == userID {
			out = append(out, clonePayment(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MockPaymentRepo) ListPendingOlderThan(ctx context.Context, tx repository.Tx, olderThan time.Time, limit int) ([]*model.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Payment
	for _, p := range m.rows {
		if p.Status == model.PaymentStatusPending && p.CreatedAt.Before(olderThan) {
			out = append(out, clonePayment(p))
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MockPaymentRepo) FindSuccessfulForVerify(ctx context.Context, tx repository.Tx, userID, paymentID, linkID string) (*model.Payment, error) {
	return m.findBy(func(p *model.Payment) bool {
		if p.UserID != userID || p.Status != model.PaymentStatusSuccess {
			return false
		}
		if paymentID != "" && p.GatewayPaymentID != paymentID {
			return false
		}
		if linkID != "" && p.GatewayPaymentLinkID != linkID {
			return false
		}
		return true
	})
}

// Get returns the stored row without copying, for assertions.
func (m *MockPaymentRepo) Get(id string) *model.Payment {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rows[id]
}

// Count returns the number of stored payment rows.
func (m *MockPaymentRepo) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

// All returns every stored row.
func (m *MockPaymentRepo) All() []*model.Payment {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.Payment, 0, len(m.rows))
	for _, p := range m.rows {
		out = append(out, clonePayment(p))
	}
	return out
}

// ---- In-memory SubscriptionRepository ----

type MockSubscriptionRepo struct {
	mu     sync.Mutex
	byUser map[string]*model.Subscription

	UpsertFunc func(ctx context.Context, tx repository.Tx, s *model.Subscription) error
}

var _ repository.SubscriptionRepository = (*MockSubscriptionRepo)(nil)

func NewMockSubscriptionRepo() *MockSubscriptionRepo {
	return &MockSubscriptionRepo{byUser: map[string]*model.Subscription{}}
}

func (m *MockSubscriptionRepo) Upsert(ctx context.Context, tx repository.Tx, s *model.Subscription) error {
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, tx, s)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := cloneSubscription(s)
	if prev, ok := m.byUser[s.UserID]; ok {
		// Mirror the ON CONFLICT (user_id) semantics: the original id and
		// created_at survive, a blank gateway id does not clobber a set one.
		cp.ID = prev.ID
		cp.CreatedAt = prev.CreatedAt
		if cp.GatewaySubscriptionID == "" {
			cp.GatewaySubscriptionID = prev.GatewaySubscriptionID
		}
	}
	m.byUser[s.UserID] = cp
	return nil
}

func (m *MockSubscriptionRepo) FindByUserID(ctx context.Context, tx repository.Tx, userID string) (*model.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.byUser[userID]; ok {
		return cloneSubscription(s), nil
	}
	return nil, domain.ErrNotFound
}

func (m *MockSubscriptionRepo) FindByGatewaySubscriptionID(ctx context.Context, tx repository.Tx, gatewaySubID string) (*model.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.byUser {
		if gatewaySubID != "" && s.GatewaySubscriptionID == gatewaySubID {
			return cloneSubscription(s), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockSubscriptionRepo) UpdateStatus(ctx context.Context, tx repository.Tx, userID string, status model.SubscriptionStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.byUser[userID]
	if !ok {
		return domain.ErrNotFound
	}
	s.Status = status
	s.UpdatedAt = time.Now()
	return nil
}

func (m *MockSubscriptionRepo) CountByStatus(ctx context.Context, tx repository.Tx) (map[model.SubscriptionStatus]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[model.SubscriptionStatus]int{}
	for _, s := range m.byUser {
		out[s.Status]++
	}
	return out, nil
}

// Get returns the stored row for assertions.
func (m *MockSubscriptionRepo) Get(userID string) *model.Subscription {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byUser[userID]
}

// Count returns the number of subscription rows.
func (m *MockSubscriptionRepo) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byUser)
}

// ---- In-memory WebsiteRepository ----

type MockWebsiteRepo struct {
	mu    sync.Mutex
	sites map[string]*model.Website

	// SuspendErrOn simulates a per-site failure.
	SuspendErrOn map[string]error
}

var _ repository.WebsiteRepository = (*MockWebsiteRepo)(nil)

func NewMockWebsiteRepo() *MockWebsiteRepo {
	return &MockWebsiteRepo{sites: map[string]*model.Website{}, SuspendErrOn: map[string]error{}}
}

func (m *MockWebsiteRepo) Add(w *model.Website) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *w
	m.sites[w.ID] = &cp
}

func (m *MockWebsiteRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.Website, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Website
	for _, w := range m.sites {
		if w.UserID == userID {
			cp := *w
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MockWebsiteRepo) Suspend(ctx context.Context, tx repository.Tx, id, reason string, at time.Time) error {
	if err := m.SuspendErrOn[id]; err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.sites[id]
	if !ok {
		return domain.ErrNotFound
	}
	w.Status = model.WebsiteStatusSuspended
	w.SuspendedAt = &at
	w.SuspensionReason = reason
	w.UpdatedAt = at
	return nil
}

func (m *MockWebsiteRepo) Reactivate(ctx context.Context, tx repository.Tx, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.sites[id]
	if !ok {
		return domain.ErrNotFound
	}
	w.Status = model.WebsiteStatusLive
	w.SuspendedAt = nil
	w.SuspensionReason = ""
	w.ReactivatedAt = &at
	w.UpdatedAt = at
	return nil
}

// Get returns the stored site for assertions.
func (m *MockWebsiteRepo) Get(id string) *model.Website {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sites[id]
}

// ---- In-memory ProfileRepository ----

type MockProfileRepo struct {
	mu       sync.Mutex
	profiles map[string]*model.Profile
}

var _ repository.ProfileRepository = (*MockProfileRepo)(nil)

func NewMockProfileRepo() *MockProfileRepo {
	return &MockProfileRepo{profiles: map[string]*model.Profile{}}
}

func (m *MockProfileRepo) Add(p *model.Profile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.profiles[p.ID] = &cp
}

func (m *MockProfileRepo) FindByID(ctx context.Context, tx repository.Tx, userID string) (*model.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.profiles[userID]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (m *MockProfileRepo) UpdatePlan(ctx context.Context, tx repository.Tx, userID, planID, planName string, cycle model.BillingCycle, tier string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok {
		return domain.ErrNotFound
	}
	p.PlanID = planID
	p.PlanName = planName
	p.BillingCycle = cycle
	p.PlanTier = tier
	p.UpdatedAt = time.Now()
	return nil
}

// Get returns the stored profile for assertions.
func (m *MockProfileRepo) Get(userID string) *model.Profile {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.profiles[userID]
}

// =============================
// Transaction manager
// =============================

type MockTxManager struct {
	WithTxFunc func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error
	Calls      int
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

func NewMockTxManager() *MockTxManager {
	return &MockTxManager{}
}

// WithTx runs the function immediately with a nil handle. Repositories accept
// a nil handle for the non-transactional path, so the mock stays trivial.
func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	m.Calls++
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, txOpt, fn)
	}
	return fn(ctx, nil)
}

// =============================
// Adapters
// =============================

// ---- Mock PaymentGateway ----

type MockGateway struct {
	mu       sync.Mutex
	Requests []adapter.CheckoutRequest

	CreateOrderFunc        func(ctx context.Context, req adapter.CheckoutRequest) (adapter.CheckoutResult, error)
	CreatePaymentLinkFunc  func(ctx context.Context, req adapter.CheckoutRequest) (adapter.CheckoutResult, error)
	CreateSubscriptionFunc func(ctx context.Context, req adapter.CheckoutRequest) (adapter.CheckoutResult, error)
	CancelledSubIDs        []string
}

var _ adapter.PaymentGateway = (*MockGateway)(nil)

func (m *MockGateway) Name() string { return "mock" }

func (m *MockGateway) record(req adapter.CheckoutRequest) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Requests = append(m.Requests, req)
}

func (m *MockGateway) CreateOrder(ctx context.Context, req adapter.CheckoutRequest) (adapter.CheckoutResult, error) {
	m.record(req)
	if m.CreateOrderFunc != nil {
		return m.CreateOrderFunc(ctx, req)
	}
	return adapter.CheckoutResult{OrderID: "order_mock1"}, nil
}

func (m *MockGateway) CreatePaymentLink(ctx context.Context, req adapter.CheckoutRequest) (adapter.CheckoutResult, error) {
	m.record(req)
	if m.CreatePaymentLinkFunc != nil {
		return m.CreatePaymentLinkFunc(ctx, req)
	}
	return adapter.CheckoutResult{PaymentLinkID: "plink_mock1", ShortURL: "https://rzp.io/l/mock"}, nil
}

func (m *MockGateway) CreateSubscription(ctx context.Context, req adapter.CheckoutRequest) (adapter.CheckoutResult, error) {
	m.record(req)
	if m.CreateSubscriptionFunc != nil {
		return m.CreateSubscriptionFunc(ctx, req)
	}
	return adapter.CheckoutResult{SubscriptionID: "sub_mock1", ShortURL: "https://rzp.io/s/mock"}, nil
}

func (m *MockGateway) CancelSubscription(ctx context.Context, gatewaySubID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CancelledSubIDs = append(m.CancelledSubIDs, gatewaySubID)
	return nil
}

// ---- Mock Mailer / Messenger ----

type sentMail struct {
	To      string
	Subject string
	Body    string
}

type MockMailer struct {
	mu   sync.Mutex
	Sent []sentMail

	SendFunc func(ctx context.Context, to, subject, htmlBody string) error
}

var _ adapter.Mailer = (*MockMailer)(nil)

func (m *MockMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	if m.SendFunc != nil {
		return m.SendFunc(ctx, to, subject, htmlBody)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, sentMail{To: to, Subject: subject, Body: htmlBody})
	return nil
}

func (m *MockMailer) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Sent)
}

type MockMessenger struct {
	mu   sync.Mutex
	Sent []string
}

var _ adapter.Messenger = (*MockMessenger)(nil)

func (m *MockMessenger) Send(ctx context.Context, phone, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, phone+": "+message)
	return nil
}
