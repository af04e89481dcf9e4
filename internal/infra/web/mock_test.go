//go:build !integration

package web

import (
	"context"
	"io"
	"sync"

	"github.com/rs/zerolog"

	"sitepilot/internal/domain/model"
	"sitepilot/internal/infra/gateway"
	"sitepilot/internal/usecase"
)

// newTestLogger creates a silent logger for tests.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

// --- Mock use cases behind the handlers ---

type mockReconcileUC struct {
	mu     sync.Mutex
	Events []string

	HandleEventFunc func(ctx context.Context, env *gateway.Envelope) error
}

var _ usecase.ReconcileUseCase = (*mockReconcileUC)(nil)

func (m *mockReconcileUC) HandleEvent(ctx context.Context, env *gateway.Envelope) error {
	m.mu.Lock()
	m.Events = append(m.Events, env.Event)
	m.mu.Unlock()
	if m.HandleEventFunc != nil {
		return m.HandleEventFunc(ctx, env)
	}
	return nil
}

func (m *mockReconcileUC) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Events)
}

type mockVerifyUC struct {
	LastUserID string
	VerifyFunc func(ctx context.Context, userID, paymentID, linkID, gatewaySubID string) (*usecase.VerifyResult, error)
}

var _ usecase.VerifyUseCase = (*mockVerifyUC)(nil)

func (m *mockVerifyUC) Verify(ctx context.Context, userID, paymentID, linkID, gatewaySubID string) (*usecase.VerifyResult, error) {
	m.LastUserID = userID
	if m.VerifyFunc != nil {
		return m.VerifyFunc(ctx, userID, paymentID, linkID, gatewaySubID)
	}
	return &usecase.VerifyResult{Verified: false}, nil
}

type mockCheckoutUC struct {
	InitiateFunc func(ctx context.Context, userID, planID string, cycle model.BillingCycle, name, email, phone string) (*model.Payment, string, error)
	CancelFunc   func(ctx context.Context, userID string) error
}

var _ usecase.CheckoutUseCase = (*mockCheckoutUC)(nil)

func (m *mockCheckoutUC) Initiate(ctx context.Context, userID, planID string, cycle model.BillingCycle, name, email, phone string) (*model.Payment, string, error) {
	if m.InitiateFunc != nil {
		return m.InitiateFunc(ctx, userID, planID, cycle, name, email, phone)
	}
	return &model.Payment{ID: "p1", Amount: 99900, Currency: "INR"}, "https://rzp.io/l/mock", nil
}

func (m *mockCheckoutUC) Cancel(ctx context.Context, userID string) error {
	if m.CancelFunc != nil {
		return m.CancelFunc(ctx, userID)
	}
	return nil
}

type mockBillingUC struct {
	SummaryFunc func(ctx context.Context, userID string) (*usecase.BillingSummary, error)
}

var _ usecase.BillingUseCase = (*mockBillingUC)(nil)

func (m *mockBillingUC) Summary(ctx context.Context, userID string) (*usecase.BillingSummary, error) {
	if m.SummaryFunc != nil {
		return m.SummaryFunc(ctx, userID)
	}
	return &usecase.BillingSummary{}, nil
}
