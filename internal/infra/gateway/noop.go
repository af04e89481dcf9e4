package gateway

import (
	"context"
	"fmt"
	"sync"

	"sitepilot/internal/domain/ports/adapter"
)

var _ adapter.PaymentGateway = (*NoopGateway)(nil)

// NoopGateway is a simple in-memory gateway to use in tests and dev mode.
type NoopGateway struct {
	mu  sync.Mutex
	seq int64
}

func NewNoopGateway() *NoopGateway { return &NoopGateway{} }

func (g *NoopGateway) Name() string { return "noop" }

func (g *NoopGateway) next(prefix string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	return fmt.Sprintf("%s_noop%d", prefix, g.seq)
}

func (g *NoopGateway) CreateOrder(ctx context.Context, req adapter.CheckoutRequest) (adapter.CheckoutResult, error) {
	return adapter.CheckoutResult{OrderID: g.next("order")}, nil
}

func (g *NoopGateway) CreatePaymentLink(ctx context.Context, req adapter.CheckoutRequest) (adapter.CheckoutResult, error) {
	id := g.next("plink")
	return adapter.CheckoutResult{PaymentLinkID: id, ShortURL: "https://example.test/pay/" + id}, nil
}

func (g *NoopGateway) CreateSubscription(ctx context.Context, req adapter.CheckoutRequest) (adapter.CheckoutResult, error) {
	id := g.next("sub")
	return adapter.CheckoutResult{SubscriptionID: id, ShortURL: "https://example.test/pay/" + id}, nil
}

func (g *NoopGateway) CancelSubscription(ctx context.Context, gatewaySubID string) error { return nil }
