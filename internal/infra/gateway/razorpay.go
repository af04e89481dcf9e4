package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"sitepilot/internal/domain/ports/adapter"
)

var _ adapter.PaymentGateway = (*RazorpayGateway)(nil)

// RazorpayGateway implements adapter.PaymentGateway against the Razorpay
// REST API (orders, payment links, subscriptions). Every outbound create
// carries our correlation notes so webhook events can be matched
// deterministically.
type RazorpayGateway struct {
	keyID     string
	keySecret string
	baseURL   string
	client    *http.Client
}

func NewRazorpayGateway(keyID, keySecret string) (*RazorpayGateway, error) {
	if keyID == "" || keySecret == "" {
		return nil, errors.New("razorpay key id/secret empty")
	}
	return &RazorpayGateway{
		keyID:     keyID,
		keySecret: keySecret,
		baseURL:   "https://api.razorpay.com/v1",
		client:    &http.Client{Timeout: 15 * time.Second},
	}, nil
}

func (g *RazorpayGateway) Name() string { return "razorpay" }

func (g *RazorpayGateway) post(ctx context.Context, path string, payload any, out any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(g.keyID, g.keySecret)
	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error struct {
				Code        string `json:"code"`
				Description string `json:"description"`
			} `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return fmt.Errorf("razorpay %s: %d %s %s", path, resp.StatusCode, apiErr.Error.Code, apiErr.Error.Description)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (g *RazorpayGateway) CreateOrder(ctx context.Context, req adapter.CheckoutRequest) (adapter.CheckoutResult, error) {
	payload := map[string]any{
		"amount":   req.Amount,
		"currency": req.Currency,
		"notes":    req.Notes,
	}
	var out struct {
		ID string `json:"id"`
	}
	if err := g.post(ctx, "/orders", payload, &out); err != nil {
		return adapter.CheckoutResult{}, err
	}
	return adapter.CheckoutResult{OrderID: out.ID}, nil
}

func (g *RazorpayGateway) CreatePaymentLink(ctx context.Context, req adapter.CheckoutRequest) (adapter.CheckoutResult, error) {
	payload := map[string]any{
		"amount":      req.Amount,
		"currency":    req.Currency,
		"description": req.Description,
		"customer": map[string]string{
			"name":    req.CustomerName,
			"email":   req.Email,
			"contact": req.Phone,
		},
		"notify":       map[string]bool{"email": req.Email != "", "sms": req.Phone != ""},
		"callback_url": req.CallbackURL,
		"notes":        req.Notes,
	}
	var out struct {
		ID       string `json:"id"`
		ShortURL string `json:"short_url"`
	}
	if err := g.post(ctx, "/payment_links", payload, &out); err != nil {
		return adapter.CheckoutResult{}, err
	}
	return adapter.CheckoutResult{PaymentLinkID: out.ID, ShortURL: out.ShortURL}, nil
}

func (g *RazorpayGateway) CreateSubscription(ctx context.Context, req adapter.CheckoutRequest) (adapter.CheckoutResult, error) {
	payload := map[string]any{
		"plan_id":         req.GatewayPlanID,
		"total_count":     req.TotalCycles,
		"customer_notify": 1,
		"notes":           req.Notes,
	}
	var out struct {
		ID       string `json:"id"`
		ShortURL string `json:"short_url"`
	}
	if err := g.post(ctx, "/subscriptions", payload, &out); err != nil {
		return adapter.CheckoutResult{}, err
	}
	return adapter.CheckoutResult{SubscriptionID: out.ID, ShortURL: out.ShortURL}, nil
}

func (g *RazorpayGateway) CancelSubscription(ctx context.Context, gatewaySubID string) error {
	payload := map[string]any{"cancel_at_cycle_end": 0}
	return g.post(ctx, "/subscriptions/"+gatewaySubID+"/cancel", payload, nil)
}
