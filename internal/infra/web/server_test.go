//go:build !integration

package web

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"sitepilot/internal/domain"
	"sitepilot/internal/domain/model"
	"sitepilot/internal/infra/gateway"
	"sitepilot/internal/usecase"
)

const testWebhookSecret = "whsec_test_123"

func signBody(body []byte) string {
	h := hmac.New(sha256.New, []byte(testWebhookSecret))
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

type serverDeps struct {
	reconcile *mockReconcileUC
	verify    *mockVerifyUC
	checkout  *mockCheckoutUC
	billing   *mockBillingUC
	auth      *AuthManager
	router    http.Handler
}

func newServerDeps() *serverDeps {
	d := &serverDeps{
		reconcile: &mockReconcileUC{},
		verify:    &mockVerifyUC{},
		checkout:  &mockCheckoutUC{},
		billing:   &mockBillingUC{},
		auth:      NewAuthManager("test-session-secret-please-change", time.Hour),
	}
	s := NewServer(d.reconcile, d.verify, d.checkout, d.billing, d.auth, testWebhookSecret, newTestLogger())
	d.router = s.Router()
	return d
}

func (d *serverDeps) post(path string, body []byte, apply func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	if apply != nil {
		apply(req)
	}
	rr := httptest.NewRecorder()
	d.router.ServeHTTP(rr, req)
	return rr
}

var capturedWebhookBody = []byte(`{
  "event": "payment.captured",
  "payload": {"payment": {"entity": {
    "id": "pay_X1", "order_id": "order_abc", "amount": 99900, "currency": "INR",
    "status": "captured",
    "notes": {"user_id": "u1", "plan_id": "growth", "plan_name": "Growth", "billing_cycle": "monthly"}
  }}}
}`)

func TestWebhookEndpoint(t *testing.T) {
	t.Run("valid signature is processed and acknowledged", func(t *testing.T) {
		d := newServerDeps()

		rr := d.post("/api/v1/webhooks/razorpay", capturedWebhookBody, func(r *http.Request) {
			r.Header.Set("X-Razorpay-Signature", signBody(capturedWebhookBody))
		})

		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
		}
		var resp map[string]any
		if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if resp["success"] != true {
			t.Errorf("expected success=true, got %v", resp)
		}
		if d.reconcile.Count() != 1 || d.reconcile.Events[0] != gateway.EventPaymentCaptured {
			t.Errorf("expected one payment.captured dispatch, got %v", d.reconcile.Events)
		}
	})

	t.Run("wrong signature is rejected before any processing", func(t *testing.T) {
		d := newServerDeps()

		rr := d.post("/api/v1/webhooks/razorpay", capturedWebhookBody, func(r *http.Request) {
			r.Header.Set("X-Razorpay-Signature", "deadbeef")
		})

		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rr.Code)
		}
		var resp map[string]string
		_ = json.Unmarshal(rr.Body.Bytes(), &resp)
		if resp["error"] != "Invalid signature" {
			t.Errorf("expected error 'Invalid signature', got %q", resp["error"])
		}
		if d.reconcile.Count() != 0 {
			t.Error("an unsigned event must never reach the reconciler")
		}
	})

	t.Run("missing signature header is rejected", func(t *testing.T) {
		d := newServerDeps()
		rr := d.post("/api/v1/webhooks/razorpay", capturedWebhookBody, nil)
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rr.Code)
		}
		if d.reconcile.Count() != 0 {
			t.Error("reconciler must not be called")
		}
	})

	t.Run("signed but malformed body is a bad request", func(t *testing.T) {
		d := newServerDeps()
		body := []byte(`{"event": "payment.captured", "payload":`)
		rr := d.post("/api/v1/webhooks/razorpay", body, func(r *http.Request) {
			r.Header.Set("X-Razorpay-Signature", signBody(body))
		})
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rr.Code)
		}
	})

	t.Run("uncorrelated event maps to 400", func(t *testing.T) {
		d := newServerDeps()
		d.reconcile.HandleEventFunc = func(ctx context.Context, env *gateway.Envelope) error {
			return domain.ErrNoMatch
		}
		rr := d.post("/api/v1/webhooks/razorpay", capturedWebhookBody, func(r *http.Request) {
			r.Header.Set("X-Razorpay-Signature", signBody(capturedWebhookBody))
		})
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rr.Code)
		}
	})

	t.Run("processing failure maps to 500 so the gateway retries", func(t *testing.T) {
		d := newServerDeps()
		d.reconcile.HandleEventFunc = func(ctx context.Context, env *gateway.Envelope) error {
			return errors.New("db down")
		}
		rr := d.post("/api/v1/webhooks/razorpay", capturedWebhookBody, func(r *http.Request) {
			r.Header.Set("X-Razorpay-Signature", signBody(capturedWebhookBody))
		})
		if rr.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rr.Code)
		}
	})
}

func TestSessionAuth(t *testing.T) {
	d := newServerDeps()

	t.Run("no credentials -> 401", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/billing", nil)
		rr := httptest.NewRecorder()
		d.router.ServeHTTP(rr, req)
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rr.Code)
		}
	})

	t.Run("garbage bearer token -> 401", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/billing", nil)
		req.Header.Set("Authorization", "Bearer not.a.jwt")
		rr := httptest.NewRecorder()
		d.router.ServeHTTP(rr, req)
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rr.Code)
		}
	})

	t.Run("token signed with another secret -> 401", func(t *testing.T) {
		other := NewAuthManager("some-other-secret-entirely", time.Hour)
		token, err := other.Mint("u1", "a@b.c")
		if err != nil {
			t.Fatalf("mint: %v", err)
		}
		req := httptest.NewRequest(http.MethodGet, "/api/v1/billing", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()
		d.router.ServeHTTP(rr, req)
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rr.Code)
		}
	})

	t.Run("valid bearer token resolves the session user", func(t *testing.T) {
		token, err := d.auth.Mint("u1", "amit@example.com")
		if err != nil {
			t.Fatalf("mint: %v", err)
		}
		req := httptest.NewRequest(http.MethodGet, "/api/v1/billing", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()
		d.router.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
		}
	})

	t.Run("session cookie works too", func(t *testing.T) {
		token, _ := d.auth.Mint("u1", "amit@example.com")
		req := httptest.NewRequest(http.MethodGet, "/api/v1/billing", nil)
		req.AddCookie(&http.Cookie{Name: "sp_session", Value: token})
		rr := httptest.NewRecorder()
		d.router.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}
	})

	t.Run("expired token -> 401", func(t *testing.T) {
		short := NewAuthManager("test-session-secret-please-change", -time.Minute)
		token, _ := short.Mint("u1", "")
		req := httptest.NewRequest(http.MethodGet, "/api/v1/billing", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()
		d.router.ServeHTTP(rr, req)
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rr.Code)
		}
	})
}

func TestVerifyEndpoint(t *testing.T) {
	d := newServerDeps()
	end := time.Now().AddDate(0, 1, 0)
	d.verify.VerifyFunc = func(ctx context.Context, userID, paymentID, linkID, gatewaySubID string) (*usecase.VerifyResult, error) {
		return &usecase.VerifyResult{
			Verified: true,
			PlanID:   "growth",
			PlanName: "Growth",
			Subscription: &model.Subscription{
				PlanID: "growth", PlanName: "Growth",
				Status:          model.SubscriptionStatusActive,
				BillingCycle:    model.BillingCycleMonthly,
				Amount:          99900,
				StartDate:       time.Now(),
				EndDate:         &end,
				NextBillingDate: &end,
			},
		}, nil
	}

	token, _ := d.auth.Mint("u1", "amit@example.com")
	body := []byte(`{"payment_id": "pay_X1"}`)
	rr := d.post("/api/v1/payments/verify", body, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	})

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if d.verify.LastUserID != "u1" {
		t.Errorf("expected the session user passed through, got %q", d.verify.LastUserID)
	}
	var resp verifyResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Verified || resp.PlanID != "growth" {
		t.Errorf("unexpected response %+v", resp)
	}
	if resp.Subscription == nil || resp.Subscription.Status != "active" {
		t.Error("expected the subscription DTO attached")
	}
}

func TestCheckoutEndpoint(t *testing.T) {
	t.Run("happy path returns the payment url", func(t *testing.T) {
		d := newServerDeps()
		token, _ := d.auth.Mint("u1", "amit@example.com")

		body := []byte(`{"plan_id": "growth", "billing_cycle": "monthly", "email": "amit@example.com"}`)
		rr := d.post("/api/v1/checkout", body, func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+token)
		})

		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
		}
		var resp map[string]any
		_ = json.Unmarshal(rr.Body.Bytes(), &resp)
		if resp["pay_url"] != "https://rzp.io/l/mock" {
			t.Errorf("expected the pay url, got %v", resp["pay_url"])
		}
	})

	t.Run("unknown plan -> 400", func(t *testing.T) {
		d := newServerDeps()
		d.checkout.InitiateFunc = func(ctx context.Context, userID, planID string, cycle model.BillingCycle, name, email, phone string) (*model.Payment, string, error) {
			return nil, "", domain.ErrNotFound
		}
		token, _ := d.auth.Mint("u1", "")
		rr := d.post("/api/v1/checkout", []byte(`{"plan_id": "nope"}`), func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+token)
		})
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rr.Code)
		}
	})
}

func TestCancelSubscriptionEndpoint(t *testing.T) {
	t.Run("requests cancellation for the session user", func(t *testing.T) {
		d := newServerDeps()
		var gotUser string
		d.checkout.CancelFunc = func(ctx context.Context, userID string) error {
			gotUser = userID
			return nil
		}
		token, _ := d.auth.Mint("u1", "")

		rr := d.post("/api/v1/subscription/cancel", nil, func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+token)
		})
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}
		if gotUser != "u1" {
			t.Errorf("expected the session user, got %q", gotUser)
		}
	})

	t.Run("no subscription -> 404", func(t *testing.T) {
		d := newServerDeps()
		d.checkout.CancelFunc = func(ctx context.Context, userID string) error {
			return domain.ErrNotFound
		}
		token, _ := d.auth.Mint("u1", "")
		rr := d.post("/api/v1/subscription/cancel", nil, func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+token)
		})
		if rr.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rr.Code)
		}
	})
}

func TestHealthEndpoint(t *testing.T) {
	d := newServerDeps()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	d.router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if rr.Body.String() != "OK" {
		t.Errorf("expected OK, got %q", rr.Body.String())
	}
}
