package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"sitepilot/internal/domain"
	"sitepilot/internal/domain/model"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

type verifyRequest struct {
	PaymentID      string `json:"payment_id"`
	PaymentLinkID  string `json:"payment_link_id"`
	SubscriptionID string `json:"subscription_id"`
}

type verifyResponse struct {
	Success      bool             `json:"success"`
	Verified     bool             `json:"verified"`
	PlanID       string           `json:"plan_id,omitempty"`
	PlanName     string           `json:"plan_name,omitempty"`
	Subscription *subscriptionDTO `json:"subscription,omitempty"`
}

type subscriptionDTO struct {
	PlanID          string     `json:"plan_id"`
	PlanName        string     `json:"plan_name"`
	Status          string     `json:"status"`
	BillingCycle    string     `json:"billing_cycle"`
	Amount          int64      `json:"amount"`
	StartDate       time.Time  `json:"start_date"`
	EndDate         *time.Time `json:"end_date,omitempty"`
	NextBillingDate *time.Time `json:"next_billing_date,omitempty"`
	AutopayEnabled  bool       `json:"autopay_enabled"`
}

func toSubscriptionDTO(s *model.Subscription) *subscriptionDTO {
	if s == nil {
		return nil
	}
	return &subscriptionDTO{
		PlanID:          s.PlanID,
		PlanName:        s.PlanName,
		Status:          string(s.Status),
		BillingCycle:    string(s.BillingCycle),
		Amount:          s.Amount,
		StartDate:       s.StartDate,
		EndDate:         s.EndDate,
		NextBillingDate: s.NextBillingDate,
		AutopayEnabled:  s.AutopayEnabled,
	}
}

// handleVerify answers the frontend's post-redirect poll. Reads only; the
// webhook owns the writes.
func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	userID := SessionUserID(r.Context())

	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := s.verifyUC.Verify(r.Context(), userID, req.PaymentID, req.PaymentLinkID, req.SubscriptionID)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "verification failed")
		return
	}

	writeJSON(w, http.StatusOK, verifyResponse{
		Success:      true,
		Verified:     res.Verified,
		PlanID:       res.PlanID,
		PlanName:     res.PlanName,
		Subscription: toSubscriptionDTO(res.Subscription),
	})
}

type checkoutRequest struct {
	PlanID       string `json:"plan_id"`
	BillingCycle string `json:"billing_cycle"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
}

// handleCheckout creates the gateway checkout with correlation notes and a
// pending payment row.
func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	userID := SessionUserID(r.Context())

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, payURL, err := s.checkoutUC.Initiate(r.Context(), userID, req.PlanID, model.ParseBillingCycle(req.BillingCycle), req.Name, req.Email, req.Phone)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			writeError(w, http.StatusBadRequest, "unknown plan")
		case errors.Is(err, domain.ErrInvalidArgument):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "checkout failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"payment_id": p.ID,
		"pay_url":    payURL,
		"amount":     p.Amount,
		"currency":   p.Currency,
	})
}

// handleCancelSubscription asks the gateway to stop the user's recurring
// subscription. The local row flips when the cancellation webhook lands.
func (s *Server) handleCancelSubscription(w http.ResponseWriter, r *http.Request) {
	userID := SessionUserID(r.Context())

	if err := s.checkoutUC.Cancel(r.Context(), userID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no subscription to cancel")
			return
		}
		writeError(w, http.StatusInternalServerError, "cancellation failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "cancellation requested"})
}

// handleBilling serves the dashboard billing summary.
func (s *Server) handleBilling(w http.ResponseWriter, r *http.Request) {
	userID := SessionUserID(r.Context())

	summary, err := s.billingUC.Summary(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load billing summary")
		return
	}

	payments := make([]map[string]any, 0, len(summary.Payments))
	for _, p := range summary.Payments {
		payments = append(payments, map[string]any{
			"id":         p.ID,
			"amount":     p.Amount,
			"currency":   p.Currency,
			"status":     string(p.Status),
			"plan_name":  p.PlanName,
			"created_at": p.CreatedAt,
		})
	}
	websites := make([]map[string]any, 0, len(summary.Websites))
	for _, site := range summary.Websites {
		websites = append(websites, map[string]any{
			"id":       site.ID,
			"site_url": site.SiteURL,
			"status":   string(site.Status),
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"subscription": toSubscriptionDTO(summary.Subscription),
		"payments":     payments,
		"websites":     websites,
	})
}
