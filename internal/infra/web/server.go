package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"sitepilot/internal/usecase"
)

// Server wires the webhook receiver, the verify endpoint and the dashboard
// API onto a chi router.
type Server struct {
	reconcileUC   usecase.ReconcileUseCase
	verifyUC      usecase.VerifyUseCase
	checkoutUC    usecase.CheckoutUseCase
	billingUC     usecase.BillingUseCase
	auth          *AuthManager
	webhookSecret string
	log           *zerolog.Logger
}

func NewServer(
	reconcileUC usecase.ReconcileUseCase,
	verifyUC usecase.VerifyUseCase,
	checkoutUC usecase.CheckoutUseCase,
	billingUC usecase.BillingUseCase,
	auth *AuthManager,
	webhookSecret string,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		reconcileUC:   reconcileUC,
		verifyUC:      verifyUC,
		checkoutUC:    checkoutUC,
		billingUC:     billingUC,
		auth:          auth,
		webhookSecret: webhookSecret,
		log:           logger,
	}
}

// Router builds the full route tree.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()
	r.Use(TraceID(), Recover(s.log), RequestLog(s.log))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	// The gateway signs the body; no session on this route.
	r.With(Timeout(20*time.Second)).Post("/api/v1/webhooks/razorpay", s.handleWebhook)

	r.Group(func(r chi.Router) {
		r.Use(s.auth.SessionAuth(), Timeout(10*time.Second))
		r.Post("/api/v1/payments/verify", s.handleVerify)
		r.Post("/api/v1/checkout", s.handleCheckout)
		r.Post("/api/v1/subscription/cancel", s.handleCancelSubscription)
		r.Get("/api/v1/billing", s.handleBilling)
	})

	return r
}
