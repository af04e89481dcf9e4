package web

import (
	"errors"
	"io"
	"net/http"
	"time"

	"sitepilot/internal/domain"
	"sitepilot/internal/infra/gateway"
	"sitepilot/internal/infra/logging"
	"sitepilot/internal/infra/metrics"
)

const maxWebhookBody = 1 << 20 // 1 MiB

const signatureHeader = "X-Razorpay-Signature"

// handleWebhook is the gateway's webhook receiver. The raw body is read
// once and the signature verified over those exact bytes before the JSON is
// trusted for anything.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	rawBody, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable body")
		return
	}

	if err := gateway.VerifyWebhookSignature(rawBody, r.Header.Get(signatureHeader), s.webhookSecret); errors.Is(err, domain.ErrSignatureMismatch) {
		metrics.IncWebhookEvent("unknown", "bad_signature")
		logging.With(r.Context(), s.log).Warn().Msg("webhook signature mismatch")
		writeError(w, http.StatusUnauthorized, "Invalid signature")
		return
	}

	env, err := gateway.ParseEnvelope(rawBody)
	if err != nil {
		metrics.IncWebhookEvent("unknown", "bad_envelope")
		writeError(w, http.StatusBadRequest, "malformed event body")
		return
	}

	err = s.reconcileUC.HandleEvent(r.Context(), env)
	metrics.ObserveWebhookDuration(float64(time.Since(start).Milliseconds()))
	switch {
	case err == nil:
		metrics.IncWebhookEvent(env.Event, "ok")
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "event processed"})
	case errors.Is(err, domain.ErrNoMatch):
		metrics.IncWebhookEvent(env.Event, "no_match")
		writeError(w, http.StatusBadRequest, "could not correlate event to a user")
	case errors.Is(err, domain.ErrInvalidArgument):
		metrics.IncWebhookEvent(env.Event, "bad_payload")
		writeError(w, http.StatusBadRequest, "event payload missing entity")
	default:
		metrics.IncWebhookEvent(env.Event, "error")
		logging.With(r.Context(), s.log).Error().Err(err).Str("event", env.Event).Msg("webhook processing failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
