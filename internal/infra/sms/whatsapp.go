package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"sitepilot/internal/config"
	"sitepilot/internal/domain/ports/adapter"
)

var _ adapter.Messenger = (*WhatsAppSender)(nil)

// WhatsAppSender posts messages to the external WhatsApp/SMS provider.
// Delivery-channel selection lives with the provider, not here.
type WhatsAppSender struct {
	cfg    config.SMSConfig
	client *http.Client
}

func NewWhatsAppSender(cfg config.SMSConfig) *WhatsAppSender {
	return &WhatsAppSender{cfg: cfg, client: &http.Client{Timeout: 10 * time.Second}}
}

func (s *WhatsAppSender) Send(ctx context.Context, phone, message string) error {
	payload := map[string]string{"to": phone, "body": message}
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.BaseURL+"/messages", bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.cfg.Token)
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sms provider: status %d", resp.StatusCode)
	}
	return nil
}

var _ adapter.Messenger = (*NoopSender)(nil)

// NoopSender drops messages; used in tests and when no provider is configured.
type NoopSender struct{}

func (NoopSender) Send(ctx context.Context, phone, message string) error { return nil }
