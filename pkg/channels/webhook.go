package channels

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/dmitrymomot/notifykit/pkg/classifier"
	"github.com/dmitrymomot/notifykit/pkg/notification"
)

// WebhookConfig holds the endpoint and optional signing secret.
type WebhookConfig struct {
	URL    string `env:"NOTIFY_WEBHOOK_URL,required"`
	Secret string `env:"NOTIFY_WEBHOOK_SECRET"`
}

// webhookEvent is the JSON envelope posted to the endpoint.
type webhookEvent struct {
	Event        string                    `json:"event"`
	Notification notification.Notification `json:"notification"`
	SentAt       time.Time                 `json:"sent_at"`
}

// WebhookSender posts notification events to an HTTP endpoint. Each
// Send is a single attempt; retry scheduling is the caller's job. The
// circuit breaker fails attempts fast while the endpoint is down.
type WebhookSender struct {
	client  *http.Client
	config  WebhookConfig
	circuit *CircuitBreaker
}

// WebhookOption configures a WebhookSender.
type WebhookOption func(*WebhookSender)

// WithWebhookClient overrides the pooled HTTP client.
func WithWebhookClient(client *http.Client) WebhookOption {
	return func(s *WebhookSender) {
		if client != nil {
			s.client = client
		}
	}
}

// WithCircuitBreaker sets the breaker protecting the endpoint.
func WithCircuitBreaker(cb *CircuitBreaker) WebhookOption {
	return func(s *WebhookSender) {
		s.circuit = cb
	}
}

// NewWebhookSender creates a webhook sender. The endpoint URL is
// validated up front; only http and https schemes are accepted to
// prevent SSRF.
func NewWebhookSender(cfg WebhookConfig, opts ...WebhookOption) (*WebhookSender, error) {
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: only http and https schemes are supported", ErrInvalidURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: host is required", ErrInvalidURL)
	}

	s := &WebhookSender{
		client: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		config:  cfg,
		circuit: NewCircuitBreaker(0, 0, 0),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *WebhookSender) Channel() notification.Channel {
	return notification.ChannelWebhook
}

// CircuitState exposes the breaker state for monitoring.
func (s *WebhookSender) CircuitState() CircuitState {
	if s.circuit == nil {
		return CircuitClosed
	}
	return s.circuit.State()
}

// Send posts one event to the endpoint. The payload is signed when a
// secret is configured. Non-2xx responses come back as
// *classifier.HTTPError.
func (s *WebhookSender) Send(ctx context.Context, n notification.Notification) error {
	if s.circuit != nil && !s.circuit.Allow() {
		return ErrCircuitOpen
	}

	payload, err := json.Marshal(webhookEvent{
		Event:        notification.EventNew,
		Notification: n,
		SentAt:       time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	err = s.deliver(ctx, payload)
	if s.circuit != nil {
		if err == nil {
			s.circuit.RecordSuccess()
		} else {
			s.circuit.RecordFailure()
		}
	}
	return err
}

func (s *WebhookSender) deliver(ctx context.Context, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.URL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "notifykit-webhook/1.0")

	if s.config.Secret != "" {
		sig, err := SignPayload(s.config.Secret, payload)
		if err != nil {
			return fmt.Errorf("failed to sign payload: %w", err)
		}
		for k, v := range sig.Headers() {
			req.Header.Set(k, v)
		}
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	return &classifier.HTTPError{
		StatusCode: resp.StatusCode,
		Body:       string(body),
	}
}
