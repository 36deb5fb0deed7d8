package channels

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dmitrymomot/notifykit/pkg/classifier"
	"github.com/dmitrymomot/notifykit/pkg/notification"
)

// SMSConfig holds the SMS gateway endpoint and credentials.
type SMSConfig struct {
	APIURL      string `env:"NOTIFY_SMS_API_URL,required"`
	APIKey      string `env:"NOTIFY_SMS_API_KEY,required"`
	FromNumber  string `env:"NOTIFY_SMS_FROM,required"`
	PhoneNumber string `env:"NOTIFY_SMS_PHONE"`
}

// PhoneResolver returns the destination number for a notification.
type PhoneResolver func(n notification.Notification) (string, error)

// SMSSender delivers notifications as text messages through an HTTP
// SMS gateway.
type SMSSender struct {
	client *http.Client
	config SMSConfig
	phone  PhoneResolver
}

// SMSOption configures an SMSSender.
type SMSOption func(*SMSSender)

// WithPhoneResolver overrides the static destination from config.
func WithPhoneResolver(fn PhoneResolver) SMSOption {
	return func(s *SMSSender) {
		if fn != nil {
			s.phone = fn
		}
	}
}

// WithSMSClient overrides the HTTP client, for custom transports or
// testing.
func WithSMSClient(client *http.Client) SMSOption {
	return func(s *SMSSender) {
		if client != nil {
			s.client = client
		}
	}
}

// NewSMSSender creates an SMS gateway sender.
func NewSMSSender(cfg SMSConfig, opts ...SMSOption) (*SMSSender, error) {
	if cfg.APIURL == "" {
		return nil, fmt.Errorf("%w: APIURL is required", ErrInvalidConfig)
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: APIKey is required", ErrInvalidConfig)
	}

	s := &SMSSender{
		client: &http.Client{Timeout: 30 * time.Second},
		config: cfg,
	}
	s.phone = func(notification.Notification) (string, error) {
		if cfg.PhoneNumber == "" {
			return "", fmt.Errorf("%w: no phone number configured", ErrInvalidConfig)
		}
		return cfg.PhoneNumber, nil
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *SMSSender) Channel() notification.Channel {
	return notification.ChannelSMS
}

type smsRequest struct {
	To   string `json:"to"`
	From string `json:"from"`
	Body string `json:"body"`
}

// smsErrorResponse is the gateway's structured 400 body.
type smsErrorResponse struct {
	Errors map[string][]string `json:"errors"`
}

// Send posts one message to the gateway. Non-2xx responses come back as
// *classifier.HTTPError so the caller can categorize them; a 400 body
// with field errors is parsed into the error's validation map.
func (s *SMSSender) Send(ctx context.Context, n notification.Notification) error {
	to, err := s.phone(n)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(smsRequest{
		To:   to,
		From: s.config.FromNumber,
		Body: fmt.Sprintf("%s: %s", n.Title, n.Message),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal SMS payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.APIURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create SMS request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.config.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	// 64KB cap keeps a misbehaving gateway from exhausting memory.
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	httpErr := &classifier.HTTPError{
		StatusCode: resp.StatusCode,
		Body:       string(body),
	}
	if resp.StatusCode == http.StatusBadRequest {
		var parsed smsErrorResponse
		if json.Unmarshal(body, &parsed) == nil && len(parsed.Errors) > 0 {
			httpErr.Validation = parsed.Errors
		}
	}
	return httpErr
}
