package channels

import (
	"context"
	"errors"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/mrz1836/postmark"

	"github.com/dmitrymomot/notifykit/pkg/notification"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// EmailConfig holds Postmark credentials and addressing. RecipientEmail
// is the default destination; override per deployment with
// WithRecipientResolver.
type EmailConfig struct {
	PostmarkServerToken  string `env:"NOTIFY_POSTMARK_SERVER_TOKEN,required"`
	PostmarkAccountToken string `env:"NOTIFY_POSTMARK_ACCOUNT_TOKEN,required"`
	SenderEmail          string `env:"NOTIFY_SENDER_EMAIL,required"`
	RecipientEmail       string `env:"NOTIFY_RECIPIENT_EMAIL"`
}

// RecipientResolver returns the destination address for a notification.
type RecipientResolver func(n notification.Notification) (string, error)

// EmailRenderer produces the subject and HTML body for a notification.
type EmailRenderer func(n notification.Notification) (subject, bodyHTML string)

// EmailSender delivers notifications through Postmark's transactional
// API.
type EmailSender struct {
	client    *postmark.Client
	config    EmailConfig
	recipient RecipientResolver
	render    EmailRenderer
}

// EmailOption configures an EmailSender.
type EmailOption func(*EmailSender)

// WithRecipientResolver overrides the static recipient from config.
func WithRecipientResolver(fn RecipientResolver) EmailOption {
	return func(s *EmailSender) {
		if fn != nil {
			s.recipient = fn
		}
	}
}

// WithEmailRenderer overrides the default subject/body rendering.
func WithEmailRenderer(fn EmailRenderer) EmailOption {
	return func(s *EmailSender) {
		if fn != nil {
			s.render = fn
		}
	}
}

// NewEmailSender creates a Postmark-backed email sender. Tokens and
// sender identity are validated up front so a misconfigured service
// fails at startup, not on first send.
func NewEmailSender(cfg EmailConfig, opts ...EmailOption) (*EmailSender, error) {
	if cfg.PostmarkServerToken == "" {
		return nil, fmt.Errorf("%w: PostmarkServerToken is required", ErrInvalidConfig)
	}
	if cfg.PostmarkAccountToken == "" {
		return nil, fmt.Errorf("%w: PostmarkAccountToken is required", ErrInvalidConfig)
	}
	if !emailRegex.MatchString(cfg.SenderEmail) {
		return nil, fmt.Errorf("%w: SenderEmail must be a valid email address", ErrInvalidConfig)
	}

	s := &EmailSender{
		client: postmark.NewClient(cfg.PostmarkServerToken, cfg.PostmarkAccountToken),
		config: cfg,
		render: renderEmail,
	}
	s.recipient = func(notification.Notification) (string, error) {
		if cfg.RecipientEmail == "" {
			return "", fmt.Errorf("%w: no recipient configured", ErrInvalidConfig)
		}
		return cfg.RecipientEmail, nil
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *EmailSender) Channel() notification.Channel {
	return notification.ChannelEmail
}

// Send delivers one notification email. Tracking covers opens and HTML
// link clicks only.
func (s *EmailSender) Send(ctx context.Context, n notification.Notification) error {
	to, err := s.recipient(n)
	if err != nil {
		return err
	}

	subject, body := s.render(n)
	resp, err := s.client.SendEmail(ctx, postmark.Email{
		From:       s.config.SenderEmail,
		To:         to,
		Subject:    subject,
		Tag:        string(n.Type),
		HTMLBody:   body,
		TrackOpens: true,
		TrackLinks: "HtmlOnly",
	})
	if err != nil {
		return errors.Join(ErrSendFailed, err)
	}
	if resp.ErrorCode > 0 {
		return errors.Join(
			ErrSendFailed,
			fmt.Errorf("postmark error: %d - %s", resp.ErrorCode, resp.Message),
		)
	}
	return nil
}

// renderEmail is the default template: title as subject, message as a
// minimal HTML body with the structured data listed underneath.
func renderEmail(n notification.Notification) (string, string) {
	var b strings.Builder
	b.WriteString("<html><body>")
	fmt.Fprintf(&b, "<h2>%s</h2>", html.EscapeString(n.Title))
	fmt.Fprintf(&b, "<p>%s</p>", html.EscapeString(n.Message))
	if len(n.Data) > 0 {
		b.WriteString("<ul>")
		for key, value := range n.Data {
			fmt.Fprintf(&b, "<li><strong>%s:</strong> %s</li>",
				html.EscapeString(key),
				html.EscapeString(fmt.Sprint(value)))
		}
		b.WriteString("</ul>")
	}
	b.WriteString("</body></html>")
	return n.Title, b.String()
}
