package channels

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/dmitrymomot/notifykit/pkg/logger"
	"github.com/dmitrymomot/notifykit/pkg/notification"
)

// DevEmailSender saves rendered emails as HTML and JSON files instead
// of sending them. Meant for local development where Postmark tokens
// are not configured.
type DevEmailSender struct {
	dir    string
	render EmailRenderer
}

// NewDevEmailSender creates a file-based email sender. The directory is
// created on first send.
func NewDevEmailSender(dir string) *DevEmailSender {
	return &DevEmailSender{dir: dir, render: renderEmail}
}

func (d *DevEmailSender) Channel() notification.Channel {
	return notification.ChannelEmail
}

type devEmailMetadata struct {
	Timestamp string `json:"timestamp"`
	ID        string `json:"id"`
	Type      string `json:"type"`
	Subject   string `json:"subject"`
	Priority  string `json:"priority"`
}

func (d *DevEmailSender) Send(ctx context.Context, n notification.Notification) error {
	if err := os.MkdirAll(d.dir, 0755); err != nil {
		return fmt.Errorf("%w: failed to create directory: %v", ErrSendFailed, err)
	}

	subject, body := d.render(n)
	base := fmt.Sprintf("%s_%s", time.Now().Format("2006_01_02_150405"), sanitizeFilename(string(n.Type)))

	if err := os.WriteFile(filepath.Join(d.dir, base+".html"), []byte(body), 0644); err != nil {
		return fmt.Errorf("%w: failed to write HTML file: %v", ErrSendFailed, err)
	}

	meta, err := json.MarshalIndent(devEmailMetadata{
		Timestamp: time.Now().Format(time.RFC3339),
		ID:        n.ID,
		Type:      string(n.Type),
		Subject:   subject,
		Priority:  string(n.Priority),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: failed to marshal metadata: %v", ErrSendFailed, err)
	}
	if err := os.WriteFile(filepath.Join(d.dir, base+".json"), meta, 0644); err != nil {
		return fmt.Errorf("%w: failed to write JSON file: %v", ErrSendFailed, err)
	}
	return nil
}

var sanitizeRegex = regexp.MustCompile(`[^a-zA-Z0-9\-_.]`)

func sanitizeFilename(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = sanitizeRegex.ReplaceAllString(s, "")
	const maxLength = 100
	if len(s) > maxLength {
		s = s[:maxLength]
	}
	if s == "" {
		s = "notification"
	}
	return strings.ToLower(s)
}

// LogSender logs deliveries instead of performing them. Useful as a
// stand-in for SMS or push providers during development.
type LogSender struct {
	channel notification.Channel
	logger  *slog.Logger
}

// NewLogSender creates a sender for the given channel that only logs.
func NewLogSender(channel notification.Channel, log *slog.Logger) *LogSender {
	if log == nil {
		log = slog.Default()
	}
	return &LogSender{channel: channel, logger: log}
}

func (s *LogSender) Channel() notification.Channel {
	return s.channel
}

func (s *LogSender) Send(ctx context.Context, n notification.Notification) error {
	s.logger.LogAttrs(ctx, slog.LevelInfo, "notification delivery (dev)",
		logger.Channel(string(s.channel)),
		logger.NotificationID(n.ID),
		logger.NotificationType(string(n.Type)),
		slog.String("title", n.Title),
	)
	return nil
}
