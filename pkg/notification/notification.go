package notification

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// Type identifies the kind of application event a notification describes.
type Type string

const (
	TypePaymentSuccess       Type = "payment_success"
	TypePaymentFailed        Type = "payment_failed"
	TypePaymentPending       Type = "payment_pending"
	TypePaymentExpired       Type = "payment_expired"
	TypeInvoiceCreated       Type = "invoice_created"
	TypeInvoiceDue           Type = "invoice_due"
	TypeInvoiceOverdue       Type = "invoice_overdue"
	TypeVerificationRequired Type = "verification_required"
	TypeVerificationComplete Type = "verification_complete"
	TypeSystemMaintenance    Type = "system_maintenance"
	TypeSecurityAlert        Type = "security_alert"
)

// Types lists every supported notification type.
func Types() []Type {
	return []Type{
		TypePaymentSuccess,
		TypePaymentFailed,
		TypePaymentPending,
		TypePaymentExpired,
		TypeInvoiceCreated,
		TypeInvoiceDue,
		TypeInvoiceOverdue,
		TypeVerificationRequired,
		TypeVerificationComplete,
		TypeSystemMaintenance,
		TypeSecurityAlert,
	}
}

// Valid reports whether t is one of the supported notification types.
func (t Type) Valid() bool {
	switch t {
	case TypePaymentSuccess, TypePaymentFailed, TypePaymentPending, TypePaymentExpired,
		TypeInvoiceCreated, TypeInvoiceDue, TypeInvoiceOverdue,
		TypeVerificationRequired, TypeVerificationComplete,
		TypeSystemMaintenance, TypeSecurityAlert:
		return true
	}
	return false
}

// Priority represents the notification priority level.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Valid reports whether p is a supported priority level.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Channel is one delivery transport.
type Channel string

const (
	ChannelInApp   Channel = "in_app"
	ChannelEmail   Channel = "email"
	ChannelSMS     Channel = "sms"
	ChannelPush    Channel = "push"
	ChannelWebhook Channel = "webhook"
)

// Valid reports whether c is a supported delivery channel.
func (c Channel) Valid() bool {
	switch c {
	case ChannelInApp, ChannelEmail, ChannelSMS, ChannelPush, ChannelWebhook:
		return true
	}
	return false
}

// ContainsChannel reports whether channels includes c.
func ContainsChannel(channels []Channel, c Channel) bool {
	for _, ch := range channels {
		if ch == c {
			return true
		}
	}
	return false
}

// Notification is the core domain model carried from producers through
// preference filtering, channel fan-out, and storage.
type Notification struct {
	ID        string         `json:"id"`
	Type      Type           `json:"type"`
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	Data      map[string]any `json:"data,omitempty"`
	Priority  Priority       `json:"priority"`
	Channels  []Channel      `json:"channels"`
	Timestamp time.Time      `json:"timestamp"`
	Read      bool           `json:"read"`
	Delivered bool           `json:"delivered"`
}

// MarkAsRead marks the notification as read.
func (n *Notification) MarkAsRead() {
	n.Read = true
}

// NewID generates a notification identifier ordered roughly by creation
// time: millisecond timestamp plus a random suffix to disambiguate
// notifications created in the same millisecond.
func NewID() string {
	suffix := make([]byte, 4)
	_, _ = rand.Read(suffix)
	return fmt.Sprintf("%d-%s", time.Now().UnixMilli(), hex.EncodeToString(suffix))
}

// Event names published by the engine to its subscribers.
const (
	EventNew       = "new_notification"
	EventDelivered = "notification_delivered"
	EventRead      = "notification_read"
	EventAllRead   = "all_notifications_read"
)

// ToastDuration maps a priority to the auto-dismiss duration a UI layer
// should apply. Zero means indefinite: the toast must be dismissed
// manually.
func ToastDuration(p Priority) time.Duration {
	switch p {
	case PriorityUrgent:
		return 0
	case PriorityHigh:
		return 8 * time.Second
	case PriorityMedium:
		return 6 * time.Second
	default:
		return 4 * time.Second
	}
}
