package preferences

import (
	"github.com/dmitrymomot/notifykit/pkg/notification"
)

// Preference is the per-notification-type delivery policy.
type Preference struct {
	Enabled  bool                   `json:"enabled"`
	Channels []notification.Channel `json:"channels"`
	Priority notification.Priority  `json:"priority"`
}

// Defaults returns the hard-coded preference table. Every type starts
// enabled; escalating types reach for every direct channel including
// SMS, routine confirmations stay in-app only.
func Defaults() map[notification.Type]Preference {
	inApp := []notification.Channel{notification.ChannelInApp}
	inAppEmail := []notification.Channel{notification.ChannelInApp, notification.ChannelEmail}
	inAppEmailPush := []notification.Channel{notification.ChannelInApp, notification.ChannelEmail, notification.ChannelPush}
	allDirect := []notification.Channel{notification.ChannelInApp, notification.ChannelEmail, notification.ChannelSMS, notification.ChannelPush}

	return map[notification.Type]Preference{
		notification.TypePaymentSuccess:       {Enabled: true, Channels: inAppEmail, Priority: notification.PriorityMedium},
		notification.TypePaymentFailed:        {Enabled: true, Channels: inAppEmailPush, Priority: notification.PriorityHigh},
		notification.TypePaymentPending:       {Enabled: true, Channels: inApp, Priority: notification.PriorityLow},
		notification.TypePaymentExpired:       {Enabled: true, Channels: inAppEmail, Priority: notification.PriorityHigh},
		notification.TypeInvoiceCreated:       {Enabled: true, Channels: inAppEmail, Priority: notification.PriorityLow},
		notification.TypeInvoiceDue:           {Enabled: true, Channels: inAppEmail, Priority: notification.PriorityMedium},
		notification.TypeInvoiceOverdue:       {Enabled: true, Channels: allDirect, Priority: notification.PriorityUrgent},
		notification.TypeVerificationRequired: {Enabled: true, Channels: inAppEmail, Priority: notification.PriorityHigh},
		notification.TypeVerificationComplete: {Enabled: true, Channels: inApp, Priority: notification.PriorityLow},
		notification.TypeSystemMaintenance:    {Enabled: true, Channels: inApp, Priority: notification.PriorityMedium},
		notification.TypeSecurityAlert:        {Enabled: true, Channels: allDirect, Priority: notification.PriorityUrgent},
	}
}
