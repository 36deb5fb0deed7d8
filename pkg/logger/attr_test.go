package logger_test

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/notifykit/pkg/logger"
)

func TestErrorAttr(t *testing.T) {
	t.Parallel()

	assert.Equal(t, slog.Attr{}, logger.Error(nil))

	attr := logger.Error(errors.New("boom"))
	assert.Equal(t, "error", attr.Key)
}

func TestErrorsAttr(t *testing.T) {
	t.Parallel()

	assert.Equal(t, slog.Attr{}, logger.Errors(nil, nil))

	attr := logger.Errors(errors.New("one"), nil, errors.New("two"))
	assert.Equal(t, "errors", attr.Key)
	assert.Len(t, attr.Value.Group(), 2)
}

func TestNotificationIDAttr(t *testing.T) {
	t.Parallel()

	assert.Equal(t, slog.Attr{}, logger.NotificationID(""))

	attr := logger.NotificationID("abc-123")
	assert.Equal(t, "notification_id", attr.Key)
	assert.Equal(t, "abc-123", attr.Value.String())
}

func TestDomainAttrs(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "channel", logger.Channel("email").Key)
	assert.Equal(t, "category", logger.Category("network").Key)
	assert.Equal(t, "severity", logger.Severity("high").Key)
	assert.Equal(t, "attempt_count", logger.AttemptCount(2).Key)
	assert.Equal(t, "event", logger.Event("new_notification").Key)
	assert.Equal(t, "component", logger.Component("dispatcher").Key)
}
