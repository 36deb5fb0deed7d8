package classifier_test

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifykit/pkg/classifier"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestClassifyTimeout(t *testing.T) {
	t.Parallel()

	for _, err := range []error{
		context.DeadlineExceeded,
		timeoutErr{},
		fmt.Errorf("sending: %w", context.DeadlineExceeded),
	} {
		ce := classifier.Classify(err, nil)
		assert.Equal(t, classifier.CategoryNetwork, ce.Category)
		assert.Equal(t, classifier.CodeRequestTimeout, ce.Code)
		assert.Equal(t, classifier.SeverityMedium, ce.Severity)
		assert.True(t, ce.IsRetryable)
	}
}

func TestClassifyNetworkFailure(t *testing.T) {
	t.Parallel()

	for _, err := range []error{
		syscall.ECONNREFUSED,
		&net.OpError{Op: "dial", Err: syscall.ECONNRESET},
		&net.DNSError{Err: "no such host", Name: "api.example.com"},
	} {
		ce := classifier.Classify(err, nil)
		assert.Equal(t, classifier.CategoryNetwork, ce.Category)
		assert.Equal(t, classifier.CodeNetworkError, ce.Code)
		assert.True(t, ce.IsRetryable)
	}
}

func TestClassifyHTTP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		err       *classifier.HTTPError
		category  classifier.Category
		severity  classifier.Severity
		retryable bool
	}{
		{
			name:     "unauthorized",
			err:      &classifier.HTTPError{StatusCode: 401},
			category: classifier.CategoryAuthentication,
			severity: classifier.SeverityHigh,
		},
		{
			name:     "forbidden",
			err:      &classifier.HTTPError{StatusCode: 403},
			category: classifier.CategoryAuthorization,
			severity: classifier.SeverityHigh,
		},
		{
			name:      "validation",
			err:       &classifier.HTTPError{StatusCode: 400, Validation: map[string][]string{"phone": {"Phone number is invalid"}}},
			category:  classifier.CategoryValidation,
			severity:  classifier.SeverityMedium,
			retryable: true,
		},
		{
			name:      "server error",
			err:       &classifier.HTTPError{StatusCode: 503},
			category:  classifier.CategoryServer,
			severity:  classifier.SeverityHigh,
			retryable: true,
		},
		{
			name:     "other 4xx falls back to client",
			err:      &classifier.HTTPError{StatusCode: 404},
			category: classifier.CategoryClient,
			severity: classifier.SeverityLow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ce := classifier.Classify(tt.err, nil)
			assert.Equal(t, tt.category, ce.Category)
			assert.Equal(t, tt.severity, ce.Severity)
			assert.Equal(t, tt.retryable, ce.IsRetryable)
			assert.NotEmpty(t, ce.UserMessage)
			assert.NotEmpty(t, ce.SuggestedActions)
		})
	}
}

func TestClassifyValidationJoinsFieldErrors(t *testing.T) {
	t.Parallel()

	err := &classifier.HTTPError{
		StatusCode: 400,
		Validation: map[string][]string{"email": {"Email is required"}},
	}
	ce := classifier.Classify(err, nil)
	assert.Contains(t, ce.UserMessage, "Email is required")

	// Without a structured payload the message is generic.
	generic := classifier.Classify(&classifier.HTTPError{StatusCode: 400}, nil)
	assert.NotEmpty(t, generic.UserMessage)
}

func TestClassifyWrappedHTTPError(t *testing.T) {
	t.Parallel()

	wrapped := fmt.Errorf("email send: %w", &classifier.HTTPError{StatusCode: 500})
	ce := classifier.Classify(wrapped, nil)
	assert.Equal(t, classifier.CategoryServer, ce.Category)
}

func TestClassifyGatewayCodes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		code      string
		severity  classifier.Severity
		retryable bool
	}{
		{"PAYMENT_TIMEOUT", classifier.SeverityMedium, true},
		{"PAYMENT_EXPIRED", classifier.SeverityHigh, false},
		{"INSUFFICIENT_BALANCE", classifier.SeverityHigh, true},
		{"PAYMENT_DECLINED", classifier.SeverityHigh, true},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			t.Parallel()

			ce := classifier.Classify(&classifier.GatewayError{Code: tt.code}, nil)
			assert.Equal(t, classifier.CategoryPayment, ce.Category)
			assert.Equal(t, tt.severity, ce.Severity)
			assert.Equal(t, tt.retryable, ce.IsRetryable)
			assert.Equal(t, tt.code, ce.Code)
		})
	}
}

func TestClassifyGatewayUnknownCodePassthrough(t *testing.T) {
	t.Parallel()

	ce := classifier.Classify(&classifier.GatewayError{
		Code:    "WEIRD_PROVIDER_CODE",
		Message: "provider had a hiccup",
	}, nil)

	assert.Equal(t, classifier.CategoryPayment, ce.Category)
	assert.Equal(t, classifier.SeverityMedium, ce.Severity)
	assert.True(t, ce.IsRetryable)
	assert.Equal(t, "provider had a hiccup", ce.UserMessage)
}

func TestClassifyGatewayStatuses(t *testing.T) {
	t.Parallel()

	for _, status := range []string{"PENDING", "DECLINED", "INVALID", "NOT_FOUND"} {
		ce := classifier.Classify(&classifier.GatewayError{Status: status}, nil)
		assert.Equal(t, classifier.CategoryPayment, ce.Category)
		assert.NotEmpty(t, ce.UserMessage)
	}

	// Terminal statuses should not be retried.
	assert.False(t, classifier.Classify(&classifier.GatewayError{Status: "INVALID"}, nil).IsRetryable)
	assert.False(t, classifier.Classify(&classifier.GatewayError{Status: "NOT_FOUND"}, nil).IsRetryable)
	assert.True(t, classifier.Classify(&classifier.GatewayError{Status: "PENDING"}, nil).IsRetryable)
}

func TestClassifyDefaultFallback(t *testing.T) {
	t.Parallel()

	ce := classifier.Classify(errors.New("totally opaque"), nil)
	assert.Equal(t, classifier.CategoryClient, ce.Category)
	assert.Equal(t, classifier.SeverityLow, ce.Severity)
	assert.False(t, ce.IsRetryable)
}

func TestClassifyTotality(t *testing.T) {
	t.Parallel()

	validCategories := map[classifier.Category]bool{
		classifier.CategoryNetwork: true, classifier.CategoryValidation: true,
		classifier.CategoryAuthentication: true, classifier.CategoryAuthorization: true,
		classifier.CategoryPayment: true, classifier.CategoryServer: true,
		classifier.CategoryClient: true,
	}
	validSeverities := map[classifier.Severity]bool{
		classifier.SeverityLow: true, classifier.SeverityMedium: true,
		classifier.SeverityHigh: true, classifier.SeverityCritical: true,
	}

	inputs := []error{
		nil,
		errors.New(""),
		&classifier.HTTPError{StatusCode: 0},
		&classifier.HTTPError{StatusCode: 999},
		&classifier.GatewayError{},
		fmt.Errorf("deeply: %w", fmt.Errorf("wrapped: %w", errors.New("x"))),
	}

	for _, err := range inputs {
		require.NotPanics(t, func() {
			ce := classifier.Classify(err, map[string]any{"operation": "send"})
			assert.True(t, validCategories[ce.Category], "category %q", ce.Category)
			assert.True(t, validSeverities[ce.Severity], "severity %q", ce.Severity)
			assert.NotEmpty(t, ce.UserMessage)
			assert.Equal(t, "send", ce.Context["operation"])
		})
	}
}

func TestSeverityToastDurations(t *testing.T) {
	t.Parallel()

	assert.Equal(t, time.Duration(0), classifier.ToastDuration(classifier.SeverityCritical), "critical alerts stay until dismissed")
	assert.Equal(t, 8*time.Second, classifier.ToastDuration(classifier.SeverityHigh))
	assert.Equal(t, 6*time.Second, classifier.ToastDuration(classifier.SeverityMedium))
	assert.Equal(t, 4*time.Second, classifier.ToastDuration(classifier.SeverityLow))
	assert.Equal(t, 4*time.Second, classifier.ToastDuration(classifier.Severity("unknown")))
}
