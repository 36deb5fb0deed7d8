package classifier

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"syscall"
	"time"
)

// Category groups failures by their origin.
type Category string

const (
	CategoryNetwork        Category = "network"
	CategoryValidation     Category = "validation"
	CategoryAuthentication Category = "authentication"
	CategoryAuthorization  Category = "authorization"
	CategoryPayment        Category = "payment"
	CategoryServer         Category = "server"
	CategoryClient         Category = "client"
)

// Severity grades how serious a failure is for the user.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// ToastDuration maps a severity to the auto-dismiss duration a UI layer
// should apply to the error's alert. Zero means indefinite: critical
// alerts never auto-expire and must be dismissed manually.
func ToastDuration(s Severity) time.Duration {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityHigh:
		return 8 * time.Second
	case SeverityMedium:
		return 6 * time.Second
	default:
		return 4 * time.Second
	}
}

// Machine codes attached to classified errors.
const (
	CodeNetworkError    = "NETWORK_ERROR"
	CodeRequestTimeout  = "REQUEST_TIMEOUT"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeForbidden       = "FORBIDDEN"
	CodeValidationError = "VALIDATION_ERROR"
	CodeServerError     = "SERVER_ERROR"
	CodeUnknownError    = "UNKNOWN_ERROR"
)

// ClassifiedError is a raw failure normalized into category, severity,
// retryability and display strings. It is a value, not an error: the
// raw error stays with the caller.
type ClassifiedError struct {
	Category         Category       `json:"category"`
	Severity         Severity       `json:"severity"`
	Code             string         `json:"code"`
	UserMessage      string         `json:"user_message"`
	IsRetryable      bool           `json:"is_retryable"`
	SuggestedActions []string       `json:"suggested_actions"`
	Context          map[string]any `json:"context,omitempty"`
}

// paymentCode describes one entry of the fixed gateway error-code table.
type paymentCode struct {
	severity    Severity
	retryable   bool
	userMessage string
}

var paymentCodes = map[string]paymentCode{
	"PAYMENT_TIMEOUT": {
		severity:    SeverityMedium,
		retryable:   true,
		userMessage: "The payment request timed out. Please try again.",
	},
	"PAYMENT_EXPIRED": {
		severity:    SeverityHigh,
		retryable:   false,
		userMessage: "The payment has expired. Please start a new payment.",
	},
	"INSUFFICIENT_BALANCE": {
		severity:    SeverityHigh,
		retryable:   true,
		userMessage: "Insufficient balance. Please top up your account and try again.",
	},
	"PAYMENT_DECLINED": {
		severity:    SeverityHigh,
		retryable:   true,
		userMessage: "The payment was declined. Please check your payment details and try again.",
	},
}

var paymentStatuses = map[string]string{
	"PENDING":   "Your payment is still being processed. Please wait a moment.",
	"DECLINED":  "Your payment was declined by the provider.",
	"INVALID":   "The payment details were invalid. Please review and try again.",
	"NOT_FOUND": "The payment could not be found. It may have been cancelled.",
}

// Classify normalizes a raw failure into a ClassifiedError. It is a
// pure function: no side effects, never panics, and always returns a
// populated category and severity regardless of input shape. The
// caller-supplied context map is attached as-is.
func Classify(err error, errCtx map[string]any) ClassifiedError {
	ce := classify(err)
	ce.Context = errCtx
	return ce
}

func classify(err error) ClassifiedError {
	if err == nil {
		return ClassifiedError{
			Category:    CategoryClient,
			Severity:    SeverityLow,
			Code:        CodeUnknownError,
			UserMessage: "Something went wrong. Please try again.",
			SuggestedActions: []string{
				"Try again",
				"Contact support if the problem persists",
			},
		}
	}

	// Timeouts are checked before generic connectivity failures because
	// net.Error timeouts also match the network branch below.
	if isTimeout(err) {
		return ClassifiedError{
			Category:    CategoryNetwork,
			Severity:    SeverityMedium,
			Code:        CodeRequestTimeout,
			UserMessage: "The request timed out. Please try again.",
			IsRetryable: true,
			SuggestedActions: []string{
				"Try again",
				"Check your internet connection",
			},
		}
	}

	if isNetworkFailure(err) {
		return ClassifiedError{
			Category:    CategoryNetwork,
			Severity:    SeverityMedium,
			Code:        CodeNetworkError,
			UserMessage: "A network error occurred. Please check your connection and try again.",
			IsRetryable: true,
			SuggestedActions: []string{
				"Check your internet connection",
				"Try again in a few seconds",
			},
		}
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return classifyHTTP(httpErr)
	}

	var gatewayErr *GatewayError
	if errors.As(err, &gatewayErr) {
		return classifyGateway(gatewayErr)
	}

	return ClassifiedError{
		Category:    CategoryClient,
		Severity:    SeverityLow,
		Code:        CodeUnknownError,
		UserMessage: "Something went wrong. Please try again.",
		SuggestedActions: []string{
			"Try again",
			"Contact support if the problem persists",
		},
	}
}

func classifyHTTP(err *HTTPError) ClassifiedError {
	switch {
	case err.StatusCode == http.StatusUnauthorized:
		return ClassifiedError{
			Category:    CategoryAuthentication,
			Severity:    SeverityHigh,
			Code:        CodeUnauthorized,
			UserMessage: "Your session has expired. Please sign in again.",
			SuggestedActions: []string{
				"Sign in again",
				"Contact support if you cannot sign in",
			},
		}

	case err.StatusCode == http.StatusForbidden:
		return ClassifiedError{
			Category:    CategoryAuthorization,
			Severity:    SeverityHigh,
			Code:        CodeForbidden,
			UserMessage: "You do not have permission to perform this action.",
			SuggestedActions: []string{
				"Check your account permissions",
				"Contact your administrator",
			},
		}

	case err.StatusCode == http.StatusBadRequest:
		msg := err.fieldMessages()
		if msg == "" {
			msg = "Some of the provided information is invalid. Please review and try again."
		}
		return ClassifiedError{
			Category:    CategoryValidation,
			Severity:    SeverityMedium,
			Code:        CodeValidationError,
			UserMessage: msg,
			IsRetryable: true,
			SuggestedActions: []string{
				"Review the highlighted fields",
				"Correct the invalid values and retry",
			},
		}

	case err.StatusCode >= http.StatusInternalServerError:
		return ClassifiedError{
			Category:    CategoryServer,
			Severity:    SeverityHigh,
			Code:        CodeServerError,
			UserMessage: "The service is temporarily unavailable. Please try again shortly.",
			IsRetryable: true,
			SuggestedActions: []string{
				"Try again in a few minutes",
				"Contact support if the problem persists",
			},
		}

	default:
		return ClassifiedError{
			Category:    CategoryClient,
			Severity:    SeverityLow,
			Code:        CodeUnknownError,
			UserMessage: "Something went wrong. Please try again.",
			SuggestedActions: []string{
				"Try again",
				"Contact support if the problem persists",
			},
		}
	}
}

func classifyGateway(err *GatewayError) ClassifiedError {
	if err.Code != "" {
		entry, known := paymentCodes[strings.ToUpper(err.Code)]
		if !known {
			msg := err.Message
			if msg == "" {
				msg = "The payment could not be processed. Please try again."
			}
			// Unknown gateway codes pass the gateway message through and
			// stay retryable so transient provider hiccups can clear.
			entry = paymentCode{severity: SeverityMedium, retryable: true, userMessage: msg}
		}
		return ClassifiedError{
			Category:    CategoryPayment,
			Severity:    entry.severity,
			Code:        strings.ToUpper(err.Code),
			UserMessage: entry.userMessage,
			IsRetryable: entry.retryable,
			SuggestedActions: []string{
				"Verify your payment details",
				"Try a different payment method",
				"Contact support if the charge keeps failing",
			},
		}
	}

	status := strings.ToUpper(err.Status)
	msg, known := paymentStatuses[status]
	if !known {
		msg = err.Message
		if msg == "" {
			msg = "The payment could not be processed. Please try again."
		}
	}
	return ClassifiedError{
		Category:    CategoryPayment,
		Severity:    SeverityMedium,
		Code:        "PAYMENT_" + nonEmpty(status, "ERROR"),
		UserMessage: msg,
		IsRetryable: status != "INVALID" && status != "NOT_FOUND",
		SuggestedActions: []string{
			"Verify your payment details",
			"Try again in a few minutes",
		},
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return false
}

func isNetworkFailure(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EHOSTUNREACH) ||
		errors.Is(err, syscall.ENETUNREACH) {
		return true
	}
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}

func nonEmpty(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
