package classifier

import (
	"fmt"
	"strings"
)

// HTTPError carries enough detail from a failed HTTP call for the
// classifier to categorize it. Channel senders return it for any
// non-2xx response.
type HTTPError struct {
	StatusCode int
	Body       string
	// Validation holds field-level errors from a structured 400
	// response, keyed by field name.
	Validation map[string][]string
}

func (e *HTTPError) Error() string {
	if len(e.Body) > 0 {
		return fmt.Sprintf("http %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("http %d", e.StatusCode)
}

// fieldMessages joins the validation messages into one display string.
func (e *HTTPError) fieldMessages() string {
	if len(e.Validation) == 0 {
		return ""
	}
	var parts []string
	for _, msgs := range e.Validation {
		parts = append(parts, msgs...)
	}
	return strings.Join(parts, ". ")
}

// GatewayError is a payment-gateway failure. Code is the gateway's
// machine error code (e.g. "PAYMENT_TIMEOUT"); Status is the gateway's
// transaction status for responses that carry no error code (e.g.
// "DECLINED").
type GatewayError struct {
	Code    string
	Status  string
	Message string
}

func (e *GatewayError) Error() string {
	switch {
	case e.Code != "":
		return fmt.Sprintf("payment gateway error %s: %s", e.Code, e.Message)
	case e.Status != "":
		return fmt.Sprintf("payment gateway status %s: %s", e.Status, e.Message)
	default:
		return fmt.Sprintf("payment gateway error: %s", e.Message)
	}
}
