// Package classifier normalizes raw delivery failures into structured,
// display-ready errors that drive retry decisions.
//
// Classify is a pure function over an error value. Channel senders
// surface transport detail through the HTTPError and GatewayError types
// so the classifier can distinguish timeouts, connectivity failures,
// auth problems, validation rejections, server faults, and
// payment-gateway outcomes. Anything it cannot recognize falls back to
// a low-severity, non-retryable client error: classification is total
// and never fails.
//
// The resulting ClassifiedError carries a user-facing message and
// suggested remediation actions, plus the IsRetryable flag the retry
// queue admits items by.
package classifier
