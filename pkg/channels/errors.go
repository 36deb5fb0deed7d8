package channels

import "errors"

var (
	// ErrInvalidConfig indicates a sender was constructed with missing
	// or malformed configuration.
	ErrInvalidConfig = errors.New("channels: invalid config")

	// ErrInvalidURL indicates a webhook endpoint that is empty, not
	// http(s), or otherwise unusable.
	ErrInvalidURL = errors.New("channels: invalid webhook URL")

	// ErrCircuitOpen indicates the webhook endpoint is being protected
	// after repeated failures and the attempt was not made.
	ErrCircuitOpen = errors.New("channels: circuit breaker is open")

	// ErrPushNotRegistered indicates no device token is registered.
	// Callers treat it as a silent skip, not a delivery failure.
	ErrPushNotRegistered = errors.New("channels: no push token registered")

	// ErrSendFailed wraps provider-level delivery failures.
	ErrSendFailed = errors.New("channels: failed to send notification")
)
