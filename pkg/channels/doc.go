// Package channels implements the delivery transports: in-app, email
// (Postmark), SMS gateway, push, and signed webhooks.
//
// Every sender implements the Sender interface and performs exactly one
// delivery attempt per Send call; backoff and retries are owned by the
// dispatch layer. HTTP-backed senders return *classifier.HTTPError for
// non-2xx responses so failures can be categorized upstream. The
// webhook sender signs payloads with HMAC-SHA256 and guards the
// endpoint with a circuit breaker. Dev variants (file-backed email,
// log-only senders) stand in for real providers locally.
package channels
