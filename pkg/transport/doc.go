// Package transport is the HTTP layer shared by every media provider.
//
// A Builder holds the run-wide configuration (user agent, timeout, credential,
// client-side limiter, logger). Providers clone it, add their own headers and
// build a Client:
//
//	base := transport.FromConfig(cfg, log)
//	client, err := provider.ConfigureTransport(base)
//
// Client.Get maps failures onto pkg/errors:
//   - connection failures: Error{Type: network}
//   - 401 and 403: Error{Type: auth}
//   - 404 and 410: Error{Type: not_found}
//   - 429: RateLimitError with the Retry-After wait (one minute when absent)
//   - 5xx: Error{Type: server_error}
//
// An exhausted client-side limiter also yields a RateLimitError, without sending
// the request. The client never retries.
package transport
