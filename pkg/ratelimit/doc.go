// Package ratelimit provides client-side rate limiters for the HTTP transport.
//
// Two strategies are available:
//
// Token Bucket: a fixed number of tokens that is refilled in full once per period.
// Good for bursty traffic such as resolving a large album followed by its items.
//
// Sliding Window: tracks request timestamps and admits a request only while fewer
// than the maximum have been made within the window.
//
// Limiters never block. Reserve either takes a slot or reports how long the caller
// has to wait; the transport turns that wait into a RateLimitError so that callers
// decide whether to retry, exactly as they do for a server-side 429.
//
//	limiter := ratelimit.New(cfg.RateLimit)
//	client, err := transport.NewBuilder().Limiter(limiter).Build()
package ratelimit
