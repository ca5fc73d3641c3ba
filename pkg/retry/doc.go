// Package retry re-issues failed operations with backoff.
//
// The media core never retries on its own: a rate limited page or item surfaces
// as an error value. Callers that want another attempt wrap exactly the failed
// operation, for example re-opening a single item location:
//
//	cfg := retry.FromConfig(appCfg.Retry, log)
//	task, err := retry.DoWithResult(func() (*media.Task, error) {
//		return tp.Open(location)
//	}, cfg)
//
// Delays:
//   - A RateLimitError waits for its Retry-After duration when HonorRetryAfter is set
//   - Network errors: quick retries with exponential backoff
//   - Rate limit errors without Retry-After: longer delays with less aggressive backoff
//   - Server errors: moderate delays with exponential backoff
//   - Auth, not found and extraction errors are not retried
//
// MaxWait caps every single delay.
package retry
