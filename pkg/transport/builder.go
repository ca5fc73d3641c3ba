package transport

import (
	"fmt"
	"maps"
	"net/http"
	"strings"
	"time"

	"imgrab/pkg/config"
	"imgrab/pkg/logger"
	"imgrab/pkg/ratelimit"
)

// Builder carries the shared transport configuration. Providers clone it and
// layer their own headers on top before building a Client.
type Builder struct {
	headers    map[string]string
	timeout    time.Duration
	credential string
	limiter    ratelimit.Limiter
	logger     logger.Logger
	httpClient *http.Client
}

// NewBuilder creates an empty builder with no timeout
func NewBuilder() *Builder {
	return &Builder{
		headers: make(map[string]string),
	}
}

// FromConfig creates the base builder for a run from the application config
func FromConfig(cfg *config.Config, log logger.Logger) *Builder {
	b := NewBuilder().
		WithTimeout(cfg.Imgur.Timeout).
		WithCredential(cfg.Imgur.ClientID).
		WithLogger(log)

	if cfg.Imgur.UserAgent != "" {
		b.WithUserAgent(cfg.Imgur.UserAgent)
	}
	if limiter := ratelimit.New(cfg.RateLimit); limiter != nil {
		b.WithLimiter(limiter)
	}
	return b
}

// WithHeader sets a header sent with every request
func (b *Builder) WithHeader(key, value string) *Builder {
	b.headers[http.CanonicalHeaderKey(key)] = value
	return b
}

// WithUserAgent sets the User-Agent header
func (b *Builder) WithUserAgent(ua string) *Builder {
	return b.WithHeader("User-Agent", ua)
}

// WithTimeout sets the overall request timeout; 0 disables it
func (b *Builder) WithTimeout(timeout time.Duration) *Builder {
	b.timeout = timeout
	return b
}

// WithCredential stores an opaque credential for providers to place on requests
func (b *Builder) WithCredential(credential string) *Builder {
	b.credential = credential
	return b
}

// WithLimiter sets a client-side rate limiter consulted before every request
func (b *Builder) WithLimiter(limiter ratelimit.Limiter) *Builder {
	b.limiter = limiter
	return b
}

// WithLogger sets the logger for request logging
func (b *Builder) WithLogger(log logger.Logger) *Builder {
	b.logger = log
	return b
}

// WithHTTPClient replaces the underlying http.Client. Its Timeout is overridden
// by the builder's timeout.
func (b *Builder) WithHTTPClient(client *http.Client) *Builder {
	b.httpClient = client
	return b
}

// Header returns the configured value for key
func (b *Builder) Header(key string) (string, bool) {
	v, ok := b.headers[http.CanonicalHeaderKey(key)]
	return v, ok
}

// Credential returns the configured credential
func (b *Builder) Credential() string {
	return b.credential
}

// Timeout returns the configured timeout
func (b *Builder) Timeout() time.Duration {
	return b.timeout
}

// Clone returns an independent copy. The limiter, logger and http.Client are shared.
func (b *Builder) Clone() *Builder {
	clone := *b
	clone.headers = maps.Clone(b.headers)
	if clone.headers == nil {
		clone.headers = make(map[string]string)
	}
	return &clone
}

// Build validates the configuration and creates a Client
func (b *Builder) Build() (*Client, error) {
	if b.timeout < 0 {
		return nil, fmt.Errorf("transport timeout cannot be negative: %s", b.timeout)
	}
	for key, value := range b.headers {
		if strings.ContainsAny(key, "\r\n: ") || key == "" {
			return nil, fmt.Errorf("invalid header name %q", key)
		}
		if strings.ContainsAny(value, "\r\n") {
			return nil, fmt.Errorf("invalid value for header %s", key)
		}
	}

	httpClient := &http.Client{}
	if b.httpClient != nil {
		copied := *b.httpClient
		httpClient = &copied
	}
	httpClient.Timeout = b.timeout

	return &Client{
		httpClient: httpClient,
		headers:    maps.Clone(b.headers),
		limiter:    b.limiter,
		logger:     logger.OrNop(b.logger),
	}, nil
}

// MustBuild is like Build but panics on an invalid configuration
func (b *Builder) MustBuild() *Client {
	client, err := b.Build()
	if err != nil {
		panic(err)
	}
	return client
}
