package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorType represents different types of transport errors that can occur
type ErrorType string

const (
	ErrorTypeNetwork     ErrorType = "network"
	ErrorTypeAuth        ErrorType = "auth"
	ErrorTypeParsing     ErrorType = "parsing"
	ErrorTypeNotFound    ErrorType = "not_found"
	ErrorTypeServerError ErrorType = "server_error"
	ErrorTypeUnknown     ErrorType = "unknown"
)

var (
	// ErrUnsupportedSource is matched by every UnsupportedSourceError
	ErrUnsupportedSource = errors.New("unsupported source")
	// ErrInvalidURL is returned when a source URL is not an absolute http(s) URL
	ErrInvalidURL = errors.New("invalid source url")
	// ErrMissingCredential is returned by providers that need a credential the transport builder lacks
	ErrMissingCredential = errors.New("missing credential")
)

// Error represents a network failure with type information. Source carries the
// identifier of the accessor that issued the request, when known.
type Error struct {
	Type    ErrorType
	Message string
	Code    int
	Source  string
	Err     error
}

func (e *Error) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("%s error (code %d) [%s]: %s", e.Type, e.Code, e.Source, e.Message)
	}
	return fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ExtractionKind names what was missing from a decoded response
type ExtractionKind string

const (
	ExtractionImage    ExtractionKind = "image"
	ExtractionMetadata ExtractionKind = "metadata"
)

// ExtractionError is returned when a decoded response lacks an expected field
type ExtractionError struct {
	Kind    ExtractionKind
	Message string
	Source  string
}

func (e *ExtractionError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("%s extraction failure [%s]: %s", e.Kind, e.Source, e.Message)
	}
	return fmt.Sprintf("%s extraction failure: %s", e.Kind, e.Message)
}

// RateLimitError signals that the caller should wait before re-issuing the operation
type RateLimitError struct {
	Wait   time.Duration
	URL    string
	Source string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded, retry after %s", e.Wait)
}

// UnsupportedSourceError is returned when no provider recognizes a URL
type UnsupportedSourceError struct {
	URL string
}

func (e *UnsupportedSourceError) Error() string {
	return fmt.Sprintf("unsupported source: %s", e.URL)
}

func (e *UnsupportedSourceError) Is(target error) bool {
	return target == ErrUnsupportedSource
}

// ItemError wraps the failure to fetch a single item location
type ItemError struct {
	Location string
	Err      error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Location, e.Err)
}

func (e *ItemError) Unwrap() error {
	return e.Err
}

// WithSource tags a network, rate limit or extraction error with an accessor
// identifier. Other errors are returned unchanged.
func WithSource(err error, source string) error {
	var netErr *Error
	if errors.As(err, &netErr) {
		tagged := *netErr
		tagged.Source = source
		return &tagged
	}
	var rateErr *RateLimitError
	if errors.As(err, &rateErr) {
		tagged := *rateErr
		tagged.Source = source
		return &tagged
	}
	var extErr *ExtractionError
	if errors.As(err, &extErr) {
		tagged := *extErr
		tagged.Source = source
		return &tagged
	}
	return err
}

// RetryAfter reports the wait duration carried by a rate limit error
func RetryAfter(err error) (time.Duration, bool) {
	var rateErr *RateLimitError
	if errors.As(err, &rateErr) {
		return rateErr.Wait, true
	}
	return 0, false
}

// IsRetryable checks if an error is worth re-issuing
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var rateErr *RateLimitError
	if errors.As(err, &rateErr) {
		return true
	}
	var netErr *Error
	if errors.As(err, &netErr) {
		return IsRetryableType(netErr.Type)
	}
	return false
}

// IsRetryableType checks if an error type should be retried
func IsRetryableType(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeNetwork, ErrorTypeServerError:
		return true
	case ErrorTypeAuth, ErrorTypeNotFound, ErrorTypeParsing:
		return false
	default:
		return false
	}
}

// ExtractionKindOf returns the extraction kind of err, if it is an extraction failure
func ExtractionKindOf(err error) (ExtractionKind, bool) {
	var extErr *ExtractionError
	if errors.As(err, &extErr) {
		return extErr.Kind, true
	}
	return "", false
}
