package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUnsupportedSourceIs(t *testing.T) {
	err := fmt.Errorf("resolve: %w", &UnsupportedSourceError{URL: "https://example.com"})
	assert.True(t, stderrors.Is(err, ErrUnsupportedSource))
	assert.Contains(t, err.Error(), "https://example.com")
}

func TestWithSource(t *testing.T) {
	t.Run("network error", func(t *testing.T) {
		orig := &Error{Type: ErrorTypeNetwork, Message: "boom"}
		tagged := WithSource(orig, "AbCdE")

		var netErr *Error
		assert.True(t, stderrors.As(tagged, &netErr))
		assert.Equal(t, "AbCdE", netErr.Source)
		assert.Empty(t, orig.Source, "original must not be mutated")
		assert.Contains(t, tagged.Error(), "[AbCdE]")
	})

	t.Run("rate limit error", func(t *testing.T) {
		tagged := WithSource(&RateLimitError{Wait: time.Second}, "xyz")
		var rateErr *RateLimitError
		assert.True(t, stderrors.As(tagged, &rateErr))
		assert.Equal(t, "xyz", rateErr.Source)
	})

	t.Run("extraction error", func(t *testing.T) {
		tagged := WithSource(&ExtractionError{Kind: ExtractionMetadata, Message: "no data"}, "xyz")
		kind, ok := ExtractionKindOf(tagged)
		assert.True(t, ok)
		assert.Equal(t, ExtractionMetadata, kind)
		assert.Equal(t, "metadata extraction failure [xyz]: no data", tagged.Error())
	})

	t.Run("plain error", func(t *testing.T) {
		plain := stderrors.New("plain")
		assert.Equal(t, plain, WithSource(plain, "xyz"))
	})
}

func TestRetryAfter(t *testing.T) {
	wait, ok := RetryAfter(&ItemError{Location: "l", Err: &RateLimitError{Wait: 7 * time.Second}})
	assert.True(t, ok)
	assert.Equal(t, 7*time.Second, wait)

	_, ok = RetryAfter(stderrors.New("nope"))
	assert.False(t, ok)
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"rate limit", &RateLimitError{Wait: time.Second}, true},
		{"network", &Error{Type: ErrorTypeNetwork}, true},
		{"server", &Error{Type: ErrorTypeServerError, Code: 503}, true},
		{"not found", &Error{Type: ErrorTypeNotFound, Code: 404}, false},
		{"parsing", &Error{Type: ErrorTypeParsing}, false},
		{"extraction", &ExtractionError{Kind: ExtractionImage}, false},
		{"unsupported", &UnsupportedSourceError{URL: "x"}, false},
		{"wrapped item", &ItemError{Location: "x", Err: &Error{Type: ErrorTypeNetwork}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}
