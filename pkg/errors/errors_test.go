package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := New(ErrorTypeNotFound, 404, "panorama %s not found", "abc123")

	assert.Equal(t, ErrorTypeNotFound, err.Type)
	assert.Equal(t, 404, err.Code)
	assert.Equal(t, "panorama abc123 not found", err.Message)
	assert.Equal(t, "not_found error (code 404): panorama abc123 not found", err.Error())
}

func TestErrorAsThroughWrap(t *testing.T) {
	inner := New(ErrorTypeRateLimit, 429, "slow down")
	wrapped := fmt.Errorf("request failed: %w", inner)

	var apiErr *Error
	require.True(t, errors.As(wrapped, &apiErr))
	assert.Equal(t, ErrorTypeRateLimit, apiErr.Type)
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(ErrorTypeNetwork))
	assert.True(t, IsRetryable(ErrorTypeRateLimit))
	assert.True(t, IsRetryable(ErrorTypeServerError))

	assert.False(t, IsRetryable(ErrorTypeAuth))
	assert.False(t, IsRetryable(ErrorTypeNotFound))
	assert.False(t, IsRetryable(ErrorTypeParsing))
	assert.False(t, IsRetryable(ErrorTypeUnknown))
}

func TestIsRetryableStatusCode(t *testing.T) {
	retryable := []int{0, 429, 500, 502, 503, 504, 599}
	for _, code := range retryable {
		assert.True(t, IsRetryableStatusCode(code), "code %d", code)
	}

	notRetryable := []int{200, 400, 401, 403, 404}
	for _, code := range notRetryable {
		assert.False(t, IsRetryableStatusCode(code), "code %d", code)
	}
}
