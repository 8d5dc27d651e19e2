package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromStatus(t *testing.T) {
	tests := []struct {
		code int
		want ErrorType
	}{
		{400, ErrorTypeBadRequest},
		{401, ErrorTypeAuth},
		{403, ErrorTypeAuth},
		{404, ErrorTypeNotFound},
		{429, ErrorTypeRateLimit},
		{500, ErrorTypeServerError},
		{503, ErrorTypeServerError},
		{418, ErrorTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.code), func(t *testing.T) {
			err := FromStatus(tt.code, "")
			assert.Equal(t, tt.want, err.Type)
			assert.Equal(t, tt.code, err.Code)
			assert.NotEmpty(t, err.Message)
		})
	}
}

func TestTypeOfUnwraps(t *testing.T) {
	cause := stderrors.New("connection reset")
	wrapped := fmt.Errorf("search: %w", New(ErrorTypeNetwork, 0, "network error", cause))

	assert.Equal(t, ErrorTypeNetwork, TypeOf(wrapped))
	assert.True(t, stderrors.Is(wrapped, cause))
	assert.Equal(t, ErrorTypeUnknown, TypeOf(stderrors.New("plain")))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(ErrorTypeNetwork))
	assert.True(t, IsRetryable(ErrorTypeRateLimit))
	assert.True(t, IsRetryable(ErrorTypeServerError))
	assert.False(t, IsRetryable(ErrorTypeAuth))
	assert.False(t, IsRetryable(ErrorTypeBadRequest))
	assert.False(t, IsRetryable(ErrorTypeParsing))

	assert.True(t, IsRetryableStatusCode(0))
	assert.True(t, IsRetryableStatusCode(429))
	assert.True(t, IsRetryableStatusCode(502))
	assert.False(t, IsRetryableStatusCode(404))
}
