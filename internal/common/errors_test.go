package common

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapError(t *testing.T) {
	tests := []struct {
		name            string
		originalError   error
		message         string
		expectedMessage string
	}{
		{
			name:            "wrap simple error",
			originalError:   errors.New("original error"),
			message:         "wrapper message",
			expectedMessage: "wrapper message: original error",
		},
		{
			name:            "empty wrapper message",
			originalError:   errors.New("original error"),
			message:         "",
			expectedMessage: ": original error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrappedError := WrapError(tt.originalError, tt.message)
			assert.Error(t, wrappedError)
			assert.Equal(t, tt.expectedMessage, wrappedError.Error())
			assert.ErrorIs(t, wrappedError, tt.originalError)
		})
	}
}

func TestWrapError_Nil(t *testing.T) {
	assert.NoError(t, WrapError(nil, "context"))
	assert.NoError(t, WrapErrorf(nil, "context %d", 1))
}

func TestWrapErrorf(t *testing.T) {
	err := WrapErrorf(ErrNotFound, "task %s", "abc")
	assert.Equal(t, "task abc: not found", err.Error())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("kind", "ftp", "must be one of website rss github")

	assert.Equal(t, "validation failed for field 'kind': must be one of website rss github (value: ftp)", err.Error())
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.ErrorIs(t, WrapError(err, "create task"), ErrInvalidInput)
}

func TestNetworkError(t *testing.T) {
	tests := []struct {
		name            string
		url             string
		reason          string
		wrappedError    error
		expectedMessage string
	}{
		{
			name:            "simple network error",
			url:             "https://example.com",
			reason:          "connection timeout",
			expectedMessage: "network error for 'https://example.com': connection timeout",
		},
		{
			name:            "network error with wrapped error",
			url:             "https://example.com/feed",
			reason:          "request failed",
			wrappedError:    errors.New("no such host"),
			expectedMessage: "network error for 'https://example.com/feed': request failed: no such host",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			networkErr := NewNetworkError(tt.url, tt.reason, tt.wrappedError)

			assert.Equal(t, tt.expectedMessage, networkErr.Error())
			assert.Equal(t, tt.wrappedError, networkErr.Unwrap())
			assert.ErrorIs(t, networkErr, ErrNetworkFailure)
		})
	}
}

func TestHTTPError(t *testing.T) {
	tests := []struct {
		name            string
		statusCode      int
		message         string
		url             string
		expectedMessage string
	}{
		{
			name:            "not found with url",
			statusCode:      http.StatusNotFound,
			message:         "Not Found",
			url:             "https://example.com/page",
			expectedMessage: "HTTP 404 error for 'https://example.com/page': Not Found",
		},
		{
			name:            "server error without url",
			statusCode:      http.StatusBadGateway,
			message:         "Bad Gateway",
			expectedMessage: "HTTP 502 error: Bad Gateway",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			httpErr := NewHTTPErrorWithURL(tt.statusCode, tt.message, tt.url)
			assert.Equal(t, tt.expectedMessage, httpErr.Error())

			var target *HTTPError
			assert.True(t, errors.As(WrapError(httpErr, "fetch"), &target))
			assert.Equal(t, tt.statusCode, target.StatusCode)
		})
	}
}

func TestErrorCollector(t *testing.T) {
	var ec ErrorCollector
	assert.False(t, ec.HasErrors())
	assert.NoError(t, ec.Error())

	ec.Add(nil)
	ec.Add(errors.New("first"))
	assert.True(t, ec.HasErrors())
	assert.EqualError(t, ec.Error(), "first")

	ec.AddWithContext(errors.New("second"), "task b")
	assert.EqualError(t, ec.Error(), "multiple errors occurred: [first; task b: second]")
}
