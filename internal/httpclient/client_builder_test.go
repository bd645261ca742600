package httpclient

import (
	"testing"
	"time"

	"github.com/aleister1102/changewatch/internal/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPClientBuilder(t *testing.T) {
	client, err := NewHTTPClientBuilder(zerolog.Nop()).
		WithTimeout(15 * time.Second).
		WithUserAgent("test-agent").
		WithFollowRedirects(false).
		WithMaxContentSize(2048).
		WithHeader("Accept-Language", "en").
		Build()

	require.NoError(t, err)
	assert.Equal(t, 15*time.Second, client.config.Timeout)
	assert.Equal(t, "test-agent", client.config.UserAgent)
	assert.False(t, client.config.FollowRedirects)
	assert.Equal(t, int64(2048), client.config.MaxContentSize)
	assert.Equal(t, "en", client.config.CustomHeaders["Accept-Language"])
	assert.NotNil(t, client.retryHandler)
}

func TestHTTPClientBuilder_FromMonitorConfig(t *testing.T) {
	cfg := config.NewDefaultMonitorConfig()
	cfg.HTTPTimeoutSeconds = 7
	cfg.MaxRetries = 0

	client, err := NewHTTPClientBuilder(zerolog.Nop()).FromMonitorConfig(cfg).Build()
	require.NoError(t, err)

	assert.Equal(t, 7*time.Second, client.config.Timeout)
	assert.Equal(t, config.DefaultUserAgent, client.config.UserAgent)
	assert.Equal(t, int64(config.DefaultMaxContentSize), client.config.MaxContentSize)
	assert.Nil(t, client.retryHandler)
}
