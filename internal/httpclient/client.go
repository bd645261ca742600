package httpclient

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"

	"github.com/aleister1102/changewatch/internal/common"
	"github.com/rs/zerolog"
	"golang.org/x/net/http2"
)

// HTTPClient is the outbound transport shared by fetchers, the classifier
// and the SendCloud sender.
type HTTPClient struct {
	client       *http.Client
	config       HTTPClientConfig
	logger       zerolog.Logger
	retryHandler *RetryHandler
}

// NewHTTPClient creates a new HTTP client with the given configuration
func NewHTTPClient(config HTTPClientConfig, logger zerolog.Logger) (*HTTPClient, error) {
	logger = logger.With().Str("component", "HTTPClient").Logger()

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        config.MaxIdleConns,
		MaxIdleConnsPerHost: config.MaxIdleConnsPerHost,
		IdleConnTimeout:     config.IdleConnTimeout,
		TLSHandshakeTimeout: config.Timeout,
		DialContext: (&net.Dialer{
			Timeout: config.Timeout,
		}).DialContext,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: config.InsecureSkipVerify,
		},
	}

	if config.EnableHTTP2 {
		if err := http2.ConfigureTransport(transport); err != nil {
			logger.Warn().Err(err).Msg("Failed to configure HTTP/2, falling back to HTTP/1.1")
		}
	}

	client := &http.Client{
		Transport: transport,
		Timeout:   config.Timeout,
	}

	if !config.FollowRedirects {
		client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		}
	} else if config.MaxRedirects > 0 {
		client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			if len(via) >= config.MaxRedirects {
				return fmt.Errorf("stopped after %d redirects", config.MaxRedirects)
			}
			return nil
		}
	}

	c := &HTTPClient{
		client: client,
		config: config,
		logger: logger,
	}
	if config.Retry.MaxRetries > 0 {
		c.retryHandler = NewRetryHandler(config.Retry, logger)
	}

	logger.Debug().
		Dur("timeout", config.Timeout).
		Bool("http2_enabled", config.EnableHTTP2).
		Int("max_retries", config.Retry.MaxRetries).
		Int64("max_content_size", config.MaxContentSize).
		Msg("HTTP client created")

	return c, nil
}

// WithoutRetry returns a client sharing c's transport that sends every
// request exactly once.
func (c *HTTPClient) WithoutRetry() *HTTPClient {
	clone := *c
	clone.config.Retry = RetryHandlerConfig{}
	clone.retryHandler = nil
	return &clone
}

// Do performs an HTTP request, with retries if a retry handler is configured.
func (c *HTTPClient) Do(req *HTTPRequest) (*HTTPResponse, error) {
	if c.retryHandler != nil {
		ctx := req.Context
		if ctx == nil {
			ctx = context.Background()
		}
		return c.retryHandler.DoWithRetry(ctx, c.do, req)
	}
	return c.do(req)
}

func (c *HTTPClient) do(req *HTTPRequest) (*HTTPResponse, error) {
	ctx := req.Context
	if ctx == nil {
		ctx = context.Background()
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, common.WrapError(err, "failed to create HTTP request")
	}

	for key, value := range c.config.CustomHeaders {
		httpReq.Header.Set(key, value)
	}
	if c.config.UserAgent != "" {
		httpReq.Header.Set("User-Agent", c.config.UserAgent)
	}
	// request headers win over client defaults
	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}
	if httpReq.Header.Get("Accept") == "" {
		httpReq.Header.Set("Accept", "*/*")
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, common.NewNetworkError(req.URL, "request failed", err)
	}
	defer resp.Body.Close()

	reader := io.Reader(resp.Body)
	if c.config.MaxContentSize > 0 {
		reader = io.LimitReader(resp.Body, c.config.MaxContentSize+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, common.NewNetworkError(req.URL, "failed to read response body", err)
	}
	if c.config.MaxContentSize > 0 && int64(len(data)) > c.config.MaxContentSize {
		return nil, common.WrapErrorf(ErrContentTooLarge, "%s (limit %d bytes)", req.URL, c.config.MaxContentSize)
	}

	return &HTTPResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       data,
	}, nil
}

// FetchContentResult holds results from FetchContent.
type FetchContentResult struct {
	Content       []byte
	ContentType   string
	FinalStatus   int
	ContentLength int
}

// FetchContent GETs url and returns its body. Any status outside 2xx is a *common.HTTPError.
func (c *HTTPClient) FetchContent(ctx context.Context, url string, headers map[string]string) (*FetchContentResult, error) {
	resp, err := c.Do(&HTTPRequest{
		Context: ctx,
		Method:  http.MethodGet,
		URL:     url,
		Headers: headers,
	})
	if err != nil {
		return nil, err
	}

	if !resp.IsSuccess() {
		snippet := resp.Body
		if len(snippet) > 1024 {
			snippet = snippet[:1024]
		}
		c.logger.Debug().Str("url", url).Int("status_code", resp.StatusCode).Msg("Received non-2xx HTTP status")
		return nil, common.NewHTTPErrorWithURL(resp.StatusCode, http.StatusText(resp.StatusCode)+": "+string(snippet), url)
	}

	return &FetchContentResult{
		Content:       resp.Body,
		ContentType:   resp.Headers.Get("Content-Type"),
		FinalStatus:   resp.StatusCode,
		ContentLength: len(resp.Body),
	}, nil
}
