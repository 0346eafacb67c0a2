// Package fetch is the HTTP side of walldl: a buffered GET for the catalog
// page and a streaming GET for asset downloads.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"walldl/pkg/errors"
	"walldl/pkg/logger"
)

// Client performs GET requests with a fixed set of browser-like headers
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	logger     logger.Logger
}

// NewClient creates a client. A zero timeout means requests only end when
// their context does.
func NewClient(userAgent string, timeout time.Duration, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	headers := map[string]string{
		"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8",
		"Accept-Language": "en-US,en;q=0.9",
	}
	if userAgent != "" {
		headers["User-Agent"] = userAgent
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		headers: headers,
		logger:  log,
	}
}

// NewClientWithHTTP wraps an existing http.Client, mainly for tests
func NewClientWithHTTP(httpClient *http.Client, userAgent string, log logger.Logger) *Client {
	c := NewClient(userAgent, 0, log)
	c.httpClient = httpClient
	return c
}

// GetPage fetches url and returns the whole body
func (c *Client) GetPage(ctx context.Context, url string) ([]byte, error) {
	resp, err := c.Stream(ctx, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeNetwork, err, "failed to read response body from %s", url)
	}

	c.logger.DebugWithFields("fetched page", map[string]interface{}{
		"url":   url,
		"bytes": len(body),
	})
	return body, nil
}

// Stream issues a GET and returns the response with its body unread. The
// caller must close the body. Non-2xx responses are returned as errors with
// the body already closed.
func (c *Client) Stream(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeNetwork, err, "failed to create request for %s", url)
	}

	resp, err := c.doRequest(req)
	if err != nil {
		return nil, err
	}

	if err := c.checkResponseStatus(resp); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp, nil
}

// doRequest performs an HTTP request with the configured headers
func (c *Client) doRequest(req *http.Request) (*http.Response, error) {
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	c.logger.DebugWithFields("sending HTTP request", map[string]interface{}{
		"method": req.Method,
		"url":    req.URL.String(),
	})

	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.logger.DebugWithFields("HTTP request failed", map[string]interface{}{
			"method":   req.Method,
			"url":      req.URL.String(),
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, errors.Wrap(errors.ErrorTypeNetwork, err, "GET %s", req.URL.String())
	}

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"method":   req.Method,
		"url":      req.URL.String(),
		"status":   resp.StatusCode,
		"duration": duration,
	})

	return resp, nil
}

// checkResponseStatus turns any non-2xx status into an http_status error
func (c *Client) checkResponseStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	c.logger.WarnWithFields("unexpected HTTP status", map[string]interface{}{
		"status": resp.StatusCode,
		"url":    resp.Request.URL.String(),
	})
	return &errors.Error{
		Type:    errors.ErrorTypeHTTPStatus,
		Message: fmt.Sprintf("GET %s returned %s", resp.Request.URL.String(), resp.Status),
		Code:    resp.StatusCode,
	}
}
