package http

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Client sends signed requests to the marketplace API and normalizes the
// responses. It never retries and imposes no timeout of its own; callers
// bound a call through its context.
type Client struct {
	httpClient *http.Client
	format     Format
	logger     *zap.Logger
}

// Request is a single API call. URL must be absolute; Query is appended to
// it by Send.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    any
	Query   map[string]string
}

// Response is a successful API response.
type Response struct {
	StatusCode int
	Headers    http.Header
	// Data is the parsed body. XML leaves that look like numbers or
	// booleans arrive as float64 and bool.
	Data map[string]any
	Raw  []byte
}

func NewClient(format Format) *Client {
	logger, _ := zap.NewProduction()
	return NewClientWithLogger(format, logger)
}

// NewClientWithLogger creates a new HTTP client with a custom logger
func NewClientWithLogger(format Format, logger *zap.Logger) *Client {
	return &Client{
		httpClient: &http.Client{},
		format:     format,
		logger:     logger,
	}
}

// WithHTTPClient returns a copy of c that dispatches through hc.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	clone := *c
	clone.httpClient = hc
	return &clone
}

// Format returns the wire format the client speaks.
func (c *Client) Format() Format {
	return c.format
}

// Send serializes the body, dispatches the request and parses the response.
// A non-2xx status yields *Error; a 2xx status with an unreadable body
// yields *ParseError; a failure before any response arrives is returned
// exactly as net/http reported it.
func (c *Client) Send(ctx context.Context, opts Request) (*Response, error) {
	requestID := uuid.NewString()
	logger := c.logger.With(
		zap.String("request_id", requestID),
		zap.String("method", opts.Method),
		zap.String("url", opts.URL))

	req, err := c.buildRequest(ctx, opts)
	if err != nil {
		logger.Error("Failed to build request", zap.Error(err))
		return nil, err
	}

	logger.Debug("Making HTTP request", zap.Int("query_params", len(opts.Query)))

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Warn("HTTP request failed", zap.Error(err))
		return nil, err
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		logger.Error("Failed to read response body", zap.Error(err))
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		apiErr := newError(httpResp, body)
		logger.Error("API returned error status",
			zap.Int("status_code", apiErr.Status),
			zap.String("status_text", apiErr.StatusText),
			zap.String("error_message", apiErr.Message))
		return nil, apiErr
	}

	data, err := c.format.decode(body)
	if err != nil {
		logger.Error("Failed to parse response body", zap.Error(err), zap.Int("status_code", httpResp.StatusCode))
		return nil, &ParseError{Format: c.format, Body: body, Err: err}
	}

	logger.Info("HTTP request completed successfully", zap.Int("status_code", httpResp.StatusCode))

	return &Response{
		StatusCode: httpResp.StatusCode,
		Headers:    httpResp.Header,
		Data:       data,
		Raw:        body,
	}, nil
}

func (c *Client) buildRequest(ctx context.Context, opts Request) (*http.Request, error) {
	if opts.Method == "" {
		return nil, fmt.Errorf("method is required")
	}
	if opts.URL == "" {
		return nil, fmt.Errorf("url is required")
	}

	target, err := AppendQuery(opts.URL, opts.Query)
	if err != nil {
		return nil, err
	}

	var bodyReader io.Reader
	if opts.Body != nil {
		encoded, err := c.format.encode(opts.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, strings.ToUpper(opts.Method), target, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if opts.Body != nil {
		req.Header.Set("Content-Type", c.format.contentType())
	}
	req.Header.Set("Accept", c.format.contentType())

	for key, value := range opts.Headers {
		req.Header.Set(key, value)
	}

	return req, nil
}

// statusText returns the reason phrase of a response, e.g. "Not Found".
func statusText(resp *http.Response) string {
	prefix := strconv.Itoa(resp.StatusCode) + " "
	if text := strings.TrimPrefix(resp.Status, prefix); text != resp.Status && text != "" {
		return text
	}
	return http.StatusText(resp.StatusCode)
}
