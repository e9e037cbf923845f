// Package mkm provides a client for the Cardmarket (formerly MagicCardMarket)
// trading marketplace API.
//
// Every call is signed with OAuth 1.0a using the application keys and, for
// user endpoints, the access token pair of the user the client acts for.
// Bodies and responses are XML unless the client is configured for JSON.
// Responses come back as plain nested maps; non-2xx answers come back as
// *http.Error values carrying the status and the server's message.
//
// The client holds no mutable state besides the active access token, which
// SwitchUser replaces atomically. Callers acting for several users at once
// should prefer WithUser, which returns an independent client.
package mkm

import (
	"context"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"go.uber.org/zap"

	"github.com/natserract/mkm/pkg/config"
	httpclient "github.com/natserract/mkm/pkg/http"
	"github.com/natserract/mkm/pkg/oauth"
)

// Client is the main client for interacting with the Cardmarket API
type Client struct {
	authorizer *oauth.Authorizer
	transport  *httpclient.Client
	baseURL    string
	authOpts   []oauth.Option
	logger     *zap.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL points the client at another origin, e.g. a test server.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = baseURL }
}

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.transport = c.transport.WithHTTPClient(hc) }
}

// WithAuthorizerOptions passes options (clock, nonce source) to the signer.
func WithAuthorizerOptions(opts ...oauth.Option) Option {
	return func(c *Client) { c.authOpts = append(c.authOpts, opts...) }
}

// Call describes one API request relative to the client's base URL.
type Call struct {
	// Method defaults to GET.
	Method string
	// Path is the resource path, e.g. "account" or "users/karmacrow/articles".
	Path string
	Body Payload
	// Query parameters are both signed and sent.
	Query map[string]string
	// Public calls are signed without the user's access token.
	Public bool
}

// NewClient creates a new client with default production logger
func NewClient(cfg *config.Config, opts ...Option) (*Client, error) {
	logger, _ := zap.NewProduction()
	return NewClientWithLogger(cfg, logger, opts...)
}

// NewClientWithLogger creates a new client with a custom logger
func NewClientWithLogger(cfg *config.Config, logger *zap.Logger, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, &ConfigurationError{Field: "config", Err: fmt.Errorf("configuration is required")}
	}
	if err := cfg.Credentials.Validate(); err != nil {
		return nil, &ConfigurationError{Field: "credentials", Err: err}
	}

	c := &Client{
		transport: httpclient.NewClientWithLogger(httpclient.FormatFor(cfg.UseJSON), logger),
		baseURL:   httpclient.BaseURL(cfg.Sandbox, cfg.UseJSON),
		logger:    logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.authorizer = oauth.NewAuthorizer(cfg.Credentials, c.authOpts...)

	logger.Debug("Created marketplace client",
		zap.String("base_url", c.baseURL),
		zap.Stringer("format", c.transport.Format()),
		zap.Bool("has_user", cfg.Credentials.AccessToken != ""))

	return c, nil
}

// BaseURL returns the origin every call path is resolved against.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Credentials returns a snapshot of the credentials in use.
func (c *Client) Credentials() oauth.Credentials {
	return c.authorizer.Credentials()
}

// SwitchUser makes the client act for another user from now on. Calls
// already being signed keep the pair they started with.
func (c *Client) SwitchUser(accessToken, accessTokenSecret string) {
	c.authorizer.SwitchUser(accessToken, accessTokenSecret)
	c.logger.Info("Switched active user", zap.Bool("has_user", accessToken != ""))
}

// WithUser returns a client sharing the transport and application keys but
// signing with its own access token pair. The receiver is not modified.
func (c *Client) WithUser(accessToken, accessTokenSecret string) *Client {
	creds := c.authorizer.Credentials()
	creds.AccessToken = accessToken
	creds.AccessTokenSecret = accessTokenSecret

	clone := *c
	clone.authorizer = oauth.NewAuthorizer(creds, c.authOpts...)
	return &clone
}

// Authorize returns the Authorization header value for an absolute URL.
func (c *Client) Authorize(method, url string, public bool, query map[string]string) (string, error) {
	return c.authorizer.Header(method, url, public, query)
}

// Send dispatches a request that already carries its Authorization header.
func (c *Client) Send(ctx context.Context, req httpclient.Request) (*httpclient.Response, error) {
	return c.transport.Send(ctx, req)
}

// validateBody rejects typed nil pointers before calling Validate on them.
func validateBody(body Payload) error {
	if v := reflect.ValueOf(body); v.Kind() == reflect.Pointer && v.IsNil() {
		return invalid("request", "body", "is a nil pointer")
	}
	return body.Validate()
}

// MakeCall validates the body, signs the request and sends it.
func (c *Client) MakeCall(ctx context.Context, call Call) (*httpclient.Response, error) {
	method := strings.ToUpper(call.Method)
	if method == "" {
		method = http.MethodGet
	}

	if call.Body != nil {
		if err := validateBody(call.Body); err != nil {
			c.logger.Warn("Rejected request body", zap.String("path", call.Path), zap.Error(err))
			return nil, err
		}
	}

	url, err := httpclient.BuildURL(c.baseURL, call.Path)
	if err != nil {
		c.logger.Error("Failed to build URL", zap.Error(err), zap.String("path", call.Path))
		return nil, fmt.Errorf("failed to build URL: %w", err)
	}

	header, err := c.Authorize(method, url, call.Public, call.Query)
	if err != nil {
		c.logger.Error("Failed to sign request", zap.Error(err), zap.String("url", url))
		return nil, fmt.Errorf("failed to sign request: %w", err)
	}

	req := httpclient.Request{
		Method:  method,
		URL:     url,
		Headers: map[string]string{"Authorization": header},
		Query:   call.Query,
	}
	if call.Body != nil {
		req.Body = call.Body
	}
	return c.Send(ctx, req)
}
