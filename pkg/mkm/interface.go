package mkm

import (
	"context"

	httpclient "github.com/natserract/mkm/pkg/http"
)

// API defines the operations the rest of the module needs from a client
type API interface {
	// MakeCall signs and sends a call relative to the base URL
	MakeCall(ctx context.Context, call Call) (*httpclient.Response, error)

	// Authorize builds the OAuth Authorization header for an absolute URL
	Authorize(method, url string, public bool, query map[string]string) (string, error)

	// SwitchUser replaces the access token pair used for user endpoints
	SwitchUser(accessToken, accessTokenSecret string)

	BaseURL() string
}

var _ API = (*Client)(nil)
