package mkm

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/natserract/mkm/pkg/config"
	httpclient "github.com/natserract/mkm/pkg/http"
	"github.com/natserract/mkm/pkg/oauth"
)

var testCredentials = oauth.Credentials{
	ConsumerKey:       "bfaD9xOU0SXBhtBP",
	ConsumerSecret:    "pChvrpp6AEOEwxBIIUBOvWcRG3X9xL4Y",
	AccessToken:       "lBY1xptUJ7ZJSK01x4fNwzw8kAe5b10Q",
	AccessTokenSecret: "hc1wJAOX02pGGJK2uAv1ZOiwS7I9Tpoe",
}

type fixedClock struct{ unix int64 }

func (c fixedClock) Now() time.Time { return time.Unix(c.unix, 0) }

type fixedNoncer struct{ nonce string }

func (n fixedNoncer) Nonce() string { return n.nonce }

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

type recorded struct {
	mu       sync.Mutex
	requests []*http.Request
	bodies   []string
}

func (r *recorded) last(t *testing.T) (*http.Request, string) {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.NotEmpty(t, r.requests, "no request was sent")
	n := len(r.requests) - 1
	return r.requests[n], r.bodies[n]
}

func (r *recorded) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.requests)
}

// newTestClient returns a client whose transport answers every request with
// the given status and body and records what was sent.
func newTestClient(t *testing.T, cfg config.Config, status int, body string) (*Client, *recorded) {
	t.Helper()
	rec := &recorded{}
	hc := &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		var sent []byte
		if r.Body != nil {
			sent, _ = io.ReadAll(r.Body)
		}
		rec.mu.Lock()
		rec.requests = append(rec.requests, r)
		rec.bodies = append(rec.bodies, string(sent))
		rec.mu.Unlock()
		return &http.Response{
			StatusCode: status,
			Status:     http.StatusText(status),
			Header:     http.Header{},
			Body:       io.NopCloser(strings.NewReader(body)),
			Request:    r,
		}, nil
	})}

	client, err := NewClientWithLogger(&cfg, zap.NewNop(),
		WithHTTPClient(hc),
		WithAuthorizerOptions(
			oauth.WithClock(fixedClock{unix: 1500028572}),
			oauth.WithNoncer(fixedNoncer{nonce: "59689e9cf4091"})))
	require.NoError(t, err)
	return client, rec
}

func expectedHeader(url, signature string, withToken bool) string {
	h := `OAuth realm="` + url + `",oauth_consumer_key="bfaD9xOU0SXBhtBP",oauth_timestamp="1500028572",oauth_nonce="59689e9cf4091",oauth_signature_method="HMAC-SHA1",oauth_version="1.0",`
	if withToken {
		h += `oauth_token="lBY1xptUJ7ZJSK01x4fNwzw8kAe5b10Q",`
	}
	return h + `oauth_signature="` + signature + `"`
}

const articlesURL = "https://api.cardmarket.com/ws/v2.0/users/karmacrow/articles"

func TestNewClientRequiresAppKeys(t *testing.T) {
	_, err := NewClientWithLogger(&config.Config{}, zap.NewNop())
	require.Error(t, err)

	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "credentials", cfgErr.Field)

	_, err = NewClientWithLogger(nil, zap.NewNop())
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "config", cfgErr.Field)
}

func TestNewClientWithoutUser(t *testing.T) {
	creds := testCredentials
	creds.AccessToken = ""
	creds.AccessTokenSecret = ""

	client, err := NewClientWithLogger(&config.Config{Credentials: creds}, zap.NewNop())
	require.NoError(t, err)
	assert.Empty(t, client.Credentials().AccessToken)
}

func TestBaseURL(t *testing.T) {
	tests := []struct {
		sandbox, useJSON bool
		want             string
	}{
		{false, false, "https://api.cardmarket.com/ws/v2.0/"},
		{false, true, "https://api.cardmarket.com/ws/v2.0/output.json/"},
		{true, false, "https://sandbox.cardmarket.com/ws/v2.0/"},
		{true, true, "https://sandbox.cardmarket.com/ws/v2.0/output.json/"},
	}
	for _, tt := range tests {
		client, err := NewClientWithLogger(&config.Config{
			Credentials: testCredentials,
			Sandbox:     tt.sandbox,
			UseJSON:     tt.useJSON,
		}, zap.NewNop())
		require.NoError(t, err)
		assert.Equal(t, tt.want, client.BaseURL())
	}

	client, err := NewClientWithLogger(&config.Config{Credentials: testCredentials}, zap.NewNop(),
		WithBaseURL("http://localhost:8080/ws/v2.0/"))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/ws/v2.0/", client.BaseURL())
}

func TestAuthorizeKnownVector(t *testing.T) {
	client, _ := newTestClient(t, config.Config{Credentials: testCredentials}, http.StatusOK, "")

	header, err := client.Authorize("GET", articlesURL, false, nil)
	require.NoError(t, err)
	assert.Equal(t, expectedHeader(articlesURL, "1ZG/+LbStcuyOlio5vO/p+CkcBo=", true), header)
}

func TestMakeCallSignsQuery(t *testing.T) {
	client, rec := newTestClient(t, config.Config{Credentials: testCredentials}, http.StatusOK,
		`<response><article><idArticle>1</idArticle></article></response>`)

	resp, err := client.MakeCall(context.Background(), Call{
		Path:  "users/karmacrow/articles",
		Query: map[string]string{"start": "0", "maxResults": "2"},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"article": map[string]any{"idArticle": float64(1)}}, resp.Data)

	req, _ := rec.last(t)
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, articlesURL+"?maxResults=2&start=0", req.URL.String())
	assert.Equal(t, expectedHeader(articlesURL, "88WlTXTVkHIBeWEWAqPFOkb0Jbg=", true), req.Header.Get("Authorization"))
}

func TestMakeCallPublic(t *testing.T) {
	client, rec := newTestClient(t, config.Config{Credentials: testCredentials}, http.StatusOK, "")

	_, err := client.MakeCall(context.Background(), Call{Path: "users/karmacrow/articles", Public: true})
	require.NoError(t, err)

	req, _ := rec.last(t)
	assert.Equal(t, expectedHeader(articlesURL, "u8kAbiHsm85O295NdWWLU9Ev0Bw=", false), req.Header.Get("Authorization"))
}

func TestMakeCallMethod(t *testing.T) {
	client, rec := newTestClient(t, config.Config{Credentials: testCredentials}, http.StatusNoContent, "")

	_, err := client.MakeCall(context.Background(), Call{Method: "delete", Path: "wantslist/42"})
	require.NoError(t, err)

	req, _ := rec.last(t)
	assert.Equal(t, http.MethodDelete, req.Method)
	assert.Equal(t, "https://api.cardmarket.com/ws/v2.0/wantslist/42", req.URL.String())

	want, err := oauth.NewAuthorizer(testCredentials,
		oauth.WithClock(fixedClock{unix: 1500028572}),
		oauth.WithNoncer(fixedNoncer{nonce: "59689e9cf4091"}),
	).Header("DELETE", "https://api.cardmarket.com/ws/v2.0/wantslist/42", false, nil)
	require.NoError(t, err)
	assert.Equal(t, want, req.Header.Get("Authorization"))
}

func TestMakeCallSendsXMLBody(t *testing.T) {
	client, rec := newTestClient(t, config.Config{Credentials: testCredentials}, http.StatusOK, "")

	_, err := client.MakeCall(context.Background(), Call{
		Method: http.MethodPost,
		Path:   "account/messages/1234",
		Body:   Message{Message: "Is the card still available?"},
	})
	require.NoError(t, err)

	req, body := rec.last(t)
	assert.Equal(t, "application/xml", req.Header.Get("Content-Type"))
	assert.Contains(t, body, "<request><message>Is the card still available?</message></request>")
}

func TestMakeCallSendsJSONBody(t *testing.T) {
	client, rec := newTestClient(t, config.Config{Credentials: testCredentials, UseJSON: true}, http.StatusOK, `{"order":{"idOrder":7}}`)

	update, err := NewCartUpdate(CartArticle{IDArticle: 11, Amount: -2})
	require.NoError(t, err)

	resp, err := client.MakeCall(context.Background(), Call{Method: http.MethodPut, Path: "shoppingcart", Body: update})
	require.NoError(t, err)
	assert.Equal(t, float64(7), resp.Data["order"].(map[string]any)["idOrder"])

	req, body := rec.last(t)
	assert.Equal(t, "https://api.cardmarket.com/ws/v2.0/output.json/shoppingcart", req.URL.String())
	assert.JSONEq(t, `{"action":"remove","article":[{"idArticle":11,"amount":2}]}`, body)
}

func TestMakeCallRejectsInvalidBody(t *testing.T) {
	client, rec := newTestClient(t, config.Config{Credentials: testCredentials}, http.StatusOK, "")

	_, err := client.MakeCall(context.Background(), Call{
		Method: http.MethodPut,
		Path:   "order/1",
		Body:   OrderAction{Action: OrderRequestCancellation},
	})
	var valErr *ValidationError
	require.True(t, errors.As(err, &valErr))
	assert.Equal(t, "reason", valErr.Field)
	assert.Zero(t, rec.count())
}

func TestMakeCallRejectsNilPointerBody(t *testing.T) {
	client, rec := newTestClient(t, config.Config{Credentials: testCredentials}, http.StatusOK, "")

	var msg *Message
	var err error
	require.NotPanics(t, func() {
		_, err = client.MakeCall(context.Background(), Call{Method: http.MethodPost, Path: "account/messages/1", Body: msg})
	})
	var valErr *ValidationError
	require.True(t, errors.As(err, &valErr))
	assert.Equal(t, "body", valErr.Field)
	assert.Zero(t, rec.count())

	_, err = client.MakeCall(context.Background(), Call{Method: http.MethodPost, Path: "account/messages/1", Body: &Message{Message: "hi"}})
	require.NoError(t, err)
	assert.Equal(t, 1, rec.count())
}

func TestMakeCallReturnsAPIError(t *testing.T) {
	client, _ := newTestClient(t, config.Config{Credentials: testCredentials}, http.StatusUnauthorized,
		`<response><error>Invalid signature</error></response>`)

	_, err := client.MakeCall(context.Background(), Call{Path: "account"})
	var apiErr *httpclient.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "Invalid signature", apiErr.Message)
}

func TestMakeCallRejectsQueryInPath(t *testing.T) {
	client, rec := newTestClient(t, config.Config{Credentials: testCredentials}, http.StatusOK, "")

	_, err := client.MakeCall(context.Background(), Call{Path: "products/find?search=x"})
	require.Error(t, err)
	assert.Zero(t, rec.count())
}

func TestSwitchUser(t *testing.T) {
	client, rec := newTestClient(t, config.Config{Credentials: testCredentials}, http.StatusOK, "")

	client.SwitchUser("otherToken", "otherSecret")
	assert.Equal(t, "otherToken", client.Credentials().AccessToken)
	assert.Equal(t, testCredentials.ConsumerKey, client.Credentials().ConsumerKey)

	_, err := client.MakeCall(context.Background(), Call{Path: "account"})
	require.NoError(t, err)
	req, _ := rec.last(t)
	assert.Contains(t, req.Header.Get("Authorization"), `oauth_token="otherToken"`)
}

func TestWithUserIsIsolated(t *testing.T) {
	client, rec := newTestClient(t, config.Config{Credentials: testCredentials}, http.StatusOK, "")

	other := client.WithUser("otherToken", "otherSecret")
	assert.Equal(t, testCredentials.AccessToken, client.Credentials().AccessToken)
	assert.Equal(t, "otherToken", other.Credentials().AccessToken)

	_, err := other.MakeCall(context.Background(), Call{Path: "account"})
	require.NoError(t, err)
	req, _ := rec.last(t)
	assert.Contains(t, req.Header.Get("Authorization"), `oauth_token="otherToken"`)

	_, err = client.MakeCall(context.Background(), Call{Path: "account"})
	require.NoError(t, err)
	req, _ = rec.last(t)
	assert.Contains(t, req.Header.Get("Authorization"), `oauth_token="lBY1xptUJ7ZJSK01x4fNwzw8kAe5b10Q"`)
}
