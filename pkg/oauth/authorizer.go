// Package oauth builds OAuth 1.0a Authorization headers for the Cardmarket
// API.
//
// The signature follows the server's own reading of RFC 5849: the parameter
// string is assembled from raw values and percent encoded once as a whole,
// and the header lists its parameters in a fixed order with unencoded
// values. Both quirks are required to produce signatures the server accepts.
package oauth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

const (
	authorizationPrefix       = "OAuth " // trailing space is intentional
	realmParam                = "realm"
	oauthConsumerKeyParam     = "oauth_consumer_key"
	oauthTimestampParam       = "oauth_timestamp"
	oauthNonceParam           = "oauth_nonce"
	oauthSignatureMethodParam = "oauth_signature_method"
	oauthVersionParam         = "oauth_version"
	oauthTokenParam           = "oauth_token"
	oauthSignatureParam       = "oauth_signature"

	// SignatureMethod is the only signing method the server accepts.
	SignatureMethod = "HMAC-SHA1"
	// Version is the OAuth protocol version sent with every request.
	Version = "1.0"

	nonceBytes = 7
)

// Credentials are the application and user keys used to sign a request.
// The access pair may be empty for public endpoints.
type Credentials struct {
	// A value used by the Consumer to identify itself to the Service Provider.
	ConsumerKey string `yaml:"app_token" json:"app_token"`
	// A secret used by the Consumer to establish ownership of the Consumer Key.
	ConsumerSecret string `yaml:"app_secret" json:"app_secret"`
	// A value used by the Consumer to gain access to the Protected Resources on
	// behalf of the User.
	AccessToken string `yaml:"access_token" json:"access_token"`
	// A secret used by the Consumer to establish ownership of a given Token.
	AccessTokenSecret string `yaml:"access_token_secret" json:"access_token_secret"`
}

// Validate reports whether the application keys are present.
func (c Credentials) Validate() error {
	var missing []string
	if c.ConsumerKey == "" {
		missing = append(missing, "consumer key")
	}
	if c.ConsumerSecret == "" {
		missing = append(missing, "consumer secret")
	}
	if len(missing) > 0 {
		return errors.New("oauth: missing " + strings.Join(missing, " and "))
	}
	return nil
}

// Clock provides the current time. A Clock can be used in place of calling
// time.Now() directly.
type Clock interface {
	Now() time.Time
}

// Noncer provides random nonce strings. Implementations must be safe for
// concurrent use.
type Noncer interface {
	Nonce() string
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// HexNoncer reads 7 bytes from crypto/rand and returns them hex encoded.
type HexNoncer struct{}

// Nonce provides a random nonce string.
func (HexNoncer) Nonce() string {
	b := make([]byte, nonceBytes)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand only fails when the OS entropy source is gone.
		panic("oauth: reading random bytes: " + err.Error())
	}
	return hex.EncodeToString(b)
}

// Authorizer produces OAuth Authorization header values. It is safe for
// concurrent use; SwitchUser swaps the whole credential value at once so a
// signing call never observes half of an access pair.
type Authorizer struct {
	creds  atomic.Pointer[Credentials]
	clock  Clock
	noncer Noncer
}

// Option configures an Authorizer.
type Option func(*Authorizer)

// WithClock replaces the time source.
func WithClock(c Clock) Option {
	return func(a *Authorizer) { a.clock = c }
}

// WithNoncer replaces the nonce source.
func WithNoncer(n Noncer) Option {
	return func(a *Authorizer) { a.noncer = n }
}

// NewAuthorizer returns an Authorizer signing with creds.
func NewAuthorizer(creds Credentials, opts ...Option) *Authorizer {
	a := &Authorizer{clock: systemClock{}, noncer: HexNoncer{}}
	for _, opt := range opts {
		opt(a)
	}
	a.creds.Store(&creds)
	return a
}

// Credentials returns a snapshot of the credentials in use.
func (a *Authorizer) Credentials() Credentials {
	return *a.creds.Load()
}

// SwitchUser replaces the access token pair, keeping the application keys.
func (a *Authorizer) SwitchUser(accessToken, accessTokenSecret string) {
	for {
		old := a.creds.Load()
		next := *old
		next.AccessToken = accessToken
		next.AccessTokenSecret = accessTokenSecret
		if a.creds.CompareAndSwap(old, &next) {
			return
		}
	}
}

// Params returns the complete ordered OAuth parameter set for a request,
// including oauth_signature. The url must be absolute and carry no query;
// query parameters are passed separately.
func (a *Authorizer) Params(method, url string, public bool, query map[string]string) (Params, error) {
	creds := a.Credentials()

	params := a.baseParams(url, creds)
	token := creds.AccessToken
	if public {
		token = ""
	}
	params = append(params, Param{Key: oauthTokenParam, Value: token})

	signature, err := Signature(method, url, params, query, public, creds)
	if err != nil {
		return nil, err
	}
	params = append(params, Param{Key: oauthSignatureParam, Value: signature})
	return params, nil
}

// Header returns the Authorization header value for a request.
func (a *Authorizer) Header(method, url string, public bool, query map[string]string) (string, error) {
	params, err := a.Params(method, url, public, query)
	if err != nil {
		return "", err
	}
	return HeaderValue(params), nil
}

// HeaderValue formats params as `OAuth k1="v1",k2="v2"` in their given
// order. Values are inserted verbatim.
func HeaderValue(params Params) string {
	var b strings.Builder
	b.WriteString(authorizationPrefix)
	for i, kv := range params {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(kv.Key)
		b.WriteString(`="`)
		b.WriteString(kv.Value)
		b.WriteByte('"')
	}
	return b.String()
}

func (a *Authorizer) baseParams(url string, creds Credentials) Params {
	return Params{
		{Key: realmParam, Value: url},
		{Key: oauthConsumerKeyParam, Value: creds.ConsumerKey},
		{Key: oauthTimestampParam, Value: strconv.FormatInt(a.clock.Now().Unix(), 10)},
		{Key: oauthNonceParam, Value: a.noncer.Nonce()},
		{Key: oauthSignatureMethodParam, Value: SignatureMethod},
		{Key: oauthVersionParam, Value: Version},
	}
}
