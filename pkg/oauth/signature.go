package oauth

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"fmt"
	"sort"
	"strings"
)

// Param is a single OAuth protocol parameter.
type Param struct {
	Key   string
	Value string
}

// Params is an ordered set of OAuth parameters. Order matters for the
// Authorization header, never for the signature.
type Params []Param

// Get returns the value stored under key.
func (p Params) Get(key string) (string, bool) {
	for _, kv := range p {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return "", false
}

// ParameterString merges the query parameters with the OAuth parameters
// (OAuth parameters win on conflicts), drops realm and oauth_signature,
// sorts by key and joins the raw key=value pairs with "&". Values are not
// encoded here; the whole string is encoded once by SignatureBase.
func ParameterString(params Params, query map[string]string) string {
	merged := make(map[string]string, len(params)+len(query))
	for key, value := range query {
		merged[key] = value
	}
	for _, kv := range params {
		merged[kv.Key] = kv.Value
	}
	delete(merged, realmParam)
	delete(merged, oauthSignatureParam)

	keys := make([]string, 0, len(merged))
	for key := range merged {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	pairs := make([]string, len(keys))
	for i, key := range keys {
		pairs[i] = key + "=" + merged[key]
	}
	return strings.Join(pairs, "&")
}

// SignatureBase combines the uppercase request method, the percent encoded
// base URL and the percent encoded parameter string.
func SignatureBase(method, baseURL string, params Params, query map[string]string) (string, error) {
	encodedURL, err := PercentEncode(baseURL)
	if err != nil {
		return "", fmt.Errorf("encode base url: %w", err)
	}
	encodedParams, err := PercentEncode(ParameterString(params, query))
	if err != nil {
		return "", fmt.Errorf("encode parameter string: %w", err)
	}
	return strings.ToUpper(method) + "&" + encodedURL + "&" + encodedParams, nil
}

// SigningKey joins the encoded consumer secret and token secret with "&".
// Public calls always sign with an empty token secret.
func SigningKey(creds Credentials, public bool) (string, error) {
	consumerSecret, err := PercentEncode(creds.ConsumerSecret)
	if err != nil {
		return "", fmt.Errorf("encode consumer secret: %w", err)
	}
	tokenSecret := ""
	if !public {
		tokenSecret, err = PercentEncode(creds.AccessTokenSecret)
		if err != nil {
			return "", fmt.Errorf("encode access token secret: %w", err)
		}
	}
	return consumerSecret + "&" + tokenSecret, nil
}

// Signature computes the base64 encoded HMAC-SHA1 signature of a request.
func Signature(method, baseURL string, params Params, query map[string]string, public bool, creds Credentials) (string, error) {
	base, err := SignatureBase(method, baseURL, params, query)
	if err != nil {
		return "", err
	}
	key, err := SigningKey(creds, public)
	if err != nil {
		return "", err
	}
	mac := hmac.New(sha1.New, []byte(key))
	mac.Write([]byte(base))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil)), nil
}
