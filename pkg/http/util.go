package http

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/natserract/mkm/pkg/oauth"
)

const (
	ProductionBaseURL = "https://api.cardmarket.com/ws/v2.0/"
	SandboxBaseURL    = "https://sandbox.cardmarket.com/ws/v2.0/"
	jsonPathSuffix    = "output.json/"
)

// BaseURL returns the API origin for the given mode. In JSON mode the
// server expects an extra path segment.
func BaseURL(sandbox, useJSON bool) string {
	base := ProductionBaseURL
	if sandbox {
		base = SandboxBaseURL
	}
	if useJSON {
		base += jsonPathSuffix
	}
	return base
}

// BuildURL joins a base URL and a resource path. The result is what gets
// signed, so it must stay absolute and free of a query string.
func BuildURL(baseURL, path string) (string, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("error parsing base URL: %w", err)
	}
	if !parsed.IsAbs() {
		return "", fmt.Errorf("base URL %q is not absolute", baseURL)
	}
	if strings.Contains(path, "?") {
		return "", fmt.Errorf("path %q must not carry a query, pass query parameters separately", path)
	}
	return strings.TrimSuffix(baseURL, "/") + "/" + strings.TrimPrefix(path, "/"), nil
}

// AppendQuery adds query parameters to rawURL using the same percent
// encoding as the signature. Keys are sorted so the result is stable.
func AppendQuery(rawURL string, query map[string]string) (string, error) {
	if len(query) == 0 {
		return rawURL, nil
	}
	keys := make([]string, 0, len(query))
	for key := range query {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	pairs := make([]string, len(keys))
	for i, key := range keys {
		k, err := oauth.PercentEncode(key)
		if err != nil {
			return "", fmt.Errorf("encode query key: %w", err)
		}
		v, err := oauth.PercentEncode(query[key])
		if err != nil {
			return "", fmt.Errorf("encode query value for %q: %w", key, err)
		}
		pairs[i] = k + "=" + v
	}

	sep := "?"
	if strings.Contains(rawURL, "?") {
		sep = "&"
	}
	return rawURL + sep + strings.Join(pairs, "&"), nil
}
