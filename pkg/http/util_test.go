package http

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBaseURL(t *testing.T) {
	assert.Equal(t, "https://api.cardmarket.com/ws/v2.0/", BaseURL(false, false))
	assert.Equal(t, "https://api.cardmarket.com/ws/v2.0/output.json/", BaseURL(false, true))
	assert.Equal(t, "https://sandbox.cardmarket.com/ws/v2.0/", BaseURL(true, false))
	assert.Equal(t, "https://sandbox.cardmarket.com/ws/v2.0/output.json/", BaseURL(true, true))
}

func TestBuildURL(t *testing.T) {
	got, err := BuildURL(BaseURL(false, false), "account")
	require.NoError(t, err)
	assert.Equal(t, "https://api.cardmarket.com/ws/v2.0/account", got)

	got, err = BuildURL("https://sandbox.cardmarket.com/ws/v2.0", "/users/karmacrow/articles")
	require.NoError(t, err)
	assert.Equal(t, "https://sandbox.cardmarket.com/ws/v2.0/users/karmacrow/articles", got)

	_, err = BuildURL("/relative", "account")
	assert.Error(t, err)

	_, err = BuildURL(BaseURL(false, false), "products/find?search=x")
	assert.Error(t, err)
}

func TestAppendQuery(t *testing.T) {
	got, err := AppendQuery("https://a.example/x", nil)
	require.NoError(t, err)
	assert.Equal(t, "https://a.example/x", got)

	got, err = AppendQuery("https://a.example/x", map[string]string{"b": "it's", "a": "1+1"})
	require.NoError(t, err)
	assert.Equal(t, "https://a.example/x?a=1%2B1&b=it's", got)

	got, err = AppendQuery("https://a.example/x?z=1", map[string]string{"a": "2"})
	require.NoError(t, err)
	assert.Equal(t, "https://a.example/x?z=1&a=2", got)

	_, err = AppendQuery("https://a.example/x", map[string]string{"a": "\xff"})
	assert.Error(t, err)
}

func TestFormatFor(t *testing.T) {
	assert.Equal(t, FormatXML, FormatFor(false))
	assert.Equal(t, FormatJSON, FormatFor(true))
	assert.Equal(t, "xml", FormatXML.String())
	assert.Equal(t, "json", FormatJSON.String())
}
