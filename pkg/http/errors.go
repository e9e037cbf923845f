package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/clbanning/mxj/v2"
)

// Error is returned when the API answers with a non-2xx status.
type Error struct {
	Status     int
	StatusText string
	// Message is the server's error text: the "error" field of a structured
	// body when one parses, otherwise the raw body.
	Message    string
	HasMessage bool
}

func (e *Error) Error() string {
	if e.HasMessage {
		return fmt.Sprintf("api error: %d %s: %s", e.Status, e.StatusText, e.Message)
	}
	return fmt.Sprintf("api error: %d %s", e.Status, e.StatusText)
}

// ParseError is returned when a 2xx response body cannot be decoded.
type ParseError struct {
	Format Format
	Body   []byte
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s response: %v", e.Format, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func newError(resp *http.Response, body []byte) *Error {
	apiErr := &Error{
		Status:     resp.StatusCode,
		StatusText: statusText(resp),
	}
	if len(body) > 0 {
		apiErr.Message = errorMessage(body)
		apiErr.HasMessage = true
	}
	return apiErr
}

// errorMessage pulls the "error" field out of a JSON or XML error body and
// falls back to the body text.
func errorMessage(body []byte) string {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err == nil {
		if msg, ok := payload["error"].(string); ok {
			return msg
		}
		return string(body)
	}
	if m, err := mxj.NewMapXml(body); err == nil {
		if msg, ok := findString(m, "error"); ok {
			return msg
		}
	}
	return string(body)
}

func findString(m map[string]any, key string) (string, bool) {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s, true
		}
	}
	for _, v := range m {
		if inner, ok := v.(map[string]any); ok {
			if s, ok := findString(inner, key); ok {
				return s, true
			}
		}
	}
	return "", false
}
