package http

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"regexp"
	"strconv"
	"strings"

	"github.com/clbanning/mxj/v2"
)

// Format is the wire representation used for request and response bodies.
type Format int

const (
	FormatXML Format = iota
	FormatJSON
)

// rootElement wraps every XML request body.
const rootElement = "request"

// FormatFor maps the useJSON configuration flag to a Format.
func FormatFor(useJSON bool) Format {
	if useJSON {
		return FormatJSON
	}
	return FormatXML
}

func (f Format) String() string {
	if f == FormatJSON {
		return "json"
	}
	return "xml"
}

func (f Format) contentType() string {
	if f == FormatJSON {
		return "application/json"
	}
	return "application/xml"
}

// encode serializes a request body. In XML mode structs are marshalled with
// encoding/xml under a <request> root, so slice fields become repeated
// sibling elements; plain maps go through mxj.
func (f Format) encode(body any) ([]byte, error) {
	if raw, ok := body.([]byte); ok {
		return raw, nil
	}
	if f == FormatJSON {
		return json.Marshal(body)
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	if m, ok := asMap(body); ok {
		encoded, err := mxj.Map(m).Xml(rootElement)
		if err != nil {
			return nil, err
		}
		buf.Write(encoded)
		return buf.Bytes(), nil
	}

	enc := xml.NewEncoder(&buf)
	if err := enc.EncodeElement(body, xml.StartElement{Name: xml.Name{Local: rootElement}}); err != nil {
		return nil, err
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decode parses a successful response body into a plain nested map.
func (f Format) decode(body []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return map[string]any{}, nil
	}
	if f == FormatJSON {
		var data map[string]any
		if err := json.Unmarshal(body, &data); err != nil {
			return nil, err
		}
		if data == nil {
			data = map[string]any{}
		}
		return data, nil
	}
	return decodeXML(body)
}

var (
	numberLiteral = regexp.MustCompile(`^[+-]?\d+(\.\d+)?$`)
	boolLiteral   = regexp.MustCompile(`(?i)^(true|false)$`)
)

// decodeXML parses XML and drops the root element, e.g.
// <response><a>1</a></response> → {"a": 1}. Only plain integer or decimal
// leaves become numbers and only true/false (any case) become booleans.
func decodeXML(body []byte) (map[string]any, error) {
	m, err := mxj.NewMapXml(body)
	if err != nil {
		return nil, err
	}
	for root, value := range m {
		value = coerce(value)
		if inner, ok := value.(map[string]any); ok {
			return inner, nil
		}
		return map[string]any{root: value}, nil
	}
	return map[string]any{}, nil
}

func coerce(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, child := range t {
			t[k] = coerce(child)
		}
		return t
	case []any:
		for i, child := range t {
			t[i] = coerce(child)
		}
		return t
	case string:
		if numberLiteral.MatchString(t) {
			if f, err := strconv.ParseFloat(t, 64); err == nil {
				return f
			}
		}
		if boolLiteral.MatchString(t) {
			return strings.EqualFold(t, "true")
		}
	}
	return v
}

func asMap(body any) (map[string]any, bool) {
	switch v := body.(type) {
	case map[string]any:
		return v, true
	case mxj.Map:
		return map[string]any(v), true
	}
	return nil, false
}
