package oauth

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// ErrMalformedInput is matched by every EncodingError.
var ErrMalformedInput = errors.New("oauth: malformed input")

// EncodingError reports input that cannot be percent encoded.
type EncodingError struct {
	// Offset is the byte (or UTF-16 unit) offset of the offending input.
	Offset int
	Reason string
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("oauth: cannot percent encode input at offset %d: %s", e.Offset, e.Reason)
}

func (e *EncodingError) Is(target error) bool {
	return target == ErrMalformedInput
}

const upperhex = "0123456789ABCDEF"

// PercentEncode percent encodes a string according to RFC 3986 2.1, with
// ! ' ( ) * left unescaped as the marketplace server expects. Every other
// byte of the UTF-8 encoding is written as %XX. Invalid UTF-8 (the form a
// lone surrogate takes once it reaches a Go string) is rejected.
func PercentEncode(input string) (string, error) {
	n := 0
	for i := 0; i < len(input); {
		c := input[i]
		if c < utf8.RuneSelf {
			if shouldEscape(c) {
				n++
			}
			i++
			continue
		}
		r, size := utf8.DecodeRuneInString(input[i:])
		if r == utf8.RuneError && size == 1 {
			return "", &EncodingError{Offset: i, Reason: "invalid UTF-8 sequence"}
		}
		n += size
		i += size
	}
	if n == 0 {
		return input, nil
	}

	var buf strings.Builder
	buf.Grow(len(input) + 2*n)
	for i := 0; i < len(input); i++ {
		c := input[i]
		if c < utf8.RuneSelf && !shouldEscape(c) {
			buf.WriteByte(c)
			continue
		}
		buf.WriteByte('%')
		buf.WriteByte(upperhex[c>>4])
		buf.WriteByte(upperhex[c&0x0F])
	}
	return buf.String(), nil
}

// PercentEncodeUTF16 encodes a sequence of UTF-16 code units. Surrogate
// pairs are combined into a single code point before encoding; an unpaired
// or trailing surrogate fails with an EncodingError.
func PercentEncodeUTF16(units []uint16) (string, error) {
	runes := make([]rune, 0, len(units))
	for i := 0; i < len(units); i++ {
		u := rune(units[i])
		switch {
		case utf16.IsSurrogate(u) && u < 0xDC00:
			if i+1 >= len(units) {
				return "", &EncodingError{Offset: i, Reason: "trailing high surrogate"}
			}
			r := utf16.DecodeRune(u, rune(units[i+1]))
			if r == utf8.RuneError {
				return "", &EncodingError{Offset: i, Reason: "unpaired high surrogate"}
			}
			runes = append(runes, r)
			i++
		case utf16.IsSurrogate(u):
			return "", &EncodingError{Offset: i, Reason: "unpaired low surrogate"}
		default:
			runes = append(runes, u)
		}
	}
	return PercentEncode(string(runes))
}

// shouldEscape returns false if the byte is an unreserved character that
// should not be escaped and true otherwise.
func shouldEscape(c byte) bool {
	if 'A' <= c && c <= 'Z' || 'a' <= c && c <= 'z' || '0' <= c && c <= '9' {
		return false
	}
	switch c {
	case '-', '.', '_', '~', '!', '\'', '(', ')', '*':
		return false
	}
	return true
}
