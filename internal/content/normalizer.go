// Package content prepares outbound post text for the publishing
// provider's transport constraints.
package content

import (
	"errors"
	"strings"
	"unicode"
)

var (
	// ErrContentRequired is returned when normalized content is empty.
	ErrContentRequired = errors.New("content: content is required")
	// ErrContentTooLong is returned when normalized content exceeds MaxLength.
	ErrContentTooLong = errors.New("content: content exceeds maximum length")
)

// MaxLength is the provider limit on post commentary, in characters.
const MaxLength = 3000

// Normalize converts CRLF and Unicode line/paragraph separators to LF,
// strips control characters other than ordinary whitespace, and trims
// surrounding whitespace.
func Normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		switch {
		case r == '\u2028' || r == '\u2029' || r == '\r':
			b.WriteRune('\n')
		case r == '\n' || r == '\t':
			b.WriteRune(r)
		case unicode.IsControl(r):
			// dropped
		default:
			b.WriteRune(r)
		}
	}

	return strings.TrimSpace(b.String())
}

// Validate normalizes the text and enforces the provider constraints,
// returning the normalized form. It is called before any network I/O so
// violations never cost an outbound request.
func Validate(text string) (string, error) {
	normalized := Normalize(text)
	if normalized == "" {
		return "", ErrContentRequired
	}
	if len([]rune(normalized)) > MaxLength {
		return "", ErrContentTooLong
	}
	return normalized, nil
}
