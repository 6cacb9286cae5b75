package content

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := map[string]struct {
		input    string
		expected string
	}{
		"crlf to lf":            {input: "line1\r\nline2", expected: "line1\nline2"},
		"bare cr to lf":         {input: "line1\rline2", expected: "line1\nline2"},
		"line separator":        {input: "a\u2028b", expected: "a\nb"},
		"paragraph separator":   {input: "a\u2029b", expected: "a\nb"},
		"null byte stripped":    {input: "a\x00b", expected: "ab"},
		"bell stripped":         {input: "a\ab", expected: "ab"},
		"escape stripped":       {input: "a\x1bb", expected: "ab"},
		"tab preserved":         {input: "a\tb", expected: "a\tb"},
		"newline preserved":     {input: "a\nb", expected: "a\nb"},
		"surrounding trimmed":   {input: "  hello  \n", expected: "hello"},
		"empty":                 {input: "", expected: ""},
		"whitespace only":       {input: " \n\t ", expected: ""},
		"plain text untouched":  {input: "Hello world", expected: "Hello world"},
		"emoji survives":        {input: "ship it \U0001F680", expected: "ship it \U0001F680"},
		"interior space intact": {input: "a  b", expected: "a  b"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Normalize(tc.input))
		})
	}
}

func TestValidate(t *testing.T) {
	t.Run("returns normalized content", func(t *testing.T) {
		got, err := Validate("  hello\r\nworld  ")
		assert.NoError(t, err)
		assert.Equal(t, "hello\nworld", got)
	})

	t.Run("rejects empty content", func(t *testing.T) {
		_, err := Validate("  \n ")
		assert.ErrorIs(t, err, ErrContentRequired)
	})

	t.Run("accepts content at the limit", func(t *testing.T) {
		_, err := Validate(strings.Repeat("a", MaxLength))
		assert.NoError(t, err)
	})

	t.Run("rejects content over the limit", func(t *testing.T) {
		_, err := Validate(strings.Repeat("a", MaxLength+1))
		assert.ErrorIs(t, err, ErrContentTooLong)
	})

	t.Run("limit counts runes not bytes", func(t *testing.T) {
		_, err := Validate(strings.Repeat("é", MaxLength))
		assert.NoError(t, err)
	})
}
