package application

import (
	"io"
	"log/slog"
	"testing"

	"github.com/example/postpilot/internal/linkedin"
)

func TestDefaultLogger(t *testing.T) {
	t.Parallel()

	custom := slog.New(slog.NewTextHandler(io.Discard, nil))
	if got := defaultLogger(custom); got != custom {
		t.Fatalf("expected custom logger to be returned")
	}

	if got := defaultLogger(nil); got != slog.Default() {
		t.Fatalf("expected default logger when none provided")
	}
}

func TestErrorKindLabels(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"not found", ErrNotFound, "not_found"},
		{"no connection", ErrNoConnection, "no_connection"},
		{"already published", ErrAlreadyPublished, "already_published"},
		{"validation", &ValidationError{FieldErrors: map[string]string{"content": "too long"}}, "validation"},
		{"provider", &linkedin.ProviderError{StatusCode: 500, Message: "boom"}, "provider"},
		{"provider revoked", &linkedin.ProviderError{StatusCode: 401, Revoked: true}, "provider_revoked"},
		{"unexpected", io.ErrUnexpectedEOF, "unexpected"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ErrorKind(tc.err); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}
