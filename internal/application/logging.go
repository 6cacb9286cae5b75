package application

import (
	"context"
	"errors"
	"log/slog"

	"github.com/example/postpilot/internal/linkedin"
	"github.com/example/postpilot/internal/logging"
)

func defaultLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}

func serviceLogger(ctx context.Context, base *slog.Logger, serviceName, operation string, attrs ...any) *slog.Logger {
	logger := logging.FromContextOr(ctx, base)

	pairs := []any{"service", serviceName}
	if operation != "" {
		pairs = append(pairs, "operation", operation)
	}
	if len(attrs) > 0 {
		pairs = append(pairs, attrs...)
	}
	return logger.With(pairs...)
}

// ErrorKind maps sentinel and validation errors to a stable logging label.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrAlreadyExists):
		return "already_exists"
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, ErrSessionExpired):
		return "session_expired"
	case errors.Is(err, ErrSessionRevoked):
		return "session_revoked"
	case errors.Is(err, ErrNoConnection):
		return "no_connection"
	case errors.Is(err, ErrConnectionExpired):
		return "connection_expired"
	case errors.Is(err, ErrAlreadyPublished):
		return "already_published"
	case errors.Is(err, ErrNoPublishableContent):
		return "no_content"
	}

	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return "validation"
	}

	var perr *linkedin.ProviderError
	if errors.As(err, &perr) {
		if perr.Revoked {
			return "provider_revoked"
		}
		return "provider"
	}

	return "unexpected"
}
