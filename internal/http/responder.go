package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/postpilot/internal/application"
	"github.com/example/postpilot/internal/linkedin"
	"github.com/example/postpilot/internal/oauthstate"
)

var (
	errBadRequestBody      = errors.New("invalid request body")
	errInvalidDraftID      = errors.New("invalid draft id")
	errMissingSessionToken = errors.New("missing session token")
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := http.StatusText(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "status", status, "error", err)
	}

	r.writeJSON(ctx, w, status, errorResponse{Message: message})
}

// handleServiceError translates application and provider errors into the
// API status mapping. Provider payloads are never forwarded beyond the
// extracted message string.
func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, errors.New("unknown error"))
		return
	}

	switch {
	case errors.Is(err, application.ErrUnauthorized),
		errors.Is(err, application.ErrSessionExpired),
		errors.Is(err, application.ErrSessionRevoked):
		r.writeJSON(ctx, w, http.StatusUnauthorized, errorResponse{
			ErrorCode: "AUTH_REQUIRED",
			Message:   "authentication required, please sign in again",
		})
	case errors.Is(err, application.ErrInvalidCredentials):
		r.writeJSON(ctx, w, http.StatusUnauthorized, errorResponse{
			ErrorCode: "AUTH_INVALID_CREDENTIALS",
			Message:   "email or password is incorrect",
		})
	case errors.Is(err, application.ErrNotFound):
		r.writeJSON(ctx, w, http.StatusNotFound, errorResponse{Message: "the requested resource was not found"})
	case errors.Is(err, application.ErrAlreadyExists):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{Message: "the resource already exists"})
	case errors.Is(err, application.ErrAlreadyPublished):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{Message: "the draft has already been published"})
	case errors.Is(err, application.ErrNoConnection):
		r.writeJSON(ctx, w, http.StatusBadRequest, errorResponse{Message: "no LinkedIn account is connected"})
	case errors.Is(err, application.ErrConnectionExpired):
		r.writeJSON(ctx, w, http.StatusBadRequest, errorResponse{Message: "the LinkedIn connection has expired, please reconnect"})
	case errors.Is(err, application.ErrNoPublishableContent):
		r.writeJSON(ctx, w, http.StatusBadRequest, errorResponse{Message: "the draft has no content to publish"})
	case errors.Is(err, oauthstate.ErrExpired):
		r.writeJSON(ctx, w, http.StatusBadRequest, errorResponse{Message: "the connect link has expired, please try again"})
	case errors.Is(err, oauthstate.ErrInvalidFormat),
		errors.Is(err, oauthstate.ErrInvalidSignature),
		errors.Is(err, oauthstate.ErrInvalidPayload):
		r.writeJSON(ctx, w, http.StatusBadRequest, errorResponse{Message: "the connect request could not be verified"})
	default:
		var vErr *application.ValidationError
		if errors.As(err, &vErr) {
			r.writeJSON(ctx, w, http.StatusBadRequest, errorResponse{
				Message: "the request contains invalid fields",
				Errors:  vErr.FieldErrors,
			})
			return
		}

		var perr *linkedin.ProviderError
		if errors.As(err, &perr) {
			status := http.StatusBadGateway
			if perr.StatusCode == http.StatusTooManyRequests {
				status = http.StatusTooManyRequests
			}
			if perr.Revoked {
				status = http.StatusBadRequest
			}
			message := strings.TrimSpace(perr.Message)
			if message == "" {
				message = "the provider rejected the request"
			}
			r.writeJSON(ctx, w, status, errorResponse{Message: message})
			return
		}

		r.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{Message: "an internal error occurred"})
	}
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

type errorResponse struct {
	ErrorCode string            `json:"error_code,omitempty"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
}
