package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/example/postpilot/internal/application"
)

type generateService interface {
	Generate(ctx context.Context, params application.GenerateParams) (string, error)
}

type GenerateHandler struct {
	service   generateService
	responder responder
	logger    *slog.Logger
}

func NewGenerateHandler(service generateService, logger *slog.Logger) *GenerateHandler {
	base := defaultLogger(logger)
	return &GenerateHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *GenerateHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "GenerateHandler", operation, attrs...)
}

func (h *GenerateHandler) Generate(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingSessionToken)
		return
	}

	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Generate", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode generate request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	text, err := h.service.Generate(r.Context(), application.GenerateParams{
		Principal: principal,
		Prompt:    req.Prompt,
		Tone:      req.Tone,
	})
	if err != nil {
		h.log(r.Context(), "Generate", "user_id", principal.UserID).ErrorContext(r.Context(), "generation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, generateResponse{Content: text})
}

type generateRequest struct {
	Prompt string `json:"prompt"`
	Tone   string `json:"tone"`
}

type generateResponse struct {
	Content string `json:"content"`
}
