package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/example/postpilot/internal/application"
)

type publishSweeper interface {
	Run(ctx context.Context) (application.PublishSweepSummary, error)
}

type analyticsSweeper interface {
	Run(ctx context.Context) (application.AnalyticsSweepSummary, error)
}

// CronHandler exposes the batch sweeps to an external timer trigger.
type CronHandler struct {
	publish   publishSweeper
	analytics analyticsSweeper
	responder responder
	logger    *slog.Logger
}

func NewCronHandler(publish publishSweeper, analytics analyticsSweeper, logger *slog.Logger) *CronHandler {
	base := defaultLogger(logger)
	return &CronHandler{publish: publish, analytics: analytics, responder: newResponder(base), logger: base}
}

func (h *CronHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "CronHandler", operation, attrs...)
}

func (h *CronHandler) PublishSweep(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.publish == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	summary, err := h.publish.Run(r.Context())
	if err != nil {
		h.log(r.Context(), "PublishSweep").ErrorContext(r.Context(), "publish sweep failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, publishSweepResponse{
		Success:   true,
		Processed: summary.Processed,
		Published: summary.Published,
		Failed:    summary.Failed,
	})
}

func (h *CronHandler) AnalyticsSweep(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.analytics == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	summary, err := h.analytics.Run(r.Context())
	if err != nil {
		h.log(r.Context(), "AnalyticsSweep").ErrorContext(r.Context(), "analytics sweep failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, analyticsSweepResponse{
		Success:   true,
		Processed: summary.Processed,
		Synced:    summary.Synced,
		Skipped:   summary.Skipped,
		Failed:    summary.Failed,
	})
}

type publishSweepResponse struct {
	Success   bool `json:"success"`
	Processed int  `json:"processed"`
	Published int  `json:"published"`
	Failed    int  `json:"failed"`
}

type analyticsSweepResponse struct {
	Success   bool `json:"success"`
	Processed int  `json:"processed"`
	Synced    int  `json:"synced"`
	Skipped   int  `json:"skipped"`
	Failed    int  `json:"failed"`
}
