package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/example/postpilot/internal/application"
	"github.com/example/postpilot/internal/persistence"
)

type draftService interface {
	CreateDraft(ctx context.Context, params application.CreateDraftParams) (persistence.Draft, error)
	GetDraft(ctx context.Context, principal application.Principal, draftID string) (persistence.Draft, error)
	ListDrafts(ctx context.Context, params application.ListDraftsParams) ([]persistence.Draft, error)
	UpdateDraft(ctx context.Context, params application.UpdateDraftParams) (persistence.Draft, error)
	DeleteDraft(ctx context.Context, principal application.Principal, draftID string) error
}

type draftPublisher interface {
	PublishNow(ctx context.Context, principal application.Principal, draftID string) (application.PublishOutcome, error)
}

type DraftHandler struct {
	service   draftService
	publisher draftPublisher
	responder responder
	logger    *slog.Logger
}

func NewDraftHandler(service draftService, publisher draftPublisher, logger *slog.Logger) *DraftHandler {
	base := defaultLogger(logger)
	return &DraftHandler{service: service, publisher: publisher, responder: newResponder(base), logger: base}
}

func (h *DraftHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "DraftHandler", operation, attrs...)
}

func (h *DraftHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingSessionToken)
		return
	}

	var req draftCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode draft request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	input := application.DraftInput{
		Content:    req.Content,
		Tone:       req.Tone,
		ImageURL:   req.ImageURL,
		TrendTag:   req.TrendTag,
		TrendTitle: req.TrendTitle,
	}
	if req.ScheduledAt != nil {
		parsed, err := parseTimestamp(*req.ScheduledAt)
		if err != nil {
			h.responder.writeError(r.Context(), w, http.StatusBadRequest, errors.New("scheduled_at must be an RFC 3339 timestamp"))
			return
		}
		input.ScheduledAt = &parsed
	}

	draft, err := h.service.CreateDraft(r.Context(), application.CreateDraftParams{Principal: principal, Input: input})
	if err != nil {
		h.log(r.Context(), "Create", "user_id", principal.UserID).ErrorContext(r.Context(), "draft creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toDraftDTO(draft))
}

func (h *DraftHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingSessionToken)
		return
	}

	drafts, err := h.service.ListDrafts(r.Context(), application.ListDraftsParams{
		Principal: principal,
		Status:    r.URL.Query().Get("status"),
	})
	if err != nil {
		h.log(r.Context(), "List", "user_id", principal.UserID).ErrorContext(r.Context(), "draft listing failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	dtos := make([]draftDTO, 0, len(drafts))
	for _, draft := range drafts {
		dtos = append(dtos, toDraftDTO(draft))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, draftListResponse{Drafts: dtos})
}

func (h *DraftHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, draftID, ok := h.requireDraftRequest(w, r)
	if !ok {
		return
	}

	draft, err := h.service.GetDraft(r.Context(), principal, draftID)
	if err != nil {
		h.log(r.Context(), "Get", "draft_id", draftID).ErrorContext(r.Context(), "draft lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toDraftDTO(draft))
}

func (h *DraftHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, draftID, ok := h.requireDraftRequest(w, r)
	if !ok {
		return
	}

	var req draftUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Update", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode draft request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	input := application.DraftUpdateInput{
		Content:       req.Content,
		Tone:          req.Tone,
		ImageURL:      req.ImageURL,
		ClearImageURL: req.ClearImageURL,
		ClearSchedule: req.ClearSchedule,
		TrendTag:      req.TrendTag,
		TrendTitle:    req.TrendTitle,
	}
	if req.ScheduledAt != nil {
		parsed, err := parseTimestamp(*req.ScheduledAt)
		if err != nil {
			h.responder.writeError(r.Context(), w, http.StatusBadRequest, errors.New("scheduled_at must be an RFC 3339 timestamp"))
			return
		}
		input.ScheduledAt = &parsed
	}

	draft, err := h.service.UpdateDraft(r.Context(), application.UpdateDraftParams{
		Principal: principal,
		DraftID:   draftID,
		Input:     input,
	})
	if err != nil {
		h.log(r.Context(), "Update", "draft_id", draftID).ErrorContext(r.Context(), "draft update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toDraftDTO(draft))
}

func (h *DraftHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, draftID, ok := h.requireDraftRequest(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteDraft(r.Context(), principal, draftID); err != nil {
		h.log(r.Context(), "Delete", "draft_id", draftID).ErrorContext(r.Context(), "draft deletion failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *DraftHandler) Publish(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.publisher == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, draftID, ok := h.requireDraftRequest(w, r)
	if !ok {
		return
	}

	outcome, err := h.publisher.PublishNow(r.Context(), principal, draftID)
	if err != nil {
		h.log(r.Context(), "Publish", "draft_id", draftID).ErrorContext(r.Context(), "publish failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.log(r.Context(), "Publish", "draft_id", draftID, "post_id", outcome.PostID).InfoContext(r.Context(), "draft published")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, publishResponse{
		PostID:      outcome.PostID,
		PostURL:     outcome.PostURL,
		PublishedAt: outcome.PublishedAt.UTC().Format(time.RFC3339Nano),
	})
}

func (h *DraftHandler) requireDraftRequest(w http.ResponseWriter, r *http.Request) (application.Principal, string, bool) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingSessionToken)
		return application.Principal{}, "", false
	}
	draftID, ok := DraftIDFromContext(r.Context())
	if !ok || draftID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidDraftID)
		return application.Principal{}, "", false
	}
	return principal, draftID, true
}

type draftCreateRequest struct {
	Content     string  `json:"content"`
	Tone        string  `json:"tone"`
	ImageURL    *string `json:"image_url"`
	ScheduledAt *string `json:"scheduled_at"`
	TrendTag    *string `json:"trend_tag"`
	TrendTitle  *string `json:"trend_title"`
}

type draftUpdateRequest struct {
	Content       *string `json:"content"`
	Tone          *string `json:"tone"`
	ImageURL      *string `json:"image_url"`
	ClearImageURL bool    `json:"clear_image_url"`
	ScheduledAt   *string `json:"scheduled_at"`
	ClearSchedule bool    `json:"clear_schedule"`
	TrendTag      *string `json:"trend_tag"`
	TrendTitle    *string `json:"trend_title"`
}

type draftDTO struct {
	ID          string  `json:"id"`
	Content     string  `json:"content"`
	Tone        string  `json:"tone,omitempty"`
	ImageURL    *string `json:"image_url,omitempty"`
	ScheduledAt *string `json:"scheduled_at,omitempty"`
	Status      string  `json:"status"`
	TrendTag    *string `json:"trend_tag,omitempty"`
	TrendTitle  *string `json:"trend_title,omitempty"`

	LinkedInPostID *string `json:"linkedin_post_id,omitempty"`
	PublishedAt    *string `json:"published_at,omitempty"`
	LinkedInError  *string `json:"linkedin_error,omitempty"`

	Analytics *analyticsDTO `json:"analytics,omitempty"`

	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type analyticsDTO struct {
	Impressions    *int64   `json:"impressions"`
	Clicks         *int64   `json:"clicks"`
	Likes          *int64   `json:"likes"`
	Comments       *int64   `json:"comments"`
	Shares         *int64   `json:"shares"`
	Engagement     *int64   `json:"engagement"`
	EngagementRate *float64 `json:"engagement_rate"`
	Error          *string  `json:"error,omitempty"`
	LastSyncedAt   *string  `json:"last_synced_at,omitempty"`
}

type draftListResponse struct {
	Drafts []draftDTO `json:"drafts"`
}

type publishResponse struct {
	PostID      string `json:"post_id"`
	PostURL     string `json:"post_url,omitempty"`
	PublishedAt string `json:"published_at"`
}

func toDraftDTO(draft persistence.Draft) draftDTO {
	dto := draftDTO{
		ID:             draft.ID,
		Content:        draft.Content,
		Tone:           draft.Tone,
		ImageURL:       draft.ImageURL,
		ScheduledAt:    formatTimestampPtr(draft.ScheduledAt),
		Status:         draft.Status,
		TrendTag:       draft.TrendTag,
		TrendTitle:     draft.TrendTitle,
		LinkedInPostID: draft.LinkedInPostID,
		PublishedAt:    formatTimestampPtr(draft.PublishedAt),
		LinkedInError:  draft.LinkedInError,
		CreatedAt:      draft.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:      draft.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}

	if draft.LastAnalyticsSyncedAt != nil || draft.AnalyticsError != nil {
		dto.Analytics = &analyticsDTO{
			Impressions:    draft.Impressions,
			Clicks:         draft.Clicks,
			Likes:          draft.Likes,
			Comments:       draft.Comments,
			Shares:         draft.Shares,
			Engagement:     draft.Engagement,
			EngagementRate: draft.EngagementRate,
			Error:          draft.AnalyticsError,
			LastSyncedAt:   formatTimestampPtr(draft.LastAnalyticsSyncedAt),
		}
	}

	return dto
}

func parseTimestamp(value string) (time.Time, error) {
	return time.Parse(time.RFC3339, value)
}

func formatTimestampPtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	formatted := t.UTC().Format(time.RFC3339Nano)
	return &formatted
}
