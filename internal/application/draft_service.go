package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/example/postpilot/internal/content"
	"github.com/example/postpilot/internal/persistence"
)

// DraftService orchestrates validation and persistence for draft operations.
type DraftService struct {
	drafts      persistence.DraftRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewDraftService wires dependencies for draft operations.
func NewDraftService(drafts persistence.DraftRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *DraftService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &DraftService{
		drafts:      drafts,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *DraftService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "DraftService", operation, attrs...)
}

// CreateDraft validates the request before delegating to persistence.
// A draft may be created with empty content; scheduling one requires
// publishable content and a future timestamp.
func (s *DraftService) CreateDraft(ctx context.Context, params CreateDraftParams) (draft persistence.Draft, err error) {
	if s == nil {
		return persistence.Draft{}, fmt.Errorf("DraftService is nil")
	}

	logger := s.loggerWith(ctx, "CreateDraft", "user_id", params.Principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "draft creation failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("draft_id", draft.ID, "status", draft.Status).InfoContext(ctx, "draft created")
	}()

	input := params.Input
	normalized := content.Normalize(input.Content)

	vErr := &ValidationError{}
	if utf8.RuneCountInString(normalized) > content.MaxLength {
		vErr.add("content", fmt.Sprintf("content exceeds %d characters", content.MaxLength))
	}

	status := persistence.DraftStatusDraft
	if input.ScheduledAt != nil {
		status = persistence.DraftStatusScheduled
		if normalized == "" {
			vErr.add("content", "content is required to schedule a post")
		}
		if !input.ScheduledAt.After(s.now()) {
			vErr.add("scheduled_at", "scheduled_at must be in the future")
		}
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	draft = persistence.Draft{
		ID:          s.idGenerator(),
		UserID:      params.Principal.UserID,
		Content:     normalized,
		Tone:        strings.TrimSpace(input.Tone),
		ImageURL:    input.ImageURL,
		ScheduledAt: input.ScheduledAt,
		Status:      status,
		TrendTag:    input.TrendTag,
		TrendTitle:  input.TrendTitle,
	}

	if err = s.drafts.CreateDraft(ctx, draft); err != nil {
		err = mapDraftRepoError(err)
		return persistence.Draft{}, err
	}

	return s.drafts.GetDraft(ctx, draft.ID, params.Principal.UserID)
}

// GetDraft retrieves one of the caller's drafts.
func (s *DraftService) GetDraft(ctx context.Context, principal Principal, draftID string) (persistence.Draft, error) {
	if s == nil {
		return persistence.Draft{}, fmt.Errorf("DraftService is nil")
	}

	draft, err := s.drafts.GetDraft(ctx, draftID, principal.UserID)
	if err != nil {
		return persistence.Draft{}, mapDraftRepoError(err)
	}
	return draft, nil
}

// ListDrafts returns the caller's drafts, optionally filtered by status.
func (s *DraftService) ListDrafts(ctx context.Context, params ListDraftsParams) ([]persistence.Draft, error) {
	if s == nil {
		return nil, fmt.Errorf("DraftService is nil")
	}

	status := strings.TrimSpace(params.Status)
	if status != "" && !validDraftStatus(status) {
		vErr := &ValidationError{}
		vErr.add("status", "status must be one of draft, scheduled, published")
		return nil, vErr
	}

	drafts, err := s.drafts.ListDrafts(ctx, params.Principal.UserID, persistence.DraftFilter{Status: status})
	if err != nil {
		return nil, mapDraftRepoError(err)
	}
	return drafts, nil
}

// UpdateDraft applies a partial edit to one of the caller's drafts.
// Published drafts are immutable.
func (s *DraftService) UpdateDraft(ctx context.Context, params UpdateDraftParams) (draft persistence.Draft, err error) {
	if s == nil {
		return persistence.Draft{}, fmt.Errorf("DraftService is nil")
	}

	logger := s.loggerWith(ctx, "UpdateDraft",
		"user_id", params.Principal.UserID,
		"draft_id", params.DraftID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "draft update failed", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	existing, err := s.drafts.GetDraft(ctx, params.DraftID, params.Principal.UserID)
	if err != nil {
		err = mapDraftRepoError(err)
		return
	}
	if existing.Status == persistence.DraftStatusPublished {
		err = ErrAlreadyPublished
		return
	}

	input := params.Input
	vErr := &ValidationError{}
	patch := persistence.DraftPatch{
		Tone:          input.Tone,
		ImageURL:      input.ImageURL,
		ClearImageURL: input.ClearImageURL,
		TrendTag:      input.TrendTag,
		TrendTitle:    input.TrendTitle,
	}

	effectiveContent := existing.Content
	if input.Content != nil {
		normalized := content.Normalize(*input.Content)
		if utf8.RuneCountInString(normalized) > content.MaxLength {
			vErr.add("content", fmt.Sprintf("content exceeds %d characters", content.MaxLength))
		}
		patch.Content = &normalized
		effectiveContent = normalized
	}

	switch {
	case input.ClearSchedule:
		patch.ClearSchedule = true
		status := persistence.DraftStatusDraft
		patch.Status = &status
	case input.ScheduledAt != nil:
		if !input.ScheduledAt.After(s.now()) {
			vErr.add("scheduled_at", "scheduled_at must be in the future")
		}
		if effectiveContent == "" {
			vErr.add("content", "content is required to schedule a post")
		}
		patch.ScheduledAt = input.ScheduledAt
		status := persistence.DraftStatusScheduled
		patch.Status = &status
	}

	if vErr.HasErrors() {
		err = vErr
		return
	}

	draft, err = s.drafts.UpdateDraft(ctx, params.DraftID, params.Principal.UserID, patch)
	if err != nil {
		err = mapDraftRepoError(err)
		return persistence.Draft{}, err
	}
	return draft, nil
}

// DeleteDraft removes one of the caller's drafts.
func (s *DraftService) DeleteDraft(ctx context.Context, principal Principal, draftID string) error {
	if s == nil {
		return fmt.Errorf("DraftService is nil")
	}

	logger := s.loggerWith(ctx, "DeleteDraft",
		"user_id", principal.UserID,
		"draft_id", draftID,
	)

	if err := s.drafts.DeleteDraft(ctx, draftID, principal.UserID); err != nil {
		err = mapDraftRepoError(err)
		logger.ErrorContext(ctx, "draft deletion failed", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	logger.InfoContext(ctx, "draft deleted")
	return nil
}

func validDraftStatus(status string) bool {
	switch status {
	case persistence.DraftStatusDraft, persistence.DraftStatusScheduled, persistence.DraftStatusPublished:
		return true
	}
	return false
}

// mapDraftRepoError translates persistence sentinels into application errors.
func mapDraftRepoError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, persistence.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, persistence.ErrDuplicate):
		return ErrAlreadyExists
	case errors.Is(err, persistence.ErrForeignKeyViolation):
		return ErrNotFound
	default:
		return err
	}
}
