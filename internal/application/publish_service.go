package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/postpilot/internal/linkedin"
	"github.com/example/postpilot/internal/persistence"
)

// PublishClient creates LinkedIn posts.
type PublishClient interface {
	Publish(ctx context.Context, req linkedin.PublishRequest) (linkedin.PublishResult, error)
}

// PublishService runs the publish pipeline shared by the publish-now
// route and the publish sweep: validate, resolve the connection, call
// the provider, persist the outcome.
type PublishService struct {
	drafts      persistence.DraftRepository
	connections persistence.ConnectionRepository
	publisher   PublishClient
	now         func() time.Time
	logger      *slog.Logger
}

// NewPublishService wires dependencies for publishing.
func NewPublishService(drafts persistence.DraftRepository, connections persistence.ConnectionRepository, publisher PublishClient, now func() time.Time, logger *slog.Logger) *PublishService {
	if now == nil {
		now = time.Now
	}
	return &PublishService{
		drafts:      drafts,
		connections: connections,
		publisher:   publisher,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *PublishService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "PublishService", operation, attrs...)
}

// PublishNow publishes one of the caller's drafts immediately.
func (s *PublishService) PublishNow(ctx context.Context, principal Principal, draftID string) (PublishOutcome, error) {
	if s == nil {
		return PublishOutcome{}, fmt.Errorf("PublishService is nil")
	}

	draft, err := s.drafts.GetDraft(ctx, draftID, principal.UserID)
	if err != nil {
		return PublishOutcome{}, mapDraftRepoError(err)
	}
	if draft.Status == persistence.DraftStatusPublished {
		return PublishOutcome{}, ErrAlreadyPublished
	}

	return s.PublishDraft(ctx, draft)
}

// PublishDraft publishes a single draft and persists the outcome. Every
// failure path records a user-visible error on the draft; a revoked
// provider signal additionally deletes the connection row.
func (s *PublishService) PublishDraft(ctx context.Context, draft persistence.Draft) (outcome PublishOutcome, err error) {
	if s == nil {
		return PublishOutcome{}, fmt.Errorf("PublishService is nil")
	}

	logger := s.loggerWith(ctx, "PublishDraft",
		"draft_id", draft.ID,
		"user_id", draft.UserID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "publish failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("post_id", outcome.PostID).InfoContext(ctx, "draft published")
	}()

	if draft.Content == "" {
		err = s.failDraft(ctx, draft.ID, "post content is empty", ErrNoPublishableContent)
		return
	}

	conn, err := s.connections.GetConnection(ctx, draft.UserID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			err = s.failDraft(ctx, draft.ID, "LinkedIn account is not connected", ErrNoConnection)
			return
		}
		return PublishOutcome{}, err
	}

	if !conn.ExpiresAt.After(s.now()) {
		err = s.failDraft(ctx, draft.ID, "LinkedIn connection has expired, please reconnect", ErrConnectionExpired)
		return
	}

	imageURL := ""
	if draft.ImageURL != nil {
		imageURL = *draft.ImageURL
	}

	result, err := s.publisher.Publish(ctx, linkedin.PublishRequest{
		AccessToken: conn.AccessToken,
		MemberID:    conn.MemberID,
		Content:     draft.Content,
		ImageURL:    imageURL,
	})
	if err != nil {
		message := "publishing to LinkedIn failed"
		var perr *linkedin.ProviderError
		if errors.As(err, &perr) {
			message = perr.Message
			if perr.Revoked {
				if delErr := s.connections.DeleteConnection(ctx, draft.UserID); delErr != nil && !errors.Is(delErr, persistence.ErrNotFound) {
					logger.ErrorContext(ctx, "failed to delete revoked connection", "error", delErr)
				}
				message = "LinkedIn access was revoked, please reconnect"
			}
		}
		return PublishOutcome{}, s.failDraft(ctx, draft.ID, message, err)
	}

	publishedAt := s.now()
	if err = s.drafts.MarkPublished(ctx, draft.ID, result.PostID, publishedAt); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			// The post went out but another writer already moved the
			// row; surface the created post rather than a phantom failure.
			logger.WarnContext(ctx, "draft transitioned concurrently, keeping provider post", "post_id", result.PostID)
			err = nil
		} else {
			return PublishOutcome{}, err
		}
	}

	outcome = PublishOutcome{
		PostID:      result.PostID,
		PostURL:     result.PostURL,
		PublishedAt: publishedAt,
	}
	return outcome, nil
}

// failDraft records a user-visible publish error and returns cause.
func (s *PublishService) failDraft(ctx context.Context, draftID, message string, cause error) error {
	if recErr := s.drafts.RecordPublishError(ctx, draftID, message); recErr != nil && !errors.Is(recErr, persistence.ErrNotFound) {
		s.loggerWith(ctx, "PublishDraft", "draft_id", draftID).
			ErrorContext(ctx, "failed to record publish error", "error", recErr)
	}
	return cause
}
