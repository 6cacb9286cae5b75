package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/postpilot/internal/persistence"
)

// SweepBatchSize caps how many drafts one sweep invocation touches.
const SweepBatchSize = 25

// DraftPublisher publishes a single draft and persists the outcome.
type DraftPublisher interface {
	PublishDraft(ctx context.Context, draft persistence.Draft) (PublishOutcome, error)
}

// PublishSweepService publishes due scheduled drafts in batches. Drafts
// are processed sequentially in schedule order; each outcome is
// committed independently so one failure never rolls back the batch.
type PublishSweepService struct {
	drafts    persistence.DraftRepository
	publisher DraftPublisher
	now       func() time.Time
	batchSize int
	logger    *slog.Logger
}

// NewPublishSweepService wires dependencies for the publish sweep.
func NewPublishSweepService(drafts persistence.DraftRepository, publisher DraftPublisher, now func() time.Time, logger *slog.Logger) *PublishSweepService {
	if now == nil {
		now = time.Now
	}
	return &PublishSweepService{
		drafts:    drafts,
		publisher: publisher,
		now:       now,
		batchSize: SweepBatchSize,
		logger:    defaultLogger(logger),
	}
}

// Run executes one sweep over due scheduled drafts.
func (s *PublishSweepService) Run(ctx context.Context) (PublishSweepSummary, error) {
	if s == nil {
		return PublishSweepSummary{}, fmt.Errorf("PublishSweepService is nil")
	}

	logger := serviceLogger(ctx, s.logger, "PublishSweepService", "Run")

	due, err := s.drafts.ListDueScheduled(ctx, s.now(), s.batchSize)
	if err != nil {
		logger.ErrorContext(ctx, "listing due drafts failed", "error", err)
		return PublishSweepSummary{}, err
	}

	var summary PublishSweepSummary
	for _, draft := range due {
		summary.Processed++
		if _, err := s.publisher.PublishDraft(ctx, draft); err != nil {
			summary.Failed++
			continue
		}
		summary.Published++
	}

	logger.With(
		"processed", summary.Processed,
		"published", summary.Published,
		"failed", summary.Failed,
	).InfoContext(ctx, "publish sweep finished")

	return summary, nil
}
