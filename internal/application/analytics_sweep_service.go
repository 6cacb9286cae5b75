package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/example/postpilot/internal/linkedin"
	"github.com/example/postpilot/internal/persistence"
)

// MinSyncInterval is how fresh a draft's analytics may be before the
// sweep skips it.
const MinSyncInterval = 60 * time.Minute

// connectionFailureBackoff suppresses analytics fetches for drafts whose
// owner has no usable connection.
const connectionFailureBackoff = 6 * time.Hour

// AnalyticsClient fetches social-action counters for a post.
type AnalyticsClient interface {
	FetchAnalytics(ctx context.Context, req linkedin.AnalyticsRequest) (linkedin.Analytics, error)
}

// AnalyticsSweepService refreshes analytics for published drafts in
// batches, least-recently-synced first. Rows are fetched with bounded
// parallelism; each row's outcome is committed independently.
type AnalyticsSweepService struct {
	drafts      persistence.DraftRepository
	connections persistence.ConnectionRepository
	analytics   AnalyticsClient
	now         func() time.Time
	batchSize   int
	concurrency int
	logger      *slog.Logger
}

// NewAnalyticsSweepService wires dependencies for the analytics sweep.
func NewAnalyticsSweepService(drafts persistence.DraftRepository, connections persistence.ConnectionRepository, analytics AnalyticsClient, now func() time.Time, logger *slog.Logger) *AnalyticsSweepService {
	if now == nil {
		now = time.Now
	}
	return &AnalyticsSweepService{
		drafts:      drafts,
		connections: connections,
		analytics:   analytics,
		now:         now,
		batchSize:   SweepBatchSize,
		concurrency: 4,
		logger:      defaultLogger(logger),
	}
}

type sweepOutcome int

const (
	outcomeSkipped sweepOutcome = iota
	outcomeSynced
	outcomeFailed
)

// Run executes one sweep over published drafts.
func (s *AnalyticsSweepService) Run(ctx context.Context) (AnalyticsSweepSummary, error) {
	if s == nil {
		return AnalyticsSweepSummary{}, fmt.Errorf("AnalyticsSweepService is nil")
	}

	logger := serviceLogger(ctx, s.logger, "AnalyticsSweepService", "Run")

	candidates, err := s.drafts.ListAnalyticsCandidates(ctx, s.batchSize)
	if err != nil {
		logger.ErrorContext(ctx, "listing analytics candidates failed", "error", err)
		return AnalyticsSweepSummary{}, err
	}

	var (
		mu      sync.Mutex
		summary AnalyticsSweepSummary
	)
	summary.Processed = len(candidates)

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.concurrency)

	for _, draft := range candidates {
		draft := draft
		group.Go(func() error {
			outcome := s.syncOne(groupCtx, draft)
			mu.Lock()
			switch outcome {
			case outcomeSynced:
				summary.Synced++
			case outcomeSkipped:
				summary.Skipped++
			case outcomeFailed:
				summary.Failed++
			}
			mu.Unlock()
			return nil
		})
	}
	// Workers never return errors; failures are per-row outcomes.
	_ = group.Wait()

	logger.With(
		"processed", summary.Processed,
		"synced", summary.Synced,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
	).InfoContext(ctx, "analytics sweep finished")

	return summary, nil
}

func (s *AnalyticsSweepService) syncOne(ctx context.Context, draft persistence.Draft) sweepOutcome {
	logger := serviceLogger(ctx, s.logger, "AnalyticsSweepService", "syncOne",
		"draft_id", draft.ID,
		"user_id", draft.UserID,
	)

	now := s.now()
	switch {
	case draft.LinkedInPostID == nil || *draft.LinkedInPostID == "":
		return outcomeSkipped
	case draft.AnalyticsBackoffUntil != nil && draft.AnalyticsBackoffUntil.After(now):
		return outcomeSkipped
	case draft.LastAnalyticsSyncedAt != nil && now.Sub(*draft.LastAnalyticsSyncedAt) < MinSyncInterval:
		return outcomeSkipped
	}

	conn, err := s.connections.GetConnection(ctx, draft.UserID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			s.recordFailure(ctx, logger, draft.ID, "LinkedIn account is not connected", now.Add(connectionFailureBackoff))
			return outcomeFailed
		}
		logger.ErrorContext(ctx, "connection lookup failed", "error", err)
		return outcomeFailed
	}
	if !conn.ExpiresAt.After(now) {
		s.recordFailure(ctx, logger, draft.ID, "LinkedIn connection has expired", now.Add(connectionFailureBackoff))
		return outcomeFailed
	}

	metrics, err := s.analytics.FetchAnalytics(ctx, linkedin.AnalyticsRequest{
		AccessToken: conn.AccessToken,
		PostURN:     *draft.LinkedInPostID,
	})
	if err != nil {
		message := "fetching LinkedIn analytics failed"
		var backoffUntil time.Time
		var perr *linkedin.ProviderError
		if errors.As(err, &perr) {
			message = perr.Message
			if perr.BackoffUntil != nil {
				backoffUntil = *perr.BackoffUntil
			}
			if perr.Revoked {
				message = "LinkedIn access was revoked, please reconnect"
				if delErr := s.connections.DeleteConnection(ctx, draft.UserID); delErr != nil && !errors.Is(delErr, persistence.ErrNotFound) {
					logger.ErrorContext(ctx, "failed to delete revoked connection", "error", delErr)
				}
			}
		}
		s.recordFailure(ctx, logger, draft.ID, message, backoffUntil)
		return outcomeFailed
	}

	err = s.drafts.UpdateAnalytics(ctx, draft.ID, persistence.AnalyticsSnapshot{
		Impressions:    metrics.Impressions,
		Clicks:         metrics.Clicks,
		Likes:          metrics.Likes,
		Comments:       metrics.Comments,
		Shares:         metrics.Shares,
		Engagement:     metrics.Engagement,
		EngagementRate: metrics.EngagementRate,
		SyncedAt:       now,
	})
	if err != nil {
		logger.ErrorContext(ctx, "persisting analytics failed", "error", err)
		return outcomeFailed
	}

	return outcomeSynced
}

func (s *AnalyticsSweepService) recordFailure(ctx context.Context, logger *slog.Logger, draftID, message string, backoffUntil time.Time) {
	var until *time.Time
	if !backoffUntil.IsZero() {
		until = &backoffUntil
	}
	if err := s.drafts.RecordAnalyticsError(ctx, draftID, message, until); err != nil && !errors.Is(err, persistence.ErrNotFound) {
		logger.ErrorContext(ctx, "failed to record analytics error", "error", err)
	}
}
