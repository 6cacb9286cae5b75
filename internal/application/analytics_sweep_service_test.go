package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/postpilot/internal/linkedin"
	"github.com/example/postpilot/internal/persistence"
)

func TestAnalyticsSweepService_Run(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	publishedDraft := func(id string) persistence.Draft {
		postID := "urn:li:share:" + id
		return persistence.Draft{
			ID:             id,
			UserID:         "user-1",
			Status:         persistence.DraftStatusPublished,
			LinkedInPostID: &postID,
		}
	}
	activeConnection := func() persistence.LinkedInConnection {
		return persistence.LinkedInConnection{
			UserID:      "user-1",
			AccessToken: "token",
			ExpiresAt:   now.Add(time.Hour),
		}
	}

	t.Run("syncs candidates and persists the snapshot", func(t *testing.T) {
		t.Parallel()

		drafts := newDraftRepositoryStub()
		draft := publishedDraft("a")
		drafts.set(draft)
		drafts.candidates = []persistence.Draft{draft}
		connections := newConnectionRepositoryStub()
		connections.set(activeConnection())
		analytics := &analyticsClientStub{result: linkedin.Analytics{
			Impressions:    i64Ptr(100),
			Likes:          i64Ptr(12),
			EngagementRate: func() *float64 { v := 0.12; return &v }(),
		}}
		svc := NewAnalyticsSweepService(drafts, connections, analytics, func() time.Time { return now }, nil)

		summary, err := svc.Run(context.Background())
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		if summary.Processed != 1 || summary.Synced != 1 || summary.Skipped != 0 || summary.Failed != 0 {
			t.Fatalf("unexpected summary %#v", summary)
		}
		snapshot, ok := drafts.snapshots["a"]
		if !ok {
			t.Fatalf("expected snapshot to be persisted")
		}
		if snapshot.Impressions == nil || *snapshot.Impressions != 100 {
			t.Fatalf("unexpected impressions %#v", snapshot.Impressions)
		}
		if !snapshot.SyncedAt.Equal(now) {
			t.Fatalf("expected synced at %v, got %v", now, snapshot.SyncedAt)
		}
	})

	t.Run("skips rows inside the backoff or freshness window without a fetch", func(t *testing.T) {
		t.Parallel()

		backoff := publishedDraft("backoff")
		backoff.AnalyticsBackoffUntil = timePtr(now.Add(30 * time.Minute))
		fresh := publishedDraft("fresh")
		fresh.LastAnalyticsSyncedAt = timePtr(now.Add(-10 * time.Minute))
		noPost := publishedDraft("nopost")
		noPost.LinkedInPostID = nil

		drafts := newDraftRepositoryStub()
		for _, d := range []persistence.Draft{backoff, fresh, noPost} {
			drafts.set(d)
		}
		drafts.candidates = []persistence.Draft{backoff, fresh, noPost}
		connections := newConnectionRepositoryStub()
		connections.set(activeConnection())
		analytics := &analyticsClientStub{}
		svc := NewAnalyticsSweepService(drafts, connections, analytics, func() time.Time { return now }, nil)

		summary, err := svc.Run(context.Background())
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		if summary.Processed != 3 || summary.Skipped != 3 {
			t.Fatalf("unexpected summary %#v", summary)
		}
		if analytics.callCount() != 0 {
			t.Fatalf("expected no provider calls, got %d", analytics.callCount())
		}
	})

	t.Run("a stale sync outside the freshness window is refetched", func(t *testing.T) {
		t.Parallel()

		stale := publishedDraft("stale")
		stale.LastAnalyticsSyncedAt = timePtr(now.Add(-2 * time.Hour))
		drafts := newDraftRepositoryStub()
		drafts.set(stale)
		drafts.candidates = []persistence.Draft{stale}
		connections := newConnectionRepositoryStub()
		connections.set(activeConnection())
		analytics := &analyticsClientStub{}
		svc := NewAnalyticsSweepService(drafts, connections, analytics, func() time.Time { return now }, nil)

		summary, err := svc.Run(context.Background())
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		if summary.Synced != 1 {
			t.Fatalf("unexpected summary %#v", summary)
		}
		if analytics.callCount() != 1 {
			t.Fatalf("expected one provider call, got %d", analytics.callCount())
		}
	})

	t.Run("a missing connection records a failure with a backoff window", func(t *testing.T) {
		t.Parallel()

		draft := publishedDraft("a")
		drafts := newDraftRepositoryStub()
		drafts.set(draft)
		drafts.candidates = []persistence.Draft{draft}
		analytics := &analyticsClientStub{}
		svc := NewAnalyticsSweepService(drafts, newConnectionRepositoryStub(), analytics, func() time.Time { return now }, nil)

		summary, err := svc.Run(context.Background())
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		if summary.Failed != 1 {
			t.Fatalf("unexpected summary %#v", summary)
		}
		if analytics.callCount() != 0 {
			t.Fatalf("expected no provider calls, got %d", analytics.callCount())
		}
		until := drafts.backoffs["a"]
		if until == nil || !until.Equal(now.Add(6*time.Hour)) {
			t.Fatalf("expected six hour backoff, got %#v", until)
		}
	})

	t.Run("rate limiting stores the provider backoff", func(t *testing.T) {
		t.Parallel()

		draft := publishedDraft("a")
		drafts := newDraftRepositoryStub()
		drafts.set(draft)
		drafts.candidates = []persistence.Draft{draft}
		connections := newConnectionRepositoryStub()
		connections.set(activeConnection())
		retryAt := now.Add(time.Hour)
		analytics := &analyticsClientStub{err: &linkedin.ProviderError{StatusCode: 429, Message: "rate limited", BackoffUntil: &retryAt}}
		svc := NewAnalyticsSweepService(drafts, connections, analytics, func() time.Time { return now }, nil)

		summary, err := svc.Run(context.Background())
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		if summary.Failed != 1 {
			t.Fatalf("unexpected summary %#v", summary)
		}
		if got := drafts.analyticsErrors["a"]; got != "rate limited" {
			t.Fatalf("unexpected recorded error %q", got)
		}
		until := drafts.backoffs["a"]
		if until == nil || !until.Equal(retryAt) {
			t.Fatalf("expected provider backoff %v, got %#v", retryAt, until)
		}
	})

	t.Run("a revoked token deletes the connection", func(t *testing.T) {
		t.Parallel()

		draft := publishedDraft("a")
		drafts := newDraftRepositoryStub()
		drafts.set(draft)
		drafts.candidates = []persistence.Draft{draft}
		connections := newConnectionRepositoryStub()
		connections.set(activeConnection())
		analytics := &analyticsClientStub{err: &linkedin.ProviderError{StatusCode: 401, Message: "revoked", Revoked: true}}
		svc := NewAnalyticsSweepService(drafts, connections, analytics, func() time.Time { return now }, nil)

		if _, err := svc.Run(context.Background()); err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		if len(connections.deleted) != 1 || connections.deleted[0] != "user-1" {
			t.Fatalf("expected connection deletion, got %#v", connections.deleted)
		}
		if got := drafts.analyticsErrors["a"]; got != "LinkedIn access was revoked, please reconnect" {
			t.Fatalf("unexpected recorded error %q", got)
		}
	})

	t.Run("propagates listing failures", func(t *testing.T) {
		t.Parallel()

		expected := errors.New("db down")
		drafts := newDraftRepositoryStub()
		drafts.listErr = expected
		svc := NewAnalyticsSweepService(drafts, newConnectionRepositoryStub(), &analyticsClientStub{}, func() time.Time { return now }, nil)

		if _, err := svc.Run(context.Background()); !errors.Is(err, expected) {
			t.Fatalf("expected %v, got %v", expected, err)
		}
	})
}
