package persistence

import "context"
import "time"

// UserRepository exposes account storage operations.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
}

// SessionRepository stores authentication session state.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) (Session, error)
	GetSession(ctx context.Context, token string) (Session, error)
	RevokeSession(ctx context.Context, token string, revokedAt time.Time) error
	DeleteExpiredSessions(ctx context.Context, reference time.Time) error
}

// ConnectionRepository stores per-user LinkedIn connections. Upsert
// semantics keep the one-row-per-user invariant without a read first.
type ConnectionRepository interface {
	UpsertConnection(ctx context.Context, conn LinkedInConnection) (LinkedInConnection, error)
	GetConnection(ctx context.Context, userID string) (LinkedInConnection, error)
	DeleteConnection(ctx context.Context, userID string) error
}

// DraftFilter narrows draft list queries.
type DraftFilter struct {
	Status string
}

// DraftPatch carries a partial draft update. Nil pointer fields are left
// untouched; the Clear flags set their nullable column to NULL and win
// over the corresponding pointer when both are provided.
type DraftPatch struct {
	Content       *string
	Tone          *string
	Status        *string
	ImageURL      *string
	ClearImageURL bool
	ScheduledAt   *time.Time
	ClearSchedule bool
	TrendTag      *string
	TrendTitle    *string
}

// DraftRepository stores drafts. User-facing reads and writes are scoped
// by (id, user id); the sweep methods operate across users.
type DraftRepository interface {
	CreateDraft(ctx context.Context, draft Draft) error
	GetDraft(ctx context.Context, id, userID string) (Draft, error)
	ListDrafts(ctx context.Context, userID string, filter DraftFilter) ([]Draft, error)
	UpdateDraft(ctx context.Context, id, userID string, patch DraftPatch) (Draft, error)
	DeleteDraft(ctx context.Context, id, userID string) error

	// ListDueScheduled returns scheduled drafts with scheduled_at <= now,
	// oldest schedule first, capped at limit.
	ListDueScheduled(ctx context.Context, now time.Time, limit int) ([]Draft, error)

	// ListAnalyticsCandidates returns published drafts that carry a post
	// id, least-recently-synced first with never-synced rows leading.
	ListAnalyticsCandidates(ctx context.Context, limit int) ([]Draft, error)

	// MarkPublished transitions a scheduled draft to published, recording
	// the post id and clearing any prior publish error. The transition is
	// conditional on the row still being scheduled, so a concurrent edit
	// or duplicate sweep loses cleanly with ErrNotFound.
	MarkPublished(ctx context.Context, id, postID string, publishedAt time.Time) error

	// RecordPublishError stores a user-visible publish failure without
	// changing the draft status.
	RecordPublishError(ctx context.Context, id, message string) error

	// UpdateAnalytics persists a metrics snapshot, clearing any analytics
	// error and backoff window.
	UpdateAnalytics(ctx context.Context, id string, snapshot AnalyticsSnapshot) error

	// RecordAnalyticsError stores an analytics failure and an optional
	// backoff window suppressing further fetches.
	RecordAnalyticsError(ctx context.Context, id, message string, backoffUntil *time.Time) error
}
