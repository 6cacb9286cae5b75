package persistence

import "time"

// Draft status values. A draft never leaves this set; publish failures
// keep the draft in its current status and record an error instead.
const (
	DraftStatusDraft     = "draft"
	DraftStatusScheduled = "scheduled"
	DraftStatusPublished = "published"
)

// User represents an account that owns drafts and a LinkedIn connection.
type User struct {
	ID           string
	Email        string
	DisplayName  string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Session represents an authentication session persisted for a user.
type Session struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	RevokedAt *time.Time
}

// LinkedInConnection stores the OAuth tokens and profile snapshot for a
// user's LinkedIn account. At most one row exists per user.
type LinkedInConnection struct {
	UserID        string
	MemberID      string
	AccessToken   string
	RefreshToken  *string
	ExpiresAt     time.Time
	MemberName    string
	MemberEmail   string
	MemberPicture string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Draft represents one post through its whole lifecycle: authored text,
// optional schedule, publish outcome, and the latest analytics snapshot.
type Draft struct {
	ID          string
	UserID      string
	Content     string
	Tone        string
	ImageURL    *string
	ScheduledAt *time.Time
	Status      string
	TrendTag    *string
	TrendTitle  *string

	LinkedInPostID *string
	PublishedAt    *time.Time
	LinkedInError  *string

	Impressions           *int64
	Clicks                *int64
	Likes                 *int64
	Comments              *int64
	Shares                *int64
	Engagement            *int64
	EngagementRate        *float64
	AnalyticsError        *string
	LastAnalyticsSyncedAt *time.Time
	AnalyticsBackoffUntil *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// AnalyticsSnapshot carries the metric fields written after a successful
// analytics fetch. Nil counters are left untouched in storage so a
// partial provider response never erases previously known values.
type AnalyticsSnapshot struct {
	Impressions    *int64
	Clicks         *int64
	Likes          *int64
	Comments       *int64
	Shares         *int64
	Engagement     *int64
	EngagementRate *float64
	SyncedAt       time.Time
}
