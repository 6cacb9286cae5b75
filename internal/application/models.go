package application

import (
	"time"

	"github.com/example/postpilot/internal/persistence"
)

// Principal represents the authenticated user invoking a service method.
type Principal struct {
	UserID string
}

// RegisterParams captures the data required to create an account.
type RegisterParams struct {
	Email       string
	DisplayName string
	Password    string
}

// AuthenticateParams captures the data required to authenticate a user.
type AuthenticateParams struct {
	Email    string
	Password string
}

// AuthenticateResult captures the outcome of a successful authentication attempt.
type AuthenticateResult struct {
	User    persistence.User
	Session persistence.Session
}

// DraftInput captures caller provided draft fields at creation time.
type DraftInput struct {
	Content     string
	Tone        string
	ImageURL    *string
	ScheduledAt *time.Time
	TrendTag    *string
	TrendTitle  *string
}

// CreateDraftParams wraps the data required to create a draft.
type CreateDraftParams struct {
	Principal Principal
	Input     DraftInput
}

// DraftUpdateInput captures a partial draft edit. Nil fields are left
// untouched; the Clear flags null out their column.
type DraftUpdateInput struct {
	Content       *string
	Tone          *string
	ImageURL      *string
	ClearImageURL bool
	ScheduledAt   *time.Time
	ClearSchedule bool
	TrendTag      *string
	TrendTitle    *string
}

// UpdateDraftParams wraps the data required to update a draft.
type UpdateDraftParams struct {
	Principal Principal
	DraftID   string
	Input     DraftUpdateInput
}

// ListDraftsParams wraps the data required to list a user's drafts.
type ListDraftsParams struct {
	Principal Principal
	Status    string
}

// ConnectionStatus describes the caller's LinkedIn connection, if any.
type ConnectionStatus struct {
	Connected     bool
	MemberID      string
	MemberName    string
	MemberEmail   string
	MemberPicture string
	ExpiresAt     time.Time
	Expired       bool
}

// CompleteConnectParams carries the OAuth callback parameters.
type CompleteConnectParams struct {
	State string
	Code  string
}

// PublishOutcome identifies a post created for a draft.
type PublishOutcome struct {
	PostID      string
	PostURL     string
	PublishedAt time.Time
}

// GenerateParams captures an AI draft-generation request.
type GenerateParams struct {
	Principal Principal
	Prompt    string
	Tone      string
}

// PublishSweepSummary tallies one publish sweep run.
type PublishSweepSummary struct {
	Processed int
	Published int
	Failed    int
}

// AnalyticsSweepSummary tallies one analytics sweep run.
type AnalyticsSweepSummary struct {
	Processed int
	Synced    int
	Skipped   int
	Failed    int
}
