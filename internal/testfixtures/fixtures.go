package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/postpilot/internal/persistence"
)

var (
	userCounter       uint64
	draftCounter      uint64
	connectionCounter uint64
	sessionCounter    uint64
)

var referenceTime = time.Date(2026, time.January, 2, 15, 4, 5, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ----------------------------- User fixtures -----------------------------

// UserOption configures the generated user fixture.
type UserOption func(*persistence.User)

// NewUser returns a deterministic user record with optional overrides.
func NewUser(opts ...UserOption) persistence.User {
	idx := atomic.AddUint64(&userCounter, 1)
	id := fmt.Sprintf("user-%03d", idx)
	user := persistence.User{
		ID:           id,
		Email:        fmt.Sprintf("%s@example.com", id),
		DisplayName:  fmt.Sprintf("User %03d", idx),
		PasswordHash: fmt.Sprintf("hash-%03d", idx),
	}
	for _, opt := range opts {
		opt(&user)
	}
	return user
}

// WithUserID overrides the generated user ID.
func WithUserID(id string) UserOption {
	return func(u *persistence.User) {
		u.ID = id
	}
}

// WithUserEmail overrides the generated email address.
func WithUserEmail(email string) UserOption {
	return func(u *persistence.User) {
		u.Email = email
	}
}

// ---------------------------- Session fixtures ----------------------------

// SessionOption configures the generated session fixture.
type SessionOption func(*persistence.Session)

// NewSession returns a deterministic session for the given user. Sessions
// expire one hour after the reference time unless overridden.
func NewSession(userID string, opts ...SessionOption) persistence.Session {
	idx := atomic.AddUint64(&sessionCounter, 1)
	session := persistence.Session{
		ID:        fmt.Sprintf("session-%03d", idx),
		UserID:    userID,
		Token:     fmt.Sprintf("token-%03d", idx),
		ExpiresAt: referenceTime.Add(time.Hour),
	}
	for _, opt := range opts {
		opt(&session)
	}
	return session
}

// WithSessionExpiry overrides the session expiry.
func WithSessionExpiry(expiresAt time.Time) SessionOption {
	return func(s *persistence.Session) {
		s.ExpiresAt = expiresAt
	}
}

// WithSessionRevoked marks the session revoked at the given time.
func WithSessionRevoked(revokedAt time.Time) SessionOption {
	return func(s *persistence.Session) {
		s.RevokedAt = &revokedAt
	}
}

// --------------------------- Connection fixtures ---------------------------

// ConnectionOption configures the generated connection fixture.
type ConnectionOption func(*persistence.LinkedInConnection)

// NewConnection returns a deterministic LinkedIn connection for the given
// user. The token expires one hour after the reference time unless
// overridden.
func NewConnection(userID string, opts ...ConnectionOption) persistence.LinkedInConnection {
	idx := atomic.AddUint64(&connectionCounter, 1)
	conn := persistence.LinkedInConnection{
		UserID:      userID,
		MemberID:    fmt.Sprintf("member-%03d", idx),
		AccessToken: fmt.Sprintf("access-token-%03d", idx),
		ExpiresAt:   referenceTime.Add(time.Hour),
		MemberName:  fmt.Sprintf("Member %03d", idx),
		MemberEmail: fmt.Sprintf("member-%03d@example.com", idx),
	}
	for _, opt := range opts {
		opt(&conn)
	}
	return conn
}

// WithConnectionExpiry overrides the stored token expiry.
func WithConnectionExpiry(expiresAt time.Time) ConnectionOption {
	return func(c *persistence.LinkedInConnection) {
		c.ExpiresAt = expiresAt
	}
}

// WithRefreshToken sets the optional refresh token.
func WithRefreshToken(token string) ConnectionOption {
	return func(c *persistence.LinkedInConnection) {
		c.RefreshToken = &token
	}
}

// ----------------------------- Draft fixtures -----------------------------

// DraftOption configures the generated draft fixture.
type DraftOption func(*persistence.Draft)

// NewDraft returns a deterministic unscheduled draft for the given user.
func NewDraft(userID string, opts ...DraftOption) persistence.Draft {
	idx := atomic.AddUint64(&draftCounter, 1)
	draft := persistence.Draft{
		ID:      fmt.Sprintf("draft-%03d", idx),
		UserID:  userID,
		Content: fmt.Sprintf("draft content %03d", idx),
		Status:  persistence.DraftStatusDraft,
	}
	for _, opt := range opts {
		opt(&draft)
	}
	return draft
}

// WithDraftContent overrides the generated content.
func WithDraftContent(content string) DraftOption {
	return func(d *persistence.Draft) {
		d.Content = content
	}
}

// Scheduled marks the draft scheduled for the given time.
func Scheduled(at time.Time) DraftOption {
	return func(d *persistence.Draft) {
		d.Status = persistence.DraftStatusScheduled
		d.ScheduledAt = &at
	}
}

// Published marks the draft published with the given post id.
func Published(postID string, at time.Time) DraftOption {
	return func(d *persistence.Draft) {
		d.Status = persistence.DraftStatusPublished
		d.LinkedInPostID = &postID
		d.PublishedAt = &at
	}
}

// WithTrend attaches trend metadata to the draft.
func WithTrend(tag, title string) DraftOption {
	return func(d *persistence.Draft) {
		d.TrendTag = &tag
		d.TrendTitle = &title
	}
}
