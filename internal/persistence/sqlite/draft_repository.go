package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/example/postpilot/internal/persistence"
)

const draftColumns = `id, user_id, content, tone, image_url, scheduled_at, status,
	trend_tag, trend_title, linkedin_post_id, published_at, linkedin_error,
	analytics_impressions, analytics_clicks, analytics_likes, analytics_comments,
	analytics_shares, analytics_engagement, analytics_engagement_rate,
	analytics_error, last_analytics_synced_at, analytics_backoff_until,
	created_at, updated_at`

// DraftRepository implements persistence.DraftRepository using SQLite.
type DraftRepository struct {
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewDraftRepository creates a new SQLite draft repository.
func NewDraftRepository(pool *ConnectionPool) *DraftRepository {
	return &DraftRepository{
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// CreateDraft inserts a new draft.
func (r *DraftRepository) CreateDraft(ctx context.Context, draft persistence.Draft) error {
	if draft.ID == "" || draft.UserID == "" {
		return persistence.ErrConstraintViolation
	}
	if draft.Status == "" {
		draft.Status = persistence.DraftStatusDraft
	}

	now := time.Now().UTC()
	draft.CreatedAt = now
	draft.UpdatedAt = now

	query := `
		INSERT INTO drafts (` + draftColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.helper.Exec(ctx, query,
		draft.ID,
		draft.UserID,
		draft.Content,
		draft.Tone,
		nullString(draft.ImageURL),
		formatTimePtr(draft.ScheduledAt),
		draft.Status,
		nullString(draft.TrendTag),
		nullString(draft.TrendTitle),
		nullString(draft.LinkedInPostID),
		formatTimePtr(draft.PublishedAt),
		nullString(draft.LinkedInError),
		nullInt64(draft.Impressions),
		nullInt64(draft.Clicks),
		nullInt64(draft.Likes),
		nullInt64(draft.Comments),
		nullInt64(draft.Shares),
		nullInt64(draft.Engagement),
		nullFloat64(draft.EngagementRate),
		nullString(draft.AnalyticsError),
		formatTimePtr(draft.LastAnalyticsSyncedAt),
		formatTimePtr(draft.AnalyticsBackoffUntil),
		formatTime(draft.CreatedAt),
		formatTime(draft.UpdatedAt),
	)
	if err != nil {
		return r.mapper.MapError(err)
	}

	return nil
}

// GetDraft retrieves a draft scoped to its owner.
func (r *DraftRepository) GetDraft(ctx context.Context, id, userID string) (persistence.Draft, error) {
	if id == "" || userID == "" {
		return persistence.Draft{}, persistence.ErrNotFound
	}

	row := r.helper.QueryRow(ctx,
		`SELECT `+draftColumns+` FROM drafts WHERE id = ? AND user_id = ?`,
		id, userID,
	)
	draft, err := scanDraft(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return persistence.Draft{}, persistence.ErrNotFound
		}
		return persistence.Draft{}, r.mapper.MapError(err)
	}
	return draft, nil
}

// ListDrafts returns a user's drafts, newest first, optionally filtered
// by status.
func (r *DraftRepository) ListDrafts(ctx context.Context, userID string, filter persistence.DraftFilter) ([]persistence.Draft, error) {
	query := `SELECT ` + draftColumns + ` FROM drafts WHERE user_id = ?`
	args := []any{userID}

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, filter.Status)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	return r.queryDrafts(ctx, query, args...)
}

// UpdateDraft applies a partial update scoped to the draft's owner and
// returns the updated row. Only the provided fields touch the database.
func (r *DraftRepository) UpdateDraft(ctx context.Context, id, userID string, patch persistence.DraftPatch) (persistence.Draft, error) {
	if id == "" || userID == "" {
		return persistence.Draft{}, persistence.ErrNotFound
	}

	set := make([]string, 0, 8)
	args := make([]any, 0, 8)

	if patch.Content != nil {
		set = append(set, "content = ?")
		args = append(args, *patch.Content)
	}
	if patch.Tone != nil {
		set = append(set, "tone = ?")
		args = append(args, *patch.Tone)
	}
	if patch.Status != nil {
		set = append(set, "status = ?")
		args = append(args, *patch.Status)
	}
	switch {
	case patch.ClearImageURL:
		set = append(set, "image_url = NULL")
	case patch.ImageURL != nil:
		set = append(set, "image_url = ?")
		args = append(args, *patch.ImageURL)
	}
	switch {
	case patch.ClearSchedule:
		set = append(set, "scheduled_at = NULL")
	case patch.ScheduledAt != nil:
		set = append(set, "scheduled_at = ?")
		args = append(args, formatTime(*patch.ScheduledAt))
	}
	if patch.TrendTag != nil {
		set = append(set, "trend_tag = ?")
		args = append(args, *patch.TrendTag)
	}
	if patch.TrendTitle != nil {
		set = append(set, "trend_title = ?")
		args = append(args, *patch.TrendTitle)
	}

	if len(set) == 0 {
		return r.GetDraft(ctx, id, userID)
	}

	set = append(set, "updated_at = ?")
	args = append(args, formatTime(time.Now()))
	args = append(args, id, userID)

	query := `UPDATE drafts SET ` + strings.Join(set, ", ") + ` WHERE id = ? AND user_id = ?`

	result, err := r.helper.Exec(ctx, query, args...)
	if err != nil {
		return persistence.Draft{}, r.mapper.MapError(err)
	}
	if err := requireRows(result); err != nil {
		return persistence.Draft{}, err
	}

	return r.GetDraft(ctx, id, userID)
}

// DeleteDraft removes a draft scoped to its owner.
func (r *DraftRepository) DeleteDraft(ctx context.Context, id, userID string) error {
	if id == "" || userID == "" {
		return persistence.ErrNotFound
	}

	result, err := r.helper.Exec(ctx, `DELETE FROM drafts WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return requireRows(result)
}

// ListDueScheduled returns scheduled drafts whose schedule has elapsed,
// oldest schedule first.
func (r *DraftRepository) ListDueScheduled(ctx context.Context, now time.Time, limit int) ([]persistence.Draft, error) {
	query := `
		SELECT ` + draftColumns + `
		FROM drafts
		WHERE status = ? AND scheduled_at IS NOT NULL AND scheduled_at <= ?
		ORDER BY scheduled_at ASC
		LIMIT ?
	`
	return r.queryDrafts(ctx, query, persistence.DraftStatusScheduled, formatTime(now), limit)
}

// ListAnalyticsCandidates returns published drafts carrying a post id,
// least-recently-synced first. SQLite sorts NULLs first under ASC, so
// never-synced drafts lead the batch.
func (r *DraftRepository) ListAnalyticsCandidates(ctx context.Context, limit int) ([]persistence.Draft, error) {
	query := `
		SELECT ` + draftColumns + `
		FROM drafts
		WHERE status = ? AND linkedin_post_id IS NOT NULL
		ORDER BY last_analytics_synced_at ASC
		LIMIT ?
	`
	return r.queryDrafts(ctx, query, persistence.DraftStatusPublished, limit)
}

// MarkPublished transitions a draft to published. The status condition
// makes the transition single-shot: a concurrent sweep or an edit that
// already moved the row loses with ErrNotFound.
func (r *DraftRepository) MarkPublished(ctx context.Context, id, postID string, publishedAt time.Time) error {
	if id == "" || postID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		UPDATE drafts
		SET status = ?, linkedin_post_id = ?, published_at = ?, linkedin_error = NULL, updated_at = ?
		WHERE id = ? AND status IN (?, ?)
	`

	result, err := r.helper.Exec(ctx, query,
		persistence.DraftStatusPublished,
		postID,
		formatTime(publishedAt),
		formatTime(publishedAt),
		id,
		persistence.DraftStatusDraft,
		persistence.DraftStatusScheduled,
	)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return requireRows(result)
}

// RecordPublishError stores a publish failure message on the draft
// without changing its status, so the next sweep retries it.
func (r *DraftRepository) RecordPublishError(ctx context.Context, id, message string) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	result, err := r.helper.Exec(ctx,
		`UPDATE drafts SET linkedin_error = ?, updated_at = ? WHERE id = ?`,
		message, formatTime(time.Now()), id,
	)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return requireRows(result)
}

// UpdateAnalytics writes a metrics snapshot. Only non-nil counters touch
// their columns; the sync timestamp is always advanced and any prior
// analytics error or backoff is cleared.
func (r *DraftRepository) UpdateAnalytics(ctx context.Context, id string, snapshot persistence.AnalyticsSnapshot) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	set := []string{
		"analytics_error = NULL",
		"analytics_backoff_until = NULL",
		"last_analytics_synced_at = ?",
		"updated_at = ?",
	}
	stamp := formatTime(snapshot.SyncedAt)
	args := []any{stamp, stamp}

	appendMetric := func(column string, value *int64) {
		if value != nil {
			set = append(set, column+" = ?")
			args = append(args, *value)
		}
	}
	appendMetric("analytics_impressions", snapshot.Impressions)
	appendMetric("analytics_clicks", snapshot.Clicks)
	appendMetric("analytics_likes", snapshot.Likes)
	appendMetric("analytics_comments", snapshot.Comments)
	appendMetric("analytics_shares", snapshot.Shares)
	appendMetric("analytics_engagement", snapshot.Engagement)
	if snapshot.EngagementRate != nil {
		set = append(set, "analytics_engagement_rate = ?")
		args = append(args, *snapshot.EngagementRate)
	}

	args = append(args, id)
	query := `UPDATE drafts SET ` + strings.Join(set, ", ") + ` WHERE id = ?`

	result, err := r.helper.Exec(ctx, query, args...)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return requireRows(result)
}

// RecordAnalyticsError stores an analytics failure and an optional
// backoff window suppressing further fetches for the draft.
func (r *DraftRepository) RecordAnalyticsError(ctx context.Context, id, message string, backoffUntil *time.Time) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	result, err := r.helper.Exec(ctx,
		`UPDATE drafts SET analytics_error = ?, analytics_backoff_until = ?, updated_at = ? WHERE id = ?`,
		message, formatTimePtr(backoffUntil), formatTime(time.Now()), id,
	)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return requireRows(result)
}

func (r *DraftRepository) queryDrafts(ctx context.Context, query string, args ...any) ([]persistence.Draft, error) {
	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var drafts []persistence.Draft
	for rows.Next() {
		draft, err := scanDraft(rows)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		drafts = append(drafts, draft)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	return drafts, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDraft(row rowScanner) (persistence.Draft, error) {
	var draft persistence.Draft
	var imageURL, trendTag, trendTitle, postID, linkedinError, analyticsError sql.NullString
	var scheduledAt, publishedAt, syncedAt, backoffUntil sql.NullString
	var impressions, clicks, likes, comments, shares, engagement sql.NullInt64
	var engagementRate sql.NullFloat64
	var createdAtStr, updatedAtStr string

	err := row.Scan(
		&draft.ID,
		&draft.UserID,
		&draft.Content,
		&draft.Tone,
		&imageURL,
		&scheduledAt,
		&draft.Status,
		&trendTag,
		&trendTitle,
		&postID,
		&publishedAt,
		&linkedinError,
		&impressions,
		&clicks,
		&likes,
		&comments,
		&shares,
		&engagement,
		&engagementRate,
		&analyticsError,
		&syncedAt,
		&backoffUntil,
		&createdAtStr,
		&updatedAtStr,
	)
	if err != nil {
		return persistence.Draft{}, err
	}

	draft.ImageURL = stringPtr(imageURL)
	draft.TrendTag = stringPtr(trendTag)
	draft.TrendTitle = stringPtr(trendTitle)
	draft.LinkedInPostID = stringPtr(postID)
	draft.LinkedInError = stringPtr(linkedinError)
	draft.AnalyticsError = stringPtr(analyticsError)
	draft.Impressions = int64Ptr(impressions)
	draft.Clicks = int64Ptr(clicks)
	draft.Likes = int64Ptr(likes)
	draft.Comments = int64Ptr(comments)
	draft.Shares = int64Ptr(shares)
	draft.Engagement = int64Ptr(engagement)
	if engagementRate.Valid {
		draft.EngagementRate = &engagementRate.Float64
	}

	if draft.ScheduledAt, err = parseTimePtr(scheduledAt); err != nil {
		return persistence.Draft{}, fmt.Errorf("sqlite: parse scheduled_at: %w", err)
	}
	if draft.PublishedAt, err = parseTimePtr(publishedAt); err != nil {
		return persistence.Draft{}, fmt.Errorf("sqlite: parse published_at: %w", err)
	}
	if draft.LastAnalyticsSyncedAt, err = parseTimePtr(syncedAt); err != nil {
		return persistence.Draft{}, fmt.Errorf("sqlite: parse last_analytics_synced_at: %w", err)
	}
	if draft.AnalyticsBackoffUntil, err = parseTimePtr(backoffUntil); err != nil {
		return persistence.Draft{}, fmt.Errorf("sqlite: parse analytics_backoff_until: %w", err)
	}
	if draft.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr); err != nil {
		return persistence.Draft{}, fmt.Errorf("sqlite: parse created_at: %w", err)
	}
	if draft.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr); err != nil {
		return persistence.Draft{}, fmt.Errorf("sqlite: parse updated_at: %w", err)
	}

	return draft, nil
}

func requireRows(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

func nullString(value *string) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *value, Valid: true}
}

func nullInt64(value *int64) sql.NullInt64 {
	if value == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *value, Valid: true}
}

func nullFloat64(value *float64) sql.NullFloat64 {
	if value == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *value, Valid: true}
}

func stringPtr(value sql.NullString) *string {
	if !value.Valid {
		return nil
	}
	return &value.String
}

func int64Ptr(value sql.NullInt64) *int64 {
	if !value.Valid {
		return nil
	}
	return &value.Int64
}
