package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/postpilot/internal/persistence"
)

// ConnectionRepository implements persistence.ConnectionRepository using
// SQLite.
type ConnectionRepository struct {
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewConnectionRepository creates a new SQLite connection repository.
func NewConnectionRepository(pool *ConnectionPool) *ConnectionRepository {
	return &ConnectionRepository{
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// UpsertConnection inserts or replaces the connection row for a user.
// The ON CONFLICT clause keeps the write atomic, so a reconnect can
// never produce a second row for the same user.
func (r *ConnectionRepository) UpsertConnection(ctx context.Context, conn persistence.LinkedInConnection) (persistence.LinkedInConnection, error) {
	if conn.UserID == "" || conn.MemberID == "" || conn.AccessToken == "" {
		return persistence.LinkedInConnection{}, persistence.ErrConstraintViolation
	}

	now := time.Now().UTC()
	conn.CreatedAt = now
	conn.UpdatedAt = now
	conn.ExpiresAt = conn.ExpiresAt.UTC()

	query := `
		INSERT INTO linkedin_connections
			(user_id, linkedin_user_id, access_token, refresh_token, expires_at,
			 linkedin_name, linkedin_email, linkedin_picture, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			linkedin_user_id = excluded.linkedin_user_id,
			access_token     = excluded.access_token,
			refresh_token    = excluded.refresh_token,
			expires_at       = excluded.expires_at,
			linkedin_name    = excluded.linkedin_name,
			linkedin_email   = excluded.linkedin_email,
			linkedin_picture = excluded.linkedin_picture,
			updated_at       = excluded.updated_at
	`

	var refreshToken sql.NullString
	if conn.RefreshToken != nil {
		refreshToken = sql.NullString{String: *conn.RefreshToken, Valid: true}
	}

	_, err := r.helper.Exec(ctx, query,
		conn.UserID,
		conn.MemberID,
		conn.AccessToken,
		refreshToken,
		formatTime(conn.ExpiresAt),
		conn.MemberName,
		conn.MemberEmail,
		conn.MemberPicture,
		formatTime(conn.CreatedAt),
		formatTime(conn.UpdatedAt),
	)
	if err != nil {
		return persistence.LinkedInConnection{}, r.mapper.MapError(err)
	}

	return r.GetConnection(ctx, conn.UserID)
}

// GetConnection retrieves the connection row for a user.
func (r *ConnectionRepository) GetConnection(ctx context.Context, userID string) (persistence.LinkedInConnection, error) {
	if userID == "" {
		return persistence.LinkedInConnection{}, persistence.ErrNotFound
	}

	query := `
		SELECT user_id, linkedin_user_id, access_token, refresh_token, expires_at,
		       linkedin_name, linkedin_email, linkedin_picture, created_at, updated_at
		FROM linkedin_connections
		WHERE user_id = ?
	`

	var conn persistence.LinkedInConnection
	var refreshToken sql.NullString
	var expiresAtStr, createdAtStr, updatedAtStr string

	err := r.helper.QueryRow(ctx, query, userID).Scan(
		&conn.UserID,
		&conn.MemberID,
		&conn.AccessToken,
		&refreshToken,
		&expiresAtStr,
		&conn.MemberName,
		&conn.MemberEmail,
		&conn.MemberPicture,
		&createdAtStr,
		&updatedAtStr,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return persistence.LinkedInConnection{}, persistence.ErrNotFound
		}
		return persistence.LinkedInConnection{}, r.mapper.MapError(err)
	}

	if refreshToken.Valid {
		conn.RefreshToken = &refreshToken.String
	}
	if conn.ExpiresAt, err = time.Parse(time.RFC3339, expiresAtStr); err != nil {
		return persistence.LinkedInConnection{}, fmt.Errorf("sqlite: parse expires_at: %w", err)
	}
	if conn.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr); err != nil {
		return persistence.LinkedInConnection{}, fmt.Errorf("sqlite: parse created_at: %w", err)
	}
	if conn.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr); err != nil {
		return persistence.LinkedInConnection{}, fmt.Errorf("sqlite: parse updated_at: %w", err)
	}

	return conn, nil
}

// DeleteConnection removes the connection row for a user.
func (r *ConnectionRepository) DeleteConnection(ctx context.Context, userID string) error {
	if userID == "" {
		return persistence.ErrNotFound
	}

	result, err := r.helper.Exec(ctx, `DELETE FROM linkedin_connections WHERE user_id = ?`, userID)
	if err != nil {
		return r.mapper.MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return persistence.ErrNotFound
	}

	return nil
}
