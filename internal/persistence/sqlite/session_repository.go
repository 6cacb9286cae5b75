package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/example/postpilot/internal/persistence"
)

// SessionRepository implements persistence.SessionRepository using SQLite.
type SessionRepository struct {
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewSessionRepository creates a new SQLite session repository.
func NewSessionRepository(pool *ConnectionPool) *SessionRepository {
	return &SessionRepository{
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// CreateSession stores a new session token for a user.
func (r *SessionRepository) CreateSession(ctx context.Context, session persistence.Session) (persistence.Session, error) {
	session.Token = strings.TrimSpace(session.Token)
	if session.ID == "" || session.UserID == "" || session.Token == "" {
		return persistence.Session{}, persistence.ErrConstraintViolation
	}

	now := time.Now().UTC()
	session.CreatedAt = now
	session.UpdatedAt = now
	session.ExpiresAt = session.ExpiresAt.UTC()

	query := `
		INSERT INTO sessions (id, user_id, token, expires_at, created_at, updated_at, revoked_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.helper.Exec(ctx, query,
		session.ID,
		session.UserID,
		session.Token,
		formatTime(session.ExpiresAt),
		formatTime(session.CreatedAt),
		formatTime(session.UpdatedAt),
		formatTimePtr(session.RevokedAt),
	)
	if err != nil {
		return persistence.Session{}, r.mapper.MapError(err)
	}

	return session, nil
}

// GetSession retrieves a session by its token value.
func (r *SessionRepository) GetSession(ctx context.Context, token string) (persistence.Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return persistence.Session{}, persistence.ErrNotFound
	}

	query := `
		SELECT id, user_id, token, expires_at, created_at, updated_at, revoked_at
		FROM sessions
		WHERE token = ?
	`

	var session persistence.Session
	var expiresAtStr, createdAtStr, updatedAtStr string
	var revokedAt sql.NullString

	err := r.helper.QueryRow(ctx, query, token).Scan(
		&session.ID,
		&session.UserID,
		&session.Token,
		&expiresAtStr,
		&createdAtStr,
		&updatedAtStr,
		&revokedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return persistence.Session{}, persistence.ErrNotFound
		}
		return persistence.Session{}, r.mapper.MapError(err)
	}

	if session.ExpiresAt, err = time.Parse(time.RFC3339, expiresAtStr); err != nil {
		return persistence.Session{}, fmt.Errorf("sqlite: parse expires_at: %w", err)
	}
	if session.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr); err != nil {
		return persistence.Session{}, fmt.Errorf("sqlite: parse created_at: %w", err)
	}
	if session.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr); err != nil {
		return persistence.Session{}, fmt.Errorf("sqlite: parse updated_at: %w", err)
	}
	if session.RevokedAt, err = parseTimePtr(revokedAt); err != nil {
		return persistence.Session{}, fmt.Errorf("sqlite: parse revoked_at: %w", err)
	}

	return session, nil
}

// RevokeSession marks a session as revoked based on its token value.
func (r *SessionRepository) RevokeSession(ctx context.Context, token string, revokedAt time.Time) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return persistence.ErrNotFound
	}

	stamp := formatTime(revokedAt)
	result, err := r.helper.Exec(ctx,
		`UPDATE sessions SET revoked_at = ?, updated_at = ? WHERE token = ?`,
		stamp, stamp, token,
	)
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

// DeleteExpiredSessions removes sessions that expired on or before the
// provided timestamp.
func (r *SessionRepository) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	_, err := r.helper.Exec(ctx,
		`DELETE FROM sessions WHERE expires_at <= ?`,
		formatTime(reference),
	)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return nil
}
