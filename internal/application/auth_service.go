package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/example/postpilot/internal/persistence"
)

// PasswordVerifier compares a stored hash with a candidate password.
type PasswordVerifier func(hashedPassword, password string) error

// PasswordHasher derives a storable hash from a plaintext password.
type PasswordHasher func(password string) (string, error)

// AuthService coordinates registration, login, and session validation.
type AuthService struct {
	users          persistence.UserRepository
	sessions       persistence.SessionRepository
	verifyPassword PasswordVerifier
	hashPassword   PasswordHasher
	idGenerator    func() string
	tokenGenerator func() string
	now            func() time.Time
	sessionTTL     time.Duration
	logger         *slog.Logger
}

// NewAuthService constructs an AuthService with the provided dependencies.
func NewAuthService(users persistence.UserRepository, sessions persistence.SessionRepository, idGenerator, tokenGenerator func() string, now func() time.Time, sessionTTL time.Duration, logger *slog.Logger) *AuthService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if tokenGenerator == nil {
		tokenGenerator = idGenerator
	}
	if now == nil {
		now = time.Now
	}
	if sessionTTL <= 0 {
		sessionTTL = 24 * time.Hour
	}
	return &AuthService{
		users:          users,
		sessions:       sessions,
		verifyPassword: VerifyPassword,
		hashPassword:   HashPassword,
		idGenerator:    idGenerator,
		tokenGenerator: tokenGenerator,
		now:            now,
		sessionTTL:     sessionTTL,
		logger:         defaultLogger(logger),
	}
}

func (s *AuthService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AuthService", operation, attrs...)
}

// Register creates a new account.
func (s *AuthService) Register(ctx context.Context, params RegisterParams) (user persistence.User, err error) {
	if s == nil {
		return persistence.User{}, fmt.Errorf("AuthService is nil")
	}

	email := strings.TrimSpace(strings.ToLower(params.Email))
	logger := s.loggerWith(ctx, "Register", "email", email)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "registration failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("user_id", user.ID).InfoContext(ctx, "user registered")
	}()

	vErr := &ValidationError{}
	if email == "" {
		vErr.add("email", "email is required")
	} else if _, mailErr := mail.ParseAddress(email); mailErr != nil {
		vErr.add("email", "email is invalid")
	}
	if len(params.Password) < 8 {
		vErr.add("password", "password must be at least 8 characters")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	displayName := strings.TrimSpace(params.DisplayName)
	if displayName == "" {
		displayName = email
	}

	hash, err := s.hashPassword(params.Password)
	if err != nil {
		return persistence.User{}, fmt.Errorf("hash password: %w", err)
	}

	user = persistence.User{
		ID:           s.idGenerator(),
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: hash,
	}

	if err = s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, persistence.ErrDuplicate) {
			err = ErrAlreadyExists
		}
		return persistence.User{}, err
	}

	user.PasswordHash = ""
	return user, nil
}

// Authenticate validates credentials and issues a new session token.
func (s *AuthService) Authenticate(ctx context.Context, params AuthenticateParams) (result AuthenticateResult, err error) {
	if s == nil {
		return AuthenticateResult{}, fmt.Errorf("AuthService is nil")
	}

	email := strings.TrimSpace(strings.ToLower(params.Email))
	logger := s.loggerWith(ctx, "Authenticate", "email", email)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "authentication failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With(
			"user_id", result.User.ID,
			"session_id", result.Session.ID,
		).InfoContext(ctx, "authentication succeeded")
	}()

	if email == "" || params.Password == "" {
		err = ErrInvalidCredentials
		return
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			err = ErrInvalidCredentials
		}
		return
	}

	if err = s.verifyPassword(user.PasswordHash, params.Password); err != nil {
		err = ErrInvalidCredentials
		return
	}

	now := s.now()
	session := persistence.Session{
		ID:        s.idGenerator(),
		UserID:    user.ID,
		Token:     s.tokenGenerator(),
		ExpiresAt: now.Add(s.sessionTTL),
	}

	if err = s.sessions.DeleteExpiredSessions(ctx, now); err != nil {
		return
	}

	session, err = s.sessions.CreateSession(ctx, session)
	if err != nil {
		return
	}

	user.PasswordHash = ""
	result = AuthenticateResult{User: user, Session: session}
	return
}

// ValidateSession verifies that the provided token corresponds to an
// active session and returns its principal.
func (s *AuthService) ValidateSession(ctx context.Context, token string) (Principal, error) {
	if s == nil {
		return Principal{}, fmt.Errorf("AuthService is nil")
	}

	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return Principal{}, ErrUnauthorized
	}

	session, err := s.sessions.GetSession(ctx, trimmed)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return Principal{}, ErrUnauthorized
		}
		return Principal{}, err
	}

	now := s.now()
	if session.RevokedAt != nil && !session.RevokedAt.IsZero() {
		return Principal{}, ErrSessionRevoked
	}
	if !session.ExpiresAt.IsZero() && !session.ExpiresAt.After(now) {
		return Principal{}, ErrSessionExpired
	}

	return Principal{UserID: session.UserID}, nil
}

// RevokeSession invalidates an existing session token.
func (s *AuthService) RevokeSession(ctx context.Context, token string) error {
	if s == nil {
		return fmt.Errorf("AuthService is nil")
	}

	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return ErrUnauthorized
	}

	logger := s.loggerWith(ctx, "RevokeSession")

	if err := s.sessions.RevokeSession(ctx, trimmed, s.now()); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return ErrUnauthorized
		}
		logger.ErrorContext(ctx, "failed to revoke session", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	if err := s.sessions.DeleteExpiredSessions(ctx, s.now()); err != nil {
		logger.ErrorContext(ctx, "failed to prune expired sessions", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	logger.InfoContext(ctx, "session revoked")
	return nil
}
