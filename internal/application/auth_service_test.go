package application

import (
	"context"
	"errors"
	"testing"
	"time"
)

func plainTextPasswords(svc *AuthService) {
	svc.hashPassword = func(password string) (string, error) { return password, nil }
	svc.verifyPassword = func(hash, password string) error {
		if hash != password {
			return errors.New("mismatch")
		}
		return nil
	}
}

func TestAuthService_Register(t *testing.T) {
	t.Parallel()

	t.Run("creates an account with a normalized email", func(t *testing.T) {
		t.Parallel()

		users := newUserRepositoryStub()
		svc := NewAuthService(users, newSessionRepositoryStub(), func() string { return "user-1" }, nil, time.Now, time.Hour, nil)
		plainTextPasswords(svc)

		user, err := svc.Register(context.Background(), RegisterParams{
			Email:    "  User@Example.COM ",
			Password: "correct horse",
		})
		if err != nil {
			t.Fatalf("Register failed: %v", err)
		}
		if user.Email != "user@example.com" {
			t.Fatalf("expected normalized email, got %q", user.Email)
		}
		if user.DisplayName != "user@example.com" {
			t.Fatalf("expected display name to default to email, got %q", user.DisplayName)
		}
		if user.PasswordHash != "" {
			t.Fatalf("expected password hash to be stripped from the result")
		}
		if stored := users.users["user-1"]; stored.PasswordHash == "" {
			t.Fatalf("expected stored user to keep its hash")
		}
	})

	t.Run("rejects invalid input with field errors", func(t *testing.T) {
		t.Parallel()

		svc := NewAuthService(newUserRepositoryStub(), newSessionRepositoryStub(), nil, nil, time.Now, time.Hour, nil)

		_, err := svc.Register(context.Background(), RegisterParams{Email: "not-an-email", Password: "short"})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if _, ok := vErr.FieldErrors["email"]; !ok {
			t.Fatalf("expected email field error, got %#v", vErr.FieldErrors)
		}
		if _, ok := vErr.FieldErrors["password"]; !ok {
			t.Fatalf("expected password field error, got %#v", vErr.FieldErrors)
		}
	})

	t.Run("maps duplicate emails to ErrAlreadyExists", func(t *testing.T) {
		t.Parallel()

		users := newUserRepositoryStub()
		ids := []string{"user-1", "user-2"}
		svc := NewAuthService(users, newSessionRepositoryStub(), func() string {
			id := ids[0]
			ids = ids[1:]
			return id
		}, nil, time.Now, time.Hour, nil)
		plainTextPasswords(svc)

		if _, err := svc.Register(context.Background(), RegisterParams{Email: "dup@example.com", Password: "password1"}); err != nil {
			t.Fatalf("first Register failed: %v", err)
		}
		_, err := svc.Register(context.Background(), RegisterParams{Email: "DUP@example.com", Password: "password2"})
		if !errors.Is(err, ErrAlreadyExists) {
			t.Fatalf("expected ErrAlreadyExists, got %v", err)
		}
	})
}

func TestAuthService_Authenticate(t *testing.T) {
	t.Parallel()

	t.Run("issues a session for valid credentials", func(t *testing.T) {
		t.Parallel()

		now := time.Now().UTC()
		users := newUserRepositoryStub()
		sessions := newSessionRepositoryStub()
		tokenSeq := []string{"session-id", "session-token"}
		svc := NewAuthService(users, sessions, func() string {
			token := tokenSeq[0]
			tokenSeq = tokenSeq[1:]
			return token
		}, nil, func() time.Time { return now }, time.Hour, nil)
		plainTextPasswords(svc)

		if _, err := svc.Register(context.Background(), RegisterParams{Email: "user@example.com", Password: "secretpw"}); err != nil {
			t.Fatalf("Register failed: %v", err)
		}

		result, err := svc.Authenticate(context.Background(), AuthenticateParams{Email: "User@example.com", Password: "secretpw"})
		if err != nil {
			t.Fatalf("Authenticate failed: %v", err)
		}
		if result.Session.Token != "session-token" {
			t.Fatalf("expected issued token, got %q", result.Session.Token)
		}
		if !result.Session.ExpiresAt.Equal(now.Add(time.Hour)) {
			t.Fatalf("expected expiry one hour out, got %v", result.Session.ExpiresAt)
		}
		if result.User.PasswordHash != "" {
			t.Fatalf("expected password hash to be stripped from the result")
		}
		if len(sessions.deleteCalls) != 1 || !sessions.deleteCalls[0].Equal(now) {
			t.Fatalf("expected DeleteExpiredSessions to be called with now, got %#v", sessions.deleteCalls)
		}
	})

	t.Run("round-trips through argon2id hashing", func(t *testing.T) {
		t.Parallel()

		svc := NewAuthService(newUserRepositoryStub(), newSessionRepositoryStub(), func() string { return "id" }, func() string { return "token" }, time.Now, time.Hour, nil)

		if _, err := svc.Register(context.Background(), RegisterParams{Email: "argon@example.com", Password: "hunter22"}); err != nil {
			t.Fatalf("Register failed: %v", err)
		}
		if _, err := svc.Authenticate(context.Background(), AuthenticateParams{Email: "argon@example.com", Password: "hunter22"}); err != nil {
			t.Fatalf("Authenticate failed: %v", err)
		}
		if _, err := svc.Authenticate(context.Background(), AuthenticateParams{Email: "argon@example.com", Password: "hunter23"}); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials for wrong password, got %v", err)
		}
	})

	t.Run("rejects unknown accounts with the sentinel error", func(t *testing.T) {
		t.Parallel()

		svc := NewAuthService(newUserRepositoryStub(), newSessionRepositoryStub(), nil, nil, time.Now, time.Hour, nil)

		_, err := svc.Authenticate(context.Background(), AuthenticateParams{Email: "ghost@example.com", Password: "whatever1"})
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("propagates session creation failures", func(t *testing.T) {
		t.Parallel()

		expected := errors.New("boom")
		users := newUserRepositoryStub()
		sessions := newSessionRepositoryStub()
		sessions.createErr = expected
		svc := NewAuthService(users, sessions, func() string { return "id" }, nil, time.Now, time.Hour, nil)
		plainTextPasswords(svc)

		if _, err := svc.Register(context.Background(), RegisterParams{Email: "user@example.com", Password: "secretpw"}); err != nil {
			t.Fatalf("Register failed: %v", err)
		}
		_, err := svc.Authenticate(context.Background(), AuthenticateParams{Email: "user@example.com", Password: "secretpw"})
		if !errors.Is(err, expected) {
			t.Fatalf("expected error %v, got %v", expected, err)
		}
	})
}

func TestAuthService_ValidateSession(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	newService := func(sessions *sessionRepositoryStub) *AuthService {
		return NewAuthService(newUserRepositoryStub(), sessions, nil, nil, func() time.Time { return now }, time.Hour, nil)
	}

	t.Run("returns the principal for an active session", func(t *testing.T) {
		t.Parallel()

		sessions := newSessionRepositoryStub()
		if _, err := sessions.CreateSession(context.Background(), sessionFixture("user-1", "tok", now.Add(time.Hour), nil)); err != nil {
			t.Fatalf("seed session: %v", err)
		}

		principal, err := newService(sessions).ValidateSession(context.Background(), "tok")
		if err != nil {
			t.Fatalf("ValidateSession failed: %v", err)
		}
		if principal.UserID != "user-1" {
			t.Fatalf("expected user-1, got %q", principal.UserID)
		}
	})

	t.Run("rejects missing and unknown tokens", func(t *testing.T) {
		t.Parallel()

		svc := newService(newSessionRepositoryStub())
		if _, err := svc.ValidateSession(context.Background(), "  "); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized for blank token, got %v", err)
		}
		if _, err := svc.ValidateSession(context.Background(), "unknown"); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized for unknown token, got %v", err)
		}
	})

	t.Run("distinguishes expired from revoked sessions", func(t *testing.T) {
		t.Parallel()

		sessions := newSessionRepositoryStub()
		revokedAt := now.Add(-time.Minute)
		if _, err := sessions.CreateSession(context.Background(), sessionFixture("user-1", "expired", now.Add(-time.Second), nil)); err != nil {
			t.Fatalf("seed session: %v", err)
		}
		if _, err := sessions.CreateSession(context.Background(), sessionFixture("user-1", "revoked", now.Add(time.Hour), &revokedAt)); err != nil {
			t.Fatalf("seed session: %v", err)
		}

		svc := newService(sessions)
		if _, err := svc.ValidateSession(context.Background(), "expired"); !errors.Is(err, ErrSessionExpired) {
			t.Fatalf("expected ErrSessionExpired, got %v", err)
		}
		if _, err := svc.ValidateSession(context.Background(), "revoked"); !errors.Is(err, ErrSessionRevoked) {
			t.Fatalf("expected ErrSessionRevoked, got %v", err)
		}
	})
}

func TestAuthService_RevokeSession(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	sessions := newSessionRepositoryStub()
	if _, err := sessions.CreateSession(context.Background(), sessionFixture("user-1", "tok", now.Add(time.Hour), nil)); err != nil {
		t.Fatalf("seed session: %v", err)
	}
	svc := NewAuthService(newUserRepositoryStub(), sessions, nil, nil, func() time.Time { return now }, time.Hour, nil)

	if err := svc.RevokeSession(context.Background(), "tok"); err != nil {
		t.Fatalf("RevokeSession failed: %v", err)
	}
	if stored := sessions.sessions["tok"]; stored.RevokedAt == nil || !stored.RevokedAt.Equal(now) {
		t.Fatalf("expected session to be marked revoked at now, got %#v", stored.RevokedAt)
	}
	if len(sessions.deleteCalls) != 1 {
		t.Fatalf("expected expired sessions to be pruned once, got %d calls", len(sessions.deleteCalls))
	}

	if err := svc.RevokeSession(context.Background(), "missing"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for unknown token, got %v", err)
	}
}
