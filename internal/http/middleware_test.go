package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/example/postpilot/internal/application"
)

func TestRequireSession(t *testing.T) {
	t.Parallel()

	okHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := PrincipalFromContext(r.Context())
		if !ok {
			t.Fatalf("expected principal in context")
		}
		w.Header().Set("X-User-ID", principal.UserID)
		w.WriteHeader(http.StatusOK)
	})

	t.Run("rejects requests without credentials", func(t *testing.T) {
		t.Parallel()

		handler := RequireSession(&sessionValidatorStub{}, nil)(okHandler)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/protected", nil))

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("rejects expired and revoked sessions", func(t *testing.T) {
		t.Parallel()

		for _, validationErr := range []error{application.ErrSessionExpired, application.ErrSessionRevoked, application.ErrUnauthorized} {
			handler := RequireSession(&sessionValidatorStub{err: validationErr}, nil)(okHandler)
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			req.Header.Set("Authorization", "Bearer stale")
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401 for %v, got %d", validationErr, rec.Code)
			}
		}
	})

	t.Run("accepts bearer headers and session cookies", func(t *testing.T) {
		t.Parallel()

		validator := &sessionValidatorStub{principal: application.Principal{UserID: "user-1"}}
		handler := RequireSession(validator, nil)(okHandler)

		withHeader := httptest.NewRequest(http.MethodGet, "/protected", nil)
		withHeader.Header.Set("Authorization", "Bearer token")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, withHeader)
		if rec.Code != http.StatusOK || rec.Header().Get("X-User-ID") != "user-1" {
			t.Fatalf("expected header auth to pass, got %d", rec.Code)
		}

		withCookie := httptest.NewRequest(http.MethodGet, "/protected", nil)
		withCookie.AddCookie(&http.Cookie{Name: "session_token", Value: "token"})
		rec = httptest.NewRecorder()
		handler.ServeHTTP(rec, withCookie)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected cookie auth to pass, got %d", rec.Code)
		}
	})
}

func TestRequireCronSecret(t *testing.T) {
	t.Parallel()

	okHandler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name           string
		secret         string
		header         string
		expectedStatus int
	}{
		{name: "matching secret passes", secret: "cron-secret", header: "Bearer cron-secret", expectedStatus: http.StatusOK},
		{name: "missing header is rejected", secret: "cron-secret", header: "", expectedStatus: http.StatusUnauthorized},
		{name: "mismatched secret is rejected", secret: "cron-secret", header: "Bearer wrong", expectedStatus: http.StatusUnauthorized},
		{name: "empty configured secret rejects everything", secret: "", header: "Bearer anything", expectedStatus: http.StatusUnauthorized},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			handler := RequireCronSecret(tc.secret, nil)(okHandler)
			req := httptest.NewRequest(http.MethodPost, "/cron/publish", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tc.expectedStatus {
				t.Fatalf("expected %d, got %d", tc.expectedStatus, rec.Code)
			}
		})
	}
}

func TestRequestLogger(t *testing.T) {
	t.Parallel()

	var sawLogger bool
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawLogger = LoggerFromContext(r.Context()) != nil
		w.WriteHeader(http.StatusOK)
	})

	handler := RequestLogger(nil)(inner)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/anything", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !sawLogger {
		t.Fatalf("expected request scoped logger in context")
	}
}

func TestCronHandlers(t *testing.T) {
	t.Parallel()

	publish := publishSweeperFunc(func(context.Context) (application.PublishSweepSummary, error) {
		return application.PublishSweepSummary{Processed: 2, Published: 1, Failed: 1}, nil
	})
	analytics := analyticsSweeperFunc(func(context.Context) (application.AnalyticsSweepSummary, error) {
		return application.AnalyticsSweepSummary{Processed: 3, Synced: 2, Skipped: 1}, nil
	})
	router := NewRouter(RouterConfig{
		Cron:       NewCronHandler(publish, analytics, nil),
		CronSecret: "cron-secret",
	})

	t.Run("publish sweep returns the summary", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodPost, "/cron/publish", nil)
		req.Header.Set("Authorization", "Bearer cron-secret")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var resp publishSweepResponse
		decodeBody(t, rec, &resp)
		if !resp.Success || resp.Processed != 2 || resp.Published != 1 || resp.Failed != 1 {
			t.Fatalf("unexpected response %#v", resp)
		}
	})

	t.Run("analytics sweep returns the summary", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodPost, "/cron/analytics", nil)
		req.Header.Set("Authorization", "Bearer cron-secret")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var resp analyticsSweepResponse
		decodeBody(t, rec, &resp)
		if !resp.Success || resp.Processed != 3 || resp.Synced != 2 || resp.Skipped != 1 {
			t.Fatalf("unexpected response %#v", resp)
		}
	})

	t.Run("sweeps without the secret are rejected", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodPost, "/cron/publish", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})
}

type publishSweeperFunc func(ctx context.Context) (application.PublishSweepSummary, error)

func (f publishSweeperFunc) Run(ctx context.Context) (application.PublishSweepSummary, error) {
	return f(ctx)
}

type analyticsSweeperFunc func(ctx context.Context) (application.AnalyticsSweepSummary, error)

func (f analyticsSweeperFunc) Run(ctx context.Context) (application.AnalyticsSweepSummary, error) {
	return f(ctx)
}
