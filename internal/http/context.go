package http

import (
	"context"

	"github.com/example/postpilot/internal/application"
)

type contextKey string

const (
	principalContextKey contextKey = "principal"
	draftIDContextKey   contextKey = "draft_id"
)

// ContextWithPrincipal returns a derived context containing the authenticated principal.
func ContextWithPrincipal(ctx context.Context, principal application.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, principal)
}

// PrincipalFromContext extracts the authenticated principal from context if available.
func PrincipalFromContext(ctx context.Context) (application.Principal, bool) {
	principal, ok := ctx.Value(principalContextKey).(application.Principal)
	return principal, ok
}

// ContextWithDraftID injects the draft identifier resolved from the request path.
func ContextWithDraftID(ctx context.Context, draftID string) context.Context {
	return context.WithValue(ctx, draftIDContextKey, draftID)
}

// DraftIDFromContext extracts a draft identifier previously associated with the context.
func DraftIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(draftIDContextKey).(string)
	return id, ok
}
