package testfixtures

import (
	"context"
	"testing"

	"github.com/example/postpilot/internal/application"
)

func TestServiceFactoryNewDraftService(t *testing.T) {
	harness := NewSQLiteHarness(t)
	factory := NewServiceFactory()

	user := NewUser()
	if err := harness.Users.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}

	svc := factory.NewDraftService(DraftServiceDeps{Drafts: harness.Drafts})
	principal := application.Principal{UserID: user.ID}

	created, err := svc.CreateDraft(context.Background(), application.CreateDraftParams{
		Principal: principal,
		Input:     application.DraftInput{Content: "Shipping update for the week."},
	})
	if err != nil {
		t.Fatalf("CreateDraft returned error: %v", err)
	}

	if created.ID != "id-1" {
		t.Fatalf("expected generated ID id-1, got %q", created.ID)
	}
	if created.Status != "draft" {
		t.Fatalf("expected draft status, got %q", created.Status)
	}

	fetched, err := svc.GetDraft(context.Background(), principal, created.ID)
	if err != nil {
		t.Fatalf("GetDraft returned error: %v", err)
	}
	if fetched.Content != "Shipping update for the week." {
		t.Fatalf("unexpected stored content: %q", fetched.Content)
	}
}
