package application

import (
	"context"
	"errors"
	"testing"
)

func TestGenerateService_Generate(t *testing.T) {
	t.Parallel()

	t.Run("normalizes the gateway output", func(t *testing.T) {
		t.Parallel()

		generator := &generatorStub{text: "  generated\r\ncopy  "}
		svc := NewGenerateService(generator, nil)

		text, err := svc.Generate(context.Background(), GenerateParams{
			Principal: Principal{UserID: "user-1"},
			Prompt:    " product launch ",
			Tone:      " bold ",
		})
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		if text != "generated\ncopy" {
			t.Fatalf("expected normalized output, got %q", text)
		}
		if len(generator.requests) != 1 {
			t.Fatalf("expected one gateway call, got %d", len(generator.requests))
		}
		if req := generator.requests[0]; req.Prompt != "product launch" || req.Tone != "bold" {
			t.Fatalf("expected trimmed request fields, got %#v", req)
		}
	})

	t.Run("requires a prompt", func(t *testing.T) {
		t.Parallel()

		generator := &generatorStub{}
		svc := NewGenerateService(generator, nil)

		_, err := svc.Generate(context.Background(), GenerateParams{Prompt: "   "})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if len(generator.requests) != 0 {
			t.Fatalf("expected no gateway call, got %d", len(generator.requests))
		}
	})

	t.Run("propagates gateway failures", func(t *testing.T) {
		t.Parallel()

		expected := errors.New("gateway down")
		svc := NewGenerateService(&generatorStub{err: expected}, nil)

		if _, err := svc.Generate(context.Background(), GenerateParams{Prompt: "topic"}); !errors.Is(err, expected) {
			t.Fatalf("expected %v, got %v", expected, err)
		}
	})
}
