package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/example/postpilot/internal/aigen"
	"github.com/example/postpilot/internal/content"
)

// Generator produces post copy from a prompt.
type Generator interface {
	Generate(ctx context.Context, req aigen.GenerateRequest) (string, error)
}

// GenerateService wraps the AI gateway behind prompt validation and
// output normalization.
type GenerateService struct {
	generator Generator
	logger    *slog.Logger
}

// NewGenerateService wires dependencies for draft generation.
func NewGenerateService(generator Generator, logger *slog.Logger) *GenerateService {
	return &GenerateService{
		generator: generator,
		logger:    defaultLogger(logger),
	}
}

// Generate produces draft copy for the caller's prompt. The result is
// normalized like any other draft content.
func (s *GenerateService) Generate(ctx context.Context, params GenerateParams) (text string, err error) {
	if s == nil {
		return "", fmt.Errorf("GenerateService is nil")
	}

	logger := serviceLogger(ctx, s.logger, "GenerateService", "Generate", "user_id", params.Principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "generation failed", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	prompt := strings.TrimSpace(params.Prompt)
	if prompt == "" {
		vErr := &ValidationError{}
		vErr.add("prompt", "prompt is required")
		err = vErr
		return
	}

	raw, err := s.generator.Generate(ctx, aigen.GenerateRequest{
		Prompt: prompt,
		Tone:   strings.TrimSpace(params.Tone),
	})
	if err != nil {
		return "", err
	}

	return content.Normalize(raw), nil
}
