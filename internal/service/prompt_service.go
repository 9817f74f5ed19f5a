package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Imtihan-Edutech/Swanirbhar/internal/apperrors"
	"github.com/Imtihan-Edutech/Swanirbhar/internal/models"
	"github.com/Imtihan-Edutech/Swanirbhar/internal/repository"
	"github.com/Imtihan-Edutech/Swanirbhar/internal/validation"
)

const (
	defaultPromptPageSize = 100
	maxPromptPageSize     = 100

	msgPromptNotFound = "Prompt not found"
)

// PromptService serves the prompt library. The HTTP surface is read only;
// entries arrive through Import.
type PromptService interface {
	List(ctx context.Context, q models.PromptListQuery) (*models.PromptsResponse, error)
	Get(ctx context.Context, id string) (*models.Prompt, error)
	Import(ctx context.Context, prompts []models.Prompt) (*models.PromptImportResult, error)
}

type promptService struct {
	prompts repository.PromptRepository
	now     func() time.Time
	logger  zerolog.Logger
}

func NewPromptService(prompts repository.PromptRepository, logger zerolog.Logger) PromptService {
	return &promptService{
		prompts: prompts,
		now:     time.Now,
		logger:  logger,
	}
}

func (s *promptService) List(ctx context.Context, q models.PromptListQuery) (*models.PromptsResponse, error) {
	page, limit, offset := paging(q.Page, q.Limit, defaultPromptPageSize, maxPromptPageSize)

	items, total, err := s.prompts.List(ctx, models.PromptFilter{
		Title:    q.Title,
		Category: q.Category,
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		return nil, apperrors.Unexpectedf(err, "failed to list prompts")
	}

	return &models.PromptsResponse{
		Items: items,
		Total: total,
		Pages: models.Pages(total, limit),
		Page:  page,
		Limit: limit,
	}, nil
}

func (s *promptService) Get(ctx context.Context, id string) (*models.Prompt, error) {
	prompt, err := s.prompts.GetByID(ctx, id)
	if err != nil {
		return nil, fromRepo(err, "get prompt", msgPromptNotFound)
	}
	return prompt, nil
}

// Import validates every entry before writing any. Titles already in the
// library are skipped, so importing the same file twice is harmless.
func (s *promptService) Import(ctx context.Context, prompts []models.Prompt) (*models.PromptImportResult, error) {
	for i := range prompts {
		if err := validation.Struct(&prompts[i]); err != nil {
			return nil, fmt.Errorf("prompt %d (%q): %w", i, prompts[i].Title, err)
		}
	}

	result := &models.PromptImportResult{}
	now := s.now().UTC()
	for i := range prompts {
		p := prompts[i]
		p.ID = uuid.New().String()
		p.CreatedAt = now

		if err := s.prompts.Create(ctx, &p); err != nil {
			if errors.Is(err, apperrors.ErrConflict) {
				result.Skipped++
				continue
			}
			return result, apperrors.Unexpectedf(err, "failed to import prompt %q", p.Title)
		}
		result.Imported++
	}

	s.logger.Info().
		Int("imported", result.Imported).
		Int("skipped", result.Skipped).
		Msg("Prompt library imported")

	return result, nil
}
