package memory

import (
	"context"

	"github.com/Imtihan-Edutech/Swanirbhar/internal/apperrors"
	"github.com/Imtihan-Edutech/Swanirbhar/internal/models"
	"github.com/Imtihan-Edutech/Swanirbhar/internal/repository"
)

type promptRepository struct {
	store *Store
}

func NewPromptRepository(store *Store) repository.PromptRepository {
	return &promptRepository{store: store}
}

func copyPrompt(p *models.Prompt) models.Prompt {
	out := *p
	out.Prompts = cloneStrings(p.Prompts)
	out.Tips = cloneStrings(p.Tips)
	return out
}

func (r *promptRepository) Create(_ context.Context, p *models.Prompt) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.prompts[p.ID]; ok {
		return apperrors.ErrConflict
	}
	for _, existing := range s.prompts {
		if existing.Title == p.Title {
			return apperrors.ErrConflict
		}
	}
	stored := copyPrompt(p)
	s.prompts[p.ID] = &stored
	s.promptSeq = append(s.promptSeq, p.ID)
	return nil
}

func (r *promptRepository) GetByID(_ context.Context, id string) (*models.Prompt, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	p, ok := r.store.prompts[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	out := copyPrompt(p)
	return &out, nil
}

// List keeps import order.
func (r *promptRepository) List(_ context.Context, f models.PromptFilter) ([]models.Prompt, int, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := []models.Prompt{}
	for _, id := range s.promptSeq {
		p := s.prompts[id]
		if f.Matches(p) {
			matched = append(matched, copyPrompt(p))
		}
	}

	start, end := page(len(matched), f.Limit, f.Offset)
	return matched[start:end], len(matched), nil
}
