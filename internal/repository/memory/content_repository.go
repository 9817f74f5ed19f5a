package memory

import (
	"context"
	"time"

	"github.com/Imtihan-Edutech/Swanirbhar/internal/apperrors"
	"github.com/Imtihan-Edutech/Swanirbhar/internal/models"
	"github.com/Imtihan-Edutech/Swanirbhar/internal/repository"
)

type contentRepository struct {
	store *Store
}

func NewContentRepository(store *Store) repository.ContentRepository {
	return &contentRepository{store: store}
}

func copyContent(c *models.Content) models.Content {
	out := *c
	out.Comments = make([]models.Comment, len(c.Comments))
	copy(out.Comments, c.Comments)
	return out
}

func (r *contentRepository) lookup(kind models.ContentKind, id string) (*models.Content, bool) {
	c, ok := r.store.contents[id]
	if !ok || c.Kind != kind {
		return nil, false
	}
	return c, true
}

func (r *contentRepository) Create(_ context.Context, c *models.Content) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.contents[c.ID]; ok {
		return apperrors.ErrConflict
	}
	stored := copyContent(c)
	s.contents[c.ID] = &stored
	s.contentSeq = append(s.contentSeq, c.ID)
	return nil
}

func (r *contentRepository) GetByID(_ context.Context, kind models.ContentKind, id string) (*models.Content, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	c, ok := r.lookup(kind, id)
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	out := copyContent(c)
	return &out, nil
}

// List returns newest first.
func (r *contentRepository) List(_ context.Context, f models.ContentFilter) ([]models.Content, int, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := []models.Content{}
	for i := len(s.contentSeq) - 1; i >= 0; i-- {
		c := s.contents[s.contentSeq[i]]
		if f.Matches(c) {
			matched = append(matched, copyContent(c))
		}
	}

	start, end := page(len(matched), f.Limit, f.Offset)
	return matched[start:end], len(matched), nil
}

func (r *contentRepository) Delete(_ context.Context, kind models.ContentKind, id string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := r.lookup(kind, id); !ok {
		return apperrors.ErrNotFound
	}
	delete(s.contents, id)
	s.contentSeq = removeID(s.contentSeq, id)
	return nil
}

func (r *contentRepository) AddComment(_ context.Context, cm *models.Comment) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.contents[cm.ContentID]
	if !ok {
		return apperrors.ErrNotFound
	}
	c.Comments = append(c.Comments, *cm)
	return nil
}

func (r *contentRepository) UpdateCover(_ context.Context, kind models.ContentKind, id, coverURL string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := r.lookup(kind, id)
	if !ok {
		return apperrors.ErrNotFound
	}
	c.CoverImage = coverURL
	c.UpdatedAt = time.Now().UTC()
	return nil
}
