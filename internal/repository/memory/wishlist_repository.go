package memory

import (
	"context"

	"github.com/Imtihan-Edutech/Swanirbhar/internal/apperrors"
	"github.com/Imtihan-Edutech/Swanirbhar/internal/models"
	"github.com/Imtihan-Edutech/Swanirbhar/internal/repository"
)

type wishlistRepository struct {
	store *Store
}

func NewWishlistRepository(store *Store) repository.WishlistRepository {
	return &wishlistRepository{store: store}
}

func (r *wishlistRepository) List(_ context.Context, userID string) ([]models.WishlistItem, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]models.WishlistItem, len(s.wishlists[userID]))
	copy(items, s.wishlists[userID])
	return items, nil
}

func (r *wishlistRepository) Add(_ context.Context, item *models.WishlistItem) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.courses[item.CourseID]; !ok {
		return apperrors.ErrNotFound
	}
	for _, existing := range s.wishlists[item.UserID] {
		if existing.CourseID == item.CourseID {
			return apperrors.ErrConflict
		}
	}
	s.wishlists[item.UserID] = append(s.wishlists[item.UserID], *item)
	return nil
}

func (r *wishlistRepository) Remove(_ context.Context, userID, courseID string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.wishlists[userID]
	for i, item := range items {
		if item.CourseID == courseID {
			s.wishlists[userID] = append(items[:i:i], items[i+1:]...)
			return nil
		}
	}
	return apperrors.ErrNotFound
}
