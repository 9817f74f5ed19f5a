package memory

import (
	"context"
	"strings"

	"github.com/Imtihan-Edutech/Swanirbhar/internal/apperrors"
	"github.com/Imtihan-Edutech/Swanirbhar/internal/models"
	"github.com/Imtihan-Edutech/Swanirbhar/internal/repository"
)

type userRepository struct {
	store *Store
}

func NewUserRepository(store *Store) repository.UserRepository {
	return &userRepository{store: store}
}

func copyUser(u *models.User) *models.User {
	c := *u
	c.Skills = cloneStrings(u.Skills)
	c.PasswordHash = append([]byte(nil), u.PasswordHash...)
	return &c
}

func (r *userRepository) Create(_ context.Context, user *models.User) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(user.Email)
	if _, ok := s.emails[email]; ok {
		return apperrors.ErrConflict
	}
	if _, ok := s.users[user.ID]; ok {
		return apperrors.ErrConflict
	}

	s.users[user.ID] = copyUser(user)
	s.userOrder = append(s.userOrder, user.ID)
	s.emails[email] = user.ID
	return nil
}

func (r *userRepository) GetByID(_ context.Context, id string) (*models.User, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return copyUser(u), nil
}

func (r *userRepository) GetByEmail(_ context.Context, email string) (*models.User, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.emails[strings.ToLower(email)]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return copyUser(s.users[id]), nil
}

func (r *userRepository) GetSummaries(_ context.Context, ids []string) (map[string]models.UserSummary, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]models.UserSummary, len(ids))
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			result[id] = u.Summary()
		}
	}
	return result, nil
}

func (r *userRepository) FindIDsByName(_ context.Context, name string) ([]string, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(name)
	ids := []string{}
	for _, id := range s.userOrder {
		if strings.Contains(strings.ToLower(s.users[id].FullName), needle) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (r *userRepository) List(_ context.Context, filter models.UserFilter) ([]models.User, int, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(filter.Search)
	matched := []models.User{}
	for _, id := range s.userOrder {
		u := s.users[id]
		if needle != "" &&
			!strings.Contains(strings.ToLower(u.FullName), needle) &&
			!strings.Contains(strings.ToLower(u.Email), needle) {
			continue
		}
		matched = append(matched, *copyUser(u))
	}

	start, end := page(len(matched), filter.Limit, filter.Offset)
	return matched[start:end], len(matched), nil
}

func (r *userRepository) Update(_ context.Context, user *models.User) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.users[user.ID]
	if !ok {
		return apperrors.ErrNotFound
	}

	updated := copyUser(user)
	updated.Email = existing.Email
	updated.CreatedAt = existing.CreatedAt
	s.users[user.ID] = updated
	return nil
}
