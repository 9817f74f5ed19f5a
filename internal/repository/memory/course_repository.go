package memory

import (
	"context"

	"github.com/Imtihan-Edutech/Swanirbhar/internal/apperrors"
	"github.com/Imtihan-Edutech/Swanirbhar/internal/models"
	"github.com/Imtihan-Edutech/Swanirbhar/internal/repository"
)

type courseRepository struct {
	store *Store
}

func NewCourseRepository(store *Store) repository.CourseRepository {
	return &courseRepository{store: store}
}

func copyCourse(c *models.Course) models.Course {
	out := *c
	out.Objectives = cloneStrings(c.Objectives)
	out.Tags = cloneStrings(c.Tags)
	out.EnrolledUsers = cloneStrings(c.EnrolledUsers)
	out.Lessons = make([]models.Lesson, len(c.Lessons))
	copy(out.Lessons, c.Lessons)
	return out
}

func (r *courseRepository) Create(_ context.Context, c *models.Course) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.courses[c.ID]; ok {
		return apperrors.ErrConflict
	}
	stored := copyCourse(c)
	s.courses[c.ID] = &stored
	s.courseSeq = append(s.courseSeq, c.ID)
	return nil
}

func (r *courseRepository) GetByID(_ context.Context, id string) (*models.Course, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.courses[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	out := copyCourse(c)
	return &out, nil
}

func (r *courseRepository) GetByIDs(_ context.Context, ids []string) (map[string]models.Course, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]models.Course, len(ids))
	for _, id := range ids {
		if c, ok := s.courses[id]; ok {
			result[id] = copyCourse(c)
		}
	}
	return result, nil
}

func (r *courseRepository) List(_ context.Context, f models.CourseFilter) ([]models.Course, int, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := []models.Course{}
	for _, id := range s.courseSeq {
		c := s.courses[id]
		if f.Matches(c) {
			matched = append(matched, copyCourse(c))
		}
	}

	models.SortCourses(matched, f.Sort, f.Descending)

	start, end := page(len(matched), f.Limit, f.Offset)
	return matched[start:end], len(matched), nil
}

func (r *courseRepository) Update(_ context.Context, c *models.Course) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.courses[c.ID]
	if !ok {
		return apperrors.ErrNotFound
	}

	updated := copyCourse(c)
	// membership and lessons have their own write paths
	updated.EnrolledUsers = existing.EnrolledUsers
	updated.Lessons = existing.Lessons
	updated.CreatedBy = existing.CreatedBy
	updated.CreatedAt = existing.CreatedAt
	s.courses[c.ID] = &updated
	return nil
}

func (r *courseRepository) Delete(_ context.Context, id string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.courses[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(s.courses, id)
	s.courseSeq = removeID(s.courseSeq, id)
	for user, items := range s.wishlists {
		kept := items[:0]
		for _, item := range items {
			if item.CourseID != id {
				kept = append(kept, item)
			}
		}
		s.wishlists[user] = kept
	}
	return nil
}

func (r *courseRepository) Enroll(_ context.Context, courseID, userID string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.courses[courseID]
	if !ok {
		return apperrors.ErrNotFound
	}
	if c.IsEnrolled(userID) {
		return apperrors.ErrConflict
	}
	c.EnrolledUsers = append(c.EnrolledUsers, userID)
	return nil
}

func (r *courseRepository) AddLesson(_ context.Context, l *models.Lesson) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.courses[l.CourseID]
	if !ok {
		return apperrors.ErrNotFound
	}
	l.Position = len(c.Lessons) + 1
	c.Lessons = append(c.Lessons, *l)
	return nil
}

func (r *courseRepository) UpdateLesson(_ context.Context, l *models.Lesson) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.courses[l.CourseID]
	if !ok {
		return apperrors.ErrNotFound
	}
	for i := range c.Lessons {
		if c.Lessons[i].ID == l.ID {
			c.Lessons[i].Title = l.Title
			c.Lessons[i].VideoURL = l.VideoURL
			return nil
		}
	}
	return apperrors.ErrNotFound
}
