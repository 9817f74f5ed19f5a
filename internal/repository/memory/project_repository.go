package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/Imtihan-Edutech/Swanirbhar/internal/apperrors"
	"github.com/Imtihan-Edutech/Swanirbhar/internal/models"
	"github.com/Imtihan-Edutech/Swanirbhar/internal/repository"
)

type projectRepository struct {
	store *Store
}

func NewProjectRepository(store *Store) repository.ProjectRepository {
	return &projectRepository{store: store}
}

func copyProject(p *models.Project) models.Project {
	c := *p
	c.LearningSkills = cloneStrings(p.LearningSkills)
	c.Submissions = make([]models.Submission, len(p.Submissions))
	copy(c.Submissions, p.Submissions)
	c.Grading = make([]models.GradeRecord, len(p.Grading))
	for i, g := range p.Grading {
		g.Grades = append([]models.Grade(nil), g.Grades...)
		c.Grading[i] = g
	}
	return c
}

func (r *projectRepository) Create(_ context.Context, p *models.Project) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.projects[p.ID]; ok {
		return apperrors.ErrConflict
	}

	stored := copyProject(p)
	s.projects[p.ID] = &stored
	s.projOrder = append(s.projOrder, p.ID)
	return nil
}

func (r *projectRepository) GetByID(_ context.Context, id string) (*models.Project, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.projects[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	c := copyProject(p)
	return &c, nil
}

func (r *projectRepository) List(_ context.Context, filter models.ProjectFilter) ([]models.Project, int, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := []models.Project{}
	for _, id := range s.projOrder {
		p := s.projects[id]
		if filter.Matches(p) {
			matched = append(matched, copyProject(p))
		}
	}

	sortProjects(matched, filter.Sort, filter.Descending)

	start, end := page(len(matched), filter.Limit, filter.Offset)
	return matched[start:end], len(matched), nil
}

func sortProjects(projects []models.Project, by models.ProjectSort, desc bool) {
	less := func(a, b *models.Project) bool {
		switch by {
		case models.ProjectSortCreatedAt:
			return a.CreatedAt.Before(b.CreatedAt)
		case models.ProjectSortDeadline:
			return a.Deadline.Before(b.Deadline)
		case models.ProjectSortTitle:
			return strings.Compare(a.Title, b.Title) < 0
		default:
			return false
		}
	}
	sort.SliceStable(projects, func(i, j int) bool {
		if desc {
			return less(&projects[j], &projects[i])
		}
		return less(&projects[i], &projects[j])
	})
}

func (r *projectRepository) UpdateDeadline(_ context.Context, id string, deadline time.Time) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	p.Deadline = deadline
	p.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *projectRepository) Delete(_ context.Context, id string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.projects[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(s.projects, id)
	s.projOrder = removeID(s.projOrder, id)
	return nil
}

func (r *projectRepository) AddSubmission(_ context.Context, sub *models.Submission) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[sub.ProjectID]
	if !ok {
		return apperrors.ErrNotFound
	}
	if p.HasSubmissionFrom(sub.SubmittedBy) {
		return apperrors.ErrConflict
	}
	p.Submissions = append(p.Submissions, *sub)
	return nil
}

func (r *projectRepository) AddGrade(_ context.Context, g *models.GradeRecord) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[g.ProjectID]
	if !ok {
		return apperrors.ErrNotFound
	}
	if _, exists := p.GradeFor(g.UserID); exists {
		return apperrors.ErrConflict
	}
	record := *g
	record.Grades = append([]models.Grade(nil), g.Grades...)
	p.Grading = append(p.Grading, record)
	return nil
}

func (r *projectRepository) GetGrade(_ context.Context, projectID, userID string) (*models.GradeRecord, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.projects[projectID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	g, ok := p.GradeFor(userID)
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	g.Grades = append([]models.Grade(nil), g.Grades...)
	return &g, nil
}
