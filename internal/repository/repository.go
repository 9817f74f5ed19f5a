package repository

import (
	"context"
	"time"

	"github.com/Imtihan-Edutech/Swanirbhar/internal/models"
)

// Lookups return apperrors.ErrNotFound for unknown ids. Conditional inserts
// return apperrors.ErrConflict when the unique key is taken, deciding that
// and writing in a single store operation.

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetSummaries(ctx context.Context, ids []string) (map[string]models.UserSummary, error)
	FindIDsByName(ctx context.Context, name string) ([]string, error)
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	Update(ctx context.Context, user *models.User) error
}

type ProjectRepository interface {
	Create(ctx context.Context, project *models.Project) error
	GetByID(ctx context.Context, id string) (*models.Project, error)
	List(ctx context.Context, filter models.ProjectFilter) ([]models.Project, int, error)
	UpdateDeadline(ctx context.Context, id string, deadline time.Time) error
	Delete(ctx context.Context, id string) error
	AddSubmission(ctx context.Context, submission *models.Submission) error
	AddGrade(ctx context.Context, record *models.GradeRecord) error
	GetGrade(ctx context.Context, projectID, userID string) (*models.GradeRecord, error)
}

type CourseRepository interface {
	Create(ctx context.Context, course *models.Course) error
	GetByID(ctx context.Context, id string) (*models.Course, error)
	GetByIDs(ctx context.Context, ids []string) (map[string]models.Course, error)
	List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error)
	Update(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, id string) error
	Enroll(ctx context.Context, courseID, userID string) error
	AddLesson(ctx context.Context, lesson *models.Lesson) error
	UpdateLesson(ctx context.Context, lesson *models.Lesson) error
}

type ContentRepository interface {
	Create(ctx context.Context, content *models.Content) error
	GetByID(ctx context.Context, kind models.ContentKind, id string) (*models.Content, error)
	List(ctx context.Context, filter models.ContentFilter) ([]models.Content, int, error)
	Delete(ctx context.Context, kind models.ContentKind, id string) error
	AddComment(ctx context.Context, comment *models.Comment) error
	UpdateCover(ctx context.Context, kind models.ContentKind, id, coverURL string) error
}

type WishlistRepository interface {
	List(ctx context.Context, userID string) ([]models.WishlistItem, error)
	Add(ctx context.Context, item *models.WishlistItem) error
	Remove(ctx context.Context, userID, courseID string) error
}

// PromptRepository backs the read-only prompt library. Create is used by
// the importer only and treats a duplicate title as ErrConflict.
type PromptRepository interface {
	Create(ctx context.Context, prompt *models.Prompt) error
	GetByID(ctx context.Context, id string) (*models.Prompt, error)
	List(ctx context.Context, filter models.PromptFilter) ([]models.Prompt, int, error)
}
