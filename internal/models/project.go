package models

import (
	"strings"
	"time"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

func IsValidDifficulty(d string) bool {
	switch Difficulty(d) {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	default:
		return false
	}
}

// ProjectState is derived from the deadline; graded is tracked separately
// because it coexists with closed.
type ProjectState string

const (
	ProjectStateOpen   ProjectState = "open"
	ProjectStateClosed ProjectState = "closed"
)

type Project struct {
	ID               string        `json:"id" db:"id"`
	Title            string        `json:"title" db:"title"`
	Description      string        `json:"description" db:"description"`
	Task             string        `json:"task" db:"task"`
	Prerequisites    string        `json:"prerequisites" db:"prerequisites"`
	SubmissionMethod string        `json:"submission_method" db:"submission_method"`
	Deadline         time.Time     `json:"deadline" db:"deadline"`
	Difficulty       Difficulty    `json:"difficulty" db:"difficulty"`
	LearningSkills   []string      `json:"learning_skills" db:"learning_skills"`
	Club             string        `json:"club" db:"club"`
	CreatorID        string        `json:"creator_id" db:"creator_id"`
	Submissions      []Submission  `json:"submission_link"`
	Grading          []GradeRecord `json:"grading"`
	CreatedAt        time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at" db:"updated_at"`
}

func (p *Project) State(now time.Time) ProjectState {
	if now.After(p.Deadline) {
		return ProjectStateClosed
	}
	return ProjectStateOpen
}

func (p *Project) IsCreator(userID string) bool {
	return userID != "" && p.CreatorID == userID
}

func (p *Project) HasSubmissionFrom(userID string) bool {
	for _, s := range p.Submissions {
		if s.SubmittedBy == userID {
			return true
		}
	}
	return false
}

func (p *Project) GradeFor(userID string) (GradeRecord, bool) {
	for _, g := range p.Grading {
		if g.UserID == userID {
			return g, true
		}
	}
	return GradeRecord{}, false
}

type Submission struct {
	ID          string    `json:"id" db:"id"`
	ProjectID   string    `json:"project_id" db:"project_id"`
	Link        string    `json:"link" db:"link"`
	Description string    `json:"description" db:"description"`
	SubmittedBy string    `json:"submitted_by" db:"submitted_by"`
	SubmittedAt time.Time `json:"submitted_at" db:"submitted_at"`
}

type Grade struct {
	Factor string  `json:"factor" validate:"required,max=255"`
	Grade  float64 `json:"grade"`
}

type GradeRecord struct {
	ID        string    `json:"id" db:"id"`
	ProjectID string    `json:"project_id" db:"project_id"`
	UserID    string    `json:"user" db:"user_id"`
	GradedBy  string    `json:"graded_by" db:"graded_by"`
	Grades    []Grade   `json:"grades" db:"grades"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type ProjectSort string

const (
	ProjectSortNone      ProjectSort = ""
	ProjectSortCreatedAt ProjectSort = "created_at"
	ProjectSortDeadline  ProjectSort = "deadline"
	ProjectSortTitle     ProjectSort = "title"
)

func ParseProjectSort(s string) (ProjectSort, bool) {
	switch ProjectSort(s) {
	case ProjectSortNone, ProjectSortCreatedAt, ProjectSortDeadline, ProjectSortTitle:
		return ProjectSort(s), true
	default:
		return ProjectSortNone, false
	}
}

type ProjectFilter struct {
	Title      string
	Club       string
	Difficulty string
	Sort       ProjectSort
	Descending bool
	Limit      int
	Offset     int
}

// Matches applies the filter predicates (not the paging) to p.
func (f ProjectFilter) Matches(p *Project) bool {
	if f.Title != "" && !strings.Contains(strings.ToLower(p.Title), strings.ToLower(f.Title)) {
		return false
	}
	if f.Club != "" && p.Club != f.Club {
		return false
	}
	if f.Difficulty != "" && string(p.Difficulty) != f.Difficulty {
		return false
	}
	return true
}

// SubmissionView is a submission with the submitter resolved.
type SubmissionView struct {
	Submission
	SubmittedByUser *UserSummary `json:"submitted_by_user,omitempty"`
}

type ProjectView struct {
	Project
	Submissions []SubmissionView `json:"submission_link"`
	Creator     *UserSummary     `json:"creator,omitempty"`
	State       ProjectState     `json:"state"`
	GradedCount int              `json:"graded_count"`
}
