package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/Imtihan-Edutech/Swanirbhar/internal/apperrors"
	"github.com/Imtihan-Edutech/Swanirbhar/internal/models"
)

type projectRepository struct {
	*PostgresRepository
}

func NewProjectRepository(db *sql.DB, logger zerolog.Logger) ProjectRepository {
	return &projectRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

const projectColumns = `id, title, description, task, prerequisites, submission_method, deadline,
	difficulty, learning_skills, club, creator_id, created_at, updated_at`

func scanProject(row scanner) (*models.Project, error) {
	p := &models.Project{}
	var difficulty string
	err := row.Scan(
		&p.ID,
		&p.Title,
		&p.Description,
		&p.Task,
		&p.Prerequisites,
		&p.SubmissionMethod,
		&p.Deadline,
		&difficulty,
		pq.Array(&p.LearningSkills),
		&p.Club,
		&p.CreatorID,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Difficulty = models.Difficulty(difficulty)
	p.Submissions = []models.Submission{}
	p.Grading = []models.GradeRecord{}
	return p, nil
}

func (r *projectRepository) Create(ctx context.Context, p *models.Project) error {
	query := `
		INSERT INTO projects (id, title, description, task, prerequisites, submission_method,
			deadline, difficulty, learning_skills, club, creator_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.db.ExecContext(ctx, query,
		p.ID,
		p.Title,
		p.Description,
		p.Task,
		p.Prerequisites,
		p.SubmissionMethod,
		p.Deadline,
		string(p.Difficulty),
		pq.Array(nonNil(p.LearningSkills)),
		p.Club,
		p.CreatorID,
		p.CreatedAt,
		p.UpdatedAt,
	)
	return err
}

func (r *projectRepository) GetByID(ctx context.Context, id string) (*models.Project, error) {
	if !validID(id) {
		return nil, apperrors.ErrNotFound
	}

	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = $1`
	p, err := scanProject(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFoundOnNoRows(err)
	}

	byID := map[string]*models.Project{p.ID: p}
	if err := r.loadChildren(ctx, byID); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *projectRepository) List(ctx context.Context, filter models.ProjectFilter) ([]models.Project, int, error) {
	conds := []string{}
	args := []interface{}{}
	if filter.Title != "" {
		args = append(args, likePattern(filter.Title))
		conds = append(conds, fmt.Sprintf("title ILIKE $%d", len(args)))
	}
	if filter.Club != "" {
		args = append(args, filter.Club)
		conds = append(conds, fmt.Sprintf("club = $%d", len(args)))
	}
	if filter.Difficulty != "" {
		args = append(args, filter.Difficulty)
		conds = append(conds, fmt.Sprintf("difficulty = $%d", len(args)))
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM projects`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count projects: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM projects%s ORDER BY %s LIMIT $%d OFFSET $%d`,
		projectColumns, where, projectOrderBy(filter), len(args)+1, len(args)+2)
	args = append(args, limitArg(filter.Limit), filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	ptrs := []*models.Project{}
	byID := map[string]*models.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, 0, err
		}
		ptrs = append(ptrs, p)
		byID[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	if err := r.loadChildren(ctx, byID); err != nil {
		return nil, 0, err
	}

	projects := make([]models.Project, len(ptrs))
	for i, p := range ptrs {
		projects[i] = *p
	}
	return projects, total, nil
}

func projectOrderBy(filter models.ProjectFilter) string {
	dir := "ASC"
	if filter.Descending {
		dir = "DESC"
	}
	switch filter.Sort {
	case models.ProjectSortCreatedAt:
		return "created_at " + dir + ", seq"
	case models.ProjectSortDeadline:
		return "deadline " + dir + ", seq"
	case models.ProjectSortTitle:
		return "title " + dir + ", seq"
	default:
		return "seq"
	}
}

// loadChildren fills submissions and grading records for the given projects.
func (r *projectRepository) loadChildren(ctx context.Context, byID map[string]*models.Project) error {
	if len(byID) == 0 {
		return nil
	}
	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}

	subQuery := `
		SELECT id, project_id, link, description, submitted_by, submitted_at
		FROM project_submissions
		WHERE project_id = ANY($1)
		ORDER BY seq
	`
	rows, err := r.db.QueryContext(ctx, subQuery, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to load submissions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var s models.Submission
		if err := rows.Scan(&s.ID, &s.ProjectID, &s.Link, &s.Description, &s.SubmittedBy, &s.SubmittedAt); err != nil {
			return err
		}
		if p, ok := byID[s.ProjectID]; ok {
			p.Submissions = append(p.Submissions, s)
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	gradeQuery := `
		SELECT id, project_id, user_id, graded_by, grades, created_at
		FROM project_grades
		WHERE project_id = ANY($1)
		ORDER BY seq
	`
	gradeRows, err := r.db.QueryContext(ctx, gradeQuery, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to load grades: %w", err)
	}
	defer gradeRows.Close()

	for gradeRows.Next() {
		g, err := scanGrade(gradeRows)
		if err != nil {
			return err
		}
		if p, ok := byID[g.ProjectID]; ok {
			p.Grading = append(p.Grading, *g)
		}
	}

	return gradeRows.Err()
}

func scanGrade(row scanner) (*models.GradeRecord, error) {
	g := &models.GradeRecord{}
	var raw []byte
	if err := row.Scan(&g.ID, &g.ProjectID, &g.UserID, &g.GradedBy, &raw, &g.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &g.Grades); err != nil {
		return nil, fmt.Errorf("failed to decode grades: %w", err)
	}
	return g, nil
}

func (r *projectRepository) UpdateDeadline(ctx context.Context, id string, deadline time.Time) error {
	if !validID(id) {
		return apperrors.ErrNotFound
	}

	query := `UPDATE projects SET deadline = $2, updated_at = NOW() WHERE id = $1`
	return affectedOrNotFound(r.db.ExecContext(ctx, query, id, deadline))
}

func (r *projectRepository) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return apperrors.ErrNotFound
	}

	return affectedOrNotFound(r.db.ExecContext(ctx, `DELETE FROM projects WHERE id = $1`, id))
}

// AddSubmission inserts unless the (project, user) key is taken. The
// foreign key turns a vanished project into ErrNotFound.
func (r *projectRepository) AddSubmission(ctx context.Context, s *models.Submission) error {
	if !validID(s.ProjectID) {
		return apperrors.ErrNotFound
	}

	query := `
		INSERT INTO project_submissions (id, project_id, link, description, submitted_by, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (project_id, submitted_by) DO NOTHING
	`

	res, err := r.db.ExecContext(ctx, query, s.ID, s.ProjectID, s.Link, s.Description, s.SubmittedBy, s.SubmittedAt)
	return conditionalInsertResult(res, err)
}

func (r *projectRepository) AddGrade(ctx context.Context, g *models.GradeRecord) error {
	if !validID(g.ProjectID) {
		return apperrors.ErrNotFound
	}

	grades, err := json.Marshal(g.Grades)
	if err != nil {
		return fmt.Errorf("failed to encode grades: %w", err)
	}

	query := `
		INSERT INTO project_grades (id, project_id, user_id, graded_by, grades, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (project_id, user_id) DO NOTHING
	`

	res, err := r.db.ExecContext(ctx, query, g.ID, g.ProjectID, g.UserID, g.GradedBy, grades, g.CreatedAt)
	return conditionalInsertResult(res, err)
}

func (r *projectRepository) GetGrade(ctx context.Context, projectID, userID string) (*models.GradeRecord, error) {
	if !validID(projectID) || !validID(userID) {
		return nil, apperrors.ErrNotFound
	}

	query := `
		SELECT id, project_id, user_id, graded_by, grades, created_at
		FROM project_grades
		WHERE project_id = $1 AND user_id = $2
	`
	g, err := scanGrade(r.db.QueryRowContext(ctx, query, projectID, userID))
	return g, notFoundOnNoRows(err)
}

// conditionalInsertResult interprets an INSERT ... ON CONFLICT DO NOTHING.
func conditionalInsertResult(res sql.Result, err error) error {
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperrors.ErrNotFound
		}
		if isUniqueViolation(err) {
			return apperrors.ErrConflict
		}
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperrors.ErrConflict
	}
	return nil
}
