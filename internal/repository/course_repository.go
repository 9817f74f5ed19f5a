package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/Imtihan-Edutech/Swanirbhar/internal/apperrors"
	"github.com/Imtihan-Edutech/Swanirbhar/internal/models"
)

type courseRepository struct {
	*PostgresRepository
}

func NewCourseRepository(db *sql.DB, logger zerolog.Logger) CourseRepository {
	return &courseRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

const courseColumns = `c.id, c.course_name, c.course_type, c.short_description, c.description, c.category,
	c.created_by, c.start_date, c.price, c.discount, c.level, c.language,
	c.duration, c.rating, c.status, c.has_completion_certificate, c.has_assignments, c.has_support,
	c.objectives, c.tags, c.created_at, c.updated_at`

func scanCourse(row scanner) (*models.Course, error) {
	c := &models.Course{}
	var startDate sql.NullTime
	err := row.Scan(
		&c.ID,
		&c.CourseName,
		&c.CourseType,
		&c.ShortDescription,
		&c.Description,
		&c.Category,
		&c.CreatedBy,
		&startDate,
		&c.Price,
		&c.Discount,
		&c.Level,
		&c.Language,
		&c.Duration,
		&c.Rating,
		&c.Status,
		&c.HasCompletionCertificate,
		&c.HasAssignments,
		&c.HasSupport,
		pq.Array(&c.Objectives),
		pq.Array(&c.Tags),
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if startDate.Valid {
		c.StartDate = startDate.Time
	}
	c.EnrolledUsers = []string{}
	c.Lessons = []models.Lesson{}
	return c, nil
}

func (r *courseRepository) Create(ctx context.Context, c *models.Course) error {
	query := `
		INSERT INTO courses (id, course_name, course_type, short_description, description, category,
			created_by, start_date, price, discount, level, language, duration, rating, status,
			has_completion_certificate, has_assignments, has_support, objectives, tags, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
	`

	_, err := r.db.ExecContext(ctx, query,
		c.ID,
		c.CourseName,
		c.CourseType,
		c.ShortDescription,
		c.Description,
		c.Category,
		c.CreatedBy,
		nullTime(c.StartDate),
		c.Price,
		c.Discount,
		c.Level,
		c.Language,
		c.Duration,
		c.Rating,
		c.Status,
		c.HasCompletionCertificate,
		c.HasAssignments,
		c.HasSupport,
		pq.Array(nonNil(c.Objectives)),
		pq.Array(nonNil(c.Tags)),
		c.CreatedAt,
		c.UpdatedAt,
	)
	return err
}

func (r *courseRepository) GetByID(ctx context.Context, id string) (*models.Course, error) {
	if !validID(id) {
		return nil, apperrors.ErrNotFound
	}

	query := `SELECT ` + courseColumns + ` FROM courses c WHERE c.id = $1`
	c, err := scanCourse(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFoundOnNoRows(err)
	}

	if err := r.loadChildren(ctx, map[string]*models.Course{c.ID: c}); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *courseRepository) GetByIDs(ctx context.Context, ids []string) (map[string]models.Course, error) {
	result := make(map[string]models.Course, len(ids))
	ids = validIDs(ids)
	if len(ids) == 0 {
		return result, nil
	}

	query := `SELECT ` + courseColumns + ` FROM courses c WHERE c.id = ANY($1)`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to query courses: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		result[c.ID] = *c
	}

	return result, rows.Err()
}

func (r *courseRepository) List(ctx context.Context, f models.CourseFilter) ([]models.Course, int, error) {
	conds := []string{}
	args := []interface{}{}
	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.CourseName != "" {
		add("c.course_name ILIKE $%d", likePattern(f.CourseName))
	}
	if f.CourseType != "" {
		add("c.course_type = $%d", f.CourseType)
	}
	if f.Category != "" {
		add("c.category = $%d", f.Category)
	}
	if f.Level != "" {
		add("c.level = $%d", f.Level)
	}
	if f.Language != "" {
		add("c.language = $%d", f.Language)
	}
	if len(f.Tags) > 0 {
		add("c.tags && $%d", pq.Array(f.Tags))
	}
	if f.CreatedBy != "" {
		if !validID(f.CreatedBy) {
			return []models.Course{}, 0, nil
		}
		add("c.created_by = $%d", f.CreatedBy)
	}
	if f.EnrolledUser != "" {
		if !validID(f.EnrolledUser) {
			return []models.Course{}, 0, nil
		}
		add("EXISTS (SELECT 1 FROM course_enrollments e WHERE e.course_id = c.id AND e.user_id = $%d)", f.EnrolledUser)
	}
	if f.HasCompletionCertificate != nil {
		add("c.has_completion_certificate = $%d", *f.HasCompletionCertificate)
	}
	if f.HasAssignments != nil {
		add("c.has_assignments = $%d", *f.HasAssignments)
	}
	if f.HasSupport != nil {
		add("c.has_support = $%d", *f.HasSupport)
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM courses c`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count courses: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM courses c%s ORDER BY %s LIMIT $%d OFFSET $%d`,
		courseColumns, where, courseOrderBy(f), len(args)+1, len(args)+2)
	args = append(args, limitArg(f.Limit), f.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list courses: %w", err)
	}
	defer rows.Close()

	ptrs := []*models.Course{}
	byID := map[string]*models.Course{}
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, 0, err
		}
		ptrs = append(ptrs, c)
		byID[c.ID] = c
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	if err := r.loadChildren(ctx, byID); err != nil {
		return nil, 0, err
	}

	courses := make([]models.Course, len(ptrs))
	for i, c := range ptrs {
		courses[i] = *c
	}
	return courses, total, nil
}

func courseOrderBy(f models.CourseFilter) string {
	dir := "ASC"
	if f.Descending {
		dir = "DESC"
	}
	switch f.Sort {
	case models.CourseSortPrice:
		return "c.price " + dir + ", c.seq"
	case models.CourseSortRating:
		return "c.rating " + dir + ", c.seq"
	case models.CourseSortStartDate:
		return "c.start_date " + dir + " NULLS LAST, c.seq"
	case models.CourseSortCreatedAt:
		return "c.created_at " + dir + ", c.seq"
	default:
		return "c.seq"
	}
}

func (r *courseRepository) loadChildren(ctx context.Context, byID map[string]*models.Course) error {
	if len(byID) == 0 {
		return nil
	}
	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT course_id, user_id FROM course_enrollments WHERE course_id = ANY($1) ORDER BY seq`,
		pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to load enrollments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var courseID, userID string
		if err := rows.Scan(&courseID, &userID); err != nil {
			return err
		}
		if c, ok := byID[courseID]; ok {
			c.EnrolledUsers = append(c.EnrolledUsers, userID)
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	lessonRows, err := r.db.QueryContext(ctx, `
		SELECT id, course_id, title, video_url, position, created_at
		FROM course_lessons
		WHERE course_id = ANY($1)
		ORDER BY position`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to load lessons: %w", err)
	}
	defer lessonRows.Close()

	for lessonRows.Next() {
		var l models.Lesson
		if err := lessonRows.Scan(&l.ID, &l.CourseID, &l.Title, &l.VideoURL, &l.Position, &l.CreatedAt); err != nil {
			return err
		}
		if c, ok := byID[l.CourseID]; ok {
			c.Lessons = append(c.Lessons, l)
		}
	}

	return lessonRows.Err()
}

func (r *courseRepository) Update(ctx context.Context, c *models.Course) error {
	if !validID(c.ID) {
		return apperrors.ErrNotFound
	}

	query := `
		UPDATE courses
		SET course_name = $2, short_description = $3, description = $4, category = $5, start_date = $6,
			level = $7, language = $8, duration = $9, status = $10, has_completion_certificate = $11,
			has_assignments = $12, has_support = $13, objectives = $14, tags = $15, updated_at = $16
		WHERE id = $1
	`

	return affectedOrNotFound(r.db.ExecContext(ctx, query,
		c.ID,
		c.CourseName,
		c.ShortDescription,
		c.Description,
		c.Category,
		nullTime(c.StartDate),
		c.Level,
		c.Language,
		c.Duration,
		c.Status,
		c.HasCompletionCertificate,
		c.HasAssignments,
		c.HasSupport,
		pq.Array(nonNil(c.Objectives)),
		pq.Array(nonNil(c.Tags)),
		c.UpdatedAt,
	))
}

func (r *courseRepository) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return apperrors.ErrNotFound
	}

	return affectedOrNotFound(r.db.ExecContext(ctx, `DELETE FROM courses WHERE id = $1`, id))
}

func (r *courseRepository) Enroll(ctx context.Context, courseID, userID string) error {
	if !validID(courseID) {
		return apperrors.ErrNotFound
	}

	query := `
		INSERT INTO course_enrollments (course_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (course_id, user_id) DO NOTHING
	`

	return conditionalInsertResult(r.db.ExecContext(ctx, query, courseID, userID))
}

func (r *courseRepository) AddLesson(ctx context.Context, l *models.Lesson) error {
	if !validID(l.CourseID) {
		return apperrors.ErrNotFound
	}

	tx, err := r.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Row lock on the course serialises position assignment.
	var locked string
	err = tx.QueryRowContext(ctx, `SELECT id FROM courses WHERE id = $1 FOR UPDATE`, l.CourseID).Scan(&locked)
	if err != nil {
		return notFoundOnNoRows(err)
	}

	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(position), 0) + 1 FROM course_lessons WHERE course_id = $1`,
		l.CourseID).Scan(&l.Position)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO course_lessons (id, course_id, title, video_url, position, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		l.ID, l.CourseID, l.Title, l.VideoURL, l.Position, l.CreatedAt)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (r *courseRepository) UpdateLesson(ctx context.Context, l *models.Lesson) error {
	if !validID(l.CourseID) || !validID(l.ID) {
		return apperrors.ErrNotFound
	}

	query := `UPDATE course_lessons SET title = $3, video_url = $4 WHERE id = $1 AND course_id = $2`
	return affectedOrNotFound(r.db.ExecContext(ctx, query, l.ID, l.CourseID, l.Title, l.VideoURL))
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
