package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"golang.org/x/sync/errgroup"

	"github.com/Imtihan-Edutech/Swanirbhar/internal/apperrors"
	"github.com/Imtihan-Edutech/Swanirbhar/internal/config"
	"github.com/Imtihan-Edutech/Swanirbhar/internal/database"
	"github.com/Imtihan-Edutech/Swanirbhar/internal/models"
)

const postgresTestImage = "postgres:16-alpine"

var (
	sharedTestDB     *sql.DB
	sharedTestDBOnce sync.Once
	sharedTestDBErr  error
)

// getTestDB returns a migrated database in a shared container. The
// container is created once per test run and reaped by testcontainers.
func getTestDB(t *testing.T) *sql.DB {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode (requires Docker)")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	sharedTestDBOnce.Do(func() {
		sharedTestDB, sharedTestDBErr = setupTestDB()
	})
	if sharedTestDBErr != nil {
		t.Fatalf("Failed to setup test database: %v", sharedTestDBErr)
	}

	return sharedTestDB
}

func setupTestDB() (*sql.DB, error) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        postgresTestImage,
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_DB":       "swanirbhar_test",
			"POSTGRES_USER":     "swanirbhar",
			"POSTGRES_PASSWORD": "test_password",
		},
		// postgres logs readiness once for the init server and once for the real one
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start test container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get container host: %w", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		return nil, fmt.Errorf("failed to get container port: %w", err)
	}

	cfg := config.DatabaseConfig{
		Driver:          "postgres",
		Host:            host,
		Port:            port.Int(),
		User:            "swanirbhar",
		Password:        "test_password",
		Name:            "swanirbhar_test",
		SSLMode:         "disable",
		MigrationsPath:  "file://../../migrations",
		MaxOpenConns:    32,
		MaxIdleConns:    8,
		ConnMaxLifetime: time.Minute,
	}

	db, err := database.NewPostgres(cfg)
	if err != nil {
		return nil, err
	}
	for i := 0; i < 10; i++ {
		if err = db.PingContext(ctx); err == nil {
			break
		}
		time.Sleep(500 * time.Millisecond)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to ping test database: %w", err)
	}

	migrator, err := database.NewMigrator(cfg)
	if err != nil {
		return nil, err
	}
	if err := migrator.Up(); err != nil {
		return nil, err
	}

	return db, nil
}

func createTestProject(t *testing.T, repo ProjectRepository) *models.Project {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Microsecond)
	p := &models.Project{
		ID:         uuid.New().String(),
		Title:      "Landing Page",
		Deadline:   now.Add(24 * time.Hour),
		Difficulty: models.DifficultyEasy,
		Club:       "Design Club",
		CreatorID:  uuid.New().String(),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	require.NoError(t, repo.Create(context.Background(), p))
	return p
}

func newSubmission(projectID, userID string) *models.Submission {
	return &models.Submission{
		ID:          uuid.New().String(),
		ProjectID:   projectID,
		Link:        "http://x",
		Description: "done",
		SubmittedBy: userID,
		SubmittedAt: time.Now().UTC(),
	}
}

func countRows(t *testing.T, db *sql.DB, query string, args ...interface{}) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRowContext(context.Background(), query, args...).Scan(&n))
	return n
}

func TestPostgresProjectRepository_ConcurrentDuplicateSubmission(t *testing.T) {
	db := getTestDB(t)
	repo := NewProjectRepository(db, zerolog.Nop())
	project := createTestProject(t, repo)
	userID := uuid.New().String()

	const attempts = 24
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := repo.AddSubmission(context.Background(), newSubmission(project.ID, userID))

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, apperrors.ErrConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, attempts-1, conflicts)
	assert.Equal(t, 1, countRows(t, db,
		`SELECT COUNT(*) FROM project_submissions WHERE project_id = $1 AND submitted_by = $2`, project.ID, userID))
}

func TestPostgresProjectRepository_DistinctSubmitters(t *testing.T) {
	db := getTestDB(t)
	repo := NewProjectRepository(db, zerolog.Nop())
	project := createTestProject(t, repo)

	const submitters = 16
	var g errgroup.Group
	for i := 0; i < submitters; i++ {
		g.Go(func() error {
			return repo.AddSubmission(context.Background(), newSubmission(project.ID, uuid.New().String()))
		})
	}
	require.NoError(t, g.Wait())

	got, err := repo.GetByID(context.Background(), project.ID)
	require.NoError(t, err)
	assert.Len(t, got.Submissions, submitters)
}

func TestPostgresProjectRepository_DuplicateGrade(t *testing.T) {
	db := getTestDB(t)
	repo := NewProjectRepository(db, zerolog.Nop())
	project := createTestProject(t, repo)
	ctx := context.Background()
	userID := uuid.New().String()

	record := func() *models.GradeRecord {
		return &models.GradeRecord{
			ID:        uuid.New().String(),
			ProjectID: project.ID,
			UserID:    userID,
			GradedBy:  project.CreatorID,
			Grades:    []models.Grade{{Factor: "quality", Grade: 8}},
			CreatedAt: time.Now().UTC(),
		}
	}

	require.NoError(t, repo.AddGrade(ctx, record()))
	assert.ErrorIs(t, repo.AddGrade(ctx, record()), apperrors.ErrConflict)

	got, err := repo.GetGrade(ctx, project.ID, userID)
	require.NoError(t, err)
	assert.Equal(t, project.CreatorID, got.GradedBy)
	assert.Equal(t, []models.Grade{{Factor: "quality", Grade: 8}}, got.Grades)

	_, err = repo.GetGrade(ctx, project.ID, uuid.New().String())
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestPostgresProjectRepository_DeletedProject(t *testing.T) {
	db := getTestDB(t)
	repo := NewProjectRepository(db, zerolog.Nop())
	project := createTestProject(t, repo)
	ctx := context.Background()

	require.NoError(t, repo.AddSubmission(ctx, newSubmission(project.ID, uuid.New().String())))
	require.NoError(t, repo.Delete(ctx, project.ID))

	assert.ErrorIs(t, repo.AddSubmission(ctx, newSubmission(project.ID, uuid.New().String())), apperrors.ErrNotFound)
	assert.ErrorIs(t, repo.AddGrade(ctx, &models.GradeRecord{
		ID:        uuid.New().String(),
		ProjectID: project.ID,
		UserID:    uuid.New().String(),
		GradedBy:  project.CreatorID,
		Grades:    []models.Grade{{Factor: "quality", Grade: 1}},
		CreatedAt: time.Now().UTC(),
	}), apperrors.ErrNotFound)

	_, err := repo.GetByID(ctx, project.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, project.ID), apperrors.ErrNotFound)
	assert.ErrorIs(t, repo.UpdateDeadline(ctx, project.ID, time.Now()), apperrors.ErrNotFound)
	assert.Zero(t, countRows(t, db, `SELECT COUNT(*) FROM project_submissions WHERE project_id = $1`, project.ID))

	_, err = repo.GetByID(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestPostgresProjectRepository_ListFilterAndNoLimit(t *testing.T) {
	db := getTestDB(t)
	repo := NewProjectRepository(db, zerolog.Nop())
	ctx := context.Background()

	club := "club-" + uuid.New().String()
	for i := 0; i < 3; i++ {
		p := createTestProject(t, repo)
		_, err := db.ExecContext(ctx, `UPDATE projects SET club = $2 WHERE id = $1`, p.ID, club)
		require.NoError(t, err)
	}

	all, total, err := repo.List(ctx, models.ProjectFilter{Club: club})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, all, 3)

	paged, total, err := repo.List(ctx, models.ProjectFilter{Club: club, Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, paged, 1)
}

func TestPostgresCourseRepository_ConcurrentEnroll(t *testing.T) {
	db := getTestDB(t)
	repo := NewCourseRepository(db, zerolog.Nop())
	ctx := context.Background()

	now := time.Now().UTC()
	course := &models.Course{
		ID:         uuid.New().String(),
		CourseName: "Go for Builders",
		CourseType: models.CourseTypeVideo,
		Category:   "Programming",
		CreatedBy:  uuid.New().String(),
		Price:      900,
		Status:     models.CourseStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	require.NoError(t, repo.Create(ctx, course))

	userID := uuid.New().String()
	const attempts = 16
	results := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = repo.Enroll(ctx, course.ID, userID)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, apperrors.ErrConflict)
	}
	assert.Equal(t, 1, succeeded)

	got, err := repo.GetByID(ctx, course.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{userID}, got.EnrolledUsers)

	assert.ErrorIs(t, repo.Enroll(ctx, uuid.New().String(), userID), apperrors.ErrNotFound)
}

func TestPostgresCourseRepository_Lessons(t *testing.T) {
	db := getTestDB(t)
	repo := NewCourseRepository(db, zerolog.Nop())
	ctx := context.Background()

	now := time.Now().UTC()
	course := &models.Course{
		ID:         uuid.New().String(),
		CourseName: "Soldering 101",
		CourseType: models.CourseTypePhysical,
		Category:   "Electronics",
		CreatedBy:  uuid.New().String(),
		Status:     models.CourseStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	require.NoError(t, repo.Create(ctx, course))

	for _, title := range []string{"Safety", "Joints"} {
		require.NoError(t, repo.AddLesson(ctx, &models.Lesson{
			ID:        uuid.New().String(),
			CourseID:  course.ID,
			Title:     title,
			CreatedAt: now,
		}))
	}

	got, err := repo.GetByID(ctx, course.ID)
	require.NoError(t, err)
	require.Len(t, got.Lessons, 2)
	assert.Equal(t, 1, got.Lessons[0].Position)
	assert.Equal(t, 2, got.Lessons[1].Position)

	err = repo.AddLesson(ctx, &models.Lesson{ID: uuid.New().String(), CourseID: uuid.New().String(), Title: "x", CreatedAt: now})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestPostgresUserRepository_EmailUnique(t *testing.T) {
	db := getTestDB(t)
	repo := NewUserRepository(db, zerolog.Nop())
	ctx := context.Background()

	email := uuid.New().String() + "@example.com"
	newUser := func() *models.User {
		now := time.Now().UTC()
		return &models.User{
			ID:           uuid.New().String(),
			FullName:     "Asha Rao",
			Email:        email,
			PasswordHash: []byte("hash"),
			Role:         models.RoleUser,
			Status:       models.UserStatusActive,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
	}

	first := newUser()
	require.NoError(t, repo.Create(ctx, first))
	assert.ErrorIs(t, repo.Create(ctx, newUser()), apperrors.ErrConflict)

	got, err := repo.GetByEmail(ctx, email)
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
}

func TestPostgresWishlistRepository(t *testing.T) {
	db := getTestDB(t)
	courses := NewCourseRepository(db, zerolog.Nop())
	repo := NewWishlistRepository(db, zerolog.Nop())
	ctx := context.Background()

	now := time.Now().UTC()
	courseID := uuid.New().String()
	require.NoError(t, courses.Create(ctx, &models.Course{
		ID:         courseID,
		CourseName: "Pottery",
		CourseType: models.CourseTypeLive,
		Category:   "Crafts",
		CreatedBy:  uuid.New().String(),
		Status:     models.CourseStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}))

	userID := uuid.New().String()
	item := &models.WishlistItem{UserID: userID, CourseID: courseID, AddedAt: now}
	require.NoError(t, repo.Add(ctx, item))
	assert.ErrorIs(t, repo.Add(ctx, item), apperrors.ErrConflict)
	assert.ErrorIs(t, repo.Add(ctx, &models.WishlistItem{UserID: userID, CourseID: uuid.New().String(), AddedAt: now}),
		apperrors.ErrNotFound)

	items, err := repo.List(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	require.NoError(t, repo.Remove(ctx, userID, courseID))
	assert.ErrorIs(t, repo.Remove(ctx, userID, courseID), apperrors.ErrNotFound)
}

func TestPostgresContentRepository_KindAndComments(t *testing.T) {
	db := getTestDB(t)
	repo := NewContentRepository(db, zerolog.Nop())
	ctx := context.Background()

	now := time.Now().UTC()
	content := &models.Content{
		ID:        uuid.New().String(),
		Kind:      models.ContentKindBlog,
		Title:     "Village solar",
		CreatedBy: uuid.New().String(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, repo.Create(ctx, content))

	_, err := repo.GetByID(ctx, models.ContentKindArticle, content.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	require.NoError(t, repo.AddComment(ctx, &models.Comment{
		ID:        uuid.New().String(),
		ContentID: content.ID,
		UserID:    uuid.New().String(),
		Comment:   "Inspiring",
		CreatedAt: now,
	}))

	got, err := repo.GetByID(ctx, models.ContentKindBlog, content.ID)
	require.NoError(t, err)
	require.Len(t, got.Comments, 1)
	assert.Equal(t, "Inspiring", got.Comments[0].Comment)

	require.NoError(t, repo.Delete(ctx, models.ContentKindBlog, content.ID))
	err = repo.AddComment(ctx, &models.Comment{
		ID:        uuid.New().String(),
		ContentID: content.ID,
		UserID:    uuid.New().String(),
		Comment:   "Too late",
		CreatedAt: now,
	})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestPostgresPromptRepository(t *testing.T) {
	db := getTestDB(t)
	repo := NewPromptRepository(db, zerolog.Nop())
	ctx := context.Background()

	category := "cat-" + uuid.New().String()
	now := time.Now().UTC()
	newPrompt := func(title string) *models.Prompt {
		return &models.Prompt{
			ID:        uuid.New().String(),
			Title:     title + " " + category,
			Category:  category,
			Prompts:   []string{"Summarise [text]"},
			CreatedAt: now,
		}
	}

	first := newPrompt("Summarise a Report")
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, newPrompt("Plan a Lesson")))
	assert.ErrorIs(t, repo.Create(ctx, newPrompt("Summarise a Report")), apperrors.ErrConflict)

	got, err := repo.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, first.Prompts, got.Prompts)
	assert.Equal(t, []string{}, got.Tips)

	items, total, err := repo.List(ctx, models.PromptFilter{Title: "summarise", Category: category})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, first.ID, items[0].ID)

	items, total, err = repo.List(ctx, models.PromptFilter{Category: category, Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, items, 1)
	assert.Contains(t, items[0].Title, "Plan a Lesson")

	_, err = repo.GetByID(ctx, uuid.New().String())
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	_, err = repo.GetByID(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
