package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/Imtihan-Edutech/Swanirbhar/internal/apperrors"
	"github.com/Imtihan-Edutech/Swanirbhar/internal/config"
	"github.com/Imtihan-Edutech/Swanirbhar/internal/models"
)

func landingPage() *models.CreateProjectRequest {
	return &models.CreateProjectRequest{
		Title:      "Landing Page",
		Difficulty: "Easy",
		Deadline:   "2099-01-01",
		Club:       "Design Club",
	}
}

func TestProjectService_Scenario(t *testing.T) {
	f := newFixture(t)
	svc := f.projectService(defaultProjectsConfig())
	ctx := context.Background()

	project, err := svc.Create(ctx, f.entrepreneur, landingPage())
	require.NoError(t, err)
	assert.Equal(t, f.entrepreneur.ID, project.CreatorID)
	assert.Equal(t, models.DifficultyEasy, project.Difficulty)
	assert.True(t, time.Date(2099, 1, 1, 0, 0, 0, 0, time.UTC).Equal(project.Deadline))

	view, err := svc.Get(ctx, project.ID)
	require.NoError(t, err)
	assert.Empty(t, view.Submissions)
	assert.NotNil(t, view.Submissions)
	require.NotNil(t, view.Creator)
	assert.Equal(t, "Asha Rao", view.Creator.FullName)
	assert.Equal(t, models.ProjectStateOpen, view.State)

	_, err = svc.Submit(ctx, f.learner, project.ID, &models.SubmitLinkRequest{Link: "http://x", Description: "done"})
	require.NoError(t, err)

	view, err = svc.Get(ctx, project.ID)
	require.NoError(t, err)
	require.Len(t, view.Submissions, 1)
	require.NotNil(t, view.Submissions[0].SubmittedByUser)
	assert.Equal(t, "Ravi Kumar", view.Submissions[0].SubmittedByUser.FullName)

	_, err = svc.Submit(ctx, f.learner, project.ID, &models.SubmitLinkRequest{Link: "http://y"})
	assertKind(t, err, apperrors.KindConflict)
	assert.Contains(t, err.Error(), "already submitted")

	grade := &models.GiveGradeRequest{UserID: f.learner.ID, Grades: []models.Grade{{Factor: "quality", Grade: 8}}}
	record, err := svc.GiveGrade(ctx, f.entrepreneur, project.ID, grade)
	require.NoError(t, err)
	assert.Equal(t, f.entrepreneur.ID, record.GradedBy)

	_, err = svc.GiveGrade(ctx, f.outsider, project.ID, grade)
	assertKind(t, err, apperrors.KindForbidden)

	got, err := svc.GetGrade(ctx, project.ID, f.learner.ID)
	require.NoError(t, err)
	assert.Equal(t, []models.Grade{{Factor: "quality", Grade: 8}}, got.Grades)

	assert.Equal(t, []string{
		models.EventProjectCreated,
		models.EventProjectSubmitted,
		models.EventProjectGraded,
	}, f.publisher.keys())
}

func TestProjectService_CreateChecks(t *testing.T) {
	f := newFixture(t)
	svc := f.projectService(defaultProjectsConfig())
	ctx := context.Background()

	_, err := svc.Create(ctx, f.learner, landingPage())
	assertKind(t, err, apperrors.KindForbidden)

	_, err = svc.Create(ctx, nil, landingPage())
	assertKind(t, err, apperrors.KindUnauthorized)

	// capability is checked before input
	_, err = svc.Create(ctx, f.learner, &models.CreateProjectRequest{})
	assertKind(t, err, apperrors.KindForbidden)

	_, err = svc.Create(ctx, f.entrepreneur, &models.CreateProjectRequest{Title: "  ", Difficulty: "Easy", Deadline: "2099-01-01"})
	assertKind(t, err, apperrors.KindValidation)

	req := landingPage()
	req.Deadline = "next tuesday"
	_, err = svc.Create(ctx, f.entrepreneur, req)
	assertKind(t, err, apperrors.KindValidation)

	req = landingPage()
	req.Difficulty = "Impossible"
	_, err = svc.Create(ctx, f.entrepreneur, req)
	assertKind(t, err, apperrors.KindValidation)

	_, err = svc.Create(ctx, f.admin, landingPage())
	assert.NoError(t, err)

	suspended := *f.entrepreneur
	suspended.Status = models.UserStatusSuspended
	_, err = svc.Create(ctx, &suspended, landingPage())
	assertKind(t, err, apperrors.KindForbidden)
}

func TestProjectService_SubmitCheckOrder(t *testing.T) {
	f := newFixture(t)
	svc := f.projectService(defaultProjectsConfig())
	ctx := context.Background()

	// empty link wins over unknown project
	_, err := svc.Submit(ctx, f.learner, "missing", &models.SubmitLinkRequest{Link: ""})
	assertKind(t, err, apperrors.KindValidation)

	_, err = svc.Submit(ctx, f.learner, "missing", &models.SubmitLinkRequest{Link: "http://x"})
	assertKind(t, err, apperrors.KindNotFound)
}

func TestProjectService_SubmitPastDeadline(t *testing.T) {
	f := newFixture(t)
	svc := f.projectService(defaultProjectsConfig())
	ctx := context.Background()

	project, err := svc.Create(ctx, f.entrepreneur, landingPage())
	require.NoError(t, err)

	svc.now = fixedClock(time.Date(2099, 1, 2, 0, 0, 0, 0, time.UTC))
	_, err = svc.Submit(ctx, f.learner, project.ID, &models.SubmitLinkRequest{Link: "http://x"})
	assertKind(t, err, apperrors.KindConflict)
	assert.Contains(t, err.Error(), "past deadline")

	view, err := svc.Get(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProjectStateClosed, view.State)
	assert.Empty(t, view.Submissions)

	lenient := f.projectService(config.ProjectsConfig{EnforceDeadline: false, DefaultPageSize: 60})
	lenient.now = svc.now
	_, err = lenient.Submit(ctx, f.learner, project.ID, &models.SubmitLinkRequest{Link: "http://x"})
	assert.NoError(t, err)
}

func TestProjectService_ConcurrentDuplicateSubmit(t *testing.T) {
	f := newFixture(t)
	svc := f.projectService(defaultProjectsConfig())
	ctx := context.Background()

	project, err := svc.Create(ctx, f.entrepreneur, landingPage())
	require.NoError(t, err)

	const attempts = 32
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)
	start := make(chan struct{})
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := svc.Submit(ctx, f.learner, project.ID, &models.SubmitLinkRequest{Link: "http://x"})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
			} else if apperrors.Is(err, apperrors.KindConflict) {
				conflicts++
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, attempts-1, conflicts)

	view, err := svc.Get(ctx, project.ID)
	require.NoError(t, err)
	assert.Len(t, view.Submissions, 1)
}

func TestProjectService_DistinctSubmitters(t *testing.T) {
	f := newFixture(t)
	svc := f.projectService(defaultProjectsConfig())
	ctx := context.Background()

	project, err := svc.Create(ctx, f.entrepreneur, landingPage())
	require.NoError(t, err)

	const submitters = 25
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < submitters; i++ {
		caller := &models.User{ID: fmt.Sprintf("learner-%d", i), Role: models.RoleUser}
		g.Go(func() error {
			_, err := svc.Submit(gctx, caller, project.ID, &models.SubmitLinkRequest{Link: "http://x/" + caller.ID})
			return err
		})
	}
	require.NoError(t, g.Wait())

	view, err := svc.Get(ctx, project.ID)
	require.NoError(t, err)
	require.Len(t, view.Submissions, submitters)

	seen := make(map[string]bool)
	for _, s := range view.Submissions {
		assert.False(t, seen[s.SubmittedBy], "duplicate submitter %s", s.SubmittedBy)
		seen[s.SubmittedBy] = true
	}
}

func TestProjectService_GiveGradeChecks(t *testing.T) {
	f := newFixture(t)
	svc := f.projectService(defaultProjectsConfig())
	ctx := context.Background()

	project, err := svc.Create(ctx, f.entrepreneur, landingPage())
	require.NoError(t, err)
	grade := &models.GiveGradeRequest{UserID: f.learner.ID, Grades: []models.Grade{{Factor: "quality", Grade: 8}}}

	_, err = svc.GiveGrade(ctx, f.entrepreneur, "missing", grade)
	assertKind(t, err, apperrors.KindNotFound)

	_, err = svc.GiveGrade(ctx, f.entrepreneur, project.ID, &models.GiveGradeRequest{UserID: f.learner.ID})
	assertKind(t, err, apperrors.KindValidation)

	_, err = svc.GiveGrade(ctx, f.entrepreneur, project.ID, &models.GiveGradeRequest{
		UserID: f.learner.ID,
		Grades: []models.Grade{{Factor: "", Grade: 3}},
	})
	assertKind(t, err, apperrors.KindValidation)

	_, err = svc.GiveGrade(ctx, f.entrepreneur, project.ID, grade)
	require.NoError(t, err)

	_, err = svc.GiveGrade(ctx, f.entrepreneur, project.ID, grade)
	assertKind(t, err, apperrors.KindConflict)
	assert.Contains(t, err.Error(), "grades already exist")

	view, err := svc.Get(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, view.GradedCount)

	_, err = svc.GetGrade(ctx, project.ID, f.outsider.ID)
	assertKind(t, err, apperrors.KindNotFound)
}

func TestProjectService_GiveGradeCheckOrder(t *testing.T) {
	f := newFixture(t)
	svc := f.projectService(defaultProjectsConfig())
	ctx := context.Background()

	project, err := svc.Create(ctx, f.entrepreneur, landingPage())
	require.NoError(t, err)

	// the grading scale is the creator's choice; negative and unknown-target grades are stored as given
	penalty := &models.GiveGradeRequest{UserID: "external-reviewer", Grades: []models.Grade{{Factor: "late", Grade: -2.5}}}
	record, err := svc.GiveGrade(ctx, f.entrepreneur, project.ID, penalty)
	require.NoError(t, err)
	assert.Equal(t, -2.5, record.Grades[0].Grade)

	_, err = svc.GiveGrade(ctx, f.outsider, project.ID, penalty)
	assertKind(t, err, apperrors.KindForbidden)

	_, err = svc.GiveGrade(ctx, f.entrepreneur, project.ID, penalty)
	assertKind(t, err, apperrors.KindConflict)

	_, err = svc.GiveGrade(ctx, f.outsider, "missing", penalty)
	assertKind(t, err, apperrors.KindNotFound)

	got, err := svc.GetGrade(ctx, project.ID, "external-reviewer")
	require.NoError(t, err)
	assert.Equal(t, penalty.Grades, got.Grades)
}

func TestProjectService_UpdateDeadline(t *testing.T) {
	f := newFixture(t)
	svc := f.projectService(defaultProjectsConfig())
	ctx := context.Background()

	project, err := svc.Create(ctx, f.entrepreneur, landingPage())
	require.NoError(t, err)

	_, err = svc.UpdateDeadline(ctx, f.learner, project.ID, &models.UpdateDeadlineRequest{Deadline: "2100-06-01"})
	assertKind(t, err, apperrors.KindForbidden)

	view, err := svc.Get(ctx, project.ID)
	require.NoError(t, err)
	assert.True(t, project.Deadline.Equal(view.Deadline))

	_, err = svc.UpdateDeadline(ctx, f.entrepreneur, project.ID, &models.UpdateDeadlineRequest{})
	assertKind(t, err, apperrors.KindValidation)

	_, err = svc.UpdateDeadline(ctx, f.entrepreneur, "missing", &models.UpdateDeadlineRequest{Deadline: "2100-06-01"})
	assertKind(t, err, apperrors.KindNotFound)

	updated, err := svc.UpdateDeadline(ctx, f.entrepreneur, project.ID, &models.UpdateDeadlineRequest{Deadline: "2100-06-01T10:30:00+05:30"})
	require.NoError(t, err)
	want := time.Date(2100, 6, 1, 5, 0, 0, 0, time.UTC)
	assert.True(t, want.Equal(updated.Deadline))

	view, err = svc.Get(ctx, project.ID)
	require.NoError(t, err)
	assert.True(t, want.Equal(view.Deadline))
}

func TestProjectService_DeleteAnyAuthenticatedCaller(t *testing.T) {
	f := newFixture(t)
	svc := f.projectService(defaultProjectsConfig())
	ctx := context.Background()

	project, err := svc.Create(ctx, f.entrepreneur, landingPage())
	require.NoError(t, err)

	assertKind(t, svc.Delete(ctx, nil, project.ID), apperrors.KindUnauthorized)
	require.NoError(t, svc.Delete(ctx, f.outsider, project.ID))
	assertKind(t, svc.Delete(ctx, f.outsider, project.ID), apperrors.KindNotFound)

	_, err = svc.Get(ctx, project.ID)
	assertKind(t, err, apperrors.KindNotFound)
}

func TestProjectService_List(t *testing.T) {
	f := newFixture(t)
	svc := f.projectService(config.ProjectsConfig{EnforceDeadline: true, DefaultPageSize: 2, MaxPageSize: 10})
	ctx := context.Background()

	for _, title := range []string{"Charlie Design", "Alpha Build", "Bravo Design"} {
		req := landingPage()
		req.Title = title
		if strings.HasSuffix(title, "Build") {
			req.Club = "Builders"
		}
		_, err := svc.Create(ctx, f.entrepreneur, req)
		require.NoError(t, err)
	}

	resp, err := svc.List(ctx, models.ProjectListQuery{})
	require.NoError(t, err)
	assert.Equal(t, 3, resp.Total)
	assert.Equal(t, 2, resp.Pages)
	assert.Equal(t, 2, resp.Limit)
	require.Len(t, resp.Projects, 2)
	assert.Equal(t, "Charlie Design", resp.Projects[0].Title)
	require.NotNil(t, resp.Projects[0].Creator)

	resp, err = svc.List(ctx, models.ProjectListQuery{Title: "design", Sort: "title", Order: "desc"})
	require.NoError(t, err)
	require.Len(t, resp.Projects, 2)
	assert.Equal(t, "Charlie Design", resp.Projects[0].Title)
	assert.Equal(t, "Bravo Design", resp.Projects[1].Title)

	resp, err = svc.List(ctx, models.ProjectListQuery{Club: "Builders"})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Total)

	_, err = svc.List(ctx, models.ProjectListQuery{Sort: "popularity"})
	assertKind(t, err, apperrors.KindValidation)
}
