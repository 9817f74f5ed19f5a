package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Imtihan-Edutech/Swanirbhar/internal/apperrors"
	"github.com/Imtihan-Edutech/Swanirbhar/internal/config"
	"github.com/Imtihan-Edutech/Swanirbhar/internal/metrics"
	"github.com/Imtihan-Edutech/Swanirbhar/internal/models"
	"github.com/Imtihan-Edutech/Swanirbhar/internal/repository"
	"github.com/Imtihan-Edutech/Swanirbhar/internal/service/integration"
	"github.com/Imtihan-Edutech/Swanirbhar/internal/validation"
)

const (
	msgProjectNotFound  = "project not found"
	msgAlreadySubmitted = "you have already submitted a link for this project"
	msgPastDeadline     = "submissions are closed: past deadline"
	msgGradesExist      = "grades already exist for this user"
)

type ProjectService interface {
	Create(ctx context.Context, caller *models.User, req *models.CreateProjectRequest) (*models.Project, error)
	List(ctx context.Context, q models.ProjectListQuery) (*models.ProjectsResponse, error)
	Get(ctx context.Context, id string) (*models.ProjectView, error)
	UpdateDeadline(ctx context.Context, caller *models.User, id string, req *models.UpdateDeadlineRequest) (*models.Project, error)
	Delete(ctx context.Context, caller *models.User, id string) error
	Submit(ctx context.Context, caller *models.User, id string, req *models.SubmitLinkRequest) (*models.Submission, error)
	GiveGrade(ctx context.Context, caller *models.User, id string, req *models.GiveGradeRequest) (*models.GradeRecord, error)
	GetGrade(ctx context.Context, projectID, userID string) (*models.GradeRecord, error)
}

type projectService struct {
	projects  repository.ProjectRepository
	users     repository.UserRepository
	publisher integration.EventPublisher
	cfg       config.ProjectsConfig
	now       func() time.Time
	logger    zerolog.Logger
}

func NewProjectService(
	projects repository.ProjectRepository,
	users repository.UserRepository,
	publisher integration.EventPublisher,
	cfg config.ProjectsConfig,
	logger zerolog.Logger,
) ProjectService {
	return &projectService{
		projects:  projects,
		users:     users,
		publisher: publisher,
		cfg:       cfg,
		now:       time.Now,
		logger:    logger,
	}
}

func parseDeadline(raw string) (time.Time, error) {
	deadline, err := models.ParseDate(raw)
	if err != nil {
		return time.Time{}, apperrors.Validation(err.Error(),
			apperrors.FieldError{Field: "deadline", Error: err.Error()})
	}
	return deadline, nil
}

func (s *projectService) Create(ctx context.Context, caller *models.User, req *models.CreateProjectRequest) (*models.Project, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	if !models.HasCapability(caller, models.RoleEntrepreneur) {
		return nil, apperrors.Forbidden("only entrepreneurs can create projects")
	}
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	deadline, err := parseDeadline(req.Deadline)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	project := &models.Project{
		ID:               uuid.New().String(),
		Title:            req.Title,
		Description:      req.Description,
		Task:             req.Task,
		Prerequisites:    req.Prerequisites,
		SubmissionMethod: req.SubmissionMethod,
		Deadline:         deadline,
		Difficulty:       models.Difficulty(req.Difficulty),
		LearningSkills:   nonNilStrings(req.LearningSkills),
		Club:             req.Club,
		CreatorID:        caller.ID,
		Submissions:      []models.Submission{},
		Grading:          []models.GradeRecord{},
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.projects.Create(ctx, project); err != nil {
		return nil, apperrors.Unexpectedf(err, "failed to create project")
	}

	s.logger.Info().
		Str("project_id", project.ID).
		Str("creator_id", caller.ID).
		Msg("Project created")

	publish(ctx, s.publisher, s.logger, models.EventProjectCreated, models.ProjectCreatedEvent{
		ProjectID: project.ID,
		CreatorID: caller.ID,
		Title:     project.Title,
		Deadline:  project.Deadline.Unix(),
		Timestamp: now.Unix(),
	})

	return project, nil
}

func (s *projectService) List(ctx context.Context, q models.ProjectListQuery) (*models.ProjectsResponse, error) {
	sortBy, ok := models.ParseProjectSort(q.Sort)
	if !ok {
		return nil, apperrors.Validation(fmt.Sprintf("invalid sort %q", q.Sort),
			apperrors.FieldError{Field: "sort", Error: "must be one of created_at, deadline, title"})
	}
	desc, err := parseOrder(q.Order)
	if err != nil {
		return nil, err
	}

	page, limit, offset := paging(q.Page, q.Limit, s.cfg.DefaultPageSize, s.cfg.MaxPageSize)

	projects, total, err := s.projects.List(ctx, models.ProjectFilter{
		Title:      q.Title,
		Club:       q.Club,
		Difficulty: q.Difficulty,
		Sort:       sortBy,
		Descending: desc,
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		return nil, apperrors.Unexpectedf(err, "failed to list projects")
	}

	creatorIDs := make([]string, 0, len(projects))
	for _, p := range projects {
		creatorIDs = append(creatorIDs, p.CreatorID)
	}
	users, err := s.users.GetSummaries(ctx, creatorIDs)
	if err != nil {
		return nil, apperrors.Unexpectedf(err, "failed to resolve project creators")
	}

	now := s.now()
	views := make([]models.ProjectView, 0, len(projects))
	for i := range projects {
		views = append(views, s.view(&projects[i], users, false, now))
	}

	return &models.ProjectsResponse{
		Projects: views,
		Total:    total,
		Pages:    models.Pages(total, limit),
		Page:     page,
		Limit:    limit,
	}, nil
}

func (s *projectService) Get(ctx context.Context, id string) (*models.ProjectView, error) {
	project, err := s.projects.GetByID(ctx, id)
	if err != nil {
		return nil, fromRepo(err, "get project", msgProjectNotFound)
	}

	ids := []string{project.CreatorID}
	for _, sub := range project.Submissions {
		ids = append(ids, sub.SubmittedBy)
	}
	users, err := s.users.GetSummaries(ctx, ids)
	if err != nil {
		return nil, apperrors.Unexpectedf(err, "failed to resolve project users")
	}

	view := s.view(project, users, true, s.now())
	return &view, nil
}

// view builds the response projection. Submitters are resolved only when
// resolveSubmitters is set; listings resolve the creator alone.
func (s *projectService) view(p *models.Project, users map[string]models.UserSummary, resolveSubmitters bool, now time.Time) models.ProjectView {
	view := models.ProjectView{
		Project:     *p,
		Submissions: make([]models.SubmissionView, 0, len(p.Submissions)),
		State:       p.State(now),
		GradedCount: len(p.Grading),
	}
	if creator, ok := users[p.CreatorID]; ok {
		view.Creator = &creator
	}
	for _, sub := range p.Submissions {
		sv := models.SubmissionView{Submission: sub}
		if resolveSubmitters {
			if u, ok := users[sub.SubmittedBy]; ok {
				sv.SubmittedByUser = &u
			}
		}
		view.Submissions = append(view.Submissions, sv)
	}
	if view.Grading == nil {
		view.Grading = []models.GradeRecord{}
	}
	return view
}

func (s *projectService) UpdateDeadline(ctx context.Context, caller *models.User, id string, req *models.UpdateDeadlineRequest) (*models.Project, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	deadline, err := parseDeadline(req.Deadline)
	if err != nil {
		return nil, err
	}

	project, err := s.projects.GetByID(ctx, id)
	if err != nil {
		return nil, fromRepo(err, "get project", msgProjectNotFound)
	}
	if !project.IsCreator(caller.ID) || !models.HasCapability(caller, models.RoleEntrepreneur) {
		return nil, apperrors.Forbidden("only the project creator can update the deadline")
	}

	if err := s.projects.UpdateDeadline(ctx, id, deadline); err != nil {
		return nil, fromRepo(err, "update deadline", msgProjectNotFound)
	}

	s.logger.Info().
		Str("project_id", id).
		Time("deadline", deadline).
		Msg("Project deadline updated")

	project.Deadline = deadline
	project.UpdatedAt = s.now().UTC()
	return project, nil
}

// Delete lets any authenticated caller remove a project; there is no
// ownership check on this path.
func (s *projectService) Delete(ctx context.Context, caller *models.User, id string) error {
	if err := requireCaller(caller); err != nil {
		return err
	}

	if err := s.projects.Delete(ctx, id); err != nil {
		return fromRepo(err, "delete project", msgProjectNotFound)
	}

	s.logger.Info().
		Str("project_id", id).
		Str("deleted_by", caller.ID).
		Msg("Project deleted")

	return nil
}

func (s *projectService) Submit(ctx context.Context, caller *models.User, id string, req *models.SubmitLinkRequest) (*models.Submission, error) {
	submission, err := s.submit(ctx, caller, id, req)
	metrics.ProjectSubmissionsTotal.WithLabelValues(resultLabel(err)).Inc()
	return submission, err
}

func (s *projectService) submit(ctx context.Context, caller *models.User, id string, req *models.SubmitLinkRequest) (*models.Submission, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	project, err := s.projects.GetByID(ctx, id)
	if err != nil {
		return nil, fromRepo(err, "get project", msgProjectNotFound)
	}

	now := s.now().UTC()
	if s.cfg.EnforceDeadline && project.State(now) == models.ProjectStateClosed {
		return nil, apperrors.Conflict(msgPastDeadline)
	}

	submission := &models.Submission{
		ID:          uuid.New().String(),
		ProjectID:   project.ID,
		Link:        req.Link,
		Description: req.Description,
		SubmittedBy: caller.ID,
		SubmittedAt: now,
	}

	if err := s.projects.AddSubmission(ctx, submission); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return nil, apperrors.Conflict(msgAlreadySubmitted)
		}
		return nil, fromRepo(err, "add submission", msgProjectNotFound)
	}

	s.logger.Info().
		Str("project_id", project.ID).
		Str("submission_id", submission.ID).
		Str("user_id", caller.ID).
		Msg("Project link submitted")

	publish(ctx, s.publisher, s.logger, models.EventProjectSubmitted, models.ProjectSubmittedEvent{
		ProjectID:    project.ID,
		SubmissionID: submission.ID,
		SubmittedBy:  caller.ID,
		Link:         submission.Link,
		Timestamp:    now.Unix(),
	})

	return submission, nil
}

func (s *projectService) GiveGrade(ctx context.Context, caller *models.User, id string, req *models.GiveGradeRequest) (*models.GradeRecord, error) {
	record, err := s.giveGrade(ctx, caller, id, req)
	metrics.ProjectGradesTotal.WithLabelValues(resultLabel(err)).Inc()
	return record, err
}

func (s *projectService) giveGrade(ctx context.Context, caller *models.User, id string, req *models.GiveGradeRequest) (*models.GradeRecord, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	project, err := s.projects.GetByID(ctx, id)
	if err != nil {
		return nil, fromRepo(err, "get project", msgProjectNotFound)
	}
	if !project.IsCreator(caller.ID) || !models.HasCapability(caller, models.RoleEntrepreneur) {
		return nil, apperrors.Forbidden("only the project creator can grade submissions")
	}

	now := s.now().UTC()
	record := &models.GradeRecord{
		ID:        uuid.New().String(),
		ProjectID: project.ID,
		UserID:    req.UserID,
		GradedBy:  caller.ID,
		Grades:    req.Grades,
		CreatedAt: now,
	}

	if err := s.projects.AddGrade(ctx, record); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return nil, apperrors.Conflict(msgGradesExist)
		}
		return nil, fromRepo(err, "add grade", msgProjectNotFound)
	}

	s.logger.Info().
		Str("project_id", project.ID).
		Str("user_id", req.UserID).
		Str("graded_by", caller.ID).
		Int("factors", len(req.Grades)).
		Msg("Grades recorded")

	publish(ctx, s.publisher, s.logger, models.EventProjectGraded, models.ProjectGradedEvent{
		ProjectID: project.ID,
		UserID:    req.UserID,
		GradedBy:  caller.ID,
		Grades:    req.Grades,
		Timestamp: now.Unix(),
	})

	return record, nil
}

func (s *projectService) GetGrade(ctx context.Context, projectID, userID string) (*models.GradeRecord, error) {
	if _, err := s.projects.GetByID(ctx, projectID); err != nil {
		return nil, fromRepo(err, "get project", msgProjectNotFound)
	}

	record, err := s.projects.GetGrade(ctx, projectID, userID)
	if err != nil {
		return nil, fromRepo(err, "get grade", "no grades recorded for this user")
	}
	return record, nil
}

func resultLabel(err error) string {
	if err == nil {
		return metrics.ResultOK
	}
	switch apperrors.KindOf(err) {
	case apperrors.KindConflict:
		return metrics.ResultConflict
	case apperrors.KindForbidden, apperrors.KindUnauthorized:
		return metrics.ResultForbidden
	case apperrors.KindNotFound:
		return metrics.ResultNotFound
	case apperrors.KindValidation:
		return metrics.ResultInvalid
	default:
		return metrics.ResultError
	}
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
