package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Imtihan-Edutech/Swanirbhar/internal/apperrors"
	"github.com/Imtihan-Edutech/Swanirbhar/internal/metrics"
	"github.com/Imtihan-Edutech/Swanirbhar/internal/models"
	"github.com/Imtihan-Edutech/Swanirbhar/internal/repository"
	"github.com/Imtihan-Edutech/Swanirbhar/internal/service/integration"
	"github.com/Imtihan-Edutech/Swanirbhar/internal/validation"
)

const (
	msgCourseNotFound     = "course not found"
	msgAlreadyEnrolled    = "you are already enrolled in this course"
	defaultCoursePageSize = 12
	maxCoursePageSize     = 100
)

type CourseService interface {
	Create(ctx context.Context, caller *models.User, req *models.CreateCourseRequest) (*models.Course, error)
	List(ctx context.Context, q models.CourseListQuery) (*models.CoursesResponse, error)
	Get(ctx context.Context, id string) (*models.CourseView, error)
	MyAdded(ctx context.Context, caller *models.User) ([]models.Course, error)
	MyEnrolled(ctx context.Context, caller *models.User) ([]models.Course, error)
	Update(ctx context.Context, caller *models.User, id string, req *models.UpdateCourseRequest) (*models.Course, error)
	AddLesson(ctx context.Context, caller *models.User, courseID string, req *models.LessonRequest) (*models.Lesson, error)
	UpdateLesson(ctx context.Context, caller *models.User, courseID, lessonID string, req *models.LessonRequest) (*models.Lesson, error)
	Enroll(ctx context.Context, caller *models.User, courseID string) error
	Delete(ctx context.Context, caller *models.User, id string) error
}

type courseService struct {
	courses   repository.CourseRepository
	users     repository.UserRepository
	publisher integration.EventPublisher
	now       func() time.Time
	logger    zerolog.Logger
}

func NewCourseService(
	courses repository.CourseRepository,
	users repository.UserRepository,
	publisher integration.EventPublisher,
	logger zerolog.Logger,
) CourseService {
	return &courseService{
		courses:   courses,
		users:     users,
		publisher: publisher,
		now:       time.Now,
		logger:    logger,
	}
}

func parseStartDate(raw string) (time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return time.Time{}, nil
	}
	t, err := models.ParseDate(raw)
	if err != nil {
		return time.Time{}, apperrors.Validation(err.Error(),
			apperrors.FieldError{Field: "start_date", Error: err.Error()})
	}
	return t, nil
}

func (s *courseService) Create(ctx context.Context, caller *models.User, req *models.CreateCourseRequest) (*models.Course, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	if !models.HasCapability(caller, models.RoleFreelancer) {
		return nil, apperrors.Forbidden("only freelancers can create courses")
	}
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	startDate, err := parseStartDate(req.StartDate)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	course := &models.Course{
		ID:                       uuid.New().String(),
		CourseName:               strings.TrimSpace(req.CourseName),
		CourseType:               req.CourseType,
		ShortDescription:         req.ShortDescription,
		Description:              req.Description,
		Category:                 req.Category,
		CreatedBy:                caller.ID,
		StartDate:                startDate,
		Price:                    models.FinalPrice(req.Price, req.Discount),
		Discount:                 req.Discount,
		Level:                    req.Level,
		Language:                 req.Language,
		Duration:                 req.Duration,
		Status:                   models.CourseStatusPending,
		HasCompletionCertificate: req.HasCompletionCertificate,
		HasAssignments:           req.HasAssignments,
		HasSupport:               req.HasSupport,
		Objectives:               nonNilStrings(req.Objectives),
		Tags:                     nonNilStrings(req.Tags),
		EnrolledUsers:            []string{},
		Lessons:                  []models.Lesson{},
		CreatedAt:                now,
		UpdatedAt:                now,
	}

	if err := s.courses.Create(ctx, course); err != nil {
		return nil, apperrors.Unexpectedf(err, "failed to create course")
	}

	s.logger.Info().
		Str("course_id", course.ID).
		Str("creator_id", caller.ID).
		Float64("price", course.Price).
		Msg("Course created")

	return course, nil
}

func (s *courseService) List(ctx context.Context, q models.CourseListQuery) (*models.CoursesResponse, error) {
	desc, err := parseOrder(q.Order)
	if err != nil {
		return nil, err
	}
	page, limit, offset := paging(q.Page, q.Limit, defaultCoursePageSize, maxCoursePageSize)

	courses, total, err := s.courses.List(ctx, models.CourseFilter{
		CourseName:               q.CourseName,
		CourseType:               q.CourseType,
		Category:                 q.Category,
		Level:                    q.Level,
		Language:                 q.Language,
		Tags:                     q.Tags,
		HasCompletionCertificate: q.HasCompletionCertificate,
		HasAssignments:           q.HasAssignments,
		HasSupport:               q.HasSupport,
		Sort:                     models.ParseCourseSort(q.Sort),
		Descending:               desc,
		Limit:                    limit,
		Offset:                   offset,
	})
	if err != nil {
		return nil, apperrors.Unexpectedf(err, "failed to list courses")
	}

	ids := make([]string, 0, len(courses))
	for _, c := range courses {
		ids = append(ids, c.CreatedBy)
	}
	users, err := s.users.GetSummaries(ctx, ids)
	if err != nil {
		return nil, apperrors.Unexpectedf(err, "failed to resolve course creators")
	}

	views := make([]models.CourseView, 0, len(courses))
	for _, c := range courses {
		views = append(views, courseView(c, users))
	}

	return &models.CoursesResponse{
		Courses: views,
		Total:   total,
		Pages:   models.Pages(total, limit),
		Page:    page,
		Limit:   limit,
	}, nil
}

func courseView(c models.Course, users map[string]models.UserSummary) models.CourseView {
	view := models.CourseView{Course: c}
	if creator, ok := users[c.CreatedBy]; ok {
		view.Creator = &creator
	}
	return view
}

func (s *courseService) Get(ctx context.Context, id string) (*models.CourseView, error) {
	course, err := s.courses.GetByID(ctx, id)
	if err != nil {
		return nil, fromRepo(err, "get course", msgCourseNotFound)
	}

	users, err := s.users.GetSummaries(ctx, []string{course.CreatedBy})
	if err != nil {
		return nil, apperrors.Unexpectedf(err, "failed to resolve course creator")
	}

	view := courseView(*course, users)
	return &view, nil
}

func (s *courseService) MyAdded(ctx context.Context, caller *models.User) ([]models.Course, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	courses, _, err := s.courses.List(ctx, models.CourseFilter{CreatedBy: caller.ID})
	if err != nil {
		return nil, apperrors.Unexpectedf(err, "failed to list added courses")
	}
	return courses, nil
}

func (s *courseService) MyEnrolled(ctx context.Context, caller *models.User) ([]models.Course, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	courses, _, err := s.courses.List(ctx, models.CourseFilter{EnrolledUser: caller.ID})
	if err != nil {
		return nil, apperrors.Unexpectedf(err, "failed to list enrolled courses")
	}
	return courses, nil
}

// ownedCourse loads a course and checks that caller created it.
func (s *courseService) ownedCourse(ctx context.Context, caller *models.User, id, action string) (*models.Course, error) {
	course, err := s.courses.GetByID(ctx, id)
	if err != nil {
		return nil, fromRepo(err, "get course", msgCourseNotFound)
	}
	if course.CreatedBy != caller.ID || !caller.IsActive() {
		return nil, apperrors.Forbidden("only the course creator can " + action)
	}
	return course, nil
}

func (s *courseService) Update(ctx context.Context, caller *models.User, id string, req *models.UpdateCourseRequest) (*models.Course, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	course, err := s.ownedCourse(ctx, caller, id, "update it")
	if err != nil {
		return nil, err
	}

	if req.CourseName != nil {
		course.CourseName = strings.TrimSpace(*req.CourseName)
	}
	if req.ShortDescription != nil {
		course.ShortDescription = *req.ShortDescription
	}
	if req.Description != nil {
		course.Description = *req.Description
	}
	if req.Category != nil {
		course.Category = *req.Category
	}
	if req.StartDate != nil {
		startDate, err := parseStartDate(*req.StartDate)
		if err != nil {
			return nil, err
		}
		course.StartDate = startDate
	}
	if req.Level != nil {
		course.Level = *req.Level
	}
	if req.Language != nil {
		course.Language = *req.Language
	}
	if req.Duration != nil {
		course.Duration = *req.Duration
	}
	if req.Status != nil {
		course.Status = *req.Status
	}
	if req.HasCompletionCertificate != nil {
		course.HasCompletionCertificate = *req.HasCompletionCertificate
	}
	if req.HasAssignments != nil {
		course.HasAssignments = *req.HasAssignments
	}
	if req.HasSupport != nil {
		course.HasSupport = *req.HasSupport
	}
	if req.Objectives != nil {
		course.Objectives = req.Objectives
	}
	if req.Tags != nil {
		course.Tags = req.Tags
	}
	course.UpdatedAt = s.now().UTC()

	if err := s.courses.Update(ctx, course); err != nil {
		return nil, fromRepo(err, "update course", msgCourseNotFound)
	}
	return course, nil
}

func (s *courseService) AddLesson(ctx context.Context, caller *models.User, courseID string, req *models.LessonRequest) (*models.Lesson, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	if _, err := s.ownedCourse(ctx, caller, courseID, "add lessons"); err != nil {
		return nil, err
	}

	lesson := &models.Lesson{
		ID:        uuid.New().String(),
		CourseID:  courseID,
		Title:     strings.TrimSpace(req.Title),
		VideoURL:  req.VideoURL,
		CreatedAt: s.now().UTC(),
	}
	if err := s.courses.AddLesson(ctx, lesson); err != nil {
		return nil, fromRepo(err, "add lesson", msgCourseNotFound)
	}

	s.logger.Info().
		Str("course_id", courseID).
		Str("lesson_id", lesson.ID).
		Int("position", lesson.Position).
		Msg("Lesson added")

	return lesson, nil
}

func (s *courseService) UpdateLesson(ctx context.Context, caller *models.User, courseID, lessonID string, req *models.LessonRequest) (*models.Lesson, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	course, err := s.ownedCourse(ctx, caller, courseID, "edit lessons")
	if err != nil {
		return nil, err
	}

	var lesson *models.Lesson
	for i := range course.Lessons {
		if course.Lessons[i].ID == lessonID {
			lesson = &course.Lessons[i]
			break
		}
	}
	if lesson == nil {
		return nil, apperrors.NotFound("lesson not found")
	}

	lesson.Title = strings.TrimSpace(req.Title)
	lesson.VideoURL = req.VideoURL
	if err := s.courses.UpdateLesson(ctx, lesson); err != nil {
		return nil, fromRepo(err, "update lesson", "lesson not found")
	}
	return lesson, nil
}

func (s *courseService) Enroll(ctx context.Context, caller *models.User, courseID string) error {
	err := s.enroll(ctx, caller, courseID)
	metrics.CourseEnrollmentsTotal.WithLabelValues(resultLabel(err)).Inc()
	return err
}

func (s *courseService) enroll(ctx context.Context, caller *models.User, courseID string) error {
	if err := requireCaller(caller); err != nil {
		return err
	}

	if err := s.courses.Enroll(ctx, courseID, caller.ID); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return apperrors.Conflict(msgAlreadyEnrolled)
		}
		return fromRepo(err, "enroll", msgCourseNotFound)
	}

	s.logger.Info().
		Str("course_id", courseID).
		Str("user_id", caller.ID).
		Msg("User enrolled in course")

	publish(ctx, s.publisher, s.logger, models.EventCourseEnrolled, models.CourseEnrolledEvent{
		CourseID:  courseID,
		UserID:    caller.ID,
		Timestamp: s.now().Unix(),
	})

	return nil
}

func (s *courseService) Delete(ctx context.Context, caller *models.User, id string) error {
	if err := requireCaller(caller); err != nil {
		return err
	}

	course, err := s.courses.GetByID(ctx, id)
	if err != nil {
		return fromRepo(err, "get course", msgCourseNotFound)
	}
	if course.CreatedBy != caller.ID && !models.HasCapability(caller, models.RoleAdmin) {
		return apperrors.Forbidden("only the course creator or an admin can delete it")
	}

	if err := s.courses.Delete(ctx, id); err != nil {
		return fromRepo(err, "delete course", msgCourseNotFound)
	}

	s.logger.Info().
		Str("course_id", id).
		Str("deleted_by", caller.ID).
		Msg("Course deleted")

	return nil
}
