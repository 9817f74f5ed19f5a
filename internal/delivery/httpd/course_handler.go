package httpd

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Imtihan-Edutech/Swanirbhar/internal/models"
	"github.com/Imtihan-Edutech/Swanirbhar/pkg/utils"
)

func (h *Handler) CreateCourse(w http.ResponseWriter, r *http.Request) {
	var req models.CreateCourseRequest
	if !h.decode(w, r, &req) {
		return
	}

	course, err := h.courseService.Create(r.Context(), caller(r), &req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeCreated(w, course)
}

func (h *Handler) ListCourses(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	response, err := h.courseService.List(r.Context(), models.CourseListQuery{
		CourseName:               q.Get("course_name"),
		CourseType:               q.Get("course_type"),
		Category:                 q.Get("category"),
		Level:                    q.Get("level"),
		Language:                 q.Get("language"),
		Tags:                     utils.QueryList(r, "tags"),
		HasCompletionCertificate: utils.QueryBool(r, "has_completion_certificate"),
		HasAssignments:           utils.QueryBool(r, "has_assignments"),
		HasSupport:               utils.QueryBool(r, "has_support"),
		Sort:                     q.Get("sort"),
		Order:                    q.Get("order"),
		Page:                     utils.QueryInt(r, "page", 1),
		Limit:                    utils.QueryInt(r, "limit", 0),
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeSuccess(w, response)
}

func (h *Handler) GetCourse(w http.ResponseWriter, r *http.Request) {
	course, err := h.courseService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeSuccess(w, course)
}

func (h *Handler) MyAddedCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := h.courseService.MyAdded(r.Context(), caller(r))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeSuccess(w, courses)
}

func (h *Handler) MyEnrolledCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := h.courseService.MyEnrolled(r.Context(), caller(r))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeSuccess(w, courses)
}

func (h *Handler) UpdateCourse(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateCourseRequest
	if !h.decode(w, r, &req) {
		return
	}

	course, err := h.courseService.Update(r.Context(), caller(r), chi.URLParam(r, "id"), &req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeSuccess(w, course)
}

func (h *Handler) DeleteCourse(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.courseService.Delete(r.Context(), caller(r), id); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeSuccess(w, map[string]string{
		"message": "Course deleted successfully",
		"id":      id,
	})
}

func (h *Handler) Enroll(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.courseService.Enroll(r.Context(), caller(r), id); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeSuccess(w, map[string]string{
		"message":   "Enrolled successfully",
		"course_id": id,
	})
}

func (h *Handler) AddLesson(w http.ResponseWriter, r *http.Request) {
	var req models.LessonRequest
	if !h.decode(w, r, &req) {
		return
	}

	lesson, err := h.courseService.AddLesson(r.Context(), caller(r), chi.URLParam(r, "courseId"), &req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeCreated(w, lesson)
}

func (h *Handler) UpdateLesson(w http.ResponseWriter, r *http.Request) {
	var req models.LessonRequest
	if !h.decode(w, r, &req) {
		return
	}

	lesson, err := h.courseService.UpdateLesson(
		r.Context(),
		caller(r),
		chi.URLParam(r, "courseId"),
		chi.URLParam(r, "topicId"),
		&req,
	)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeSuccess(w, lesson)
}
