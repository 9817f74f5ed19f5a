package httpd

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Imtihan-Edutech/Swanirbhar/internal/models"
	"github.com/Imtihan-Edutech/Swanirbhar/pkg/utils"
)

func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req models.CreateProjectRequest
	if !h.decode(w, r, &req) {
		return
	}

	project, err := h.projectService.Create(r.Context(), caller(r), &req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeCreated(w, project)
}

func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	response, err := h.projectService.List(r.Context(), models.ProjectListQuery{
		Title:      q.Get("title"),
		Club:       q.Get("club"),
		Difficulty: q.Get("difficulty"),
		Sort:       q.Get("sort"),
		Order:      q.Get("order"),
		Page:       utils.QueryInt(r, "page", 1),
		Limit:      utils.QueryInt(r, "limit", 0),
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeSuccess(w, response)
}

func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	project, err := h.projectService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeSuccess(w, project)
}

func (h *Handler) UpdateDeadline(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateDeadlineRequest
	if !h.decode(w, r, &req) {
		return
	}

	project, err := h.projectService.UpdateDeadline(r.Context(), caller(r), chi.URLParam(r, "id"), &req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeSuccess(w, project)
}

func (h *Handler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.projectService.Delete(r.Context(), caller(r), id); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeSuccess(w, map[string]string{
		"message": "Project deleted successfully",
		"id":      id,
	})
}

func (h *Handler) SubmitLink(w http.ResponseWriter, r *http.Request) {
	var req models.SubmitLinkRequest
	if !h.decode(w, r, &req) {
		return
	}

	submission, err := h.projectService.Submit(r.Context(), caller(r), chi.URLParam(r, "id"), &req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeCreated(w, submission)
}

func (h *Handler) GiveGrade(w http.ResponseWriter, r *http.Request) {
	var req models.GiveGradeRequest
	if !h.decode(w, r, &req) {
		return
	}

	record, err := h.projectService.GiveGrade(r.Context(), caller(r), chi.URLParam(r, "id"), &req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeCreated(w, record)
}

func (h *Handler) GetGrade(w http.ResponseWriter, r *http.Request) {
	record, err := h.projectService.GetGrade(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "userId"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeSuccess(w, record)
}
