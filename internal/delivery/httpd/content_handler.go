package httpd

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Imtihan-Edutech/Swanirbhar/internal/models"
	"github.com/Imtihan-Edutech/Swanirbhar/internal/service"
	"github.com/Imtihan-Edutech/Swanirbhar/pkg/utils"
)

// contentRoutes mounts the same handlers for each content kind.
func (h *Handler) contentRoutes(kind models.ContentKind) func(r chi.Router) {
	return func(r chi.Router) {
		r.Get("/", h.listContent(kind))
		r.Get("/{id}", h.getContent(kind))

		r.Group(func(r chi.Router) {
			r.Use(h.RequireAuth)
			r.Post("/", h.createContent(kind))
			r.Delete("/{id}", h.deleteContent(kind))
			r.Post("/{id}/comments", h.addComment(kind))
			r.Put("/{id}/cover", h.uploadCover(kind))
		})
	}
}

func (h *Handler) createContent(kind models.ContentKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.CreateContentRequest
		if !h.decode(w, r, &req) {
			return
		}

		content, err := h.contentService.Create(r.Context(), caller(r), kind, &req)
		if err != nil {
			h.handleServiceError(w, r, err)
			return
		}

		writeCreated(w, content)
	}
}

func (h *Handler) listContent(kind models.ContentKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		response, err := h.contentService.List(r.Context(), kind, models.ContentListQuery{
			Title:    q.Get("title"),
			Category: q.Get("category"),
			Author:   q.Get("author"),
			Page:     utils.QueryInt(r, "page", 1),
			Limit:    utils.QueryInt(r, "limit", 0),
		})
		if err != nil {
			h.handleServiceError(w, r, err)
			return
		}

		writeSuccess(w, response)
	}
}

func (h *Handler) getContent(kind models.ContentKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		content, err := h.contentService.Get(r.Context(), kind, chi.URLParam(r, "id"))
		if err != nil {
			h.handleServiceError(w, r, err)
			return
		}

		writeSuccess(w, content)
	}
}

func (h *Handler) deleteContent(kind models.ContentKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := h.contentService.Delete(r.Context(), caller(r), kind, id); err != nil {
			h.handleServiceError(w, r, err)
			return
		}

		writeSuccess(w, map[string]string{
			"message": kind.Label() + " deleted successfully",
			"id":      id,
		})
	}
}

func (h *Handler) addComment(kind models.ContentKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.CommentRequest
		if !h.decode(w, r, &req) {
			return
		}

		comment, err := h.contentService.AddComment(r.Context(), caller(r), kind, chi.URLParam(r, "id"), &req)
		if err != nil {
			h.handleServiceError(w, r, err)
			return
		}

		writeCreated(w, comment)
	}
}

func (h *Handler) uploadCover(kind models.ContentKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := h.maxUploadSize
		if limit <= 0 {
			limit = 5 << 20
		}
		r.Body = http.MaxBytesReader(w, r.Body, limit+(1<<20))

		if err := r.ParseMultipartForm(limit); err != nil {
			writeError(w, http.StatusBadRequest, "Failed to parse form data")
			return
		}

		file, header, err := r.FormFile("cover")
		if err != nil {
			writeError(w, http.StatusBadRequest, "Cover image is required")
			return
		}
		defer file.Close()

		content, err := h.contentService.UploadCover(r.Context(), caller(r), kind, chi.URLParam(r, "id"), service.CoverUpload{
			Reader:      file,
			Size:        header.Size,
			ContentType: header.Header.Get("Content-Type"),
		})
		if err != nil {
			h.handleServiceError(w, r, err)
			return
		}

		writeSuccess(w, content)
	}
}
