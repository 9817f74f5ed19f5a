package httpd

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Imtihan-Edutech/Swanirbhar/internal/models"
	"github.com/Imtihan-Edutech/Swanirbhar/pkg/utils"
)

func (h *Handler) ListPrompts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	response, err := h.promptService.List(r.Context(), models.PromptListQuery{
		Title:    q.Get("title"),
		Category: q.Get("category"),
		Page:     utils.QueryInt(r, "page", 1),
		Limit:    utils.QueryInt(r, "limit", 0),
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeSuccess(w, response)
}

func (h *Handler) GetPrompt(w http.ResponseWriter, r *http.Request) {
	prompt, err := h.promptService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeSuccess(w, prompt)
}
