package httpd

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Imtihan-Edutech/Swanirbhar/internal/models"
)

func (h *Handler) StartChat(w http.ResponseWriter, r *http.Request) {
	session, err := h.chatService.StartSession(r.Context(), caller(r))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeCreated(w, session)
}

func (h *Handler) SendChatMessage(w http.ResponseWriter, r *http.Request) {
	var req models.ChatMessageRequest
	if !h.decode(w, r, &req) {
		return
	}

	reply, err := h.chatService.Send(r.Context(), caller(r), chi.URLParam(r, "id"), &req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeSuccess(w, reply)
}

func (h *Handler) ChatHistory(w http.ResponseWriter, r *http.Request) {
	session, err := h.chatService.History(r.Context(), caller(r), chi.URLParam(r, "id"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeSuccess(w, session)
}

func (h *Handler) EndChat(w http.ResponseWriter, r *http.Request) {
	if err := h.chatService.EndSession(r.Context(), caller(r), chi.URLParam(r, "id")); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeSuccess(w, map[string]string{"message": "Chat session ended"})
}
