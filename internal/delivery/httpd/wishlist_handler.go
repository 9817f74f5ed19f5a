package httpd

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) GetWishlist(w http.ResponseWriter, r *http.Request) {
	wishlist, err := h.wishlistService.Get(r.Context(), caller(r))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeSuccess(w, wishlist)
}

func (h *Handler) AddToWishlist(w http.ResponseWriter, r *http.Request) {
	wishlist, err := h.wishlistService.Add(r.Context(), caller(r), chi.URLParam(r, "courseId"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeCreated(w, wishlist)
}

func (h *Handler) RemoveFromWishlist(w http.ResponseWriter, r *http.Request) {
	wishlist, err := h.wishlistService.Remove(r.Context(), caller(r), chi.URLParam(r, "courseId"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeSuccess(w, wishlist)
}
