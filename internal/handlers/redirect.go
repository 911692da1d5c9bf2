package handlers

import (
	"net/http"

	"github.com/dbh-bot/dbh/internal/services"
	"github.com/go-chi/chi/v5"
)

// RedirectHandler serves short links.
type RedirectHandler struct {
	redirects *services.RedirectService
}

func NewRedirectHandler(redirects *services.RedirectService) *RedirectHandler {
	return &RedirectHandler{redirects: redirects}
}

// RedirectRouter registers redirect routes on the given router.
func RedirectRouter(r chi.Router, redirects *services.RedirectService) {
	handler := NewRedirectHandler(redirects)

	r.Get("/{linkID}", handler.Follow)
}

// Follow counts the redirect and forwards to the link target.
func (h *RedirectHandler) Follow(w http.ResponseWriter, r *http.Request) {
	link, err := h.redirects.Follow(r.Context(), chi.URLParam(r, "linkID"))
	if err != nil {
		writeServiceError(w, err, "failed to load link")
		return
	}
	http.Redirect(w, r, link.URL, http.StatusFound)
}
