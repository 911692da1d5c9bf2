package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/dbh-bot/dbh/internal/services"
	"github.com/go-chi/chi/v5"
)

// FlushTrigger runs one flush cycle on demand.
type FlushTrigger interface {
	Flush(ctx context.Context) (services.FlushReport, error)
}

// AdminHandler exposes operational endpoints to admin accounts.
type AdminHandler struct {
	flusher FlushTrigger
	admins  map[string]struct{}
}

func NewAdminHandler(flusher FlushTrigger, adminLogins []string) *AdminHandler {
	admins := make(map[string]struct{}, len(adminLogins))
	for _, login := range adminLogins {
		admins[strings.ToLower(login)] = struct{}{}
	}
	return &AdminHandler{flusher: flusher, admins: admins}
}

// AdminRouter registers admin routes. authMiddleware must inject the account.
func AdminRouter(r chi.Router, flusher FlushTrigger, adminLogins []string, authMiddleware func(http.Handler) http.Handler) {
	handler := NewAdminHandler(flusher, adminLogins)

	r.With(authMiddleware, handler.requireAdmin).Post("/flush", handler.Flush)
}

// Flush persists and clears every cache. Save failures are reported in the
// body alongside the per-kind counts.
func (h *AdminHandler) Flush(w http.ResponseWriter, r *http.Request) {
	report, err := h.flusher.Flush(r.Context())
	resp := FlushResponse{Report: report}
	if err != nil {
		resp.Error = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

type FlushResponse struct {
	Report services.FlushReport `json:"report"`
	Error  string               `json:"error,omitempty"`
}

func (h *AdminHandler) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		account, err := accountFromContext(r.Context())
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		if _, ok := h.admins[strings.ToLower(account.Login)]; !ok {
			writeError(w, http.StatusForbidden, "admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
