package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/utafrali/laptopstore/pkg/errors"
	"github.com/utafrali/laptopstore/pkg/httputil"
)

// ListNotices handles GET /api/v1/notices
func (h *Handler) ListNotices(w http.ResponseWriter, r *http.Request) {
	httputil.WriteData(w, http.StatusOK, h.notices.List())
}

// DismissNotice handles DELETE /api/v1/notices/{id}
func (h *Handler) DismissNotice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !h.notices.Dismiss(id) {
		h.writeError(w, r, apperrors.NotFound("notice", id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
