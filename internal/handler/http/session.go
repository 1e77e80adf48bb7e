package http

import (
	"errors"
	"net/http"

	"github.com/utafrali/laptopstore/internal/domain"
	apperrors "github.com/utafrali/laptopstore/pkg/errors"
	"github.com/utafrali/laptopstore/pkg/httputil"
)

// LoginRequest is the JSON request body for signing in.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// SessionResponse is the session plus the badge counts the header renders.
type SessionResponse struct {
	Status        domain.SessionStatus `json:"status"`
	User          *domain.User         `json:"user,omitempty"`
	CartCount     int                  `json:"cart_count"`
	WishlistCount int                  `json:"wishlist_count"`
}

func (h *Handler) sessionResponse(s domain.Session) SessionResponse {
	return SessionResponse{
		Status:        s.Status,
		User:          s.User,
		CartCount:     h.cart.Count(),
		WishlistCount: h.wishlist.Count(),
	}
}

// GetSession handles GET /api/v1/session
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	httputil.WriteData(w, http.StatusOK, h.sessionResponse(h.session.Snapshot()))
}

// Login handles POST /api/v1/session/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	sess, err := h.session.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		// A failed login is answered in place, not with a redirect.
		if errors.Is(err, apperrors.ErrUnauthorized) {
			httputil.WriteError(w, r, err, h.logger)
			return
		}
		h.writeError(w, r, err)
		return
	}

	httputil.WriteData(w, http.StatusOK, h.sessionResponse(sess))
}

// Logout handles POST /api/v1/session/logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.session.Logout(r.Context()); err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteData(w, http.StatusOK, h.sessionResponse(h.session.Snapshot()))
}
