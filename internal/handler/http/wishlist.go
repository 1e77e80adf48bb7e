package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/laptopstore/internal/domain"
	"github.com/utafrali/laptopstore/pkg/httputil"
)

// ToggleResponse reports the membership after a toggle.
type ToggleResponse struct {
	ProductID string `json:"product_id"`
	Member    bool   `json:"member"`
	Count     int    `json:"count"`
}

// CountResponse carries a badge count.
type CountResponse struct {
	Count int `json:"count"`
}

// ProductResponse is a product with the visitor's wishlist state.
type ProductResponse struct {
	domain.Product
	InWishlist bool `json:"in_wishlist"`
}

// GetWishlist handles GET /api/v1/wishlist
func (h *Handler) GetWishlist(w http.ResponseWriter, r *http.Request) {
	list, err := h.wishlist.Members(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteData(w, http.StatusOK, list)
}

// GetWishlistCount handles GET /api/v1/wishlist/count
func (h *Handler) GetWishlistCount(w http.ResponseWriter, r *http.Request) {
	httputil.WriteData(w, http.StatusOK, CountResponse{Count: h.wishlist.FetchWishlistCount(r.Context())})
}

// ToggleWishlist handles POST /api/v1/wishlist/{productId}/toggle
func (h *Handler) ToggleWishlist(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productId")
	member, err := h.wishlist.ToggleWishlist(r.Context(), productID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteData(w, http.StatusOK, ToggleResponse{
		ProductID: productID,
		Member:    member,
		Count:     h.wishlist.Count(),
	})
}

// GetProduct handles GET /api/v1/products/{productId}
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productId")
	p, err := h.products.GetProduct(r.Context(), productID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	// The heart icon falls back to "off" when membership is unavailable.
	member, err := h.wishlist.Contains(r.Context(), productID)
	if err != nil {
		h.logger.DebugContext(r.Context(), "wishlist membership unavailable")
	}
	httputil.WriteData(w, http.StatusOK, ProductResponse{Product: p, InWishlist: member})
}
