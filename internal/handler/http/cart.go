package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/laptopstore/internal/cart"
	"github.com/utafrali/laptopstore/internal/domain"
	apperrors "github.com/utafrali/laptopstore/pkg/errors"
	"github.com/utafrali/laptopstore/pkg/httputil"
)

// AddItemRequest is the JSON request body for adding a product to the cart.
// Quantity defaults to 1 and kind to "sale".
type AddItemRequest struct {
	ProductID          string  `json:"product_id" validate:"required"`
	Quantity           int     `json:"quantity" validate:"gte=0"`
	Kind               string  `json:"kind" validate:"omitempty,item_kind"`
	RentalDurationDays int     `json:"rental_duration_days" validate:"gte=0"`
	Price              float64 `json:"price" validate:"gte=0"`
}

// UpdateQuantityRequest is the JSON request body for changing a line's
// quantity. Zero or less removes the line.
type UpdateQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}

// GetCart handles GET /api/v1/cart
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	httputil.WriteData(w, http.StatusOK, h.cart.FetchCart(r.Context()))
}

// AddItem handles POST /api/v1/cart/items
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	c, err := h.cart.AddToCart(r.Context(), cart.AddItemInput{
		ProductID:          req.ProductID,
		Quantity:           req.Quantity,
		Kind:               domain.ItemKind(req.Kind),
		RentalDurationDays: req.RentalDurationDays,
		Price:              req.Price,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteData(w, http.StatusOK, c)
}

// UpdateItemQuantity handles PUT /api/v1/cart/items/{itemId}
func (h *Handler) UpdateItemQuantity(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemId")
	if itemID == "" {
		h.writeError(w, r, apperrors.InvalidInput("itemId is required"))
		return
	}

	var req UpdateQuantityRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	c, err := h.cart.UpdateCartItem(r.Context(), itemID, *req.Quantity)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteData(w, http.StatusOK, c)
}

// RemoveItem handles DELETE /api/v1/cart/items/{itemId}
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemId")
	if itemID == "" {
		h.writeError(w, r, apperrors.InvalidInput("itemId is required"))
		return
	}

	c, err := h.cart.RemoveFromCart(r.Context(), itemID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteData(w, http.StatusOK, c)
}

// ClearCart handles POST /api/v1/cart/clear
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.cart.ClearCart(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteData(w, http.StatusOK, c)
}
