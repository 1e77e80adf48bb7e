// Package http is the storefront view layer: a thin JSON API over the
// session, cart and wishlist providers.
package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/utafrali/laptopstore/internal/cart"
	"github.com/utafrali/laptopstore/internal/domain"
	"github.com/utafrali/laptopstore/internal/notify"
	apperrors "github.com/utafrali/laptopstore/pkg/errors"
	"github.com/utafrali/laptopstore/pkg/httputil"
	"github.com/utafrali/laptopstore/pkg/validator"
)

// SessionService is the session provider as seen by the view.
type SessionService interface {
	Snapshot() domain.Session
	Login(ctx context.Context, identifier, secret string) (domain.Session, error)
	Logout(ctx context.Context) error
	LoginRoute() string
}

// CartService is the cart provider as seen by the view.
type CartService interface {
	Snapshot() domain.Cart
	Count() int
	FetchCart(ctx context.Context) domain.Cart
	AddToCart(ctx context.Context, in cart.AddItemInput) (domain.Cart, error)
	UpdateCartItem(ctx context.Context, itemID string, quantity int) (domain.Cart, error)
	RemoveFromCart(ctx context.Context, itemID string) (domain.Cart, error)
	ClearCart(ctx context.Context) (domain.Cart, error)
}

// WishlistService is the wishlist provider as seen by the view.
type WishlistService interface {
	Count() int
	FetchWishlistCount(ctx context.Context) int
	Members(ctx context.Context) (domain.Wishlist, error)
	Contains(ctx context.Context, productID string) (bool, error)
	ToggleWishlist(ctx context.Context, productID string) (bool, error)
}

// ProductCatalog fetches product display fields.
type ProductCatalog interface {
	GetProduct(ctx context.Context, productID string) (domain.Product, error)
}

// NoticeBoard lists and dismisses transient notices.
type NoticeBoard interface {
	List() []notify.Notice
	Dismiss(id string) bool
}

// Handler serves the view-layer endpoints.
type Handler struct {
	session  SessionService
	cart     CartService
	wishlist WishlistService
	products ProductCatalog
	notices  NoticeBoard
	logger   *slog.Logger
}

// NewHandler creates a Handler over the shared providers.
func NewHandler(
	sess SessionService,
	cartSvc CartService,
	wishlistSvc WishlistService,
	products ProductCatalog,
	notices NoticeBoard,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		session:  sess,
		cart:     cartSvc,
		wishlist: wishlistSvc,
		products: products,
		notices:  notices,
		logger:   logger,
	}
}

// writeError renders err. Requests that need a session carry the login
// route so the client can navigate there.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, apperrors.ErrUnauthorized) {
		httputil.WriteError(w, r, err, h.logger, httputil.WithRedirect(h.session.LoginRoute()))
		return
	}
	httputil.WriteError(w, r, err, h.logger)
}

// decode reads a JSON body into dst. Malformed bodies are input errors.
func decode(r *http.Request, dst any) error {
	err := validator.DecodeAndValidate(r, dst)
	if err == nil {
		return nil
	}
	var verr *validator.ValidationError
	if errors.As(err, &verr) {
		return err
	}
	return apperrors.InvalidInput("invalid request body: " + err.Error())
}
