package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/utafrali/laptopstore/internal/domain"
	apperrors "github.com/utafrali/laptopstore/pkg/errors"
)

// VerifyUser returns the account behind token. A rejected token is returned
// as ErrUnauthorized without triggering the session interceptor.
func (c *Client) VerifyUser(ctx context.Context, token string) (domain.User, error) {
	if token == "" {
		return domain.User{}, apperrors.Unauthorized("missing token")
	}
	var env userEnvelope
	err := c.do(ctx, call{
		op:     "verify_user",
		method: http.MethodGet,
		path:   "/users/auth",
		auth:   authExplicit,
		token:  token,
		out:    &env,
	})
	if err != nil {
		return domain.User{}, err
	}
	u := env.record().toDomain()
	if u.ID == "" && u.Email == "" {
		return domain.User{}, fmt.Errorf("verify user: response carries no identity")
	}
	return u, nil
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	form := url.Values{"username": {username}, "password": {password}}
	var resp tokenResponse
	err := c.do(ctx, call{
		op:     "login",
		method: http.MethodPost,
		path:   "/users/login",
		auth:   authNone,
		body:   strings.NewReader(form.Encode()),
		ctype:  "application/x-www-form-urlencoded",
		out:    &resp,
	})
	if err != nil {
		return "", err
	}
	if resp.AccessToken == "" {
		return "", fmt.Errorf("login: response carries no access token")
	}
	return resp.AccessToken, nil
}

// GetCart returns the server cart lines.
func (c *Client) GetCart(ctx context.Context) ([]domain.CartItem, error) {
	var list cartList
	if err := c.getJSON(ctx, "get_cart", "/cart", authSession, &list); err != nil {
		return nil, err
	}
	items := make([]domain.CartItem, 0, len(list))
	for _, dto := range list {
		items = append(items, dto.toDomain())
	}
	return items, nil
}

// GetCartCount returns the server-reported cart count.
func (c *Client) GetCartCount(ctx context.Context) (int, error) {
	var resp cartCountResponse
	if err := c.getJSON(ctx, "get_cart_count", "/cart/count", authSession, &resp); err != nil {
		return 0, err
	}
	return resp.Count, nil
}

// UpsertCartItem creates a cart line or updates the line for the same product.
func (c *Client) UpsertCartItem(ctx context.Context, item domain.CartItem) error {
	req := upsertCartItemRequest{
		ProductID:      item.ProductID,
		Quantity:       item.Quantity,
		RentalDuration: item.RentalDurationDays,
		Type:           string(item.Kind),
		Price:          item.Price,
	}
	return c.sendJSON(ctx, "upsert_cart_item", http.MethodPost, "/cart/", req, nil)
}

// RemoveCartItem deletes one cart line.
func (c *Client) RemoveCartItem(ctx context.Context, itemID string) error {
	return c.sendJSON(ctx, "remove_cart_item", http.MethodDelete, "/cart/"+pathID(itemID), nil, nil)
}

// ClearCart empties the server cart.
func (c *Client) ClearCart(ctx context.Context) error {
	return c.sendJSON(ctx, "clear_cart", http.MethodPost, "/cart/clear", nil, nil)
}

// GetWishlist returns the server wishlist entries.
func (c *Client) GetWishlist(ctx context.Context) ([]domain.WishlistEntry, error) {
	var resp wishlistResponse
	if err := c.getJSON(ctx, "get_wishlist", "/wishlist/wishlist", authSession, &resp); err != nil {
		return nil, err
	}
	entries := make([]domain.WishlistEntry, 0, len(resp.Wishlist))
	for _, dto := range resp.Wishlist {
		e := dto.toDomain()
		if e.ProductID == "" {
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// GetWishlistCount returns the server wishlist count.
func (c *Client) GetWishlistCount(ctx context.Context) (int, error) {
	var resp wishlistCountResponse
	if err := c.getJSON(ctx, "get_wishlist_count", "/wishlist/wishlist/count", authSession, &resp); err != nil {
		return 0, err
	}
	return resp.Total, nil
}

// AddToWishlist adds productID to the server wishlist.
func (c *Client) AddToWishlist(ctx context.Context, productID string) error {
	return c.sendJSON(ctx, "add_to_wishlist", http.MethodPost, "/wishlist/wishlist/"+pathID(productID), nil, nil)
}

// RemoveFromWishlist removes productID from the server wishlist.
func (c *Client) RemoveFromWishlist(ctx context.Context, productID string) error {
	return c.sendJSON(ctx, "remove_from_wishlist", http.MethodDelete, "/wishlist/wishlist/"+pathID(productID), nil, nil)
}

// GetProduct fetches display fields for productID. No token is sent.
func (c *Client) GetProduct(ctx context.Context, productID string) (domain.Product, error) {
	var dto productDTO
	if err := c.getJSON(ctx, "get_product", "/products/"+pathID(productID), authNone, &dto); err != nil {
		return domain.Product{}, err
	}
	p := dto.toDomain()
	if p.ID == "" {
		p.ID = productID
	}
	return p, nil
}
