package apiclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/utafrali/laptopstore/internal/domain"
)

// flexID accepts ids encoded as JSON strings or numbers.
type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*f = ""
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexID(s)
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("id must be a string or number: %w", err)
		}
		*f = flexID(n.String())
	}
	return nil
}

type userDTO struct {
	ID        flexID `json:"id"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	FullName  string `json:"full_name"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role"`
}

func (u userDTO) toDomain() domain.User {
	name := u.FullName
	if name == "" {
		name = strings.TrimSpace(u.FirstName + " " + u.LastName)
	}
	return domain.User{
		ID:       string(u.ID),
		Email:    u.Email,
		Username: u.Username,
		FullName: name,
		Role:     u.Role,
	}
}

// userEnvelope accepts either a bare user record or {"user": {...}}.
type userEnvelope struct {
	userDTO
	User *userDTO `json:"user"`
}

func (e userEnvelope) record() userDTO {
	if e.User != nil {
		return *e.User
	}
	return e.userDTO
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type productDTO struct {
	ID          flexID  `json:"id"`
	Name        string  `json:"name"`
	Brand       string  `json:"brand"`
	Price       float64 `json:"price"`
	RentalPrice float64 `json:"rental_price"`
	Type        string  `json:"type"`
	ImageURL    string  `json:"image_url"`
	Image       string  `json:"image"`
	Stock       int     `json:"stock"`
}

func (p productDTO) toDomain() domain.Product {
	img := p.ImageURL
	if img == "" {
		img = p.Image
	}
	return domain.Product{
		ID:          string(p.ID),
		Name:        p.Name,
		Brand:       p.Brand,
		Price:       p.Price,
		RentalPrice: p.RentalPrice,
		Type:        p.Type,
		ImageURL:    img,
		Stock:       p.Stock,
	}
}

type cartItemDTO struct {
	ID             flexID      `json:"id"`
	ProductID      flexID      `json:"product_id"`
	Quantity       int         `json:"quantity"`
	RentalDuration int         `json:"rental_duration"`
	Type           string      `json:"type"`
	Price          float64     `json:"price"`
	Product        *productDTO `json:"product"`
}

func (c cartItemDTO) toDomain() domain.CartItem {
	item := domain.CartItem{
		ID:                 string(c.ID),
		ProductID:          string(c.ProductID),
		Quantity:           c.Quantity,
		Kind:               parseKind(c.Type),
		RentalDurationDays: c.RentalDuration,
		Price:              c.Price,
	}
	if c.Product != nil {
		p := c.Product.toDomain()
		item.Product = &p
		if item.ProductID == "" {
			item.ProductID = p.ID
		}
	}
	if item.ID == "" {
		item.ID = item.ProductID
	}
	return item
}

// parseKind maps the API's purchase type to an ItemKind.
func parseKind(s string) domain.ItemKind {
	switch strings.ToLower(s) {
	case "rent", "rental", "renting":
		return domain.KindRent
	default:
		return domain.KindSale
	}
}

// cartList accepts either a JSON array or an object holding the array
// under "items" or "cart".
type cartList []cartItemDTO

func (l *cartList) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '[' {
		var items []cartItemDTO
		if err := json.Unmarshal(b, &items); err != nil {
			return err
		}
		*l = items
		return nil
	}
	var wrapped struct {
		Items []cartItemDTO `json:"items"`
		Cart  []cartItemDTO `json:"cart"`
	}
	if err := json.Unmarshal(b, &wrapped); err != nil {
		return err
	}
	if wrapped.Items != nil {
		*l = wrapped.Items
	} else {
		*l = wrapped.Cart
	}
	return nil
}

type cartCountResponse struct {
	Count int `json:"count"`
}

type upsertCartItemRequest struct {
	ProductID      string  `json:"product_id"`
	Quantity       int     `json:"quantity"`
	RentalDuration int     `json:"rental_duration"`
	Type           string  `json:"type"`
	Price          float64 `json:"price"`
}

type wishlistItemDTO struct {
	ID        flexID      `json:"id"`
	ProductID flexID      `json:"product_id"`
	Product   *productDTO `json:"product"`
	Name      string      `json:"name"`
}

// toDomain resolves the product id: an explicit product_id wins, then the
// nested product, and otherwise the element itself is taken as a product.
func (w wishlistItemDTO) toDomain() domain.WishlistEntry {
	entry := domain.WishlistEntry{ProductID: string(w.ProductID)}
	if w.Product != nil {
		p := w.Product.toDomain()
		entry.Product = &p
		if entry.ProductID == "" {
			entry.ProductID = p.ID
		}
	}
	if entry.ProductID == "" {
		entry.ProductID = string(w.ID)
		if w.Name != "" {
			entry.Product = &domain.Product{ID: entry.ProductID, Name: w.Name}
		}
	}
	return entry
}

type wishlistResponse struct {
	Wishlist []wishlistItemDTO `json:"wishlist"`
}

type wishlistCountResponse struct {
	Total int `json:"total_wishlist_items"`
}
