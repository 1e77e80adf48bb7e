package domain

// Product carries the display fields of a catalog item. The API owns it;
// nothing here is cached beyond a single response.
type Product struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Brand       string  `json:"brand,omitempty"`
	Price       float64 `json:"price"`
	RentalPrice float64 `json:"rental_price,omitempty"`
	Type        string  `json:"type,omitempty"`
	ImageURL    string  `json:"image_url,omitempty"`
	Stock       int     `json:"stock,omitempty"`
}

// Rentable reports whether the product can be rented.
func (p Product) Rentable() bool {
	return p.Type == "rent" || p.Type == "both" || p.RentalPrice > 0
}
