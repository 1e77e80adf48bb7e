package domain

// ItemKind says whether a cart line is bought or rented.
type ItemKind string

const (
	KindSale ItemKind = "sale"
	KindRent ItemKind = "rent"
)

// Valid reports whether k is a known kind.
func (k ItemKind) Valid() bool {
	return k == KindSale || k == KindRent
}

// CartItem is one line of a cart. Guest lines use the product id as ID.
type CartItem struct {
	ID                 string   `json:"id"`
	ProductID          string   `json:"product_id"`
	Quantity           int      `json:"quantity"`
	Kind               ItemKind `json:"kind"`
	RentalDurationDays int      `json:"rental_duration_days"`
	Price              float64  `json:"price,omitempty"`
	Product            *Product `json:"product,omitempty"`
}

// Cart is an ordered collection of lines. Count is always the sum of
// line quantities.
type Cart struct {
	Items []CartItem `json:"items"`
	Count int        `json:"count"`
}

// NewCart builds a cart and derives its count.
func NewCart(items []CartItem) Cart {
	if items == nil {
		items = []CartItem{}
	}
	return Cart{Items: items, Count: SumQuantities(items)}
}

// SumQuantities returns the total number of units across items.
func SumQuantities(items []CartItem) int {
	total := 0
	for _, it := range items {
		total += it.Quantity
	}
	return total
}

// IndexOf returns the index of the line with the given id, or -1.
func (c Cart) IndexOf(itemID string) int {
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			return i
		}
	}
	return -1
}

// IndexOfProduct returns the index of the first line for productID, or -1.
func (c Cart) IndexOfProduct(productID string) int {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy of the line slice.
func (c Cart) Clone() Cart {
	items := make([]CartItem, len(c.Items))
	copy(items, c.Items)
	return Cart{Items: items, Count: c.Count}
}

// WithItem returns the cart with item added. An existing line for the same
// product only absorbs the quantity; its kind and rental duration stay.
func (c Cart) WithItem(item CartItem) Cart {
	next := c.Clone()
	if i := next.IndexOfProduct(item.ProductID); i >= 0 {
		next.Items[i].Quantity += item.Quantity
		return NewCart(next.Items)
	}
	if item.ID == "" {
		item.ID = item.ProductID
	}
	return NewCart(append(next.Items, item))
}

// WithQuantity returns the cart with the line's quantity replaced. A
// quantity below one removes the line. The bool is false when no line matched.
func (c Cart) WithQuantity(itemID string, quantity int) (Cart, bool) {
	i := c.IndexOf(itemID)
	if i < 0 {
		return c, false
	}
	if quantity <= 0 {
		return c.Without(itemID)
	}
	next := c.Clone()
	next.Items[i].Quantity = quantity
	return NewCart(next.Items), true
}

// Without returns the cart minus the line with itemID.
func (c Cart) Without(itemID string) (Cart, bool) {
	i := c.IndexOf(itemID)
	if i < 0 {
		return c, false
	}
	items := make([]CartItem, 0, len(c.Items)-1)
	items = append(items, c.Items[:i]...)
	items = append(items, c.Items[i+1:]...)
	return NewCart(items), true
}
