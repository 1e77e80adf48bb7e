package domain

// WishlistEntry is a product the visitor has hearted.
type WishlistEntry struct {
	ProductID string   `json:"product_id"`
	Product   *Product `json:"product,omitempty"`
}

// Wishlist is a set of product ids plus the badge count.
type Wishlist struct {
	Entries []WishlistEntry `json:"entries"`
	Count   int             `json:"count"`
}

// ProductIDs returns the member ids in order.
func (w Wishlist) ProductIDs() []string {
	ids := make([]string, 0, len(w.Entries))
	for _, e := range w.Entries {
		ids = append(ids, e.ProductID)
	}
	return ids
}

// Contains reports membership of productID.
func (w Wishlist) Contains(productID string) bool {
	for _, e := range w.Entries {
		if e.ProductID == productID {
			return true
		}
	}
	return false
}

// UniqueIDs drops empty and repeated ids, keeping first occurrences.
func UniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
