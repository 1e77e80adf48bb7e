package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_Authenticated(t *testing.T) {
	assert.False(t, Session{Status: StatusUnauthenticated}.Authenticated())
	assert.False(t, Session{Status: StatusVerifying, Token: "t", User: &User{ID: "1"}}.Authenticated())
	assert.False(t, Session{Status: StatusAuthenticated, Token: "t"}.Authenticated())
	assert.True(t, Session{Status: StatusAuthenticated, Token: "t", User: &User{ID: "1"}}.Authenticated())
}

func TestSession_UserID(t *testing.T) {
	assert.Empty(t, Session{}.UserID())
	assert.Equal(t, "42", Session{User: &User{ID: "42"}}.UserID())
}

func TestItemKind_Valid(t *testing.T) {
	assert.True(t, KindSale.Valid())
	assert.True(t, KindRent.Valid())
	assert.False(t, ItemKind("lease").Valid())
	assert.False(t, ItemKind("").Valid())
}

func TestNewCart_DerivesCount(t *testing.T) {
	c := NewCart([]CartItem{{ID: "a", Quantity: 2}, {ID: "b", Quantity: 3}})
	assert.Equal(t, 5, c.Count)

	empty := NewCart(nil)
	assert.NotNil(t, empty.Items)
	assert.Equal(t, 0, empty.Count)
}

func TestCart_WithItem_NewLineUsesProductID(t *testing.T) {
	c := NewCart(nil).WithItem(CartItem{ProductID: "P1", Quantity: 1, Kind: KindSale})

	require.Len(t, c.Items, 1)
	assert.Equal(t, "P1", c.Items[0].ID)
	assert.Equal(t, 1, c.Count)
}

func TestCart_WithItem_SameProductAccumulates(t *testing.T) {
	c := NewCart(nil).
		WithItem(CartItem{ProductID: "P1", Quantity: 1, Kind: KindSale}).
		WithItem(CartItem{ProductID: "P1", Quantity: 1, Kind: KindRent, RentalDurationDays: 7})

	require.Len(t, c.Items, 1)
	assert.Equal(t, 2, c.Items[0].Quantity)
	assert.Equal(t, KindSale, c.Items[0].Kind)
	assert.Equal(t, 2, c.Count)
}

func TestCart_WithItem_DoesNotMutateReceiver(t *testing.T) {
	orig := NewCart([]CartItem{{ID: "P1", ProductID: "P1", Quantity: 1}})
	_ = orig.WithItem(CartItem{ProductID: "P1", Quantity: 4})

	assert.Equal(t, 1, orig.Items[0].Quantity)
	assert.Equal(t, 1, orig.Count)
}

func TestCart_WithQuantity(t *testing.T) {
	c := NewCart([]CartItem{{ID: "P1", ProductID: "P1", Quantity: 1}, {ID: "P2", ProductID: "P2", Quantity: 1}})

	next, ok := c.WithQuantity("P2", 5)
	require.True(t, ok)
	assert.Equal(t, 5, next.Items[1].Quantity)
	assert.Equal(t, 6, next.Count)

	_, ok = c.WithQuantity("missing", 3)
	assert.False(t, ok)
}

func TestCart_WithQuantity_NonPositiveRemoves(t *testing.T) {
	c := NewCart([]CartItem{{ID: "P1", ProductID: "P1", Quantity: 3}, {ID: "P2", ProductID: "P2", Quantity: 1}})
	removed, _ := c.Without("P1")

	for _, q := range []int{0, -1} {
		next, ok := c.WithQuantity("P1", q)
		require.True(t, ok)
		assert.Equal(t, removed, next)
	}
}

func TestCart_Without(t *testing.T) {
	c := NewCart([]CartItem{{ID: "a", Quantity: 1}, {ID: "b", Quantity: 2}, {ID: "c", Quantity: 3}})

	next, ok := c.Without("b")
	require.True(t, ok)
	assert.Equal(t, []string{"a", "c"}, []string{next.Items[0].ID, next.Items[1].ID})
	assert.Equal(t, 4, next.Count)
	assert.Len(t, c.Items, 3)

	_, ok = c.Without("zzz")
	assert.False(t, ok)
}

func TestWishlist_ContainsAndIDs(t *testing.T) {
	w := Wishlist{Entries: []WishlistEntry{{ProductID: "P1"}, {ProductID: "P3"}}, Count: 2}

	assert.True(t, w.Contains("P3"))
	assert.False(t, w.Contains("P2"))
	assert.Equal(t, []string{"P1", "P3"}, w.ProductIDs())
}

func TestUniqueIDs(t *testing.T) {
	assert.Equal(t, []string{"P1", "P2"}, UniqueIDs([]string{"P1", "", "P2", "P1"}))
	assert.Empty(t, UniqueIDs(nil))
}

func TestProduct_Rentable(t *testing.T) {
	assert.True(t, Product{Type: "rent"}.Rentable())
	assert.True(t, Product{Type: "both"}.Rentable())
	assert.True(t, Product{Type: "sale", RentalPrice: 49}.Rentable())
	assert.False(t, Product{Type: "sale"}.Rentable())
}
