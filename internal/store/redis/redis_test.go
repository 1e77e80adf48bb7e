package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/laptopstore/internal/store"
	"github.com/utafrali/laptopstore/internal/store/storetest"
)

var _ store.Backend = (*Backend)(nil)

func setupTestRedis(t *testing.T) (*Backend, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	b := New(client)
	t.Cleanup(func() { _ = b.Close() })
	return b, mr
}

func TestBackend(t *testing.T) {
	storetest.RunBackendSuite(t, func(t *testing.T) store.Backend {
		b, _ := setupTestRedis(t)
		return b
	})
}

func TestBackend_SetHasNoTTL(t *testing.T) {
	b, mr := setupTestRedis(t)
	require.NoError(t, b.Set(context.Background(), "storefront:guest_cart", []byte(`[]`)))

	assert.Zero(t, mr.TTL("storefront:guest_cart"))
	got, err := mr.Get("storefront:guest_cart")
	require.NoError(t, err)
	assert.Equal(t, "[]", got)
}

func TestBackend_ConnectionError(t *testing.T) {
	b, mr := setupTestRedis(t)
	mr.Close()

	_, _, err := b.Get(context.Background(), "k")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis get k")
	assert.Error(t, b.Ping(context.Background()))
}

func TestDial(t *testing.T) {
	mr := miniredis.RunT(t)

	addr := mr.Addr()

	b, err := Dial(context.Background(), addr, "", 0)
	require.NoError(t, err)
	require.NoError(t, b.Close())

	mr.Close()
	_, err = Dial(context.Background(), addr, "", 0)
	assert.Error(t, err)
}
