// Package storetest holds behaviour checks shared by every store backend.
package storetest

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/laptopstore/internal/store"
)

// RunBackendSuite exercises a Backend produced by newBackend. Each subtest
// gets a fresh backend.
func RunBackendSuite(t *testing.T, newBackend func(t *testing.T) store.Backend) {
	t.Helper()
	ctx := context.Background()

	t.Run("missing key", func(t *testing.T) {
		b := newBackend(t)
		v, found, err := b.Get(ctx, "storefront:token")
		require.NoError(t, err)
		assert.False(t, found)
		assert.Nil(t, v)
	})

	t.Run("set then get", func(t *testing.T) {
		b := newBackend(t)
		require.NoError(t, b.Set(ctx, "storefront:token", []byte("abc")))

		v, found, err := b.Get(ctx, "storefront:token")
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, []byte("abc"), v)
	})

	t.Run("overwrite", func(t *testing.T) {
		b := newBackend(t)
		require.NoError(t, b.Set(ctx, "k", []byte(`[1]`)))
		require.NoError(t, b.Set(ctx, "k", []byte(`[1,2]`)))

		v, _, err := b.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, []byte(`[1,2]`), v)
	})

	t.Run("delete", func(t *testing.T) {
		b := newBackend(t)
		require.NoError(t, b.Set(ctx, "k", []byte("v")))
		require.NoError(t, b.Delete(ctx, "k"))
		require.NoError(t, b.Delete(ctx, "never-set"))

		_, found, err := b.Get(ctx, "k")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("keys are independent", func(t *testing.T) {
		b := newBackend(t)
		require.NoError(t, b.Set(ctx, "a:user", []byte("1")))
		require.NoError(t, b.Set(ctx, "b:user", []byte("2")))

		v, _, err := b.Get(ctx, "a:user")
		require.NoError(t, err)
		assert.Equal(t, []byte("1"), v)
	})

	t.Run("returned slice is not aliased", func(t *testing.T) {
		b := newBackend(t)
		in := []byte("hello")
		require.NoError(t, b.Set(ctx, "k", in))
		in[0] = 'j'

		v, _, err := b.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, []byte("hello"), v)
	})

	t.Run("concurrent writers", func(t *testing.T) {
		b := newBackend(t)
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				key := fmt.Sprintf("k%d", i)
				assert.NoError(t, b.Set(ctx, key, []byte(key)))
			}()
		}
		wg.Wait()

		for i := 0; i < 8; i++ {
			key := fmt.Sprintf("k%d", i)
			v, found, err := b.Get(ctx, key)
			require.NoError(t, err)
			assert.True(t, found)
			assert.Equal(t, []byte(key), v)
		}
	})

	t.Run("ping", func(t *testing.T) {
		assert.NoError(t, newBackend(t).Ping(ctx))
	})
}
