package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/laptopstore/internal/store"
	"github.com/utafrali/laptopstore/internal/store/storetest"
)

var _ store.Backend = (*Backend)(nil)

func openTemp(t *testing.T) (*Backend, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "storefront.db")
	b, err := Open(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	return b, path
}

func TestBackend(t *testing.T) {
	storetest.RunBackendSuite(t, func(t *testing.T) store.Backend {
		b, _ := openTemp(t)
		return b
	})
}

func TestBackend_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	b, path := openTemp(t)
	require.NoError(t, b.Set(ctx, "storefront:token", []byte("tok-1")))
	require.NoError(t, b.Close())

	reopened, err := Open(ctx, path)
	require.NoError(t, err)
	defer reopened.Close()

	v, found, err := reopened.Get(ctx, "storefront:token")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("tok-1"), v)
}

func TestBackend_UpdatedAtTracksWrites(t *testing.T) {
	ctx := context.Background()
	b, _ := openTemp(t)
	require.NoError(t, b.Set(ctx, "k", []byte("1")))

	var n int
	require.NoError(t, b.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM kv WHERE key = 'k' AND updated_at IS NOT NULL`).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestOpen_BadPath(t *testing.T) {
	_, err := Open(context.Background(), filepath.Join(t.TempDir(), "missing", "dir", "x.db"))
	assert.Error(t, err)
}

func TestBackend_ClosedDatabase(t *testing.T) {
	b, _ := openTemp(t)
	require.NoError(t, b.Close())

	_, _, err := b.Get(context.Background(), "k")
	assert.Error(t, err)
}
