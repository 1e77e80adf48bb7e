package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/laptopstore/internal/store"
	"github.com/utafrali/laptopstore/internal/store/storetest"
)

var _ store.Backend = (*Backend)(nil)

func TestBackend(t *testing.T) {
	storetest.RunBackendSuite(t, func(t *testing.T) store.Backend {
		return New()
	})
}

func TestBackend_CloseFlushes(t *testing.T) {
	ctx := context.Background()
	b := New()
	require.NoError(t, b.Set(ctx, "k", []byte("v")))
	require.NoError(t, b.Close())

	_, found, err := b.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)
}
