package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-wallet-lab/internal/storage"
)

func TestSessionStore_SaveLoadClear(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore()

	_, err := store.Load(ctx)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, store.Save(ctx, "addr1"))
	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "addr1", got)

	require.NoError(t, store.Save(ctx, "addr2"))
	got, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "addr2", got)

	require.NoError(t, store.Clear(ctx))
	_, err = store.Load(ctx)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// Clear is idempotent
	require.NoError(t, store.Clear(ctx))
}

func TestSessionStore_SaveEmpty(t *testing.T) {
	store := NewSessionStore()
	err := store.Save(context.Background(), "")
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}
