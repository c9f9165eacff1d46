package settings_test

import (
	"context"
	"testing"

	domainErrors "github.com/sahelpay/momo/internal/domain/errors"
	"github.com/sahelpay/momo/internal/settings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_SetAndGet(t *testing.T) {
	store := settings.NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "default_currency", "XOF"))

	got, err := store.Get(ctx, "default_currency")
	require.NoError(t, err)
	assert.Equal(t, "XOF", got)
}

func TestMemoryStore_GetMissing(t *testing.T) {
	store := settings.NewMemoryStore()
	_, err := store.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, domainErrors.ErrSettingNotFound)
}

func TestMemoryStore_SetOverwrites(t *testing.T) {
	store := settings.NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "poll_interval", "5s"))
	require.NoError(t, store.Set(ctx, "poll_interval", "10s"))

	got, err := store.Get(ctx, "poll_interval")
	require.NoError(t, err)
	assert.Equal(t, "10s", got)
}

func TestMemoryStore_List(t *testing.T) {
	store := settings.NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "a", "1"))
	require.NoError(t, store.Set(ctx, "b", "2"))

	all, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "1", "b": "2"}, all)
}

func TestMemoryStore_ListEmpty(t *testing.T) {
	store := settings.NewMemoryStore()
	all, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestMemoryStore_Delete(t *testing.T) {
	store := settings.NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "a", "1"))
	require.NoError(t, store.Delete(ctx, "a"))

	_, err := store.Get(ctx, "a")
	assert.ErrorIs(t, err, domainErrors.ErrSettingNotFound)
}

func TestMemoryStore_DeleteMissingIsNoop(t *testing.T) {
	store := settings.NewMemoryStore()
	assert.NoError(t, store.Delete(context.Background(), "nope"))
}

func TestMemoryStore_ListReturnsCopy(t *testing.T) {
	store := settings.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "a", "1"))

	all, err := store.List(ctx)
	require.NoError(t, err)
	all["a"] = "mutated"

	got, err := store.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "1", got)
}
