package localstore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(":memory:", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestPutAndGet(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Put("greeting", "olá"))

	value, err := store.Get("greeting")
	require.NoError(t, err)
	assert.Equal(t, "olá", value)
}

func TestPutOverwrites(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Put("k", "first"))
	require.NoError(t, store.Put("k", "second"))

	value, err := store.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "second", value)
}

func TestGetMissingKey(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Get("nope")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestDelete(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Put("k", "v"))
	require.NoError(t, store.Delete("k"))

	_, err := store.Get("k")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	// Deleting an absent key is not an error.
	assert.NoError(t, store.Delete("k"))
}

func TestJSONRoundTrip(t *testing.T) {
	store := newTestStore(t)

	type pref struct {
		Field string `json:"field"`
		Order string `json:"order"`
	}

	require.NoError(t, store.PutJSON(KeySortPref, pref{Field: "preco", Order: "desc"}))

	var got pref
	require.NoError(t, store.GetJSON(KeySortPref, &got))
	assert.Equal(t, pref{Field: "preco", Order: "desc"}, got)
}

func TestGetJSONMissingKey(t *testing.T) {
	store := newTestStore(t)

	var out map[string]string
	assert.ErrorIs(t, store.GetJSON("missing", &out), ErrKeyNotFound)
}

func TestOpenOnDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.db")

	store, err := Open(path, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, store.Put("k", "v"))
	require.NoError(t, store.Close())

	// Reopening sees the persisted value.
	store, err = Open(path, zap.NewNop())
	require.NoError(t, err)
	defer store.Close()

	value, err := store.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", value)
}
