package sizecache

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "cache"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_PutGet(t *testing.T) {
	store := newStore(t)

	want := &Entry{SizeBytes: 123456, ManifestMtime: 987654}
	require.NoError(t, store.Put("/lib/steamapps/common/Foo", want))

	got, err := store.Get("/lib/steamapps/common/Foo")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestStore_GetMissing(t *testing.T) {
	store := newStore(t)

	_, err := store.Get("/lib/steamapps/common/Nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_Overwrite(t *testing.T) {
	store := newStore(t)

	require.NoError(t, store.Put("/game", &Entry{SizeBytes: 1, ManifestMtime: 1}))
	require.NoError(t, store.Put("/game", &Entry{SizeBytes: 2, ManifestMtime: 2}))

	got, err := store.Get("/game")
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.SizeBytes)
}

func TestStore_Delete(t *testing.T) {
	store := newStore(t)

	require.NoError(t, store.Put("/game", &Entry{SizeBytes: 1}))
	require.NoError(t, store.Delete("/game"))

	_, err := store.Get("/game")
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting a missing key is not an error.
	assert.NoError(t, store.Delete("/game"))
}
