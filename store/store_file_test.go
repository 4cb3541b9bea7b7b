package store_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/myfamilydoc/go-console-client/store"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestFileStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	s := store.NewFileStore(path, zerolog.Nop())

	require.NoError(t, s.Set(store.KeyAccessToken, "access-1"))
	require.NoError(t, s.Set(store.KeyRefreshToken, "refresh-1"))

	v, ok := s.Get(store.KeyAccessToken)
	require.True(t, ok)
	require.Equal(t, "access-1", v)
}

func TestFileStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	s := store.NewFileStore(path, zerolog.Nop())
	require.NoError(t, s.Set(store.KeyAccessToken, "access-1"))

	reopened := store.NewFileStore(path, zerolog.Nop())
	v, ok := reopened.Get(store.KeyAccessToken)
	require.True(t, ok)
	require.Equal(t, "access-1", v)
}

func TestFileStore_MissingFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist.json")
	s := store.NewFileStore(path, zerolog.Nop())

	_, ok := s.Get(store.KeyAccessToken)
	require.False(t, ok)
}

func TestFileStore_CorruptFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	s := store.NewFileStore(path, zerolog.Nop())

	_, ok := s.Get(store.KeyAccessToken)
	require.False(t, ok)

	// The store is still usable after discarding the corrupt content.
	require.NoError(t, s.Set(store.KeyAccessToken, "access-1"))
	v, ok := s.Get(store.KeyAccessToken)
	require.True(t, ok)
	require.Equal(t, "access-1", v)
}

func TestFileStore_CreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "state.json")
	s := store.NewFileStore(path, zerolog.Nop())

	require.NoError(t, s.Set(store.KeyConsent, "granted"))

	reopened := store.NewFileStore(path, zerolog.Nop())
	v, ok := reopened.Get(store.KeyConsent)
	require.True(t, ok)
	require.Equal(t, "granted", v)
}

func TestFileStore_RestrictsFilePermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	s := store.NewFileStore(path, zerolog.Nop())
	require.NoError(t, s.Set(store.KeyAccessToken, "access-1"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestFileStore_DeleteRemovesKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	s := store.NewFileStore(path, zerolog.Nop())
	require.NoError(t, s.Set(store.KeyAccessToken, "access-1"))

	require.NoError(t, s.Delete(store.KeyAccessToken))
	require.NoError(t, s.Delete(store.KeyAccessToken)) // idempotent

	_, ok := s.Get(store.KeyAccessToken)
	require.False(t, ok)
}
