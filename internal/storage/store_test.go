package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "client.json")
	store := NewFileStore(path)

	_, err := store.Get("missing")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Set(KeyAuthToken, "jwt123"))
	require.NoError(t, store.Set(KeyOnboardingDone, "true"))

	value, err := store.Get(KeyAuthToken)
	require.NoError(t, err)
	require.Equal(t, "jwt123", value)

	// Values survive in a fresh store instance.
	reopened := NewFileStore(path)
	value, err = reopened.Get(KeyOnboardingDone)
	require.NoError(t, err)
	require.Equal(t, "true", value)

	require.NoError(t, reopened.Delete(KeyAuthToken))
	_, err = reopened.Get(KeyAuthToken)
	require.ErrorIs(t, err, ErrNotFound)

	// Deleting an absent key is a no-op.
	require.NoError(t, reopened.Delete("missing"))
}

func TestFileStoreRejectsCorruptContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o600))

	store := NewFileStore(path)
	_, err := store.Get("anything")
	require.Error(t, err)
	require.Contains(t, err.Error(), "parse store")
}

func TestDefaultPathPrefersXDGStateHome(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", "/tmp/state")
	path, err := DefaultPath()
	require.NoError(t, err)
	require.Equal(t, "/tmp/state/speakflow/client.json", path)
}

func TestTokensAdapter(t *testing.T) {
	store := NewMemoryStore()
	tokens := Tokens{Store: store}

	// Missing token reads as empty, not an error.
	value, err := tokens.Token()
	require.NoError(t, err)
	require.Empty(t, value)

	require.NoError(t, tokens.SetToken("jwt456"))
	value, err = tokens.Token()
	require.NoError(t, err)
	require.Equal(t, "jwt456", value)

	require.NoError(t, tokens.ClearToken())
	value, err = tokens.Token()
	require.NoError(t, err)
	require.Empty(t, value)
}
