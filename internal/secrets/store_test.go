package secrets

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStoreFetchDeleteRoundTrip(t *testing.T) {
	t.Setenv(DirEnv, t.TempDir())

	require.NoError(t, StoreProviderKey("Gemini", "sk-test-123"))

	got, err := FetchProviderKey("gemini") // lookup is case-insensitive
	require.NoError(t, err)
	require.Equal(t, "sk-test-123", got)

	require.NoError(t, StoreProviderKey("gemini", "sk-rotated"))
	got, err = FetchProviderKey("gemini")
	require.NoError(t, err)
	require.Equal(t, "sk-rotated", got)

	require.NoError(t, DeleteProviderKey("gemini"))
	_, err = FetchProviderKey("gemini")
	require.Error(t, err)
}

func TestFetchMissingProvider(t *testing.T) {
	t.Setenv(DirEnv, t.TempDir())

	_, err := FetchProviderKey("openai")
	require.Error(t, err)
	_, err = FetchProviderKey("")
	require.Error(t, err)
}
