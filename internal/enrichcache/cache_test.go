package enrichcache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wachira/pesaflow/internal/blobstore"
)

func TestCacheRoundTrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	c := New(blobstore.New(dir))

	data := EnrichedData{
		Merchant: "Java House",
		Category: "Eating Out",
		Info:     &EnrichedInfo{OfficialName: "Java House Africa", Website: "javahouseafrica.com"},
	}
	require.NoError(t, c.Set("Java House", data))

	got, ok := c.Get("Java House")
	require.True(t, ok)
	require.Equal(t, data, got)
}

func TestCacheSurvivesRestart(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store := blobstore.New(dir)

	c1 := New(store)
	require.NoError(t, c1.Set("KPLC PREPAID", EnrichedData{Merchant: "KPLC", Category: "Utilities"}))

	// New process: fresh cache over the same store.
	c2 := New(blobstore.New(dir))
	require.NoError(t, c2.Load())
	got, ok := c2.Get("KPLC PREPAID")
	require.True(t, ok)
	require.Equal(t, "KPLC", got.Merchant)
	require.Equal(t, "Utilities", got.Category)
	require.Equal(t, 1, c2.Len())
}

func TestCacheLastWriterWins(t *testing.T) {
	t.Parallel()

	c := New(blobstore.New(t.TempDir()))
	require.NoError(t, c.Set("k", EnrichedData{Merchant: "A", Category: "X"}))
	require.NoError(t, c.Set("k", EnrichedData{Merchant: "B", Category: "Y"}))

	got, ok := c.Get("k")
	require.True(t, ok)
	require.Equal(t, "B", got.Merchant)
	require.Equal(t, 1, c.Len())
}

func TestCacheCorruptBlobTreatedAsEmpty(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "enrichment_cache.json"), []byte("{not json"), 0o600))

	c := New(blobstore.New(dir))
	require.NoError(t, c.Load())
	require.Equal(t, 0, c.Len())

	_, ok := c.Get("anything")
	require.False(t, ok)
}
