package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"findex/internal/storage"
)

func openTestIndex(t *testing.T) *IndexStore {
	t.Helper()
	store, err := OpenIndex(filepath.Join(t.TempDir(), "index.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func openTestComparison(t *testing.T) *ComparisonStore {
	t.Helper()
	store, err := OpenComparison(filepath.Join(t.TempDir(), "comparison.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestOpenIndexEmptyPath(t *testing.T) {
	_, err := OpenIndex("  ")
	assert.Error(t, err)
}

func TestIndexStoreUpsertAndLookup(t *testing.T) {
	ctx := context.Background()
	store := openTestIndex(t)

	record := storage.FileRecord{
		Path:     "docs/readme.md",
		Size:     42,
		Hash:     "abc123",
		Created:  time.Unix(0, 1700000000000000000),
		Modified: time.Unix(0, 1700000001000000000),
	}
	require.NoError(t, store.Upsert(ctx, record))

	got, ok, err := store.Lookup(ctx, "docs/readme.md")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, record, got)

	_, ok, err = store.Lookup(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIndexStoreUpsertReplaces(t *testing.T) {
	ctx := context.Background()
	store := openTestIndex(t)

	record := storage.FileRecord{Path: "f.txt", Size: 1, Hash: "h1", Modified: time.Unix(1, 0)}
	require.NoError(t, store.Upsert(ctx, record))

	record.Size = 2
	record.Hash = "h2"
	require.NoError(t, store.Upsert(ctx, record))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	got, ok, err := store.Lookup(ctx, "f.txt")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "h2", got.Hash)
	assert.Equal(t, int64(2), got.Size)
}

func TestIndexStoreNullTimestamps(t *testing.T) {
	ctx := context.Background()
	store := openTestIndex(t)

	require.NoError(t, store.Upsert(ctx, storage.FileRecord{Path: "no-times", Size: 3, Hash: "h"}))

	got, ok, err := store.Lookup(ctx, "no-times")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, got.Created.IsZero())
	assert.True(t, got.Modified.IsZero())
}

func TestIndexStoreDelete(t *testing.T) {
	ctx := context.Background()
	store := openTestIndex(t)

	require.NoError(t, store.Upsert(ctx, storage.FileRecord{Path: "gone.txt", Hash: "h"}))
	require.NoError(t, store.Delete(ctx, "gone.txt"))

	_, ok, err := store.Lookup(ctx, "gone.txt")
	require.NoError(t, err)
	assert.False(t, ok)

	// Deleting an absent row is not an error.
	require.NoError(t, store.Delete(ctx, "gone.txt"))
}

func TestIndexStoreLoadAllOrdered(t *testing.T) {
	ctx := context.Background()
	store := openTestIndex(t)

	for _, path := range []string{"b.txt", "a.txt", "c/d.txt"} {
		require.NoError(t, store.Upsert(ctx, storage.FileRecord{Path: path, Hash: "h"}))
	}

	records, err := store.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "a.txt", records[0].Path)
	assert.Equal(t, "b.txt", records[1].Path)
	assert.Equal(t, "c/d.txt", records[2].Path)
}

func TestIndexStoreMeta(t *testing.T) {
	ctx := context.Background()
	store := openTestIndex(t)

	value, err := store.Meta(ctx, MetaAlgorithm)
	require.NoError(t, err)
	assert.Empty(t, value)

	require.NoError(t, store.PutMeta(ctx, MetaAlgorithm, "sha1"))
	require.NoError(t, store.PutMeta(ctx, MetaAlgorithm, "sha256"))

	value, err = store.Meta(ctx, MetaAlgorithm)
	require.NoError(t, err)
	assert.Equal(t, "sha256", value)
}

func TestComparisonStoreOrigins(t *testing.T) {
	ctx := context.Background()
	store := openTestComparison(t)

	require.NoError(t, store.Insert(ctx, storage.OriginLeft, storage.FileRecord{Path: "x", Size: 1, Hash: "h1"}))
	require.NoError(t, store.Insert(ctx, storage.OriginRight, storage.FileRecord{Path: "x", Size: 2, Hash: "h2"}))

	left, err := store.LoadOrigin(ctx, storage.OriginLeft)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, int64(1), left[0].Size)

	right, err := store.LoadOrigin(ctx, storage.OriginRight)
	require.NoError(t, err)
	require.Len(t, right, 1)
	assert.Equal(t, "h2", right[0].Hash)

	count, err := store.Count(ctx, storage.OriginLeft)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestComparisonStoreReset(t *testing.T) {
	ctx := context.Background()
	store := openTestComparison(t)

	require.NoError(t, store.Insert(ctx, storage.OriginLeft, storage.FileRecord{Path: "x", Hash: "h"}))
	require.NoError(t, store.PutMeta(ctx, MetaCreatedAt, "then"))
	require.NoError(t, store.Reset(ctx))

	count, err := store.Count(ctx, storage.OriginLeft)
	require.NoError(t, err)
	assert.Zero(t, count)

	value, err := store.Meta(ctx, MetaCreatedAt)
	require.NoError(t, err)
	assert.Empty(t, value)
}
