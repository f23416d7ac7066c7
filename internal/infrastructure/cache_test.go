package infrastructure

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yourusername/mediafetch/internal/domain"
)

// testClock lets cache tests move time forward
type testClock struct{ t time.Time }

func (c *testClock) now() time.Time { return c.t }

func setupCaches(t *testing.T) map[string]struct {
	cache domain.CollectionCache
	clock *testClock
} {
	t.Helper()
	dir := t.TempDir()
	clockA := &testClock{t: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)}
	clockB := &testClock{t: clockA.t}

	sqliteCache, err := NewSQLiteCollectionCache(filepath.Join(dir, "sub", "cache.db"))
	require.NoError(t, err)
	sqliteCache.now = clockA.now

	boltCache, err := NewBoltCollectionCache(filepath.Join(dir, "cache.bolt"))
	require.NoError(t, err)
	boltCache.now = clockB.now

	t.Cleanup(func() {
		sqliteCache.Close()
		boltCache.Close()
	})

	return map[string]struct {
		cache domain.CollectionCache
		clock *testClock
	}{
		"sqlite": {sqliteCache, clockA},
		"bolt":   {boltCache, clockB},
	}
}

func sampleCollection() *domain.CollectionMetadata {
	return &domain.CollectionMetadata{
		Title: "My List!",
		Items: []domain.ItemDescriptor{
			{Title: "A", SourceReference: "vid-a"},
			{Title: "B 2024", SourceReference: "vid-b"},
		},
	}
}

func TestCollectionCache_PutGet(t *testing.T) {
	for name, tc := range setupCaches(t) {
		t.Run(name, func(t *testing.T) {
			miss, err := tc.cache.Get("ref", time.Hour)
			require.NoError(t, err)
			assert.Nil(t, miss)

			require.NoError(t, tc.cache.Put("ref", sampleCollection()))

			hit, err := tc.cache.Get("ref", time.Hour)
			require.NoError(t, err)
			require.NotNil(t, hit)
			assert.Equal(t, "My List!", hit.Title)
			assert.Equal(t, sampleCollection().Items, hit.Items)
		})
	}
}

func TestCollectionCache_ReplaceAndExpire(t *testing.T) {
	for name, tc := range setupCaches(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, tc.cache.Put("ref", sampleCollection()))

			updated := sampleCollection()
			updated.Title = "Renamed"
			require.NoError(t, tc.cache.Put("ref", updated))

			hit, err := tc.cache.Get("ref", time.Hour)
			require.NoError(t, err)
			require.NotNil(t, hit)
			assert.Equal(t, "Renamed", hit.Title)

			tc.clock.t = tc.clock.t.Add(2 * time.Hour)
			stale, err := tc.cache.Get("ref", time.Hour)
			require.NoError(t, err)
			assert.Nil(t, stale)
		})
	}
}

func TestCollectionCache_Purge(t *testing.T) {
	for name, tc := range setupCaches(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, tc.cache.Put("old", sampleCollection()))
			tc.clock.t = tc.clock.t.Add(3 * time.Hour)
			require.NoError(t, tc.cache.Put("new", sampleCollection()))

			removed, err := tc.cache.Purge(time.Hour)
			require.NoError(t, err)
			assert.Equal(t, int64(1), removed)

			hit, err := tc.cache.Get("new", time.Hour)
			require.NoError(t, err)
			assert.NotNil(t, hit)
		})
	}
}

func TestBoltCollectionCache_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.bolt")
	c, err := NewBoltCollectionCache(path)
	require.NoError(t, err)
	require.NoError(t, c.Put("ref", sampleCollection()))
	require.NoError(t, c.Close())

	c, err = NewBoltCollectionCache(path)
	require.NoError(t, err)
	defer c.Close()

	hit, err := c.Get("ref", time.Hour)
	require.NoError(t, err)
	require.NotNil(t, hit)
	assert.Len(t, hit.Items, 2)
}

func TestOpenCollectionCache(t *testing.T) {
	dir := t.TempDir()

	c, err := OpenCollectionCache(domain.CacheConfig{Backend: domain.CacheBolt, Path: filepath.Join(dir, "c.bolt")})
	require.NoError(t, err)
	assert.IsType(t, &BoltCollectionCache{}, c)
	c.Close()

	c, err = OpenCollectionCache(domain.CacheConfig{Backend: domain.CacheSQLite, Path: filepath.Join(dir, "c.db")})
	require.NoError(t, err)
	assert.IsType(t, &SQLiteCollectionCache{}, c)
	c.Close()

	_, err = OpenCollectionCache(domain.CacheConfig{Backend: "redis"})
	assert.Error(t, err)
}

// countingResolver counts collection lookups
type countingResolver struct {
	collections int
	err         error
}

func (r *countingResolver) ResolveCollection(ctx context.Context, ref string) (*domain.CollectionMetadata, error) {
	r.collections++
	if r.err != nil {
		return nil, r.err
	}
	return sampleCollection(), nil
}

func (r *countingResolver) ResolveItem(ctx context.Context, ref string) (*domain.ItemDescriptor, error) {
	return &domain.ItemDescriptor{Title: "solo", SourceReference: ref}, nil
}

func (r *countingResolver) BestStream(ctx context.Context, item domain.ItemDescriptor) (domain.StreamHandle, error) {
	return nil, domain.ErrNoStreamAvailable
}

func TestCachingResolver(t *testing.T) {
	cache, err := NewBoltCollectionCache(filepath.Join(t.TempDir(), "c.bolt"))
	require.NoError(t, err)
	defer cache.Close()

	inner := &countingResolver{}
	r := NewCachingResolver(inner, cache, time.Hour, zap.NewNop())

	first, err := r.ResolveCollection(context.Background(), "ref")
	require.NoError(t, err)
	second, err := r.ResolveCollection(context.Background(), "ref")
	require.NoError(t, err)

	assert.Equal(t, 1, inner.collections)
	assert.Equal(t, first.Items, second.Items)

	// Non-collection answers are not cached
	inner.err = domain.ErrNotACollection
	_, err = r.ResolveCollection(context.Background(), "single")
	assert.ErrorIs(t, err, domain.ErrNotACollection)
	_, err = r.ResolveCollection(context.Background(), "single")
	assert.ErrorIs(t, err, domain.ErrNotACollection)
	assert.Equal(t, 3, inner.collections)

	// Other methods pass straight through
	item, err := r.ResolveItem(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "solo", item.Title)
	_, err = r.BestStream(context.Background(), *item)
	assert.True(t, errors.Is(err, domain.ErrNoStreamAvailable))
}

func TestFSGate(t *testing.T) {
	dir := t.TempDir()
	var gate FSGate
	assert.True(t, gate.Exists(dir))
	assert.False(t, gate.Exists(filepath.Join(dir, "missing.mp4")))
}
