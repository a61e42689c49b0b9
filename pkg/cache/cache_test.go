package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	data, hit, err := c.Get(ctx, "key")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Nil(t, data)

	require.NoError(t, c.Set(ctx, "key", []byte("value"), time.Hour))
	_, hit, _ = c.Get(ctx, "key")
	assert.False(t, hit, "NullCache should not store data")
	require.NoError(t, c.Delete(ctx, "key"))
}

// backendContract runs the behaviour every backend must share.
func backendContract(t *testing.T, c Cache) {
	t.Helper()
	ctx := context.Background()

	_, hit, err := c.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, c.Set(ctx, "fetch:https://example.org/r.json", []byte(`{"name":"r"}`), time.Hour))
	data, hit, err := c.Get(ctx, "fetch:https://example.org/r.json")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, `{"name":"r"}`, string(data))

	require.NoError(t, c.Set(ctx, "fetch:https://example.org/r.json", []byte("v2"), 0))
	data, _, _ = c.Get(ctx, "fetch:https://example.org/r.json")
	assert.Equal(t, "v2", string(data))

	require.NoError(t, c.Delete(ctx, "fetch:https://example.org/r.json"))
	_, hit, _ = c.Get(ctx, "fetch:https://example.org/r.json")
	assert.False(t, hit)
	require.NoError(t, c.Delete(ctx, "never-set"))
}

func TestFileCache(t *testing.T) {
	c, err := NewFileCache(t.TempDir())
	require.NoError(t, err)
	backendContract(t, c)
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Nanosecond))
	time.Sleep(2 * time.Millisecond)
	_, hit, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, hit)
	_, statErr := os.Stat(c.path("k"))
	assert.True(t, os.IsNotExist(statErr), "expired entry should be removed")
}

func TestFileCacheCorruptEntryIsMiss(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	require.NoError(t, err)

	path := c.path("k")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))

	_, hit, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	require.NoError(t, err)

	for _, k := range []string{"a", "b", "c"} {
		require.NoError(t, c.Set(ctx, k, []byte(k), 0))
	}
	n, err := c.Clear()
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	_, hit, _ := c.Get(ctx, "a")
	assert.False(t, hit)
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache()
	defer c.Close()
	backendContract(t, c)
}

func TestMemoryCacheReturnsCopies(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	src := []byte("abc")
	require.NoError(t, c.Set(ctx, "k", src, 0))
	src[0] = 'x'

	got, _, _ := c.Get(ctx, "k")
	assert.Equal(t, "abc", string(got))
	got[1] = 'y'
	again, _, _ := c.Get(ctx, "k")
	assert.Equal(t, "abc", string(again))
	assert.Equal(t, 1, c.Len())
}

func TestScoped(t *testing.T) {
	ctx := context.Background()
	inner := NewMemoryCache()
	a := NewScoped(inner, "a:")
	b := NewScoped(inner, "b:")

	require.NoError(t, a.Set(ctx, "k", []byte("from-a"), 0))
	_, hit, _ := b.Get(ctx, "k")
	assert.False(t, hit)

	data, hit, _ := inner.Get(ctx, "a:k")
	assert.True(t, hit)
	assert.Equal(t, "from-a", string(data))

	backendContract(t, NewScoped(NewMemoryCache(), "x:"))
}

func TestScopedNilInnerStoresNothing(t *testing.T) {
	ctx := context.Background()
	c := NewScoped(nil, "x:")

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Hour))
	_, hit, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, hit)
	require.NoError(t, c.Close())
}

func TestHashAndKey(t *testing.T) {
	assert.Equal(t, Hash([]byte("hello")), Hash([]byte("hello")))
	assert.NotEqual(t, Hash([]byte("hello")), Hash([]byte("world")))
	assert.Len(t, Hash([]byte("hello")), 64)
	assert.Equal(t, "fetch:https://x", Key("fetch", "https://x"))
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	c, err := Open(ctx, Config{Backend: BackendNone})
	require.NoError(t, err)
	assert.IsType(t, &NullCache{}, c)

	c, err = Open(ctx, Config{Dir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &FileCache{}, c)

	c, err = Open(ctx, Config{Backend: BackendMemory})
	require.NoError(t, err)
	assert.IsType(t, &MemoryCache{}, c)

	_, err = Open(ctx, Config{Backend: BackendFile})
	assert.Error(t, err)
	_, err = Open(ctx, Config{Backend: BackendRedis})
	assert.Error(t, err)
	_, err = Open(ctx, Config{Backend: BackendMongo})
	assert.Error(t, err)

	_, err = Open(ctx, Config{Backend: "etcd"})
	assert.True(t, errors.Is(err, ErrUnknownBackend))
}
