//go:build integration

package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRedisCacheIntegration(t *testing.T) {
	url := os.Getenv("BBLOCKS_REDIS_URL")
	if url == "" {
		t.Skip("BBLOCKS_REDIS_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	c, err := NewRedisCache(ctx, url)
	require.NoError(t, err)
	defer c.Close()
	backendContract(t, NewScoped(c, "bblocks-test:"+t.Name()+":"))
}

func TestMongoCacheIntegration(t *testing.T) {
	uri := os.Getenv("BBLOCKS_MONGO_URI")
	if uri == "" {
		t.Skip("BBLOCKS_MONGO_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	c, err := NewMongoCache(ctx, uri, "bblocks_test", "fetch_cache_test")
	require.NoError(t, err)
	defer c.Close()
	backendContract(t, c)
}
