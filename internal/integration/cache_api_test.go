package integration

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/socialchef/lru/internal/api"
	"github.com/socialchef/lru/internal/cache"
	"github.com/socialchef/lru/internal/client"
	"github.com/socialchef/lru/internal/config"
	"github.com/socialchef/lru/internal/utils"
	"github.com/socialchef/lru/internal/worker"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fixture struct {
	clock  *clock
	cache  *cache.Cache
	client *client.Client
}

func setup(t *testing.T, capacity int) *fixture {
	t.Helper()

	clk := &clock{now: time.Unix(1_700_000_000, 0)}
	c, err := cache.New(cache.Config{Capacity: capacity, Now: clk.Now})
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.SetDefaults()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	srv := httptest.NewServer(api.NewRouter(api.NewServer(cfg, c, nil), log))
	t.Cleanup(srv.Close)

	return &fixture{
		clock:  clk,
		cache:  c,
		client: client.New(srv.URL, client.WithRetryConfig(utils.NoRetryConfig())),
	}
}

func TestSetThenGet(t *testing.T) {
	f := setup(t, 4)
	ctx := context.Background()

	require.NoError(t, f.client.Set(ctx, "user:1", "alice", 60))

	value, found, err := f.client.Get(ctx, "user:1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "alice", value)
}

func TestExpiredKeyIsMissing(t *testing.T) {
	f := setup(t, 4)
	ctx := context.Background()

	require.NoError(t, f.client.Set(ctx, "session", "s1", 2))
	f.clock.Advance(2 * time.Second)

	_, found, err := f.client.Get(ctx, "session")
	require.NoError(t, err)
	assert.False(t, found)

	stats, err := f.client.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Len)
}

func TestLeastRecentlyUsedIsEvicted(t *testing.T) {
	f := setup(t, 2)
	ctx := context.Background()

	require.NoError(t, f.client.Set(ctx, "A", "a", 3600))
	require.NoError(t, f.client.Set(ctx, "B", "b", 3600))
	_, found, err := f.client.Get(ctx, "A")
	require.NoError(t, err)
	require.True(t, found)
	require.NoError(t, f.client.Set(ctx, "C", "c", 3600))

	_, found, err = f.client.Get(ctx, "B")
	require.NoError(t, err)
	assert.False(t, found, "B was least recently used")

	for _, k := range []string{"A", "C"} {
		_, found, err := f.client.Get(ctx, k)
		require.NoError(t, err)
		assert.True(t, found, k)
	}

	stats, err := f.client.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Len)
	assert.Equal(t, 2, stats.Capacity)
}

func TestOverwriteRefreshesValueAndTTL(t *testing.T) {
	f := setup(t, 2)
	ctx := context.Background()

	require.NoError(t, f.client.Set(ctx, "k", "old", 1))
	require.NoError(t, f.client.Set(ctx, "k", "new", 10))
	f.clock.Advance(5 * time.Second)

	value, found, err := f.client.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "new", value)
}

func TestDelete(t *testing.T) {
	f := setup(t, 2)
	ctx := context.Background()

	require.NoError(t, f.client.Set(ctx, "k", "v", 60))
	require.NoError(t, f.client.Delete(ctx, "k"))
	require.NoError(t, f.client.Delete(ctx, "never-set"))

	_, found, err := f.client.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestKeysNeedingEscape(t *testing.T) {
	f := setup(t, 4)
	ctx := context.Background()

	for _, k := range []string{"a/b", "with space", "100%", "ключ"} {
		require.NoError(t, f.client.Set(ctx, k, "v:"+k, 60))
		value, found, err := f.client.Get(ctx, k)
		require.NoError(t, err, k)
		assert.True(t, found, k)
		assert.Equal(t, "v:"+k, value)
	}
}

func TestSweeperReclaimsExpired(t *testing.T) {
	f := setup(t, 8)
	ctx := context.Background()

	require.NoError(t, f.client.Set(ctx, "short", "v", 1))
	require.NoError(t, f.client.Set(ctx, "long", "v", 3600))
	f.clock.Advance(time.Second)

	sweeper := worker.NewSweeper(f.cache, time.Minute, nil)
	assert.Equal(t, 1, sweeper.SweepOnce(ctx))
	assert.Equal(t, []string{"long"}, f.cache.Keys())
}
