package redis

import (
	"context"
	"sort"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client, err := New(Config{URL: "redis://" + mr.Addr() + "/0"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return client, mr
}

func TestNew_InvalidURL(t *testing.T) {
	_, err := New(Config{URL: "http://not-redis"})
	assert.Error(t, err)
}

func TestClient_SetGetDelete(t *testing.T) {
	client, mr := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, client.Ping(ctx))
	require.NoError(t, client.Set(ctx, "user:1", "payload", time.Hour))

	value, err := client.Get(ctx, "user:1")
	require.NoError(t, err)
	assert.Equal(t, "payload", value)
	assert.Equal(t, time.Hour, mr.TTL("user:1"))

	require.NoError(t, client.Delete(ctx, "user:1"))
	_, err = client.Get(ctx, "user:1")
	assert.ErrorIs(t, err, Nil)
}

func TestClient_SetNX(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	ok, err := client.SetNX(ctx, "order:ORD1", "a", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = client.SetNX(ctx, "order:ORD1", "b", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMetricsClient_ScanKeys(t *testing.T) {
	client, mr := newTestClient(t)
	ctx := context.Background()
	m := NewMetricsClient(client)

	require.NoError(t, mr.Set("order:ORD1", "{}"))
	require.NoError(t, mr.Set("order:ORD2", "{}"))
	require.NoError(t, mr.Set("user:7", "{}"))

	keys, err := m.ScanKeys(ctx, "order:*")
	require.NoError(t, err)
	sort.Strings(keys)
	assert.Equal(t, []string{"order:ORD1", "order:ORD2"}, keys)
}

func TestClient_PingUnavailable(t *testing.T) {
	client, mr := newTestClient(t)
	mr.Close()

	assert.Error(t, client.Ping(context.Background()))
}
