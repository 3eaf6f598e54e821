package repository

import (
	"io"
	"log/slog"
	"testing"

	"github.com/Kamron201111/telegram-stars-bot/internal/identity"
	appredis "github.com/Kamron201111/telegram-stars-bot/pkg/redis"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
)

const testAdminID int64 = 1001

func setupTestRedis(t *testing.T) (*appredis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client, err := appredis.New(appredis.Config{URL: "redis://" + mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return client, mr
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newProfileStore(kv KeyValue) *ProfileStore {
	return NewProfileStore(kv, identity.NewResolver(testAdminID), NewBreaker(), testLogger())
}

