package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFile_FromYAMLAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yaml")
	yaml := []byte(`
bot:
  token: yaml-token
admin:
  chat_id: 6498632307
redis:
  url: redis://cache:6379/2
conversation:
  backend: redis
  ttl: 30m
`)
	require.NoError(t, os.WriteFile(path, yaml, 0o600))

	t.Setenv("SUPPORT_USERNAME", "@helpdesk")

	cfg, v, err := LoadFile(path, "test")
	require.NoError(t, err)
	require.NotNil(t, v)

	assert.Equal(t, "test", cfg.AppEnv)
	assert.Equal(t, "yaml-token", cfg.Bot.Token)
	assert.Equal(t, "polling", cfg.Bot.Mode)
	assert.Equal(t, int64(6498632307), cfg.Admin.ChatID)
	assert.Equal(t, "redis://cache:6379/2", cfg.Redis.URL)
	assert.Equal(t, "redis", cfg.Conversation.Backend)
	assert.Equal(t, 30*time.Minute, cfg.Conversation.TTL)
	assert.Equal(t, "@helpdesk", cfg.Support.Username)
	assert.False(t, cfg.Database.Enabled())
}

func TestLoadFile_MissingFileUsesEnv(t *testing.T) {
	t.Setenv("BOT_TOKEN", "env-token")
	t.Setenv("ADMIN_CHAT_ID", "42")

	cfg, _, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"), "production")
	require.NoError(t, err)

	assert.Equal(t, "env-token", cfg.Bot.Token)
	assert.Equal(t, int64(42), cfg.Admin.ChatID)
	assert.Equal(t, "memory", cfg.Conversation.Backend)
	assert.Equal(t, time.Duration(0), cfg.Conversation.TTL)
	assert.Equal(t, "uz", cfg.I18n.DefaultLanguage)
}

func TestLoadFile_ValidationFailure(t *testing.T) {
	t.Setenv("BOT_TOKEN", "")
	t.Setenv("ADMIN_CHAT_ID", "")

	_, _, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"), "test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validate config")
}
