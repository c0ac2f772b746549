package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Listen)
	assert.Equal(t, int64(1048576), cfg.Server.MaxBodySize)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 30*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownGracePeriod)
	assert.Equal(t, 4, cfg.Scan.Workers)
	assert.Equal(t, 256, cfg.Scan.QueueSize)
	assert.Equal(t, 10000, cfg.Scan.MaxAlerts)
	assert.Empty(t, cfg.Contexts)
}

func TestLoadMissingFileIsNotAnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist.yaml")
	cfg, err := Load(&path)
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Listen)
}

func TestLoadFromFile(t *testing.T) {
	content := `
server:
  listen: ":9191"
  read_timeout: 5s
scan:
  workers: 2
contexts:
  - name: shop
    includes:
      - 'https://shop\.example\.com/.*'
    excludes:
      - 'https://shop\.example\.com/static/.*'
    technologies:
      - Apache
      - PHP
    custom_pages:
      - kind: notfound_404
        content: "we could not find that"
      - kind: error_500
        content: '(?i)fatal error'
        regex: true
    users:
      - name: alice
      - name: bob
        disabled: true
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(&path)
	require.NoError(t, err)

	assert.Equal(t, ":9191", cfg.Server.Listen)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 30*time.Second, cfg.Server.WriteTimeout, "unset durations keep their fallback")
	assert.Equal(t, 2, cfg.Scan.Workers)

	require.Len(t, cfg.Contexts, 1)
	ctx := cfg.Contexts[0]
	assert.Equal(t, "shop", ctx.Name)
	assert.Len(t, ctx.Includes, 1)
	assert.Len(t, ctx.Excludes, 1)
	assert.Equal(t, []string{"Apache", "PHP"}, ctx.Technologies)

	require.Len(t, ctx.CustomPages, 2)
	assert.Equal(t, "notfound_404", ctx.CustomPages[0].Kind)
	assert.False(t, ctx.CustomPages[0].Regex)
	assert.True(t, ctx.CustomPages[1].Regex)

	require.Len(t, ctx.Users, 2)
	assert.False(t, ctx.Users[0].Disabled)
	assert.True(t, ctx.Users[1].Disabled)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("KESTREL_SERVER_LISTEN", ":7070")
	t.Setenv("KESTREL_SCAN_WORKERS", "8")

	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.Server.Listen)
	assert.Equal(t, 8, cfg.Scan.Workers)
}
