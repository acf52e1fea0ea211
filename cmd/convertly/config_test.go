// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/convertly/pkg/types"
)

func newTestViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("CONVERTLY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func TestDecodeConfig_Defaults(t *testing.T) {
	cfg, err := decodeConfig(newTestViper())
	require.NoError(t, err)

	assert.Equal(t, ":5000", cfg.Server.Addr)
	assert.Empty(t, cfg.Server.AllowedOrigins)
	assert.Equal(t, int64(100<<20), cfg.Server.MaxUploadBytes)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "uploads", cfg.Store.UploadDir)
	assert.Equal(t, "downloads", cfg.Store.DownloadDir)
	assert.True(t, cfg.Store.CleanupAfterSend)
	assert.Equal(t, time.Hour, cfg.Sweeper.Interval)
	assert.Equal(t, time.Hour, cfg.Sweeper.MaxAge)
	assert.Equal(t, "yt-dlp", cfg.Media.Binary)
	assert.Equal(t, "bestvideo+bestaudio/best", cfg.Media.Format)
	assert.Equal(t, "mp4", cfg.Media.MergeFormat)
	assert.Equal(t, 15*time.Minute, cfg.Media.Timeout)
	assert.Equal(t, "", cfg.Office.Binary)
	assert.Equal(t, 2*time.Minute, cfg.Office.Timeout)
	assert.Equal(t, types.RuntimeNative, cfg.Tools.Runtime)
	assert.Equal(t, "convertly/yt-dlp:latest", cfg.Tools.MediaImage)
	assert.Equal(t, "convertly/libreoffice:latest", cfg.Tools.OfficeImage)
	assert.Equal(t, "convertly.db", cfg.Ledger.Path)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestDecodeConfig_Environment(t *testing.T) {
	t.Setenv("CONVERTLY_SERVER_ADDR", "127.0.0.1:8080")
	t.Setenv("CONVERTLY_SERVER_ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("CONVERTLY_STORE_CLEANUP_AFTER_SEND", "false")
	t.Setenv("CONVERTLY_SWEEPER_MAX_AGE", "30m")
	t.Setenv("CONVERTLY_TOOLS_RUNTIME", "container")

	cfg, err := decodeConfig(newTestViper())
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Addr)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.False(t, cfg.Store.CleanupAfterSend)
	assert.Equal(t, 30*time.Minute, cfg.Sweeper.MaxAge)
	assert.Equal(t, types.RuntimeContainer, cfg.Tools.Runtime)
}

func TestDecodeConfig_ConfigFile(t *testing.T) {
	v := newTestViper()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader(`
server:
  addr: ":9000"
office:
  binary: /usr/bin/soffice
  timeout: 45s
ledger:
  path: ""
`)))

	cfg, err := decodeConfig(v)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, "/usr/bin/soffice", cfg.Office.Binary)
	assert.Equal(t, 45*time.Second, cfg.Office.Timeout)
	assert.Equal(t, "", cfg.Ledger.Path)
	assert.Equal(t, "uploads", cfg.Store.UploadDir, "unset keys keep defaults")
}

func TestDecodeConfig_InvalidRuntime(t *testing.T) {
	v := newTestViper()
	v.Set("tools.runtime", "vm")
	_, err := decodeConfig(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tools.runtime")
}
