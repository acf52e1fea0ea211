// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/pdiddy/convertly/internal/secrets"
	"github.com/pdiddy/convertly/pkg/types"
)

// setDefaults registers every configuration key so environment variables
// reach Unmarshal even when no config file sets the key.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":5000")
	v.SetDefault("server.allowed_origins", []string{})
	v.SetDefault("server.max_upload_bytes", int64(100<<20))
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("store.upload_dir", "uploads")
	v.SetDefault("store.download_dir", "downloads")
	v.SetDefault("store.cleanup_after_send", true)

	v.SetDefault("sweeper.interval", time.Hour)
	v.SetDefault("sweeper.max_age", time.Hour)

	v.SetDefault("media.binary", "yt-dlp")
	v.SetDefault("media.format", "bestvideo+bestaudio/best")
	v.SetDefault("media.merge_format", "mp4")
	v.SetDefault("media.timeout", 15*time.Minute)

	v.SetDefault("office.binary", "")
	v.SetDefault("office.timeout", 2*time.Minute)

	v.SetDefault("tools.runtime", string(types.RuntimeNative))
	v.SetDefault("tools.media_image", "convertly/yt-dlp:latest")
	v.SetDefault("tools.office_image", "convertly/libreoffice:latest")

	v.SetDefault("ledger.path", "convertly.db")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// decodeConfig unmarshals v into a ServiceConfig and validates it.
func decodeConfig(v *viper.Viper) (types.ServiceConfig, error) {
	var cfg types.ServiceConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding configuration: %w", err)
	}
	switch cfg.Tools.Runtime {
	case types.RuntimeNative, types.RuntimeContainer:
	default:
		return cfg, fmt.Errorf("tools.runtime must be %q or %q, got %q",
			types.RuntimeNative, types.RuntimeContainer, cfg.Tools.Runtime)
	}
	return cfg, nil
}

// loadConfig reads the global configuration and applies loaded secrets.
func loadConfig() (types.ServiceConfig, error) {
	cfg, err := decodeConfig(viper.GetViper())
	if err != nil {
		return cfg, err
	}
	secrets.ApplyMedia(loadedSecrets, secretsDir, &cfg.Media)
	return cfg, nil
}
