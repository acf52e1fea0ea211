// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// ServerConfig holds settings for the HTTP surface.
type ServerConfig struct {
	// Addr is the listen address (e.g. ":5000").
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr"`

	// AllowedOrigins lists the origins permitted by CORS. An empty list
	// allows any origin.
	AllowedOrigins []string `json:"allowed_origins" yaml:"allowed_origins" mapstructure:"allowed_origins"`

	// MaxUploadBytes caps the size of a multipart upload (default 100MB).
	MaxUploadBytes int64 `json:"max_upload_bytes" yaml:"max_upload_bytes" mapstructure:"max_upload_bytes"`

	// ShutdownTimeout bounds graceful shutdown (default 10s).
	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
}

// StoreConfig holds the managed artifact directories.
type StoreConfig struct {
	// UploadDir receives uploaded source documents.
	UploadDir string `json:"upload_dir" yaml:"upload_dir" mapstructure:"upload_dir"`

	// DownloadDir receives fetched media and converted documents.
	DownloadDir string `json:"download_dir" yaml:"download_dir" mapstructure:"download_dir"`

	// CleanupAfterSend deletes fetched media once it has been sent.
	// Conversion artifacts are always deleted after the response.
	CleanupAfterSend bool `json:"cleanup_after_send" yaml:"cleanup_after_send" mapstructure:"cleanup_after_send"`
}

// SweeperConfig holds retention settings for stale artifacts.
type SweeperConfig struct {
	// Interval is the time between sweeps (default 1h). Zero disables the
	// background loop.
	Interval time.Duration `json:"interval" yaml:"interval" mapstructure:"interval"`

	// MaxAge is the age after which an unleased artifact is deleted (default 1h).
	MaxAge time.Duration `json:"max_age" yaml:"max_age" mapstructure:"max_age"`
}

// MediaConfig holds settings for the media extractor.
type MediaConfig struct {
	// Binary is the extractor executable (default "yt-dlp").
	Binary string `json:"binary" yaml:"binary" mapstructure:"binary"`

	// Format is the extractor format selector (default "bestvideo+bestaudio/best").
	Format string `json:"format" yaml:"format" mapstructure:"format"`

	// MergeFormat is the container the streams are merged into (default "mp4").
	MergeFormat string `json:"merge_format" yaml:"merge_format" mapstructure:"merge_format"`

	// Timeout bounds a single fetch. Zero means no limit.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// Proxy is passed to the extractor as --proxy when set.
	Proxy string `json:"-" yaml:"-" mapstructure:"-"`

	// CookiesFile is passed to the extractor as --cookies when set.
	CookiesFile string `json:"-" yaml:"-" mapstructure:"-"`
}

// OfficeConfig holds settings for the headless office converter.
type OfficeConfig struct {
	// Binary is the office executable. Empty means auto-detect.
	Binary string `json:"binary" yaml:"binary" mapstructure:"binary"`

	// Timeout bounds a single conversion (default 2m).
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
}

// ToolRuntime selects where external tools execute.
type ToolRuntime string

const (
	RuntimeNative    ToolRuntime = "native"
	RuntimeContainer ToolRuntime = "container"
)

// ToolsConfig selects the execution runtime for external tools.
type ToolsConfig struct {
	// Runtime is "native" (binaries on PATH) or "container" (docker/podman).
	Runtime ToolRuntime `json:"runtime" yaml:"runtime" mapstructure:"runtime"`

	// MediaImage is the container image providing the media extractor.
	MediaImage string `json:"media_image" yaml:"media_image" mapstructure:"media_image"`

	// OfficeImage is the container image providing the office converter.
	OfficeImage string `json:"office_image" yaml:"office_image" mapstructure:"office_image"`
}

// LedgerConfig holds settings for the request history database.
type LedgerConfig struct {
	// Path is the SQLite database file. Empty disables the ledger.
	Path string `json:"path" yaml:"path" mapstructure:"path"`
}

// LogConfig holds structured logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error (default info).
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// Format is text or json (default text).
	Format string `json:"format" yaml:"format" mapstructure:"format"`
}

// ServiceConfig groups all settings for the service.
type ServiceConfig struct {
	Server  ServerConfig  `json:"server" yaml:"server" mapstructure:"server"`
	Store   StoreConfig   `json:"store" yaml:"store" mapstructure:"store"`
	Sweeper SweeperConfig `json:"sweeper" yaml:"sweeper" mapstructure:"sweeper"`
	Media   MediaConfig   `json:"media" yaml:"media" mapstructure:"media"`
	Office  OfficeConfig  `json:"office" yaml:"office" mapstructure:"office"`
	Tools   ToolsConfig   `json:"tools" yaml:"tools" mapstructure:"tools"`
	Ledger  LedgerConfig  `json:"ledger" yaml:"ledger" mapstructure:"ledger"`
	Log     LogConfig     `json:"log" yaml:"log" mapstructure:"log"`
}
