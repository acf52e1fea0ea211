// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads credentials from a directory of plain-text files.
// Each file is one secret: the filename is the key and the trimmed file
// contents are the value.
//
// Recognised keys: media-proxy (proxy URL for the media extractor) and
// media-cookies (path of a cookies file for the media extractor).
package secrets

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/convertly/pkg/types"
)

// Key names read from the secrets directory.
const (
	KeyMediaProxy   = "media-proxy"
	KeyMediaCookies = "media-cookies"
)

// Load reads all files in dir and returns a map of filename to trimmed
// contents. A missing directory is not an error; Load returns an empty map.
// Unreadable files are logged and skipped.
func Load(dir string, logger *slog.Logger) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			if logger != nil {
				logger.Warn("could not read secret", "name", name, "error", err)
			}
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// ApplyMedia copies the media extractor secrets into cfg. A relative
// cookies path is resolved against dir.
func ApplyMedia(secrets map[string]string, dir string, cfg *types.MediaConfig) {
	if v := secrets[KeyMediaProxy]; v != "" {
		cfg.Proxy = v
	}
	if v := secrets[KeyMediaCookies]; v != "" {
		if !filepath.IsAbs(v) {
			v = filepath.Join(dir, v)
		}
		cfg.CookiesFile = v
	}
}
