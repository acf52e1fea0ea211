// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package artifact manages the upload and download directories that hold
// request-scoped files, and the leases that keep in-flight files safe from
// the retention sweeper.
package artifact

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/convertly/internal/metrics"
	"github.com/pdiddy/convertly/pkg/types"
)

const defaultName = "upload"

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Store owns the managed directories. It is safe for concurrent use.
type Store struct {
	uploadDir   string
	downloadDir string
	leases      *leaseTable
	now         func() time.Time
}

// NewStore resolves both directories to absolute paths and creates them.
func NewStore(cfg types.StoreConfig, m *metrics.Metrics) (*Store, error) {
	if cfg.UploadDir == "" || cfg.DownloadDir == "" {
		return nil, fmt.Errorf("upload and download directories must be set")
	}
	up, err := filepath.Abs(cfg.UploadDir)
	if err != nil {
		return nil, fmt.Errorf("resolving upload directory: %w", err)
	}
	down, err := filepath.Abs(cfg.DownloadDir)
	if err != nil {
		return nil, fmt.Errorf("resolving download directory: %w", err)
	}

	s := &Store{
		uploadDir:   up,
		downloadDir: down,
		leases:      newLeaseTable(m),
		now:         time.Now,
	}
	for _, dir := range s.Dirs() {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}
	return s, nil
}

// UploadDir returns the absolute upload directory.
func (s *Store) UploadDir() string { return s.uploadDir }

// DownloadDir returns the absolute download directory.
func (s *Store) DownloadDir() string { return s.downloadDir }

// Dirs returns the managed directories, upload first.
func (s *Store) Dirs() []string {
	return []string{s.uploadDir, s.downloadDir}
}

// Save writes r into the upload directory under a unique name derived from
// suggestedName. The data goes to a temp file first and is renamed into
// place once fully written, so a partial upload never appears under its
// final name.
func (s *Store) Save(r io.Reader, suggestedName string) (types.Artifact, error) {
	name := SanitizeName(suggestedName)
	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return types.Artifact{}, fmt.Errorf("creating upload directory: %w", err)
	}
	dest := filepath.Join(s.uploadDir, UniquePrefix()+name)

	tmp, err := os.CreateTemp(s.uploadDir, ".upload-*.tmp")
	if err != nil {
		return types.Artifact{}, fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	_, copyErr := io.Copy(tmp, r)
	closeErr := tmp.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return types.Artifact{}, fmt.Errorf("writing upload: %w", copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return types.Artifact{}, fmt.Errorf("closing temp file: %w", closeErr)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		os.Remove(tmpPath)
		return types.Artifact{}, fmt.Errorf("renaming temp file: %w", err)
	}

	return types.Artifact{Path: dest, Name: name, CreatedAt: s.now()}, nil
}

// Artifact describes an existing file inside a managed directory. The
// client-facing name drops the unique prefix added by Save or by the tools.
func (s *Store) Artifact(path string) (types.Artifact, error) {
	if !s.Contains(path) {
		return types.Artifact{}, fmt.Errorf("%s is outside the managed directories", path)
	}
	info, err := os.Stat(path)
	if err != nil {
		return types.Artifact{}, fmt.Errorf("inspecting %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return types.Artifact{}, fmt.Errorf("%s is not a regular file", path)
	}
	return types.Artifact{
		Path:      path,
		Name:      StripPrefix(filepath.Base(path)),
		CreatedAt: info.ModTime(),
	}, nil
}

// Exists reports whether path is an existing regular file.
func (s *Store) Exists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// Delete removes path. A file that is already gone is not an error.
func (s *Store) Delete(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("deleting %s: %w", path, err)
	}
	return nil
}

// Contains reports whether path lies inside one of the managed directories.
func (s *Store) Contains(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	for _, dir := range s.Dirs() {
		rel, err := filepath.Rel(dir, abs)
		if err != nil {
			continue
		}
		if rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// Lease marks path as in use until the returned release function is
// called. Leases are reference counted; release is idempotent.
func (s *Store) Lease(path string) (release func()) {
	return s.leases.acquire(path)
}

// Leased reports whether any lease on path is held.
func (s *Store) Leased(path string) bool {
	return s.leases.held(path)
}

// UniquePrefix returns a short random prefix, including its trailing
// separator, for artifact file names.
func UniquePrefix() string {
	return uuid.NewString()[:8] + "-"
}

// StripPrefix removes a prefix produced by UniquePrefix from name.
func StripPrefix(name string) string {
	if len(name) > 9 && name[8] == '-' && isHex(name[:8]) {
		return name[9:]
	}
	return name
}

// SanitizeName reduces a client-supplied file name to a safe base name:
// directories are dropped, runs of unsafe characters become "_" and
// leading dots are removed. The extension survives even when nothing of
// the stem does, so "отчёт.docx" becomes "upload.docx".
func SanitizeName(name string) string {
	name = strings.ReplaceAll(name, `\`, "/")
	name = filepath.Base(strings.TrimSpace(name))

	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	if strings.Trim(stem, ".") == "" {
		stem, ext = name, ""
	}
	stem = strings.TrimLeft(unsafeChars.ReplaceAllString(stem, "_"), "._")
	ext = strings.Trim(unsafeChars.ReplaceAllString(strings.TrimPrefix(ext, "."), "_"), "_")

	if stem == "" {
		stem = defaultName
	}
	if ext == "" {
		return stem
	}
	return stem + "." + ext
}

func isHex(s string) bool {
	for _, c := range s {
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f') {
			return false
		}
	}
	return true
}
