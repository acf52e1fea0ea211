// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package media fetches remote video by URL with an external extractor.
package media

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdiddy/convertly/internal/logging"
	"github.com/pdiddy/convertly/internal/tool"
	"github.com/pdiddy/convertly/pkg/types"
)

const (
	toolYTDLP = "yt-dlp"

	defaultFormat      = "bestvideo+bestaudio/best"
	defaultMergeFormat = "mp4"
)

// Fetcher downloads the media named by a request and returns the local
// path of the merged file. Every failure is a *tool.Error.
type Fetcher interface {
	Fetch(ctx context.Context, req types.DownloadRequest) (string, error)
}

// YTDLP fetches media with yt-dlp.
type YTDLP struct {
	runner tool.Runner
	cfg    types.MediaConfig
	outDir string
	logger *slog.Logger
}

// NewYTDLP returns a fetcher writing into outDir. Empty config fields take
// their defaults.
func NewYTDLP(runner tool.Runner, cfg types.MediaConfig, outDir string, logger *slog.Logger) *YTDLP {
	if cfg.Binary == "" {
		cfg.Binary = toolYTDLP
	}
	if cfg.Format == "" {
		cfg.Format = defaultFormat
	}
	if cfg.MergeFormat == "" {
		cfg.MergeFormat = defaultMergeFormat
	}
	return &YTDLP{
		runner: runner,
		cfg:    cfg,
		outDir: outDir,
		logger: logging.Component(logger, "media"),
	}
}

// Binary returns the extractor executable.
func (y *YTDLP) Binary() string { return y.cfg.Binary }

// Args returns the extractor arguments for req.
func (y *YTDLP) Args(req types.DownloadRequest) []string {
	args := []string{
		"-f", y.cfg.Format,
		"--merge-output-format", y.cfg.MergeFormat,
		"--restrict-filenames",
		"--no-playlist",
		"--no-progress",
		"--no-simulate",
		"--print", "after_move:filepath",
		"-o", filepath.Join(y.outDir, req.Prefix+"%(title)s.%(ext)s"),
	}
	if y.cfg.Proxy != "" {
		args = append(args, "--proxy", y.cfg.Proxy)
	}
	if y.cfg.CookiesFile != "" {
		args = append(args, "--cookies", y.cfg.CookiesFile)
	}
	return append(args, "--", req.URL)
}

// Fetch implements Fetcher.
func (y *YTDLP) Fetch(ctx context.Context, req types.DownloadRequest) (string, error) {
	return tool.Invoke(toolYTDLP, func() (string, error) {
		if strings.TrimSpace(req.URL) == "" {
			return "", errors.New("empty URL")
		}
		if y.cfg.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, y.cfg.Timeout)
			defer cancel()
		}

		stdout := &tool.TailBuffer{}
		stderr := &tool.TailBuffer{}
		start := time.Now()
		y.logger.Info("fetching", "platform", req.Platform.DisplayName(), "url", req.URL)
		if err := y.runner.Run(ctx, y.cfg.Binary, y.Args(req), stdout, stderr); err != nil {
			return "", tool.Failure(toolYTDLP, err, stderr.String())
		}

		path, err := y.resolveOutput(stdout.String())
		if err != nil {
			return "", tool.Failure(toolYTDLP, err, stderr.String())
		}
		y.logger.Info("fetched", "platform", req.Platform.DisplayName(), "path", path, "duration", time.Since(start))
		return path, nil
	})
}

// resolveOutput picks the file path from the extractor's stdout. The last
// non-empty line wins; when that file is absent, the same stem with the
// merge extension is tried, since merging can rename the file after the
// path is printed.
func (y *YTDLP) resolveOutput(stdout string) (string, error) {
	path := lastLine(stdout)
	if path == "" {
		return "", errors.New("extractor reported no output path")
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(y.outDir, path)
	}
	if fileExists(path) {
		return path, nil
	}
	alt := strings.TrimSuffix(path, filepath.Ext(path)) + "." + y.cfg.MergeFormat
	if fileExists(alt) {
		return alt, nil
	}
	return "", fmt.Errorf("reported output %s does not exist", path)
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if l := strings.TrimSpace(lines[i]); l != "" {
			return l
		}
	}
	return ""
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
