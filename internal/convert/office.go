// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/pdiddy/convertly/internal/logging"
	"github.com/pdiddy/convertly/internal/tool"
	"github.com/pdiddy/convertly/pkg/types"
)

const (
	toolOffice           = "soffice"
	defaultOfficeTimeout = 2 * time.Minute
)

// officeCandidates are probed in order when no office binary is configured.
var officeCandidates = []string{
	"/opt/homebrew/bin/soffice",
	"/Applications/LibreOffice.app/Contents/MacOS/soffice",
	"/usr/bin/libreoffice",
	"/usr/bin/soffice",
	"soffice",
	"libreoffice",
}

// ErrOfficeNotFound is returned when no office binary can be located.
var ErrOfficeNotFound = errors.New("no office binary found; install LibreOffice or set office.binary")

// DetectOffice returns the first office candidate that runner can resolve.
func DetectOffice(runner tool.Runner) (string, error) {
	for _, c := range officeCandidates {
		if p, err := runner.LookPath(c); err == nil {
			return p, nil
		}
	}
	return "", ErrOfficeNotFound
}

// Office converts documents to PDF with a headless office suite.
type Office struct {
	runner  tool.Runner
	binary  string
	outDir  string
	timeout time.Duration
	logger  *slog.Logger
}

// NewOffice returns an office converter writing into outDir. An empty
// cfg.Binary is resolved with DetectOffice.
func NewOffice(runner tool.Runner, cfg types.OfficeConfig, outDir string, logger *slog.Logger) (*Office, error) {
	bin := cfg.Binary
	if bin == "" {
		var err error
		if bin, err = DetectOffice(runner); err != nil {
			return nil, err
		}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultOfficeTimeout
	}
	return &Office{
		runner:  runner,
		binary:  bin,
		outDir:  outDir,
		timeout: timeout,
		logger:  logging.Component(logger, "office"),
	}, nil
}

// Binary returns the resolved office executable.
func (o *Office) Binary() string { return o.binary }

// Convert implements Converter. Each call runs with its own throwaway user
// profile so concurrent conversions do not contend for the profile lock.
func (o *Office) Convert(ctx context.Context, inputPath string) (string, error) {
	return tool.Invoke(toolOffice, func() (string, error) {
		profile, err := os.MkdirTemp("", "convertly-office-*")
		if err != nil {
			return "", fmt.Errorf("creating office profile: %w", err)
		}
		defer os.RemoveAll(profile)

		ctx, cancel := context.WithTimeout(ctx, o.timeout)
		defer cancel()

		args := []string{
			"-env:UserInstallation=file://" + filepath.ToSlash(profile),
			"--headless",
			"--convert-to", "pdf",
			"--outdir", o.outDir,
			inputPath,
		}
		out := &tool.TailBuffer{}
		start := time.Now()
		if err := o.runner.Run(ctx, o.binary, args, out, out); err != nil {
			return "", tool.Failure(toolOffice, err, out.String())
		}

		result := outputPath(o.outDir, inputPath, ".pdf")
		if _, err := os.Stat(result); err != nil {
			return "", tool.Failure(toolOffice, fmt.Errorf("expected output %s: %w", result, err), out.String())
		}
		o.logger.Debug("converted", "path", inputPath, "output", result, "duration", time.Since(start))
		return result, nil
	})
}
