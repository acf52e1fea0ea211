// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/pdiddy/convertly/internal/container"
	"github.com/pdiddy/convertly/internal/tool"
	"github.com/pdiddy/convertly/pkg/types"
)

// containerOfficeBinary is the office entrypoint inside the office image.
const containerOfficeBinary = "soffice"

// toolRunners returns the runners for the media extractor and the office
// suite. In container mode both run inside their images with the managed
// directories mounted; cfg.Office.Binary defaults to the image entrypoint.
func toolRunners(ctx context.Context, cfg *types.ServiceConfig, dirs []string) (mediaRunner, officeRunner tool.Runner, err error) {
	if cfg.Tools.Runtime != types.RuntimeContainer {
		return tool.OSRunner{}, tool.OSRunner{}, nil
	}

	rt, err := container.DetectRuntime(ctx)
	if err != nil {
		return nil, nil, err
	}

	mediaMounts := append([]string(nil), dirs...)
	if cfg.Media.CookiesFile != "" {
		abs, err := filepath.Abs(cfg.Media.CookiesFile)
		if err != nil {
			return nil, nil, fmt.Errorf("resolving cookies file: %w", err)
		}
		cfg.Media.CookiesFile = abs
		mediaMounts = append(mediaMounts, filepath.Dir(abs))
	}
	mediaR, err := container.NewToolRunner(ctx, rt, cfg.Tools.MediaImage, mediaMounts)
	if err != nil {
		return nil, nil, err
	}
	officeR, err := container.NewToolRunner(ctx, rt, cfg.Tools.OfficeImage, dirs)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Office.Binary == "" {
		cfg.Office.Binary = containerOfficeBinary
	}
	return mediaR, officeR, nil
}
