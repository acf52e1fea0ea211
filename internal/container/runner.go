// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package container

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/pdiddy/convertly/internal/tool"
)

// ToolRunner adapts a Runtime to tool.Runner: each command runs as the
// entrypoint of Image with Mounts bound at identical paths.
type ToolRunner struct {
	Runtime Runtime
	Image   string
	Mounts  []string
}

// NewToolRunner verifies that image exists in rt and returns a runner for it.
func NewToolRunner(ctx context.Context, rt Runtime, image string, mounts []string) (*ToolRunner, error) {
	if err := rt.ImageExists(ctx, image); err != nil {
		return nil, fmt.Errorf("tool image not available in %s: %w", rt.Name(), err)
	}
	return &ToolRunner{Runtime: rt, Image: image, Mounts: mounts}, nil
}

// LookPath reports every binary as present; the image was checked at
// construction and a missing binary surfaces as a run failure.
func (r *ToolRunner) LookPath(file string) (string, error) {
	return file, nil
}

// Run implements tool.Runner.
func (r *ToolRunner) Run(ctx context.Context, name string, args []string, stdout, stderr io.Writer) error {
	return r.Runtime.Run(ctx, RunSpec{
		Image:      r.Image,
		Entrypoint: name,
		Args:       args,
		Mounts:     r.Mounts,
		User:       hostUser(),
	}, stdout, stderr)
}

func hostUser() string {
	uid, gid := os.Getuid(), os.Getgid()
	if uid < 0 || gid < 0 {
		return ""
	}
	return fmt.Sprintf("%d:%d", uid, gid)
}

var _ tool.Runner = (*ToolRunner)(nil)
