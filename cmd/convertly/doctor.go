// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/pdiddy/convertly/internal/container"
	"github.com/pdiddy/convertly/internal/convert"
	"github.com/pdiddy/convertly/internal/tool"
	"github.com/pdiddy/convertly/pkg/types"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that the external tools are available",
	Long: `Doctor reports whether the media extractor, the office converter and a
container runtime can be found, for the configured tool runtime. It exits
non-zero when a tool the configured runtime needs is missing.`,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

// check is one doctor finding.
type check struct {
	Name     string
	Detail   string
	OK       bool
	Required bool
}

func runDoctor(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	checks := diagnose(context.Background(), cfg, tool.OSRunner{}, container.DetectRuntime)
	return reportChecks(cmd.OutOrStdout(), checks)
}

// diagnose probes the tools the configuration depends on.
func diagnose(ctx context.Context, cfg types.ServiceConfig, runner tool.Runner,
	detect func(context.Context) (container.Runtime, error)) []check {
	native := cfg.Tools.Runtime != types.RuntimeContainer
	var checks []check

	if p, err := runner.LookPath(cfg.Media.Binary); err == nil {
		checks = append(checks, check{Name: "media extractor", Detail: p, OK: true, Required: native})
	} else {
		checks = append(checks, check{Name: "media extractor", Detail: cfg.Media.Binary + " not found", Required: native})
	}

	office := cfg.Office.Binary
	var officeErr error
	if office == "" {
		office, officeErr = convert.DetectOffice(runner)
	} else if office, officeErr = runner.LookPath(office); officeErr != nil {
		office = cfg.Office.Binary
	}
	if officeErr == nil {
		checks = append(checks, check{Name: "office converter", Detail: office, OK: true, Required: native})
	} else {
		checks = append(checks, check{Name: "office converter", Detail: officeErr.Error(), Required: native})
	}

	rt, err := detect(ctx)
	if err != nil {
		checks = append(checks, check{Name: "container runtime", Detail: err.Error(), Required: !native})
		return checks
	}
	checks = append(checks, check{Name: "container runtime", Detail: rt.Name(), OK: true, Required: !native})
	for _, image := range []string{cfg.Tools.MediaImage, cfg.Tools.OfficeImage} {
		c := check{Name: "image " + image, Detail: "present", OK: true, Required: !native}
		if err := rt.ImageExists(ctx, image); err != nil {
			c.Detail, c.OK = "not found", false
		}
		checks = append(checks, c)
	}
	return checks
}

func reportChecks(w io.Writer, checks []check) error {
	missing := 0
	for _, c := range checks {
		mark := "ok"
		if !c.OK {
			mark = "missing"
			if c.Required {
				missing++
			} else {
				mark = "absent"
			}
		}
		fmt.Fprintf(w, "%-8s %-40s %s\n", mark, c.Name, c.Detail)
	}
	if missing > 0 {
		return fmt.Errorf("%d required tool(s) missing", missing)
	}
	return nil
}
