// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/pdiddy/convertly/internal/artifact"
	"github.com/pdiddy/convertly/internal/logging"
	"github.com/pdiddy/convertly/internal/sweeper"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Delete stale artifacts once and exit",
	Long: `Sweep runs a single retention pass over the upload and download
directories, deleting files older than the maximum age. It does not see
leases held by a running server, so use a max age longer than any
in-flight transfer.`,
	RunE: runSweep,
}

func init() {
	sweepCmd.Flags().Duration("max-age", 0, "delete files older than this (default sweeper.max_age)")
	rootCmd.AddCommand(sweepCmd)
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if maxAge, _ := cmd.Flags().GetDuration("max-age"); maxAge > 0 {
		cfg.Sweeper.MaxAge = maxAge
	}

	store, err := artifact.NewStore(cfg.Store, nil)
	if err != nil {
		return err
	}
	sw := sweeper.New(cfg.Sweeper, store.Dirs(), sweeper.WithLogger(logging.New(cfg.Log)))
	printSweep(cmd.OutOrStdout(), sw.SweepOnce(), sw)
	return nil
}

func printSweep(w io.Writer, res sweeper.Result, sw *sweeper.Sweeper) {
	for _, p := range res.RemovedPaths {
		fmt.Fprintf(w, "removed: %s\n", p)
	}
	fmt.Fprintf(w, "\nSweep summary: %d removed, %d scanned, %d errors (max age %s)\n",
		res.Removed, res.Scanned, res.Errors, sw.MaxAge())
}
