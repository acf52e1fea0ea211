// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package sweeper deletes stale artifacts from the managed directories on a
// fixed schedule. It bounds disk growth from files whose request never
// cleaned up after itself; it is housekeeping, not part of request
// correctness.
package sweeper

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/pdiddy/convertly/internal/logging"
	"github.com/pdiddy/convertly/internal/metrics"
	"github.com/pdiddy/convertly/pkg/types"
)

const defaultMaxAge = time.Hour

// State is the sweeper's position in its Idle -> Scanning -> Idle loop.
type State int32

const (
	StateIdle State = iota
	StateScanning
)

func (s State) String() string {
	if s == StateScanning {
		return "scanning"
	}
	return "idle"
}

// LeaseChecker reports whether a path is held by an in-flight request.
type LeaseChecker interface {
	Leased(path string) bool
}

// Result summarizes one sweep.
type Result struct {
	Scanned int
	Removed int
	Leased  int
	Errors  int

	// RemovedPaths lists every file deleted, in scan order.
	RemovedPaths []string
}

// Sweeper scans directories and deletes regular files older than MaxAge.
type Sweeper struct {
	dirs     []string
	interval time.Duration
	maxAge   time.Duration
	leases   LeaseChecker
	logger   *slog.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
	state    atomic.Int32
}

// Option customizes a Sweeper.
type Option func(*Sweeper)

// WithClock replaces the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Sweeper) { s.now = now }
}

// WithLeases makes the sweeper skip leased paths.
func WithLeases(l LeaseChecker) Option {
	return func(s *Sweeper) { s.leases = l }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Sweeper) { s.logger = logging.Component(l, "sweeper") }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Sweeper) { s.metrics = m }
}

// New returns a sweeper for dirs. A non-positive MaxAge falls back to one
// hour. A non-positive Interval disables the loop in Run; SweepOnce still
// works.
func New(cfg types.SweeperConfig, dirs []string, opts ...Option) *Sweeper {
	s := &Sweeper{
		dirs:     dirs,
		interval: cfg.Interval,
		maxAge:   cfg.MaxAge,
		logger:   logging.Discard(),
		now:      time.Now,
	}
	if s.maxAge <= 0 {
		s.maxAge = defaultMaxAge
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MaxAge returns the age threshold.
func (s *Sweeper) MaxAge() time.Duration { return s.maxAge }

// State reports whether a sweep is in progress.
func (s *Sweeper) State() State { return State(s.state.Load()) }

// Run sweeps immediately and then on every interval until ctx is done.
// It never returns an error; failures are logged and counted.
func (s *Sweeper) Run(ctx context.Context) {
	if s.interval <= 0 {
		s.logger.Info("retention sweeper disabled")
		return
	}
	s.logger.Info("retention sweeper started", "interval", s.interval, "max_age", s.maxAge)

	s.SweepOnce()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("retention sweeper stopped")
			return
		case <-ticker.C:
			s.SweepOnce()
		}
	}
}

// SweepOnce runs a single scan over every directory.
func (s *Sweeper) SweepOnce() Result {
	s.state.Store(int32(StateScanning))
	defer s.state.Store(int32(StateIdle))

	now := s.now()
	var res Result
	for _, dir := range s.dirs {
		s.sweepDir(dir, now, &res)
	}

	s.metrics.ObserveSweep(res.Removed, res.Errors)
	if res.Removed > 0 || res.Errors > 0 {
		s.logger.Info("sweep finished",
			"scanned", res.Scanned, "removed", res.Removed,
			"leased", res.Leased, "errors", res.Errors)
	} else {
		s.logger.Debug("sweep finished", "scanned", res.Scanned)
	}
	return res
}

func (s *Sweeper) sweepDir(dir string, now time.Time, res *Result) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return
		}
		s.logger.Warn("reading directory", "dir", dir, "error", err)
		res.Errors++
		return
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				s.logger.Warn("inspecting file", "dir", dir, "file", entry.Name(), "error", err)
				res.Errors++
			}
			continue
		}
		if !info.Mode().IsRegular() {
			continue
		}
		res.Scanned++

		if now.Sub(info.ModTime()) <= s.maxAge {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if s.leases != nil && s.leases.Leased(path) {
			res.Leased++
			continue
		}
		if err := os.Remove(path); err != nil {
			// Another request may have cleaned it up first.
			if !errors.Is(err, fs.ErrNotExist) {
				s.logger.Warn("removing stale file", "path", path, "error", err)
				res.Errors++
			}
			continue
		}
		res.Removed++
		res.RemovedPaths = append(res.RemovedPaths, path)
	}
}
