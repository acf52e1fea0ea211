// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/convertly/internal/artifact"
	"github.com/pdiddy/convertly/internal/convert"
	"github.com/pdiddy/convertly/internal/ledger"
	"github.com/pdiddy/convertly/internal/logging"
	"github.com/pdiddy/convertly/internal/media"
	"github.com/pdiddy/convertly/internal/metrics"
	"github.com/pdiddy/convertly/internal/server"
	"github.com/pdiddy/convertly/internal/sweeper"
	"github.com/pdiddy/convertly/pkg/types"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP service and the retention sweeper",
	Long: `Serve starts the HTTP API (/youtube, /instagram, /convert, /metrics) and
the background retention sweeper. It shuts down gracefully on SIGINT or
SIGTERM, letting in-flight requests finish.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default :5000)")
	serveCmd.Flags().String("upload-dir", "", "directory for uploaded documents (default uploads)")
	serveCmd.Flags().String("download-dir", "", "directory for fetched and converted files (default downloads)")
	serveCmd.Flags().String("runtime", "", "tool runtime: native or container")

	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
	_ = viper.BindPFlag("store.upload_dir", serveCmd.Flags().Lookup("upload-dir"))
	_ = viper.BindPFlag("store.download_dir", serveCmd.Flags().Lookup("download-dir"))
	_ = viper.BindPFlag("tools.runtime", serveCmd.Flags().Lookup("runtime"))

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := logging.New(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m, err := metrics.New(reg)
	if err != nil {
		return err
	}

	store, err := artifact.NewStore(cfg.Store, m)
	if err != nil {
		return err
	}

	mediaRunner, officeRunner, err := toolRunners(ctx, &cfg, store.Dirs())
	if err != nil {
		return err
	}

	registry := convert.NewRegistry()
	registry.Register(types.KindPDFToDoc, convert.NewPDFToDoc(store.DownloadDir(), logger))
	office, err := convert.NewOffice(officeRunner, cfg.Office, store.DownloadDir(), logger)
	if err != nil {
		logger.Warn("doc-to-pdf conversion unavailable", "error", err)
	} else {
		registry.Register(types.KindDocToPDF, office)
		logger.Info("office converter ready", "binary", office.Binary())
	}

	var led *ledger.Store
	if cfg.Ledger.Path != "" {
		if led, err = ledger.Open(cfg.Ledger); err != nil {
			return err
		}
		defer led.Close()
		logger.Info("request ledger open", "path", led.Path())
	}

	sw := sweeper.New(cfg.Sweeper, store.Dirs(),
		sweeper.WithLeases(store),
		sweeper.WithLogger(logger),
		sweeper.WithMetrics(m),
	)
	sweepDone := make(chan struct{})
	go func() {
		defer close(sweepDone)
		sw.Run(ctx)
	}()

	srv, err := server.New(server.Options{
		Config:           cfg.Server,
		CleanupAfterSend: cfg.Store.CleanupAfterSend,
		Store:            store,
		Fetcher:          media.NewYTDLP(mediaRunner, cfg.Media, store.DownloadDir(), logger),
		Converters:       registry,
		Ledger:           led,
		Metrics:          m,
		Sweeper:          sw,
		Gatherer:         reg,
		Logger:           logger,
	})
	if err != nil {
		return err
	}

	logger.Info("convertly starting",
		"version", version,
		"addr", cfg.Server.Addr,
		"uploads", store.UploadDir(),
		"downloads", store.DownloadDir(),
		"runtime", cfg.Tools.Runtime,
		"conversions", registry.Kinds(),
	)
	err = srv.Run(ctx)
	stop()
	<-sweepDone
	return err
}
