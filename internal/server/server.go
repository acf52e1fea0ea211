// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes media fetch and document conversion over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pdiddy/convertly/internal/artifact"
	"github.com/pdiddy/convertly/internal/convert"
	"github.com/pdiddy/convertly/internal/ledger"
	"github.com/pdiddy/convertly/internal/logging"
	"github.com/pdiddy/convertly/internal/media"
	"github.com/pdiddy/convertly/internal/metrics"
	"github.com/pdiddy/convertly/internal/sweeper"
	"github.com/pdiddy/convertly/pkg/types"
)

const (
	defaultMaxUpload       = 100 << 20
	defaultShutdownTimeout = 10 * time.Second

	// maxMediaBody caps the JSON or form body of a media request.
	maxMediaBody = 64 << 10
)

// Options is everything a Server needs. Store, Fetcher and Converters are
// required; the rest may be nil.
type Options struct {
	Config types.ServerConfig

	// CleanupAfterSend deletes fetched media once it has been sent.
	CleanupAfterSend bool

	Store      *artifact.Store
	Fetcher    media.Fetcher
	Converters *convert.Registry

	// Ledger records every handled request when set.
	Ledger *ledger.Store

	Metrics *metrics.Metrics

	// Sweeper, when set, has its state reported by GET /.
	Sweeper *sweeper.Sweeper

	// Gatherer backs GET /metrics. Nil leaves the route unregistered.
	Gatherer prometheus.Gatherer

	Logger *slog.Logger
}

// Server is the HTTP surface.
type Server struct {
	opts   Options
	logger *slog.Logger
	engine *gin.Engine
}

// New builds the gin engine and registers the routes.
func New(opts Options) (*Server, error) {
	if opts.Store == nil {
		return nil, errors.New("server: artifact store is required")
	}
	if opts.Fetcher == nil {
		return nil, errors.New("server: media fetcher is required")
	}
	if opts.Converters == nil {
		return nil, errors.New("server: converter registry is required")
	}
	if opts.Config.MaxUploadBytes <= 0 {
		opts.Config.MaxUploadBytes = defaultMaxUpload
	}
	if opts.Config.ShutdownTimeout <= 0 {
		opts.Config.ShutdownTimeout = defaultShutdownTimeout
	}

	s := &Server{
		opts:   opts,
		logger: logging.Component(opts.Logger, "http"),
	}

	engine := gin.New()
	engine.Use(recovery(s.logger), requestID(), accessLog(s.logger), corsMiddleware(opts.Config.AllowedOrigins))
	engine.MaxMultipartMemory = 32 << 20

	engine.GET("/", s.handleHealth)
	engine.POST("/youtube", limitBody(maxMediaBody), s.handleMedia(types.PlatformYouTube))
	engine.POST("/instagram", limitBody(maxMediaBody), s.handleMedia(types.PlatformInstagram))
	engine.POST("/convert", limitBody(opts.Config.MaxUploadBytes), s.handleConvert)
	if opts.Gatherer != nil {
		engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}

	s.engine = engine
	return s, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.engine }

// Run listens on the configured address and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Config.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.opts.Config.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done, then shuts down
// gracefully, letting in-flight requests finish within the shutdown timeout.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	s.logger.Info("listening", "addr", ln.Addr().String())

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.Config.ShutdownTimeout)
	defer cancel()
	s.logger.Info("shutting down", "timeout", s.opts.Config.ShutdownTimeout)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}
