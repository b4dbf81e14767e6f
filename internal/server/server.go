// Package server implements the sizemap HTTP viewer.
//
// Reports are uploaded once and kept in a [store.Store]. Each viewer page
// embeds the unfocused treemap and asks the API for the next frame whenever
// the user clicks a node or the URL fragment changes:
//
//	GET  /healthz
//	GET  /api/reports                       list stored reports
//	POST /api/reports                       upload report JSON
//	GET  /api/reports/{id}                  summary
//	DELETE /api/reports/{id}
//	GET  /api/reports/{id}/view             {path, svg, title}
//	GET  /api/reports/{id}/tooltip?id=      {name, text}
//	GET  /api/reports/{id}/render?format=   one pipeline artifact
//	GET  /reports/{id}                      viewer page
//	GET  /                                  upload form
//
// Focus transitions run server-side on a fresh controller per request, so
// the server holds no per-viewer state.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/sizemap/pkg/pipeline"
	"github.com/matzehuels/sizemap/pkg/store"
)

// Defaults for Config.
const (
	DefaultAddr            = ":8080"
	DefaultRequestTimeout  = 30 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
	DefaultMaxUpload       = 64 << 20
	DefaultTreeCacheSize   = 16
)

// Config configures a Server. Zero fields take the defaults.
type Config struct {
	Addr            string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	// MaxUpload caps the size of an uploaded report in bytes.
	MaxUpload int64
	// TreeCacheSize is how many parsed reports are kept in memory.
	TreeCacheSize int
}

func (c *Config) setDefaults() {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = DefaultShutdownTimeout
	}
	if c.MaxUpload == 0 {
		c.MaxUpload = DefaultMaxUpload
	}
	if c.TreeCacheSize == 0 {
		c.TreeCacheSize = DefaultTreeCacheSize
	}
}

// Server serves stored reports.
type Server struct {
	cfg    Config
	store  store.Store
	runner *pipeline.Runner
	trees  *TreeCache
	logger *log.Logger
	router chi.Router
}

// New creates a server over a report store. The runner's cache backs
// rendered downloads and summaries.
func New(cfg Config, st store.Store, runner *pipeline.Runner, logger *log.Logger) *Server {
	cfg.setDefaults()
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		cfg:    cfg,
		store:  st,
		runner: runner,
		trees:  NewTreeCache(cfg.TreeCacheSize),
		logger: logger,
	}
	s.router = s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.cfg.RequestTimeout))

	r.Get("/healthz", s.handleHealth)
	r.Get("/", s.handleIndex)
	r.Post("/upload", s.handleUploadForm)
	r.Get("/reports/{id}", s.handlePage)

	r.Route("/api/reports", func(r chi.Router) {
		r.Get("/", s.handleList)
		r.Post("/", s.handleUpload)
		r.Route("/{id}", func(r chi.Router) {
			r.Use(s.validateID)
			r.Get("/", s.handleSummary)
			r.Delete("/", s.handleDelete)
			r.Get("/view", s.handleView)
			r.Get("/tooltip", s.handleTooltip)
			r.Get("/render", s.handleRender)
		})
	})
	return r
}

// Run listens on cfg.Addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("viewer listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		s.logger.Info("shutting down viewer")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
