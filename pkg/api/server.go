// Package api serves the compiler and the live session over HTTP.
//
// The server exposes the same check/render pipeline as the CLI plus the
// telemetry splitter, so a browser UI can upload a document, fetch the
// compiled graph and post sample batches:
//
//	POST /api/v1/check     compile a document and make it the live program
//	POST /api/v1/samples   split a sample batch against the live program
//	GET  /api/v1/graph     the live graph, highlighted (?format=json|dot|svg|png|pdf)
//	GET  /api/v1/session   the live session
//	GET  /api/v1/frames    server-sent stream of published frames
//	GET  /healthz          liveness
//
// When a UI directory is configured every other path is served from it.
//
// # Usage
//
//	srv := api.New(api.Options{
//	    Runner:   pipeline.NewRunner(c, cache.NewScopedKeyer(nil, "serve:"), logger),
//	    Sessions: session.NewManager(),
//	    Logger:   logger,
//	})
//	err := srv.ListenAndServe(ctx, ":3000")
package api

import (
	"context"
	stderrors "errors"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/flowscope/pkg/pipeline"
	"github.com/matzehuels/flowscope/pkg/session"
	"github.com/matzehuels/flowscope/pkg/telemetry"
)

// DefaultAddr is the listen address of the server.
const DefaultAddr = ":3000"

// maxBodySize bounds request bodies (documents and sample batches).
const maxBodySize = 4 << 20

// Options configures a Server. Nil fields get working defaults.
type Options struct {
	Runner    *pipeline.Runner
	Sessions  *session.Manager
	Publisher telemetry.Publisher
	Logger    *log.Logger

	// Subscriber feeds GET /api/v1/frames. Nil answers 501.
	Subscriber telemetry.Subscriber

	// UIDir is a directory of static files served at "/". Empty disables it.
	UIDir string

	// AllowedOrigin is the CORS origin. Defaults to "*".
	AllowedOrigin string
}

// Server is the HTTP front end.
type Server struct {
	runner     *pipeline.Runner
	sessions   *session.Manager
	publisher  telemetry.Publisher
	subscriber telemetry.Subscriber
	logger     *log.Logger
	started    time.Time
	router     chi.Router
}

// New creates a server and its routes.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Runner == nil {
		opts.Runner = pipeline.NewRunner(nil, nil, opts.Logger)
	}
	if opts.Sessions == nil {
		opts.Sessions = session.NewManager()
	}
	if opts.Publisher == nil {
		opts.Publisher = telemetry.NopPublisher()
	}
	if opts.AllowedOrigin == "" {
		opts.AllowedOrigin = "*"
	}

	s := &Server{
		runner:     opts.Runner,
		sessions:   opts.Sessions,
		publisher:  opts.Publisher,
		subscriber: opts.Subscriber,
		logger:     opts.Logger,
		started:    time.Now(),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	r.Use(cors(opts.AllowedOrigin))

	r.Get("/healthz", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/check", s.handleCheck)
		r.Post("/samples", s.handleSamples)
		r.Get("/graph", s.handleGraph)
		r.Get("/session", s.handleSession)
		r.Get("/frames", s.handleFrames)
	})
	if opts.UIDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(opts.UIDir)))
	}

	s.router = r
	return s
}

// Handler returns the server's root handler.
func (s *Server) Handler() http.Handler { return s.router }

// Sessions returns the session manager the server reads and replaces.
func (s *Server) Sessions() *session.Manager { return s.sessions }

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			return err
		}
		return ctx.Err()
	}
}

// UIDirExists reports whether dir is an existing directory.
func UIDirExists(dir string) bool {
	fi, err := os.Stat(dir)
	return err == nil && fi.IsDir()
}
