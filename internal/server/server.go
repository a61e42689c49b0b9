// Package server exposes a loaded register over HTTP.
//
// Routes:
//
//	GET  /healthz
//	GET  /register
//	GET  /items                     ?status= &class= &q= &local=true
//	GET  /items/{id}                ?full=true
//	GET  /items/{id}/schema
//	GET  /items/{id}/context
//	POST /items/{id}/uplift         ?base=   (Accept: application/ld+json for JSON-LD)
//	POST /items/{id}/validate       ?type=json|shacl
//	GET  /graph/{view}              imports|dependencies, ?format=svg|dot &detailed=true
//	GET  /metrics
//
// Request bodies may be JSON or YAML.
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/bblocks/bblocks/pkg/register"
	"github.com/bblocks/bblocks/pkg/uplift"
	"github.com/bblocks/bblocks/pkg/validate"
)

// Options configures a [Server].
type Options struct {
	Logger       *log.Logger            // Default: discard
	Pipeline     *uplift.Pipeline       // Default: uplift.New with Logger
	Validators   *validate.Capabilities // Default: validate.Default(Logger)
	Metrics      *Metrics               // Nil disables /metrics and request instrumentation
	MaxBodyBytes int64                  // Default: 10 MiB
	ReadTimeout  time.Duration          // Default: 30s
	WriteTimeout time.Duration          // Default: 2m
}

// WithDefaults returns a copy of Options with zero values replaced by defaults.
func (o Options) WithDefaults() Options {
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if o.Pipeline == nil {
		o.Pipeline = uplift.New(uplift.Options{Logger: o.Logger})
	}
	if o.Validators == nil {
		v := validate.Default(o.Logger)
		o.Validators = &v
	}
	if o.MaxBodyBytes <= 0 {
		o.MaxBodyBytes = 10 << 20
	}
	if o.ReadTimeout <= 0 {
		o.ReadTimeout = 30 * time.Second
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 2 * time.Minute
	}
	return o
}

// Server serves one register.
type Server struct {
	reg    *register.Register
	opts   Options
	router chi.Router
}

// New creates a server for reg.
func New(reg *register.Register, opts Options) *Server {
	s := &Server{reg: reg, opts: opts.WithDefaults()}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	if s.opts.Metrics != nil {
		r.Use(s.opts.Metrics.instrument)
		r.Method(http.MethodGet, "/metrics", s.opts.Metrics.Handler())
	}

	r.Get("/healthz", s.health)
	r.Get("/register", s.register)
	r.Route("/items", func(r chi.Router) {
		r.Get("/", s.listItems)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.getItem)
			r.Get("/schema", s.getSchema)
			r.Get("/context", s.getContext)
			r.Post("/uplift", s.uplift)
			r.Post("/validate", s.validate)
		})
	})
	r.Get("/graph/{view}", s.graph)
	return r
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       s.opts.ReadTimeout,
		WriteTimeout:      s.opts.WriteTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		s.opts.Logger.Info("listening", "addr", addr, "register", s.reg.URL)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		s.opts.Logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
