// Package server exposes extraction runs over HTTP for review and export.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/cognicore/termex/pkg/termex"
	"github.com/cognicore/termex/pkg/termex/rank"
	"github.com/cognicore/termex/pkg/termex/store"
)

// DefaultMaxBodyBytes bounds request bodies when Options leaves it unset.
const DefaultMaxBodyBytes = 64 << 20

// Options configures a Server.
type Options struct {
	Addr         string
	Store        store.Store
	Extractor    *termex.Extractor
	Logger       *zerolog.Logger
	MaxBodyBytes int64
	// Sort is the term order used when a request does not name one.
	Sort rank.Direction
}

// Server is a thin wrapper over chi + stdlib http.Server
type Server struct {
	store     store.Store
	extractor *termex.Extractor
	log       zerolog.Logger
	maxBody   int64
	sort      rank.Direction
	validate  *validator.Validate
	now       func() time.Time

	mux *chi.Mux
	srv *http.Server
}

// New creates a server and mounts its routes.
func New(opts Options) *Server {
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}
	maxBody := opts.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}

	s := &Server{
		store:     opts.Store,
		extractor: opts.Extractor,
		log:       log,
		maxBody:   maxBody,
		sort:      opts.Sort,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		now:       time.Now,
		mux:       chi.NewRouter(),
	}
	s.routes()
	s.srv = &http.Server{
		Addr:              opts.Addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes() {
	m := s.mux
	m.Use(middleware.RequestID)
	m.Use(s.accessLog)
	m.Use(middleware.Recoverer)

	m.Route("/runs", func(r chi.Router) {
		r.Get("/", s.listRuns)
		r.Post("/", s.createRun)
		r.Post("/upload", s.uploadRun)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.getRun)
			r.Delete("/", s.deleteRun)
			r.Get("/export.csv", s.exportRun)
			r.Get("/terms/{term}", s.getTerm)
			r.Put("/terms/{term}/selected", s.setSelected)
		})
	})
	m.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
}

// Handler returns the routed handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Addr returns the listening address
func (s *Server) Addr() string { return s.srv.Addr }

// Run starts the server and blocks until ctx is done or the listener fails.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.srv.Addr).Msg("http listening")
		errCh <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.srv.Shutdown(shutdownCtx)
	}
}

// captureWriter wraps the original ResponseWriter and records status & bytes
type captureWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (cw *captureWriter) WriteHeader(code int) {
	cw.status = code
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *captureWriter) Write(b []byte) (int, error) {
	n, err := cw.ResponseWriter.Write(b)
	if n > 0 {
		cw.bytes += n
	}
	return n, err
}

// accessLog logs method, path, status, elapsed, and bytes written
func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cw := &captureWriter{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(cw, r)

		evt := s.log.Info()
		if cw.status >= http.StatusInternalServerError {
			evt = s.log.Error()
		}
		evt.Int("status", cw.status).
			Dur("elapsed", time.Since(start)).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("request_id", middleware.GetReqID(r.Context())).
			Int("bytes", cw.bytes).
			Msg("request done")
	})
}
