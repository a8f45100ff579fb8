package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/careernest/credsheet/internal/database"
	"github.com/careernest/credsheet/internal/pipeline"
	"github.com/careernest/credsheet/internal/report"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/net/netutil"
)

// History is the part of the history database the server uses.
type History interface {
	pipeline.HistoryStore
	GetGeneration(ctx context.Context, id string) (*database.Generation, error)
	ListGenerations(ctx context.Context, opts database.ListOptions) ([]*database.Generation, error)
}

// Options configures a Server.
type Options struct {
	// Addr is the listen address used by Run.
	Addr string

	// MaxConnections caps simultaneous connections. Zero means no cap.
	MaxConnections int

	// MaxBodyBytes caps request bodies.
	MaxBodyBytes int64

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration

	// Generator renders PDFs. Nil uses report defaults.
	Generator *report.Generator

	// FillPasswords assigns default passwords before rendering.
	FillPasswords bool

	// Strict rejects requests whose records fail validation.
	Strict bool

	// History records generations when set.
	History History

	// Clock dates the attachment filename. Defaults to time.Now.
	Clock func() time.Time

	Logger *slog.Logger
}

// Server is the credsheet HTTP server.
type Server struct {
	opts   Options
	router chi.Router
	logger *slog.Logger
}

// New creates a Server and registers its routes.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Generator == nil {
		opts.Generator = report.NewGenerator(report.WithGeneratorLogger(opts.Logger))
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 8 * 1024 * 1024
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}

	s := &Server{
		opts:   opts,
		logger: opts.Logger,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = fmt.Fprintln(w, "ok")
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/credentials/{format}", s.handleGenerate)
		r.Get("/generations", s.handleListGenerations)
		r.Get("/generations/{id}", s.handleGetGeneration)
	})

	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Run listens on Options.Addr and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.opts.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled, then shuts down gracefully.
// In-flight requests get ShutdownTimeout to finish before connections are
// closed.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if s.opts.MaxConnections > 0 {
		ln = netutil.LimitListener(ln, s.opts.MaxConnections)
	}

	srv := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}

	s.logger.Info("server listening", "addr", ln.Addr().String())

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("could not stop server gracefully", "error", err)
		if cerr := srv.Close(); cerr != nil {
			return fmt.Errorf("could not force stop server: %w", cerr)
		}
		return err
	}
	return nil
}

// logRequests logs one line per request through the masking logger.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"elapsed", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
