// Package server exposes a plan's records over HTTP: the distinct root count,
// offset windows and numbered pages.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/leapstack-labs/leapjoin/internal/plan"
	"github.com/leapstack-labs/leapjoin/pkg/adapter"
	"github.com/leapstack-labs/leapjoin/pkg/paginator"
	"github.com/leapstack-labs/leapjoin/pkg/query"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

// Server serves one plan against one backing store.
type Server struct {
	store    adapter.Querier
	plan     *plan.Plan
	port     int
	pageSize int
	logger   *slog.Logger
}

// Config holds configuration for the server.
type Config struct {
	Store    adapter.Querier
	Plan     *plan.Plan
	Port     int
	PageSize int
	Logger   *slog.Logger
}

// NewServer creates a new server instance.
func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	return &Server{
		store:    cfg.Store,
		plan:     cfg.Plan,
		port:     cfg.Port,
		pageSize: pageSize,
		logger:   logger,
	}
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.RequestID,
		s.requestLogger,
		middleware.Recoverer,
	)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/sql", s.handleSQL)
	r.Get("/count", s.handleCount)
	r.Get("/items", s.handleItems)
	r.Get("/pages/{number}", s.handlePage)
	return r
}

// Serve starts the server and blocks until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return fmt.Errorf("failed to listen on port %d: %w", s.port, err)
	}
	return s.serve(ctx, ln)
}

func (s *Server) serve(ctx context.Context, ln net.Listener) error {
	s.logger.Info("starting server", slog.String("addr", ln.Addr().String()))

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Handler: s.Handler(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		s.logger.Debug("shutting down server")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// newQuery builds a fresh query for one request; queries are never shared
// between requests.
func (s *Server) newQuery(r *http.Request) (*query.Query, error) {
	logger := s.logger.With(slog.String("request_id", middleware.GetReqID(r.Context())))
	return s.plan.Build(r.Context(), s.store, query.WithLogger(logger))
}

func (s *Server) newPaginator(r *http.Request) (*paginator.Paginator, error) {
	q, err := s.newQuery(r)
	if err != nil {
		return nil, err
	}
	return paginator.New(q), nil
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			s.logger.Info("request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Duration("duration", time.Since(start)),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)
		}()
		next.ServeHTTP(ww, r)
	})
}
