// Package api is a small read-only HTTP gateway in front of an upstream
// NocoDB server. It validates `where` filter strings at the edge, so
// callers get a structured 4xx for a malformed filter instead of an opaque
// upstream error.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/sgoldberg/nocogo/nocodb"
	"github.com/sgoldberg/nocogo/where"
)

// Upstream is the slice of the API client the gateway calls.
type Upstream interface {
	ListRecords(ctx context.Context, baseID, tableID string, opts nocodb.ListOptions) (nocodb.RecordList, error)
	CountRecords(ctx context.Context, baseID, tableID string, filter where.Filter) (int64, error)
}

type server struct {
	cfg      Config
	logger   *slog.Logger
	upstream atomic.Pointer[upstreamBox]
}

// upstreamBox exists because atomic.Pointer needs a concrete type; the
// interface value lives inside it. Swapping the box swaps the upstream
// atomically, which is how config hot reload replaces the client without
// restarting the listener.
type upstreamBox struct {
	client Upstream
}

func NewServer(cfg Config, logger *slog.Logger, upstream Upstream) (*server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &server{
		cfg:    cfg,
		logger: logger,
	}
	s.upstream.Store(&upstreamBox{client: upstream})

	return s, nil
}

// SetUpstream swaps the upstream client. Safe to call while serving.
func (s *server) SetUpstream(upstream Upstream) {
	s.upstream.Store(&upstreamBox{client: upstream})
}

func (s *server) client() Upstream {
	return s.upstream.Load().client
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/healthcheck", s.healthCheckHandler)
	mux.HandleFunc("GET /api/tables/{tableID}/records", s.listRecordsHandler)
	mux.HandleFunc("GET /api/tables/{tableID}/count", s.countRecordsHandler)

	return s.recoverPanicMiddleware(s.requestLoggerMiddleware(s.corsMiddleware(mux)))
}

func (s *server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.Addr,
		Handler: s.routes(),
	}

	go func() {
		<-ctx.Done()
		s.logger.Info("shutting down server", "addr", s.cfg.Addr)
		if err := srv.Shutdown(context.Background()); err != nil {
			s.logger.Error("failed to shutdown server", "addr", s.cfg.Addr, "error", err)
		}
	}()

	var serverErr error
	if s.cfg.CertFile != "" && s.cfg.KeyFile != "" {
		s.logger.Info("starting server with TLS", "addr", s.cfg.Addr)
		serverErr = srv.ListenAndServeTLS(s.cfg.CertFile, s.cfg.KeyFile)
	} else {
		s.logger.Info("starting server without TLS", "addr", s.cfg.Addr)
		serverErr = srv.ListenAndServe()
	}

	if serverErr != nil && serverErr != http.ErrServerClosed {
		return serverErr
	}

	return nil
}
