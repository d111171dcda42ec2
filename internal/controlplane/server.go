// Package controlplane implements the daemon's local loopback HTTP server:
// the REST surface the host app's UI process drives transfers through
// (SPEC_FULL.md §4.H, §6).
package controlplane

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/octaspace/transfer-manager/internal/logging"
	"github.com/octaspace/transfer-manager/internal/transfer"
)

// Server is the control plane's HTTP server, bound to loopback only.
type Server struct {
	manager      *transfer.Manager
	logger       *logging.Logger
	logBuffer    *logging.LogBuffer
	logTailLines int

	httpServer *http.Server
}

// Config configures the control plane server.
type Config struct {
	ListenPort      int
	DefaultFarmHost string
	LogTailLines    int
}

// NewServer builds a Server ready to Start. logBuffer backs GET /logs; it
// is typically the buffer returned by daemon.DaemonLogWriter.GetBuffer().
func NewServer(cfg Config, manager *transfer.Manager, logger *logging.Logger, logBuffer *logging.LogBuffer) *Server {
	tailLines := cfg.LogTailLines
	if tailLines <= 0 {
		tailLines = 200
	}

	s := &Server{
		manager:      manager,
		logger:       logger,
		logBuffer:    logBuffer,
		logTailLines: tailLines,
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("127.0.0.1:%d", cfg.ListenPort),
		Handler:      s.router(cfg.DefaultFarmHost),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s
}

// requestLoggingMiddleware logs one debug line per request through the
// daemon's logging.Logger facade, mirroring chi's own middleware.Logger but
// routed through zerolog instead of the standard logger.
func (s *Server) requestLoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("control plane request")
	})
}

func (s *Server) router(defaultFarmHost string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware)
	r.Use(versionGateMiddleware)
	r.Use(s.requestLoggingMiddleware)
	r.Use(userDataMiddleware(defaultFarmHost))

	r.Post("/upload", s.handleUpload)
	r.Post("/download", s.handleDownload)
	r.Get("/transfers", s.handleListTransfers)
	r.Get("/transfers/{id}", s.handleGetTransfer)
	r.Delete("/transfers/{id}", s.handleDeleteTransfer)
	r.Put("/transfers/{id}/status", s.handleSetTransferStatus)
	r.Get("/transfer_manager_info", s.handleInfo)
	r.Get("/logs", s.handleLogs)
	r.Get("/queues", s.handleQueues)

	return r
}

// Start begins serving in a background goroutine, returning once the
// listener is bound (so callers can reliably probe the port right after).
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("bind control plane listener: %w", err)
	}

	s.logger.Info().Str("addr", s.httpServer.Addr).Msg("control plane listening")
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("control plane server exited")
		}
	}()
	return nil
}

// Shutdown gracefully stops the server, waiting for in-flight requests to
// finish or ctx to expire.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
