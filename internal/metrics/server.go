package metrics

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	pkgerrors "github.com/pkg/errors"

	"github.com/Dicklesworthstone/loadwatch/internal/logging"
)

const shutdownTimeout = 5 * time.Second

// NewRegistry returns a registry holding the exporter for src plus the Go
// runtime and process collectors.
func NewRegistry(src SampleSource) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		NewExporter(src),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// NewRouter serves /metrics from g, /healthz, and the latest sample as
// JSON on /sample.
func NewRouter(g prometheus.Gatherer, src SampleSource) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})
	r.Get("/sample", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(src.Snapshot())
	})
	return r
}

// Server is the metrics HTTP endpoint.
type Server struct {
	httpServer *http.Server
	log        logging.Logger
}

// NewServer prepares a server on addr for src. Nothing listens until Run.
func NewServer(addr string, src SampleSource, log logging.Logger) *Server {
	if log == nil {
		log = logging.Nop()
	}
	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           NewRouter(NewRegistry(src), src),
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		log: log,
	}
}

// Run listens on the configured address and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return pkgerrors.Wrapf(err, "listen on %s", s.httpServer.Addr)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errc := make(chan error, 1)
	go func() { errc <- s.httpServer.Serve(ln) }()
	s.log.Info("metrics endpoint listening", logging.String("addr", ln.Addr().String()))

	select {
	case err := <-errc:
		return pkgerrors.Wrap(err, "metrics server")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.log.Error("metrics server shutdown", err)
		return pkgerrors.Wrap(err, "metrics server shutdown")
	}
	s.log.Debug("metrics server stopped")
	if err := <-errc; err != nil && err != http.ErrServerClosed {
		return pkgerrors.Wrap(err, "metrics server")
	}
	return nil
}
