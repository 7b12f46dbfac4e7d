package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/ValentinKolb/tKV/lib/storage"
	"github.com/ValentinKolb/tKV/lib/storage/metered"
	"github.com/ValentinKolb/tKV/rpc/common"
	"github.com/VictoriaMetrics/metrics"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("rpc")

// BuildInfo is reported by the info endpoint
type BuildInfo struct {
	Version   string
	BuildDate string
}

// Server serves one storage backend over HTTP
type Server struct {
	config common.ServerConfig
	store  storage.Storage
	meter  *metered.Storage
	info   BuildInfo

	closeOnce sync.Once
	closeErr  error
}

// NewServer creates a server for store. If config.Metrics is set the store is
// wrapped so that every call is recorded. The server owns store and closes it
// when Serve returns.
func NewServer(config common.ServerConfig, store storage.Storage, info BuildInfo) *Server {
	s := &Server{
		config: config,
		store:  store,
		info:   info,
	}
	if config.Metrics {
		impl, err := storage.ParseImplementation(config.Backend)
		if err != nil {
			impl = storage.Implementation(config.Backend)
		}
		s.meter = metered.Wrap(store, impl)
		s.store = s.meter
	}
	return s
}

// Handler returns the HTTP handler of the API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /keys", s.handleGetAllKeys)
	mux.HandleFunc("POST /keys", s.handleSet)
	mux.HandleFunc("DELETE /keys", s.handleDeletePrefix)
	mux.HandleFunc("GET /keys/{key}", s.handleGet)
	mux.HandleFunc("DELETE /keys/{key}", s.handleDelete)
	mux.HandleFunc("POST /keys/{key}/inc", s.handleIncrement)
	mux.HandleFunc("POST /keys/{key}/dec", s.handleDecrement)
	mux.HandleFunc("GET /keys/{key}/ttl", s.handleGetTTL)
	mux.HandleFunc("POST /keys/{key}/ttl", s.handleSetTTL)
	mux.HandleFunc("GET /info", s.handleInfo)

	if s.meter != nil {
		mux.HandleFunc("GET /metrics", func(w http.ResponseWriter, _ *http.Request) {
			s.meter.WritePrometheus(w)
			metrics.WriteProcessMetrics(w)
		})
	}

	if s.config.LogLevel == "debug" {
		return loggerMiddleware(mux)
	}
	return mux
}

// Serve listens on the configured endpoint until ctx is done or SIGINT or
// SIGTERM is received, then shuts down gracefully and closes the store.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Endpoint)
	if err != nil {
		_ = s.Close()
		return err
	}
	return s.ServeListener(ctx, ln)
}

// ServeListener is Serve on an existing listener.
func (s *Server) ServeListener(ctx context.Context, ln net.Listener) error {
	// https://github.com/golang/go/issues/17393
	if runtime.GOOS == "darwin" {
		signal.Ignore(syscall.Signal(0xd))
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	httpServer := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		Logger.Infof("starting HTTP server on %s", ln.Addr())
		errCh <- httpServer.Serve(ln)
	}()

	var serveErr error
	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			serveErr = err
		}
	case <-ctx.Done():
		Logger.Infof("shutting down HTTP server")
		timeout := time.Duration(s.config.ShutdownTimeoutSecond) * time.Second
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			Logger.Errorf("graceful shutdown failed: %v", err)
			serveErr = err
		}
		cancel()
	}

	if err := s.Close(); err != nil && serveErr == nil {
		serveErr = err
	}
	return serveErr
}

// Close closes the store. It is safe to call more than once.
func (s *Server) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.store.Close()
		if s.closeErr != nil {
			Logger.Errorf("closing storage failed: %v", s.closeErr)
		} else {
			Logger.Infof("storage closed")
		}
	})
	return s.closeErr
}
