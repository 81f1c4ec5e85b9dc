package cli

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/aretw0/tickstory"
	"github.com/aretw0/tickstory/internal/adapters/file"
	"github.com/aretw0/tickstory/internal/adapters/fsloader"
	"github.com/aretw0/tickstory/internal/logging"
	httpadapter "github.com/aretw0/tickstory/pkg/adapters/http"
	"github.com/aretw0/tickstory/pkg/adapters/memory"
	"github.com/aretw0/tickstory/pkg/adapters/redis"
	"github.com/aretw0/tickstory/pkg/observability"
	"github.com/aretw0/tickstory/pkg/persistence/middleware"
	"github.com/aretw0/tickstory/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ShutdownTimeout bounds how long in-flight requests may run after a stop signal.
const ShutdownTimeout = 5 * time.Second

// ServeOptions configures the HTTP server.
type ServeOptions struct {
	EngineOptions

	Path          string
	Addr          string
	LogLevel      string
	SessionsDir   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	SessionTTL    time.Duration
	EncryptionKey string
	PIIPatterns   []string
}

// Server is a ready to serve handler with the resources it holds.
type Server struct {
	Handler http.Handler
	Engine  *tickstory.Engine
	Logger  *slog.Logger

	closers []io.Closer
}

// Close releases the session store connections.
func (s *Server) Close() error {
	var errs []error
	for _, c := range s.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// NewServer wires the story, the session store, metrics and the HTTP routes.
// Logs are JSON records on logOut.
func NewServer(ctx context.Context, opts ServeOptions, logOut io.Writer) (*Server, error) {
	level, err := logging.ParseLevel(opts.LogLevel)
	if err != nil {
		return nil, err
	}
	if opts.Debug {
		level = slog.LevelDebug
	}
	logger := logging.NewJSON(logOut, level)

	ref, err := ResolveStory(opts.Path)
	if err != nil {
		return nil, err
	}

	srv := &Server{Logger: logger}
	store, locker, err := srv.buildStore(opts)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics, err := observability.NewMetrics(reg)
	if err != nil {
		srv.Close()
		return nil, err
	}

	extra := []tickstory.Option{tickstory.WithHooks(metrics.Hooks())}
	if !opts.Debug {
		// Debug already adds the logging hooks.
		extra = append(extra, tickstory.WithHooks(observability.LoggingHooks(logger)))
	}
	if locker != nil {
		extra = append(extra, tickstory.WithLocker(locker))
	}

	loader := fsloader.New(ref.Dir, fsloader.WithLogger(logger))
	engine, err := createEngine(ctx, loader, ref, opts.EngineOptions, store, logger, extra...)
	if err != nil {
		srv.Close()
		return nil, err
	}

	srv.Engine = engine
	srv.Handler = httpadapter.NewHandler(engine,
		httpadapter.WithLogger(logger),
		httpadapter.WithMetricsHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})),
	)
	return srv, nil
}

// buildStore picks redis when an address is given, the file store when a
// sessions dir is given and memory otherwise, then applies the at-rest
// middlewares.
func (s *Server) buildStore(opts ServeOptions) (ports.SessionStore, ports.DistributedLocker, error) {
	var (
		store  ports.SessionStore
		locker ports.DistributedLocker
	)
	switch {
	case opts.RedisAddr != "":
		rs := redis.New(opts.RedisAddr, opts.RedisPassword, opts.RedisDB, redis.WithTTL(opts.SessionTTL))
		s.closers = append(s.closers, rs)
		store = rs
		locker = redis.NewLocker(rs.Client(), "tickstory:")
		s.Logger.Info("using redis session store", "addr", opts.RedisAddr, "db", opts.RedisDB)
	case opts.SessionsDir != "":
		store = file.New(opts.SessionsDir)
		s.Logger.Info("using file session store", "dir", opts.SessionsDir)
	default:
		store = memory.NewStore()
		s.Logger.Info("using in-memory session store")
	}

	var mws []middleware.Middleware
	if len(opts.PIIPatterns) > 0 {
		pii, err := middleware.NewPIIMiddleware(opts.PIIPatterns)
		if err != nil {
			s.Close()
			return nil, nil, err
		}
		mws = append(mws, pii)
	}
	if opts.EncryptionKey != "" {
		key, err := decodeKey(opts.EncryptionKey)
		if err != nil {
			s.Close()
			return nil, nil, err
		}
		enc, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key})
		if err != nil {
			s.Close()
			return nil, nil, err
		}
		mws = append(mws, enc)
	}
	return middleware.Chain(store, mws...), locker, nil
}

// decodeKey accepts a base64 encoded key or a raw 32 character one.
func decodeKey(s string) ([]byte, error) {
	if key, err := base64.StdEncoding.DecodeString(s); err == nil && len(key) == 32 {
		return key, nil
	}
	if len(s) == 32 {
		return []byte(s), nil
	}
	return nil, middleware.ErrInvalidKey
}

// Serve listens on opts.Addr until ctx is done, then shuts down gracefully.
func Serve(ctx context.Context, opts ServeOptions, out io.Writer) error {
	srv, err := NewServer(ctx, opts, os.Stderr)
	if err != nil {
		return err
	}
	defer srv.Close()

	ln, err := net.Listen("tcp", opts.Addr)
	if err != nil {
		return err
	}

	httpSrv := &http.Server{
		Handler:           srv.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- httpSrv.Serve(ln)
	}()
	fmt.Fprintf(out, "Serving story '%s' on %s\n", srv.Engine.Config().Name, ln.Addr())
	srv.Logger.Info("server started", "addr", ln.Addr().String(), "version", tickstory.Version)

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		srv.Logger.Warn("graceful shutdown did not complete", "err", err)
		return httpSrv.Close()
	}
	srv.Logger.Info("server stopped")
	fmt.Fprintln(out, "Server stopped gracefully")
	return nil
}
