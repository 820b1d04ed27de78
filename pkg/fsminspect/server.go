package fsminspect

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/dmitrymomot/statekit/pkg/logger"
)

var (
	ErrStart          = errors.New("failed to start inspect server")
	ErrShutdown       = errors.New("failed to shutdown inspect server gracefully")
	ErrAlreadyRunning = errors.New("inspect server already running")
)

// ServerConfig is loaded from the environment; embed it with an envPrefix.
type ServerConfig struct {
	Addr            string        `env:"ADDR"`
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"40s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"5s"`
}

// Enabled reports whether an address was configured.
func (c ServerConfig) Enabled() bool {
	return c.Addr != ""
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithServerLogger sets the logger used for lifecycle messages. Nil is ignored.
func WithServerLogger(l *slog.Logger) ServerOption {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// Server runs an inspect handler until its context ends, then shuts down
// gracefully within ShutdownTimeout.
type Server struct {
	cfg     ServerConfig
	handler http.Handler
	logger  *slog.Logger

	mu  sync.Mutex
	srv *http.Server
}

func NewServer(cfg ServerConfig, handler http.Handler, opts ...ServerOption) *Server {
	if handler == nil {
		handler = http.NotFoundHandler()
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 5 * time.Second
	}
	s := &Server{
		cfg:     cfg,
		handler: handler,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run listens on cfg.Addr and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	var lc net.ListenConfig
	l, err := lc.Listen(ctx, "tcp", s.cfg.Addr)
	if err != nil {
		return errors.Join(ErrStart, err)
	}
	return s.Serve(ctx, l)
}

// Serve accepts connections on l until ctx is done. l is closed on return.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	s.mu.Lock()
	if s.srv != nil {
		s.mu.Unlock()
		_ = l.Close()
		return errors.Join(ErrStart, ErrAlreadyRunning)
	}
	srv := &http.Server{
		Handler:      s.handler,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		BaseContext:  func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}
	s.srv = srv
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "inspect server listening",
		logger.Component("fsminspect"),
		slog.String("addr", l.Addr().String()),
	)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(l) }()

	var runErr error
	select {
	case <-ctx.Done():
		runErr = s.shutdown(srv)
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			runErr = errors.Join(runErr, err)
		}
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			runErr = errors.Join(ErrStart, err)
		}
	}

	s.mu.Lock()
	s.srv = nil
	s.mu.Unlock()
	return runErr
}

func (s *Server) shutdown(srv *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	err := srv.Shutdown(ctx)
	s.logger.Info("inspect server stopped", logger.Component("fsminspect"))
	if err != nil {
		return errors.Join(ErrShutdown, err)
	}
	return nil
}
