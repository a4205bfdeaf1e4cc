package utils

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const (
	DefaultReadTimeout     = 60 * time.Second
	DefaultWriteTimeout    = DefaultReadTimeout
	DefaultShutdownTimeout = 30 * time.Second
)

// Server wraps http.Server with signal-driven graceful shutdown.
type Server struct {
	*http.Server

	shutdownTimeout time.Duration
	onShutdown      []func(context.Context)
}

// NewServer creates a Server with timeouts and handler.
func NewServer(addr string, handler http.Handler, readTimeout, writeTimeout time.Duration) *Server {
	return &Server{
		Server: &http.Server{
			Addr:         addr,
			Handler:      handler,
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
		},
		shutdownTimeout: DefaultShutdownTimeout,
	}
}

// OnShutdown registers a hook run after the HTTP server stopped accepting requests.
func (srv *Server) OnShutdown(fn func(context.Context)) {
	srv.onShutdown = append(srv.onShutdown, fn)
}

// Serve accepts connections on ln until ctx is cancelled, then drains in-flight
// requests and runs the shutdown hooks.
func (srv *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Server.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), srv.shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	for _, fn := range srv.onShutdown {
		fn(shutdownCtx)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ListenAndServe listens on srv.Addr and serves until SIGINT or SIGTERM.
func (srv *Server) ListenAndServe() error {
	addr := srv.Addr
	if addr == "" {
		addr = ":http"
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("net.Listen error: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		if Sugar != nil {
			Sugar.Info("received shutdown signal, draining HTTP server")
		}
	}()
	return srv.Serve(ctx, ln)
}

// GraceServer starts an HTTP server with graceful shutdown.
func GraceServer(addr string, handler http.Handler, hooks ...func(context.Context)) error {
	srv := NewServer(addr, handler, DefaultReadTimeout, DefaultWriteTimeout)
	for _, h := range hooks {
		srv.OnShutdown(h)
	}
	return srv.ListenAndServe()
}
