package workers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"google.golang.org/grpc"
)

const shutdownTimeout = 5 * time.Second

// GRPCServerWorker serves a gRPC server on address until the context is done.
// The server is built again on every run, so that a crashed listener can be restarted.
type GRPCServerWorker struct {
	log     *slog.Logger
	address string
	build   func() *grpc.Server
}

func NewGRPCServerWorker(log *slog.Logger, address string, build func() *grpc.Server) *GRPCServerWorker {
	return &GRPCServerWorker{log: log, address: address, build: build}
}

func (w *GRPCServerWorker) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", w.address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", w.address, err)
	}
	server := w.build()

	errChan := make(chan error, 1)
	go func() {
		w.log.Info("Starting gRPC relay", "address", listener.Addr().String())
		errChan <- server.Serve(listener)
	}()

	select {
	case <-ctx.Done():
		w.log.Info("Stopping gRPC relay", "address", w.address)
		stopped := make(chan struct{})
		go func() {
			server.GracefulStop()
			close(stopped)
		}()
		select {
		case <-stopped:
		case <-time.After(shutdownTimeout):
			server.Stop()
		}
		return nil
	case err := <-errChan:
		if err == nil || errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return fmt.Errorf("gRPC relay error: %w", err)
	}
}

// HTTPServerWorker serves handler on address until the context is done.
type HTTPServerWorker struct {
	log     *slog.Logger
	address string
	handler http.Handler
}

func NewHTTPServerWorker(log *slog.Logger, address string, handler http.Handler) *HTTPServerWorker {
	return &HTTPServerWorker{log: log, address: address, handler: handler}
}

func (w *HTTPServerWorker) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", w.address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", w.address, err)
	}
	server := &http.Server{Handler: w.handler, ReadHeaderTimeout: 10 * time.Second}

	errChan := make(chan error, 1)
	go func() {
		w.log.Info("Starting WebSocket relay", "address", listener.Addr().String())
		errChan <- server.Serve(listener)
	}()

	select {
	case <-ctx.Done():
		w.log.Info("Stopping WebSocket relay", "address", w.address)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			_ = server.Close()
		}
		return nil
	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("WebSocket relay error: %w", err)
	}
}
