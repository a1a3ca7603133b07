package workers

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
)

// GRPCServerWorker serves a fresh grpc.Server on every run, so the supervisor
// can restart it after Serve failed.
type GRPCServerWorker struct {
	log             *slog.Logger
	listen          func() (net.Listener, error)
	newServer       func() *grpc.Server
	shutdownTimeout time.Duration
}

func NewGRPCServerWorker(log *slog.Logger, listen func() (net.Listener, error),
	newServer func() *grpc.Server, shutdownTimeout time.Duration) *GRPCServerWorker {
	return &GRPCServerWorker{log: log, listen: listen, newServer: newServer, shutdownTimeout: shutdownTimeout}
}

func (w *GRPCServerWorker) Run(ctx context.Context) error {
	listener, err := w.listen()
	if err != nil {
		return fmt.Errorf("gRPC listen failed: %w", err)
	}
	server := w.newServer()

	errChan := make(chan error, 1)
	go func() {
		w.log.Info("Starting gRPC server", "address", listener.Addr().String())
		errChan <- server.Serve(listener)
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("gRPC server error: %w", err)
	case <-ctx.Done():
	}

	stopped := make(chan struct{})
	go func() {
		server.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
		w.log.Info("gRPC server stopped gracefully")
	case <-time.After(w.shutdownTimeout):
		w.log.Warn("gRPC graceful stop timed out, closing connections")
		server.Stop()
	}
	return ctx.Err()
}
