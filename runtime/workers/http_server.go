package workers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// HTTPServerWorker serves handler until ctx is canceled, then drains in-flight requests.
type HTTPServerWorker struct {
	log             *slog.Logger
	listen          func() (net.Listener, error)
	handler         http.Handler
	shutdownTimeout time.Duration
}

func NewHTTPServerWorker(log *slog.Logger, listen func() (net.Listener, error),
	handler http.Handler, shutdownTimeout time.Duration) *HTTPServerWorker {
	return &HTTPServerWorker{log: log, listen: listen, handler: handler, shutdownTimeout: shutdownTimeout}
}

func (w *HTTPServerWorker) Run(ctx context.Context) error {
	listener, err := w.listen()
	if err != nil {
		return fmt.Errorf("HTTP listen failed: %w", err)
	}
	server := &http.Server{
		Handler:           w.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		w.log.Info("Starting HTTP server", "address", listener.Addr().String())
		errChan <- server.Serve(listener)
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("HTTP server error: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), w.shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		w.log.Warn("HTTP shutdown incomplete", "error", err)
	}
	return ctx.Err()
}
