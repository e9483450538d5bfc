package devtools

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

// Start serves the mock on addr in the background. An empty addr picks a
// loopback port. It returns the base URL and a stop function.
func (s *Server) Start(addr string) (string, func(context.Context) error, error) {
	if addr == "" {
		addr = "127.0.0.1:0"
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", nil, fmt.Errorf("listen mock backend: %w", err)
	}
	srv := &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("mock.serve.failed", map[string]any{"error": err.Error()})
		}
	}()
	s.logger.Info("mock.serve", map[string]any{"addr": ln.Addr().String()})
	return "http://" + ln.Addr().String(), srv.Shutdown, nil
}

// Serve blocks until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, addr string) (string, error) {
	base, stop, err := s.Start(addr)
	if err != nil {
		return "", err
	}
	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return base, stop(shutdownCtx)
}
