package listener

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/cclaudio/trustee/internal/observability"
)

// Server wraps an http.Server for one listening address.
type Server struct {
	name   string
	srv    *http.Server
	logger *observability.Logger
}

func NewServer(name, addr string, handler http.Handler, logger *observability.Logger) *Server {
	return &Server{
		name: name,
		srv: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger,
	}
}

// Serve accepts on ln until Shutdown. A clean shutdown returns nil.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Infow("listening", "server", s.name, "addr", ln.Addr().String())
	if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Start listens on the configured address and serves until Shutdown.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

func (s *Server) Shutdown(ctx context.Context) error { return s.srv.Shutdown(ctx) }
