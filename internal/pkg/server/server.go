package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/frain-dev/pgtime/pkg/log"
)

type Server struct {
	s      *http.Server
	logger log.StdLogger
}

func NewServer(port uint32, logger log.StdLogger) *Server {
	return &Server{
		s: &http.Server{
			ReadTimeout:  time.Second * 30,
			WriteTimeout: time.Second * 30,
			Addr:         fmt.Sprintf(":%d", port),
		},
		logger: logger,
	}
}

func (s *Server) SetHandler(handler http.Handler) {
	s.s.Handler = handler
}

func (s *Server) Addr() string {
	return s.s.Addr
}

// Listen serves in the background until Shutdown is called.
func (s *Server) Listen() {
	go func() {
		//service connections
		err := s.s.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.WithError(err).Error("failed to listen")
		}
	}()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Stopping server")

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := s.s.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	s.logger.Info("Server exiting")
	return nil
}
