package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	defaultPort     = 8080
	shutdownTimeout = 10 * time.Second
)

type Server struct {
	http.Server
}

func New(cfg Config, files files, feeds feeds) *Server {
	port := cfg.Port
	if port == 0 {
		port = defaultPort
	}

	bindAddress := cfg.BindAddress
	if bindAddress == "*" {
		bindAddress = ""
	}

	srv := Server{}

	srv.Addr = fmt.Sprintf("%s:%d", bindAddress, port)
	log.Debugf("using address: %s", srv.Addr)

	srv.Handler = NewHandler(cfg, files, feeds)

	return &srv
}

// Serve listens until ctx is done, then shuts the server down.
func (s *Server) Serve(ctx context.Context) error {
	errs := make(chan error, 1)
	go func() {
		log.Infof("running listener at %s", s.Addr)
		errs <- s.ListenAndServe()
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down web server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("server shutdown failed")
		return err
	}

	if err := <-errs; err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
