package api

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/nxp-qmc/qmc2g-core/internal/logger"
	"github.com/nxp-qmc/qmc2g-core/internal/restapi/middleware"
)

// Server serves the REST surface over TLS (or plain HTTP if no certificate
// is configured, e.g. local development), supporting graceful shutdown.
type Server struct {
	server       *http.Server
	deps         *Handlers
	config       Config
	counter      *errorCounter
	shutdownOnce sync.Once
}

// NewServer builds a Server from deps and config, applying config defaults.
func NewServer(config Config, deps *Handlers, sessions middleware.SessionValidator) *Server {
	config.applyDefaults()
	counter := newErrorCounter(deps.Log, config.ErrorLogInterval)
	router := NewRouter(deps, sessions, counter)

	return &Server{
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", config.Port),
			Handler:      router,
			ReadTimeout:  config.ReadTimeout,
			WriteTimeout: config.WriteTimeout,
			IdleTimeout:  config.IdleTimeout,
		},
		deps:    deps,
		config:  config,
		counter: counter,
	}
}

// Start runs the server and the webservice error-count flusher until ctx is
// cancelled, then gracefully shuts both down.
func (s *Server) Start(ctx context.Context) error {
	go s.counter.Run(ctx)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("rest api listening",
			logger.Component("restapi"), "port", s.config.Port, "tls", s.config.CertFile != "")

		var err error
		if s.config.CertFile != "" && s.config.KeyFile != "" {
			err = s.server.ListenAndServeTLS(s.config.CertFile, s.config.KeyFile)
		} else {
			err = s.server.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			select {
			case errCh <- err:
			default:
			}
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.Stop(shutdownCtx)
	case err := <-errCh:
		return fmt.Errorf("rest api server failed: %w", err)
	}
}

// Stop gracefully shuts the server down, safe to call more than once.
func (s *Server) Stop(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if err := s.server.Shutdown(ctx); err != nil {
			shutdownErr = fmt.Errorf("rest api shutdown error: %w", err)
			logger.Error("rest api shutdown error", logger.Component("restapi"), "error", err)
		} else {
			logger.Info("rest api stopped gracefully", logger.Component("restapi"))
		}
	})
	return shutdownErr
}
