// Package server exposes the calendar agent and the Google consent flow over
// HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/oauth2"

	"github.com/calendar-agent-poc/server/internal/agent/graph"
	logx "github.com/calendar-agent-poc/server/pkg/logger"
)

type Config struct {
	Addr            string        `envconfig:"SERVER_ADDR" default:":3000"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"5s"`
}

// Authenticator runs the OAuth consent flow for the calendar backend.
type Authenticator interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
}

type Server struct {
	cfg    Config
	engine *gin.Engine
}

// New wires the routes. runner may be nil when only the consent flow is
// served; gatherer may be nil to disable /metrics.
func New(cfg Config, runner graph.Runner, auth Authenticator, gatherer prometheus.Gatherer) *Server {
	engine := gin.New()
	initRouter(engine, &routerDeps{
		runner:   runner,
		auth:     auth,
		gatherer: gatherer,
	})
	return &Server{cfg: cfg, engine: engine}
}

func (s *Server) Handler() http.Handler { return s.engine }

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logx.Info().Str("addr", s.cfg.Addr).Msg("HTTP server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	logx.Info().Msg("Shutting down HTTP server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}
