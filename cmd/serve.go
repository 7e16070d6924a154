package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/calendar-agent-poc/server/internal/core"
	"github.com/calendar-agent-poc/server/internal/server"
	logx "github.com/calendar-agent-poc/server/pkg/logger"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the chat API and the Google consent flow over HTTP",
		Long: `Serve HTTP endpoints:
  GET  /auth          redirect to the Google consent page
  GET  /callback      store the Google token
  POST /v1/chat       {"thread_id","message"} -> {"thread_id","reply"}
  GET  /healthz, /metrics`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(envFile)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			initLogger(cfg)
			if core.ParseEnvironment(cfg.Environment).IsProduction() {
				gin.SetMode(gin.ReleaseMode)
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() {
				if err := a.close(); err != nil {
					logx.Warn().Err(err).Msg("Failed to close conversation store")
				}
			}()

			if !a.creds.Connected() {
				logx.Warn().Str("addr", cfg.Server.Addr).Msg("Google Calendar not connected yet; open /auth")
			}
			return server.New(cfg.Server, a.runner, a.creds, a.metrics).Run(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides SERVER_ADDR)")
	return cmd
}
