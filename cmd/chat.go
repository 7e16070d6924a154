package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/calendar-agent-poc/server/internal/session"
	logx "github.com/calendar-agent-poc/server/pkg/logger"
)

func newChatCmd() *cobra.Command {
	var threadID string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat with the calendar assistant",
		Long: `Start a terminal conversation. Each line is one turn; type "bye" to quit.
The Google account must be connected first (run "serve" and open /auth).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(envFile)
			if err != nil {
				return err
			}
			initLogger(cfg)

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
				color.New(color.FgYellow).Fprintf(os.Stdout,
					"Google Calendar is not connected. Run \"calendar-agent serve\" and open http://localhost%s/auth\n",
					cfg.Server.Addr)
			}
			fmt.Fprintf(os.Stdout, "Thread %s. Type %q to quit.\n", threadID, session.ExitWord)

			err = session.NewDriver(a.runner, threadID, os.Stdin, os.Stdout).Run(ctx)
			if err != nil && ctx.Err() == nil {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&threadID, "thread", "1", "conversation thread id")
	return cmd
}
