package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newResetCmd() *cobra.Command {
	var threadID string

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Forget a conversation thread",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(envFile)
			if err != nil {
				return err
			}
			initLogger(cfg)

			ctx := context.Background()
			convRepo, closeRepo, err := newConversationRepo(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeRepo()

			if err := convRepo.ClearHistory(ctx, threadID); err != nil {
				return fmt.Errorf("failed to clear thread %s: %w", threadID, err)
			}
			cmd.Printf("Thread %s cleared\n", threadID)
			return nil
		},
	}

	cmd.Flags().StringVar(&threadID, "thread", "1", "conversation thread id")
	return cmd
}
