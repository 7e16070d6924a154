package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var envFile string

// rootCmd represents the base command for the calendar agent
var rootCmd = &cobra.Command{
	Use:   "calendar-agent",
	Short: "Chat with your Google Calendar",
	Long: `calendar-agent lists, creates and deletes Google Calendar events from
natural-language requests.

It can run as:
  - An interactive terminal chat (default)
  - An HTTP server exposing the chat and the Google consent flow`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "calendar-agent version %s\n" .Version}}`)

	// If no subcommand is provided, run the chat command by default
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "chat")
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")

	rootCmd.AddCommand(newChatCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newResetCmd())
	rootCmd.AddCommand(newVersionCmd())
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("calendar-agent version %s\n", version)
		},
	}
}
