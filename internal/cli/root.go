package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	cfg    *Config
	client *Client
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cfg = DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "tworooms",
		Short: "CLI tool for the Two Rooms and a Boom API",
		Long: `tworooms drives a Two Rooms and a Boom game from the terminal.

It covers every API operation: creating and joining sessions, moving the
game through its phases, reporting hostage exchanges, reading views and
results, and following a session's event stream. The seat taken by
'session create' or 'session join' is remembered in a state file so later
commands act as that player.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.LoadState(); err != nil {
				return err
			}

			client = NewClient(cfg.ServerURL, cfg.SeatToken())
			if cfg.Verbose {
				client.SetTrace(cmd.ErrOrStderr())
			}
			return nil
		},
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfg.ServerURL, "server", cfg.ServerURL, "Server URL (env: TWOROOMS_SERVER)")
	rootCmd.PersistentFlags().StringVar(&cfg.Token, "token", cfg.Token, "Seat token, overrides the state file (env: TWOROOMS_TOKEN)")
	rootCmd.PersistentFlags().StringVar(&cfg.StateFile, "state-file", cfg.StateFile, "Seat state file path (env: TWOROOMS_STATE_FILE)")
	rootCmd.PersistentFlags().StringVarP(&cfg.Output, "output", "o", cfg.Output, "Output format: text, json")
	rootCmd.PersistentFlags().BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "Log each request to stderr")

	rootCmd.AddCommand(newSessionCmd())
	rootCmd.AddCommand(newEventsCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newHealthCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
