package cli

import (
	"github.com/spf13/cobra"

	"github.com/mcoot/tworoomsboom/internal/api/response"
)

func newSessionAssignCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "assign",
		Short: "Deal teams, roles and rooms (creator only)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return seatedPost(cmd, "/assign", nil)
		},
	}
}

func newSessionReshuffleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reshuffle",
		Short: "Deal again during preparation (creator only)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return seatedPost(cmd, "/reshuffle", nil)
		},
	}
}

func newSessionAdvanceCmd() *cobra.Command {
	var expected string

	cmd := &cobra.Command{
		Use:   "advance",
		Short: "Move the game to its next phase (creator only)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var body any
			if expected != "" {
				body = map[string]string{"expected": expected}
			}
			return seatedPost(cmd, "/advance", body)
		},
	}

	cmd.Flags().StringVar(&expected, "expected", "", "Only advance if the session is still in this status")

	return cmd
}

func newSessionExchangeCmd() *cobra.Command {
	var round int
	var traded bool

	cmd := &cobra.Command{
		Use:   "exchange",
		Short: "Report whether you were traded this round",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return seatedPost(cmd, "/exchange", map[string]any{"round": round, "traded": traded})
		},
	}

	cmd.Flags().IntVar(&round, "round", 0, "Round number, 1 to 3 (required)")
	cmd.Flags().BoolVar(&traded, "traded", false, "You were sent to the other room")
	_ = cmd.MarkFlagRequired("round")

	return cmd
}

func seatedPost(cmd *cobra.Command, action string, body any) error {
	pin, _, err := seated()
	if err != nil {
		return err
	}

	var result response.Session
	if err := client.Post(cmd.Context(), sessionPath(pin)+action, body, &result); err != nil {
		return err
	}

	NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
	return nil
}
