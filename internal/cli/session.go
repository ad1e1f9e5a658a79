package cli

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/mcoot/tworoomsboom/internal/api/response"
	"github.com/mcoot/tworoomsboom/internal/services/view"
)

func newSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "session",
		Aliases: []string{"s"},
		Short:   "Session commands",
	}

	cmd.AddCommand(newSessionCreateCmd())
	cmd.AddCommand(newSessionJoinCmd())
	cmd.AddCommand(newSessionGetCmd())
	cmd.AddCommand(newSessionNameCmd())
	cmd.AddCommand(newSessionViewCmd())
	cmd.AddCommand(newSessionResultCmd())
	cmd.AddCommand(newSessionEndCmd())
	cmd.AddCommand(newSessionAssignCmd())
	cmd.AddCommand(newSessionReshuffleCmd())
	cmd.AddCommand(newSessionAdvanceCmd())
	cmd.AddCommand(newSessionExchangeCmd())

	return cmd
}

func sessionPath(pin string) string {
	return "/api/v1/sessions/" + url.PathEscape(pin)
}

func newSessionCreateCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a session and take the creator's seat",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.SeatResponse
			if err := client.Post(cmd.Context(), "/api/v1/sessions", map[string]string{"name": name}, &result); err != nil {
				return err
			}
			if err := cfg.SaveState(result); err != nil {
				return fmt.Errorf("session created but seat not saved: %w", err)
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Your display name")

	return cmd
}

func newSessionJoinCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "join <pin>",
		Short: "Join a session in its waiting room",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.SeatResponse
			if err := client.Post(cmd.Context(), sessionPath(args[0])+"/players", map[string]string{"name": name}, &result); err != nil {
				return err
			}
			if err := cfg.SaveState(result); err != nil {
				return fmt.Errorf("joined but seat not saved: %w", err)
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Your display name (required)")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newSessionGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get [pin]",
		Short: "Show a session document",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pin, err := cfg.PIN(args)
			if err != nil {
				return err
			}

			var result response.Session
			if err := client.Get(cmd.Context(), sessionPath(pin), &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}

func newSessionNameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "name <new-name>",
		Short: "Change your display name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pin, key, err := seated()
			if err != nil {
				return err
			}

			var result response.Session
			path := sessionPath(pin) + "/players/" + url.PathEscape(key) + "/name"
			if err := client.Patch(cmd.Context(), path, map[string]string{"name": args[0]}, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}

func newSessionViewCmd() *cobra.Command {
	var phase, player string

	cmd := &cobra.Command{
		Use:   "view [pin]",
		Short: "Show what a player's screen shows for a phase",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pin, err := cfg.PIN(args)
			if err != nil {
				return err
			}
			if player == "" {
				if player, err = cfg.PlayerKey(); err != nil {
					return err
				}
			}

			path := sessionPath(pin) + "/players/" + url.PathEscape(player) + "/view"
			if phase != "" {
				path += "?phase=" + url.QueryEscape(phase)
			}

			var result view.View
			if err := client.Get(cmd.Context(), path, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(&result)
			return nil
		},
	}

	cmd.Flags().StringVar(&phase, "phase", "", "Phase to view (default: the current one)")
	cmd.Flags().StringVar(&player, "player", "", "Player key (default: your seat)")

	return cmd
}

func newSessionResultCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "result [pin]",
		Short: "Show the results board",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pin, err := cfg.PIN(args)
			if err != nil {
				return err
			}

			var result response.Result
			if err := client.Get(cmd.Context(), sessionPath(pin)+"/result", &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}

func newSessionEndCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "end",
		Short: "End the session for everyone (creator only)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pin, _, err := seated()
			if err != nil {
				return err
			}

			if err := client.Delete(cmd.Context(), sessionPath(pin)); err != nil {
				return err
			}
			if err := cfg.ClearState(); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).PrintMessage(fmt.Sprintf("Ended session %s", pin))
			return nil
		},
	}
}

// seated returns the remembered seat's PIN and player key
func seated() (string, string, error) {
	if cfg.SeatToken() == "" {
		return "", "", errors.New("no seat: run 'session create' or 'session join' first")
	}
	pin, err := cfg.PIN(nil)
	if err != nil {
		return "", "", err
	}
	key, err := cfg.PlayerKey()
	if err != nil {
		return "", "", err
	}
	return pin, key, nil
}
