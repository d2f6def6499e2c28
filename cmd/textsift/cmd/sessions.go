package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/textsift/textsift/internal/session"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Inspect and prune session directories",
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List session directories, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}

		infos, err := session.NewManager(cfg.OutputDir).List()
		if err != nil {
			return err
		}
		if len(infos) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no sessions")
			return nil
		}
		for _, info := range infos {
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n",
				info.ModTime.Format(time.RFC3339), info.Name)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d session(s) under %s\n", len(infos), cfg.OutputDir)
		return nil
	},
}

var sessionsPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove all but the newest sessions",
	Long: `Remove session directories beyond the retention count, oldest first.
Retention only runs when asked; nothing is removed automatically.

Examples:
  textsift sessions prune
  textsift sessions prune --keep 5
  textsift sessions prune --keep 0 --dry-run`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}

		keep := cfg.Retention
		if cmd.Flags().Changed("keep") {
			keep, _ = cmd.Flags().GetInt("keep")
		}
		if keep < 0 {
			return fmt.Errorf("keep must be non-negative, got %d", keep)
		}

		manager := session.NewManager(cfg.OutputDir)

		if dryRun, _ := cmd.Flags().GetBool("dry-run"); dryRun {
			infos, err := manager.List()
			if err != nil {
				return err
			}
			if len(infos) <= keep {
				fmt.Fprintln(cmd.OutOrStdout(), "nothing to remove")
				return nil
			}
			for _, info := range infos[keep:] {
				fmt.Fprintf(cmd.OutOrStdout(), "would remove %s\n", info.Name)
			}
			return nil
		}

		removed, err := manager.EnforceRetention(keep)
		for _, path := range removed {
			fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", path)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d session(s) removed, %d kept\n", len(removed), keep)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsPruneCmd)

	sessionsPruneCmd.Flags().Int("keep", session.DefaultRetention, "sessions to keep")
	sessionsPruneCmd.Flags().Bool("dry-run", false, "show what would be removed")
}
