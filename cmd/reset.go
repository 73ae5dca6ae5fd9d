package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tanay/prept/internal/store"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete local data (saved sessions and history)",
	Long: "Deletes the local database contents: interrupted sessions and\n" +
		"practice history. Server-side progress is not touched.",
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath, err := resolveDBPath(cmd)
		if err != nil {
			return fmt.Errorf("resolve DB path: %w", err)
		}

		yes, _ := cmd.Flags().GetBool("yes")
		if !yes {
			fmt.Fprintf(cmd.OutOrStdout(), "Delete all local data in %s? [y/N] ", dbPath)
			reader := bufio.NewReader(cmd.InOrStdin())
			answer, _ := reader.ReadString('\n')
			if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(answer)), "y") {
				fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
				return nil
			}
		}

		st, err := store.Open(dbPath)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer st.Close()

		if err := st.Wipe(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Local data deleted.")
		return nil
	},
}

func init() {
	resetCmd.Flags().Bool("yes", false, "Skip the confirmation prompt")
}
