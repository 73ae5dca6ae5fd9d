package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/tanay/prept/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "prept",
	Short: "Exam prep in your terminal",
	Long: "Prept is a terminal client for adaptive exam practice.\n" +
		"Questions, scoring and chapter pacing come from your study plan;\n" +
		"sessions survive crashes and network loss.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHome(cmd)
	},
}

func Execute() error {
	// Missing .env is fine; real env vars still apply.
	_ = godotenv.Load()
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides PREPT_DB env var)")

	rootCmd.AddCommand(practiceCmd)
	rootCmd.AddCommand(quizCmd)
	rootCmd.AddCommand(chaptersCmd)
	rootCmd.AddCommand(unlockCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDBPath returns the database path using --db flag (highest
// priority), then PREPT_DB env var, then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	return store.DefaultDBPath()
}
