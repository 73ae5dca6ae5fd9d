package cmd

import (
	"github.com/spf13/cobra"

	"github.com/tanay/prept/internal/app"
	"github.com/tanay/prept/internal/screen"
	"github.com/tanay/prept/internal/screens/stats"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show your practice history",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScreen(cmd, func(deps app.Deps) screen.Screen {
			return stats.New(deps.Store.EventRepo())
		})
	},
}
