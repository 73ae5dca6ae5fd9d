package cmd

import (
	"github.com/spf13/cobra"

	"github.com/tanay/prept/internal/app"
	"github.com/tanay/prept/internal/screen"
	"github.com/tanay/prept/internal/screens/chapters"
)

var chaptersCmd = &cobra.Command{
	Use:   "chapters",
	Short: "Browse the curriculum and its unlock schedule",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScreen(cmd, func(deps app.Deps) screen.Screen {
			return chapters.New(deps.Client, deps.StudentID, deps.Clock)
		})
	},
}

var unlockCmd = &cobra.Command{
	Use:   "unlock [chapter-id]",
	Short: "Take the bonus quiz to unlock a chapter early",
	Long: "Opens the chapter list; pick a locked chapter and pass its\n" +
		"quiz to unlock it ahead of the study schedule. With a chapter ID\n" +
		"the quiz starts immediately.",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScreen(cmd, func(deps app.Deps) screen.Screen {
			if len(args) == 1 {
				return chapters.NewUnlock(deps.Client, deps.StudentID, deps.Clock, args[0])
			}
			return chapters.New(deps.Client, deps.StudentID, deps.Clock)
		})
	},
}
