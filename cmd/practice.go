package cmd

import (
	"github.com/spf13/cobra"

	"github.com/tanay/prept/internal/api"
	"github.com/tanay/prept/internal/app"
	"github.com/tanay/prept/internal/screen"
	"github.com/tanay/prept/internal/screens/practice"
)

var practiceCmd = &cobra.Command{
	Use:   "practice",
	Short: "Start a practice session",
	Long: "Start a free practice session: answered questions can be\n" +
		"revisited read-only, and the session advances as you answer.",
	RunE: func(cmd *cobra.Command, args []string) error {
		resume, _ := cmd.Flags().GetString("resume")
		return runScreen(cmd, func(deps app.Deps) screen.Screen {
			return practice.New(deps.NewController(), api.KindPractice, resume)
		})
	},
}

var quizCmd = &cobra.Command{
	Use:   "quiz",
	Short: "Start a quiz",
	Long: "Start a quiz: forward-only, with feedback shown after each\n" +
		"answer before moving on.",
	RunE: func(cmd *cobra.Command, args []string) error {
		resume, _ := cmd.Flags().GetString("resume")
		return runScreen(cmd, func(deps app.Deps) screen.Screen {
			return practice.New(deps.NewController(), api.KindQuiz, resume)
		})
	},
}

func init() {
	practiceCmd.Flags().String("resume", "", "Session ID to resume")
	quizCmd.Flags().String("resume", "", "Session ID to resume")
}
