package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tanay/prept/internal/api"
	"github.com/tanay/prept/internal/app"
	"github.com/tanay/prept/internal/clock"
	"github.com/tanay/prept/internal/logging"
	"github.com/tanay/prept/internal/screen"
	"github.com/tanay/prept/internal/store"
)

// buildDeps opens the store, validates credentials and assembles the
// dependency bundle for the TUI. The returned cleanup closes what was
// opened.
func buildDeps(cmd *cobra.Command) (app.Deps, func(), error) {
	cfg := api.ConfigFromEnv()
	if err := cfg.Validate(); err != nil {
		return app.Deps{}, nil, err
	}

	log, logCloser, err := logging.New()
	if err != nil {
		// Logging is best-effort; the app still runs.
		fmt.Fprintln(cmd.ErrOrStderr(), "Logging disabled:", err)
	}

	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return app.Deps{}, nil, fmt.Errorf("resolve DB path: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return app.Deps{}, nil, fmt.Errorf("open store: %w", err)
	}

	deps := app.Deps{
		Client:    api.New(cfg, log),
		Store:     st,
		Clock:     clock.System{},
		StudentID: cfg.StudentID,
		Log:       log,
	}

	cleanup := func() {
		st.Close()
		if logCloser != nil {
			logCloser.Close()
		}
	}
	return deps, cleanup, nil
}

// runHome launches the TUI at the home screen.
func runHome(cmd *cobra.Command) error {
	deps, cleanup, err := buildDeps(cmd)
	if err != nil {
		return err
	}
	defer cleanup()
	return app.Run(deps)
}

// runScreen launches the TUI directly on a screen built from the deps.
func runScreen(cmd *cobra.Command, build func(app.Deps) screen.Screen) error {
	deps, cleanup, err := buildDeps(cmd)
	if err != nil {
		return err
	}
	defer cleanup()
	return app.RunScreen(deps, build(deps))
}
