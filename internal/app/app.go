// Package app wires the TUI together: it owns the dependency bundle,
// the root Bubble Tea model and the screen stack.
package app

import (
	"context"
	"fmt"
	"os"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/rs/zerolog"

	"github.com/tanay/prept/internal/api"
	"github.com/tanay/prept/internal/clock"
	"github.com/tanay/prept/internal/router"
	"github.com/tanay/prept/internal/screen"
	"github.com/tanay/prept/internal/screens/chapters"
	"github.com/tanay/prept/internal/screens/home"
	"github.com/tanay/prept/internal/screens/practice"
	"github.com/tanay/prept/internal/screens/stats"
	sess "github.com/tanay/prept/internal/session"
	"github.com/tanay/prept/internal/store"
	"github.com/tanay/prept/internal/submit"
	"github.com/tanay/prept/internal/ui/layout"
	"github.com/tanay/prept/internal/unlock"
)

// Deps is everything the screens need. One bundle is built per process
// in cmd and threaded through here.
type Deps struct {
	Client    api.Client
	Store     *store.Store
	Clock     clock.Clock
	StudentID string
	Log       zerolog.Logger
}

// NewController builds a fresh session controller. Controllers own one
// session each, so every practice run gets its own.
func (d Deps) NewController() *sess.Controller {
	return sess.NewController(
		d.Client,
		submit.New(d.Client, d.Log),
		d.Store.SessionRepo(),
		d.Store.EventRepo(),
		d.Clock,
		sess.DefaultConfig(),
		d.Log,
	)
}

// examCountdownMsg carries the header countdown once the schedule loads.
type examCountdownMsg struct {
	months int
}

// resumeCheckMsg carries the most recent saved session, if any.
type resumeCheckMsg struct {
	sessionID string
	kind      string
}

// AppModel is the root Bubble Tea model.
type AppModel struct {
	deps       Deps
	router     *router.Router
	width      int
	height     int
	examMonths int
}

// newAppModel creates an AppModel rooted at the given screen, or at the
// home screen when initial is nil.
func newAppModel(deps Deps, initial screen.Screen) AppModel {
	m := AppModel{deps: deps, examMonths: -1}
	if initial == nil {
		initial = newHomeScreen(deps)
	}
	m.router = router.New(initial)
	return m
}

// newHomeScreen builds the landing menu with its navigation wiring.
func newHomeScreen(deps Deps) screen.Screen {
	push := func(build func() screen.Screen) func() tea.Cmd {
		return func() tea.Cmd {
			return func() tea.Msg {
				return router.PushScreenMsg{Screen: build()}
			}
		}
	}

	actions := home.Actions{
		Resume: func(sessionID, kind string) tea.Cmd {
			return func() tea.Msg {
				return router.PushScreenMsg{Screen: practice.New(
					deps.NewController(), api.SessionKind(kind), sessionID)}
			}
		},
		Practice: push(func() screen.Screen {
			return practice.New(deps.NewController(), api.KindPractice, "")
		}),
		Quiz: push(func() screen.Screen {
			return practice.New(deps.NewController(), api.KindQuiz, "")
		}),
		Chapters: push(func() screen.Screen {
			return chapters.New(deps.Client, deps.StudentID, deps.Clock)
		}),
		Stats: push(func() screen.Screen {
			return stats.New(deps.Store.EventRepo())
		}),
	}

	return home.New(actions)
}

func (m AppModel) Init() tea.Cmd {
	return tea.Batch(m.loadCountdown(), m.checkResume())
}

// loadCountdown fetches the unlock schedule for the header countdown.
// Failure is cosmetic; the countdown just stays hidden.
func (m AppModel) loadCountdown() tea.Cmd {
	deps := m.deps
	return func() tea.Msg {
		st, err := deps.Client.GetUnlockState(context.Background(), deps.StudentID)
		if err != nil {
			deps.Log.Debug().Err(err).Msg("countdown unavailable")
			return examCountdownMsg{months: -1}
		}
		bonus := make(map[string]bool, len(st.BonusUnlocked))
		for _, id := range st.BonusUnlocked {
			bonus[id] = true
		}
		res := unlock.Compute(unlock.Schedule{
			StartDate:       st.StartDate,
			TargetDate:      st.TargetDate,
			CurriculumOrder: st.CurriculumOrder,
			BonusUnlocked:   bonus,
		}, deps.Clock.Now())
		return examCountdownMsg{months: res.MonthsUntilExam}
	}
}

// checkResume looks for an interrupted session to surface on the menu.
func (m AppModel) checkResume() tea.Cmd {
	deps := m.deps
	return func() tea.Msg {
		snap, err := deps.Store.SessionRepo().Latest(context.Background())
		if err != nil || snap == nil {
			return resumeCheckMsg{}
		}
		return resumeCheckMsg{sessionID: snap.SessionID, kind: snap.Kind}
	}
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case examCountdownMsg:
		m.examMonths = msg.months
		return m, nil

	case resumeCheckMsg:
		cmd := m.router.Update(home.ResumeInfoMsg{SessionID: msg.sessionID, Kind: msg.kind})
		return m, cmd

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.router.Leave()
			return m, tea.Quit
		}
	}

	cmd := m.router.Update(msg)
	return m, cmd
}

func (m AppModel) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true

	if m.width == 0 || m.height == 0 {
		return v
	}

	if layout.IsTooSmall(m.width, m.height) {
		v.SetContent(layout.RenderMinSizeMessage(m.width, m.height))
		return v
	}

	active := m.router.Active()
	title := ""
	if active != nil {
		title = active.Title()
	}

	header := layout.RenderHeader(title, m.examMonths, m.width)

	footerHints := []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Select"},
		{Key: "Ctrl+C", Description: "Quit"},
	}
	if provider, ok := active.(screen.KeyHintProvider); ok {
		if hints := provider.KeyHints(); len(hints) > 0 {
			footerHints = hints
		}
	}

	footer := layout.RenderFooter(footerHints, m.width)

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := m.height - headerHeight - footerHeight
	if contentHeight < 0 {
		contentHeight = 0
	}

	content := m.router.View(m.width, contentHeight)
	frame := layout.RenderFrame(header, content, footer, m.width, m.height)

	v.SetContent(frame)
	return v
}

// Run starts the TUI at the home screen.
func Run(deps Deps) error {
	return runModel(newAppModel(deps, nil))
}

// RunScreen starts the TUI directly on the given screen, for commands
// that jump straight into a flow.
func RunScreen(deps Deps, s screen.Screen) error {
	return runModel(newAppModel(deps, s))
}

func runModel(m AppModel) error {
	p := tea.NewProgram(m)
	if _, err := p.Run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error running program:", err)
		return err
	}
	m.router.Leave()
	return nil
}
