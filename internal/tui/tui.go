// Package tui is the interactive schedule board: stages as columns,
// competitions as cards, keyboard-driven drag and drop with explicit save.
package tui

import (
	"feisboard/internal/feisapi"
	"feisboard/internal/model"

	tea "github.com/charmbracelet/bubbletea"
)

// Options carries the configured board defaults: the grid the board opens
// with and the knobs the instant-scheduler form is seeded from.
type Options struct {
	Timeline model.TimelineConfig
	Instant  model.InstantScheduleConfig
}

func Run(client *feisapi.Client, feisID string, opts Options) error {
	applyColorProfilePreference()
	applyThemePreference()

	m := newBoardModel(client, feisID, opts)
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
