package tui

import (
	"fmt"
	"strconv"
	"strings"

	"feisboard/internal/model"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"
)

// Field order in the instant scheduler modal.
const (
	instantFieldMinSize = iota
	instantFieldMaxSize
	instantFieldLunchStart
	instantFieldLunchEnd
	instantFieldLunchMinutes
	instantFieldClear // checkbox, not a text input
	instantFieldCount
)

var instantFieldLabels = [...]string{
	"Min competition size",
	"Max competition size",
	"Lunch window start",
	"Lunch window end",
	"Lunch duration (minutes)",
	"Clear existing placements",
}

type instantModal struct {
	inputs [instantFieldClear]textinput.Model
	clear  bool
	focus  int
	errMsg string
}

func newInstantModal(cfg model.InstantScheduleConfig) instantModal {
	m := instantModal{}
	defaults := [...]string{
		strconv.Itoa(cfg.MinCompSize),
		strconv.Itoa(cfg.MaxCompSize),
		cfg.LunchWindowStart,
		cfg.LunchWindowEnd,
		strconv.Itoa(cfg.LunchDurationMinutes),
	}
	for i := range m.inputs {
		ti := textinput.New()
		ti.SetValue(defaults[i])
		ti.CharLimit = 8
		ti.Width = 10
		m.inputs[i] = ti
	}
	m.inputs[0].Focus()
	return m
}

func (m *instantModal) setFocus(idx int) {
	if idx < 0 {
		idx = instantFieldCount - 1
	}
	if idx >= instantFieldCount {
		idx = 0
	}
	m.focus = idx
	for i := range m.inputs {
		if i == idx {
			m.inputs[i].Focus()
		} else {
			m.inputs[i].Blur()
		}
	}
}

// update handles one key. Returns (cfg, submitted, cancelled).
func (m *instantModal) update(msg tea.KeyMsg) (model.InstantScheduleConfig, bool, bool) {
	switch msg.String() {
	case "esc", "ctrl+g":
		return model.InstantScheduleConfig{}, false, true
	case "tab", "down":
		m.setFocus(m.focus + 1)
		return model.InstantScheduleConfig{}, false, false
	case "shift+tab", "up":
		m.setFocus(m.focus - 1)
		return model.InstantScheduleConfig{}, false, false
	case " ":
		if m.focus == instantFieldClear {
			m.clear = !m.clear
			return model.InstantScheduleConfig{}, false, false
		}
	case "enter", "ctrl+s":
		if msg.String() == "enter" && m.focus < instantFieldClear {
			m.setFocus(m.focus + 1)
			return model.InstantScheduleConfig{}, false, false
		}
		cfg, err := m.config()
		if err != nil {
			m.errMsg = err.Error()
			return model.InstantScheduleConfig{}, false, false
		}
		return cfg, true, false
	}

	if m.focus < instantFieldClear {
		var cmd tea.Cmd
		m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
		_ = cmd // text inputs emit no commands we care about
	}
	return model.InstantScheduleConfig{}, false, false
}

func (m *instantModal) config() (model.InstantScheduleConfig, error) {
	cfg := model.DefaultInstantScheduleConfig()

	minSize, err := strconv.Atoi(strings.TrimSpace(m.inputs[instantFieldMinSize].Value()))
	if err != nil || minSize < 1 {
		return cfg, fmt.Errorf("min competition size must be a positive number")
	}
	maxSize, err := strconv.Atoi(strings.TrimSpace(m.inputs[instantFieldMaxSize].Value()))
	if err != nil || maxSize < minSize {
		return cfg, fmt.Errorf("max competition size must be a number ≥ min size")
	}
	lunchMin, err := strconv.Atoi(strings.TrimSpace(m.inputs[instantFieldLunchMinutes].Value()))
	if err != nil || lunchMin < 0 {
		return cfg, fmt.Errorf("lunch duration must be a non-negative number")
	}
	lunchStart := strings.TrimSpace(m.inputs[instantFieldLunchStart].Value())
	lunchEnd := strings.TrimSpace(m.inputs[instantFieldLunchEnd].Value())
	if lunchStart != "" {
		if _, err := model.ParseHHMM(lunchStart); err != nil {
			return cfg, fmt.Errorf("lunch window start: %v", err)
		}
	}
	if lunchEnd != "" {
		if _, err := model.ParseHHMM(lunchEnd); err != nil {
			return cfg, fmt.Errorf("lunch window end: %v", err)
		}
	}

	cfg.MinCompSize = minSize
	cfg.MaxCompSize = maxSize
	cfg.LunchWindowStart = lunchStart
	cfg.LunchWindowEnd = lunchEnd
	cfg.LunchDurationMinutes = lunchMin
	cfg.ClearExisting = m.clear
	return cfg, nil
}

func (m *instantModal) view(width int) string {
	bodyW := modalBodyWidth(width)

	labelStyle := lipgloss.NewStyle().Foreground(colorSurfaceFg)
	focusedLabelStyle := labelStyle.Bold(true).Foreground(colorAccent)

	var rows []string
	for i := 0; i < instantFieldClear; i++ {
		ls := labelStyle
		if i == m.focus {
			ls = focusedLabelStyle
		}
		rows = append(rows, ls.Render(instantFieldLabels[i]))
		rows = append(rows, renderInputLine(bodyW, m.inputs[i].View()))
	}

	check := "[ ]"
	if m.clear {
		check = "[x]"
	}
	ls := labelStyle
	if m.focus == instantFieldClear {
		ls = focusedLabelStyle
	}
	rows = append(rows, ls.Render(check+" "+instantFieldLabels[instantFieldClear]))

	if m.errMsg != "" {
		rows = append(rows, "", lipgloss.NewStyle().Foreground(colorError).Render(truncateText(m.errMsg, bodyW)))
	}

	rows = append(rows, "", styleMuted().Render("tab: next field   space: toggle   ctrl+s: run   esc: cancel"))

	return renderModalBox(width, "Instant schedule", strings.Join(rows, "\n"))
}

// renderInputLine renders a text input as a single visual line inside a
// modal. If the view ever contains newlines (or overflows due to ANSI/cursor
// styling), it can trigger wrapping that looks like "newline insertion"
// while typing.
func renderInputLine(bodyW int, inputView string) string {
	if bodyW < 10 {
		bodyW = 10
	}

	inputView = strings.ReplaceAll(inputView, "\n", " ")
	inputView = strings.ReplaceAll(inputView, "\r", " ")

	line := lipgloss.PlaceHorizontal(
		bodyW,
		lipgloss.Left,
		" "+inputView+" ",
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceBackground(colorInputBg),
	)
	if xansi.StringWidth(line) > bodyW {
		// Never exceed the modal body width; terminate ANSI styling to prevent bleed.
		line = xansi.Cut(line, 0, bodyW) + "\x1b[0m"
	}
	return line
}
