package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"feisboard/internal/board"
	"feisboard/internal/feisapi"
	"feisboard/internal/model"
	"feisboard/internal/timeline"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// scheduleAPI is the slice of the data service the board needs. feisapi.Client
// implements it; tests substitute fakes.
type scheduleAPI interface {
	board.Saver
	Schedule(ctx context.Context, feisID string) (*feisapi.ScheduleSnapshot, error)
	RunInstantScheduler(ctx context.Context, feisID string, cfg model.InstantScheduleConfig) (*model.InstantScheduleReport, error)
	Adjudicators(ctx context.Context) ([]model.Adjudicator, error)
	Panels(ctx context.Context) ([]model.Panel, error)
}

type scheduleLoadedMsg struct {
	snap         *feisapi.ScheduleSnapshot
	adjudicators []model.Adjudicator
	panels       []model.Panel
	err          error
}

type saveDoneMsg struct {
	conflicts []model.Conflict
	err       error
}

type instantDoneMsg struct {
	report *model.InstantScheduleReport
	err    error
}

type boardModel struct {
	api    scheduleAPI
	feisID string

	st    *board.State
	drag  *board.DragController
	recon *board.Reconciler
	names rosterNames

	sel    boardSelection
	width  int
	height int

	loading bool
	dirty   bool
	status  string
	loadErr error

	modal  *instantModal
	report string // rendered instant-schedule report overlay, "" = hidden

	instantDefaults model.InstantScheduleConfig
}

func newBoardModel(api scheduleAPI, feisID string, opts Options) boardModel {
	cfg := opts.Timeline
	if cfg == (model.TimelineConfig{}) {
		cfg = model.DefaultTimelineConfig()
	}
	instant := opts.Instant
	if instant.MaxCompSize == 0 {
		instant = model.DefaultInstantScheduleConfig()
	}
	return boardModel{
		api:             api,
		feisID:          feisID,
		st:              &board.State{FeisID: feisID, Config: cfg},
		drag:            board.NewDragController(timeline.NewMapper(cfg)),
		recon:           board.NewReconciler(api),
		names:           rosterNames{Adjudicators: map[string]string{}, Panels: map[string]string{}},
		loading:         true,
		instantDefaults: instant,
	}
}

func (m boardModel) Init() tea.Cmd { return m.loadCmd() }

func (m boardModel) loadCmd() tea.Cmd {
	api, feisID := m.api, m.feisID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		snap, err := api.Schedule(ctx, feisID)
		if err != nil {
			return scheduleLoadedMsg{err: err}
		}
		adjs, err := api.Adjudicators(ctx)
		if err != nil {
			return scheduleLoadedMsg{err: err}
		}
		panels, err := api.Panels(ctx)
		if err != nil {
			return scheduleLoadedMsg{err: err}
		}
		return scheduleLoadedMsg{snap: snap, adjudicators: adjs, panels: panels}
	}
}

func (m boardModel) saveCmd() tea.Cmd {
	// Capture the payload synchronously: the optimistic schedule may change
	// again before the request finishes.
	recon, feisID := m.recon, m.st.FeisID
	placements := board.Placements(m.st)
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		conflicts, err := recon.SavePlacements(ctx, feisID, placements)
		return saveDoneMsg{conflicts: conflicts, err: err}
	}
}

func (m boardModel) instantCmd(cfg model.InstantScheduleConfig) tea.Cmd {
	api, feisID := m.api, m.feisID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()
		report, err := api.RunInstantScheduler(ctx, feisID, cfg)
		return instantDoneMsg{report: report, err: err}
	}
}

func (m boardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case scheduleLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.loadErr = msg.err
			return m, nil
		}
		m.loadErr = nil
		m.st.FeisDate = msg.snap.FeisDate
		m.st.Stages = msg.snap.Stages
		m.st.Competitions = msg.snap.Competitions
		m.st.Conflicts = msg.snap.Conflicts
		m.names = rosterNames{
			Adjudicators: map[string]string{},
			Panels:       map[string]string{},
		}
		for _, a := range msg.adjudicators {
			m.names.Adjudicators[a.ID] = a.Name
		}
		for _, p := range msg.panels {
			m.names.Panels[p.ID] = p.Name
		}
		m.dirty = false
		return m, nil

	case saveDoneMsg:
		if msg.err != nil {
			if errors.Is(msg.err, board.ErrSavePending) {
				m.status = "save already in flight"
			} else {
				m.status = "save failed: " + msg.err.Error()
			}
			return m, nil
		}
		m.st.Conflicts = msg.conflicts
		m.dirty = false
		m.status = fmt.Sprintf("saved (%d conflicts)", len(msg.conflicts))
		// Reload to pick up per-competition conflict flags; the server now
		// matches the optimistic schedule, so this cannot clobber edits.
		return m, m.loadCmd()

	case instantDoneMsg:
		m.loading = false
		if msg.err != nil {
			m.status = "instant schedule failed: " + msg.err.Error()
			return m, nil
		}
		m.report = renderMarkdown(instantReportMarkdown(msg.report), modalBodyWidth(m.width))
		return m, m.loadCmd()

	case tea.KeyMsg:
		return m.updateKey(msg)
	}
	return m, nil
}

func (m boardModel) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	if m.loadErr != nil {
		switch msg.String() {
		case "q", "esc":
			return m, tea.Quit
		case "r":
			m.loading = true
			m.loadErr = nil
			return m, m.loadCmd()
		}
		return m, nil
	}

	if m.report != "" {
		switch msg.String() {
		case "q", "esc", "enter":
			m.report = ""
		}
		return m, nil
	}

	if m.modal != nil {
		cfg, submitted, cancelled := m.modal.update(msg)
		if cancelled {
			m.modal = nil
			return m, nil
		}
		if submitted {
			m.modal = nil
			m.loading = true
			m.status = "running instant scheduler…"
			return m, m.instantCmd(cfg)
		}
		return m, nil
	}

	if m.drag.Phase() != board.DragIdle {
		return m.updateDragKey(msg)
	}

	bld := buildScheduleBoard(m.st, m.names)
	m.sel = bld.clamp(m.sel)

	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "h", "left":
		m.sel.Col--
		m.sel.CompetitionID = ""
		m.sel.Item = 0
	case "l", "right":
		m.sel.Col++
		m.sel.CompetitionID = ""
		m.sel.Item = 0
	case "j", "down":
		m.sel.Item++
		m.sel.CompetitionID = ""
	case "k", "up":
		m.sel.Item--
		m.sel.CompetitionID = ""
	case "g":
		m.sel.Item = 0
		m.sel.CompetitionID = ""
	case "G":
		m.sel.Item = 1 << 20
		m.sel.CompetitionID = ""
	case " ", "enter":
		if card, ok := bld.selectedCard(m.sel); ok {
			m.startDrag(card)
		}
	case "u":
		if card, ok := bld.selectedCard(m.sel); ok && card.Scheduled() {
			if m.st.ClearPlacement(card.ID) {
				m.dirty = true
				m.status = "unscheduled #" + card.Code
				m.sel.CompetitionID = card.ID
			}
		}
	case "s":
		if m.recon.Pending() {
			m.status = "save already in flight"
			return m, nil
		}
		m.status = "saving…"
		return m, m.saveCmd()
	case "r":
		m.loading = true
		return m, m.loadCmd()
	case "i":
		modal := newInstantModal(m.instantDefaults)
		m.modal = &modal
	case "+", "=":
		m.setZoom(m.st.Config.PixelsPerMinute + 1)
	case "-":
		m.setZoom(m.st.Config.PixelsPerMinute - 1)
	}

	m.sel = buildScheduleBoard(m.st, m.names).clamp(m.sel)
	return m, nil
}

// startDrag picks up a card and seeds the hover target: a scheduled card
// hovers over its own slot, an unscheduled one over the first stage at the
// start of the grid.
func (m *boardModel) startDrag(card model.Competition) {
	if !m.drag.PickUp(card.ID) {
		return
	}
	stages := m.st.SortedStages()
	if len(stages) == 0 {
		m.drag.Cancel()
		m.status = "no stages to drop onto"
		return
	}
	stageID := stages[0].ID
	minutes := m.st.Config.StartHour * 60
	if card.Scheduled() {
		stageID = *card.StageID
		minutes = card.ScheduledAt.MinutesOfDay()
	}
	m.drag.HoverMinutes(stageID, minutes)
	m.sel.CompetitionID = card.ID
}

func (m boardModel) updateDragKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	stageID, minutes, hovering := m.drag.HoverTarget()
	if !hovering {
		// Active but never hovered; any move seeds the first stage.
		stages := m.st.SortedStages()
		if len(stages) > 0 {
			stageID = stages[0].ID
			minutes = m.st.Config.StartHour * 60
		}
	}
	snap := m.st.Config.SnapQuantumMinutes
	if snap < 1 {
		snap = 1
	}

	switch msg.String() {
	case "esc", "q", "ctrl+g":
		m.drag.Cancel()
		m.status = "drag cancelled"
	case "h", "left":
		m.drag.HoverMinutes(m.adjacentStage(stageID, -1), minutes)
	case "l", "right":
		m.drag.HoverMinutes(m.adjacentStage(stageID, +1), minutes)
	case "j", "down":
		m.drag.HoverMinutes(stageID, minutes+snap)
	case "k", "up":
		m.drag.HoverMinutes(stageID, minutes-snap)
	case "J", "pgdown":
		m.drag.HoverMinutes(stageID, minutes+60)
	case "K", "pgup":
		m.drag.HoverMinutes(stageID, minutes-60)
	case " ", "enter":
		id, _ := m.drag.Dragging()
		if m.drag.Drop(m.st) {
			m.dirty = true
			m.sel.CompetitionID = id
			m.status = "dropped"
		} else {
			m.status = "drop had no target"
		}
	}
	return m, nil
}

// adjacentStage steps the hover target left/right through the column order.
func (m *boardModel) adjacentStage(stageID string, dir int) string {
	stages := m.st.SortedStages()
	if len(stages) == 0 {
		return stageID
	}
	for i, s := range stages {
		if s.ID == stageID {
			j := i + dir
			if j < 0 {
				j = 0
			}
			if j >= len(stages) {
				j = len(stages) - 1
			}
			return stages[j].ID
		}
	}
	return stages[0].ID
}

func (m *boardModel) setZoom(zoom int) {
	if zoom < 1 {
		zoom = 1
	}
	if zoom > 8 {
		zoom = 8
	}
	m.st.Config.PixelsPerMinute = zoom
	m.drag = board.NewDragController(timeline.NewMapper(m.st.Config))
	m.status = fmt.Sprintf("zoom %dx", zoom)
}

func (m boardModel) View() string {
	if m.loadErr != nil {
		body := lipgloss.NewStyle().Foreground(colorError).Render("could not load schedule: "+m.loadErr.Error()) +
			"\n\n" + styleMuted().Render("r: retry   q: quit")
		return renderModalBox(max(m.width, 40), "Feis board", body)
	}

	header := m.viewHeader()
	footer := m.viewFooter()
	conflicts := m.viewConflicts()

	if m.modal != nil {
		return strings.Join([]string{header, m.modal.view(m.width), footer}, "\n\n")
	}
	if m.report != "" {
		body := m.report + "\n\n" + styleMuted().Render("esc/enter: close")
		return strings.Join([]string{header, renderModalBox(m.width, "Instant schedule report", body), ""}, "\n\n")
	}

	bodyH := m.height - 4
	for _, s := range []string{header, conflicts, footer} {
		bodyH -= lipgloss.Height(s)
	}
	if bodyH < 8 {
		bodyH = 8
	}

	var drag *dragPreview
	if id, ok := m.drag.Dragging(); ok {
		drag = &dragPreview{CompetitionID: id}
		if stageID, minutes, hovering := m.drag.HoverTarget(); hovering {
			drag.StageID = stageID
			drag.Minutes = minutes
			drag.Hovering = true
		}
	}

	bld := buildScheduleBoard(m.st, m.names)
	body := renderScheduleBoard(bld, bld.clamp(m.sel), drag, m.width, bodyH)

	parts := []string{header, body}
	if conflicts != "" {
		parts = append(parts, conflicts)
	}
	parts = append(parts, footer)
	return strings.Join(parts, "\n\n")
}

func (m boardModel) viewHeader() string {
	state := ""
	switch {
	case m.loading:
		state = "loading…"
	case m.recon.Pending():
		state = "saving…"
	case m.dirty:
		state = "unsaved changes"
	}
	title := fmt.Sprintf("Feis board  %s  %s", m.feisID, m.st.FeisDate)
	h := lipgloss.NewStyle().Bold(true).Render(title)
	if state != "" {
		h += "  " + lipgloss.NewStyle().Foreground(colorAccent).Render("["+state+"]")
	}
	if m.status != "" {
		h += "  " + styleMuted().Render(m.status)
	}
	return h
}

func (m boardModel) viewConflicts() string {
	if len(m.st.Conflicts) == 0 {
		return ""
	}
	const maxShown = 4
	lines := make([]string, 0, maxShown+1)
	for i, c := range m.st.Conflicts {
		if i == maxShown {
			lines = append(lines, styleMuted().Render(fmt.Sprintf("… and %d more", len(m.st.Conflicts)-maxShown)))
			break
		}
		st := lipgloss.NewStyle().Foreground(colorWarning)
		mark := "△"
		if c.Severity == model.SeverityError {
			st = lipgloss.NewStyle().Foreground(colorError)
			mark = "✗"
		}
		lines = append(lines, st.Render(truncateText(mark+" "+c.Message, max(m.width, 20))))
	}
	return strings.Join(lines, "\n")
}

func (m boardModel) viewFooter() string {
	help := "hjkl: move  space: pick up  u: unschedule  s: save  i: instant  r: reload  +/-: zoom  q: quit"
	if m.drag.Phase() != board.DragIdle {
		help = "h/l: stage  j/k: time (J/K: hour)  space/enter: drop  esc: cancel"
	}
	return lipgloss.NewStyle().Faint(true).Render(help)
}

func instantReportMarkdown(r *model.InstantScheduleReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Scheduled **%d** competitions, **%d** left unscheduled.\n", r.ScheduledCount, r.UnscheduledCount)
	section := func(title string, items []string) {
		if len(items) == 0 {
			return
		}
		fmt.Fprintf(&b, "\n## %s\n\n", title)
		for _, it := range items {
			fmt.Fprintf(&b, "- %s\n", it)
		}
	}
	section("Merges", r.Merges)
	section("Splits", r.Splits)
	section("Warnings", r.Warnings)
	if len(r.Conflicts) > 0 {
		fmt.Fprintf(&b, "\n## Conflicts\n\n")
		for _, c := range r.Conflicts {
			fmt.Fprintf(&b, "- **%s**: %s\n", c.Severity, c.Message)
		}
	}
	return b.String()
}
