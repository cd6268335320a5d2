package tui

import (
	"fmt"
	"strings"

	"feisboard/internal/board"
	"feisboard/internal/coverage"
	"feisboard/internal/model"

	"github.com/charmbracelet/lipgloss"
)

type boardSelection struct {
	Col  int
	Item int
	// CompetitionID is the stable selected competition id (preferred over the
	// Item index for tracking focus across re-sorts and drops).
	CompetitionID string
}

type boardCol struct {
	stageID  string // "" for the unscheduled column
	label    string
	coverage []string // header summary lines, one per visible coverage block
	cards    []model.Competition
}

type scheduleBoard struct {
	cols []boardCol
}

// rosterNames resolves adjudicator/panel ids to display names for coverage
// summaries. Missing entries fall back to the raw id.
type rosterNames struct {
	Adjudicators map[string]string
	Panels       map[string]string
}

func (r rosterNames) adjudicator(id string) string {
	if n, ok := r.Adjudicators[id]; ok && n != "" {
		return n
	}
	return id
}

func (r rosterNames) panel(id string) string {
	if n, ok := r.Panels[id]; ok && n != "" {
		return n
	}
	return id
}

// buildScheduleBoard derives the column layout from the optimistic schedule:
// one "Unscheduled" column followed by one column per stage in sequence
// order. Duplicated multi-stage panel blocks collapse to a single summary on
// their primary stage.
func buildScheduleBoard(st *board.State, names rosterNames) scheduleBoard {
	stages := st.SortedStages()
	res := coverage.Resolve(st.Stages)

	cols := make([]boardCol, 0, len(stages)+1)
	cols = append(cols, boardCol{label: "Unscheduled", cards: st.Unscheduled()})

	for _, stage := range stages {
		col := boardCol{
			stageID: stage.ID,
			label:   stage.Name,
			cards:   st.ScheduledOn(stage.ID),
		}
		for _, b := range stage.CoverageBlocks {
			if b.IsPanel && !res.IsPrimary(b) {
				continue
			}
			col.coverage = append(col.coverage, coverageSummary(b, res, names))
		}
		cols = append(cols, col)
	}

	return scheduleBoard{cols: cols}
}

func coverageSummary(b model.CoverageBlock, res *coverage.Resolver, names rosterNames) string {
	window := b.Start + "–" + b.End
	if b.IsPanel && b.PanelID != nil {
		label := names.panel(*b.PanelID)
		if span := res.Span(b); span > 1 {
			return fmt.Sprintf("%s %s ⤸%d stages", label, window, span)
		}
		return label + " " + window
	}
	if b.AdjudicatorID != nil {
		return names.adjudicator(*b.AdjudicatorID) + " " + window
	}
	return "(unassigned) " + window
}

func (b scheduleBoard) indexOfCompetitionID(id string) (int, int, bool) {
	if id == "" {
		return 0, 0, false
	}
	for ci := range b.cols {
		for ii := range b.cols[ci].cards {
			if b.cols[ci].cards[ii].ID == id {
				return ci, ii, true
			}
		}
	}
	return 0, 0, false
}

func (b scheduleBoard) clamp(sel boardSelection) boardSelection {
	if len(b.cols) == 0 {
		return boardSelection{Col: 0, Item: -1}
	}

	// Prefer stable selection by id when present.
	if ci, ii, ok := b.indexOfCompetitionID(sel.CompetitionID); ok {
		sel.Col = ci
		sel.Item = ii
	} else {
		sel.CompetitionID = ""
	}

	if sel.Col < 0 {
		sel.Col = 0
	}
	if sel.Col >= len(b.cols) {
		sel.Col = len(b.cols) - 1
	}

	n := len(b.cols[sel.Col].cards)
	if n == 0 {
		sel.Item = -1
		return sel
	}
	if sel.Item < 0 {
		sel.Item = 0
	}
	if sel.Item >= n {
		sel.Item = n - 1
	}
	sel.CompetitionID = b.cols[sel.Col].cards[sel.Item].ID
	return sel
}

func (b scheduleBoard) selectedCard(sel boardSelection) (model.Competition, bool) {
	sel = b.clamp(sel)
	if len(b.cols) == 0 || sel.Item < 0 {
		return model.Competition{}, false
	}
	return b.cols[sel.Col].cards[sel.Item], true
}

// dragPreview carries what the renderer needs to show an in-flight drag:
// the picked card and, once hovering, the snapped target slot.
type dragPreview struct {
	CompetitionID string
	StageID       string
	Minutes       int
	Hovering      bool
}

func renderScheduleBoard(b scheduleBoard, sel boardSelection, drag *dragPreview, width, height int) string {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}

	n := len(b.cols)
	if n <= 0 {
		return normalizePane("", width, height)
	}
	sel = b.clamp(sel)

	gap := 2
	avail := width - gap*(n-1)
	if avail < n {
		avail = n
	}
	colW := avail / n
	if colW < 12 {
		colW = 12
	}

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(colorSurfaceFg).Background(colorControlBg)
	headerSelectedStyle := lipgloss.NewStyle().Bold(true).Foreground(colorSelectedFg).Background(colorSelectedBg)
	coverageStyle := faintIfDark(lipgloss.NewStyle().Foreground(colorCoverageFg))
	muted := styleMuted()

	// Whitespace defines the "card", not borders (which read like a
	// continuous list when stacked).
	cardStyle := lipgloss.NewStyle().Width(colW).Padding(0, 1)
	cardSelectedStyle := cardStyle.Foreground(colorSelectedFg).Background(colorSelectedBg).Bold(true)
	cardDraggedStyle := cardStyle.Foreground(colorAccent).Bold(true)
	dropStyle := lipgloss.NewStyle().Width(colW).Background(colorDropBg).Bold(true)
	innerW := colW - 2 // left+right padding
	if innerW < 0 {
		innerW = 0
	}

	renderCard := func(c model.Competition, scheduled, selected, dragged bool) string {
		var lines []string
		title := fmt.Sprintf("#%s %s", c.Code, c.Name)
		if scheduled && c.ScheduledAt != nil {
			start := c.ScheduledAt.MinutesOfDay()
			lines = append(lines, truncateText(model.FormatHHMM(start)+"–"+model.FormatHHMM(c.EndMinutes()), innerW))
		}
		lines = append(lines, truncateText(title, innerW))

		meta := fmt.Sprintf("%d dancers · %dm", c.EntryCount, c.DurationMinutes)
		if c.HasConflicts {
			meta = "⚠ " + meta
		}
		metaLine := truncateText(meta, innerW)
		if c.HasConflicts && !selected {
			metaLine = lipgloss.NewStyle().Foreground(colorWarning).Render(metaLine)
		}
		lines = append(lines, metaLine)

		inner := normalizePane(strings.Join(lines, "\n"), innerW, 0)
		switch {
		case dragged:
			return cardDraggedStyle.Render(inner)
		case selected:
			return cardSelectedStyle.Render(inner)
		default:
			return cardStyle.Render(inner)
		}
	}

	renderCol := func(colIdx int, col boardCol) string {
		head := fmt.Sprintf("%s (%d)", col.label, len(col.cards))
		head = truncateText(head, colW)
		lines := make([]string, 0, max(2, height))
		hs := headerStyle
		if colIdx == sel.Col {
			hs = headerSelectedStyle
		}
		lines = append(lines, hs.Width(colW).Render(head))

		for _, cov := range col.coverage {
			lines = append(lines, coverageStyle.Render(truncateText(" "+cov, colW)))
		}

		// The drop slot goes before the first card starting after the hover
		// minutes, so the preview lands where the card would sort.
		dropAt := -1
		if drag != nil && drag.Hovering && drag.StageID == col.stageID && col.stageID != "" {
			dropAt = len(col.cards)
			for i, c := range col.cards {
				if c.ScheduledAt != nil && c.ScheduledAt.MinutesOfDay() >= drag.Minutes {
					dropAt = i
					break
				}
			}
		}

		if len(col.cards) == 0 && dropAt < 0 {
			lines = append(lines, muted.Render("(empty)"))
			return normalizePane(strings.Join(lines, "\n"), colW, height)
		}

		lines = append(lines, "")

		emitSep := func() {
			sepW := colW - 2
			if sepW < 0 {
				sepW = 0
			}
			lines = append(lines, muted.Render(" "+strings.Repeat("─", sepW)+" "))
		}

		for i, c := range col.cards {
			if i == dropAt {
				lines = append(lines, dropStyle.Render(truncateText(" ▸ "+model.FormatHHMM(drag.Minutes)+" drop", colW)))
			}
			dragged := drag != nil && drag.CompetitionID == c.ID
			card := renderCard(c, col.stageID != "", colIdx == sel.Col && i == sel.Item, dragged)
			lines = append(lines, strings.Split(card, "\n")...)
			if i < len(col.cards)-1 {
				emitSep()
			}
		}
		if dropAt == len(col.cards) {
			lines = append(lines, dropStyle.Render(truncateText(" ▸ "+model.FormatHHMM(drag.Minutes)+" drop", colW)))
		}
		return normalizePane(strings.Join(lines, "\n"), colW, height)
	}

	rendered := make([]string, 0, n)
	for i, c := range b.cols {
		rendered = append(rendered, renderCol(i, c))
	}

	out := rendered[0]
	if len(rendered) > 1 {
		sep := strings.Repeat(" ", gap)
		for i := 1; i < len(rendered); i++ {
			out = lipgloss.JoinHorizontal(lipgloss.Top, out, sep, rendered[i])
		}
	}

	return normalizePane(out, width, height)
}
