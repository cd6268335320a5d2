// Package geometry derives draw rectangles for coverage blocks and scheduled
// competitions. An Engine is built fresh from one schedule snapshot and does
// an O(stages × coverage blocks) scan per query; both collections are tens of
// items, so no incremental indexing is kept.
package geometry

import (
	"sort"

	"feisboard/internal/coverage"
	"feisboard/internal/model"
	"feisboard/internal/timeline"
)

// Minimum block heights keep short items visible and clickable.
const (
	MinCoverageHeight    = 10
	MinCompetitionHeight = 20
)

// Rect is a block's draw geometry in board pixels.
type Rect struct {
	Top    int
	Left   int
	Width  int
	Height int
}

type Engine struct {
	mapper   timeline.Mapper
	resolver *coverage.Resolver
	stages   []model.Stage // sorted by sequence
	colIndex map[string]int

	colWidth int
	gutter   int
}

// NewEngine lays out the given stages as columns of colWidth pixels with a
// gutter pixels gap and prepares coverage merging for the snapshot.
func NewEngine(cfg model.TimelineConfig, stages []model.Stage, colWidth, gutter int) *Engine {
	sorted := make([]model.Stage, len(stages))
	copy(sorted, stages)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Sequence != sorted[j].Sequence {
			return sorted[i].Sequence < sorted[j].Sequence
		}
		return sorted[i].ID < sorted[j].ID
	})

	colIndex := make(map[string]int, len(sorted))
	for i, st := range sorted {
		colIndex[st.ID] = i
	}
	if colWidth < 1 {
		colWidth = 1
	}
	if gutter < 0 {
		gutter = 0
	}
	return &Engine{
		mapper:   timeline.NewMapper(cfg),
		resolver: coverage.Resolve(sorted),
		stages:   sorted,
		colIndex: colIndex,
		colWidth: colWidth,
		gutter:   gutter,
	}
}

func (e *Engine) Mapper() timeline.Mapper      { return e.mapper }
func (e *Engine) Resolver() *coverage.Resolver { return e.resolver }
func (e *Engine) Stages() []model.Stage        { return e.stages }
func (e *Engine) ColumnWidth() int             { return e.colWidth }

func (e *Engine) ColumnIndex(id string) (int, bool) {
	i, ok := e.colIndex[id]
	return i, ok
}

// CoverageRect computes the rect for a coverage block. It returns false for
// suppressed (non-primary) occurrences, unknown stages and malformed windows;
// such blocks are not drawn at all.
func (e *Engine) CoverageRect(b model.CoverageBlock) (Rect, bool) {
	if !e.resolver.IsPrimary(b) {
		return Rect{}, false
	}
	col, ok := e.colIndex[b.StageID]
	if !ok {
		return Rect{}, false
	}
	start, err := model.ParseHHMM(b.Start)
	if err != nil {
		return Rect{}, false
	}
	end, err := model.ParseHHMM(b.End)
	if err != nil || end <= start {
		return Rect{}, false
	}

	ppm := e.mapper.Config().PixelsPerMinute
	top := (start - e.mapper.GridStartMinutes()) * ppm
	if top < 0 {
		top = 0
	}
	height := (end - start) * ppm
	if height < MinCoverageHeight {
		height = MinCoverageHeight
	}

	span := e.resolver.Span(b)
	return Rect{
		Top:    top,
		Left:   col * e.colWidth,
		Width:  span*e.colWidth - e.gutter,
		Height: height,
	}, true
}

// CompetitionRect computes the rect for a scheduled competition. When the
// competition's (stage, time) falls inside an active merged-panel window, the
// rect floats over all participating columns anchored at the panel's primary
// stage; otherwise it occupies its own stage column at single width.
//
// Competitions that are unscheduled, or that reference a stage this snapshot
// does not know, render nowhere (the competition itself is left untouched).
func (e *Engine) CompetitionRect(c model.Competition) (Rect, bool) {
	if !c.Scheduled() {
		return Rect{}, false
	}
	col, ok := e.colIndex[*c.StageID]
	if !ok {
		return Rect{}, false
	}

	minutes := c.ScheduledAt.MinutesOfDay()
	span := 1
	if mg, ok := e.panelWindowAt(*c.StageID, c.ScheduledAt.Date, minutes); ok {
		span = mg.Span
		if anchor, ok := e.colIndex[mg.PrimaryStageID]; ok {
			col = anchor
		}
	}

	ppm := e.mapper.Config().PixelsPerMinute
	height := c.DurationMinutes * ppm
	if height < MinCompetitionHeight {
		height = MinCompetitionHeight
	}
	return Rect{
		Top:    e.mapper.TimeToOffset(minutes),
		Left:   col * e.colWidth,
		Width:  span*e.colWidth - e.gutter,
		Height: height,
	}, true
}

// panelWindowAt finds the merged panel assignment (if any) active on a stage
// at minute t of the given day.
func (e *Engine) panelWindowAt(stageID, day string, t int) (coverage.Merge, bool) {
	for _, st := range e.stages {
		if st.ID != stageID {
			continue
		}
		for _, b := range st.CoverageBlocks {
			if !b.Covers(day, t) {
				continue
			}
			if mg, ok := e.resolver.MergeFor(b); ok {
				return mg, true
			}
		}
	}
	return coverage.Merge{}, false
}
