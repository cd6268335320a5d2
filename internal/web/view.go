package web

import (
	"fmt"
	"html/template"
	"sort"

	"feisboard/internal/feisapi"
	"feisboard/internal/geometry"
	"feisboard/internal/model"
	"feisboard/internal/timeline"
)

// Board pixel layout. The browser gets absolute-positioned divs; all math
// happens server-side so the page needs no layout JS.
const (
	boardColumnWidth = 180
	boardGutter      = 8
	rulerWidth       = 56
)

type boardVM struct {
	FeisID    string
	FeisDate  string
	Now       string
	StreamURL string

	BoardWidth  int
	BoardHeight int

	Hours        []hourTickVM
	Columns      []columnVM
	Coverage     []coverageVM
	Competitions []competitionVM
	Unscheduled  []unscheduledVM
	Conflicts    []conflictVM

	LoadError string
}

type hourTickVM struct {
	Label string
	Top   int
}

type columnVM struct {
	Name string
	Left int
}

type coverageVM struct {
	Label  string
	Window string
	Span   int
	Note   template.HTML
	Rect   geometry.Rect
}

type competitionVM struct {
	Code        string
	Name        string
	Time        string
	Meta        string
	HasConflict bool
	Rect        geometry.Rect
}

type unscheduledVM struct {
	Code string
	Name string
	Meta string
}

type conflictVM struct {
	Severity string
	Message  string
}

// rosterIndex maps adjudicator and panel IDs to display names. Lookups fall
// back to the raw ID so a stale roster never blanks a label.
type rosterIndex struct {
	adjudicators map[string]string
	panels       map[string]string
}

func newRosterIndex(adjs []model.Adjudicator, panels []model.Panel) rosterIndex {
	idx := rosterIndex{
		adjudicators: make(map[string]string, len(adjs)),
		panels:       make(map[string]string, len(panels)),
	}
	for _, a := range adjs {
		idx.adjudicators[a.ID] = a.Name
	}
	for _, p := range panels {
		idx.panels[p.ID] = p.Name
	}
	return idx
}

func (ri rosterIndex) adjudicator(id string) string {
	if n, ok := ri.adjudicators[id]; ok && n != "" {
		return n
	}
	return id
}

func (ri rosterIndex) panel(id string) string {
	if n, ok := ri.panels[id]; ok && n != "" {
		return n
	}
	return id
}

func coverageLabel(b model.CoverageBlock, ri rosterIndex) string {
	switch {
	case b.PanelID != nil:
		return ri.panel(*b.PanelID)
	case b.AdjudicatorID != nil:
		return ri.adjudicator(*b.AdjudicatorID)
	default:
		return "(unassigned)"
	}
}

func buildBoardVM(feisID string, tcfg model.TimelineConfig, snap *feisapi.ScheduleSnapshot, ri rosterIndex) boardVM {
	eng := geometry.NewEngine(tcfg, snap.Stages, boardColumnWidth, boardGutter)

	vm := boardVM{
		FeisID:      feisID,
		FeisDate:    snap.FeisDate,
		BoardWidth:  len(eng.Stages()) * boardColumnWidth,
		BoardHeight: eng.Mapper().TotalExtent(),
	}

	cfg := eng.Mapper().Config()
	for h := cfg.StartHour; h <= cfg.EndHour; h++ {
		vm.Hours = append(vm.Hours, hourTickVM{
			Label: timeline.HourLabel(h),
			Top:   eng.Mapper().TimeToOffset(h * 60),
		})
	}

	for i, st := range eng.Stages() {
		vm.Columns = append(vm.Columns, columnVM{Name: st.Name, Left: i * boardColumnWidth})
	}

	for _, st := range eng.Stages() {
		for _, b := range st.CoverageBlocks {
			rect, ok := eng.CoverageRect(b)
			if !ok {
				continue
			}
			vm.Coverage = append(vm.Coverage, coverageVM{
				Label:  coverageLabel(b, ri),
				Window: b.Start + "–" + b.End,
				Span:   eng.Resolver().Span(b),
				Note:   renderCoverageNote(b.Note),
				Rect:   rect,
			})
		}
	}

	for _, c := range snap.Competitions {
		meta := fmt.Sprintf("%d dancers · %dm", c.EntryCount, c.DurationMinutes)
		rect, ok := eng.CompetitionRect(c)
		if !ok {
			if !c.Scheduled() {
				vm.Unscheduled = append(vm.Unscheduled, unscheduledVM{
					Code: c.Code,
					Name: c.Name,
					Meta: meta,
				})
			}
			continue
		}
		start := c.ScheduledAt.MinutesOfDay()
		vm.Competitions = append(vm.Competitions, competitionVM{
			Code:        c.Code,
			Name:        c.Name,
			Time:        model.FormatHHMM(start) + "–" + model.FormatHHMM(start+c.DurationMinutes),
			Meta:        meta,
			HasConflict: c.HasConflicts,
			Rect:        rect,
		})
	}
	sort.SliceStable(vm.Competitions, func(i, j int) bool {
		if vm.Competitions[i].Rect.Top != vm.Competitions[j].Rect.Top {
			return vm.Competitions[i].Rect.Top < vm.Competitions[j].Rect.Top
		}
		return vm.Competitions[i].Rect.Left < vm.Competitions[j].Rect.Left
	})
	sort.SliceStable(vm.Unscheduled, func(i, j int) bool {
		return vm.Unscheduled[i].Code < vm.Unscheduled[j].Code
	})

	for _, c := range snap.Conflicts {
		vm.Conflicts = append(vm.Conflicts, conflictVM{
			Severity: string(c.Severity),
			Message:  c.Message,
		})
	}
	return vm
}
