package server

import (
	"fmt"
	"sort"

	"feisboard/internal/coverage"
	"feisboard/internal/model"
)

// ComputeConflicts derives the advisory conflict list for a schedule plus the
// per-competition flag map. Conflicts never block anything; they annotate.
//
// Rules:
//   - error: two competitions overlap on the same stage
//   - error: an adjudicator or panel covers two stages at overlapping times
//     (unless the blocks are one merged panel assignment)
//   - warning: a scheduled competition starts outside any coverage window on
//     its stage
//   - warning: a competition runs past the feis end hour
func ComputeConflicts(feis model.Feis, stages []model.Stage, comps []model.Competition) ([]model.Conflict, map[string]bool) {
	var out []model.Conflict
	flagged := map[string]bool{}

	stageByID := make(map[string]model.Stage, len(stages))
	for _, st := range stages {
		stageByID[st.ID] = st
	}

	// Same-stage overlaps.
	byStage := map[string][]model.Competition{}
	for _, c := range comps {
		if c.Scheduled() {
			byStage[*c.StageID] = append(byStage[*c.StageID], c)
		}
	}
	stageIDs := make([]string, 0, len(byStage))
	for id := range byStage {
		stageIDs = append(stageIDs, id)
	}
	sort.Strings(stageIDs)
	for _, stageID := range stageIDs {
		cs := byStage[stageID]
		sort.Slice(cs, func(i, j int) bool {
			return cs[i].ScheduledAt.MinutesOfDay() < cs[j].ScheduledAt.MinutesOfDay()
		})
		stageName := stageID
		if st, ok := stageByID[stageID]; ok {
			stageName = st.Name
		}
		for i := 0; i < len(cs); i++ {
			for j := i + 1; j < len(cs); j++ {
				a, b := cs[i], cs[j]
				if b.ScheduledAt.MinutesOfDay() >= a.EndMinutes() {
					break
				}
				out = append(out, model.Conflict{
					Severity: model.SeverityError,
					Message:  fmt.Sprintf("stage %s: %s overlaps %s at %s", stageName, b.Code, a.Code, b.ScheduledAt.Time),
				})
				flagged[a.ID] = true
				flagged[b.ID] = true
			}
		}
	}

	// Coverage gaps and end-of-day overruns.
	endOfDay := feis.Timeline.EndHour * 60
	for _, c := range comps {
		if !c.Scheduled() {
			continue
		}
		st, ok := stageByID[*c.StageID]
		if !ok {
			continue
		}
		start := c.ScheduledAt.MinutesOfDay()
		covered := false
		for _, b := range st.CoverageBlocks {
			if b.Covers(c.ScheduledAt.Date, start) {
				covered = true
				break
			}
		}
		if !covered {
			out = append(out, model.Conflict{
				Severity: model.SeverityWarning,
				Message:  fmt.Sprintf("stage %s: no judge coverage for %s at %s", st.Name, c.Code, c.ScheduledAt.Time),
			})
			flagged[c.ID] = true
		}
		if c.EndMinutes() > endOfDay {
			out = append(out, model.Conflict{
				Severity: model.SeverityWarning,
				Message:  fmt.Sprintf("%s runs past the end of the day (%s)", c.Code, model.FormatHHMM(endOfDay)),
			})
			flagged[c.ID] = true
		}
	}

	out = append(out, judgeDoubleBookings(stages)...)
	return out, flagged
}

func windowsOverlap(aStart, aEnd, bStart, bEnd int) bool {
	return aStart < bEnd && bStart < aEnd
}

// judgeDoubleBookings flags an adjudicator or panel assigned to two different
// stages at overlapping times. Blocks sharing one merge key are one logical
// ping-pong assignment and never conflict with each other.
func judgeDoubleBookings(stages []model.Stage) []model.Conflict {
	resolver := coverage.Resolve(stages)

	type slot struct {
		who        string // display label
		key        string // adjudicator or panel id
		mergeKey   coverage.MergeKey
		hasMerge   bool
		stageID    string
		day        string
		start, end int
	}
	var slots []slot
	for _, st := range stages {
		for _, b := range st.CoverageBlocks {
			start, err := model.ParseHHMM(b.Start)
			if err != nil {
				continue
			}
			end, err := model.ParseHHMM(b.End)
			if err != nil {
				continue
			}
			sl := slot{stageID: b.StageID, day: b.Day, start: start, end: end}
			switch {
			case b.IsPanel && b.PanelID != nil:
				sl.key = "panel:" + *b.PanelID
				sl.who = "panel " + *b.PanelID
				if mg, ok := resolver.MergeFor(b); ok {
					sl.mergeKey = mg.Key
					sl.hasMerge = true
				}
			case b.AdjudicatorID != nil:
				sl.key = "adj:" + *b.AdjudicatorID
				sl.who = "adjudicator " + *b.AdjudicatorID
			default:
				continue
			}
			slots = append(slots, sl)
		}
	}

	var out []model.Conflict
	seen := map[string]bool{}
	for i := 0; i < len(slots); i++ {
		for j := i + 1; j < len(slots); j++ {
			a, b := slots[i], slots[j]
			if a.key != b.key || a.day != b.day || a.stageID == b.stageID {
				continue
			}
			if a.hasMerge && b.hasMerge && a.mergeKey == b.mergeKey {
				continue // one ping-pong assignment across stages
			}
			if !windowsOverlap(a.start, a.end, b.start, b.end) {
				continue
			}
			msg := fmt.Sprintf("%s is double-booked on %s between %s and %s",
				a.who, a.day, model.FormatHHMM(max(a.start, b.start)), model.FormatHHMM(min(a.end, b.end)))
			if !seen[msg] {
				seen[msg] = true
				out = append(out, model.Conflict{Severity: model.SeverityError, Message: msg})
			}
		}
	}
	return out
}
