// Package coverage collapses duplicated multi-stage panel coverage into one
// logical assignment per (panel, day, start, end) key.
//
// The storage layer records a ping-pong panel as one CoverageBlock row per
// participating stage; for rendering exactly one of those rows (the one on
// the lowest-sequence stage) is the primary and the rest are suppressed. The
// suppressed rows still exist so the persistence layer can address them
// individually for deletion.
package coverage

import (
	"sort"

	"feisboard/internal/model"
)

// MergeKey identifies one logical multi-stage panel assignment. Blocks are
// matched by exact equality of the four parts, no time-overlap fuzzing.
type MergeKey struct {
	PanelID string
	Day     string
	Start   string
	End     string
}

// Merge is the resolved view of one logical panel assignment.
type Merge struct {
	Key MergeKey
	// ParticipatingStages holds the stages carrying a block with this key,
	// ordered by stage sequence.
	ParticipatingStages []model.Stage
	// PrimaryStageID is the lowest-sequence participating stage.
	PrimaryStageID string
	// Span is len(ParticipatingStages).
	Span int
}

// Resolver answers span/primary queries for every coverage block of one feis.
// Build it once per coverage snapshot; results are memoized per merge key.
type Resolver struct {
	merges map[MergeKey]*Merge
}

func keyOf(b model.CoverageBlock) (MergeKey, bool) {
	if !b.IsPanel || b.PanelID == nil || *b.PanelID == "" {
		return MergeKey{}, false
	}
	return MergeKey{PanelID: *b.PanelID, Day: b.Day, Start: b.Start, End: b.End}, true
}

// Resolve scans the coverage blocks attached to stages and groups the panel
// blocks by merge key.
func Resolve(stages []model.Stage) *Resolver {
	byID := make(map[string]model.Stage, len(stages))
	for _, st := range stages {
		byID[st.ID] = st
	}

	merges := map[MergeKey]*Merge{}
	for _, st := range stages {
		for _, b := range st.CoverageBlocks {
			key, ok := keyOf(b)
			if !ok {
				continue
			}
			mg := merges[key]
			if mg == nil {
				mg = &Merge{Key: key}
				merges[key] = mg
			}
			holder, ok := byID[b.StageID]
			if !ok {
				continue
			}
			mg.ParticipatingStages = append(mg.ParticipatingStages, holder)
		}
	}

	for _, mg := range merges {
		sort.Slice(mg.ParticipatingStages, func(i, j int) bool {
			a, b := mg.ParticipatingStages[i], mg.ParticipatingStages[j]
			if a.Sequence != b.Sequence {
				return a.Sequence < b.Sequence
			}
			return a.ID < b.ID
		})
		mg.Span = len(mg.ParticipatingStages)
		if mg.Span > 0 {
			mg.PrimaryStageID = mg.ParticipatingStages[0].ID
		}
	}

	return &Resolver{merges: merges}
}

// MergeFor returns the merge a panel block belongs to. Non-panel blocks (and
// panel blocks without a panel id) have no merge.
func (r *Resolver) MergeFor(b model.CoverageBlock) (Merge, bool) {
	key, ok := keyOf(b)
	if !ok {
		return Merge{}, false
	}
	mg, ok := r.merges[key]
	if !ok || mg.Span == 0 {
		return Merge{}, false
	}
	return *mg, true
}

// Span returns the column span of a block: the merge width for panel blocks,
// 1 for everything else.
func (r *Resolver) Span(b model.CoverageBlock) int {
	if mg, ok := r.MergeFor(b); ok {
		return mg.Span
	}
	return 1
}

// IsPrimary reports whether this block is the one occurrence of its logical
// assignment that should be drawn. Single-judge blocks are always primary;
// panel blocks are primary only on the lowest-sequence participating stage.
// Rendering consumers must skip non-primary blocks entirely.
func (r *Resolver) IsPrimary(b model.CoverageBlock) bool {
	mg, ok := r.MergeFor(b)
	if !ok {
		return true
	}
	return mg.PrimaryStageID == b.StageID
}

// Merges returns every resolved logical assignment, for reporting.
func (r *Resolver) Merges() []Merge {
	out := make([]Merge, 0, len(r.merges))
	for _, mg := range r.merges {
		out = append(out, *mg)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Key, out[j].Key
		if a.Day != b.Day {
			return a.Day < b.Day
		}
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		return a.PanelID < b.PanelID
	})
	return out
}
