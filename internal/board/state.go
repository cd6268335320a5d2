// Package board owns the optimistic in-memory schedule and the interaction
// machinery around it: the drag/drop state machine and the save reconciler.
//
// The board state may diverge from the server between saves; conflicts are
// only ever sourced from the server and replaced wholesale on a successful
// save or reload.
package board

import (
	"sort"

	"feisboard/internal/model"
)

// State is the one explicit value object holding everything a board session
// knows. All derived values (geometry, merges) are pure functions of it.
type State struct {
	FeisID       string
	FeisDate     string // YYYY-MM-DD
	Stages       []model.Stage
	Competitions []model.Competition
	Conflicts    []model.Conflict
	Config       model.TimelineConfig
}

// CompetitionByID returns a pointer into Competitions, or nil.
func (s *State) CompetitionByID(id string) *model.Competition {
	for i := range s.Competitions {
		if s.Competitions[i].ID == id {
			return &s.Competitions[i]
		}
	}
	return nil
}

// StageByID returns a pointer into Stages, or nil.
func (s *State) StageByID(id string) *model.Stage {
	for i := range s.Stages {
		if s.Stages[i].ID == id {
			return &s.Stages[i]
		}
	}
	return nil
}

// SortedStages returns the stages in column order (sequence, then ID).
func (s *State) SortedStages() []model.Stage {
	out := make([]model.Stage, len(s.Stages))
	copy(out, s.Stages)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Sequence != out[j].Sequence {
			return out[i].Sequence < out[j].Sequence
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Unscheduled returns competitions without a placement, in code order.
func (s *State) Unscheduled() []model.Competition {
	out := make([]model.Competition, 0, len(s.Competitions))
	for _, c := range s.Competitions {
		if !c.Scheduled() {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// ScheduledOn returns competitions placed on a stage, ordered by start time.
func (s *State) ScheduledOn(stageID string) []model.Competition {
	out := make([]model.Competition, 0, len(s.Competitions))
	for _, c := range s.Competitions {
		if c.Scheduled() && *c.StageID == stageID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ScheduledAt.MinutesOfDay() < out[j].ScheduledAt.MinutesOfDay()
	})
	return out
}

// SetPlacement writes a complete (stage, time) pair onto a competition in the
// optimistic schedule. Both halves are always set together.
func (s *State) SetPlacement(competitionID, stageID string, at model.WallTime) bool {
	c := s.CompetitionByID(competitionID)
	if c == nil || s.StageByID(stageID) == nil {
		return false
	}
	sid := stageID
	t := at
	c.StageID = &sid
	c.ScheduledAt = &t
	return true
}

// ClearPlacement unschedules a competition: both halves of the pair are
// cleared in the same update, never one without the other.
func (s *State) ClearPlacement(competitionID string) bool {
	c := s.CompetitionByID(competitionID)
	if c == nil {
		return false
	}
	c.StageID = nil
	c.ScheduledAt = nil
	return true
}
