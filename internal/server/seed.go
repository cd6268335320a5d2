package server

import (
	"context"
	"fmt"

	"feisboard/internal/model"
)

// SeedDemo populates an empty database with a one-day demo feis: three
// stages, a roster, single-judge coverage plus one two-stage ping-pong panel,
// and a syllabus of unscheduled competitions ready for the board or the
// instant scheduler.
func SeedDemo(ctx context.Context, s *Store) (model.Feis, error) {
	feis := model.Feis{
		ID:   "feis-demo",
		Name: "Harvest Feis",
		Date: "2025-06-01",
		Timeline: model.TimelineConfig{
			StartHour: 8,
			EndHour:   20,
		},
	}
	if err := s.SaveFeis(ctx, feis); err != nil {
		return feis, err
	}

	stages := []model.Stage{
		{ID: "st-a", FeisID: feis.ID, Name: "Stage A", Color: "#2f6feb", Sequence: 0},
		{ID: "st-b", FeisID: feis.ID, Name: "Stage B", Color: "#1a7f37", Sequence: 1},
		{ID: "st-c", FeisID: feis.ID, Name: "Stage C", Color: "#bf3989", Sequence: 2},
	}
	for _, st := range stages {
		if _, err := s.InsertStage(ctx, st); err != nil {
			return feis, err
		}
	}

	adjs := []model.Adjudicator{
		{ID: "adj-1", Name: "M. Byrne"},
		{ID: "adj-2", Name: "S. Gallagher"},
		{ID: "adj-3", Name: "K. O'Shea"},
		{ID: "adj-4", Name: "D. Whelan"},
	}
	for _, a := range adjs {
		if _, err := s.InsertAdjudicator(ctx, a); err != nil {
			return feis, err
		}
	}
	if _, err := s.InsertPanel(ctx, model.Panel{
		ID: "panel-1", Name: "Championship Panel",
		AdjudicatorIDs: []string{"adj-2", "adj-3", "adj-4"},
	}); err != nil {
		return feis, err
	}

	adj1 := "adj-1"
	panel1 := "panel-1"
	blocks := []model.CoverageBlock{
		{StageID: "st-a", Day: feis.Date, Start: "08:30", End: "12:30", AdjudicatorID: &adj1},
		{StageID: "st-c", Day: feis.Date, Start: "08:30", End: "17:00", AdjudicatorID: &adj1},
		// One logical ping-pong assignment stored as a block per stage.
		{StageID: "st-a", Day: feis.Date, Start: "13:00", End: "17:00", IsPanel: true, PanelID: &panel1},
		{StageID: "st-b", Day: feis.Date, Start: "13:00", End: "17:00", IsPanel: true, PanelID: &panel1},
	}
	for _, b := range blocks {
		if _, err := s.InsertCoverage(ctx, b); err != nil {
			return feis, err
		}
	}

	type comp struct {
		code, name, level, dance string
		duration, entries        int
	}
	comps := []comp{
		{"101", "Reel U8", "Beginner", "Reel", 10, 7},
		{"102", "Reel U10", "Beginner", "Reel", 10, 3},
		{"103", "Reel U12", "Beginner", "Reel", 15, 14},
		{"104", "Light Jig U10", "Beginner", "Light Jig", 10, 9},
		{"105", "Light Jig U12", "Beginner", "Light Jig", 10, 4},
		{"201", "Slip Jig U12", "Novice", "Slip Jig", 15, 11},
		{"202", "Slip Jig U14", "Novice", "Slip Jig", 15, 8},
		{"203", "Treble Jig U14", "Novice", "Treble Jig", 20, 16},
		{"204", "Hornpipe U14", "Novice", "Hornpipe", 20, 12},
		{"301", "Prelim Champ U13", "Preliminary", "Set", 45, 18},
		{"302", "Prelim Champ U15", "Preliminary", "Set", 45, 26},
		{"401", "Open Champ U16", "Open", "Set", 60, 22},
		{"402", "Open Champ O16", "Open", "Set", 60, 31},
	}
	for i, c := range comps {
		if _, err := s.InsertCompetition(ctx, model.Competition{
			ID:              fmt.Sprintf("comp-%02d", i+1),
			FeisID:          feis.ID,
			Code:            c.code,
			Name:            c.name,
			Level:           c.level,
			DanceType:       c.dance,
			DurationMinutes: c.duration,
			EntryCount:      c.entries,
		}); err != nil {
			return feis, err
		}
	}
	return feis, nil
}
