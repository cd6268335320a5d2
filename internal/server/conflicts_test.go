package server

import (
	"strings"
	"testing"

	"feisboard/internal/model"
)

func strPtr(s string) *string { return &s }

func testFeis() model.Feis {
	return model.Feis{
		ID:   "feis-1",
		Date: "2025-06-01",
		Timeline: model.TimelineConfig{
			StartHour: 8, EndHour: 18,
			PixelsPerMinute: 2, SnapQuantumMinutes: 5,
		},
	}
}

func placed(id, code, stageID, clock string, duration int) model.Competition {
	at := model.WallTime{Date: "2025-06-01", Time: clock}
	return model.Competition{
		ID: id, Code: code, DurationMinutes: duration,
		StageID: strPtr(stageID), ScheduledAt: &at,
	}
}

func coveredStage(id string, seq int) model.Stage {
	adj := "adj-" + id
	return model.Stage{
		ID: id, Name: id, Sequence: seq,
		CoverageBlocks: []model.CoverageBlock{
			{ID: "cov-" + id, StageID: id, Day: "2025-06-01", Start: "08:00", End: "18:00", AdjudicatorID: &adj},
		},
	}
}

func hasConflict(t *testing.T, conflicts []model.Conflict, severity model.ConflictSeverity, substr string) {
	t.Helper()
	for _, c := range conflicts {
		if c.Severity == severity && strings.Contains(c.Message, substr) {
			return
		}
	}
	t.Fatalf("no %s conflict containing %q in %+v", severity, substr, conflicts)
}

func TestSameStageOverlapIsError(t *testing.T) {
	stages := []model.Stage{coveredStage("st-a", 0)}
	comps := []model.Competition{
		placed("c1", "101", "st-a", "10:00", 30),
		placed("c2", "102", "st-a", "10:15", 30),
	}
	conflicts, flagged := ComputeConflicts(testFeis(), stages, comps)
	hasConflict(t, conflicts, model.SeverityError, "102 overlaps 101")
	if !flagged["c1"] || !flagged["c2"] {
		t.Fatalf("both competitions should be flagged, got %v", flagged)
	}
}

func TestBackToBackIsNotOverlap(t *testing.T) {
	stages := []model.Stage{coveredStage("st-a", 0)}
	comps := []model.Competition{
		placed("c1", "101", "st-a", "10:00", 30),
		placed("c2", "102", "st-a", "10:30", 30),
	}
	conflicts, _ := ComputeConflicts(testFeis(), stages, comps)
	for _, c := range conflicts {
		if c.Severity == model.SeverityError {
			t.Fatalf("adjacent competitions must not conflict: %+v", c)
		}
	}
}

func TestUncoveredCompetitionIsWarning(t *testing.T) {
	stages := []model.Stage{{ID: "st-a", Name: "A", Sequence: 0}} // no coverage at all
	comps := []model.Competition{placed("c1", "101", "st-a", "10:00", 15)}

	conflicts, flagged := ComputeConflicts(testFeis(), stages, comps)
	hasConflict(t, conflicts, model.SeverityWarning, "no judge coverage for 101")
	if !flagged["c1"] {
		t.Fatal("uncovered competition should be flagged")
	}
}

func TestOverrunPastEndOfDayIsWarning(t *testing.T) {
	stages := []model.Stage{coveredStage("st-a", 0)}
	comps := []model.Competition{placed("c1", "401", "st-a", "17:30", 60)}

	conflicts, _ := ComputeConflicts(testFeis(), stages, comps)
	hasConflict(t, conflicts, model.SeverityWarning, "runs past the end of the day")
}

func TestAdjudicatorDoubleBookingIsError(t *testing.T) {
	adj := "adj-1"
	mk := func(stageID, start, end string) model.Stage {
		return model.Stage{
			ID: stageID, Name: stageID,
			CoverageBlocks: []model.CoverageBlock{
				{ID: "cov-" + stageID, StageID: stageID, Day: "2025-06-01", Start: start, End: end, AdjudicatorID: &adj},
			},
		}
	}
	stages := []model.Stage{mk("st-a", "09:00", "12:00"), mk("st-b", "11:00", "14:00")}

	conflicts, _ := ComputeConflicts(testFeis(), stages, nil)
	hasConflict(t, conflicts, model.SeverityError, "double-booked")
}

func TestMergedPanelIsNotDoubleBooked(t *testing.T) {
	panel := "P1"
	mk := func(stageID string, seq int) model.Stage {
		return model.Stage{
			ID: stageID, Name: stageID, Sequence: seq,
			CoverageBlocks: []model.CoverageBlock{
				{ID: "cov-" + stageID, StageID: stageID, Day: "2025-06-01", Start: "09:00", End: "12:00", IsPanel: true, PanelID: &panel},
			},
		}
	}
	stages := []model.Stage{mk("st-a", 0), mk("st-b", 1)}

	conflicts, _ := ComputeConflicts(testFeis(), stages, nil)
	for _, c := range conflicts {
		if strings.Contains(c.Message, "double-booked") {
			t.Fatalf("one ping-pong assignment must not read as double-booking: %+v", c)
		}
	}

	// Same panel, different windows overlapping: that IS a double booking.
	stages[1].CoverageBlocks[0].End = "12:30"
	conflicts, _ = ComputeConflicts(testFeis(), stages, nil)
	hasConflict(t, conflicts, model.SeverityError, "double-booked")
}
