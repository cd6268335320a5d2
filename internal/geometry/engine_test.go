package geometry

import (
	"testing"

	"feisboard/internal/model"
)

func strPtr(s string) *string { return &s }

func testConfig() model.TimelineConfig {
	return model.TimelineConfig{StartHour: 8, EndHour: 20, PixelsPerMinute: 5, SnapQuantumMinutes: 5}
}

func scheduled(id, stageID, date, clock string, duration int) model.Competition {
	at := model.WallTime{Date: date, Time: clock}
	return model.Competition{
		ID:              id,
		Code:            id,
		DurationMinutes: duration,
		StageID:         strPtr(stageID),
		ScheduledAt:     &at,
	}
}

func TestCompetitionRect_Example(t *testing.T) {
	stages := []model.Stage{{ID: "st-a", Sequence: 0}}
	e := NewEngine(testConfig(), stages, 100, 4)

	r, ok := e.CompetitionRect(scheduled("c1", "st-a", "2025-06-01", "10:00", 15))
	if !ok {
		t.Fatal("expected a rect")
	}
	// startHour=8, 5px/min: 10:00 -> 120 minutes -> top 600; 15 min -> 75px.
	if r.Top != 600 {
		t.Fatalf("top = %d, want 600", r.Top)
	}
	if r.Height != 75 {
		t.Fatalf("height = %d, want 75", r.Height)
	}
	if r.Left != 0 || r.Width != 96 {
		t.Fatalf("left/width = %d/%d, want 0/96", r.Left, r.Width)
	}
}

func TestCompetitionFloatsOverMergedPanel(t *testing.T) {
	a := model.Stage{ID: "st-a", Name: "A", Sequence: 0}
	b := model.Stage{ID: "st-b", Name: "B", Sequence: 1}
	mk := func(id, stageID string) model.CoverageBlock {
		return model.CoverageBlock{
			ID: id, StageID: stageID, Day: "2025-06-01",
			Start: "09:00", End: "12:00",
			IsPanel: true, PanelID: strPtr("P1"),
		}
	}
	a.CoverageBlocks = []model.CoverageBlock{mk("cov-1", "st-a")}
	b.CoverageBlocks = []model.CoverageBlock{mk("cov-2", "st-b")}

	e := NewEngine(testConfig(), []model.Stage{a, b}, 100, 4)

	// Scheduled on stage B inside the panel window: anchored at A, two wide.
	r, ok := e.CompetitionRect(scheduled("c1", "st-b", "2025-06-01", "10:00", 20))
	if !ok {
		t.Fatal("expected a rect")
	}
	if r.Left != 0 {
		t.Fatalf("left = %d, want stage A's column offset 0", r.Left)
	}
	if r.Width != 2*100-4 {
		t.Fatalf("width = %d, want two columns (%d)", r.Width, 2*100-4)
	}

	// Outside the window: back to its own single column.
	r, ok = e.CompetitionRect(scheduled("c2", "st-b", "2025-06-01", "13:00", 20))
	if !ok {
		t.Fatal("expected a rect")
	}
	if r.Left != 100 || r.Width != 96 {
		t.Fatalf("left/width = %d/%d, want 100/96", r.Left, r.Width)
	}
}

func TestCoverageRects(t *testing.T) {
	a := model.Stage{ID: "st-a", Sequence: 0}
	b := model.Stage{ID: "st-b", Sequence: 1}
	mk := func(id, stageID string) model.CoverageBlock {
		return model.CoverageBlock{
			ID: id, StageID: stageID, Day: "2025-06-01",
			Start: "09:00", End: "12:00",
			IsPanel: true, PanelID: strPtr("P1"),
		}
	}
	a.CoverageBlocks = []model.CoverageBlock{mk("cov-1", "st-a")}
	b.CoverageBlocks = []model.CoverageBlock{mk("cov-2", "st-b")}

	e := NewEngine(testConfig(), []model.Stage{a, b}, 100, 4)

	r, ok := e.CoverageRect(a.CoverageBlocks[0])
	if !ok {
		t.Fatal("primary coverage block must render")
	}
	if r.Top != 60*5 {
		t.Fatalf("top = %d, want %d", r.Top, 60*5)
	}
	if r.Height != 180*5 {
		t.Fatalf("height = %d, want %d", r.Height, 180*5)
	}
	if r.Width != 196 {
		t.Fatalf("width = %d, want 196", r.Width)
	}

	if _, ok := e.CoverageRect(b.CoverageBlocks[0]); ok {
		t.Fatal("suppressed occurrence must not render")
	}
}

func TestCoverageClampsAndMinimums(t *testing.T) {
	st := model.Stage{ID: "s1", Sequence: 0}
	early := model.CoverageBlock{
		ID: "cov-1", StageID: "s1", Day: "2025-06-01",
		Start: "07:00", End: "07:01",
		AdjudicatorID: strPtr("adj"),
	}
	st.CoverageBlocks = []model.CoverageBlock{early}
	e := NewEngine(testConfig(), []model.Stage{st}, 100, 4)

	r, ok := e.CoverageRect(early)
	if !ok {
		t.Fatal("expected a rect")
	}
	if r.Top != 0 {
		t.Fatalf("pre-grid coverage should clamp top to 0, got %d", r.Top)
	}
	if r.Height != MinCoverageHeight {
		t.Fatalf("height = %d, want minimum %d", r.Height, MinCoverageHeight)
	}
}

func TestCompetitionMinimumHeight(t *testing.T) {
	stages := []model.Stage{{ID: "s1", Sequence: 0}}
	e := NewEngine(model.TimelineConfig{StartHour: 8, EndHour: 20, PixelsPerMinute: 1, SnapQuantumMinutes: 5}, stages, 100, 4)

	r, ok := e.CompetitionRect(scheduled("c1", "s1", "2025-06-01", "09:00", 5))
	if !ok {
		t.Fatal("expected a rect")
	}
	if r.Height != MinCompetitionHeight {
		t.Fatalf("height = %d, want minimum %d", r.Height, MinCompetitionHeight)
	}
}

func TestUnknownStageRendersNowhere(t *testing.T) {
	e := NewEngine(testConfig(), []model.Stage{{ID: "s1", Sequence: 0}}, 100, 4)

	c := scheduled("c1", "ghost", "2025-06-01", "10:00", 15)
	if _, ok := e.CompetitionRect(c); ok {
		t.Fatal("competition on unknown stage must not render")
	}
	// Layout-only: the competition itself stays scheduled.
	if !c.Scheduled() {
		t.Fatal("competition must not be mutated by layout")
	}

	if _, ok := e.CompetitionRect(model.Competition{ID: "c2"}); ok {
		t.Fatal("unscheduled competition must not render")
	}
}
