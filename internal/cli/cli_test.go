package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"feisboard/internal/feisapi"
	"feisboard/internal/model"
)

// runCLI executes the command tree against args and returns stdout.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	// Point at a nonexistent config so host configuration never leaks in.
	root.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "none.toml")}, args...))
	err := root.Execute()
	return out.String(), err
}

func fakeService(t *testing.T) *httptest.Server {
	t.Helper()
	sched := model.WallTime{Date: "2025-06-01", Time: "09:00"}
	snap := feisapi.ScheduleSnapshot{
		FeisDate: "2025-06-01",
		Stages: []model.Stage{
			{ID: "st-1", Name: "Stage 1", Sequence: 1, CoverageBlocks: []model.CoverageBlock{
				{ID: "cov-1", StageID: "st-1", Day: "2025-06-01", Start: "09:00", End: "12:00"},
			}},
		},
		Competitions: []model.Competition{
			{ID: "c1", Code: "101", Name: "U8 Reel", DurationMinutes: 20, EntryCount: 12,
				StageID: strPtr("st-1"), ScheduledAt: &sched},
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/feis/{feisID}/schedule", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(snap)
	})
	mux.HandleFunc("PUT /api/feis/{feisID}/schedule", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Placements []model.Placement `json:"placements"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"conflicts": []model.Conflict{}})
	})
	mux.HandleFunc("POST /api/feis/{feisID}/instant-schedule", func(w http.ResponseWriter, r *http.Request) {
		var cfg model.InstantScheduleConfig
		if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(model.InstantScheduleReport{ScheduledCount: 7})
	})
	mux.HandleFunc("POST /api/stages/{stageID}/coverage", func(w http.ResponseWriter, r *http.Request) {
		var req feisapi.CoverageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(model.CoverageBlock{
			ID:      "cov-new",
			StageID: r.PathValue("stageID"),
			Day:     req.Day,
			Start:   req.StartTime,
			End:     req.EndTime,
		})
	})
	mux.HandleFunc("DELETE /api/coverage/{coverageID}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("DELETE /api/stages/{stageID}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("GET /api/adjudicators", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]model.Adjudicator{{ID: "adj-1", Name: "M. Byrne"}})
	})
	mux.HandleFunc("GET /api/panels", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]model.Panel{{ID: "pan-1", Name: "Panel A"}})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func strPtr(s string) *string { return &s }

func TestScheduleShow(t *testing.T) {
	api := fakeService(t)
	out, err := runCLI(t, "--server", api.URL, "--feis", "feis-1", "schedule", "show")
	if err != nil {
		t.Fatalf("schedule show: %v\n%s", err, out)
	}
	if !strings.Contains(out, "U8 Reel") || !strings.Contains(out, "2025-06-01") {
		t.Fatalf("unexpected output: %s", out)
	}
}

func TestScheduleShowRequiresFeis(t *testing.T) {
	api := fakeService(t)
	_, err := runCLI(t, "--server", api.URL, "schedule", "show")
	if err == nil || !strings.Contains(err.Error(), "no feis selected") {
		t.Fatalf("err = %v", err)
	}
}

func TestScheduleSaveFromStdin(t *testing.T) {
	api := fakeService(t)

	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(`[{"competitionId":"c1","stageId":"st-1","scheduledTime":"2025-06-01T09:30"}]`))
	root.SetArgs([]string{
		"--config", filepath.Join(t.TempDir(), "none.toml"),
		"--server", api.URL, "--feis", "feis-1",
		"schedule", "save", "--file", "-",
	})
	if err := root.Execute(); err != nil {
		t.Fatalf("schedule save: %v\n%s", err, out.String())
	}
	if !strings.Contains(out.String(), `"saved":1`) {
		t.Fatalf("unexpected output: %s", out.String())
	}
}

func TestScheduleRunFlags(t *testing.T) {
	api := fakeService(t)
	out, err := runCLI(t,
		"--server", api.URL, "--feis", "feis-1",
		"schedule", "run", "--clear", "--min-size", "4", "--max-size", "18")
	if err != nil {
		t.Fatalf("schedule run: %v\n%s", err, out)
	}
	if !strings.Contains(out, `"scheduledCount":7`) {
		t.Fatalf("unexpected output: %s", out)
	}
}

func TestScheduleRunSeedsFromConfigFile(t *testing.T) {
	var got model.InstantScheduleConfig
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/feis/{feisID}/instant-schedule", func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(model.InstantScheduleReport{ScheduledCount: 1})
	})
	api := httptest.NewServer(mux)
	t.Cleanup(api.Close)

	cfgPath := filepath.Join(t.TempDir(), "config.toml")
	cfgFile := `
[instant]
min_comp_size = 3
max_comp_size = 18
lunch_window_start = "11:30"
lunch_window_end = "13:00"
lunch_minutes = 30
`
	if err := os.WriteFile(cfgPath, []byte(cfgFile), 0o644); err != nil {
		t.Fatal(err)
	}

	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{
		"--config", cfgPath, "--server", api.URL, "--feis", "feis-1",
		"schedule", "run", "--max-size", "25",
	})
	if err := root.Execute(); err != nil {
		t.Fatalf("schedule run: %v\n%s", err, out.String())
	}

	if got.MinCompSize != 3 || got.LunchWindowStart != "11:30" || got.LunchWindowEnd != "13:00" || got.LunchDurationMinutes != 30 {
		t.Fatalf("config file knobs not applied: %+v", got)
	}
	if got.MaxCompSize != 25 {
		t.Fatalf("explicit flag should win over config, got max %d", got.MaxCompSize)
	}
}

func TestScheduleRunRejectsBadWindow(t *testing.T) {
	api := fakeService(t)
	_, err := runCLI(t,
		"--server", api.URL, "--feis", "feis-1",
		"schedule", "run", "--lunch-start", "25:99")
	if err == nil || !strings.Contains(err.Error(), "lunch-start") {
		t.Fatalf("err = %v", err)
	}
}

func TestCoverageAddPanelAcrossStages(t *testing.T) {
	api := fakeService(t)
	out, err := runCLI(t,
		"--server", api.URL,
		"coverage", "add",
		"--stage", "st-1", "--stage", "st-2",
		"--panel", "pan-1",
		"--day", "2025-06-01", "--start", "13:00", "--end", "17:00")
	if err != nil {
		t.Fatalf("coverage add: %v\n%s", err, out)
	}
	if got := strings.Count(out, `"cov-new"`); got != 2 {
		t.Fatalf("expected one block per stage, got %d in %s", got, out)
	}
}

func TestCoverageAddRejectsAmbiguousAssignee(t *testing.T) {
	api := fakeService(t)
	_, err := runCLI(t,
		"--server", api.URL,
		"coverage", "add",
		"--stage", "st-1", "--adjudicator", "adj-1", "--panel", "pan-1",
		"--day", "2025-06-01", "--start", "13:00", "--end", "17:00")
	if err == nil || !strings.Contains(err.Error(), "exactly one of") {
		t.Fatalf("err = %v", err)
	}
}

func TestCoverageAddRejectsMultiStageAdjudicator(t *testing.T) {
	api := fakeService(t)
	_, err := runCLI(t,
		"--server", api.URL,
		"coverage", "add",
		"--stage", "st-1", "--stage", "st-2", "--adjudicator", "adj-1",
		"--day", "2025-06-01", "--start", "13:00", "--end", "17:00")
	if err == nil || !strings.Contains(err.Error(), "use --panel") {
		t.Fatalf("err = %v", err)
	}
}

func TestCoverageList(t *testing.T) {
	api := fakeService(t)
	out, err := runCLI(t, "--server", api.URL, "--feis", "feis-1", "coverage", "list")
	if err != nil {
		t.Fatalf("coverage list: %v\n%s", err, out)
	}
	if !strings.Contains(out, `"cov-1"`) || !strings.Contains(out, "Stage 1") {
		t.Fatalf("unexpected output: %s", out)
	}
}

func TestCoverageRm(t *testing.T) {
	api := fakeService(t)
	out, err := runCLI(t, "--server", api.URL, "coverage", "rm", "cov-1")
	if err != nil {
		t.Fatalf("coverage rm: %v\n%s", err, out)
	}
	if !strings.Contains(out, `"deleted":"cov-1"`) {
		t.Fatalf("unexpected output: %s", out)
	}
}

func TestStagesRm(t *testing.T) {
	api := fakeService(t)
	out, err := runCLI(t, "--server", api.URL, "stages", "rm", "st-1")
	if err != nil {
		t.Fatalf("stages rm: %v\n%s", err, out)
	}
	if !strings.Contains(out, `"deleted":"st-1"`) {
		t.Fatalf("unexpected output: %s", out)
	}
}

func TestStagesRosters(t *testing.T) {
	api := fakeService(t)
	out, err := runCLI(t, "--server", api.URL, "stages", "rosters")
	if err != nil {
		t.Fatalf("stages rosters: %v\n%s", err, out)
	}
	if !strings.Contains(out, "M. Byrne") || !strings.Contains(out, "Panel A") {
		t.Fatalf("unexpected output: %s", out)
	}
}

func TestValidateInstantConfig(t *testing.T) {
	cfg := model.DefaultInstantScheduleConfig()
	if err := validateInstantConfig(cfg); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	cfg.MinCompSize = 30
	if err := validateInstantConfig(cfg); err == nil {
		t.Fatal("expected min>max to fail")
	}
}
