package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"feisboard/internal/feisapi"
	"feisboard/internal/model"
)

type Server struct {
	store  *Store
	logger *log.Logger
}

func New(store *Store, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{store: store, logger: logger}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/feis/{feisID}/schedule", s.handleGetSchedule)
	mux.HandleFunc("PUT /api/feis/{feisID}/schedule", s.handleBulkSave)
	mux.HandleFunc("POST /api/feis/{feisID}/instant-schedule", s.handleInstantSchedule)
	mux.HandleFunc("POST /api/stages/{stageID}/coverage", s.handleAddCoverage)
	mux.HandleFunc("DELETE /api/coverage/{coverageID}", s.handleDeleteCoverage)
	mux.HandleFunc("DELETE /api/stages/{stageID}", s.handleDeleteStage)
	mux.HandleFunc("GET /api/adjudicators", s.handleAdjudicators)
	mux.HandleFunc("GET /api/panels", s.handlePanels)

	return s.logRequests(mux)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("request", "method", r.Method, "path", r.URL.Path, "dur", time.Since(started))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, ErrNotFound) {
		status = http.StatusNotFound
	}
	if status >= 500 {
		s.logger.Error("request failed", "err", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) writeBadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
}

// snapshot assembles the full board state for a feis, recomputing conflicts
// and per-competition flags on every read.
func (s *Server) snapshot(ctx context.Context, feisID string) (*feisapi.ScheduleSnapshot, error) {
	feis, err := s.store.Feis(ctx, feisID)
	if err != nil {
		return nil, err
	}
	stages, err := s.store.Stages(ctx, feisID)
	if err != nil {
		return nil, err
	}
	comps, err := s.store.Competitions(ctx, feisID)
	if err != nil {
		return nil, err
	}

	conflicts, flagged := ComputeConflicts(feis, stages, comps)
	for i := range comps {
		comps[i].HasConflicts = flagged[comps[i].ID]
	}
	if conflicts == nil {
		conflicts = []model.Conflict{}
	}
	if stages == nil {
		stages = []model.Stage{}
	}
	if comps == nil {
		comps = []model.Competition{}
	}
	return &feisapi.ScheduleSnapshot{
		Stages:       stages,
		Competitions: comps,
		Conflicts:    conflicts,
		FeisDate:     feis.Date,
	}, nil
}

func (s *Server) handleGetSchedule(w http.ResponseWriter, r *http.Request) {
	snap, err := s.snapshot(r.Context(), r.PathValue("feisID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleBulkSave(w http.ResponseWriter, r *http.Request) {
	feisID := r.PathValue("feisID")
	var req struct {
		Placements []model.Placement `json:"placements"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeBadRequest(w, "invalid bulk-save payload: "+err.Error())
		return
	}
	if err := s.store.ReplaceSchedule(r.Context(), feisID, req.Placements); err != nil {
		s.writeError(w, err)
		return
	}
	snap, err := s.snapshot(r.Context(), feisID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.logger.Info("schedule replaced", "feis", feisID, "placements", len(req.Placements), "conflicts", len(snap.Conflicts))
	writeJSON(w, http.StatusOK, map[string][]model.Conflict{"conflicts": snap.Conflicts})
}

func (s *Server) handleInstantSchedule(w http.ResponseWriter, r *http.Request) {
	feisID := r.PathValue("feisID")
	var cfg model.InstantScheduleConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		s.writeBadRequest(w, "invalid scheduler config: "+err.Error())
		return
	}

	ctx := r.Context()
	feis, err := s.store.Feis(ctx, feisID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	stages, err := s.store.Stages(ctx, feisID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	comps, err := s.store.Competitions(ctx, feisID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	placements, report := RunInstantScheduler(feis, stages, comps, cfg)
	if err := s.store.ReplaceSchedule(ctx, feisID, placements); err != nil {
		s.writeError(w, err)
		return
	}
	snap, err := s.snapshot(ctx, feisID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	report.Conflicts = snap.Conflicts
	s.logger.Info("instant scheduler ran", "feis", feisID,
		"scheduled", report.ScheduledCount, "unscheduled", report.UnscheduledCount)
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleAddCoverage(w http.ResponseWriter, r *http.Request) {
	stageID := r.PathValue("stageID")
	var req feisapi.CoverageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeBadRequest(w, "invalid coverage payload: "+err.Error())
		return
	}
	if req.AdjudicatorID == nil && req.PanelID == nil {
		s.writeBadRequest(w, "coverage needs an adjudicator or a panel")
		return
	}
	if _, err := model.ParseHHMM(req.StartTime); err != nil {
		s.writeBadRequest(w, err.Error())
		return
	}
	if _, err := model.ParseHHMM(req.EndTime); err != nil {
		s.writeBadRequest(w, err.Error())
		return
	}

	blk := model.CoverageBlock{
		StageID:       stageID,
		Day:           req.Day,
		Start:         req.StartTime,
		End:           req.EndTime,
		IsPanel:       req.PanelID != nil,
		AdjudicatorID: req.AdjudicatorID,
		PanelID:       req.PanelID,
		Note:          req.Note,
	}
	blk, err := s.store.InsertCoverage(r.Context(), blk)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, blk)
}

func (s *Server) handleDeleteCoverage(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteCoverage(r.Context(), r.PathValue("coverageID")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteStage(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteStage(r.Context(), r.PathValue("stageID")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAdjudicators(w http.ResponseWriter, r *http.Request) {
	adjs, err := s.store.Adjudicators(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if adjs == nil {
		adjs = []model.Adjudicator{}
	}
	writeJSON(w, http.StatusOK, adjs)
}

func (s *Server) handlePanels(w http.ResponseWriter, r *http.Request) {
	panels, err := s.store.Panels(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if panels == nil {
		panels = []model.Panel{}
	}
	writeJSON(w, http.StatusOK, panels)
}
