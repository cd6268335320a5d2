// Package feisapi is the typed HTTP client for the scheduler data service.
// Every request and response crosses the wire as an explicit struct; schedule
// times travel as local wall-clock strings (never UTC-normalized instants),
// so a schedule displays identically in every timezone.
package feisapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"feisboard/internal/model"
)

// ScheduleSnapshot is the full board state for one feis as the server sees
// it: stages carry their coverage blocks, competitions carry server-computed
// conflict flags, and the conflict list is the authoritative one.
type ScheduleSnapshot struct {
	Stages       []model.Stage       `json:"stages"`
	Competitions []model.Competition `json:"competitions"`
	Conflicts    []model.Conflict    `json:"conflicts"`
	FeisDate     string              `json:"feisDate"`
}

// CoverageRequest creates one coverage block on one stage. Multi-stage panel
// assignments are created by posting the same window once per stage.
type CoverageRequest struct {
	AdjudicatorID *string `json:"adjudicatorId,omitempty"`
	PanelID       *string `json:"panelId,omitempty"`
	Day           string  `json:"day"`
	StartTime     string  `json:"startTime"`
	EndTime       string  `json:"endTime"`
	Note          string  `json:"note,omitempty"`
}

type bulkSaveRequest struct {
	Placements []model.Placement `json:"placements"`
}

type bulkSaveResponse struct {
	Conflicts []model.Conflict `json:"conflicts"`
}

// StatusError is a non-2xx response from the data service.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("feis api: unexpected status %d", e.Status)
	}
	return fmt.Sprintf("feis api: %s (status %d)", e.Message, e.Status)
}

type Client struct {
	baseURL string
	httpc   *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Error string `json:"error"`
		}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		_ = json.Unmarshal(raw, &apiErr)
		msg := apiErr.Error
		if msg == "" {
			msg = strings.TrimSpace(string(raw))
		}
		return &StatusError{Status: resp.StatusCode, Message: msg}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// Schedule fetches the current schedule snapshot for a feis.
func (c *Client) Schedule(ctx context.Context, feisID string) (*ScheduleSnapshot, error) {
	var snap ScheduleSnapshot
	if err := c.do(ctx, http.MethodGet, "/api/feis/"+feisID+"/schedule", nil, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// BulkSave atomically replaces the feis schedule with the given placements
// and returns the server's fresh conflict list. Implements board.Saver.
func (c *Client) BulkSave(ctx context.Context, feisID string, placements []model.Placement) ([]model.Conflict, error) {
	if placements == nil {
		placements = []model.Placement{}
	}
	var resp bulkSaveResponse
	err := c.do(ctx, http.MethodPut, "/api/feis/"+feisID+"/schedule", bulkSaveRequest{Placements: placements}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.Conflicts, nil
}

// AddCoverage creates a coverage block on a stage.
func (c *Client) AddCoverage(ctx context.Context, stageID string, req CoverageRequest) (*model.CoverageBlock, error) {
	var blk model.CoverageBlock
	if err := c.do(ctx, http.MethodPost, "/api/stages/"+stageID+"/coverage", req, &blk); err != nil {
		return nil, err
	}
	return &blk, nil
}

// DeleteCoverage removes one stored coverage block. Deleting a suppressed
// occurrence of a merged panel only detaches that stage from the assignment.
func (c *Client) DeleteCoverage(ctx context.Context, coverageID string) error {
	return c.do(ctx, http.MethodDelete, "/api/coverage/"+coverageID, nil, nil)
}

// DeleteStage removes a stage. Its competitions become unscheduled
// server-side; they are never deleted with the stage.
func (c *Client) DeleteStage(ctx context.Context, stageID string) error {
	return c.do(ctx, http.MethodDelete, "/api/stages/"+stageID, nil, nil)
}

// RunInstantScheduler invokes the automatic scheduler and returns its report.
// The proposed schedule is persisted server-side; callers refetch the
// snapshot to see the placements.
func (c *Client) RunInstantScheduler(ctx context.Context, feisID string, cfg model.InstantScheduleConfig) (*model.InstantScheduleReport, error) {
	var report model.InstantScheduleReport
	if err := c.do(ctx, http.MethodPost, "/api/feis/"+feisID+"/instant-schedule", cfg, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// Adjudicators lists the roster available for coverage assignment.
func (c *Client) Adjudicators(ctx context.Context) ([]model.Adjudicator, error) {
	var out []model.Adjudicator
	if err := c.do(ctx, http.MethodGet, "/api/adjudicators", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Panels lists the judge panels available for coverage assignment.
func (c *Client) Panels(ctx context.Context) ([]model.Panel, error) {
	var out []model.Panel
	if err := c.do(ctx, http.MethodGet, "/api/panels", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
