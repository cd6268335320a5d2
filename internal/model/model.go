package model

// Feis is one competition event instance: a calendar day of stages,
// competitions and coverage.
type Feis struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Date     string         `json:"date"` // YYYY-MM-DD
	Timeline TimelineConfig `json:"timeline"`
}

// Stage is a physical judging area. Sequence determines column order on the
// board; ties are broken by ID so layout stays stable across reloads.
type Stage struct {
	ID             string          `json:"id"`
	FeisID         string          `json:"feisId"`
	Name           string          `json:"name"`
	Color          string          `json:"color,omitempty"`
	Sequence       int             `json:"sequence"`
	CoverageBlocks []CoverageBlock `json:"coverageBlocks,omitempty"`
}

// Competition is a single danceable event. A competition is unscheduled iff
// StageID and ScheduledAt are both nil; they are only ever set or cleared
// together.
type Competition struct {
	ID              string `json:"id"`
	FeisID          string `json:"feisId"`
	Code            string `json:"code"`
	Name            string `json:"name"`
	DurationMinutes int    `json:"durationMinutes"`
	EntryCount      int    `json:"entryCount"`
	Level           string `json:"level,omitempty"`
	DanceType       string `json:"danceType,omitempty"`

	StageID       *string   `json:"stageId,omitempty"`
	ScheduledAt   *WallTime `json:"scheduledTime,omitempty"`
	AdjudicatorID *string   `json:"adjudicatorId,omitempty"`

	// HasConflicts is computed by the server on load/save; advisory only.
	HasConflicts bool `json:"hasConflicts"`
}

// Scheduled reports whether the competition holds a complete placement.
func (c Competition) Scheduled() bool {
	return c.StageID != nil && c.ScheduledAt != nil
}

// EndMinutes returns the minute-of-day at which a scheduled competition ends.
func (c Competition) EndMinutes() int {
	if c.ScheduledAt == nil {
		return 0
	}
	return c.ScheduledAt.MinutesOfDay() + c.DurationMinutes
}

// CoverageBlock assigns one adjudicator or one panel to a stage for a time
// window on one feis day. A multi-stage panel is stored as one block per
// stage sharing the same (panelId, day, start, end); display-side merging is
// the coverage resolver's job, the storage layer addresses each block
// individually (deletion included).
type CoverageBlock struct {
	ID      string `json:"id"`
	StageID string `json:"stageId"`
	Day     string `json:"day"`   // YYYY-MM-DD
	Start   string `json:"start"` // HH:MM
	End     string `json:"end"`   // HH:MM
	IsPanel bool   `json:"isPanel"`

	AdjudicatorID *string `json:"adjudicatorId,omitempty"`
	PanelID       *string `json:"panelId,omitempty"`
	Note          string  `json:"note,omitempty"`
}

// Covers reports whether minute-of-day t falls inside the block's window on
// the given day.
func (b CoverageBlock) Covers(day string, t int) bool {
	if b.Day != day {
		return false
	}
	start, err := ParseHHMM(b.Start)
	if err != nil {
		return false
	}
	end, err := ParseHHMM(b.End)
	if err != nil {
		return false
	}
	return t >= start && t < end
}

type ConflictSeverity string

const (
	SeverityWarning ConflictSeverity = "warning"
	SeverityError   ConflictSeverity = "error"
)

// Conflict is an advisory annotation computed by the server. Conflicts never
// block local edits; the client renders them and nothing more.
type Conflict struct {
	Severity ConflictSeverity `json:"severity"`
	Message  string           `json:"message"`
}

// TimelineConfig describes the visible grid: hour bounds, zoom and snap.
type TimelineConfig struct {
	StartHour          int `json:"startHour" toml:"start_hour"`
	EndHour            int `json:"endHour" toml:"end_hour"`
	PixelsPerMinute    int `json:"pixelsPerMinute" toml:"pixels_per_minute"`
	SnapQuantumMinutes int `json:"snapQuantumMinutes" toml:"snap_quantum_minutes"`
}

func DefaultTimelineConfig() TimelineConfig {
	return TimelineConfig{
		StartHour:          8,
		EndHour:            20,
		PixelsPerMinute:    2,
		SnapQuantumMinutes: 5,
	}
}

type Adjudicator struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Panel is a named group of adjudicators assigned as one unit ("ping-pong"
// judging across stages).
type Panel struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	AdjudicatorIDs []string `json:"adjudicatorIds,omitempty"`
}

// Placement is one entry of the bulk-save payload. Unscheduled competitions
// are omitted from the payload entirely, never sent as tombstones.
type Placement struct {
	CompetitionID string   `json:"competitionId"`
	StageID       string   `json:"stageId"`
	ScheduledTime WallTime `json:"scheduledTime"`
}
