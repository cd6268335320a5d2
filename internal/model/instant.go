package model

// InstantScheduleConfig is the knob set accepted by the automatic scheduler.
// All times are wall-clock "HH:MM" strings on the feis day.
type InstantScheduleConfig struct {
	MinCompSize          int    `json:"minCompSize"`
	MaxCompSize          int    `json:"maxCompSize"`
	LunchWindowStart     string `json:"lunchWindowStart,omitempty"`
	LunchWindowEnd       string `json:"lunchWindowEnd,omitempty"`
	LunchDurationMinutes int    `json:"lunchDurationMinutes,omitempty"`
	AllowTwoYearMergeUp  bool   `json:"allowTwoYearMergeUp"`
	FeisStartTime        string `json:"feisStartTime,omitempty"`
	FeisEndTime          string `json:"feisEndTime,omitempty"`
	ClearExisting        bool   `json:"clearExisting"`

	// DefaultDurations maps a competition category (dance type) to the
	// duration in minutes assumed when the competition has none set.
	DefaultDurations map[string]int `json:"defaultDurations,omitempty"`
}

func DefaultInstantScheduleConfig() InstantScheduleConfig {
	return InstantScheduleConfig{
		MinCompSize:          5,
		MaxCompSize:          20,
		LunchWindowStart:     "12:00",
		LunchWindowEnd:       "13:30",
		LunchDurationMinutes: 45,
		FeisStartTime:        "08:30",
		FeisEndTime:          "18:00",
	}
}

// InstantScheduleReport is the optimizer's summary: counts plus the human
// readable merge/split/warning notes, and the fresh conflict list for the
// resulting schedule.
type InstantScheduleReport struct {
	ScheduledCount   int        `json:"scheduledCount"`
	UnscheduledCount int        `json:"unscheduledCount"`
	Merges           []string   `json:"merges,omitempty"`
	Splits           []string   `json:"splits,omitempty"`
	Warnings         []string   `json:"warnings,omitempty"`
	Conflicts        []Conflict `json:"conflicts,omitempty"`
}
