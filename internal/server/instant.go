package server

import (
	"fmt"
	"sort"

	"feisboard/internal/model"
)

const fallbackDuration = 15 // minutes, when a competition has none and no category default

// busy is an occupied interval on one stage, minutes of day.
type busy struct{ start, end int }

type stageLane struct {
	stage      model.Stage
	intervals  []busy
	lunchTaken bool
}

func (l *stageLane) sortIntervals() {
	sort.Slice(l.intervals, func(i, j int) bool { return l.intervals[i].start < l.intervals[j].start })
}

// nextFit returns the earliest start ≥ from where duration minutes fit before
// any existing interval, or -1 if the day is full.
func (l *stageLane) nextFit(from, duration, dayEnd int) int {
	cursor := from
	for _, iv := range l.intervals {
		if cursor+duration <= iv.start {
			break
		}
		if iv.end > cursor {
			cursor = iv.end
		}
	}
	if cursor+duration > dayEnd {
		return -1
	}
	return cursor
}

func (l *stageLane) occupy(start, duration int) {
	l.intervals = append(l.intervals, busy{start: start, end: start + duration})
	l.sortIntervals()
}

// RunInstantScheduler produces a full proposed schedule in one call. The
// algorithm is greedy and deterministic for a given input: competitions are
// taken in level/dance/code order, merged or split against the size
// thresholds, and packed first-fit onto the stage whose day ends earliest,
// reserving a lunch break inside the configured window per stage.
//
// The returned placements cover every competition that could be placed
// (including ones already scheduled when ClearExisting is false); the report
// carries merge/split/warning notes for the organizer.
func RunInstantScheduler(feis model.Feis, stages []model.Stage, comps []model.Competition, cfg model.InstantScheduleConfig) ([]model.Placement, model.InstantScheduleReport) {
	cfg = normalizeInstantConfig(cfg)
	report := model.InstantScheduleReport{}

	dayStart, _ := model.ParseHHMM(cfg.FeisStartTime)
	dayEnd, _ := model.ParseHHMM(cfg.FeisEndTime)
	lunchStart, _ := model.ParseHHMM(cfg.LunchWindowStart)
	lunchEnd, _ := model.ParseHHMM(cfg.LunchWindowEnd)

	lanes := make([]*stageLane, 0, len(stages))
	for _, st := range sortedBySequence(stages) {
		lanes = append(lanes, &stageLane{stage: st})
	}
	if len(lanes) == 0 {
		report.UnscheduledCount = len(comps)
		report.Warnings = append(report.Warnings, "no stages to schedule onto")
		return nil, report
	}

	var placements []model.Placement
	var queue []model.Competition
	for _, c := range comps {
		if !cfg.ClearExisting && c.Scheduled() {
			// Keep the existing placement and block out its time.
			placements = append(placements, model.Placement{
				CompetitionID: c.ID,
				StageID:       *c.StageID,
				ScheduledTime: *c.ScheduledAt,
			})
			for _, l := range lanes {
				if l.stage.ID == *c.StageID {
					l.occupy(c.ScheduledAt.MinutesOfDay(), durationOf(c, cfg))
				}
			}
			continue
		}
		queue = append(queue, c)
	}

	sort.Slice(queue, func(i, j int) bool {
		a, b := queue[i], queue[j]
		if a.Level != b.Level {
			return a.Level < b.Level
		}
		if a.DanceType != b.DanceType {
			return a.DanceType < b.DanceType
		}
		return a.Code < b.Code
	})

	// Merge pass: a competition under the minimum size rides along with the
	// next one of the same level/dance when the pair stays under the maximum.
	type unit struct {
		comps    []model.Competition
		duration int
		sections int
	}
	var units []unit
	for i := 0; i < len(queue); i++ {
		c := queue[i]
		u := unit{comps: []model.Competition{c}, duration: durationOf(c, cfg), sections: 1}
		if cfg.AllowTwoYearMergeUp && c.EntryCount > 0 && c.EntryCount < cfg.MinCompSize && i+1 < len(queue) {
			next := queue[i+1]
			if next.Level == c.Level && next.DanceType == c.DanceType &&
				c.EntryCount+next.EntryCount <= cfg.MaxCompSize {
				u.comps = append(u.comps, next)
				u.duration += durationOf(next, cfg)
				report.Merges = append(report.Merges,
					fmt.Sprintf("merged %s (%d entries) up into %s", c.Code, c.EntryCount, next.Code))
				i++
			}
		}
		if first := u.comps[0]; first.EntryCount > cfg.MaxCompSize {
			u.sections = (first.EntryCount + cfg.MaxCompSize - 1) / cfg.MaxCompSize
			u.duration *= u.sections
			report.Splits = append(report.Splits,
				fmt.Sprintf("split %s (%d entries) into %d sections", first.Code, first.EntryCount, u.sections))
		}
		units = append(units, u)
	}

	for _, u := range units {
		lane, start := bestFit(lanes, u.duration, dayStart, dayEnd, lunchStart, lunchEnd, cfg.LunchDurationMinutes)
		if lane == nil {
			for _, c := range u.comps {
				report.Warnings = append(report.Warnings,
					fmt.Sprintf("could not place %s: no stage has %d free minutes", c.Code, u.duration))
				report.UnscheduledCount++
			}
			continue
		}
		lane.occupy(start, u.duration)
		offset := 0
		for _, c := range u.comps {
			placements = append(placements, model.Placement{
				CompetitionID: c.ID,
				StageID:       lane.stage.ID,
				ScheduledTime: model.NewWallTime(feis.Date, start+offset),
			})
			offset += durationOf(c, cfg)
			report.ScheduledCount++
		}
	}

	sort.Slice(placements, func(i, j int) bool { return placements[i].CompetitionID < placements[j].CompetitionID })
	return placements, report
}

// bestFit picks the lane offering the earliest start, inserting the lunch
// break first on any lane about to run into the lunch window. The break must
// fit entirely inside [lunchStart, lunchEnd]; a lane whose free time starts
// past the window goes without.
func bestFit(lanes []*stageLane, duration, dayStart, dayEnd, lunchStart, lunchEnd, lunchMinutes int) (*stageLane, int) {
	var bestLane *stageLane
	bestStart := -1
	for _, l := range lanes {
		start := l.nextFit(dayStart, duration, dayEnd)
		if start < 0 {
			continue
		}
		if !l.lunchTaken && lunchMinutes > 0 && start+duration > lunchStart {
			if at := l.nextFit(lunchStart, lunchMinutes, lunchEnd); at >= 0 {
				l.occupy(at, lunchMinutes)
				start = l.nextFit(dayStart, duration, dayEnd)
			}
			l.lunchTaken = true
			if start < 0 {
				continue
			}
		}
		if bestStart < 0 || start < bestStart {
			bestLane, bestStart = l, start
		}
	}
	return bestLane, bestStart
}

func durationOf(c model.Competition, cfg model.InstantScheduleConfig) int {
	if c.DurationMinutes > 0 {
		return c.DurationMinutes
	}
	if d, ok := cfg.DefaultDurations[c.DanceType]; ok && d > 0 {
		return d
	}
	return fallbackDuration
}

func normalizeInstantConfig(cfg model.InstantScheduleConfig) model.InstantScheduleConfig {
	def := model.DefaultInstantScheduleConfig()
	if cfg.MinCompSize <= 0 {
		cfg.MinCompSize = def.MinCompSize
	}
	if cfg.MaxCompSize <= 0 {
		cfg.MaxCompSize = def.MaxCompSize
	}
	if cfg.FeisStartTime == "" {
		cfg.FeisStartTime = def.FeisStartTime
	}
	if cfg.FeisEndTime == "" {
		cfg.FeisEndTime = def.FeisEndTime
	}
	if cfg.LunchWindowStart == "" {
		cfg.LunchWindowStart = def.LunchWindowStart
	}
	if cfg.LunchWindowEnd == "" {
		cfg.LunchWindowEnd = def.LunchWindowEnd
	}
	if cfg.LunchDurationMinutes < 0 {
		cfg.LunchDurationMinutes = 0
	}
	return cfg
}

func sortedBySequence(stages []model.Stage) []model.Stage {
	out := make([]model.Stage, len(stages))
	copy(out, stages)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Sequence != out[j].Sequence {
			return out[i].Sequence < out[j].Sequence
		}
		return out[i].ID < out[j].ID
	})
	return out
}
