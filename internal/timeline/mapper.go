// Package timeline maps wall-clock times to board coordinates and back.
// Every conversion is a pure function of the TimelineConfig; there is no
// hidden state, so mappers are cheap values that can be rebuilt on any
// config change.
package timeline

import (
	"fmt"

	"feisboard/internal/model"
)

// Zoom bounds. PixelsPerMinute outside this range is clamped, never rejected,
// so a bad config still yields a usable board.
const (
	MinPixelsPerMinute = 1
	MaxPixelsPerMinute = 8
)

type Mapper struct {
	cfg model.TimelineConfig
}

// NewMapper normalizes cfg (hour order, zoom and snap clamping) and returns a
// mapper over it.
func NewMapper(cfg model.TimelineConfig) Mapper {
	if cfg.StartHour < 0 {
		cfg.StartHour = 0
	}
	if cfg.EndHour > 24 {
		cfg.EndHour = 24
	}
	if cfg.EndHour <= cfg.StartHour {
		cfg.EndHour = cfg.StartHour + 1
	}
	if cfg.PixelsPerMinute < MinPixelsPerMinute {
		cfg.PixelsPerMinute = MinPixelsPerMinute
	}
	if cfg.PixelsPerMinute > MaxPixelsPerMinute {
		cfg.PixelsPerMinute = MaxPixelsPerMinute
	}
	if cfg.SnapQuantumMinutes < 1 {
		cfg.SnapQuantumMinutes = 1
	}
	return Mapper{cfg: cfg}
}

func (m Mapper) Config() model.TimelineConfig { return m.cfg }

// GridStartMinutes is the minute-of-day at the top of the grid.
func (m Mapper) GridStartMinutes() int { return m.cfg.StartHour * 60 }

// GridEndMinutes is the first minute-of-day past the bottom of the grid.
func (m Mapper) GridEndMinutes() int { return m.cfg.EndHour * 60 }

// ClampMinutes forces a minute-of-day into the visible range
// [startHour*60, endHour*60). Out-of-range times clamp rather than error so
// drags near the grid edge stay usable.
func (m Mapper) ClampMinutes(t int) int {
	if t < m.GridStartMinutes() {
		return m.GridStartMinutes()
	}
	if t >= m.GridEndMinutes() {
		return m.GridEndMinutes() - 1
	}
	return t
}

// TimeToOffset converts a minute-of-day to a vertical pixel offset.
func (m Mapper) TimeToOffset(t int) int {
	t = m.ClampMinutes(t)
	return (t - m.GridStartMinutes()) * m.cfg.PixelsPerMinute
}

// OffsetToTime converts a vertical pixel offset back to a minute-of-day.
// It is the exact inverse of TimeToOffset for in-range times.
func (m Mapper) OffsetToTime(px int) int {
	if px < 0 {
		px = 0
	}
	if max := m.TotalExtent() - 1; px > max {
		px = max
	}
	return m.GridStartMinutes() + px/m.cfg.PixelsPerMinute
}

// Snap rounds a minute value to the nearest multiple of the snap quantum,
// round-half-up.
func (m Mapper) Snap(minutes int) int {
	if minutes < 0 {
		minutes = 0
	}
	q := m.cfg.SnapQuantumMinutes
	return (2*minutes + q) / (2 * q) * q
}

// SnapOffset resolves a pixel offset to its snapped minute-of-day, clamped
// back into the visible range (snapping the last minute can round up past
// the grid end).
func (m Mapper) SnapOffset(px int) int {
	return m.ClampMinutes(m.Snap(m.OffsetToTime(px)))
}

// TotalExtent is the full grid height in pixels.
func (m Mapper) TotalExtent() int {
	return (m.cfg.EndHour - m.cfg.StartHour) * 60 * m.cfg.PixelsPerMinute
}

// HourLabel renders an hour in 12-hour wall-clock convention: 0 and 24 are
// "12AM", 12 is "12PM".
func HourLabel(hour int) string {
	suffix := "AM"
	h := hour % 24
	if h >= 12 {
		suffix = "PM"
	}
	h = h % 12
	if h == 0 {
		h = 12
	}
	return fmt.Sprintf("%d%s", h, suffix)
}
