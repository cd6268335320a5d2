package timeline

import (
	"testing"

	"feisboard/internal/model"
)

func cfg(startHour, endHour, ppm, snap int) model.TimelineConfig {
	return model.TimelineConfig{
		StartHour:          startHour,
		EndHour:            endHour,
		PixelsPerMinute:    ppm,
		SnapQuantumMinutes: snap,
	}
}

func TestTimeToOffset_Example(t *testing.T) {
	m := NewMapper(cfg(8, 20, 5, 5))
	// 10:00 with startHour=8 and 5px/min => 120 minutes * 5 = 600.
	if got := m.TimeToOffset(10 * 60); got != 600 {
		t.Fatalf("TimeToOffset(10:00) = %d, want 600", got)
	}
}

func TestOffsetRoundTrip(t *testing.T) {
	m := NewMapper(cfg(8, 20, 3, 5))
	for minute := 8 * 60; minute < 20*60; minute++ {
		if got := m.OffsetToTime(m.TimeToOffset(minute)); got != minute {
			t.Fatalf("round trip failed for minute %d: got %d", minute, got)
		}
	}
}

func TestClamping(t *testing.T) {
	m := NewMapper(cfg(8, 20, 2, 5))
	if got := m.TimeToOffset(5 * 60); got != 0 {
		t.Fatalf("pre-grid time should clamp to 0, got %d", got)
	}
	last := m.TimeToOffset(23 * 60)
	want := m.TimeToOffset(20*60 - 1)
	if last != want {
		t.Fatalf("post-grid time should clamp to last minute: got %d want %d", last, want)
	}
	if got := m.OffsetToTime(-50); got != 8*60 {
		t.Fatalf("negative offset should clamp to grid start, got %d", got)
	}
	if got := m.OffsetToTime(1 << 20); got != 20*60-1 {
		t.Fatalf("oversized offset should clamp to last minute, got %d", got)
	}
}

func TestSnapRoundHalfUp(t *testing.T) {
	m := NewMapper(cfg(8, 20, 2, 4))
	// 187/4 = 46.75 -> 47*4 = 188.
	if got := m.Snap(187); got != 188 {
		t.Fatalf("Snap(187) = %d, want 188", got)
	}
	// Exact halfway rounds up: 186/4 = 46.5 -> 188.
	if got := m.Snap(186); got != 188 {
		t.Fatalf("Snap(186) = %d, want 188", got)
	}
	if got := m.Snap(185); got != 184 {
		t.Fatalf("Snap(185) = %d, want 184", got)
	}
}

func TestSnapIdempotent(t *testing.T) {
	m := NewMapper(cfg(8, 20, 2, 7))
	for v := 0; v < 600; v++ {
		once := m.Snap(v)
		if twice := m.Snap(once); twice != once {
			t.Fatalf("snap not idempotent at %d: %d then %d", v, once, twice)
		}
	}
}

func TestTotalExtent(t *testing.T) {
	m := NewMapper(cfg(8, 20, 5, 5))
	if got := m.TotalExtent(); got != 12*60*5 {
		t.Fatalf("TotalExtent = %d, want %d", got, 12*60*5)
	}
}

func TestZoomAndHourNormalization(t *testing.T) {
	m := NewMapper(cfg(10, 9, 50, 0))
	c := m.Config()
	if c.EndHour <= c.StartHour {
		t.Fatalf("hours not normalized: %+v", c)
	}
	if c.PixelsPerMinute != MaxPixelsPerMinute {
		t.Fatalf("zoom not clamped: %d", c.PixelsPerMinute)
	}
	if c.SnapQuantumMinutes != 1 {
		t.Fatalf("snap quantum not normalized: %d", c.SnapQuantumMinutes)
	}
}

func TestHourLabel(t *testing.T) {
	cases := map[int]string{
		0:  "12AM",
		1:  "1AM",
		11: "11AM",
		12: "12PM",
		13: "1PM",
		23: "11PM",
		24: "12AM",
	}
	for hour, want := range cases {
		if got := HourLabel(hour); got != want {
			t.Fatalf("HourLabel(%d) = %q, want %q", hour, got, want)
		}
	}
}
