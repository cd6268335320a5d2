package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// WallTime is a timezone-free local timestamp: a calendar date plus a
// minute-resolution time of day. Schedule times are wall-clock values, not
// instants; combining or comparing them never goes through time.Time, so a
// competition dropped at 10:00 displays as 10:00 no matter where the board
// is viewed from.
//
// Wire format is "YYYY-MM-DDTHH:MM" (an optional ":SS" suffix is accepted
// and dropped on parse).
type WallTime struct {
	Date string `json:"date"` // YYYY-MM-DD
	Time string `json:"time"` // HH:MM
}

// NewWallTime builds a WallTime from a date and a minute-of-day.
func NewWallTime(date string, minutesOfDay int) WallTime {
	return WallTime{Date: date, Time: FormatHHMM(minutesOfDay)}
}

// ParseWallTime parses "YYYY-MM-DDTHH:MM[:SS]". A space separator is
// tolerated since some upstream exports use it.
func ParseWallTime(s string) (WallTime, error) {
	s = strings.TrimSpace(s)
	sep := strings.IndexAny(s, "T ")
	if sep != 10 || len(s) < 16 {
		return WallTime{}, fmt.Errorf("invalid wall-clock timestamp %q", s)
	}
	date, clock := s[:10], s[11:]
	if len(clock) > 5 {
		clock = clock[:5] // drop seconds
	}
	if _, err := ParseHHMM(clock); err != nil {
		return WallTime{}, fmt.Errorf("invalid wall-clock timestamp %q: %w", s, err)
	}
	return WallTime{Date: date, Time: clock}, nil
}

func (w WallTime) String() string {
	return w.Date + "T" + w.Time
}

// MinutesOfDay returns the time component as minutes since midnight.
// A malformed time reads as 0 (callers validate on ingest).
func (w WallTime) MinutesOfDay() int {
	m, err := ParseHHMM(w.Time)
	if err != nil {
		return 0
	}
	return m
}

func (w WallTime) IsZero() bool {
	return w.Date == "" && w.Time == ""
}

func (w WallTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(w.String())
}

func (w *WallTime) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseWallTime(s)
	if err != nil {
		return err
	}
	*w = parsed
	return nil
}

// ParseHHMM converts "HH:MM" to minutes since midnight.
func ParseHHMM(s string) (int, error) {
	s = strings.TrimSpace(s)
	if len(s) != 5 || s[2] != ':' {
		return 0, fmt.Errorf("invalid clock time %q", s)
	}
	var h, m int
	if _, err := fmt.Sscanf(s, "%02d:%02d", &h, &m); err != nil {
		return 0, fmt.Errorf("invalid clock time %q", s)
	}
	if h < 0 || h > 24 || m < 0 || m > 59 {
		return 0, fmt.Errorf("clock time out of range %q", s)
	}
	return h*60 + m, nil
}

// FormatHHMM renders minutes since midnight as "HH:MM".
func FormatHHMM(minutes int) string {
	if minutes < 0 {
		minutes = 0
	}
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
