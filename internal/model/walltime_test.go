package model

import (
	"encoding/json"
	"testing"
)

func TestParseWallTime(t *testing.T) {
	cases := []struct {
		in      string
		want    WallTime
		wantErr bool
	}{
		{in: "2025-06-01T09:30", want: WallTime{Date: "2025-06-01", Time: "09:30"}},
		{in: "2025-06-01 09:30", want: WallTime{Date: "2025-06-01", Time: "09:30"}},
		{in: "2025-06-01T09:30:45", want: WallTime{Date: "2025-06-01", Time: "09:30"}}, // seconds dropped
		{in: "2025-06-01", wantErr: true},
		{in: "2025-06-01T9:30", wantErr: true},
		{in: "2025-06-01T25:00", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tc := range cases {
		got, err := ParseWallTime(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseWallTime(%q): expected error, got %v", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseWallTime(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseWallTime(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestWallTimeJSONRoundTrip(t *testing.T) {
	w := NewWallTime("2025-06-01", 9*60+5)
	b, err := json.Marshal(w)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `"2025-06-01T09:05"` {
		t.Fatalf("marshalled as %s", b)
	}
	var back WallTime
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatal(err)
	}
	if back != w {
		t.Fatalf("round trip %v != %v", back, w)
	}
}

func TestWallTimeUnmarshalRejectsGarbage(t *testing.T) {
	var w WallTime
	if err := json.Unmarshal([]byte(`"not a time"`), &w); err == nil {
		t.Fatal("expected error")
	}
}

func TestParseHHMM(t *testing.T) {
	for in, want := range map[string]int{
		"00:00": 0,
		"08:30": 510,
		"23:59": 1439,
	} {
		got, err := ParseHHMM(in)
		if err != nil || got != want {
			t.Errorf("ParseHHMM(%q) = %d, %v; want %d", in, got, err, want)
		}
	}
	for _, in := range []string{"8:30", "0830", "12:60", "25:00", ""} {
		if _, err := ParseHHMM(in); err == nil {
			t.Errorf("ParseHHMM(%q): expected error", in)
		}
	}
}

func TestCompetitionScheduledInvariant(t *testing.T) {
	var c Competition
	if c.Scheduled() {
		t.Fatal("zero competition must be unscheduled")
	}
	st := "st-1"
	c.StageID = &st
	if c.Scheduled() {
		t.Fatal("stage without time is not a complete placement")
	}
	at := NewWallTime("2025-06-01", 600)
	c.ScheduledAt = &at
	c.DurationMinutes = 20
	if !c.Scheduled() || c.EndMinutes() != 620 {
		t.Fatalf("scheduled=%v end=%d", c.Scheduled(), c.EndMinutes())
	}
}

func TestCoverageBlockCovers(t *testing.T) {
	b := CoverageBlock{Day: "2025-06-01", Start: "09:00", End: "12:00"}
	if !b.Covers("2025-06-01", 540) || !b.Covers("2025-06-01", 719) {
		t.Fatal("window interior should be covered")
	}
	if b.Covers("2025-06-01", 720) {
		t.Fatal("end is exclusive")
	}
	if b.Covers("2025-06-02", 600) {
		t.Fatal("other day should not be covered")
	}
}
