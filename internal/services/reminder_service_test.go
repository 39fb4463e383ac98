package services

import (
	"testing"
	"time"
)

func TestNextRun(t *testing.T) {
	// Fixed reference: 2026-03-10 10:30 UTC.
	from := time.Date(2026, 3, 10, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		name      string
		clockTime string
		want      time.Time
	}{
		{
			name:      "later today",
			clockTime: "18:00",
			want:      time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC),
		},
		{
			name:      "already passed rolls to tomorrow",
			clockTime: "09:00",
			want:      time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC),
		},
		{
			name:      "midnight",
			clockTime: "00:00",
			want:      time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "exact current minute fires next day",
			clockTime: "10:30",
			want:      time.Date(2026, 3, 11, 10, 30, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NextRun(tt.clockTime, from)
			if err != nil {
				t.Fatalf("NextRun(%q) error: %v", tt.clockTime, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("NextRun(%q) = %v, want %v", tt.clockTime, got, tt.want)
			}
		})
	}
}

func TestNextDose(t *testing.T) {
	from := time.Date(2026, 3, 10, 10, 30, 0, 0, time.UTC)

	// 09:00 already passed today, so 21:00 is the earlier upcoming firing.
	next, at, err := NextDose([]string{"09:00", "21:00"}, from)
	if err != nil {
		t.Fatalf("NextDose error: %v", err)
	}
	if at != "21:00" {
		t.Errorf("next trigger = %q, want 21:00", at)
	}
	if want := time.Date(2026, 3, 10, 21, 0, 0, 0, time.UTC); !next.Equal(want) {
		t.Errorf("next firing = %v, want %v", next, want)
	}

	// Malformed entries are skipped, not fatal.
	next, at, err = NextDose([]string{"bogus", "18:00"}, from)
	if err != nil {
		t.Fatalf("NextDose with one bad entry error: %v", err)
	}
	if at != "18:00" || !next.Equal(time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)) {
		t.Errorf("next = %v at %q, want 18:00 today", next, at)
	}

	if _, _, err := NextDose(nil, from); err == nil {
		t.Error("NextDose(nil) expected error")
	}
	if _, _, err := NextDose([]string{"nope"}, from); err == nil {
		t.Error("NextDose with only malformed entries expected error")
	}
}

func TestNextRunRejectsMalformedTimes(t *testing.T) {
	for _, bad := range []string{"", "9am", "25:00", "12:60", "12", "12:3x"} {
		if _, err := NextRun(bad, time.Now()); err == nil {
			t.Errorf("NextRun(%q) accepted a malformed time", bad)
		}
	}
}

func TestParseClockTime(t *testing.T) {
	tests := []struct {
		in        string
		hour, min int
		wantErr   bool
	}{
		{in: "09:00", hour: 9, min: 0},
		{in: "9:05", hour: 9, min: 5},
		{in: "23:59", hour: 23, min: 59},
		{in: "00:00", hour: 0, min: 0},
		{in: "24:00", wantErr: true},
		{in: "-1:00", wantErr: true},
		{in: "noon", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			h, m, err := parseClockTime(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("parseClockTime(%q) expected error", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseClockTime(%q) error: %v", tt.in, err)
			}
			if h != tt.hour || m != tt.min {
				t.Errorf("parseClockTime(%q) = %d:%d, want %d:%d", tt.in, h, m, tt.hour, tt.min)
			}
		})
	}
}
