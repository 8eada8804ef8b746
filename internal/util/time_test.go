package util

import (
	"testing"
	"time"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		name      string
		timeStr   string
		wantHour  int
		wantMin   int
		wantError bool
	}{
		// 24-hour format tests
		{
			name:      "valid 24h time - evening",
			timeStr:   "22:30",
			wantHour:  22,
			wantMin:   30,
			wantError: false,
		},
		{
			name:      "valid 24h time - morning",
			timeStr:   "09:45",
			wantHour:  9,
			wantMin:   45,
			wantError: false,
		},
		{
			name:      "valid 24h time - midnight",
			timeStr:   "00:00",
			wantHour:  0,
			wantMin:   0,
			wantError: false,
		},
		{
			name:      "valid 24h time - noon",
			timeStr:   "12:00",
			wantHour:  12,
			wantMin:   0,
			wantError: false,
		},

		// 12-hour format tests
		{
			name:      "valid 12h time - PM",
			timeStr:   "10:30PM",
			wantHour:  22,
			wantMin:   30,
			wantError: false,
		},
		{
			name:      "valid 12h time - AM",
			timeStr:   "09:45AM",
			wantHour:  9,
			wantMin:   45,
			wantError: false,
		},
		{
			name:      "valid 12h time - with space PM",
			timeStr:   "10:30 PM",
			wantHour:  22,
			wantMin:   30,
			wantError: false,
		},
		{
			name:      "valid 12h time - with space AM",
			timeStr:   "09:45 AM",
			wantHour:  9,
			wantMin:   45,
			wantError: false,
		},
		{
			name:      "valid 12h time - lowercase am",
			timeStr:   "09:45am",
			wantHour:  9,
			wantMin:   45,
			wantError: false,
		},
		{
			name:      "valid 12h time - mixed case Pm",
			timeStr:   "10:30Pm",
			wantHour:  22,
			wantMin:   30,
			wantError: false,
		},

		// Error cases
		{
			name:      "invalid format - no minutes",
			timeStr:   "22:",
			wantError: true,
		},
		{
			name:      "invalid format - no separator",
			timeStr:   "2230",
			wantError: true,
		},
		{
			name:      "invalid format - wrong separator",
			timeStr:   "22.30",
			wantError: true,
		},
		{
			name:      "invalid format - extra characters",
			timeStr:   "22:30xyz",
			wantError: true,
		},
		{
			name:      "invalid format - out of range hours",
			timeStr:   "25:00",
			wantError: true,
		},
		{
			name:      "invalid format - out of range minutes",
			timeStr:   "22:60",
			wantError: true,
		},
		{
			name:      "invalid format - empty string",
			timeStr:   "",
			wantError: true,
		},
		{
			name:      "invalid format - spaces only",
			timeStr:   "   ",
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseClock(tt.timeStr)

			if tt.wantError {
				if err == nil {
					t.Errorf("ParseClock(%q) expected error but got none", tt.timeStr)
				}
				return
			}

			if err != nil {
				t.Errorf("ParseClock(%q) unexpected error: %v", tt.timeStr, err)
				return
			}

			if got.Hour != tt.wantHour || got.Minute != tt.wantMin {
				t.Errorf("ParseClock(%q) = %s, want %02d:%02d", tt.timeStr, got, tt.wantHour, tt.wantMin)
			}
		})
	}
}

func TestClockNext(t *testing.T) {
	now := time.Date(2026, time.March, 4, 15, 0, 0, 0, time.UTC)
	tests := []struct {
		clock string
		want  time.Time
	}{
		{"17:30", time.Date(2026, time.March, 4, 17, 30, 0, 0, time.UTC)},
		{"09:00", time.Date(2026, time.March, 5, 9, 0, 0, 0, time.UTC)},
		{"15:00", time.Date(2026, time.March, 5, 15, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		if got := MustParseClock(tt.clock).Next(now); !got.Equal(tt.want) {
			t.Errorf("Next(%s) = %v, want %v", tt.clock, got, tt.want)
		}
	}
}

func TestClock(t *testing.T) {
	c, err := ParseClock("5:15 pm")
	if err != nil {
		t.Fatalf("ParseClock() unexpected error: %v", err)
	}
	if c != (Clock{Hour: 17, Minute: 15}) {
		t.Fatalf("ParseClock() = %+v, want 17:15", c)
	}
	if c.String() != "17:15" {
		t.Errorf("String() = %q, want %q", c.String(), "17:15")
	}
	if c.Minutes() != 17*60+15 {
		t.Errorf("Minutes() = %d", c.Minutes())
	}

	day := time.Date(2026, time.March, 4, 23, 59, 0, 0, time.UTC)
	want := time.Date(2026, time.March, 4, 17, 15, 0, 0, time.UTC)
	if got := c.On(day); !got.Equal(want) {
		t.Errorf("On() = %v, want %v", got, want)
	}

	if !MustParseClock("08:30").Before(c) || c.Before(MustParseClock("08:30")) {
		t.Error("Before() ordering is wrong")
	}
}

func TestClockText(t *testing.T) {
	var c Clock
	if err := c.UnmarshalText([]byte("09:05")); err != nil {
		t.Fatalf("UnmarshalText() unexpected error: %v", err)
	}
	b, err := c.MarshalText()
	if err != nil || string(b) != "09:05" {
		t.Errorf("MarshalText() = %q, %v", b, err)
	}
	if err := c.UnmarshalText([]byte("9h")); err == nil {
		t.Error("UnmarshalText() expected error for invalid input")
	}
}

func TestStartOfDay(t *testing.T) {
	in := time.Date(2026, time.January, 2, 13, 4, 5, 6, time.UTC)
	want := time.Date(2026, time.January, 2, 0, 0, 0, 0, time.UTC)
	if got := StartOfDay(in); !got.Equal(want) {
		t.Errorf("StartOfDay() = %v, want %v", got, want)
	}
}
