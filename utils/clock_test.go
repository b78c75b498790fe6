package utils

import "testing"

func TestParseClock(t *testing.T) {
	cases := []struct {
		raw  string
		want int
		ok   bool
	}{
		{"00:00", 0, true},
		{"09:30", 570, true},
		{"23:59", 1439, true},
		{"24:00", MinutesPerDay, true},
		{"24:01", 0, false},
		{"25:00", 0, false},
		{"12:60", 0, false},
		{"09:5x", 0, false},
		{" 9:00", 0, false},
		{"+9:00", 0, false},
		{"9:00", 0, false},
		{"09:00:00", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseClock(tc.raw)
		if tc.ok && (err != nil || got != tc.want) {
			t.Errorf("ParseClock(%q) = %d, %v; want %d", tc.raw, got, err, tc.want)
		}
		if !tc.ok && err == nil {
			t.Errorf("ParseClock(%q) = %d, want error", tc.raw, got)
		}
	}
}

func TestFormatClockRoundTrip(t *testing.T) {
	for _, m := range []int{0, 570, 1439, MinutesPerDay} {
		got, err := ParseClock(FormatClock(m))
		if err != nil || got != m {
			t.Errorf("ParseClock(FormatClock(%d)) = %d, %v", m, got, err)
		}
	}
}
