package imagery

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestMonthlyWindows(t *testing.T) {
	windows := MonthlyWindows(date(2023, 11, 1), date(2024, 2, 10))

	want := [][2]string{
		{"2023-11-01", "2023-11-30"},
		{"2023-12-01", "2023-12-31"},
		{"2024-01-01", "2024-01-31"},
		{"2024-02-01", "2024-02-29"},
	}
	if len(windows) != len(want) {
		t.Fatalf("expected %d windows, got %d", len(want), len(windows))
	}
	for i, w := range windows {
		if w.StartDate() != want[i][0] || w.EndDate() != want[i][1] {
			t.Errorf("window %d: expected %s..%s, got %s..%s", i, want[i][0], want[i][1], w.StartDate(), w.EndDate())
		}
	}
}

func TestMonthlyWindowsCountThroughToday(t *testing.T) {
	start := date(2023, 1, 1)
	cases := []struct {
		end  time.Time
		want int
	}{
		{date(2023, 1, 1), 1},
		{date(2023, 1, 31), 1},
		{date(2023, 2, 1), 2},
		{date(2023, 12, 31), 12},
		{date(2026, 10, 17), 46},
		{time.Date(2026, 10, 17, 23, 59, 0, 0, time.UTC), 46},
	}
	for _, tc := range cases {
		windows := MonthlyWindows(start, tc.end)
		if len(windows) != tc.want {
			t.Errorf("end %s: expected %d windows, got %d", tc.end.Format(DateLayout), tc.want, len(windows))
		}
		for i := 1; i < len(windows); i++ {
			if !windows[i].Start.After(windows[i-1].Start) {
				t.Errorf("end %s: windows not strictly increasing at %d", tc.end.Format(DateLayout), i)
			}
			if windows[i].Start.Day() != 1 {
				t.Errorf("window %d does not start on the first of the month", i)
			}
		}
	}
}

func TestMonthlyWindowsEndBeforeStart(t *testing.T) {
	if windows := MonthlyWindows(date(2023, 5, 1), date(2023, 4, 30)); len(windows) != 0 {
		t.Errorf("expected no windows, got %d", len(windows))
	}
}
