package daytime

import (
	"testing"
	"time"
)

func TestIsStartOfDay(t *testing.T) {
	utcMidnight := uint64(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC).Unix())
	if !IsStartOfDay(utcMidnight, 0) {
		t.Fatal("expected UTC midnight to be start of day at tz 0")
	}
	if IsStartOfDay(utcMidnight, 8) {
		t.Fatal("UTC midnight must not be start of day at tz +8")
	}
	// 16:00 UTC is midnight at UTC+8.
	if !IsStartOfDay(utcMidnight+16*SecondsPerHour, 8) {
		t.Fatal("expected 16:00 UTC to be start of day at tz +8")
	}
	// 12:00 UTC is midnight at UTC-12.
	if !IsStartOfDay(utcMidnight+12*SecondsPerHour, -12) {
		t.Fatal("expected 12:00 UTC to be start of day at tz -12")
	}
}

func TestValidTimezone(t *testing.T) {
	for _, tz := range []int{-12, 0, 12} {
		if !ValidTimezone(tz) {
			t.Fatalf("ValidTimezone(%d) = false, want true", tz)
		}
	}
	for _, tz := range []int{-13, 13, 127, 200, -200} {
		if ValidTimezone(tz) {
			t.Fatalf("ValidTimezone(%d) = true, want false", tz)
		}
	}
}

func TestFutureDayStartIsAlignedAndInFuture(t *testing.T) {
	now := uint64(time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC).Unix())
	for _, tz := range []int8{-12, -5, 0, 8, 12} {
		start := FutureDayStart(now, tz, 1)
		if !IsStartOfDay(start, tz) {
			t.Fatalf("tz %d: start %d not aligned", tz, start)
		}
		if start <= now {
			t.Fatalf("tz %d: start %d not after now %d", tz, start, now)
		}
		end := FutureDayStart(now, tz, 3)
		if end-start != 2*SecondsPerDay {
			t.Fatalf("tz %d: end-start = %d, want %d", tz, end-start, 2*SecondsPerDay)
		}
	}
}

func TestExecutionDaysAndDayIndex(t *testing.T) {
	start := uint64(1_000 * SecondsPerDay)
	end := start + 3*SecondsPerDay
	if got := ExecutionDays(start, end); got != 3 {
		t.Fatalf("ExecutionDays = %d, want 3", got)
	}
	if got := ExecutionDays(end, start); got != 0 {
		t.Fatalf("ExecutionDays reversed = %d, want 0", got)
	}
	day, ok := DayIndex(start+SecondsPerDay+5, start)
	if !ok || day != 1 {
		t.Fatalf("DayIndex = %d (ok=%v), want 1", day, ok)
	}
	if _, ok := DayIndex(start-1, start); ok {
		t.Fatal("expected DayIndex before start to fail")
	}
}

func TestCeilUnits(t *testing.T) {
	cases := []struct {
		seconds, unit, want uint64
	}{
		{0, 3, 0},
		{1, 3, 1},
		{3, 3, 1},
		{4, 3, 2},
		{86400, 3, 28800},
		{10, 0, 10},
	}
	for _, tc := range cases {
		if got := CeilUnits(tc.seconds, tc.unit); got != tc.want {
			t.Fatalf("CeilUnits(%d, %d) = %d, want %d", tc.seconds, tc.unit, got, tc.want)
		}
	}
}

func TestUnixClampsPreEpoch(t *testing.T) {
	if got := Unix(time.Unix(-5, 0)); got != 0 {
		t.Fatalf("Unix(pre-epoch) = %d, want 0", got)
	}
	if got := Time(60).Unix(); got != 60 {
		t.Fatalf("Time(60) = %d, want 60", got)
	}
}
