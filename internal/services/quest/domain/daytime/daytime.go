// Package daytime holds the calendar arithmetic challenges depend on: local
// midnight alignment under a whole-hour timezone offset, day indices inside an
// execution window, and seconds-to-host-unit conversion.
//
// All timestamps are unsigned seconds since the Unix epoch.
package daytime

import "time"

const (
	// SecondsPerDay is the length of one challenge day.
	SecondsPerDay = 86400
	// SecondsPerHour is the timezone offset unit.
	SecondsPerHour = 3600
	// MinTimezone is the westernmost accepted offset in hours.
	MinTimezone = -12
	// MaxTimezone is the easternmost accepted offset in hours.
	MaxTimezone = 12
)

// ValidTimezone reports whether timezone is within [MinTimezone, MaxTimezone].
func ValidTimezone(timezone int) bool {
	return timezone >= MinTimezone && timezone <= MaxTimezone
}

func localTime(timestamp uint64, timezone int8) int64 {
	return int64(timestamp) + int64(timezone)*SecondsPerHour
}

// IsStartOfDay reports whether timestamp is a local midnight under timezone.
func IsStartOfDay(timestamp uint64, timezone int8) bool {
	return localTime(timestamp, timezone)%SecondsPerDay == 0
}

// FutureDayStart returns the local midnight that begins the day `days` days
// after the local day containing timestamp.
func FutureDayStart(timestamp uint64, timezone int8, days uint32) uint64 {
	local := localTime(timestamp, timezone)
	dayStart := local - local%SecondsPerDay
	future := dayStart + int64(days)*SecondsPerDay
	return uint64(future - int64(timezone)*SecondsPerHour)
}

// ExecutionDays returns the number of whole days in [start, end).
func ExecutionDays(start, end uint64) uint64 {
	if end <= start {
		return 0
	}
	return (end - start) / SecondsPerDay
}

// DayIndex returns the zero-based day of now within a window beginning at
// start. ok is false when now precedes start.
func DayIndex(now, start uint64) (day uint64, ok bool) {
	if now < start {
		return 0, false
	}
	return (now - start) / SecondsPerDay, true
}

// CeilUnits converts seconds to whole host units, rounding up so a delivery
// never lands before its target time.
func CeilUnits(seconds, unitSeconds uint64) uint64 {
	if unitSeconds == 0 {
		return seconds
	}
	return seconds/unitSeconds + boolToUint(seconds%unitSeconds != 0)
}

func boolToUint(value bool) uint64 {
	if value {
		return 1
	}
	return 0
}

// Unix converts a time to unsigned epoch seconds, clamping pre-epoch values to
// zero.
func Unix(t time.Time) uint64 {
	seconds := t.Unix()
	if seconds < 0 {
		return 0
	}
	return uint64(seconds)
}

// Time converts unsigned epoch seconds to a UTC time.
func Time(seconds uint64) time.Time {
	return time.Unix(int64(seconds), 0).UTC()
}
