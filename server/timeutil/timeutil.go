// Package timeutil converts between clock strings, millisecond offsets and
// calendar dates used to lay out availability grids.
package timeutil

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hrygo/meetgrid/internal/units"
	errs "github.com/hrygo/meetgrid/server/internal/errors"
)

// DatetimeRange is a half-open [Start, Stop) interval in milliseconds since
// the epoch (UTC).
type DatetimeRange struct {
	Start int64 `json:"start"`
	Stop  int64 `json:"stop"`
}

// TimeToInt converts "2:50 AM" or "15:43" to milliseconds since midnight.
// A "pm" suffix always adds twelve hours; hours and minutes are not range checked.
func TimeToInt(s string) (int64, error) {
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ':' || r == ' ' })
	if len(parts) < 2 || len(parts) > 3 {
		return 0, errs.InvalidTimeString(s, nil)
	}

	hours, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, errs.InvalidTimeString(s, err)
	}
	minutes, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, errs.InvalidTimeString(s, err)
	}

	if len(parts) == 3 {
		switch strings.ToLower(parts[2]) {
		case "pm":
			hours += 12
		case "am":
		default:
			return 0, errs.InvalidTimeString(s, nil)
		}
	}

	return hours*units.Hour + minutes*units.Minute, nil
}

// MustTimeToInt is TimeToInt for literals known to be valid.
func MustTimeToInt(s string) int64 {
	ms, err := TimeToInt(s)
	if err != nil {
		panic(err)
	}
	return ms
}

// IntToTime converts milliseconds since midnight to "2:50 AM", or to "14:50"
// when military is set.
func IntToTime(midnightOffset int64, military bool) string {
	hours := midnightOffset / units.Hour
	minutes := (midnightOffset % units.Hour) / units.Minute
	if military {
		return fmt.Sprintf("%d:%02d", hours, minutes)
	}

	isPM := hours >= 12
	if hours > 12 {
		hours %= 12
	}
	if hours == 0 {
		hours = 12
	}
	suffix := "AM"
	if isPM {
		suffix = "PM"
	}
	return fmt.Sprintf("%d:%02d %s", hours, minutes, suffix)
}

// ConstructUniformDatetimeRanges returns the same [start, stop) window of
// the day for every date. start and stop are offsets from each date.
func ConstructUniformDatetimeRanges(dates []time.Time, start, stop int64) []DatetimeRange {
	ranges := make([]DatetimeRange, 0, len(dates))
	for _, date := range dates {
		ms := date.UnixMilli()
		ranges = append(ranges, DatetimeRange{Start: ms + start, Stop: ms + stop})
	}
	return ranges
}

// GetTodayWeek returns the seven local midnights of the Monday-first week
// containing current, in current's location.
func GetTodayWeek(current time.Time) []time.Time {
	y, m, d := current.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, current.Location())

	weekday := int(midnight.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday ends the week.
	}
	monday := midnight.AddDate(0, 0, -(weekday - 1))

	week := make([]time.Time, 7)
	for i := range week {
		week[i] = monday.AddDate(0, 0, i)
	}
	return week
}

// UTCMidnight returns the UTC midnight of t's UTC date in milliseconds.
func UTCMidnight(t time.Time) int64 {
	return UTCMidnightMs(t.UnixMilli())
}

// UTCMidnightMs is UTCMidnight on milliseconds since the epoch.
func UTCMidnightMs(ms int64) int64 {
	return units.SteppedFloor(ms, units.Day)
}

// CalcDayDiff returns the number of calendar days from b to a, counted in
// a's location.
func CalcDayDiff(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.In(a.Location()).Date()
	da := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	db := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(da.Sub(db) / (24 * time.Hour))
}
