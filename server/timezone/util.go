// Package timezone provides timezone utilities for availability grids.
//
// Offsets in this package are minutes of local wall-clock time minus UTC
// (east positive), so New York in summer is -240 and Tokyo is 540.
package timezone

import (
	"time"
	// Embedded zoneinfo for hosts without a system database.
	_ "time/tzdata"

	"github.com/hrygo/meetgrid/internal/units"
	errs "github.com/hrygo/meetgrid/server/internal/errors"
)

// Default location constants
var (
	// UTC is the coordinated universal time timezone
	UTC = time.UTC

	// Local is the local timezone
	Local = time.Local
)

// ParseTimezone parses an IANA timezone identifier (e.g., "Asia/Shanghai").
// If the timezone is invalid, returns UTC and an error.
func ParseTimezone(tz string) (*time.Location, error) {
	if tz == "" || tz == "UTC" {
		return UTC, nil
	}

	loc, err := time.LoadLocation(tz)
	if err != nil {
		return UTC, errs.InvalidTimezone(tz, err)
	}

	return loc, nil
}

// MustParseTimezone parses a timezone or panics if invalid.
// Use this for constants that are known to be valid at compile time.
func MustParseTimezone(tz string) *time.Location {
	loc, err := ParseTimezone(tz)
	if err != nil {
		panic(err)
	}
	return loc
}

// IsValidTimezone checks if a timezone identifier is valid.
func IsValidTimezone(tz string) bool {
	_, err := ParseTimezone(tz)
	return err == nil
}

// OffsetDate returns date shifted back by offsetMin minutes.
func OffsetDate(date time.Time, offsetMin int) time.Time {
	return date.Add(-time.Duration(offsetMin) * time.Minute)
}

// OffsetMs is OffsetDate on milliseconds since the epoch.
func OffsetMs(ms int64, offsetMin int) int64 {
	return ms - int64(offsetMin)*units.Minute
}

// GetTzOffset returns the offset in minutes of the named timezone at the
// given instant. Both wall clocks are compared at minute precision.
func GetTzOffset(tz string, at time.Time) (int, error) {
	loc, err := ParseTimezone(tz)
	if err != nil {
		return 0, err
	}
	return OffsetIn(loc, at), nil
}

// OffsetIn returns the offset in minutes of loc at the given instant.
func OffsetIn(loc *time.Location, at time.Time) int {
	if loc == nil {
		loc = UTC
	}
	utcWall := wallClock(at.In(UTC))
	tzWall := wallClock(at.In(loc))
	return int(tzWall.Sub(utcWall) / time.Minute)
}

// CurrentTzOffset returns the offset of now's own location.
func CurrentTzOffset(now time.Time) int {
	return OffsetIn(now.Location(), now)
}

// LocalTzName returns the IANA name of loc, or "UTC" for nil.
func LocalTzName(loc *time.Location) string {
	if loc == nil {
		return UTC.String()
	}
	return loc.String()
}

// CommonTimezones lists the timezone names offered by default pickers.
func CommonTimezones() []string {
	return []string{
		TimezoneUTC,
		TimezoneAmericaLosAngeles,
		TimezoneAmericaNewYork,
		TimezoneEuropeLondon,
		TimezoneEuropeParis,
		TimezoneAsiaShanghai,
		TimezoneAsiaTokyo,
		TimezoneAustraliaSydney,
	}
}

// StartOfDay returns the start of the day (00:00:00) in the given timezone.
func StartOfDay(t time.Time, tz *time.Location) time.Time {
	if tz == nil {
		tz = UTC
	}
	lt := t.In(tz)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, tz)
}

// wallClock re-reads t's calendar fields as a UTC instant, truncated to the minute.
func wallClock(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), 0, 0, time.UTC)
}

// Common timezone constants
const (
	// TimezoneUTC is the UTC timezone identifier
	TimezoneUTC = "UTC"

	// TimezoneAsiaShanghai is the China Standard Time timezone
	TimezoneAsiaShanghai = "Asia/Shanghai"

	// TimezoneAmericaNewYork is the Eastern Time timezone
	TimezoneAmericaNewYork = "America/New_York"

	// TimezoneAmericaLosAngeles is the Pacific Time timezone
	TimezoneAmericaLosAngeles = "America/Los_Angeles"

	// TimezoneEuropeLondon is the GMT/BST timezone
	TimezoneEuropeLondon = "Europe/London"

	// TimezoneEuropeParis is the CET/CEST timezone
	TimezoneEuropeParis = "Europe/Paris"

	// TimezoneAsiaTokyo is the Japan Standard Time timezone
	TimezoneAsiaTokyo = "Asia/Tokyo"

	// TimezoneAustraliaSydney is the AEST/AEDT timezone
	TimezoneAustraliaSydney = "Australia/Sydney"
)

// LocationAmericaNewYork is the pre-loaded America/New_York location.
var LocationAmericaNewYork = MustParseTimezone(TimezoneAmericaNewYork)
