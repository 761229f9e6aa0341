package profile

import (
	"log/slog"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/hrygo/meetgrid/server/timeutil"
	"github.com/hrygo/meetgrid/server/timezone"
)

// EnvPrefix prefixes every environment variable read by the profile.
const EnvPrefix = "MEETGRID"

// Keys shared by environment variables, flags and viper.
const (
	KeyMode      = "mode"
	KeyTimezone  = "timezone"
	KeyUsername  = "username"
	KeyDayStart  = "day_start"
	KeyDayEnd    = "day_end"
	KeyLogLevel  = "log_level"
	KeyLogFormat = "log_format"
)

// Profile is the configuration of a meetgrid run.
type Profile struct {
	// Mode can be "prod" or "dev" or "demo"
	Mode string
	// Version is the current version of meetgrid
	Version string
	// Timezone is the IANA zone the grid is laid out in
	Timezone string
	// Username is the user edited by fill commands
	Username string
	// DayStart and DayEnd bound each grid day, e.g. "7:00 am"
	DayStart string
	DayEnd   string
	// LogLevel is one of debug, info, warn, error
	LogLevel string
	// LogFormat is "text" or "json"
	LogFormat string

	location *time.Location
	start    int64
	stop     int64
}

// NewViper returns a viper instance with meetgrid defaults and environment
// binding applied.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyMode, "demo")
	v.SetDefault(KeyTimezone, timezone.TimezoneUTC)
	v.SetDefault(KeyUsername, "me")
	v.SetDefault(KeyDayStart, "7:00 am")
	v.SetDefault(KeyDayEnd, "10:00 pm")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "text")
	return v
}

// FromViper fills the profile from v.
func (p *Profile) FromViper(v *viper.Viper) {
	p.Mode = v.GetString(KeyMode)
	p.Timezone = v.GetString(KeyTimezone)
	p.Username = v.GetString(KeyUsername)
	p.DayStart = v.GetString(KeyDayStart)
	p.DayEnd = v.GetString(KeyDayEnd)
	p.LogLevel = v.GetString(KeyLogLevel)
	p.LogFormat = v.GetString(KeyLogFormat)
}

// FromEnv loads configuration from MEETGRID_* environment variables.
func (p *Profile) FromEnv() {
	p.FromViper(NewViper())
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// Validate normalizes the profile and resolves its timezone and day window.
func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}
	if p.Username == "" {
		p.Username = "me"
	}
	p.LogFormat = strings.ToLower(p.LogFormat)
	if p.LogFormat != "json" {
		p.LogFormat = "text"
	}

	loc, err := timezone.ParseTimezone(p.Timezone)
	if err != nil {
		slog.Error("failed to load timezone", slog.String("timezone", p.Timezone), slog.String("error", err.Error()))
		return errors.Wrap(err, "invalid timezone")
	}

	start, err := timeutil.TimeToInt(p.DayStart)
	if err != nil {
		return errors.Wrapf(err, "invalid day start %q", p.DayStart)
	}
	stop, err := timeutil.TimeToInt(p.DayEnd)
	if err != nil {
		return errors.Wrapf(err, "invalid day end %q", p.DayEnd)
	}
	if start >= stop {
		return errors.Errorf("day start %q must be before day end %q", p.DayStart, p.DayEnd)
	}

	p.location, p.start, p.stop = loc, start, stop
	return nil
}

// Location returns the resolved timezone. Call Validate first.
func (p *Profile) Location() *time.Location {
	if p.location == nil {
		return timezone.UTC
	}
	return p.location
}

// Window returns the day window in milliseconds since midnight. Call
// Validate first.
func (p *Profile) Window() (start, stop int64) {
	return p.start, p.stop
}
