package main

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hrygo/meetgrid/internal/observability"
	"github.com/hrygo/meetgrid/internal/profile"
	"github.com/hrygo/meetgrid/internal/units"
	"github.com/hrygo/meetgrid/server/availability"
	"github.com/hrygo/meetgrid/server/availability/legacy"
	"github.com/hrygo/meetgrid/server/timeutil"
	"github.com/hrygo/meetgrid/server/timezone"
)

// app holds what every subcommand shares.
type app struct {
	v       *viper.Viper
	profile *profile.Profile
	run     *observability.RunContext

	in     io.Reader
	out    io.Writer
	errOut io.Writer
	now    func() time.Time
}

func newRootCommand(in io.Reader, out, errOut io.Writer) *cobra.Command {
	a := &app{
		v:       profile.NewViper(),
		profile: &profile.Profile{Version: version},
		in:      in,
		out:     out,
		errOut:  errOut,
		now:     time.Now,
	}

	root := &cobra.Command{
		Use:           "meetgrid",
		Short:         "Build, edit and inspect meeting availability grids",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			a.run.Done()
		},
	}
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	flags := root.PersistentFlags()
	flags.String("mode", "demo", `mode of the run: "dev", "prod" or "demo"`)
	flags.String("timezone", timezone.TimezoneUTC, "IANA timezone the grid is laid out in")
	flags.String("username", availability.DefaultUsername, "user edited by fill commands")
	flags.String("day-start", "7:00 am", "first time of day on the grid")
	flags.String("day-end", "10:00 pm", "time of day the grid ends")
	flags.String("log-level", "info", "debug, info, warn or error")
	flags.String("log-format", "text", `"text" or "json"`)
	for flag, key := range map[string]string{
		"mode":       profile.KeyMode,
		"timezone":   profile.KeyTimezone,
		"username":   profile.KeyUsername,
		"day-start":  profile.KeyDayStart,
		"day-end":    profile.KeyDayEnd,
		"log-level":  profile.KeyLogLevel,
		"log-format": profile.KeyLogFormat,
	} {
		if err := a.v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			panic(err)
		}
	}

	root.AddCommand(
		a.weekCommand(),
		a.blankCommand(),
		a.fillCommand(),
		a.combineCommand(),
		a.inspectCommand(),
		a.clockCommand(),
		a.legacyCommand(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	a.profile.FromViper(a.v)
	if err := a.profile.Validate(); err != nil {
		return errors.Wrap(err, "failed to validate profile")
	}

	logger := observability.NewLogger(a.errOut, a.profile.LogLevel, a.profile.LogFormat)
	slog.SetDefault(logger)
	a.run = observability.NewRunContext(logger, cmd.Name(), a.profile.Username)
	a.run.Debug("profile loaded",
		slog.String("mode", a.profile.Mode),
		slog.String("timezone", a.profile.Timezone),
		slog.String("day_start", a.profile.DayStart),
		slog.String("day_end", a.profile.DayEnd),
	)
	return nil
}

// readInput reads a file, or stdin when path is "-".
func (a *app) readInput(path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(a.in)
		return data, errors.Wrap(err, "failed to read stdin")
	}
	data, err := os.ReadFile(path)
	return data, errors.Wrapf(err, "failed to read %s", path)
}

func (a *app) readAvailability(path string) (*availability.BlockUsersMap, error) {
	data, err := a.readInput(path)
	if err != nil {
		return nil, err
	}
	m, err := availability.Deserialize(strings.TrimSpace(string(data)))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load availability from %s", path)
	}
	return m, nil
}

func (a *app) writeAvailability(m *availability.BlockUsersMap) error {
	s, err := availability.Serialize(m)
	if err != nil {
		return err
	}
	_, err = io.WriteString(a.out, s+"\n")
	return err
}

// midnight returns the local midnight of a date string in the profile's zone.
func (a *app) midnight(s string) (time.Time, error) {
	date, ok := legacy.ParseDate(s)
	if !ok {
		return time.Time{}, errors.Errorf("invalid date %q", s)
	}
	return time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, a.profile.Location()), nil
}

// cellAt parses "2025-05-05 9:00 am" into a grid cell and the zone offset
// in effect at that wall-clock time.
func (a *app) cellAt(s string) (int64, int, error) {
	datePart, clockPart, ok := strings.Cut(strings.TrimSpace(s), " ")
	if !ok {
		return 0, 0, errors.Errorf("expected \"<date> <time>\", got %q", s)
	}
	midnight, err := a.midnight(datePart)
	if err != nil {
		return 0, 0, err
	}
	tod, err := timeutil.TimeToInt(clockPart)
	if err != nil {
		return 0, 0, errors.Wrapf(err, "invalid time in %q", s)
	}

	y, m, d := midnight.Date()
	cell := time.Date(y, m, d, 0, 0, 0, 0, time.UTC).UnixMilli() + tod
	instant := midnight.Add(units.Duration(tod))
	return cell, timezone.OffsetIn(a.profile.Location(), instant), nil
}
