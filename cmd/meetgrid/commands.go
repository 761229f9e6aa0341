package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/hrygo/meetgrid/internal/observability"
	"github.com/hrygo/meetgrid/server/availability"
	"github.com/hrygo/meetgrid/server/availability/legacy"
	"github.com/hrygo/meetgrid/server/recurrence"
	"github.com/hrygo/meetgrid/server/timeutil"
)

func (a *app) weekCommand() *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "week",
		Short: "Print a blank grid for the Monday-first week containing a date",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			current := a.now().In(a.profile.Location())
			if date != "" {
				t, err := a.midnight(date)
				if err != nil {
					return err
				}
				current = t
			}

			start, stop := a.profile.Window()
			week := timeutil.GetTodayWeek(current)
			m := availability.Blank(timeutil.ConstructUniformDatetimeRanges(week, start, stop))
			a.run.Info("built week grid",
				slog.String("monday", legacy.FormatDate(week[0])),
				slog.Int(observability.LogFieldBlocks, m.Len()),
			)
			return a.writeAvailability(m)
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "any date in the week (default today)")
	return cmd
}

func (a *app) blankCommand() *cobra.Command {
	var rrule string
	cmd := &cobra.Command{
		Use:   "blank <date>...",
		Short: "Print a blank grid covering the given dates",
		Long: `Blank prints an empty grid over each date. With --rule the single date
starts a recurrence instead, for example

  meetgrid blank 2025-05-05 --rule "FREQ=WEEKLY;BYDAY=MO,TH;COUNT=6"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			dates, err := a.dates(args, rrule)
			if err != nil {
				return err
			}

			start, stop := a.profile.Window()
			m := availability.Blank(timeutil.ConstructUniformDatetimeRanges(dates, start, stop))
			a.run.Info("built blank grid", slog.Int("dates", len(dates)), slog.Int(observability.LogFieldBlocks, m.Len()))
			return a.writeAvailability(m)
		},
	}
	cmd.Flags().StringVar(&rrule, "rule", "", "recurrence rule starting at the single date")
	return cmd
}

// dates resolves date arguments, expanding a recurrence rule when given.
func (a *app) dates(args []string, rrule string) ([]time.Time, error) {
	if rrule != "" {
		if len(args) != 1 {
			return nil, errors.New("--rule takes exactly one start date")
		}
		rule, err := recurrence.Parse(rrule)
		if err != nil {
			return nil, errors.Wrap(err, "invalid --rule")
		}
		first, err := a.midnight(args[0])
		if err != nil {
			return nil, err
		}
		return rule.Dates(first), nil
	}

	dates := make([]time.Time, 0, len(args))
	for _, arg := range args {
		t, err := a.midnight(arg)
		if err != nil {
			return nil, err
		}
		dates = append(dates, t)
	}
	return dates, nil
}

func (a *app) fillCommand() *cobra.Command {
	var from, to string
	var erase bool
	cmd := &cobra.Command{
		Use:   "fill <file|->",
		Short: "Add or remove the user over a rectangle of the grid",
		Long: `Fill marks the user available on every block whose day and time of day
both fall between two corners, for example

  meetgrid fill grid.json --from "2025-05-05 9:00 am" --to "2025-05-07 11:30 am"

Corners are wall-clock times in --timezone. Blocks missing from the grid
are never created.`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			m, err := a.readAvailability(args[0])
			if err != nil {
				return err
			}
			fromCell, offset, err := a.cellAt(from)
			if err != nil {
				return errors.Wrap(err, "invalid --from")
			}
			toCell := fromCell
			if to != "" {
				if toCell, _, err = a.cellAt(to); err != nil {
					return errors.Wrap(err, "invalid --to")
				}
			}

			availability.FillRect(m, [2]int64{fromCell, toCell}, !erase, a.profile.Username, offset)
			a.run.Info("filled grid", slog.Bool("erase", erase), slog.Int("tz_offset", offset))
			return a.writeAvailability(m)
		},
	}
	cmd.Flags().StringVar(&from, "from", "", `first corner, "<date> <time>"`)
	cmd.Flags().StringVar(&to, "to", "", "second corner (default --from)")
	cmd.Flags().BoolVar(&erase, "erase", false, "remove the user instead of adding them")
	_ = cmd.MarkFlagRequired("from")
	return cmd
}

func (a *app) combineCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "combine <file|->...",
		Short: "Union several grids into one",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			maps := make([]*availability.BlockUsersMap, 0, len(args))
			for _, arg := range args {
				m, err := a.readAvailability(arg)
				if err != nil {
					return err
				}
				maps = append(maps, m)
			}
			combined := availability.Combine(maps...)
			a.run.Info("combined grids", slog.Int("inputs", len(maps)), slog.Int(observability.LogFieldBlocks, combined.Len()))
			return a.writeAvailability(combined)
		},
	}
}

func (a *app) inspectCommand() *cobra.Command {
	var onlyAvailable bool
	cmd := &cobra.Command{
		Use:   "inspect <file|->",
		Short: "Print a grid as a table in the local timezone",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			m, err := a.readAvailability(args[0])
			if err != nil {
				return err
			}

			loc := a.profile.Location()
			w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "BLOCK\tLOCAL\tCOUNT\tUSERS")
			m.Range(func(block int64, users []string) bool {
				if onlyAvailable && len(users) == 0 {
					return true
				}
				local := time.UnixMilli(block).In(loc).Format("Mon 2006-01-02 3:04 PM")
				fmt.Fprintf(w, "%d\t%s\t%d\t%s\n", block, local, len(users), strings.Join(users, ", "))
				return true
			})
			if err := w.Flush(); err != nil {
				return err
			}

			roster := availability.Roster(m)
			_, err = fmt.Fprintf(a.out, "%d blocks, %d users: %s\n", m.Len(), len(roster), strings.Join(roster, ", "))
			return err
		},
	}
	cmd.Flags().BoolVar(&onlyAvailable, "available", false, "skip blocks nobody is available for")
	return cmd
}

func (a *app) clockCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clock",
		Short: "Convert between clock strings and milliseconds since midnight",
	}

	parse := &cobra.Command{
		Use:   "parse <time>",
		Short: `Parse "2:50 pm" or "14:50" into milliseconds since midnight`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ms, err := timeutil.TimeToInt(strings.Join(args, " "))
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(a.out, ms)
			return err
		},
	}

	var military bool
	format := &cobra.Command{
		Use:   "format <ms>",
		Short: "Format milliseconds since midnight as a clock string",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ms, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return errors.Wrapf(err, "invalid milliseconds %q", args[0])
			}
			if ms < 0 {
				return errors.Errorf("milliseconds must not be negative, got %d", ms)
			}
			_, err = fmt.Fprintln(a.out, timeutil.IntToTime(ms, military))
			return err
		},
	}
	format.Flags().BoolVar(&military, "military", false, "use 24-hour time")

	cmd.AddCommand(parse, format)
	return cmd
}

func (a *app) legacyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "legacy",
		Short: "Convert between grids and date-keyed block indices",
		Long: `Legacy availability keys each date to the indices of the 15-minute blocks
a user is free for, counted from --day-start.`,
	}
	cmd.AddCommand(a.legacyImportCommand(), a.legacyExportCommand(), a.legacyMergeCommand(), a.legacyApplyCommand())
	return cmd
}

func (a *app) legacyImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <users.json|->",
		Short: `Build a grid from [{"username": ..., "availability": {"2025-05-05": [0, 1]}}]`,
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			data, err := a.readInput(args[0])
			if err != nil {
				return err
			}
			var users []legacy.UserAvailability
			if err := json.Unmarshal(data, &users); err != nil {
				return errors.Wrap(err, "failed to decode legacy availability")
			}

			start, _ := a.profile.Window()
			m, err := availability.FromLegacy(legacy.LoadAvailability(users...), start, a.profile.Location())
			if err != nil {
				return err
			}
			a.run.Info("imported legacy availability", slog.Int("users", len(users)), slog.Int(observability.LogFieldBlocks, m.Len()))
			return a.writeAvailability(m)
		},
	}
}

func (a *app) legacyExportCommand() *cobra.Command {
	var weekly bool
	cmd := &cobra.Command{
		Use:   "export <file|->",
		Short: "Print the user's availability as date-keyed block indices",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			m, err := a.readAvailability(args[0])
			if err != nil {
				return err
			}

			start, _ := a.profile.Window()
			user := a.profile.Username
			compact, byWeekday := legacy.CompactAvailability(availability.ToLegacy(onlyUser(m, user), start, a.profile.Location()))

			enc := json.NewEncoder(a.out)
			if weekly {
				out := make(map[string][]int, len(byWeekday))
				for day, indices := range byWeekday {
					out[day.String()] = indices
				}
				return enc.Encode(out)
			}
			return enc.Encode(legacy.UserAvailability{Availability: compact, Username: user})
		},
	}
	cmd.Flags().BoolVar(&weekly, "weekly", false, "key indices by weekday instead of date")
	return cmd
}

func (a *app) legacyMergeCommand() *cobra.Command {
	var exact bool
	cmd := &cobra.Command{
		Use:   "merge <file|-> <availability.json>",
		Short: "Merge the user's date-keyed block indices into a grid",
		Long: `Merge adds the user to every block listed for a date, and to the same
blocks on existing dates falling on the same weekday. With --exact the
user is also removed from blocks not listed. Blocks missing from the grid
are never created.`,
		Args: cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			m, err := a.readAvailability(args[0])
			if err != nil {
				return err
			}
			data, err := a.readInput(args[1])
			if err != nil {
				return err
			}
			var newer legacy.Availability
			if err := json.Unmarshal(data, &newer); err != nil {
				return errors.Wrap(err, "failed to decode legacy availability")
			}

			start, _ := a.profile.Window()
			loc := a.profile.Location()
			existing := availability.ToLegacy(m, start, loc)
			if exact {
				legacy.MergeServerLocal(existing, newer, a.profile.Username)
			} else {
				legacy.MergeAvailability(existing, newer, a.profile.Username)
			}
			merged, err := availability.FromLegacy(existing, start, loc)
			if err != nil {
				return err
			}

			return a.writeAvailability(a.overlay(m.Clone(), merged))
		},
	}
	cmd.Flags().BoolVar(&exact, "exact", false, "also remove the user from blocks not listed")
	return cmd
}

func (a *app) legacyApplyCommand() *cobra.Command {
	var rrule string
	cmd := &cobra.Command{
		Use:   "apply <weekly.json|-> <date>...",
		Short: "Project weekday-keyed block indices onto concrete dates",
		Long: `Apply reads {"Monday": [0, 1], ...}, as printed by "legacy export --weekly",
and marks the user available on the same blocks of every date of that
weekday. Dates come from the arguments or from --rule.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			data, err := a.readInput(args[0])
			if err != nil {
				return err
			}
			var byName map[string][]int
			if err := json.Unmarshal(data, &byName); err != nil {
				return errors.Wrap(err, "failed to decode weekly availability")
			}
			weekly, err := parseWeekly(byName)
			if err != nil {
				return err
			}
			dates, err := a.dates(args[1:], rrule)
			if err != nil {
				return err
			}

			start, stop := a.profile.Window()
			loc := a.profile.Location()
			compact, _ := legacy.CompactAvailability(legacy.ApplyAvailability(dates, weekly))
			applied, err := availability.FromLegacy(
				legacy.LoadAvailability(legacy.UserAvailability{Availability: compact, Username: a.profile.Username}),
				start, loc)
			if err != nil {
				return err
			}

			grid := availability.Blank(timeutil.ConstructUniformDatetimeRanges(dates, start, stop))
			a.run.Info("applied weekly availability", slog.Int("dates", len(dates)))
			return a.writeAvailability(a.overlay(grid, applied))
		},
	}
	cmd.Flags().StringVar(&rrule, "rule", "", "recurrence rule starting at the single date")
	return cmd
}

// overlay copies the blocks of src that grid already has onto grid.
func (a *app) overlay(grid, src *availability.BlockUsersMap) *availability.BlockUsersMap {
	src.Range(func(block int64, users []string) bool {
		if !grid.Has(block) {
			a.run.Debug("dropping block outside grid", slog.Int64("block", block))
			return true
		}
		grid.Set(block, users)
		return true
	})
	return grid
}

func parseWeekly(byName map[string][]int) (legacy.WeeklyAvailability, error) {
	weekly := legacy.WeeklyAvailability{}
	for name, indices := range byName {
		found := false
		for day := time.Sunday; day <= time.Saturday; day++ {
			if strings.EqualFold(name, day.String()) || strings.EqualFold(name, day.String()[:3]) {
				weekly[day] = indices
				found = true
				break
			}
		}
		if !found {
			return nil, errors.Errorf("unknown weekday %q", name)
		}
	}
	return weekly, nil
}

// onlyUser returns m with every block reduced to user or nobody.
func onlyUser(m *availability.BlockUsersMap, user string) *availability.BlockUsersMap {
	out := availability.NewBlockUsersMap()
	m.Range(func(block int64, users []string) bool {
		if slices.Contains(users, user) {
			out.Set(block, []string{user})
		} else {
			out.Set(block, []string{})
		}
		return true
	})
	return out
}
