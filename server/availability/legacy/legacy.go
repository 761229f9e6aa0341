// Package legacy implements the date-keyed availability format used before
// block timestamps. A day is a list of block indices counted in TimeStep
// increments from the start of that day's grid.
//
// New code should use the block map in the parent package and convert with
// availability.FromLegacy / availability.ToLegacy.
package legacy

import (
	"log/slog"
	"slices"
	"sort"
	"time"
)

// DateLayout is the layout of date keys produced by this package.
const DateLayout = "2006-01-02"

// DefaultUsername is the user assumed by LoadAvailabilityOne and the merge
// functions when no name is given.
const DefaultUsername = "me"

// Availability maps a date to the block indices the (implicit) user is available in.
// It is the compact form used for storage.
type Availability map[string][]int

// InternalAvailability maps a date to, per block index, the users available
// in that block. A nil element means nobody.
type InternalAvailability map[string][][]string

// WeeklyAvailability is Availability keyed by day of the week.
type WeeklyAvailability map[time.Weekday][]int

// UserAvailability ties a compact availability to its owner.
type UserAvailability struct {
	Availability Availability `json:"availability"`
	Username     string       `json:"username"`
}

var dateLayouts = []string{DateLayout, "1/2/2006", "1/2/06", time.RFC3339}

// ParseDate parses a date key in any of the accepted layouts.
func ParseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatDate renders t's calendar date as a key.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// LoadAvailabilityOne is LoadAvailability for the default user.
func LoadAvailabilityOne(a Availability) InternalAvailability {
	return LoadAvailability(UserAvailability{Availability: a, Username: DefaultUsername})
}

// LoadAvailability expands compact availabilities into the per-block form.
func LoadAvailability(availabilities ...UserAvailability) InternalAvailability {
	unpacked := InternalAvailability{}
	for _, ua := range availabilities {
		for _, date := range sortedDates(ua.Availability) {
			blocks := unpacked[date]
			if blocks == nil {
				blocks = [][]string{}
			}
			for _, idx := range ua.Availability[date] {
				if idx < 0 {
					slog.Debug("skipping negative block index", "date", date, "index", idx)
					continue
				}
				blocks = grow(blocks, idx)
				blocks[idx] = append(blocks[idx], ua.Username)
			}
			unpacked[date] = blocks
		}
	}
	return unpacked
}

// CompactAvailability converts the per-block form back to block indices.
// The weekly result holds, per weekday, the indices of the chronologically
// last date falling on that weekday.
func CompactAvailability(a InternalAvailability) (Availability, WeeklyAvailability) {
	formatted := Availability{}
	weekly := WeeklyAvailability{}
	for _, date := range sortedDates(a) {
		indices := []int{}
		for idx, users := range a[date] {
			if len(users) > 0 {
				indices = append(indices, idx)
			}
		}
		formatted[date] = indices
		if t, ok := ParseDate(date); ok {
			weekly[t.Weekday()] = indices
		}
	}
	return formatted, weekly
}

// ApplyAvailability projects weekly availability onto concrete dates, for
// example "free every Monday" onto the next four Mondays.
func ApplyAvailability(dates []time.Time, weekly WeeklyAvailability) InternalAvailability {
	out := Availability{}
	for _, date := range dates {
		indices := weekly[date.Weekday()]
		if indices == nil {
			indices = []int{}
		}
		out[FormatDate(date)] = indices
	}
	return LoadAvailabilityOne(out)
}

// MergeAvailability adds user to every block newer lists for a date that
// shares the existing date's key or weekday. existing is mutated and returned.
func MergeAvailability(existing InternalAvailability, newer Availability, user string) InternalAvailability {
	if user == "" {
		user = DefaultUsername
	}
	newerDates := sortedDates(newer)
	for _, existingDate := range sortedDates(existing) {
		blocks := existing[existingDate]
		for _, newDate := range newerDates {
			if !sameDay(existingDate, newDate) {
				continue
			}
			for _, idx := range newer[newDate] {
				if idx < 0 {
					continue
				}
				blocks = grow(blocks, idx)
				if !slices.Contains(blocks[idx], user) {
					blocks[idx] = append(blocks[idx], user)
				}
			}
		}
		existing[existingDate] = blocks
	}
	return existing
}

// MergeServerLocal merges like MergeAvailability, then removes user from
// every block newer does not list for that date, so user's availability
// ends up exactly as newer describes it. Emptied blocks become gaps.
func MergeServerLocal(existing InternalAvailability, newer Availability, user string) InternalAvailability {
	if user == "" {
		user = DefaultUsername
	}
	MergeAvailability(existing, newer, user)
	for date, blocks := range existing {
		keep := newer[date]
		for idx, users := range blocks {
			if slices.Contains(keep, idx) {
				continue
			}
			i := slices.Index(users, user)
			if i < 0 {
				continue
			}
			users = slices.Delete(users, i, i+1)
			if len(users) == 0 {
				users = nil
			}
			blocks[idx] = users
		}
	}
	return existing
}

// EnforceAvailabilityValidity gives every date an entry, leaving existing
// entries and extra dates untouched.
func EnforceAvailabilityValidity[M ~map[string]S, S ~[]E, E any](a M, dates []string) M {
	for _, date := range dates {
		if _, ok := a[date]; !ok {
			a[date] = S{}
		}
	}
	return a
}

// sameDay matches identical keys, or parseable keys on the same weekday.
func sameDay(a, b string) bool {
	if a == b {
		return true
	}
	ta, okA := ParseDate(a)
	tb, okB := ParseDate(b)
	return okA && okB && ta.Weekday() == tb.Weekday()
}

// grow extends blocks with gaps so that idx is addressable.
func grow(blocks [][]string, idx int) [][]string {
	if idx < len(blocks) {
		return blocks
	}
	return append(blocks, make([][]string, idx+1-len(blocks))...)
}

// sortedDates returns map keys chronologically; unparseable keys sort last.
func sortedDates[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		ti, okI := ParseDate(keys[i])
		tj, okJ := ParseDate(keys[j])
		switch {
		case okI && okJ && !ti.Equal(tj):
			return ti.Before(tj)
		case okI != okJ:
			return okI
		default:
			return keys[i] < keys[j]
		}
	})
	return keys
}
