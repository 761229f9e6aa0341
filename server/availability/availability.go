// Package availability tracks which users are available in which fixed-size
// time block and implements the edits a shared scheduling grid performs on it.
package availability

import (
	"encoding/json"
	"slices"

	"github.com/hrygo/meetgrid/internal/units"
	errs "github.com/hrygo/meetgrid/server/internal/errors"
	"github.com/hrygo/meetgrid/server/timeutil"
	"github.com/hrygo/meetgrid/server/timezone"
)

// DefaultUsername is the user edited when no name is given.
const DefaultUsername = "me"

// Blank returns every block touched by ranges with nobody available.
// Range bounds are widened to block boundaries.
func Blank(ranges []timeutil.DatetimeRange) *BlockUsersMap {
	m := NewBlockUsersMap()
	for _, r := range ranges {
		start := units.SteppedFloor(r.Start, units.TimeStep)
		stop := units.SteppedCeil(r.Stop, units.TimeStep)
		for _, block := range units.Range(start, stop, units.TimeStep) {
			m.Set(block, nil)
		}
	}
	return m
}

// Combine merges availabilities into a new map. Blocks keep their first-seen
// order and users are deduplicated. Inputs are not modified.
func Combine(availabilities ...*BlockUsersMap) *BlockUsersMap {
	combined := NewBlockUsersMap()
	for _, m := range availabilities {
		m.Range(func(block int64, users []string) bool {
			existing, _ := combined.Get(block)
			combined.Set(block, union(existing, users))
			return true
		})
	}
	return combined
}

// Serialize encodes availability as JSON map entries: [[block, [user, ...]], ...].
func Serialize(m *BlockUsersMap) (string, error) {
	if m == nil {
		m = NewBlockUsersMap()
	}
	data, err := json.Marshal(m)
	if err != nil {
		return "", errs.Wrap(err, errs.ErrCodeInvalidArgument, "serialize availability")
	}
	return string(data), nil
}

// Deserialize decodes the output of Serialize.
func Deserialize(s string) (*BlockUsersMap, error) {
	m := NewBlockUsersMap()
	if err := json.Unmarshal([]byte(s), m); err != nil {
		return nil, errs.MalformedAvailability(err)
	}
	return m, nil
}

// FillRect marks user available (fill) or unavailable (!fill) in every block
// of the rectangle spanned by corners on the day x time-of-day grid.
//
// Corners are grid cell coordinates: local wall-clock instants encoded as
// UTC milliseconds. Each cell is mapped to its block with
// timezone.OffsetMs(cell, tzOffset). Blocks missing from m are skipped, so the
// rectangle never adds blocks. m is mutated and returned.
//
// For corners Monday 10:00 and Tuesday 07:00 it fills 07:00-10:00 on both days.
func FillRect(m *BlockUsersMap, corners [2]int64, fill bool, user string, tzOffset int) *BlockUsersMap {
	if m == nil {
		return nil
	}
	if user == "" {
		user = DefaultUsername
	}

	dayFrom, dayTo := ordered(timeutil.UTCMidnightMs(corners[0]), timeutil.UTCMidnightMs(corners[1]))
	timeFrom, timeTo := ordered(units.FloorMod(corners[0], units.Day), units.FloorMod(corners[1], units.Day))

	for day := dayFrom; day <= dayTo; day += units.Day {
		for tod := timeFrom; tod <= timeTo; tod += units.TimeStep {
			block := timezone.OffsetMs(day+tod, tzOffset)
			users, ok := m.Get(block)
			if !ok {
				continue
			}
			if fill {
				if !slices.Contains(users, user) {
					m.Set(block, append(users, user))
				}
			} else {
				m.Set(block, removeItem(users, user))
			}
		}
	}
	return m
}

// Roster returns every user present in any block, in first-seen order.
func Roster(m *BlockUsersMap) []string {
	var everyone []string
	m.Range(func(_ int64, users []string) bool {
		everyone = union(everyone, users)
		return true
	})
	return everyone
}

// union appends the members of b missing from a to a copy of a.
func union(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	for _, list := range [][]string{a, b} {
		for _, u := range list {
			if !slices.Contains(out, u) {
				out = append(out, u)
			}
		}
	}
	return out
}

// removeItem deletes the first occurrence of item in place.
func removeItem(list []string, item string) []string {
	if i := slices.Index(list, item); i >= 0 {
		return slices.Delete(list, i, i+1)
	}
	return list
}

func ordered(a, b int64) (int64, int64) {
	if a > b {
		return b, a
	}
	return a, b
}
