package availability

import (
	"log/slog"
	"slices"
	"sort"
	"time"

	"github.com/hrygo/meetgrid/internal/units"
	"github.com/hrygo/meetgrid/server/availability/legacy"
	errs "github.com/hrygo/meetgrid/server/internal/errors"
	"github.com/hrygo/meetgrid/server/timezone"
)

// FromLegacy converts date-keyed availability to blocks. Index i on date d
// becomes the block at midnight of d in loc, plus dayStart, plus i steps.
// Dates are emitted chronologically and gaps become empty blocks.
func FromLegacy(expanded legacy.InternalAvailability, dayStart int64, loc *time.Location) (*BlockUsersMap, error) {
	if loc == nil {
		loc = timezone.UTC
	}

	type day struct {
		key      string
		midnight int64
	}
	days := make([]day, 0, len(expanded))
	for key := range expanded {
		date, ok := legacy.ParseDate(key)
		if !ok {
			return nil, errs.InvalidDate(key)
		}
		midnight := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, loc)
		days = append(days, day{key: key, midnight: midnight.UnixMilli()})
	}
	sort.Slice(days, func(i, j int) bool { return days[i].midnight < days[j].midnight })

	m := NewBlockUsersMap()
	for _, d := range days {
		for idx, users := range expanded[d.key] {
			block := d.midnight + dayStart + int64(idx)*units.TimeStep
			m.Set(block, slices.Clone(users))
		}
	}
	return m, nil
}

// ToLegacy converts blocks to date-keyed availability, inverting FromLegacy.
// Blocks before dayStart or off the step grid of their local day are dropped.
func ToLegacy(m *BlockUsersMap, dayStart int64, loc *time.Location) legacy.InternalAvailability {
	if loc == nil {
		loc = timezone.UTC
	}

	out := legacy.InternalAvailability{}
	m.Range(func(block int64, users []string) bool {
		midnight := timezone.StartOfDay(time.UnixMilli(block), loc)
		offset := block - midnight.UnixMilli() - dayStart
		if offset < 0 || offset%units.TimeStep != 0 {
			slog.Debug("dropping block outside legacy grid", "block", block, "offset_ms", offset)
			return true
		}

		key := legacy.FormatDate(midnight)
		idx := int(offset / units.TimeStep)
		blocks := out[key]
		if blocks == nil {
			blocks = [][]string{}
		}
		if idx >= len(blocks) {
			blocks = append(blocks, make([][]string, idx+1-len(blocks))...)
		}
		if len(users) > 0 {
			blocks[idx] = slices.Clone(users)
		}
		out[key] = blocks
		return true
	})
	return out
}
