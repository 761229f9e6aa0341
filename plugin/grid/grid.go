// Package grid is the headless controller behind an availability grid
// widget: it turns drag and hover gestures into availability edits and
// callback payloads. Drawing the grid is left to the caller.
package grid

import (
	"slices"
	"time"

	"github.com/hrygo/meetgrid/internal/units"
	"github.com/hrygo/meetgrid/server/availability"
	"github.com/hrygo/meetgrid/server/timeutil"
	"github.com/hrygo/meetgrid/server/timezone"
)

// HoverData describes the block under the pointer.
type HoverData struct {
	// Block is the UTC start of the hovered block in milliseconds.
	Block int64
	// Time is Block as a UTC time.
	Time        time.Time
	Everyone    []string
	Available   []string
	Unavailable []string
}

// Props configures a Grid.
type Props struct {
	// Availabilities holds every editable block. Blocks are UTC, not localized.
	Availabilities *availability.BlockUsersMap
	// MyUsername is the user edited by drags. Defaults to "me".
	MyUsername string
	// TzOffset is local minus UTC in minutes. Nil means the host's current offset.
	TzOffset *int
	// IsDisabled ignores drags.
	IsDisabled bool
	// ShouldUseWeekdays labels columns by weekday only, for recurring weekly meetings.
	ShouldUseWeekdays bool
	// OnDataChange fires after a drag with the whole availability.
	OnDataChange func(*availability.BlockUsersMap)
	// OnHoverChange fires when the hovered block changes, including to none.
	OnHoverChange func(HoverData)
	// ID identifies the grid to the caller.
	ID string
}

// Column is one day of the grid.
type Column struct {
	Day   int64 // cell coordinate of the day's midnight
	Label string
}

// Row is one time of day of the grid.
type Row struct {
	Offset int64 // milliseconds since midnight
	Label  string
}

// Grid tracks one widget's gesture state.
type Grid struct {
	props    Props
	tzOffset int

	dragging  bool
	fillState bool
	anchor    int64
	current   int64

	hovered  int64
	hovering bool
}

// New returns a Grid with defaults applied to props.
func New(props Props) *Grid {
	if props.Availabilities == nil {
		props.Availabilities = availability.NewBlockUsersMap()
	}
	if props.MyUsername == "" {
		props.MyUsername = availability.DefaultUsername
	}
	if props.OnDataChange == nil {
		props.OnDataChange = func(*availability.BlockUsersMap) {}
	}
	if props.OnHoverChange == nil {
		props.OnHoverChange = func(HoverData) {}
	}

	g := &Grid{props: props}
	if props.TzOffset != nil {
		g.tzOffset = *props.TzOffset
	} else {
		g.tzOffset = timezone.CurrentTzOffset(time.Now())
	}
	return g
}

// Availabilities returns the availability edited by the grid.
func (g *Grid) Availabilities() *availability.BlockUsersMap {
	return g.props.Availabilities
}

// Cell returns the grid coordinate of a block.
func (g *Grid) Cell(block int64) int64 {
	return block + int64(g.tzOffset)*units.Minute
}

// BeginDrag starts a selection at block. The drag adds the user when the
// block does not list them yet and removes them otherwise. It reports
// whether a drag started.
func (g *Grid) BeginDrag(block int64) bool {
	if g.props.IsDisabled {
		return false
	}
	users, ok := g.props.Availabilities.Get(block)
	if !ok {
		return false
	}
	g.dragging = true
	g.fillState = !slices.Contains(users, g.props.MyUsername)
	g.anchor = g.Cell(block)
	g.current = g.anchor
	return true
}

// DragOver moves the free corner of the selection.
func (g *Grid) DragOver(block int64) {
	if g.dragging {
		g.current = g.Cell(block)
	}
}

// Dragging reports whether a selection is in progress.
func (g *Grid) Dragging() bool {
	return g.dragging
}

// InSelection reports whether block lies inside the current selection.
func (g *Grid) InSelection(block int64) bool {
	if !g.dragging {
		return false
	}
	c := g.Cell(block)
	day, tod := timeutil.UTCMidnightMs(c), units.FloorMod(c, units.Day)
	dayFrom, dayTo := minMax(timeutil.UTCMidnightMs(g.anchor), timeutil.UTCMidnightMs(g.current))
	todFrom, todTo := minMax(units.FloorMod(g.anchor, units.Day), units.FloorMod(g.current, units.Day))
	return day >= dayFrom && day <= dayTo && tod >= todFrom && tod <= todTo
}

// EndDrag applies the selection and fires OnDataChange.
func (g *Grid) EndDrag() {
	if !g.dragging {
		return
	}
	g.dragging = false
	availability.FillRect(g.props.Availabilities, [2]int64{g.anchor, g.current}, g.fillState, g.props.MyUsername, g.tzOffset)
	g.props.OnDataChange(g.props.Availabilities)
}

// CancelDrag drops the selection without editing.
func (g *Grid) CancelDrag() {
	g.dragging = false
}

// Hover records the block under the pointer; ok is false when the pointer
// left the grid. OnHoverChange fires only when the target changes.
func (g *Grid) Hover(block int64, ok bool) {
	if ok == g.hovering && (!ok || block == g.hovered) {
		return
	}
	g.hovered, g.hovering = block, ok
	if !ok {
		g.props.OnHoverChange(HoverData{})
		return
	}
	g.props.OnHoverChange(g.HoverAt(block))
}

// HoverAt builds the hover payload for block.
func (g *Grid) HoverAt(block int64) HoverData {
	everyone := availability.Roster(g.props.Availabilities)
	users, _ := g.props.Availabilities.Get(block)
	available := slices.Clone(users)
	var unavailable []string
	for _, u := range everyone {
		if !slices.Contains(available, u) {
			unavailable = append(unavailable, u)
		}
	}
	return HoverData{
		Block:       block,
		Time:        time.UnixMilli(block).UTC(),
		Everyone:    everyone,
		Available:   available,
		Unavailable: unavailable,
	}
}

// Columns lists the grid's days in order.
func (g *Grid) Columns() []Column {
	var days []int64
	for _, block := range g.props.Availabilities.Keys() {
		day := timeutil.UTCMidnightMs(g.Cell(block))
		if !slices.Contains(days, day) {
			days = append(days, day)
		}
	}
	slices.Sort(days)

	layout := "Mon 1/2"
	if g.props.ShouldUseWeekdays {
		layout = "Mon"
	}
	cols := make([]Column, len(days))
	for i, day := range days {
		cols[i] = Column{Day: day, Label: time.UnixMilli(day).UTC().Format(layout)}
	}
	return cols
}

// Rows lists the grid's times of day in order.
func (g *Grid) Rows() []Row {
	var offsets []int64
	for _, block := range g.props.Availabilities.Keys() {
		tod := units.FloorMod(g.Cell(block), units.Day)
		if !slices.Contains(offsets, tod) {
			offsets = append(offsets, tod)
		}
	}
	slices.Sort(offsets)

	rows := make([]Row, len(offsets))
	for i, tod := range offsets {
		rows[i] = Row{Offset: tod, Label: timeutil.IntToTime(tod, false)}
	}
	return rows
}

func minMax(a, b int64) (int64, int64) {
	if a > b {
		return b, a
	}
	return a, b
}
