package legacy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	monday     = "2025-05-05"
	tuesday    = "2025-05-06"
	nextMonday = "2025-05-12"
)

func TestLoadAvailability(t *testing.T) {
	got := LoadAvailability(
		UserAvailability{Username: "alice", Availability: Availability{monday: {0, 2}}},
		UserAvailability{Username: "bob", Availability: Availability{monday: {2, 3}, tuesday: {1}}},
	)

	assert.Equal(t, InternalAvailability{
		monday:  {{"alice"}, nil, {"alice", "bob"}, {"bob"}},
		tuesday: {nil, {"bob"}},
	}, got)
}

func TestLoadAvailabilityOne(t *testing.T) {
	got := LoadAvailabilityOne(Availability{monday: {1}, tuesday: {}})

	assert.Equal(t, [][]string{nil, {"me"}}, got[monday])
	assert.Empty(t, got[tuesday])
	assert.Contains(t, got, tuesday)
}

func TestLoadAvailability_SkipsNegativeIndex(t *testing.T) {
	got := LoadAvailabilityOne(Availability{monday: {-1, 0}})
	assert.Equal(t, [][]string{{"me"}}, got[monday])
}

func TestCompactAvailability(t *testing.T) {
	expanded := InternalAvailability{
		monday:     {{"me"}, nil, {}, {"me", "you"}},
		nextMonday: {nil, {"me"}},
		tuesday:    {},
		"someday":  {{"me"}},
	}

	formatted, weekly := CompactAvailability(expanded)

	assert.Equal(t, Availability{
		monday:     {0, 3},
		nextMonday: {1},
		tuesday:    {},
		"someday":  {0},
	}, formatted)
	// The later Monday wins; the unparseable key has no weekday.
	assert.Equal(t, WeeklyAvailability{
		time.Monday:  {1},
		time.Tuesday: {},
	}, weekly)
}

func TestCompactLoadRoundTrip(t *testing.T) {
	compact := Availability{monday: {0, 4, 5}, tuesday: {2}}
	formatted, _ := CompactAvailability(LoadAvailabilityOne(compact))
	assert.Equal(t, compact, formatted)
}

func TestApplyAvailability(t *testing.T) {
	weekly := WeeklyAvailability{time.Monday: {0, 1}}
	dates := []time.Time{
		time.Date(2025, time.May, 5, 0, 0, 0, 0, time.UTC),
		time.Date(2025, time.May, 6, 0, 0, 0, 0, time.UTC),
		time.Date(2025, time.May, 12, 0, 0, 0, 0, time.UTC),
	}

	got := ApplyAvailability(dates, weekly)

	assert.Equal(t, InternalAvailability{
		monday:     {{"me"}, {"me"}},
		tuesday:    {},
		nextMonday: {{"me"}, {"me"}},
	}, got)
}

func TestMergeAvailability(t *testing.T) {
	existing := InternalAvailability{
		monday:  {{"you"}, nil},
		tuesday: {nil, {"you"}},
	}

	got := MergeAvailability(existing, Availability{nextMonday: {0, 2}}, "me")

	// nextMonday shares a weekday with monday only.
	assert.Equal(t, [][]string{{"you", "me"}, nil, {"me"}}, got[monday])
	assert.Equal(t, [][]string{nil, {"you"}}, got[tuesday])
}

func TestMergeAvailability_NoDuplicates(t *testing.T) {
	existing := InternalAvailability{monday: {{"me"}}}

	MergeAvailability(existing, Availability{monday: {0}, nextMonday: {0}}, "")

	assert.Equal(t, [][]string{{"me"}}, existing[monday])
}

func TestMergeAvailability_UnparseableDatesMatchExactly(t *testing.T) {
	existing := InternalAvailability{"first": {nil}, "second": {nil}}

	MergeAvailability(existing, Availability{"first": {0}}, "me")

	assert.Equal(t, [][]string{{"me"}}, existing["first"])
	assert.Equal(t, [][]string{nil}, existing["second"])
}

func TestMergeServerLocal(t *testing.T) {
	existing := InternalAvailability{
		monday: {{"me", "you"}, {"me"}, nil, {"you"}},
	}
	newer := Availability{monday: {2, 3}}

	got := MergeServerLocal(existing, newer, "me")

	require.Len(t, got[monday], 4)
	assert.Equal(t, []string{"you"}, got[monday][0])
	assert.Nil(t, got[monday][1], "emptied block becomes a gap")
	assert.Equal(t, []string{"me"}, got[monday][2])
	assert.Equal(t, []string{"you", "me"}, got[monday][3])

	for idx, users := range got[monday] {
		assert.Equal(t, idx == 2 || idx == 3, contains(users, "me"), "block %d", idx)
	}
}

func TestMergeServerLocal_RemovesFromDatesMissingInNewer(t *testing.T) {
	existing := InternalAvailability{tuesday: {{"me"}, {"me", "you"}}}

	got := MergeServerLocal(existing, Availability{}, "me")

	assert.Equal(t, [][]string{nil, {"you"}}, got[tuesday])
}

func TestEnforceAvailabilityValidity(t *testing.T) {
	compact := Availability{monday: {1}, "extra": {2}}
	got := EnforceAvailabilityValidity(compact, []string{monday, tuesday})
	assert.Equal(t, Availability{monday: {1}, tuesday: {}, "extra": {2}}, got)

	expanded := EnforceAvailabilityValidity(InternalAvailability{}, []string{monday})
	require.Contains(t, expanded, monday)
	assert.NotNil(t, expanded[monday])
	assert.Empty(t, expanded[monday])
}

func TestParseDate(t *testing.T) {
	for _, s := range []string{"2025-05-05", "5/5/2025", "5/5/25", "2025-05-05T00:00:00Z"} {
		d, ok := ParseDate(s)
		require.True(t, ok, s)
		assert.Equal(t, time.Monday, d.Weekday(), s)
	}
	_, ok := ParseDate("next week")
	assert.False(t, ok)
}

func contains(users []string, user string) bool {
	for _, u := range users {
		if u == user {
			return true
		}
	}
	return false
}
