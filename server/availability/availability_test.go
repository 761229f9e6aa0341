package availability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/meetgrid/internal/units"
	errs "github.com/hrygo/meetgrid/server/internal/errors"
	"github.com/hrygo/meetgrid/server/timeutil"
	"github.com/hrygo/meetgrid/server/timezone"
)

var (
	newYork    = timezone.LocationAmericaNewYork
	someMonday = time.Date(2025, time.May, 5, 0, 0, 0, 0, newYork)
	mondayMs   = someMonday.UnixMilli()
	am7        = 7 * units.Hour
	pm10       = 22 * units.Hour
)

func TestBlank_MondayDaytime(t *testing.T) {
	ranges := timeutil.ConstructUniformDatetimeRanges([]time.Time{someMonday}, am7, pm10)
	keys := Blank(ranges).Keys()

	require.Len(t, keys, 60)
	assert.Equal(t, units.TimeStep, keys[1]-keys[0])
	assert.Equal(t, mondayMs+am7, keys[0])
	assert.Equal(t, mondayMs+pm10-units.TimeStep, keys[len(keys)-1])
	for i := 1; i < len(keys); i++ {
		assert.Equal(t, units.TimeStep, keys[i]-keys[i-1])
	}
}

func TestBlank_Overnight(t *testing.T) {
	keys := Blank([]timeutil.DatetimeRange{{Start: mondayMs - units.Hour, Stop: mondayMs + units.Hour}}).Keys()

	var got []string
	for _, k := range keys {
		got = append(got, time.UnixMilli(k).In(newYork).Format("1/2/2006 3:04 PM"))
	}
	assert.Equal(t, []string{
		"5/4/2025 11:00 PM",
		"5/4/2025 11:15 PM",
		"5/4/2025 11:30 PM",
		"5/4/2025 11:45 PM",
		"5/5/2025 12:00 AM",
		"5/5/2025 12:15 AM",
		"5/5/2025 12:30 AM",
		"5/5/2025 12:45 AM",
	}, got)
}

func TestBlank_UnalignedAndOverlapping(t *testing.T) {
	m := Blank([]timeutil.DatetimeRange{
		{Start: mondayMs + 1, Stop: mondayMs + units.TimeStep + 1},
		{Start: mondayMs, Stop: mondayMs + units.TimeStep},
	})

	assert.Equal(t, []int64{mondayMs, mondayMs + units.TimeStep}, m.Keys())
	users, ok := m.Get(mondayMs)
	require.True(t, ok)
	assert.NotNil(t, users)
	assert.Empty(t, users)
}

func blocksOf(pairs ...any) *BlockUsersMap {
	m := NewBlockUsersMap()
	for i := 0; i < len(pairs); i += 2 {
		m.Set(pairs[i].(int64), pairs[i+1].([]string))
	}
	return m
}

func TestCombine(t *testing.T) {
	a := blocksOf(int64(0), []string{"alice"}, int64(900_000), []string{"alice", "bob"})
	b := blocksOf(int64(900_000), []string{"bob", "carol"}, int64(1_800_000), []string{"carol"})
	aBefore, bBefore := a.Clone(), b.Clone()

	got := Combine(a, b)

	assert.Equal(t, []int64{0, 900_000, 1_800_000}, got.Keys())
	users, _ := got.Get(900_000)
	assert.Equal(t, []string{"alice", "bob", "carol"}, users)
	users, _ = got.Get(0)
	assert.Equal(t, []string{"alice"}, users, "block only in a is carried through")
	assert.True(t, a.Equal(aBefore), "inputs are not mutated")
	assert.True(t, b.Equal(bBefore), "inputs are not mutated")
}

func TestCombine_IdempotentAndCommutativeOnSets(t *testing.T) {
	a := blocksOf(int64(0), []string{"alice", "bob"}, int64(900_000), []string{})
	b := blocksOf(int64(0), []string{"carol", "alice"})

	assert.True(t, Combine(a, a).Equal(a))

	ab, ba := Combine(a, b), Combine(b, a)
	for _, block := range ab.Keys() {
		x, _ := ab.Get(block)
		y, ok := ba.Get(block)
		require.True(t, ok)
		assert.ElementsMatch(t, x, y)
	}
	assert.Equal(t, ab.Len(), ba.Len())
	assert.Equal(t, 0, Combine().Len())
}

func TestSerializeRoundTrip(t *testing.T) {
	m := blocksOf(
		mondayMs+units.TimeStep, []string{"bob", "alice"},
		mondayMs, []string{},
		mondayMs+2*units.TimeStep, []string{"zoë"},
	)

	s, err := Serialize(m)
	require.NoError(t, err)
	assert.Equal(t,
		`[[1746418500000,["bob","alice"]],[1746417600000,[]],[1746419400000,["zoë"]]]`,
		s)

	back, err := Deserialize(s)
	require.NoError(t, err)
	assert.True(t, m.Equal(back))
	assert.Equal(t, m.Keys(), back.Keys())
}

func TestSerialize_Empty(t *testing.T) {
	s, err := Serialize(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", s)

	m, err := Deserialize("[]")
	require.NoError(t, err)
	assert.Equal(t, 0, m.Len())
}

func TestDeserialize_Malformed(t *testing.T) {
	for _, input := range []string{
		"",
		"{",
		`{"1": ["a"]}`,
		`[[1]]`,
		`[[1, ["a"], 3]]`,
		`[["1", ["a"]]]`,
		`[[1.5, ["a"]]]`,
		`[[1, "a"]]`,
	} {
		t.Run(input, func(t *testing.T) {
			_, err := Deserialize(input)
			require.Error(t, err)
			assert.True(t, errs.IsCode(err, errs.ErrCodeMalformedAvailability))
		})
	}
}

func TestDeserialize_DuplicateKeysOverwriteInPlace(t *testing.T) {
	m, err := Deserialize(`[[1,["a"]],[2,["b"]],[1,["c"]]]`)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, m.Keys())
	users, _ := m.Get(1)
	assert.Equal(t, []string{"c"}, users)
}

func TestRoster(t *testing.T) {
	m := blocksOf(int64(0), []string{"bob"}, int64(1), []string{}, int64(2), []string{"alice", "bob"})
	assert.Equal(t, []string{"bob", "alice"}, Roster(m))
	assert.Empty(t, Roster(nil))
}
