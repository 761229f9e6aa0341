package timezone

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/meetgrid/internal/units"
	errs "github.com/hrygo/meetgrid/server/internal/errors"
)

func TestParseTimezone(t *testing.T) {
	tests := []struct {
		name    string
		tz      string
		wantErr bool
	}{
		{name: "UTC", tz: "UTC"},
		{name: "empty string defaults to UTC", tz: ""},
		{name: "Asia/Shanghai", tz: "Asia/Shanghai"},
		{name: "America/New_York", tz: "America/New_York"},
		{name: "invalid timezone", tz: "Invalid/Timezone", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, err := ParseTimezone(tt.tz)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errs.IsCode(err, errs.ErrCodeInvalidTimezone))
				assert.Equal(t, UTC, loc)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, loc)
		})
	}
}

func TestIsValidTimezone(t *testing.T) {
	tests := []struct {
		name string
		tz   string
		want bool
	}{
		{"UTC", "UTC", true},
		{"empty", "", true},
		{"Asia/Shanghai", "Asia/Shanghai", true},
		{"invalid", "Invalid/Timezone", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidTimezone(tt.tz))
		})
	}
}

func TestGetTzOffset(t *testing.T) {
	summer := time.Date(2025, time.May, 5, 12, 0, 0, 0, time.UTC)
	winter := time.Date(2025, time.January, 5, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		tz   string
		at   time.Time
		want int
	}{
		{"UTC", "UTC", summer, 0},
		{"New York summer", TimezoneAmericaNewYork, summer, -240},
		{"New York winter", TimezoneAmericaNewYork, winter, -300},
		{"Tokyo", TimezoneAsiaTokyo, summer, 540},
		{"Sydney winter (southern)", TimezoneAustraliaSydney, summer, 600},
		{"Kolkata half hour", "Asia/Kolkata", summer, 330},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := GetTzOffset(tt.tz, tt.at)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := GetTzOffset("Mars/Olympus", summer)
	assert.Error(t, err)
}

func TestCurrentTzOffset(t *testing.T) {
	now := time.Date(2025, time.May, 5, 9, 0, 0, 0, LocationAmericaNewYork)
	assert.Equal(t, -240, CurrentTzOffset(now))
	assert.Equal(t, 0, CurrentTzOffset(now.UTC()))
}

func TestOffsetDate(t *testing.T) {
	base := time.Date(2025, time.May, 5, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, base.Add(-4*time.Hour), OffsetDate(base, 240))
	assert.Equal(t, base.Add(4*time.Hour), OffsetDate(base, -240))
	assert.Equal(t, base.UnixMilli()-4*units.Hour, OffsetMs(base.UnixMilli(), 240))
}

func TestStartOfDay(t *testing.T) {
	// 2025-05-05 02:00 UTC is still May 4th in New York.
	instant := time.Date(2025, time.May, 5, 2, 0, 0, 0, time.UTC)

	got := StartOfDay(instant, LocationAmericaNewYork)
	assert.Equal(t, 4, got.Day())
	assert.Equal(t, 0, got.Hour())
	assert.Equal(t, time.Date(2025, time.May, 5, 0, 0, 0, 0, time.UTC), StartOfDay(instant, nil))
}

func TestLocalTzName(t *testing.T) {
	assert.Equal(t, "America/New_York", LocalTzName(LocationAmericaNewYork))
	assert.Equal(t, "UTC", LocalTzName(nil))
	for _, name := range CommonTimezones() {
		assert.True(t, IsValidTimezone(name), name)
	}
}
