package pgsql

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/antigravity/transitcore/internal/calendar"
)

func TestDayTypeMaskWeekday(t *testing.T) {
	m := dayTypeMask("weekday")

	// Day index 0 is the Monday reference.
	assert.True(t, m[0], "Monday should be active under the weekday pattern")
	assert.True(t, m[4], "Friday should be active under the weekday pattern")
	assert.False(t, m[5], "Saturday should not be active under the weekday pattern")
	assert.False(t, m[6], "Sunday should not be active under the weekday pattern")

	// The pattern repeats weekly across the whole horizon.
	assert.Equal(t, m[0], m[7])
}

func TestDayTypeMaskSaturdayAndSunday(t *testing.T) {
	sat := dayTypeMask("saturday")
	sun := dayTypeMask("sunday")

	for day := 0; day < calendar.Days; day++ {
		weekday := time.Weekday((int(time.Monday) + day) % 7)
		assert.Equal(t, weekday == time.Saturday, sat[day])
		assert.Equal(t, weekday == time.Sunday, sun[day])
	}
}

func TestDayTypeMasksAreMutuallyExclusive(t *testing.T) {
	weekday := dayTypeMask("weekday")
	sat := dayTypeMask("saturday")
	sun := dayTypeMask("sunday")

	for day := 0; day < calendar.Days; day++ {
		active := 0
		for _, m := range []calendar.Mask{weekday, sat, sun} {
			if m[day] {
				active++
			}
		}
		assert.Equal(t, 1, active, "day %d should be active under exactly one day type", day)
	}
}
