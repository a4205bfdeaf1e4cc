package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateWindowIsDenseAndOrdered(t *testing.T) {
	end := time.Date(2024, 3, 2, 15, 4, 0, 0, time.UTC)
	w := DateWindow(end, 5)
	assert.Equal(t, []string{"2024-02-27", "2024-02-28", "2024-02-29", "2024-03-01", "2024-03-02"}, w)
}

func TestDateWindowEmpty(t *testing.T) {
	assert.Empty(t, DateWindow(time.Now(), 0))
	assert.Empty(t, DateWindow(time.Now(), -3))
}

func TestDateWindowAcrossDST(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("tzdata not available")
	}
	end := time.Date(2024, 3, 11, 1, 0, 0, 0, loc)
	assert.Equal(t, []string{"2024-03-09", "2024-03-10", "2024-03-11"}, DateWindow(end, 3))
}

func TestParseISODate(t *testing.T) {
	d, err := ParseISODate("2024-01-31", nil)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), d)

	_, err = ParseISODate("31/01/2024", time.UTC)
	assert.Error(t, err)
}

func TestDaysBetween(t *testing.T) {
	a := time.Date(2024, 1, 1, 23, 0, 0, 0, time.UTC)
	b := time.Date(2024, 1, 8, 1, 0, 0, 0, time.UTC)
	assert.Equal(t, 7, DaysBetween(a, b))
	assert.Equal(t, -7, DaysBetween(b, a))
	assert.Equal(t, 0, DaysBetween(a, a))
}
