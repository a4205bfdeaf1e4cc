package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d, hour int) time.Time {
	return time.Date(y, m, d, hour, 0, 0, 0, time.UTC)
}

func TestRecordActivityStreakTransitions(t *testing.T) {
	var a Analytics

	a.RecordActivity(day(2024, 3, 1, 9))
	assert.Equal(t, 1, a.CurrentStreak)
	assert.Equal(t, 1, a.TotalCheckIns)

	a.RecordActivity(day(2024, 3, 1, 18))
	assert.Equal(t, 1, a.CurrentStreak, "same day keeps streak")
	assert.Equal(t, 2, a.TotalCheckIns)

	a.RecordActivity(day(2024, 3, 2, 7))
	a.RecordActivity(day(2024, 3, 3, 7))
	assert.Equal(t, 3, a.CurrentStreak)
	assert.Equal(t, 3, a.LongestStreak)

	a.RecordActivity(day(2024, 3, 6, 7))
	assert.Equal(t, 1, a.CurrentStreak, "gap resets streak")
	assert.Equal(t, 3, a.LongestStreak)
	require.NotNil(t, a.LastActiveDate)
	assert.Equal(t, day(2024, 3, 6, 0), *a.LastActiveDate)
}

func TestRecordActivityAcrossMonthBoundary(t *testing.T) {
	var a Analytics
	a.RecordActivity(day(2024, 2, 28, 12))
	a.RecordActivity(day(2024, 2, 29, 12))
	a.RecordActivity(day(2024, 3, 1, 12))
	assert.Equal(t, 3, a.CurrentStreak)
}

func TestRecordActivityBackdated(t *testing.T) {
	var a Analytics
	a.RecordActivity(day(2024, 3, 5, 12))
	a.RecordActivity(day(2024, 3, 3, 12))
	assert.Equal(t, 1, a.CurrentStreak)
	assert.Equal(t, 2, a.TotalCheckIns)
	assert.Equal(t, day(2024, 3, 5, 0), *a.LastActiveDate)
}

func TestRemoveActivityNeverNegative(t *testing.T) {
	a := Analytics{TotalCheckIns: 1}
	a.RemoveActivity()
	a.RemoveActivity()
	assert.Equal(t, 0, a.TotalCheckIns)
}
