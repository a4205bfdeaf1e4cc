package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kramxie/neo-routine-sub000/models"
)

func TestMemoryInsertBadgeIsIdempotentUnderConcurrency(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	results := make(chan bool, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			created, err := s.InsertBadge(ctx, &models.Badge{UserID: 1, BadgeID: "streak_3", EarnedAt: time.Now()})
			assert.NoError(t, err)
			results <- created
		}()
	}
	wg.Wait()
	close(results)

	createdCount := 0
	for c := range results {
		if c {
			createdCount++
		}
	}
	assert.Equal(t, 1, createdCount)
	badges, err := s.ListBadges(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, badges, 1)
}

func TestMemoryRecordCheckInUpdatesAnalyticsOnce(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	u := &models.User{Username: "ana", Email: "ana@example.com"}
	require.NoError(t, s.CreateUser(ctx, u))

	at := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	c := models.CheckIn{UserID: u.ID, RoutineID: 10, TaskID: 11, Date: "2024-03-01"}

	first, err := s.RecordCheckIn(ctx, &c, at)
	require.NoError(t, err)
	assert.True(t, first.Created)
	assert.Equal(t, 0, first.Previous.TotalCheckIns)
	assert.Equal(t, 1, first.Current.TotalCheckIns)

	again := models.CheckIn{UserID: u.ID, RoutineID: 10, TaskID: 11, Date: "2024-03-01"}
	second, err := s.RecordCheckIn(ctx, &again, at)
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.Equal(t, first.CheckIn.ID, second.CheckIn.ID)
	assert.Equal(t, 1, second.Current.TotalCheckIns)

	deleted, err := s.DeleteCheckIn(ctx, u.ID, 10, 11, "2024-03-01")
	require.NoError(t, err)
	assert.True(t, deleted)
	got, _ := s.GetUser(ctx, u.ID)
	assert.Equal(t, 0, got.Analytics.TotalCheckIns)

	deleted, err = s.DeleteCheckIn(ctx, u.ID, 10, 11, "2024-03-01")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestMemoryRecordCheckInUnknownUser(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.RecordCheckIn(context.Background(), &models.CheckIn{UserID: 99}, time.Now())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryDuplicateEmail(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.CreateUser(ctx, &models.User{Email: "a@example.com"}))
	assert.ErrorIs(t, s.CreateUser(ctx, &models.User{Email: "A@example.com"}), ErrDuplicate)
}

func TestMemoryRoutinesScopedToUser(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	r := &models.Routine{UserID: 1, Name: "Morning", Tasks: []models.RoutineTask{
		{Label: "b", Position: 1, IsActive: true},
		{Label: "a", Position: 0, IsActive: true},
	}}
	require.NoError(t, s.CreateRoutine(ctx, r))

	_, err := s.GetRoutine(ctx, 2, r.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := s.GetRoutine(ctx, 1, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "a", got.Tasks[0].Label)

	require.NoError(t, s.ArchiveRoutine(ctx, 1, r.ID))
	active, _ := s.ListRoutines(ctx, 1, false)
	assert.Empty(t, active)
	all, _ := s.ListRoutines(ctx, 1, true)
	assert.Len(t, all, 1)
	n, _ := s.CountRoutines(ctx, 1)
	assert.Equal(t, int64(1), n)
}

func TestMemoryCountCheckInsByDayRange(t *testing.T) {
	s := NewMemoryStore()
	s.AddCheckIn(models.CheckIn{UserID: 1, RoutineID: 1, TaskID: 1, Date: "2024-02-29"})
	s.AddCheckIn(models.CheckIn{UserID: 1, RoutineID: 1, TaskID: 1, Date: "2024-03-01"})
	s.AddCheckIn(models.CheckIn{UserID: 1, RoutineID: 1, TaskID: 2, Date: "2024-03-01"})
	s.AddCheckIn(models.CheckIn{UserID: 2, RoutineID: 1, TaskID: 1, Date: "2024-03-01"})

	got, err := s.CountCheckInsByDay(context.Background(), 1, "2024-03-01", "2024-03-07")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"2024-03-01": 2}, got)
}

func TestMemoryMarkBadgesSeen(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		_, _ = s.InsertBadge(ctx, &models.Badge{UserID: 1, BadgeID: id, EarnedAt: time.Now()})
	}
	n, err := s.MarkBadgesSeen(ctx, 1, []string{"a"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	n, err = s.MarkBadgesSeen(ctx, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}
