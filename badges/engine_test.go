package badges

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Kramxie/neo-routine-sub000/models"
	"github.com/Kramxie/neo-routine-sub000/store"
)

var noon = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }

func newTestEngine(s Store, now time.Time, opts ...Option) *Engine {
	opts = append([]Option{WithClock(fixedClock(now)), WithLocation(time.UTC)}, opts...)
	return NewEngine(s, opts...)
}

func newUser(t *testing.T, s *store.MemoryStore, a models.Analytics) uint {
	t.Helper()
	u := &models.User{Username: "ana"}
	require.NoError(t, s.CreateUser(context.Background(), u))
	require.NoError(t, s.SetAnalytics(u.ID, a))
	return u.ID
}

func ids(awarded []AwardedBadge) []string {
	out := make([]string, 0, len(awarded))
	for _, b := range awarded {
		out = append(out, b.BadgeID)
	}
	sort.Strings(out)
	return out
}

func heldBadges(t *testing.T, s *store.MemoryStore, userID uint) map[string]bool {
	t.Helper()
	list, err := s.ListBadges(context.Background(), userID)
	require.NoError(t, err)
	out := map[string]bool{}
	for _, b := range list {
		out[b.BadgeID] = true
	}
	return out
}

// failingStore injects errors into selected reads or writes.
type failingStore struct {
	*store.MemoryStore
	countGoalsErr error
	getUserErr    error
	insertErr     error
}

func (f *failingStore) CountGoals(ctx context.Context, userID uint) (int64, int64, error) {
	if f.countGoalsErr != nil {
		return 0, 0, f.countGoalsErr
	}
	return f.MemoryStore.CountGoals(ctx, userID)
}

func (f *failingStore) GetUser(ctx context.Context, userID uint) (*models.User, error) {
	if f.getUserErr != nil {
		return nil, f.getUserErr
	}
	return f.MemoryStore.GetUser(ctx, userID)
}

func (f *failingStore) InsertBadge(ctx context.Context, b *models.Badge) (bool, error) {
	if f.insertErr != nil {
		return false, f.insertErr
	}
	return f.MemoryStore.InsertBadge(ctx, b)
}

func TestAwardBadgeIsIdempotent(t *testing.T) {
	s := store.NewMemoryStore()
	e := newTestEngine(s, noon)
	ctx := context.Background()

	first := e.AwardBadge(ctx, 1, "streak_7", map[string]interface{}{"streak": 7})
	assert.True(t, first.Awarded)
	assert.Empty(t, first.Error)

	second := e.AwardBadge(ctx, 1, "streak_7", nil)
	assert.False(t, second.Awarded)
	assert.True(t, second.AlreadyExists)
	assert.Empty(t, second.Error)

	list, err := s.ListBadges(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, noon, list[0].EarnedAt)
	assert.EqualValues(t, 7, list[0].Context["streak"])
}

func TestAwardBadgeConcurrentCallersAwardOnce(t *testing.T) {
	s := store.NewMemoryStore()
	e := newTestEngine(s, noon)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		awarded int
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if e.AwardBadge(context.Background(), 1, "first_checkin", nil).Awarded {
				mu.Lock()
				awarded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, awarded)
}

func TestAwardBadgeUniqueViolationIsNotAnError(t *testing.T) {
	s := &failingStore{MemoryStore: store.NewMemoryStore(), insertErr: store.ErrDuplicate}
	res := newTestEngine(s, noon).AwardBadge(context.Background(), 1, "streak_3", nil)
	assert.False(t, res.Awarded)
	assert.True(t, res.AlreadyExists)
	assert.Empty(t, res.Error)
}

func TestAwardBadgeInfraErrorIsReportedAndLogged(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	s := &failingStore{MemoryStore: store.NewMemoryStore(), insertErr: errors.New("db down")}
	res := newTestEngine(s, noon, WithLogger(zap.New(core))).AwardBadge(context.Background(), 1, "streak_3", nil)

	assert.False(t, res.Awarded)
	assert.False(t, res.AlreadyExists)
	assert.Equal(t, "db down", res.Error)
	assert.Equal(t, 1, logs.FilterMessage("award badge failed").Len())
}

func TestAwardBadgeUnknownID(t *testing.T) {
	res := newTestEngine(store.NewMemoryStore(), noon).AwardBadge(context.Background(), 1, "nope", nil)
	assert.False(t, res.Awarded)
	assert.NotEmpty(t, res.Error)
}

func TestRunBadgeChecksSeventhDayScenario(t *testing.T) {
	s := store.NewMemoryStore()
	userID := newUser(t, s, models.Analytics{TotalCheckIns: 7, CurrentStreak: 7, LongestStreak: 7})
	e := newTestEngine(s, noon)
	ctx := context.Background()

	got := ids(e.RunBadgeChecks(ctx, userID, &CompletionData{CheckIn: true, TodayPercent: 50}))
	assert.Contains(t, got, "streak_7")
	assert.Contains(t, got, "streak_3")
	assert.Contains(t, got, "first_checkin")
	assert.NotContains(t, got, "streak_14")

	again := e.RunBadgeChecks(ctx, userID, &CompletionData{CheckIn: true, TodayPercent: 50})
	assert.NotNil(t, again)
	assert.Empty(t, again)
}

func TestRunBadgeChecksCoversEveryReachedMilestone(t *testing.T) {
	for _, n := range []int{0, 2, 3, 6, 7, 29, 30, 99, 100, 364, 365, 500} {
		s := store.NewMemoryStore()
		userID := newUser(t, s, models.Analytics{CurrentStreak: n})
		e := newTestEngine(s, noon)

		e.RunBadgeChecks(context.Background(), userID, nil)
		e.RunBadgeChecks(context.Background(), userID, nil)

		held := heldBadges(t, s, userID)
		for _, m := range StreakMilestones {
			assert.Equal(t, m <= n, held[StreakBadgeID(m)], "streak=%d milestone=%d", n, m)
		}
	}
}

func TestRunBadgeChecksIsolatesFailingChecker(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	s := &failingStore{MemoryStore: store.NewMemoryStore(), countGoalsErr: errors.New("timeout")}
	userID := newUser(t, s.MemoryStore, models.Analytics{TotalCheckIns: 1, CurrentStreak: 3})
	e := newTestEngine(s, noon, WithLogger(zap.New(core)))

	got := ids(e.RunBadgeChecks(context.Background(), userID, nil))
	assert.Equal(t, []string{"first_checkin", "streak_3"}, got)
	assert.Equal(t, 1, logs.FilterField(zap.String("checker", "goal")).Len())
}

func TestRunBadgeChecksAllReadsFailing(t *testing.T) {
	s := &failingStore{
		MemoryStore:   store.NewMemoryStore(),
		countGoalsErr: errors.New("down"),
		getUserErr:    errors.New("down"),
	}
	got := newTestEngine(s, noon).RunBadgeChecks(context.Background(), 1, nil)
	assert.Empty(t, got)
}

func TestRunBadgeChecksWithoutCheckInSkipsCheckInBadges(t *testing.T) {
	ctx := context.Background()
	for _, hour := range []int{5, 23} {
		at := time.Date(2024, 3, 15, hour, 0, 0, 0, time.UTC)
		away := at.AddDate(0, 0, -8)
		s := store.NewMemoryStore()
		userID := newUser(t, s, models.Analytics{LastActiveDate: &away})
		require.NoError(t, s.CreateGoal(ctx, &models.Goal{UserID: userID, Title: "read", TargetValue: 10}))
		require.NoError(t, s.CreateRoutine(ctx, &models.Routine{UserID: userID, Name: "r"}))
		e := newTestEngine(s, at)

		got := ids(e.RunBadgeChecks(ctx, userID, nil))
		assert.Equal(t, []string{"first_goal", "first_routine"}, got, "hour=%d", hour)

		got = ids(e.RunBadgeChecks(ctx, userID, &CompletionData{TodayPercent: 100}))
		assert.Empty(t, got, "hour=%d", hour)

		held := heldBadges(t, s, userID)
		for _, id := range []string{EarlyBird, NightOwl, Comeback, PerfectDay} {
			assert.False(t, held[id], "hour=%d badge=%s", hour, id)
		}
	}
}

func TestRunBadgeChecksOnCheckInAwardsCheckInBadges(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2024, 3, 15, 23, 0, 0, 0, time.UTC)
	away := at.AddDate(0, 0, -8)
	s := store.NewMemoryStore()
	userID := newUser(t, s, models.Analytics{LastActiveDate: &away})
	e := newTestEngine(s, at)

	got := ids(e.RunBadgeChecks(ctx, userID, &CompletionData{CheckIn: true, TodayPercent: 100}))
	assert.Equal(t, []string{Comeback, NightOwl, PerfectDay}, got)
}

func TestTimeOfDayBadges(t *testing.T) {
	cases := []struct {
		hour, minute int
		want         []string
	}{
		{6, 59, []string{EarlyBird}},
		{7, 0, nil},
		{21, 59, nil},
		{22, 0, []string{NightOwl}},
		{0, 30, []string{EarlyBird}},
	}
	for _, tc := range cases {
		s := store.NewMemoryStore()
		userID := newUser(t, s, models.Analytics{})
		at := time.Date(2024, 3, 15, tc.hour, tc.minute, 0, 0, time.UTC)
		got, err := newTestEngine(s, at).checkAchievements(context.Background(), userID, nil)
		require.NoError(t, err)
		if tc.want == nil {
			assert.Empty(t, got, "%02d:%02d", tc.hour, tc.minute)
			continue
		}
		assert.Equal(t, tc.want, ids(got), "%02d:%02d", tc.hour, tc.minute)
	}
}

func TestPerfectDayNeedsFullCompletion(t *testing.T) {
	s := store.NewMemoryStore()
	userID := newUser(t, s, models.Analytics{})
	e := newTestEngine(s, noon)

	got, err := e.checkAchievements(context.Background(), userID, &CompletionData{TodayPercent: 99})
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = e.checkAchievements(context.Background(), userID, &CompletionData{TodayPercent: 100})
	require.NoError(t, err)
	assert.Equal(t, []string{PerfectDay}, ids(got))
}

func TestPerfectDayRecordsCheckInDate(t *testing.T) {
	s := store.NewMemoryStore()
	userID := newUser(t, s, models.Analytics{})

	got, err := newTestEngine(s, noon).checkAchievements(context.Background(), userID,
		&CompletionData{CheckIn: true, Date: "2024-03-13", TodayPercent: 100})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "2024-03-13", got[0].Context["date"])

	list, err := s.ListBadges(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "2024-03-13", list[0].Context["date"])
}

func seedWeek(t *testing.T, s *store.MemoryStore, userID uint, perDay []int) {
	t.Helper()
	ctx := context.Background()
	active := &models.Routine{UserID: userID, Name: "Morning", Tasks: []models.RoutineTask{
		{Label: "water", IsActive: true, Position: 0},
		{Label: "stretch", IsActive: true, Position: 1},
		{Label: "retired", IsActive: false, Position: 2},
	}}
	require.NoError(t, s.CreateRoutine(ctx, active))
	archived := &models.Routine{UserID: userID, Name: "Old", Tasks: []models.RoutineTask{{Label: "x", IsActive: true}}}
	require.NoError(t, s.CreateRoutine(ctx, archived))
	require.NoError(t, s.ArchiveRoutine(ctx, userID, archived.ID))

	for i, n := range perDay {
		date := noon.AddDate(0, 0, i-len(perDay)+1).Format("2006-01-02")
		for k := 0; k < n; k++ {
			s.AddCheckIn(models.CheckIn{UserID: userID, RoutineID: active.ID, TaskID: uint(1000 + k), Date: date})
		}
	}
}

func TestPerfectWeekAwardedWhenEveryDayQualifies(t *testing.T) {
	s := store.NewMemoryStore()
	userID := newUser(t, s, models.Analytics{})
	seedWeek(t, s, userID, []int{2, 2, 3, 2, 2, 2, 2})

	got, err := newTestEngine(s, noon).checkPerfectWeek(context.Background(), userID, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{PerfectWeek}, ids(got))
}

func TestPerfectWeekNotAwardedWhenOneDayFallsShort(t *testing.T) {
	for short := 0; short < 7; short++ {
		perDay := []int{2, 2, 2, 2, 2, 2, 2}
		perDay[short] = 1
		s := store.NewMemoryStore()
		userID := newUser(t, s, models.Analytics{})
		seedWeek(t, s, userID, perDay)

		got, err := newTestEngine(s, noon).checkPerfectWeek(context.Background(), userID, nil)
		require.NoError(t, err)
		assert.Empty(t, got, "day %d short", short)
	}
}

func TestPerfectWeekWithoutTasks(t *testing.T) {
	s := store.NewMemoryStore()
	userID := newUser(t, s, models.Analytics{})
	got, err := newTestEngine(s, noon).checkPerfectWeek(context.Background(), userID, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestComeback(t *testing.T) {
	eightDaysAgo := noon.Add(-8 * 24 * time.Hour)
	sixDaysAgo := noon.Add(-6 * 24 * time.Hour)
	exactlySeven := noon.Add(-7 * 24 * time.Hour)
	ctx := context.Background()

	s := store.NewMemoryStore()
	away := newUser(t, s, models.Analytics{LastActiveDate: &eightDaysAgo})
	recent := newUser(t, s, models.Analytics{LastActiveDate: &sixDaysAgo})
	boundary := newUser(t, s, models.Analytics{LastActiveDate: &exactlySeven})
	never := newUser(t, s, models.Analytics{})
	e := newTestEngine(s, noon)

	got, err := e.checkComeback(ctx, away, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{Comeback}, ids(got))
	assert.EqualValues(t, 8, got[0].Context["days_away"])

	got, _ = e.checkComeback(ctx, recent, nil)
	assert.Empty(t, got)

	got, _ = e.checkComeback(ctx, boundary, nil)
	assert.Equal(t, []string{Comeback}, ids(got))

	got, _ = e.checkComeback(ctx, never, nil)
	assert.Empty(t, got)

	// The check-in already moved the stored date to today; the caller passes the prior one.
	today := noon
	moved := newUser(t, s, models.Analytics{LastActiveDate: &today})
	got, _ = e.checkComeback(ctx, moved, &CompletionData{PreviousActiveDate: &eightDaysAgo})
	assert.Equal(t, []string{Comeback}, ids(got))
}

func TestGoalAndRoutineMilestones(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()
	userID := newUser(t, s, models.Analytics{})
	for i := 0; i < 3; i++ {
		require.NoError(t, s.CreateRoutine(ctx, &models.Routine{UserID: userID, Name: "r"}))
	}
	require.NoError(t, s.CreateGoal(ctx, &models.Goal{UserID: userID, Title: "read", CurrentValue: 12, TargetValue: 10}))
	require.NoError(t, s.CreateGoal(ctx, &models.Goal{UserID: userID, Title: "run", CurrentValue: 1, TargetValue: 10}))

	got := ids(newTestEngine(s, noon).RunBadgeChecks(ctx, userID, nil))
	assert.Equal(t, []string{"first_goal", "first_routine", "goal_achiever_1", "routines_3"}, got)
}

func TestCatalogCoversMilestones(t *testing.T) {
	for _, n := range StreakMilestones {
		_, ok := Lookup(StreakBadgeID(n))
		assert.True(t, ok)
	}
	for _, id := range []string{"first_checkin", "checkins_1000", FirstGoal, "goal_achiever_10", "first_routine", PerfectWeek, Comeback, EarlyBird, NightOwl, PerfectDay} {
		_, ok := Lookup(id)
		assert.True(t, ok, id)
	}
	assert.Len(t, Catalog(), len(StreakMilestones)+len(CheckInMilestones)+1+len(GoalsCompletedMilestones)+len(RoutineMilestones)+5)
}
