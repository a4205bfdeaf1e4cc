package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Kramxie/neo-routine-sub000/models"
)

type checkInKey struct {
	userID, routineID, taskID uint
	date                      string
}

type badgeKey struct {
	userID  uint
	badgeID string
}

// MemoryStore is an in-process Store. It enforces the same uniqueness rules
// as the SQL schema and is used for local runs and tests.
type MemoryStore struct {
	mu       sync.RWMutex
	nextID   uint
	users    map[uint]*models.User
	routines map[uint]*models.Routine
	checkIns map[checkInKey]models.CheckIn
	goals    map[uint]*models.Goal
	badges   map[badgeKey]models.Badge
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    map[uint]*models.User{},
		routines: map[uint]*models.Routine{},
		checkIns: map[checkInKey]models.CheckIn{},
		goals:    map[uint]*models.Goal{},
		badges:   map[badgeKey]models.Badge{},
	}
}

var _ Store = (*MemoryStore)(nil)

func (m *MemoryStore) id() uint {
	m.nextID++
	return m.nextID
}

func (m *MemoryStore) CreateUser(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.Email != "" {
		for _, existing := range m.users {
			if strings.EqualFold(existing.Email, u.Email) {
				return ErrDuplicate
			}
		}
	}
	u.ID = m.id()
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	if u.Role == "" {
		u.Role = models.RoleUser
	}
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *MemoryStore) GetUser(_ context.Context, userID uint) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[userID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *MemoryStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) ListClients(_ context.Context, coachID uint) ([]models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.User
	for _, u := range m.users {
		if u.CoachID != nil && *u.CoachID == coachID {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// SetAnalytics overwrites a user's counters.
func (m *MemoryStore) SetAnalytics(userID uint, a models.Analytics) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return ErrNotFound
	}
	u.Analytics = a
	return nil
}

func (m *MemoryStore) CreateRoutine(_ context.Context, r *models.Routine) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r.ID = m.id()
	now := time.Now()
	r.CreatedAt, r.UpdatedAt = now, now
	for i := range r.Tasks {
		r.Tasks[i].ID = m.id()
		r.Tasks[i].RoutineID = r.ID
	}
	m.routines[r.ID] = cloneRoutine(r)
	return nil
}

func cloneRoutine(r *models.Routine) *models.Routine {
	cp := *r
	cp.Tasks = append([]models.RoutineTask(nil), r.Tasks...)
	sort.SliceStable(cp.Tasks, func(i, j int) bool { return cp.Tasks[i].Position < cp.Tasks[j].Position })
	return &cp
}

func (m *MemoryStore) GetRoutine(_ context.Context, userID, routineID uint) (*models.Routine, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.routines[routineID]
	if !ok || r.UserID != userID {
		return nil, ErrNotFound
	}
	return cloneRoutine(r), nil
}

func (m *MemoryStore) ListRoutines(_ context.Context, userID uint, includeArchived bool) ([]models.Routine, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.Routine
	for _, r := range m.routines {
		if r.UserID != userID || (r.IsArchived && !includeArchived) {
			continue
		}
		out = append(out, *cloneRoutine(r))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStore) ArchiveRoutine(_ context.Context, userID, routineID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.routines[routineID]
	if !ok || r.UserID != userID {
		return ErrNotFound
	}
	r.IsArchived = true
	return nil
}

func (m *MemoryStore) CountRoutines(_ context.Context, userID uint) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var n int64
	for _, r := range m.routines {
		if r.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) RecordCheckIn(_ context.Context, c *models.CheckIn, at time.Time) (CheckInResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[c.UserID]
	if !ok {
		return CheckInResult{}, ErrNotFound
	}
	out := CheckInResult{Previous: u.Analytics, Current: u.Analytics}
	key := checkInKey{c.UserID, c.RoutineID, c.TaskID, c.Date}
	if existing, dup := m.checkIns[key]; dup {
		out.CheckIn = existing
		return out, nil
	}
	c.ID = m.id()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = at
	}
	m.checkIns[key] = *c
	u.Analytics.RecordActivity(at)
	out.Created = true
	out.CheckIn = *c
	out.Current = u.Analytics
	return out, nil
}

// AddCheckIn inserts a check-in without touching the user's counters.
func (m *MemoryStore) AddCheckIn(c models.CheckIn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID == 0 {
		c.ID = m.id()
	}
	m.checkIns[checkInKey{c.UserID, c.RoutineID, c.TaskID, c.Date}] = c
}

func (m *MemoryStore) DeleteCheckIn(_ context.Context, userID, routineID, taskID uint, date string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return false, ErrNotFound
	}
	key := checkInKey{userID, routineID, taskID, date}
	if _, ok := m.checkIns[key]; !ok {
		return false, nil
	}
	delete(m.checkIns, key)
	u.Analytics.RemoveActivity()
	return true, nil
}

func (m *MemoryStore) CountCheckInsByDay(_ context.Context, userID uint, from, to string) (map[string]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := map[string]int{}
	for k := range m.checkIns {
		if k.userID == userID && k.date >= from && k.date <= to {
			out[k.date]++
		}
	}
	return out, nil
}

func (m *MemoryStore) ListCheckIns(_ context.Context, userID uint, from, to string) ([]models.CheckIn, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.CheckIn
	for k, c := range m.checkIns {
		if k.userID == userID && k.date >= from && k.date <= to {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *MemoryStore) CreateGoal(_ context.Context, g *models.Goal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	g.ID = m.id()
	now := time.Now()
	g.CreatedAt, g.UpdatedAt = now, now
	cp := *g
	m.goals[g.ID] = &cp
	return nil
}

func (m *MemoryStore) GetGoal(_ context.Context, userID, goalID uint) (*models.Goal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.goals[goalID]
	if !ok || g.UserID != userID {
		return nil, ErrNotFound
	}
	cp := *g
	return &cp, nil
}

func (m *MemoryStore) UpdateGoalValue(_ context.Context, userID, goalID uint, value float64) (*models.Goal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.goals[goalID]
	if !ok || g.UserID != userID {
		return nil, ErrNotFound
	}
	g.CurrentValue = value
	g.UpdatedAt = time.Now()
	cp := *g
	return &cp, nil
}

func (m *MemoryStore) ListGoals(_ context.Context, userID uint) ([]models.Goal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.Goal
	for _, g := range m.goals {
		if g.UserID == userID {
			out = append(out, *g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStore) CountGoals(_ context.Context, userID uint) (int64, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var total, completed int64
	for _, g := range m.goals {
		if g.UserID != userID {
			continue
		}
		total++
		if g.IsCompleted() {
			completed++
		}
	}
	return total, completed, nil
}

func (m *MemoryStore) InsertBadge(_ context.Context, b *models.Badge) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := badgeKey{b.UserID, b.BadgeID}
	if _, ok := m.badges[key]; ok {
		return false, nil
	}
	b.ID = m.id()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = b.EarnedAt
	}
	m.badges[key] = *b
	return true, nil
}

func (m *MemoryStore) ListBadges(_ context.Context, userID uint) ([]models.Badge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.Badge
	for k, b := range m.badges {
		if k.userID == userID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].EarnedAt.Equal(out[j].EarnedAt) {
			return out[i].EarnedAt.Before(out[j].EarnedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *MemoryStore) MarkBadgesSeen(_ context.Context, userID uint, badgeIDs []string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	want := map[string]bool{}
	for _, id := range badgeIDs {
		want[id] = true
	}
	var n int64
	for k, b := range m.badges {
		if k.userID != userID || b.Seen {
			continue
		}
		if len(want) > 0 && !want[k.badgeID] {
			continue
		}
		b.Seen = true
		m.badges[k] = b
		n++
	}
	return n, nil
}
