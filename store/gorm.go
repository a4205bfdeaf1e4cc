package store

import (
	"context"
	"errors"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Kramxie/neo-routine-sub000/models"
)

// mysqlDuplicateEntry is MySQL's ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

// GormStore implements Store on a gorm connection (MySQL in production).
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps db.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

var _ Store = (*GormStore)(nil)

func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var me *mysqldriver.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *GormStore) CreateUser(ctx context.Context, u *models.User) error {
	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

func (s *GormStore) GetUser(ctx context.Context, userID uint) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, userID).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (s *GormStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (s *GormStore) ListClients(ctx context.Context, coachID uint) ([]models.User, error) {
	var users []models.User
	err := s.db.WithContext(ctx).Where("coach_id = ?", coachID).Order("id ASC").Find(&users).Error
	return users, err
}

func (s *GormStore) CreateRoutine(ctx context.Context, r *models.Routine) error {
	return s.db.WithContext(ctx).Create(r).Error
}

func (s *GormStore) GetRoutine(ctx context.Context, userID, routineID uint) (*models.Routine, error) {
	var r models.Routine
	err := s.db.WithContext(ctx).
		Preload("Tasks", orderTasks).
		Where("id = ? AND user_id = ?", routineID, userID).
		First(&r).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &r, nil
}

func (s *GormStore) ListRoutines(ctx context.Context, userID uint, includeArchived bool) ([]models.Routine, error) {
	q := s.db.WithContext(ctx).Preload("Tasks", orderTasks).Where("user_id = ?", userID)
	if !includeArchived {
		q = q.Where("is_archived = ?", false)
	}
	var routines []models.Routine
	err := q.Order("id ASC").Find(&routines).Error
	return routines, err
}

func orderTasks(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC, id ASC")
}

func (s *GormStore) ArchiveRoutine(ctx context.Context, userID, routineID uint) error {
	res := s.db.WithContext(ctx).Model(&models.Routine{}).
		Where("id = ? AND user_id = ?", routineID, userID).
		Update("is_archived", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) CountRoutines(ctx context.Context, userID uint) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Routine{}).Where("user_id = ?", userID).Count(&n).Error
	return n, err
}

func (s *GormStore) RecordCheckIn(ctx context.Context, c *models.CheckIn, at time.Time) (CheckInResult, error) {
	var out CheckInResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, c.UserID).Error; err != nil {
			return notFound(err)
		}
		out.Previous = user.Analytics
		out.Current = user.Analytics

		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(c)
		if res.Error != nil && !isDuplicate(res.Error) {
			return res.Error
		}
		if res.Error != nil || res.RowsAffected == 0 {
			if err := tx.Where("user_id = ? AND routine_id = ? AND task_id = ? AND date = ?",
				c.UserID, c.RoutineID, c.TaskID, c.Date).First(&out.CheckIn).Error; err != nil {
				return err
			}
			return nil
		}

		out.Created = true
		out.CheckIn = *c
		user.Analytics.RecordActivity(at)
		out.Current = user.Analytics
		return tx.Model(&user).Updates(map[string]interface{}{
			"analytics_total_check_ins":  user.Analytics.TotalCheckIns,
			"analytics_current_streak":   user.Analytics.CurrentStreak,
			"analytics_longest_streak":   user.Analytics.LongestStreak,
			"analytics_last_active_date": user.Analytics.LastActiveDate,
		}).Error
	})
	return out, err
}

func (s *GormStore) DeleteCheckIn(ctx context.Context, userID, routineID, taskID uint, date string) (bool, error) {
	deleted := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, userID).Error; err != nil {
			return notFound(err)
		}
		res := tx.Where("user_id = ? AND routine_id = ? AND task_id = ? AND date = ?",
			userID, routineID, taskID, date).Delete(&models.CheckIn{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		deleted = true
		user.Analytics.RemoveActivity()
		return tx.Model(&user).Update("analytics_total_check_ins", user.Analytics.TotalCheckIns).Error
	})
	return deleted, err
}

func (s *GormStore) CountCheckInsByDay(ctx context.Context, userID uint, from, to string) (map[string]int, error) {
	type dayCount struct {
		Date  string
		Count int
	}
	var rows []dayCount
	err := s.db.WithContext(ctx).Model(&models.CheckIn{}).
		Select("date, COUNT(*) AS count").
		Where("user_id = ? AND date >= ? AND date <= ?", userID, from, to).
		Group("date").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int, len(rows))
	for _, r := range rows {
		out[r.Date] = r.Count
	}
	return out, nil
}

func (s *GormStore) ListCheckIns(ctx context.Context, userID uint, from, to string) ([]models.CheckIn, error) {
	var items []models.CheckIn
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND date >= ? AND date <= ?", userID, from, to).
		Order("date ASC, id ASC").
		Find(&items).Error
	return items, err
}

func (s *GormStore) CreateGoal(ctx context.Context, g *models.Goal) error {
	return s.db.WithContext(ctx).Create(g).Error
}

func (s *GormStore) GetGoal(ctx context.Context, userID, goalID uint) (*models.Goal, error) {
	var g models.Goal
	if err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", goalID, userID).First(&g).Error; err != nil {
		return nil, notFound(err)
	}
	return &g, nil
}

func (s *GormStore) UpdateGoalValue(ctx context.Context, userID, goalID uint, value float64) (*models.Goal, error) {
	res := s.db.WithContext(ctx).Model(&models.Goal{}).
		Where("id = ? AND user_id = ?", goalID, userID).
		Update("current_value", value)
	if res.Error != nil {
		return nil, res.Error
	}
	return s.GetGoal(ctx, userID, goalID)
}

func (s *GormStore) ListGoals(ctx context.Context, userID uint) ([]models.Goal, error) {
	var goals []models.Goal
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("id ASC").Find(&goals).Error
	return goals, err
}

func (s *GormStore) CountGoals(ctx context.Context, userID uint) (int64, int64, error) {
	var total, completed int64
	if err := s.db.WithContext(ctx).Model(&models.Goal{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return 0, 0, err
	}
	if err := s.db.WithContext(ctx).Model(&models.Goal{}).
		Where("user_id = ? AND target_value > 0 AND current_value >= target_value", userID).
		Count(&completed).Error; err != nil {
		return 0, 0, err
	}
	return total, completed, nil
}

func (s *GormStore) InsertBadge(ctx context.Context, b *models.Badge) (bool, error) {
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(b)
	if res.Error != nil {
		if isDuplicate(res.Error) {
			return false, ErrDuplicate
		}
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s *GormStore) ListBadges(ctx context.Context, userID uint) ([]models.Badge, error) {
	var badges []models.Badge
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("earned_at ASC, id ASC").Find(&badges).Error
	return badges, err
}

func (s *GormStore) MarkBadgesSeen(ctx context.Context, userID uint, badgeIDs []string) (int64, error) {
	q := s.db.WithContext(ctx).Model(&models.Badge{}).Where("user_id = ? AND seen = ?", userID, false)
	if len(badgeIDs) > 0 {
		q = q.Where("badge_id IN ?", badgeIDs)
	}
	res := q.Update("seen", true)
	return res.RowsAffected, res.Error
}
