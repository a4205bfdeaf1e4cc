// Package store persists users, routines, check-ins, goals and badges.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/Kramxie/neo-routine-sub000/models"
)

var (
	// ErrNotFound is returned when the requested record does not exist for the user.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique constraint rejected a write.
	ErrDuplicate = errors.New("duplicate record")
)

// CheckInResult describes the outcome of recording one check-in.
type CheckInResult struct {
	CheckIn models.CheckIn
	// Created is false when the same (user, routine, task, date) already existed.
	Created bool
	// Previous holds the user's counters before this check-in was applied.
	Previous models.Analytics
	Current  models.Analytics
}

// Store is the persistence contract used by services and controllers.
type Store interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, userID uint) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListClients(ctx context.Context, coachID uint) ([]models.User, error)

	CreateRoutine(ctx context.Context, r *models.Routine) error
	GetRoutine(ctx context.Context, userID, routineID uint) (*models.Routine, error)
	ListRoutines(ctx context.Context, userID uint, includeArchived bool) ([]models.Routine, error)
	ArchiveRoutine(ctx context.Context, userID, routineID uint) error
	CountRoutines(ctx context.Context, userID uint) (int64, error)

	// RecordCheckIn inserts c if absent and applies it to the user's counters in
	// the same transaction. at is the moment the user acted.
	RecordCheckIn(ctx context.Context, c *models.CheckIn, at time.Time) (CheckInResult, error)
	// DeleteCheckIn removes one check-in and decrements the user's total.
	DeleteCheckIn(ctx context.Context, userID, routineID, taskID uint, date string) (bool, error)
	// CountCheckInsByDay returns check-in counts keyed by ISO date for from..to inclusive.
	CountCheckInsByDay(ctx context.Context, userID uint, from, to string) (map[string]int, error)
	ListCheckIns(ctx context.Context, userID uint, from, to string) ([]models.CheckIn, error)

	CreateGoal(ctx context.Context, g *models.Goal) error
	GetGoal(ctx context.Context, userID, goalID uint) (*models.Goal, error)
	UpdateGoalValue(ctx context.Context, userID, goalID uint, value float64) (*models.Goal, error)
	ListGoals(ctx context.Context, userID uint) ([]models.Goal, error)
	CountGoals(ctx context.Context, userID uint) (total, completed int64, err error)

	// InsertBadge creates b unless (UserID, BadgeID) already exists. created is
	// false for an existing row; a unique-index violation surfaces as ErrDuplicate.
	InsertBadge(ctx context.Context, b *models.Badge) (created bool, err error)
	ListBadges(ctx context.Context, userID uint) ([]models.Badge, error)
	// MarkBadgesSeen flags the given badges, or all unseen ones when badgeIDs is empty.
	MarkBadgesSeen(ctx context.Context, userID uint, badgeIDs []string) (int64, error)
}
