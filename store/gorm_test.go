package store

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Kramxie/neo-routine-sub000/models"
)

func newMockStore(t *testing.T) (*GormStore, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	gdb, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		TranslateError:         true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return NewGormStore(gdb), mock
}

func newBadge() *models.Badge {
	return &models.Badge{UserID: 1, BadgeID: "streak_7", EarnedAt: time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)}
}

func TestGormInsertBadgeCreated(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `badges`")).
		WillReturnResult(sqlmock.NewResult(7, 1))

	b := newBadge()
	created, err := s.InsertBadge(context.Background(), b)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, uint(7), b.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormInsertBadgeExistingRowIsNoop(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `badges`")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	created, err := s.InsertBadge(context.Background(), newBadge())
	require.NoError(t, err)
	assert.False(t, created)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormInsertBadgeUniqueViolation(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `badges`")).
		WillReturnError(&mysqldriver.MySQLError{Number: 1062, Message: "Duplicate entry '1-streak_7'"})

	created, err := s.InsertBadge(context.Background(), newBadge())
	assert.False(t, created)
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestGormInsertBadgeInfraError(t *testing.T) {
	s, mock := newMockStore(t)
	boom := errors.New("connection refused")
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `badges`")).WillReturnError(boom)

	created, err := s.InsertBadge(context.Background(), newBadge())
	assert.False(t, created)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrDuplicate)
}

func TestGormCountCheckInsByDay(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT date, COUNT(*) AS count FROM `check_ins`")).
		WillReturnRows(sqlmock.NewRows([]string{"date", "count"}).
			AddRow("2024-03-01", 2).
			AddRow("2024-03-04", 5))

	got, err := s.CountCheckInsByDay(context.Background(), 1, "2024-03-01", "2024-03-07")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"2024-03-01": 2, "2024-03-04": 5}, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormCountGoals(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT count(*) FROM `goals`")).
		WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow(4))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT count(*) FROM `goals`")).
		WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow(1))

	total, completed, err := s.CountGoals(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	assert.Equal(t, int64(1), completed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormMarkBadgesSeen(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE `badges` SET `seen`=?")).
		WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := s.MarkBadgesSeen(context.Background(), 1, []string{"streak_3", "streak_7"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsDuplicate(t *testing.T) {
	assert.True(t, isDuplicate(gorm.ErrDuplicatedKey))
	assert.True(t, isDuplicate(&mysqldriver.MySQLError{Number: 1062}))
	assert.False(t, isDuplicate(&mysqldriver.MySQLError{Number: 1213}))
	assert.False(t, isDuplicate(errors.New("x")))
}
