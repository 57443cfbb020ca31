package repository

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"snapfeed/internal/database"
	"snapfeed/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// newTestDB opens an isolated in-memory SQLite database with the account
// tables migrated, plus the feed tables when withFeed is set.
func newTestDB(t *testing.T, withFeed bool) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:?_foreign_keys=on"), database.GormConfig())
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(database.AccountModels()...))
	if withFeed {
		require.NoError(t, db.AutoMigrate(database.FeedModels()...))
	}
	return db
}

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func createUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	display := "Display " + username
	u := &models.User{
		Email:        fmt.Sprintf("%s@example.com", username),
		Username:     username,
		PasswordHash: "hash",
		DisplayName:  &display,
		IsVerified:   true,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

// tickingClock returns a clock that advances one second per reading so rows
// created back to back have distinct, ordered timestamps.
func tickingClock() func() time.Time {
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	var n atomic.Int64
	return func() time.Time {
		return base.Add(time.Duration(n.Add(1)) * time.Second)
	}
}

// countQueries registers a statement counter on db.
func countQueries(t *testing.T, db *gorm.DB) *atomic.Int64 {
	t.Helper()
	var n atomic.Int64
	require.NoError(t, db.Use(database.QueryMetricsPlugin{
		Observe: func(string, string, time.Time) { n.Add(1) },
	}))
	return &n
}
