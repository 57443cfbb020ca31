package service

import (
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"snapfeed/internal/database"
	"snapfeed/internal/models"
	"snapfeed/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// testEnv wires every service over one in-memory SQLite database.
type testEnv struct {
	db       *gorm.DB
	users    repository.UserRepository
	sessions repository.SessionRepository
	follows  repository.FollowRepository
	messages repository.MessageRepository
	store    repository.FeedStore

	auth     *AuthService
	posts    *PostService
	people   *UserService
	follow   *FollowService
	inbox    *MessageService
	admin    *AdminService
	clockNow *atomic.Pointer[time.Time]
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:?_foreign_keys=on"), database.GormConfig())
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(database.PersistentModels()...))

	env := &testEnv{
		db:       db,
		users:    repository.NewUserRepository(db),
		sessions: repository.NewSessionRepository(db),
		follows:  repository.NewFollowRepository(db),
		messages: repository.NewMessageRepository(db),
		store:    repository.NewPostStore(db, repository.StoreModeNative, repository.WithClock(tickingClock())),
		clockNow: &atomic.Pointer[time.Time]{},
	}
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	env.clockNow.Store(&start)

	env.auth = NewAuthService(env.users, env.sessions, "test-secret-that-is-long-enough-123", 7*24*time.Hour,
		WithBcryptCost(bcrypt.MinCost),
		WithAuthClock(func() time.Time { return *env.clockNow.Load() }),
	)
	env.posts = NewPostService(env.store)
	env.people = NewUserService(env.users, env.follows, env.store)
	env.follow = NewFollowService(env.follows)
	env.inbox = NewMessageService(env.messages, env.users)
	env.admin = NewAdminService(env.users, env.sessions)
	return env
}

// advance moves the auth clock forward.
func (e *testEnv) advance(d time.Duration) {
	next := e.clockNow.Load().Add(d)
	e.clockNow.Store(&next)
}

func (e *testEnv) createUser(t *testing.T, username string) *models.User {
	t.Helper()
	display := "Display " + username
	u := &models.User{
		Email:        fmt.Sprintf("%s@example.com", username),
		Username:     username,
		PasswordHash: "hash",
		DisplayName:  &display,
		IsVerified:   true,
	}
	require.NoError(t, e.db.Create(u).Error)
	return u
}

func tickingClock() func() time.Time {
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	var n atomic.Int64
	return func() time.Time {
		return base.Add(time.Duration(n.Add(1)) * time.Second)
	}
}

// requireCode asserts that err is an AppError carrying code.
func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}
