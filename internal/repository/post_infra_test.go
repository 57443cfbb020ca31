package repository

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInfraGuard_SingleInFlightAttempt(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	started := make(chan struct{})
	var once sync.Once
	guard := newInfraGuard(func(context.Context) error {
		calls.Add(1)
		once.Do(func() { close(started) })
		<-release
		return nil
	})

	const callers = 8
	errs := make(chan error, callers)
	go func() { errs <- guard.Ensure(context.Background()) }()
	<-started
	for i := 1; i < callers; i++ {
		go func() { errs <- guard.Ensure(context.Background()) }()
	}
	close(release)

	for i := 0; i < callers; i++ {
		assert.NoError(t, <-errs)
	}
	// Late joiners either shared the attempt or saw the ready flag.
	assert.Equal(t, int32(1), calls.Load())

	require.NoError(t, guard.Ensure(context.Background()))
	assert.Equal(t, int32(1), calls.Load())
}

func TestInfraGuard_FailureIsNotCached(t *testing.T) {
	var calls atomic.Int32
	boom := errors.New("permission denied for schema public")
	guard := newInfraGuard(func(context.Context) error {
		if calls.Add(1) == 1 {
			return boom
		}
		return nil
	})

	assert.ErrorIs(t, guard.Ensure(context.Background()), boom)
	assert.False(t, guard.ready.Load())

	require.NoError(t, guard.Ensure(context.Background()))
	require.NoError(t, guard.Ensure(context.Background()))
	assert.Equal(t, int32(2), calls.Load())
}

func TestInfraGuard_IgnoresCallerCancellation(t *testing.T) {
	guard := newInfraGuard(func(ctx context.Context) error {
		return ctx.Err()
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, guard.Ensure(ctx))
}

func TestProvisionFeedTables(t *testing.T) {
	db := newTestDB(t, false)
	ctx := context.Background()

	require.NoError(t, provisionFeedTables(ctx, db))
	// idempotent
	require.NoError(t, provisionFeedTables(ctx, db))

	migrator := db.Migrator()
	for _, table := range feedTables {
		assert.True(t, migrator.HasTable(table), table)
	}
	assert.True(t, migrator.HasIndex("post_likes", "idx_post_likes_post_user"))
	assert.True(t, migrator.HasIndex("post_comments", "idx_post_comments_post_created"))
	assert.True(t, migrator.HasIndex("posts", "idx_posts_author_created"))
}

func TestFeedDDL(t *testing.T) {
	pg, err := feedDDL("postgres")
	require.NoError(t, err)
	require.Len(t, pg, 1)
	assert.Contains(t, pg[0], "CREATE UNIQUE INDEX IF NOT EXISTS idx_post_likes_post_user")

	lite, err := feedDDL("sqlite")
	require.NoError(t, err)
	assert.NotEmpty(t, lite)

	_, err = feedDDL("mysql")
	assert.Error(t, err)
}

func TestCountFeedTables(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t, false)

	n, err := countFeedTables(db)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	require.NoError(t, db.Exec(sqliteFeedDDL[0]).Error)
	n, err = countFeedTables(db)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.False(t, NewPostStore(db, StoreModeAuto).HasNativeSchema(ctx))

	require.NoError(t, provisionFeedTables(ctx, db))
	store := NewPostStore(db, StoreModeAuto)
	queries := countQueries(t, db)
	assert.True(t, store.HasNativeSchema(ctx))
	assert.Equal(t, int64(1), queries.Load(), "schema probe is a single catalog query")
}

func TestCountFeedTables_Postgres(t *testing.T) {
	db, mock := setupMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = CURRENT_SCHEMA() AND table_name IN ($1,$2,$3)`)).
		WithArgs("posts", "post_likes", "post_comments").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	n, err := countFeedTables(db)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
