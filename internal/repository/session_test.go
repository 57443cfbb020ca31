package repository

import (
	"context"
	"testing"
	"time"

	"snapfeed/internal/cache"
	"snapfeed/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionRepository_Lifecycle(t *testing.T) {
	mr := useMiniredis(t)
	db := newTestDB(t, false)
	repo := NewSessionRepository(db)
	ctx := context.Background()
	u := createUser(t, db, "sessioner")

	s := &models.Session{UserID: u.ID, ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, repo.Create(ctx, s))
	require.NotEmpty(t, s.ID)

	got, err := repo.GetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.UserID)
	assert.True(t, mr.Exists(cache.SessionKey(s.ID)))

	require.NoError(t, repo.Delete(ctx, s.ID))
	assert.False(t, mr.Exists(cache.SessionKey(s.ID)))
	_, err = repo.GetByID(ctx, s.ID)
	requireCode(t, err, models.CodeNotFound)
}

func TestSessionRepository_DeleteByUser(t *testing.T) {
	mr := useMiniredis(t)
	db := newTestDB(t, false)
	repo := NewSessionRepository(db)
	ctx := context.Background()
	u := createUser(t, db, "multi")
	keep := createUser(t, db, "keeper")

	var ids []string
	for i := 0; i < 3; i++ {
		s := &models.Session{UserID: u.ID, ExpiresAt: time.Now().Add(time.Hour)}
		require.NoError(t, repo.Create(ctx, s))
		_, err := repo.GetByID(ctx, s.ID)
		require.NoError(t, err)
		ids = append(ids, s.ID)
	}
	kept := &models.Session{UserID: keep.ID, ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, repo.Create(ctx, kept))

	require.NoError(t, repo.DeleteByUser(ctx, u.ID))
	for _, id := range ids {
		assert.False(t, mr.Exists(cache.SessionKey(id)))
		_, err := repo.GetByID(ctx, id)
		requireCode(t, err, models.CodeNotFound)
	}
	_, err := repo.GetByID(ctx, kept.ID)
	assert.NoError(t, err)

	assert.NoError(t, repo.DeleteByUser(ctx, "nobody"))
}

func TestSessionRepository_DeleteExpired(t *testing.T) {
	db := newTestDB(t, false)
	repo := NewSessionRepository(db)
	ctx := context.Background()
	u := createUser(t, db, "expiry")
	now := time.Now()

	require.NoError(t, repo.Create(ctx, &models.Session{UserID: u.ID, ExpiresAt: now.Add(-time.Minute)}))
	require.NoError(t, repo.Create(ctx, &models.Session{UserID: u.ID, ExpiresAt: now.Add(time.Hour)}))

	n, err := repo.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	requireCode(t, repo.Create(ctx, &models.Session{UserID: "ghost", ExpiresAt: now}), models.CodeNotFound)
}
