package repository

import (
	"context"
	"testing"

	"snapfeed/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func usernames(users []models.User) []string {
	out := make([]string, len(users))
	for i := range users {
		out[i] = users[i].Username
	}
	return out
}

func TestFollowRepository_Integration(t *testing.T) {
	db := newTestDB(t, false)
	repo := NewFollowRepository(db)
	ctx := context.Background()

	me := createUser(t, db, "me")
	u1 := createUser(t, db, "u1")
	u2 := createUser(t, db, "u2")
	u3 := createUser(t, db, "u3")

	t.Run("Toggle on and off", func(t *testing.T) {
		following, err := repo.Toggle(ctx, me.ID, u1.ID)
		require.NoError(t, err)
		assert.True(t, following)

		ok, err := repo.IsFollowing(ctx, me.ID, u1.ID)
		require.NoError(t, err)
		assert.True(t, ok)

		following, err = repo.Toggle(ctx, me.ID, u1.ID)
		require.NoError(t, err)
		assert.False(t, following)

		following, err = repo.Toggle(ctx, me.ID, u1.ID)
		require.NoError(t, err)
		assert.True(t, following)
	})

	t.Run("Missing target", func(t *testing.T) {
		_, err := repo.Toggle(ctx, me.ID, "ghost")
		requireCode(t, err, models.CodeNotFound)
	})

	t.Run("Graph views", func(t *testing.T) {
		_, err := repo.Toggle(ctx, u2.ID, me.ID)
		require.NoError(t, err)

		following, err := repo.Following(ctx, me.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"u1"}, usernames(following))

		followers, err := repo.Followers(ctx, me.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"u2"}, usernames(followers))

		suggestions, err := repo.Suggestions(ctx, me.ID, 10)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"u2", "u3"}, usernames(suggestions))
		assert.NotContains(t, usernames(suggestions), "me")

		limited, err := repo.Suggestions(ctx, me.ID, 1)
		require.NoError(t, err)
		assert.Equal(t, []string{u3.Username}, usernames(limited))
	})
}
