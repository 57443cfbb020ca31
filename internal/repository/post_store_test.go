package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"snapfeed/internal/models"
	"snapfeed/internal/observability"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// forEachStrategy runs fn against the native store over migrated tables and
// the raw store over a database that only has the account tables.
func forEachStrategy(t *testing.T, fn func(t *testing.T, db *gorm.DB, store FeedStore)) {
	cases := []struct {
		name        string
		mode        string
		migrateFeed bool
	}{
		{name: "native", mode: StoreModeNative, migrateFeed: true},
		{name: "raw", mode: StoreModeRaw, migrateFeed: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			db := newTestDB(t, tc.migrateFeed)
			fn(t, db, NewPostStore(db, tc.mode, WithClock(tickingClock())))
		})
	}
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %v", err)
	assert.Equal(t, code, appErr.Code)
}

func TestPostStore_CreatePost(t *testing.T) {
	forEachStrategy(t, func(t *testing.T, db *gorm.DB, store FeedStore) {
		ctx := context.Background()
		author := createUser(t, db, "author")
		caption := "sunset"

		entry, err := store.CreatePost(ctx, NewPost{Author: author.Public(), ImageURL: "https://img.example/1.jpg", Caption: &caption})
		require.NoError(t, err)
		assert.NotEmpty(t, entry.ID)
		assert.Equal(t, "https://img.example/1.jpg", entry.ImageURL)
		require.NotNil(t, entry.Caption)
		assert.Equal(t, "sunset", *entry.Caption)
		assert.Zero(t, entry.LikeCount)
		assert.Zero(t, entry.CommentCount)
		assert.False(t, entry.ViewerHasLiked)
		assert.NotNil(t, entry.RecentComments)
		assert.Empty(t, entry.RecentComments)
		assert.Equal(t, author.Public(), entry.Author)

		feed, err := store.ListFeed(ctx, FeedQuery{})
		require.NoError(t, err)
		require.Len(t, feed, 1)
		assert.Equal(t, entry.ID, feed[0].ID)
		assert.WithinDuration(t, entry.CreatedAt, feed[0].CreatedAt, time.Millisecond)

		_, err = store.CreatePost(ctx, NewPost{Author: models.PublicUser{ID: "ghost"}, ImageURL: "https://img.example/2.jpg"})
		requireCode(t, err, models.CodeNotFound)
	})
}

func TestPostStore_ToggleLikeIsIdempotentPerPair(t *testing.T) {
	forEachStrategy(t, func(t *testing.T, db *gorm.DB, store FeedStore) {
		ctx := context.Background()
		author := createUser(t, db, "author")
		fan := createUser(t, db, "fan")
		post, err := store.CreatePost(ctx, NewPost{Author: author.Public(), ImageURL: "https://img.example/1.jpg"})
		require.NoError(t, err)

		want := []models.LikeToggle{
			{Liked: true, LikeCount: 1},
			{Liked: false, LikeCount: 0},
			{Liked: true, LikeCount: 1},
		}
		for i, expected := range want {
			got, err := store.ToggleLike(ctx, post.ID, fan.ID)
			require.NoError(t, err, "toggle %d", i)
			assert.Equal(t, expected, *got, "toggle %d", i)
		}

		var rows int64
		require.NoError(t, db.Table("post_likes").Where("post_id = ?", post.ID).Count(&rows).Error)
		assert.Equal(t, int64(1), rows)
	})
}

func TestPostStore_ToggleLikeMissingPost(t *testing.T) {
	forEachStrategy(t, func(t *testing.T, db *gorm.DB, store FeedStore) {
		fan := createUser(t, db, "fan")
		_, err := store.ToggleLike(context.Background(), "no-such-post", fan.ID)
		requireCode(t, err, models.CodeNotFound)
	})
}

func TestPostStore_MissingReferenceNamesTheRow(t *testing.T) {
	forEachStrategy(t, func(t *testing.T, db *gorm.DB, store FeedStore) {
		ctx := context.Background()
		author := createUser(t, db, "author")
		post, err := store.CreatePost(ctx, NewPost{Author: author.Public(), ImageURL: "https://img.example/1.jpg"})
		require.NoError(t, err)
		ghost := models.PublicUser{ID: "ghost", Username: "ghost"}

		_, err = store.ToggleLike(ctx, post.ID, ghost.ID)
		requireCode(t, err, models.CodeNotFound)
		assert.Equal(t, "User with ID ghost not found", err.Error())

		_, err = store.ToggleLike(ctx, "no-such-post", author.ID)
		requireCode(t, err, models.CodeNotFound)
		assert.Equal(t, "Post with ID no-such-post not found", err.Error())

		_, err = store.AddComment(ctx, NewComment{PostID: post.ID, Author: ghost, Content: "boo"})
		requireCode(t, err, models.CodeNotFound)
		assert.Equal(t, "User with ID ghost not found", err.Error())
	})
}

func TestPostStore_AddComment(t *testing.T) {
	forEachStrategy(t, func(t *testing.T, db *gorm.DB, store FeedStore) {
		ctx := context.Background()
		author := createUser(t, db, "author")
		commenter := createUser(t, db, "commenter")
		post, err := store.CreatePost(ctx, NewPost{Author: author.Public(), ImageURL: "https://img.example/1.jpg"})
		require.NoError(t, err)

		first, err := store.AddComment(ctx, NewComment{PostID: post.ID, Author: commenter.Public(), Content: "nice"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), first.CommentCount)
		assert.Equal(t, "nice", first.Comment.Content)
		assert.Equal(t, commenter.Public(), first.Comment.Author)

		second, err := store.AddComment(ctx, NewComment{PostID: post.ID, Author: author.Public(), Content: "thanks"})
		require.NoError(t, err)
		assert.Equal(t, int64(2), second.CommentCount)
		assert.True(t, second.Comment.CreatedAt.After(first.Comment.CreatedAt))

		_, err = store.AddComment(ctx, NewComment{PostID: "no-such-post", Author: author.Public(), Content: "hello"})
		requireCode(t, err, models.CodeNotFound)
	})
}

func TestPostStore_ListFeedOrderingAndFilters(t *testing.T) {
	forEachStrategy(t, func(t *testing.T, db *gorm.DB, store FeedStore) {
		ctx := context.Background()
		alice := createUser(t, db, "alice")
		bob := createUser(t, db, "bob")

		empty, err := store.ListFeed(ctx, FeedQuery{})
		require.NoError(t, err)
		assert.NotNil(t, empty)
		assert.Empty(t, empty)

		var ids []string
		for i, author := range []*models.User{alice, bob, alice} {
			p, err := store.CreatePost(ctx, NewPost{Author: author.Public(), ImageURL: fmt.Sprintf("https://img.example/%d.jpg", i)})
			require.NoError(t, err)
			ids = append(ids, p.ID)
		}

		feed, err := store.ListFeed(ctx, FeedQuery{})
		require.NoError(t, err)
		require.Len(t, feed, 3)
		assert.Equal(t, []string{ids[2], ids[1], ids[0]}, entryIDs(feed))
		assert.Equal(t, "bob", feed[1].Author.Username)

		limited, err := store.ListFeed(ctx, FeedQuery{Limit: 2})
		require.NoError(t, err)
		assert.Equal(t, []string{ids[2], ids[1]}, entryIDs(limited))

		byAlice, err := store.ListFeed(ctx, FeedQuery{AuthorID: alice.ID})
		require.NoError(t, err)
		assert.Equal(t, []string{ids[2], ids[0]}, entryIDs(byAlice))

		count, err := store.CountPostsByAuthor(ctx, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
		count, err = store.CountPostsByAuthor(ctx, "nobody")
		require.NoError(t, err)
		assert.Zero(t, count)
	})
}

func TestPostStore_CountsAndViewerFlag(t *testing.T) {
	forEachStrategy(t, func(t *testing.T, db *gorm.DB, store FeedStore) {
		ctx := context.Background()
		author := createUser(t, db, "author")
		u1 := createUser(t, db, "u1")
		u2 := createUser(t, db, "u2")
		u3 := createUser(t, db, "u3")

		liked, err := store.CreatePost(ctx, NewPost{Author: author.Public(), ImageURL: "https://img.example/a.jpg"})
		require.NoError(t, err)
		quiet, err := store.CreatePost(ctx, NewPost{Author: author.Public(), ImageURL: "https://img.example/b.jpg"})
		require.NoError(t, err)

		for _, u := range []*models.User{u1, u2} {
			_, err := store.ToggleLike(ctx, liked.ID, u.ID)
			require.NoError(t, err)
		}
		// u3 likes then unlikes; the pair must not be counted.
		for i := 0; i < 2; i++ {
			_, err := store.ToggleLike(ctx, liked.ID, u3.ID)
			require.NoError(t, err)
		}
		_, err = store.AddComment(ctx, NewComment{PostID: liked.ID, Author: u1.Public(), Content: "one"})
		require.NoError(t, err)
		_, err = store.AddComment(ctx, NewComment{PostID: liked.ID, Author: u3.Public(), Content: "two"})
		require.NoError(t, err)

		tests := []struct {
			name      string
			viewer    string
			wantLiked bool
		}{
			{name: "liker", viewer: u1.ID, wantLiked: true},
			{name: "unliker", viewer: u3.ID, wantLiked: false},
			{name: "anonymous", viewer: "", wantLiked: false},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				feed, err := store.ListFeed(ctx, FeedQuery{ViewerID: tt.viewer})
				require.NoError(t, err)
				byID := entriesByID(feed)

				assert.Equal(t, int64(2), byID[liked.ID].LikeCount)
				assert.Equal(t, int64(2), byID[liked.ID].CommentCount)
				assert.Equal(t, tt.wantLiked, byID[liked.ID].ViewerHasLiked)

				assert.Zero(t, byID[quiet.ID].LikeCount)
				assert.Zero(t, byID[quiet.ID].CommentCount)
				assert.False(t, byID[quiet.ID].ViewerHasLiked)
				assert.NotNil(t, byID[quiet.ID].RecentComments)
			})
		}
	})
}

func TestPostStore_RecentCommentWindow(t *testing.T) {
	forEachStrategy(t, func(t *testing.T, db *gorm.DB, store FeedStore) {
		ctx := context.Background()
		author := createUser(t, db, "author")
		talker := createUser(t, db, "talker")

		busy, err := store.CreatePost(ctx, NewPost{Author: author.Public(), ImageURL: "https://img.example/busy.jpg"})
		require.NoError(t, err)
		single, err := store.CreatePost(ctx, NewPost{Author: author.Public(), ImageURL: "https://img.example/single.jpg"})
		require.NoError(t, err)

		for i := 1; i <= 5; i++ {
			_, err := store.AddComment(ctx, NewComment{PostID: busy.ID, Author: talker.Public(), Content: fmt.Sprintf("c%d", i)})
			require.NoError(t, err)
		}
		_, err = store.AddComment(ctx, NewComment{PostID: single.ID, Author: author.Public(), Content: "only"})
		require.NoError(t, err)

		tests := []struct {
			name  string
			limit int
			want  []string
		}{
			{name: "default window", limit: 0, want: []string{"c5", "c4", "c3"}},
			{name: "narrow window", limit: 1, want: []string{"c5"}},
			{name: "window wider than thread", limit: 10, want: []string{"c5", "c4", "c3", "c2", "c1"}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				feed, err := store.ListFeed(ctx, FeedQuery{CommentLimit: tt.limit})
				require.NoError(t, err)
				byID := entriesByID(feed)

				assert.Equal(t, tt.want, commentContents(byID[busy.ID].RecentComments))
				assert.Equal(t, int64(5), byID[busy.ID].CommentCount)
				assert.Equal(t, []string{"only"}, commentContents(byID[single.ID].RecentComments))
				assert.Equal(t, "talker", byID[busy.ID].RecentComments[0].Author.Username)
			})
		}
	})
}

func TestPostStore_BoundedRoundTrips(t *testing.T) {
	seed := func(t *testing.T, db *gorm.DB, store FeedStore, posts int) {
		ctx := context.Background()
		author := createUser(t, db, fmt.Sprintf("author%d", posts))
		for i := 0; i < posts; i++ {
			p, err := store.CreatePost(ctx, NewPost{Author: author.Public(), ImageURL: "https://img.example/x.jpg"})
			require.NoError(t, err)
			_, err = store.AddComment(ctx, NewComment{PostID: p.ID, Author: author.Public(), Content: "hi"})
			require.NoError(t, err)
			_, err = store.ToggleLike(ctx, p.ID, author.ID)
			require.NoError(t, err)
		}
	}

	measure := func(t *testing.T, migrateFeed bool, list func(db *gorm.DB, q FeedQuery) error, posts int, viewer bool) int64 {
		db := newTestDB(t, migrateFeed)
		store := NewPostStore(db, StoreModeRaw)
		require.NoError(t, store.EnsureInfrastructure(context.Background()))
		seed(t, db, store, posts)

		q := FeedQuery{Limit: 50}.withDefaults()
		if viewer {
			q.ViewerID = createUser(t, db, "viewer").ID
		}
		counter := countQueries(t, db)
		require.NoError(t, list(db, q))
		return counter.Load()
	}

	native := func(db *gorm.DB, q FeedQuery) error {
		_, err := newNativePostStore(db).ListFeed(context.Background(), q)
		return err
	}
	raw := func(db *gorm.DB, q FeedQuery) error {
		_, err := newRawPostStore(db).ListFeed(context.Background(), q)
		return err
	}

	t.Run("native", func(t *testing.T) {
		small := measure(t, true, native, 2, true)
		large := measure(t, true, native, 12, true)
		assert.Equal(t, small, large)
		// posts + authors, comments + comment authors
		assert.Equal(t, int64(4), small)
	})

	t.Run("raw", func(t *testing.T) {
		small := measure(t, false, raw, 2, true)
		large := measure(t, false, raw, 12, true)
		assert.Equal(t, small, large)
		assert.Equal(t, int64(5), small)

		anonymous := measure(t, false, raw, 3, false)
		assert.Equal(t, int64(4), anonymous)
	})
}

func TestPostStore_AutoModeUpgradesToNative(t *testing.T) {
	db := newTestDB(t, false)
	store := NewPostStore(db, StoreModeAuto, WithClock(tickingClock()))
	ctx := context.Background()
	author := createUser(t, db, "author")

	assert.False(t, store.HasNativeSchema(ctx))

	rawCreates := testutil.ToFloat64(observability.FeedStorePath.WithLabelValues(pathRaw, "create_post"))
	post, err := store.CreatePost(ctx, NewPost{Author: author.Public(), ImageURL: "https://img.example/1.jpg"})
	require.NoError(t, err)
	assert.Equal(t, rawCreates+1, testutil.ToFloat64(observability.FeedStorePath.WithLabelValues(pathRaw, "create_post")))

	// Provisioning created the same tables the migrations would.
	assert.True(t, store.HasNativeSchema(ctx))

	nativeLikes := testutil.ToFloat64(observability.FeedStorePath.WithLabelValues(pathNative, "toggle_like"))
	toggle, err := store.ToggleLike(ctx, post.ID, author.ID)
	require.NoError(t, err)
	assert.True(t, toggle.Liked)
	assert.Equal(t, nativeLikes+1, testutil.ToFloat64(observability.FeedStorePath.WithLabelValues(pathNative, "toggle_like")))

	feed, err := store.ListFeed(ctx, FeedQuery{ViewerID: author.ID})
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.True(t, feed[0].ViewerHasLiked)
}

func TestPostStore_ModeProbes(t *testing.T) {
	ctx := context.Background()
	migrated := newTestDB(t, true)

	assert.True(t, NewPostStore(migrated, StoreModeAuto).HasNativeSchema(ctx))
	assert.True(t, NewPostStore(migrated, "").HasNativeSchema(ctx))
	assert.False(t, NewPostStore(migrated, StoreModeRaw).HasNativeSchema(ctx))

	bare := newTestDB(t, false)
	nativeOnly := NewPostStore(bare, StoreModeNative)
	assert.False(t, nativeOnly.HasNativeSchema(ctx))

	_, err := nativeOnly.ListFeed(ctx, FeedQuery{})
	require.Error(t, err)
	assert.True(t, IsMissingRelationError(err), "native mode never falls back: %v", err)
}

func TestDispatch_FallsBackOnMissingRelation(t *testing.T) {
	db := newTestDB(t, true)
	ctx := context.Background()

	missing := func(context.Context) (string, error) { return "", errors.New("no such table: post_comments") }
	broken := func(context.Context) (string, error) { return "", errors.New("disk I/O error") }
	fromRaw := func(context.Context) (string, error) { return "raw", nil }

	t.Run("auto recovers", func(t *testing.T) {
		a := NewPostStore(db, StoreModeAuto).(*postAdapter)
		before := testutil.ToFloat64(observability.FeedStoreFallbacks.WithLabelValues("probe"))

		out, err := dispatch(ctx, a, "probe", missing, fromRaw)
		require.NoError(t, err)
		assert.Equal(t, "raw", out)
		assert.Equal(t, before+1, testutil.ToFloat64(observability.FeedStoreFallbacks.WithLabelValues("probe")))
	})

	t.Run("other errors propagate", func(t *testing.T) {
		a := NewPostStore(db, StoreModeAuto).(*postAdapter)
		_, err := dispatch(ctx, a, "probe", broken, fromRaw)
		assert.EqualError(t, err, "disk I/O error")
	})

	t.Run("native mode propagates", func(t *testing.T) {
		a := NewPostStore(db, StoreModeNative).(*postAdapter)
		_, err := dispatch(ctx, a, "probe", missing, fromRaw)
		assert.ErrorContains(t, err, "no such table")
	})
}

func entryIDs(entries []models.FeedEntry) []string {
	ids := make([]string, len(entries))
	for i := range entries {
		ids[i] = entries[i].ID
	}
	return ids
}

func entriesByID(entries []models.FeedEntry) map[string]models.FeedEntry {
	out := make(map[string]models.FeedEntry, len(entries))
	for _, e := range entries {
		out[e.ID] = e
	}
	return out
}

func commentContents(comments []models.FeedComment) []string {
	out := make([]string, len(comments))
	for i := range comments {
		out[i] = comments[i].Content
	}
	return out
}
