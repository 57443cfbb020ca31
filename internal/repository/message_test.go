package repository

import (
	"context"
	"testing"
	"time"

	"snapfeed/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageRepository_Integration(t *testing.T) {
	db := newTestDB(t, false)
	repo := NewMessageRepository(db)
	ctx := context.Background()

	me := createUser(t, db, "me")
	peer := createUser(t, db, "peer")
	other := createUser(t, db, "other")

	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	send := func(from, to *models.User, content string, offset int) {
		t.Helper()
		msg := &models.Message{SenderID: from.ID, ReceiverID: to.ID, Content: content, CreatedAt: base.Add(time.Duration(offset) * time.Minute)}
		require.NoError(t, repo.Create(ctx, msg))
	}
	send(me, peer, "hi", 1)
	send(peer, me, "hey", 2)
	send(other, me, "yo", 3)
	send(me, peer, "sup", 4)

	thread, err := repo.Thread(ctx, me.ID, peer.ID)
	require.NoError(t, err)
	contents := make([]string, len(thread))
	for i := range thread {
		contents[i] = thread[i].Content
	}
	assert.Equal(t, []string{"hi", "hey", "sup"}, contents)

	recent, err := repo.Recent(ctx, me.ID, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "sup", recent[0].Content)
	require.NotNil(t, recent[0].Receiver)
	assert.Equal(t, "peer", recent[0].Receiver.Username)
	require.NotNil(t, recent[1].Sender)
	assert.Equal(t, "other", recent[1].Sender.Username)

	err = repo.Create(ctx, &models.Message{SenderID: me.ID, ReceiverID: "ghost", Content: "anyone?"})
	requireCode(t, err, models.CodeNotFound)
}
