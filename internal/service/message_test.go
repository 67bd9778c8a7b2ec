package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/bookexchange/bookexchange/internal/errors"
	"github.com/bookexchange/bookexchange/internal/session"
)

func TestMessageService_GetOrCreateConversation(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")

	conv, err := env.messages.GetOrCreateConversation(ctx, alice, bob.UserID())
	require.NoError(t, err)
	assert.Contains(t, conv.ID, "conv-")
	assert.Equal(t, alice.UserID(), conv.User1ID)
	assert.Equal(t, bob.UserID(), conv.User2ID)
	assert.Zero(t, conv.UnreadCount)

	// Either side finds the same conversation.
	again, err := env.messages.GetOrCreateConversation(ctx, bob, alice.UserID())
	require.NoError(t, err)
	assert.Equal(t, conv, again)
}

func TestMessageService_Send(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")

	msg, err := env.messages.Send(ctx, alice, bob.UserID(), "Bonjour, le livre est-il dispo ?")
	require.NoError(t, err)
	assert.Contains(t, msg.ID, "msg-")
	assert.False(t, msg.Read)
	assert.Equal(t, alice.UserID(), msg.SenderID)

	_, err = env.messages.Send(ctx, session.New(), bob.UserID(), "hi")
	assert.True(t, domainerrors.Is(err, domainerrors.ErrNotAuthenticated))

	_, err = env.messages.Send(ctx, alice, bob.UserID(), "   \n\t")
	assert.True(t, domainerrors.Is(err, domainerrors.ErrEmptyContent))

	conv, err := env.messages.GetOrCreateConversation(ctx, alice, bob.UserID())
	require.NoError(t, err)
	assert.Equal(t, msg.Date, conv.LastMessageDate)
}

func TestMessageService_Thread(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")
	carol := env.register(t, "carol")

	m1, err := env.messages.Send(ctx, alice, bob.UserID(), "one")
	require.NoError(t, err)
	m2, err := env.messages.Send(ctx, bob, alice.UserID(), "two")
	require.NoError(t, err)
	_, err = env.messages.Send(ctx, carol, alice.UserID(), "unrelated")
	require.NoError(t, err)

	fromAlice, err := env.messages.GetThread(ctx, alice, bob.UserID())
	require.NoError(t, err)
	fromBob, err := env.messages.GetThread(ctx, bob, alice.UserID())
	require.NoError(t, err)

	require.Len(t, fromAlice, 2)
	assert.Equal(t, m1.ID, fromAlice[0].ID)
	assert.Equal(t, m2.ID, fromAlice[1].ID)
	assert.Equal(t, fromAlice, fromBob, "both sides see the same thread")

	empty, err := env.messages.GetThread(ctx, bob, carol.UserID())
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMessageService_UnreadAccounting(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")

	// alice opens the conversation, so she is user1 and bob is user2.
	_, err := env.messages.Send(ctx, alice, bob.UserID(), "one")
	require.NoError(t, err)

	unread, err := env.messages.UnreadTotal(ctx, bob)
	require.NoError(t, err)
	assert.Zero(t, unread, "a message from user1 resets the count")

	_, err = env.messages.Send(ctx, bob, alice.UserID(), "two")
	require.NoError(t, err)
	_, err = env.messages.Send(ctx, bob, alice.UserID(), "three")
	require.NoError(t, err)

	unread, err = env.messages.UnreadTotal(ctx, bob)
	require.NoError(t, err)
	assert.Equal(t, 2, unread, "user2 sees the count")

	unread, err = env.messages.UnreadTotal(ctx, alice)
	require.NoError(t, err)
	assert.Zero(t, unread, "user1 never sees the count")

	require.NoError(t, env.messages.MarkRead(ctx, bob, alice.UserID()))
	unread, err = env.messages.UnreadTotal(ctx, bob)
	require.NoError(t, err)
	assert.Zero(t, unread)

	thread, err := env.messages.GetThread(ctx, bob, alice.UserID())
	require.NoError(t, err)
	require.Len(t, thread, 3)
	assert.True(t, thread[0].Read, "alice's message to bob is read")
	assert.False(t, thread[1].Read, "bob's messages stay unread for alice")
	assert.False(t, thread[2].Read)
}

func TestMessageService_MarkRead_NothingToMark(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")

	_, err := env.messages.Send(ctx, bob, alice.UserID(), "one")
	require.NoError(t, err)
	_, err = env.messages.Send(ctx, alice, bob.UserID(), "two")
	require.NoError(t, err)

	// bob is user1 here; his own sent message is not marked.
	require.NoError(t, env.messages.MarkRead(ctx, bob, bob.UserID()))
	unread, err := env.messages.UnreadTotal(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, 1, unread, "a no-op mark leaves the count alone")

	err = env.messages.MarkRead(ctx, session.New(), bob.UserID())
	assert.True(t, domainerrors.Is(err, domainerrors.ErrNotAuthenticated))
}

func TestMessageService_UnreadTotal_Anonymous(t *testing.T) {
	env := setupTest(t)

	unread, err := env.messages.UnreadTotal(context.Background(), session.New())
	require.NoError(t, err)
	assert.Zero(t, unread)
}

func TestMessageService_ListConversations(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")
	carol := env.register(t, "carol")

	_, err := env.messages.Send(ctx, bob, alice.UserID(), "from bob")
	require.NoError(t, err)
	last, err := env.messages.Send(ctx, carol, alice.UserID(), "from carol")
	require.NoError(t, err)
	_, err = env.messages.GetOrCreateConversation(ctx, alice, "user-ghost")
	require.NoError(t, err)

	inbox, err := env.messages.ListConversations(ctx, alice)
	require.NoError(t, err)
	require.Len(t, inbox, 2, "conversations with unknown peers are skipped")

	assert.Equal(t, "carol", inbox[0].Peer.Username)
	require.NotNil(t, inbox[0].LastMessage)
	assert.Equal(t, last.ID, inbox[0].LastMessage.ID)
	assert.Equal(t, 1, inbox[0].Unread, "alice is user2 of carol's conversation")
	assert.Equal(t, "bob", inbox[1].Peer.Username)

	bobInbox, err := env.messages.ListConversations(ctx, bob)
	require.NoError(t, err)
	require.Len(t, bobInbox, 1)
	assert.Zero(t, bobInbox[0].Unread, "user1 has no badge")
}
