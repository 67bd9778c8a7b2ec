package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUser_SessionOmitsPassword(t *testing.T) {
	u := &User{
		ID:           "user-1",
		Username:     "marie",
		Email:        "marie@example.com",
		PasswordHash: "$argon2id$secret",
		JoinDate:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Reviews:      []Review{{ReviewerID: "user-2", Rating: 5}},
	}

	s := u.Session()
	assert.Equal(t, u.ID, s.ID)
	assert.Equal(t, u.Username, s.Username)
	assert.Equal(t, u.Reviews, s.Reviews)

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "password")
	assert.NotContains(t, string(data), "secret")
}

func TestUser_SessionCopiesReviews(t *testing.T) {
	u := &User{Reviews: []Review{{ReviewerID: "user-2", Rating: 4}}}
	s := u.Session()

	s.Reviews[0].Rating = 1
	assert.Equal(t, 4, u.Reviews[0].Rating)
}

func TestConversation_Helpers(t *testing.T) {
	c := &Conversation{User1ID: "a", User2ID: "b"}

	assert.True(t, c.Connects("a", "b"))
	assert.True(t, c.Connects("b", "a"))
	assert.False(t, c.Connects("a", "c"))
	assert.True(t, c.Involves("b"))
	assert.False(t, c.Involves("c"))
	assert.Equal(t, "b", c.Peer("a"))
	assert.Equal(t, "a", c.Peer("b"))
}

func TestMessage_Between(t *testing.T) {
	m := &Message{SenderID: "a", RecipientID: "b"}

	assert.True(t, m.Between("a", "b"))
	assert.True(t, m.Between("b", "a"))
	assert.False(t, m.Between("a", "c"))
}

func TestEmailAndUsernameTaken(t *testing.T) {
	users := []User{
		{ID: "user-1", Username: "marie", Email: "Marie@Example.com"},
		{ID: "user-2", Username: "paul", Email: "paul@example.com"},
	}

	assert.True(t, EmailTaken(users, "", "marie@example.com"))
	assert.False(t, EmailTaken(users, "user-1", "marie@example.com"), "own email is not a conflict")
	assert.False(t, EmailTaken(users, "", "jeanne@example.com"))

	assert.True(t, UsernameTaken(users, "", "paul"))
	assert.False(t, UsernameTaken(users, "", "Paul"), "usernames compare exactly")
	assert.False(t, UsernameTaken(users, "user-2", "paul"))
}

func TestCountOwned(t *testing.T) {
	books := []Book{{OwnerID: "user-1"}, {OwnerID: "user-2"}, {OwnerID: "user-1"}}

	assert.Equal(t, 2, CountOwned(books, "user-1"))
	assert.Equal(t, 0, CountOwned(books, "user-3"))
}
