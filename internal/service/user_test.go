package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookexchange/bookexchange/internal/domain"
	domainerrors "github.com/bookexchange/bookexchange/internal/errors"
	"github.com/bookexchange/bookexchange/internal/session"
	"github.com/bookexchange/bookexchange/internal/store"
)

func TestUserService_Register_Success(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()
	sess := session.New()

	user, err := env.users.Register(ctx, sess, RegisterRequest{
		Username:   "  alice  ",
		Email:      "alice@example.com",
		Password:   "password123",
		University: "Sorbonne",
	})
	require.NoError(t, err)

	assert.Equal(t, "alice", user.Username)
	assert.Contains(t, user.ID, "user-")
	assert.Equal(t, domain.DefaultProfileImage, user.ProfileImage)
	assert.Zero(t, user.BooksAdded)
	assert.Empty(t, user.Reviews)
	assert.Equal(t, user, sess.User(), "register opens the session")

	// The stored record carries a hash, never the plain password.
	var users []domain.User
	require.NoError(t, env.kv.View(ctx, func(tx store.Txn) error {
		var err error
		users, err = store.Users.Load(tx)
		return err
	}))
	require.Len(t, users, 1)
	assert.NotEqual(t, "password123", users[0].PasswordHash)
	assert.Contains(t, users[0].PasswordHash, "$argon2id$")
}

func TestUserService_Register_Duplicates(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()
	env.register(t, "alice")

	_, err := env.users.Register(ctx, session.New(), RegisterRequest{
		Username: "someone", Email: "ALICE@example.com", Password: "password123",
	})
	assert.True(t, domainerrors.Is(err, domainerrors.ErrDuplicateEmail))

	_, err = env.users.Register(ctx, session.New(), RegisterRequest{
		Username: "alice", Email: "other@example.com", Password: "password123",
	})
	assert.True(t, domainerrors.Is(err, domainerrors.ErrDuplicateUsername))

	// Email is checked first when both collide.
	_, err = env.users.Register(ctx, session.New(), RegisterRequest{
		Username: "alice", Email: "alice@example.com", Password: "password123",
	})
	assert.True(t, domainerrors.Is(err, domainerrors.ErrDuplicateEmail))
}

func TestUserService_Register_Validation(t *testing.T) {
	env := setupTest(t)
	sess := session.New()

	_, err := env.users.Register(context.Background(), sess, RegisterRequest{
		Username: "al", Email: "not-an-email", Password: "short",
	})
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation))
	assert.False(t, sess.IsAuthenticated())
}

func TestUserService_Login(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()
	env.register(t, "alice")

	sess := session.New()
	user, err := env.users.Login(ctx, sess, "Alice@Example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.True(t, sess.IsAuthenticated())

	_, wrongPassword := env.users.Login(ctx, session.New(), "alice@example.com", "wrong-password")
	_, unknownEmail := env.users.Login(ctx, session.New(), "nobody@example.com", "password123")

	assert.True(t, domainerrors.Is(wrongPassword, domainerrors.ErrInvalidCredentials))
	assert.True(t, domainerrors.Is(unknownEmail, domainerrors.ErrInvalidCredentials))
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error(), "failures must be indistinguishable")
}

func TestUserService_Logout(t *testing.T) {
	env := setupTest(t)
	sess := env.register(t, "alice")

	env.users.Logout(sess)
	assert.False(t, sess.IsAuthenticated())

	// Logging out twice is harmless.
	env.users.Logout(sess)
	assert.Nil(t, sess.User())
}

func TestUserService_UpdateProfile(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()
	sess := env.register(t, "alice")
	env.register(t, "bob")

	updated, err := env.users.UpdateProfile(ctx, sess, ProfileUpdate{
		University: ptr("Université Lyon 2"),
		StudyField: ptr("Lettres"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Université Lyon 2", updated.University)
	assert.Equal(t, "alice", updated.Username)
	assert.Equal(t, "Lettres", sess.User().StudyField)

	// Password is unchanged when the patch omits it.
	_, err = env.users.Login(ctx, session.New(), "alice@example.com", "password123")
	require.NoError(t, err)

	_, err = env.users.UpdateProfile(ctx, sess, ProfileUpdate{Username: ptr("bob")})
	assert.True(t, domainerrors.Is(err, domainerrors.ErrDuplicateUsername))

	_, err = env.users.UpdateProfile(ctx, sess, ProfileUpdate{Password: ptr("new-password-1")})
	require.NoError(t, err)
	_, err = env.users.Login(ctx, session.New(), "alice@example.com", "new-password-1")
	assert.NoError(t, err)
}

func TestUserService_UpdateProfile_KeepsOwnEmail(t *testing.T) {
	env := setupTest(t)
	sess := env.register(t, "alice")

	_, err := env.users.UpdateProfile(context.Background(), sess, ProfileUpdate{Email: ptr("ALICE@example.com")})
	assert.NoError(t, err)
}

func TestUserService_UpdateProfile_NotAuthenticated(t *testing.T) {
	env := setupTest(t)

	_, err := env.users.UpdateProfile(context.Background(), session.New(), ProfileUpdate{University: ptr("x")})
	assert.True(t, domainerrors.Is(err, domainerrors.ErrNotAuthenticated))
}

func TestUserService_GetByID(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()
	sess := env.register(t, "alice")

	user, err := env.users.GetByID(ctx, sess.UserID())
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)

	_, err = env.users.GetByID(ctx, "user-missing")
	assert.True(t, domainerrors.Is(err, domainerrors.ErrNotFound))
}
