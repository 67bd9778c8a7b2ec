package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bookexchange/bookexchange/internal/auth"
	"github.com/bookexchange/bookexchange/internal/domain"
	"github.com/bookexchange/bookexchange/internal/session"
	"github.com/bookexchange/bookexchange/internal/store"
	"github.com/bookexchange/bookexchange/internal/validation"
)

// testEnv wires every service onto one temporary Badger store.
type testEnv struct {
	kv        store.KV
	users     *UserService
	books     *BookService
	exchanges *ExchangeService
	messages  *MessageService
	seed      *SeedService
}

// setupTest creates services with temporary storage for testing.
func setupTest(t *testing.T) *testEnv {
	t.Helper()

	s, err := store.New(filepath.Join(t.TempDir(), "test.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	hasher := auth.NewHasher(auth.Params{Memory: 1024, Iterations: 1, Parallelism: 1})
	v := validation.New()

	env := &testEnv{
		kv:        s,
		users:     NewUserService(s, hasher, v, nil),
		books:     NewBookService(s, v, nil),
		exchanges: NewExchangeService(s, nil),
		messages:  NewMessageService(s, nil),
	}
	env.seed = NewSeedService(s, env.users, env.books, nil, 42)

	// A ticking clock keeps timestamps strictly ordered within a test.
	tick := fakeClock(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))
	env.users.now = tick
	env.books.now = tick
	env.exchanges.now = tick
	env.messages.now = tick

	return env
}

// fakeClock returns a clock that advances one second per call.
func fakeClock(start time.Time) func() time.Time {
	t := start.Add(-time.Second)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

// register creates an account and returns a session logged in as it.
func (e *testEnv) register(t *testing.T, username string) *session.Session {
	t.Helper()

	sess := session.New()
	_, err := e.users.Register(context.Background(), sess, RegisterRequest{
		Username: username,
		Email:    username + "@example.com",
		Password: "password123",
	})
	require.NoError(t, err)
	return sess
}

// addBook lists a book of the given type for sess.
func (e *testEnv) addBook(t *testing.T, sess *session.Session, title string, bookType domain.BookType) *domain.Book {
	t.Helper()

	req := AddBookRequest{Title: title, Author: "Author of " + title, Type: bookType}
	if bookType == domain.BookTypeSale {
		price := 12.5
		req.Price = &price
	}
	book, err := e.books.Add(context.Background(), sess, req)
	require.NoError(t, err)
	return book
}

func ptr[T any](v T) *T {
	return &v
}
