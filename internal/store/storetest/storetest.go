// Package storetest holds the behavior every store.KV backend must share.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookexchange/bookexchange/internal/domain"
	"github.com/bookexchange/bookexchange/internal/store"
)

// Opener returns a fresh, empty store. The store is closed by the caller's cleanup.
type Opener func(t *testing.T) store.KV

// Run exercises a KV backend.
func Run(t *testing.T, open Opener) {
	t.Run("GetMissing", func(t *testing.T) { testGetMissing(t, open(t)) })
	t.Run("SetGet", func(t *testing.T) { testSetGet(t, open(t)) })
	t.Run("Delete", func(t *testing.T) { testDelete(t, open(t)) })
	t.Run("UpdateRollsBackOnError", func(t *testing.T) { testRollback(t, open(t)) })
	t.Run("CancelledContext", func(t *testing.T) { testCancelled(t, open(t)) })
	t.Run("CollectionEmpty", func(t *testing.T) { testCollectionEmpty(t, open(t)) })
	t.Run("CollectionOrder", func(t *testing.T) { testCollectionOrder(t, open(t)) })
	t.Run("EntityRoundTrip", func(t *testing.T) { testEntityRoundTrip(t, open(t)) })
	t.Run("MultiCollectionUpdate", func(t *testing.T) { testMultiCollection(t, open(t)) })
}

func testGetMissing(t *testing.T, kv store.KV) {
	err := kv.View(context.Background(), func(tx store.Txn) error {
		var v string
		return tx.Get("missing", &v)
	})
	assert.ErrorIs(t, err, store.ErrKeyNotFound)
}

func testSetGet(t *testing.T, kv store.KV) {
	ctx := context.Background()
	type doc struct {
		Name  string   `json:"name"`
		Count int      `json:"count"`
		Tags  []string `json:"tags"`
	}
	want := doc{Name: "shelf", Count: 3, Tags: []string{"a", "b"}}

	require.NoError(t, kv.Update(ctx, func(tx store.Txn) error {
		return tx.Set("doc", want)
	}))

	var got doc
	require.NoError(t, kv.View(ctx, func(tx store.Txn) error {
		return tx.Get("doc", &got)
	}))
	assert.Equal(t, want, got)

	// Overwrite.
	require.NoError(t, kv.Update(ctx, func(tx store.Txn) error {
		return tx.Set("doc", doc{Name: "other"})
	}))
	require.NoError(t, kv.View(ctx, func(tx store.Txn) error {
		got = doc{}
		return tx.Get("doc", &got)
	}))
	assert.Equal(t, "other", got.Name)
}

func testDelete(t *testing.T, kv store.KV) {
	ctx := context.Background()

	require.NoError(t, kv.Update(ctx, func(tx store.Txn) error {
		return tx.Set("k", "v")
	}))
	require.NoError(t, kv.Update(ctx, func(tx store.Txn) error {
		return tx.Delete("k")
	}))
	require.NoError(t, kv.Update(ctx, func(tx store.Txn) error {
		return tx.Delete("never-set")
	}))

	err := kv.View(ctx, func(tx store.Txn) error {
		var v string
		return tx.Get("k", &v)
	})
	assert.ErrorIs(t, err, store.ErrKeyNotFound)
}

func testRollback(t *testing.T, kv store.KV) {
	ctx := context.Background()
	boom := errors.New("boom")

	err := kv.Update(ctx, func(tx store.Txn) error {
		if err := tx.Set("k", "v"); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	err = kv.View(ctx, func(tx store.Txn) error {
		var v string
		return tx.Get("k", &v)
	})
	assert.ErrorIs(t, err, store.ErrKeyNotFound)
}

func testCancelled(t *testing.T, kv store.KV) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := kv.Update(ctx, func(store.Txn) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func testCollectionEmpty(t *testing.T, kv store.KV) {
	var books []domain.Book
	require.NoError(t, kv.View(context.Background(), func(tx store.Txn) error {
		var err error
		books, err = store.Books.Load(tx)
		return err
	}))
	assert.NotNil(t, books)
	assert.Empty(t, books)
}

func testCollectionOrder(t *testing.T, kv store.KV) {
	ctx := context.Background()
	ids := []string{"c", "a", "b"}

	require.NoError(t, kv.Update(ctx, func(tx store.Txn) error {
		for _, id := range ids {
			books, err := store.Books.Load(tx)
			if err != nil {
				return err
			}
			books = append(books, domain.Book{ID: id})
			if err := store.Books.Save(tx, books); err != nil {
				return err
			}
		}
		return nil
	}))

	var books []domain.Book
	require.NoError(t, kv.View(ctx, func(tx store.Txn) error {
		var err error
		books, err = store.Books.Load(tx)
		return err
	}))
	require.Len(t, books, 3)
	for i, id := range ids {
		assert.Equal(t, id, books[i].ID)
	}
	assert.Equal(t, 1, store.IndexFunc(books, func(b *domain.Book) bool { return b.ID == "a" }))
	assert.Equal(t, -1, store.IndexFunc(books, func(b *domain.Book) bool { return b.ID == "z" }))
}

func testEntityRoundTrip(t *testing.T, kv store.KV) {
	ctx := context.Background()
	at := time.Date(2024, 5, 6, 7, 8, 9, 123000000, time.UTC)
	end := at.Add(72 * time.Hour)
	price := 12.5

	users := []domain.User{{
		ID: "user-1", Username: "marie", Email: "marie@example.com", PasswordHash: "$argon2id$x",
		University: "Sorbonne", StudyField: "Lettres", JoinDate: at, ProfileImage: domain.DefaultProfileImage,
		BooksAdded: 2, Rating: 4.5, Reviews: []domain.Review{{ReviewerID: "user-2", Rating: 5, Comment: "Parfait", Date: at}},
	}}
	books := []domain.Book{{
		ID: "book-1", Title: "Dune", Author: "Frank Herbert", Type: domain.BookTypeSale,
		Status: domain.BookStatusAvailable, CoverImage: domain.DefaultCoverImage, OwnerID: "user-1",
		OwnerName: "marie", AddedDate: at, Language: domain.DefaultBookLanguage,
		Categories: []string{"Science-fiction"}, Pages: 752, Price: &price,
	}}
	exchanges := []domain.Exchange{{
		ID: "exch-1", BookID: "book-1", Type: domain.BookTypeSale, OwnerID: "user-1", BorrowerID: "user-2",
		Status: domain.ExchangeStatusCompleted, StartDate: at, EndDate: &end, Price: price,
		ReturnCondition: "Bon état", ReturnNotes: "RAS",
	}}
	conversations := []domain.Conversation{{ID: "conv-1", User1ID: "user-2", User2ID: "user-1", LastMessageDate: at, UnreadCount: 2}}
	messages := []domain.Message{{ID: "msg-1", SenderID: "user-2", RecipientID: "user-1", Content: "Bonjour", Date: at}}

	require.NoError(t, kv.Update(ctx, func(tx store.Txn) error {
		return errors.Join(
			store.Users.Save(tx, users),
			store.Books.Save(tx, books),
			store.Exchanges.Save(tx, exchanges),
			store.Conversations.Save(tx, conversations),
			store.Messages.Save(tx, messages),
		)
	}))

	require.NoError(t, kv.View(ctx, func(tx store.Txn) error {
		gotUsers, err := store.Users.Load(tx)
		require.NoError(t, err)
		assert.Equal(t, users, gotUsers)

		gotBooks, err := store.Books.Load(tx)
		require.NoError(t, err)
		assert.Equal(t, books, gotBooks)

		gotExchanges, err := store.Exchanges.Load(tx)
		require.NoError(t, err)
		assert.Equal(t, exchanges, gotExchanges)

		gotConversations, err := store.Conversations.Load(tx)
		require.NoError(t, err)
		assert.Equal(t, conversations, gotConversations)

		gotMessages, err := store.Messages.Load(tx)
		require.NoError(t, err)
		assert.Equal(t, messages, gotMessages)
		return nil
	}))
}

func testMultiCollection(t *testing.T, kv store.KV) {
	ctx := context.Background()
	boom := errors.New("second write failed")

	err := kv.Update(ctx, func(tx store.Txn) error {
		if err := store.Exchanges.Save(tx, []domain.Exchange{{ID: "exch-1"}}); err != nil {
			return err
		}
		if err := store.Books.Save(tx, []domain.Book{{ID: "book-1", Status: domain.BookStatusPending}}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	require.NoError(t, kv.View(ctx, func(tx store.Txn) error {
		exchanges, err := store.Exchanges.Load(tx)
		require.NoError(t, err)
		assert.Empty(t, exchanges)

		books, err := store.Books.Load(tx)
		require.NoError(t, err)
		assert.Empty(t, books)
		return nil
	}))
}
