package backup_test

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookexchange/bookexchange/internal/backup"
	"github.com/bookexchange/bookexchange/internal/domain"
	domainerrors "github.com/bookexchange/bookexchange/internal/errors"
	"github.com/bookexchange/bookexchange/internal/session"
	"github.com/bookexchange/bookexchange/internal/store"
)

// testSetup creates a store and a backup service writing into a temp directory.
func testSetup(t *testing.T) (*store.Store, *backup.Service, string) {
	t.Helper()

	tmpDir := t.TempDir()
	s, err := store.New(filepath.Join(tmpDir, "db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	backupDir := filepath.Join(tmpDir, "backups")
	return s, backup.NewService(s, backupDir, nil), backupDir
}

// createTestEntities writes one record of each collection plus a session.
func createTestEntities(t *testing.T, kv store.KV) {
	t.Helper()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, kv.Update(context.Background(), func(tx store.Txn) error {
		if err := store.Users.Save(tx, []domain.User{
			{ID: "user-1", Username: "marie", Email: "marie@example.com", JoinDate: now, Reviews: []domain.Review{}},
		}); err != nil {
			return err
		}
		if err := store.Books.Save(tx, []domain.Book{
			{ID: "book-1", Title: "Dune", Type: domain.BookTypeLoan, Status: domain.BookStatusAvailable,
				OwnerID: "user-1", AddedDate: now, Categories: []string{}},
		}); err != nil {
			return err
		}
		if err := store.Exchanges.Save(tx, []domain.Exchange{
			{ID: "exch-1", BookID: "book-1", Status: domain.ExchangeStatusCancelled, StartDate: now},
		}); err != nil {
			return err
		}
		if err := store.Messages.Save(tx, []domain.Message{
			{ID: "msg-1", SenderID: "user-2", RecipientID: "user-1", Content: "Bonjour", Date: now},
		}); err != nil {
			return err
		}
		if err := store.Conversations.Save(tx, []domain.Conversation{
			{ID: "conv-1", User1ID: "user-2", User2ID: "user-1", LastMessageDate: now},
		}); err != nil {
			return err
		}
		return tx.Set(session.Key, domain.SessionUser{ID: "user-1"})
	}))
}

func loadBooks(t *testing.T, kv store.KV) []domain.Book {
	t.Helper()
	var books []domain.Book
	require.NoError(t, kv.View(context.Background(), func(tx store.Txn) error {
		var err error
		books, err = store.Books.Load(tx)
		return err
	}))
	return books
}

func TestBackup_CreateAndList(t *testing.T) {
	s, svc, backupDir := testSetup(t)
	createTestEntities(t, s)
	ctx := context.Background()

	result, err := svc.Create(ctx, "")
	require.NoError(t, err)

	assert.Equal(t, backup.EntityCounts{Users: 1, Books: 1, Exchanges: 1, Messages: 1, Conversations: 1}, result.Counts)
	assert.Len(t, result.Checksum, 64)
	assert.Positive(t, result.Size)
	assert.Equal(t, backupDir, filepath.Dir(result.Path))

	backups, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, backups, 1)
	assert.Equal(t, result.Path, backups[0].Path)

	path, err := svc.Resolve(backups[0].ID)
	require.NoError(t, err)
	assert.Equal(t, result.Path, path)

	manifest, err := svc.Validate(ctx, result.Path)
	require.NoError(t, err)
	assert.Equal(t, backup.FormatVersion, manifest.Version)
}

func TestBackup_ListMissingDir(t *testing.T) {
	_, svc, _ := testSetup(t)

	backups, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, backups)

	_, err = svc.Resolve("backup-nope")
	assert.True(t, domainerrors.Is(err, domainerrors.ErrNotFound))
}

func TestRestore_Full(t *testing.T) {
	s, svc, _ := testSetup(t)
	createTestEntities(t, s)
	ctx := context.Background()

	result, err := svc.Create(ctx, filepath.Join(t.TempDir(), "snapshot.zip"))
	require.NoError(t, err)

	// Diverge from the backup.
	require.NoError(t, s.Update(ctx, func(tx store.Txn) error {
		return store.Books.Save(tx, []domain.Book{{ID: "book-new", Title: "Nouveau"}})
	}))

	restored, err := svc.Restore(ctx, result.Path, backup.RestoreOptions{Mode: backup.RestoreModeFull})
	require.NoError(t, err)
	assert.Equal(t, 1, restored.Imported.Books)

	books := loadBooks(t, s)
	require.Len(t, books, 1)
	assert.Equal(t, "book-1", books[0].ID)

	sess, err := session.Load(ctx, s)
	require.NoError(t, err)
	assert.False(t, sess.IsAuthenticated(), "full restore signs out")
}

func TestRestore_Merge(t *testing.T) {
	s, svc, _ := testSetup(t)
	createTestEntities(t, s)
	ctx := context.Background()

	result, err := svc.Create(ctx, "")
	require.NoError(t, err)

	require.NoError(t, s.Update(ctx, func(tx store.Txn) error {
		return store.Books.Save(tx, []domain.Book{
			{ID: "book-1", Title: "Dune (local edit)"},
			{ID: "book-2", Title: "Fondation"},
		})
	}))

	dry, err := svc.Restore(ctx, result.Path, backup.RestoreOptions{Mode: backup.RestoreModeMerge, DryRun: true})
	require.NoError(t, err)
	assert.True(t, dry.DryRun)
	assert.Equal(t, 1, dry.Skipped.Books)

	restored, err := svc.Restore(ctx, result.Path, backup.RestoreOptions{})
	require.NoError(t, err)
	assert.Equal(t, 0, restored.Imported.Books)
	assert.Equal(t, 1, restored.Skipped.Books)
	assert.Equal(t, 1, restored.Skipped.Users)

	books := loadBooks(t, s)
	require.Len(t, books, 2)
	assert.Equal(t, "Dune (local edit)", books[0].Title, "local records win")
}

func TestRestore_Corrupt(t *testing.T) {
	_, svc, _ := testSetup(t)
	ctx := context.Background()
	dir := t.TempDir()

	notZip := filepath.Join(dir, "bad.zip")
	require.NoError(t, os.WriteFile(notZip, []byte("not a zip"), 0o600))
	_, err := svc.Restore(ctx, notZip, backup.RestoreOptions{})
	assert.ErrorIs(t, err, backup.ErrCorruptedBackup)
	assert.Contains(t, err.Error(), "integrity check failed")

	noManifest := filepath.Join(dir, "empty.zip")
	f, err := os.Create(noManifest)
	require.NoError(t, err)
	require.NoError(t, zip.NewWriter(f).Close())
	require.NoError(t, f.Close())
	_, err = svc.Restore(ctx, noManifest, backup.RestoreOptions{})
	assert.ErrorIs(t, err, backup.ErrInvalidManifest)
	assert.Contains(t, err.Error(), "manifest")

	_, err = svc.Restore(ctx, noManifest, backup.RestoreOptions{Mode: "wipe"})
	assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation))
}

func TestRestore_MergeConversationsByParticipants(t *testing.T) {
	s, svc, _ := testSetup(t)
	createTestEntities(t, s)
	ctx := context.Background()

	result, err := svc.Create(ctx, "")
	require.NoError(t, err)

	// Same pair, opened from the other side under a different ID.
	require.NoError(t, s.Update(ctx, func(tx store.Txn) error {
		return store.Conversations.Save(tx, []domain.Conversation{
			{ID: "conv-local", User1ID: "user-1", User2ID: "user-2"},
		})
	}))

	restored, err := svc.Restore(ctx, result.Path, backup.RestoreOptions{Mode: backup.RestoreModeMerge})
	require.NoError(t, err)
	assert.Equal(t, 0, restored.Imported.Conversations)
	assert.Equal(t, 1, restored.Skipped.Conversations)

	var convs []domain.Conversation
	require.NoError(t, s.View(ctx, func(tx store.Txn) error {
		var err error
		convs, err = store.Conversations.Load(tx)
		return err
	}))
	require.Len(t, convs, 1)
	assert.Equal(t, "conv-local", convs[0].ID)
}

func loadUsers(t *testing.T, kv store.KV) []domain.User {
	t.Helper()
	var users []domain.User
	require.NoError(t, kv.View(context.Background(), func(tx store.Txn) error {
		var err error
		users, err = store.Users.Load(tx)
		return err
	}))
	return users
}

// resetStore leaves only the given users in the store.
func resetStore(t *testing.T, kv store.KV, users []domain.User) {
	t.Helper()
	require.NoError(t, kv.Update(context.Background(), func(tx store.Txn) error {
		if err := store.Users.Save(tx, users); err != nil {
			return err
		}
		if err := store.Books.Save(tx, []domain.Book{}); err != nil {
			return err
		}
		if err := store.Exchanges.Save(tx, []domain.Exchange{}); err != nil {
			return err
		}
		if err := store.Messages.Save(tx, []domain.Message{}); err != nil {
			return err
		}
		return store.Conversations.Save(tx, []domain.Conversation{})
	}))
}

func TestRestore_MergeRefusesTakenIdentity(t *testing.T) {
	tests := []struct {
		name  string
		local domain.User
	}{
		{
			name:  "email differs only in case",
			local: domain.User{ID: "user-9", Username: "marie9", Email: "MARIE@example.com"},
		},
		{
			name:  "username taken",
			local: domain.User{ID: "user-9", Username: "marie", Email: "other@example.com"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, svc, _ := testSetup(t)
			createTestEntities(t, s)
			ctx := context.Background()

			result, err := svc.Create(ctx, "")
			require.NoError(t, err)
			resetStore(t, s, []domain.User{tt.local})

			restored, err := svc.Restore(ctx, result.Path, backup.RestoreOptions{Mode: backup.RestoreModeMerge})
			require.NoError(t, err)

			assert.Equal(t, backup.EntityCounts{}, restored.Imported)
			assert.Equal(t, backup.EntityCounts{Users: 1, Books: 1, Exchanges: 1, Messages: 1, Conversations: 1}, restored.Skipped)
			assert.Equal(t, []string{"marie"}, restored.Conflicts)

			users := loadUsers(t, s)
			require.Len(t, users, 1)
			assert.Equal(t, "user-9", users[0].ID)
			assert.Empty(t, loadBooks(t, s), "books of a refused user stay out")
		})
	}
}

func TestRestore_MergeRecountsBooksAdded(t *testing.T) {
	s, svc, _ := testSetup(t)
	createTestEntities(t, s)
	ctx := context.Background()

	result, err := svc.Create(ctx, "")
	require.NoError(t, err)

	// The owner still exists locally but lost the book.
	resetStore(t, s, []domain.User{{ID: "user-1", Username: "marie", Email: "marie@example.com", BooksAdded: 0}})

	restored, err := svc.Restore(ctx, result.Path, backup.RestoreOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, restored.Imported.Books)
	assert.Empty(t, restored.Conflicts)

	users := loadUsers(t, s)
	require.Len(t, users, 1)
	assert.Equal(t, 1, users[0].BooksAdded)
	assert.Len(t, loadBooks(t, s), 1)
}

func TestRestore_MergeRecountsImportedUsers(t *testing.T) {
	s, svc, _ := testSetup(t)
	createTestEntities(t, s)
	ctx := context.Background()

	result, err := svc.Create(ctx, "")
	require.NoError(t, err)
	resetStore(t, s, []domain.User{})

	restored, err := svc.Restore(ctx, result.Path, backup.RestoreOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, restored.Imported.Users)

	users := loadUsers(t, s)
	require.Len(t, users, 1)
	assert.Equal(t, 1, users[0].BooksAdded, "archived count was stale")
}
