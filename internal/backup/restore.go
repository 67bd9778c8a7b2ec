package backup

import (
	"archive/zip"
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/bookexchange/bookexchange/internal/backup/stream"
	"github.com/bookexchange/bookexchange/internal/domain"
	domainerrors "github.com/bookexchange/bookexchange/internal/errors"
	"github.com/bookexchange/bookexchange/internal/session"
	"github.com/bookexchange/bookexchange/internal/store"
)

// Restore loads the archive at path into the store. The archive is read and
// checked completely before anything is written, and all collections are
// written in one transaction.
func (s *Service) Restore(ctx context.Context, path string, opts RestoreOptions) (*RestoreResult, error) {
	start := time.Now()

	if opts.Mode == "" {
		opts.Mode = RestoreModeMerge
	}
	if !opts.Mode.Valid() {
		return nil, domainerrors.Validationf("unknown restore mode %q (full or merge)", opts.Mode)
	}

	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, ErrCorruptedBackup.WithCause(err)
	}
	defer zr.Close()

	snap, err := readArchive(&zr.Reader)
	if err != nil {
		return nil, err
	}

	result := &RestoreResult{DryRun: opts.DryRun}
	err = s.kv.Update(ctx, func(tx store.Txn) error {
		if opts.Mode == RestoreModeFull {
			result.Imported = snap.counts()
			if opts.DryRun {
				return nil
			}
			return replaceAll(tx, snap)
		}
		return mergeAll(tx, snap, result, opts.DryRun)
	})
	if err != nil {
		return nil, err
	}
	result.Duration = time.Since(start)

	if s.logger != nil {
		s.logger.Info("Restore complete",
			"path", path,
			"mode", opts.Mode,
			"dry_run", opts.DryRun,
			"imported", result.Imported,
			"skipped", result.Skipped,
			"duration", result.Duration)
	}

	return result, nil
}

// Validate checks an archive without importing it and returns its manifest.
func (s *Service) Validate(_ context.Context, path string) (*Manifest, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, ErrCorruptedBackup.WithCause(err)
	}
	defer zr.Close()

	snap, err := readArchive(&zr.Reader)
	if err != nil {
		return nil, err
	}
	return &snap.manifest, nil
}

type archiveContents struct {
	snapshot
	manifest Manifest
}

// readArchive loads the manifest and every collection, and checks the
// record counts against the manifest.
func readArchive(zr *zip.Reader) (*archiveContents, error) {
	rc, err := stream.OpenFile(zr, manifestPath)
	if err != nil {
		return nil, ErrInvalidManifest.WithCause(err)
	}
	var a archiveContents
	err = json.NewDecoder(rc).Decode(&a.manifest)
	rc.Close()
	if err != nil {
		return nil, ErrInvalidManifest.WithCause(err)
	}
	if a.manifest.Version != FormatVersion {
		return nil, ErrVersionMismatch.WithDetails(map[string]string{
			"version": a.manifest.Version,
			"want":    FormatVersion,
		})
	}

	if a.users, err = stream.ReadAll[domain.User](zr, usersPath); err != nil {
		return nil, ErrCorruptedBackup.WithCause(err)
	}
	if a.books, err = stream.ReadAll[domain.Book](zr, booksPath); err != nil {
		return nil, ErrCorruptedBackup.WithCause(err)
	}
	if a.exchanges, err = stream.ReadAll[domain.Exchange](zr, exchangesPath); err != nil {
		return nil, ErrCorruptedBackup.WithCause(err)
	}
	if a.messages, err = stream.ReadAll[domain.Message](zr, messagesPath); err != nil {
		return nil, ErrCorruptedBackup.WithCause(err)
	}
	if a.conversations, err = stream.ReadAll[domain.Conversation](zr, conversationsPath); err != nil {
		return nil, ErrCorruptedBackup.WithCause(err)
	}

	if got := a.counts(); got != a.manifest.Counts {
		return nil, ErrCorruptedBackup.WithCause(
			fmt.Errorf("record counts %+v do not match manifest %+v", got, a.manifest.Counts))
	}
	return &a, nil
}

func replaceAll(tx store.Txn, a *archiveContents) error {
	if err := store.Users.Save(tx, a.users); err != nil {
		return err
	}
	if err := store.Books.Save(tx, a.books); err != nil {
		return err
	}
	if err := store.Exchanges.Save(tx, a.exchanges); err != nil {
		return err
	}
	if err := store.Messages.Save(tx, a.messages); err != nil {
		return err
	}
	if err := store.Conversations.Save(tx, a.conversations); err != nil {
		return err
	}
	// The saved session may name a user the backup does not have.
	return tx.Delete(session.Key)
}

// mergeAll adds the archived records the store does not have. An archived
// user whose email or username already belongs to another account is refused,
// along with every book, exchange, message and conversation tied to it.
// Imported users and owners that gain books get booksAdded recounted.
func mergeAll(tx store.Txn, a *archiveContents, res *RestoreResult, dryRun bool) error {
	users, err := store.Users.Load(tx)
	if err != nil {
		return err
	}
	books, err := store.Books.Load(tx)
	if err != nil {
		return err
	}
	exchanges, err := store.Exchanges.Load(tx)
	if err != nil {
		return err
	}
	messages, err := store.Messages.Load(tx)
	if err != nil {
		return err
	}
	convs, err := store.Conversations.Load(tx)
	if err != nil {
		return err
	}

	existingUsers := len(users)
	users, refused := mergeUsers(users, a.users, res)
	isRefused := func(userID string) bool {
		_, ok := refused[userID]
		return ok
	}

	refusedBooks := make(map[string]struct{})
	for i := range a.books {
		if isRefused(a.books[i].OwnerID) {
			refusedBooks[a.books[i].ID] = struct{}{}
		}
	}

	var importedBooks []domain.Book
	books, importedBooks, res.Skipped.Books = merge(books, a.books,
		func(b *domain.Book) string { return b.ID },
		func(b *domain.Book) bool { return isRefused(b.OwnerID) })
	res.Imported.Books = len(importedBooks)

	var importedExchanges []domain.Exchange
	exchanges, importedExchanges, res.Skipped.Exchanges = merge(exchanges, a.exchanges,
		func(e *domain.Exchange) string { return e.ID },
		func(e *domain.Exchange) bool {
			_, book := refusedBooks[e.BookID]
			return book || isRefused(e.OwnerID) || isRefused(e.BorrowerID)
		})
	res.Imported.Exchanges = len(importedExchanges)

	var importedMessages []domain.Message
	messages, importedMessages, res.Skipped.Messages = merge(messages, a.messages,
		func(m *domain.Message) string { return m.ID },
		func(m *domain.Message) bool { return isRefused(m.SenderID) || isRefused(m.RecipientID) })
	res.Imported.Messages = len(importedMessages)

	var importedConvs []domain.Conversation
	convs, importedConvs, res.Skipped.Conversations = merge(convs, a.conversations,
		pairKey,
		func(c *domain.Conversation) bool { return isRefused(c.User1ID) || isRefused(c.User2ID) })
	res.Imported.Conversations = len(importedConvs)

	if dryRun {
		return nil
	}

	if res.Imported.Users > 0 || res.Imported.Books > 0 {
		recountOwners(users, existingUsers, books, importedBooks)
		if err := store.Users.Save(tx, users); err != nil {
			return err
		}
	}
	if res.Imported.Books > 0 {
		if err := store.Books.Save(tx, books); err != nil {
			return err
		}
	}
	if res.Imported.Exchanges > 0 {
		if err := store.Exchanges.Save(tx, exchanges); err != nil {
			return err
		}
	}
	if res.Imported.Messages > 0 {
		if err := store.Messages.Save(tx, messages); err != nil {
			return err
		}
	}
	if res.Imported.Conversations > 0 {
		return store.Conversations.Save(tx, convs)
	}
	return nil
}

// mergeUsers appends the archived users that are new and whose email and
// username are free. It returns the IDs of users refused for a clash; users
// skipped because their ID already exists are not refused.
func mergeUsers(local, incoming []domain.User, res *RestoreResult) ([]domain.User, map[string]struct{}) {
	refused := make(map[string]struct{})
	for i := range incoming {
		u := incoming[i]
		if slices.ContainsFunc(local, func(l domain.User) bool { return l.ID == u.ID }) {
			res.Skipped.Users++
			continue
		}
		if domain.EmailTaken(local, u.ID, u.Email) || domain.UsernameTaken(local, u.ID, u.Username) {
			refused[u.ID] = struct{}{}
			res.Skipped.Users++
			res.Conflicts = append(res.Conflicts, u.Username)
			continue
		}
		local = append(local, u)
		res.Imported.Users++
	}
	return local, refused
}

// recountOwners sets booksAdded for every imported user (those at index
// existing and after) and for every owner of an imported book.
func recountOwners(users []domain.User, existing int, books, imported []domain.Book) {
	for i := range users {
		if i >= existing || slices.ContainsFunc(imported, func(b domain.Book) bool { return b.OwnerID == users[i].ID }) {
			users[i].BooksAdded = domain.CountOwned(books, users[i].ID)
		}
	}
}

// pairKey identifies a conversation by its participants so a merge never
// creates a second conversation between the same two users.
func pairKey(c *domain.Conversation) string {
	a, b := c.User1ID, c.User2ID
	if b < a {
		a, b = b, a
	}
	return a + "|" + b
}

// merge appends the incoming records whose key is not already present and
// that refuse does not reject. It returns the merged slice, the appended
// records, and how many were left out.
func merge[T any](local, incoming []T, key func(*T) string, refuse func(*T) bool) (merged, imported []T, skipped int) {
	seen := make(map[string]struct{}, len(local))
	for i := range local {
		seen[key(&local[i])] = struct{}{}
	}

	for i := range incoming {
		k := key(&incoming[i])
		if _, ok := seen[k]; ok || refuse(&incoming[i]) {
			skipped++
			continue
		}
		seen[k] = struct{}{}
		local = append(local, incoming[i])
		imported = append(imported, incoming[i])
	}
	return local, imported, skipped
}
