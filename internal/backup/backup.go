package backup

import (
	"archive/zip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/bookexchange/bookexchange/internal/backup/stream"
	"github.com/bookexchange/bookexchange/internal/domain"
	"github.com/bookexchange/bookexchange/internal/store"
)

// Service creates, lists, and restores backups of the store.
type Service struct {
	kv     store.KV
	dir    string
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a backup service writing archives to dir.
func NewService(kv store.KV, dir string, logger *slog.Logger) *Service {
	return &Service{kv: kv, dir: dir, logger: logger, now: time.Now}
}

// snapshot is every collection read in one transaction.
type snapshot struct {
	users         []domain.User
	books         []domain.Book
	exchanges     []domain.Exchange
	messages      []domain.Message
	conversations []domain.Conversation
}

func (s *snapshot) counts() EntityCounts {
	return EntityCounts{
		Users:         len(s.users),
		Books:         len(s.books),
		Exchanges:     len(s.exchanges),
		Messages:      len(s.messages),
		Conversations: len(s.conversations),
	}
}

// Create writes a backup archive. An empty outputPath places a timestamped
// file in the backup directory.
func (s *Service) Create(ctx context.Context, outputPath string) (*Result, error) {
	start := time.Now()

	if outputPath == "" {
		if err := os.MkdirAll(s.dir, 0o750); err != nil {
			return nil, fmt.Errorf("create backup dir: %w", err)
		}
		name := "backup-" + s.now().UTC().Format("2006-01-02-150405.000") + fileSuffix
		outputPath = filepath.Join(s.dir, name)
	}

	var snap snapshot
	err := s.kv.View(ctx, func(tx store.Txn) error {
		var err error
		if snap.users, err = store.Users.Load(tx); err != nil {
			return err
		}
		if snap.books, err = store.Books.Load(tx); err != nil {
			return err
		}
		if snap.exchanges, err = store.Exchanges.Load(tx); err != nil {
			return err
		}
		if snap.messages, err = store.Messages.Load(tx); err != nil {
			return err
		}
		snap.conversations, err = store.Conversations.Load(tx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("read store: %w", err)
	}

	// Write to a temp file, rename on success.
	tmpPath := outputPath + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("create backup file: %w", err)
	}
	defer os.Remove(tmpPath)
	defer f.Close()

	hash := sha256.New()
	zw := zip.NewWriter(io.MultiWriter(f, hash))

	manifest := Manifest{
		Version:   FormatVersion,
		CreatedAt: s.now().UTC(),
	}
	if err := writeEntities(zw, &snap, &manifest.Counts); err != nil {
		return nil, err
	}

	mw, err := zw.Create(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("write manifest: %w", err)
	}
	if err := json.NewEncoder(mw).Encode(&manifest); err != nil {
		return nil, fmt.Errorf("write manifest: %w", err)
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close zip: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("close file: %w", err)
	}
	if err := os.Rename(tmpPath, outputPath); err != nil {
		return nil, fmt.Errorf("rename backup: %w", err)
	}

	info, err := os.Stat(outputPath)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Path:     outputPath,
		Size:     info.Size(),
		Counts:   manifest.Counts,
		Duration: time.Since(start),
		Checksum: hex.EncodeToString(hash.Sum(nil)),
	}

	if s.logger != nil {
		s.logger.Info("Backup complete",
			"path", result.Path,
			"size", result.Size,
			"duration", result.Duration,
			"checksum", result.Checksum)
	}

	return result, nil
}

func writeEntities(zw *zip.Writer, snap *snapshot, counts *EntityCounts) error {
	var err error
	if counts.Users, err = stream.WriteAll(zw, usersPath, snap.users); err != nil {
		return err
	}
	if counts.Books, err = stream.WriteAll(zw, booksPath, snap.books); err != nil {
		return err
	}
	if counts.Exchanges, err = stream.WriteAll(zw, exchangesPath, snap.exchanges); err != nil {
		return err
	}
	if counts.Messages, err = stream.WriteAll(zw, messagesPath, snap.messages); err != nil {
		return err
	}
	counts.Conversations, err = stream.WriteAll(zw, conversationsPath, snap.conversations)
	return err
}

// List returns the backups in the backup directory, newest first.
func (s *Service) List(_ context.Context) ([]Info, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []Info{}, nil
	}
	if err != nil {
		return nil, err
	}

	backups := []Info{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), fileSuffix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		backups = append(backups, Info{
			ID:        strings.TrimSuffix(entry.Name(), fileSuffix),
			Path:      filepath.Join(s.dir, entry.Name()),
			Size:      info.Size(),
			CreatedAt: info.ModTime(),
		})
	}

	slices.SortFunc(backups, func(a, b Info) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(b.ID, a.ID)
	})
	return backups, nil
}

// Resolve maps a backup ID from List, or a file path, to an existing archive.
func (s *Service) Resolve(idOrPath string) (string, error) {
	candidates := []string{filepath.Join(s.dir, idOrPath+fileSuffix), idOrPath}
	for _, p := range candidates {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, nil
		}
	}
	return "", ErrBackupNotFound.WithDetails(map[string]string{"backup": idOrPath})
}
