package store_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookexchange/bookexchange/internal/store"
	"github.com/bookexchange/bookexchange/internal/store/storetest"
)

func setupTestStore(t *testing.T) *store.Store {
	t.Helper()

	s, err := store.New(filepath.Join(t.TempDir(), "badger"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	return s
}

func TestBadgerStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.KV {
		return setupTestStore(t)
	})
}

func TestBadgerStore_InMemory(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.KV {
		s, err := store.NewInMemory(nil)
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestBadgerStore_PersistsAcrossReopen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "badger")
	ctx := context.Background()

	s, err := store.New(dir, nil)
	require.NoError(t, err)
	require.NoError(t, s.Update(ctx, func(tx store.Txn) error {
		return tx.Set("greeting", "bonjour")
	}))
	require.NoError(t, s.Close())

	s, err = store.New(dir, nil)
	require.NoError(t, err)
	defer s.Close()

	var got string
	require.NoError(t, s.View(ctx, func(tx store.Txn) error {
		return tx.Get("greeting", &got)
	}))
	assert.Equal(t, "bonjour", got)
}
