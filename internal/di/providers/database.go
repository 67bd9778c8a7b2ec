package providers

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/bookexchange/bookexchange/internal/config"
	"github.com/bookexchange/bookexchange/internal/logger"
	"github.com/bookexchange/bookexchange/internal/store"
	"github.com/bookexchange/bookexchange/internal/store/sqlite"
)

// StoreHandle wraps the configured key-value store with shutdown capability.
type StoreHandle struct {
	store.KV
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore opens the key-value store selected by the configuration.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if err := os.MkdirAll(cfg.Storage.DataPath, 0o750); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	var (
		kv   store.KV
		path string
		err  error
	)
	switch cfg.Storage.Backend {
	case config.BackendSQLite:
		path = filepath.Join(cfg.Storage.DataPath, "bookexchange.db")
		kv, err = sqlite.Open(path, log.Logger)
	default:
		path = filepath.Join(cfg.Storage.DataPath, "db")
		kv, err = store.New(path, log.Logger)
	}
	if err != nil {
		return nil, err
	}

	log.Debug("Store opened", "backend", cfg.Storage.Backend, "path", path)

	return &StoreHandle{KV: kv}, nil
}
