package providers

import (
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/bookexchange/bookexchange/internal/auth"
	"github.com/bookexchange/bookexchange/internal/backup"
	"github.com/bookexchange/bookexchange/internal/config"
	"github.com/bookexchange/bookexchange/internal/logger"
	"github.com/bookexchange/bookexchange/internal/service"
	"github.com/bookexchange/bookexchange/internal/validation"
)

// ProvideHasher provides the Argon2id password hasher.
func ProvideHasher(i do.Injector) (*auth.Hasher, error) {
	cfg := do.MustInvoke[*config.Config](i)

	return auth.NewHasher(auth.Params{
		Memory:     uint32(cfg.Auth.HashMemoryKiB),
		Iterations: uint32(cfg.Auth.HashIterations),
	}), nil
}

// ProvideValidator provides the request validator.
func ProvideValidator(_ do.Injector) (*validation.Validator, error) {
	return validation.New(), nil
}

// ProvideUserService provides the user registry.
func ProvideUserService(i do.Injector) (*service.UserService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	hasher := do.MustInvoke[*auth.Hasher](i)
	v := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewUserService(storeHandle.KV, hasher, v, log.Logger), nil
}

// ProvideBookService provides the book catalog.
func ProvideBookService(i do.Injector) (*service.BookService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	v := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewBookService(storeHandle.KV, v, log.Logger), nil
}

// ProvideExchangeService provides the exchange engine.
func ProvideExchangeService(i do.Injector) (*service.ExchangeService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewExchangeService(storeHandle.KV, log.Logger), nil
}

// ProvideMessageService provides the messaging service.
func ProvideMessageService(i do.Injector) (*service.MessageService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewMessageService(storeHandle.KV, log.Logger), nil
}

// ProvideSeedService provides the demo data seeder.
func ProvideSeedService(i do.Injector) (*service.SeedService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	users := do.MustInvoke[*service.UserService](i)
	books := do.MustInvoke[*service.BookService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewSeedService(storeHandle.KV, users, books, log.Logger, 0), nil
}

// ProvideBackupService provides the backup service, writing archives under
// the data directory.
func ProvideBackupService(i do.Injector) (*backup.Service, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return backup.NewService(storeHandle.KV, filepath.Join(cfg.Storage.DataPath, "backups"), log.Logger), nil
}
