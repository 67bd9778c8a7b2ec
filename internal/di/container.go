// Package di provides dependency injection configuration for the book exchange.
package di

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/bookexchange/bookexchange/internal/config"
	"github.com/bookexchange/bookexchange/internal/di/providers"
	"github.com/bookexchange/bookexchange/internal/logger"
	"github.com/bookexchange/bookexchange/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
// flags are the command-line overrides applied on top of the environment.
func NewContainer(flags config.Flags) *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.ProvideValue(injector, flags)
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)

	// Storage layer
	do.Provide(injector, providers.ProvideStore)

	// Auth and validation
	do.Provide(injector, providers.ProvideHasher)
	do.Provide(injector, providers.ProvideValidator)

	// Business services
	do.Provide(injector, providers.ProvideUserService)
	do.Provide(injector, providers.ProvideBookService)
	do.Provide(injector, providers.ProvideExchangeService)
	do.Provide(injector, providers.ProvideMessageService)
	do.Provide(injector, providers.ProvideSeedService)

	// Maintenance
	do.Provide(injector, providers.ProvideBackupService)

	return injector
}

// Bootstrap initializes the core services and, when configured, writes the
// sample catalog into an empty store.
func Bootstrap(ctx context.Context, injector *do.RootScope) error {
	cfg, err := do.Invoke[*config.Config](injector)
	if err != nil {
		return err
	}
	if _, err := do.Invoke[*logger.Logger](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.StoreHandle](injector); err != nil {
		return err
	}

	if !cfg.Seed.SampleCatalog {
		return nil
	}
	seeder, err := do.Invoke[*service.SeedService](injector)
	if err != nil {
		return err
	}
	_, err = seeder.SeedSampleCatalog(ctx)
	return err
}
