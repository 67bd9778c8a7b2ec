// Package providers contains dependency injection providers for the book exchange.
package providers

import (
	"os"

	"github.com/samber/do/v2"
	"golang.org/x/term"

	"github.com/bookexchange/bookexchange/internal/config"
	"github.com/bookexchange/bookexchange/internal/logger"
)

// ProvideConfig provides the application configuration, honoring any
// command-line flags registered in the injector.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	flags, err := do.Invoke[config.Flags](i)
	if err != nil {
		flags = config.Flags{}
	}
	return config.LoadConfig(flags)
}

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		AddSource:   cfg.App.Environment == "development",
		Environment: cfg.App.Environment,
		NoColor:     !term.IsTerminal(int(os.Stderr.Fd())),
	})

	log.Debug("Configuration loaded",
		"environment", cfg.App.Environment,
		"log_level", cfg.Logger.Level,
		"backend", cfg.Storage.Backend,
		"data_path", cfg.Storage.DataPath,
	)

	return log, nil
}
