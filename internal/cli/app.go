// Package cli implements the bookexchange command line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/bookexchange/bookexchange/internal/config"
	"github.com/bookexchange/bookexchange/internal/di"
	"github.com/bookexchange/bookexchange/internal/di/providers"
	domainerrors "github.com/bookexchange/bookexchange/internal/errors"
	"github.com/bookexchange/bookexchange/internal/logger"
	"github.com/bookexchange/bookexchange/internal/service"
	"github.com/bookexchange/bookexchange/internal/session"
	"github.com/bookexchange/bookexchange/internal/store"
)

// App holds the state shared by every command of one invocation.
type App struct {
	flags    config.Flags
	jsonOut  bool
	in       io.Reader
	out      io.Writer
	injector *do.RootScope
	kv       store.KV
	sess     *session.Session
}

// Execute runs the command line in args and returns the process exit status.
func Execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	app := &App{in: stdin, out: stdout}

	root := app.rootCommand()
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	cmd, err := root.ExecuteContextC(ctx)
	if err != nil && app.injector != nil {
		app.logFailure(cmd, err)
	}
	if closeErr := app.close(); err == nil {
		err = closeErr
	}
	if err == nil {
		return 0
	}

	fmt.Fprintln(stderr, "error:", err)
	code := domainerrors.CodeOf(err)
	if app.injector == nil && code == domainerrors.CodeInternal {
		// Failed before the store was opened: a usage problem.
		return 2
	}
	return code.ExitCode()
}

func (a *App) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "bookexchange",
		Short:         "Lend, swap, and sell books between students",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.open(cmd.Context())
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return session.Save(cmd.Context(), a.kv, a.sess)
		},
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return domainerrors.Validation(err.Error())
	})

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.Env, "env", "", "environment (development, staging, production)")
	pf.StringVar(&a.flags.LogLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.StringVar(&a.flags.DataPath, "data", "", "data directory (default ~/.bookexchange)")
	pf.StringVar(&a.flags.Backend, "backend", "", "storage backend (badger or sqlite)")
	pf.StringVar(&a.flags.EnvFile, "env-file", "", "path to a .env file")
	pf.StringVar(&a.flags.SeedSamples, "seed-samples", "", "write the sample catalog into an empty store (true or false)")
	pf.StringVar(&a.flags.HashMemory, "hash-memory", "", "Argon2id memory cost in KiB")
	pf.StringVar(&a.flags.HashIterations, "hash-iterations", "", "Argon2id iterations")
	pf.BoolVar(&a.jsonOut, "json", false, "print results as JSON")
	_ = pf.MarkHidden("hash-memory")
	_ = pf.MarkHidden("hash-iterations")

	root.AddCommand(
		a.registerCommand(),
		a.loginCommand(),
		a.logoutCommand(),
		a.whoamiCommand(),
		a.profileCommand(),
		a.userCommand(),
		a.booksCommand(),
		a.exchangesCommand(),
		a.messagesCommand(),
		a.seedCommand(),
		a.backupCommand(),
	)
	return root
}

// open builds the container, opens the store, and restores the saved session.
func (a *App) open(ctx context.Context) error {
	a.injector = di.NewContainer(a.flags)
	if err := di.Bootstrap(ctx, a.injector); err != nil {
		return err
	}

	a.kv = do.MustInvoke[*providers.StoreHandle](a.injector).KV

	sess, err := session.Load(ctx, a.kv)
	if err != nil {
		return err
	}
	a.sess = sess
	return nil
}

func (a *App) close() error {
	if a.injector == nil {
		return nil
	}
	if report := a.injector.Shutdown(); report != nil && len(report.Errors) > 0 {
		return fmt.Errorf("shutdown: %w", report)
	}
	return nil
}

// logFailure records a failed command. Internal failures log at error level;
// rejected requests only at debug since the user already sees the message.
func (a *App) logFailure(cmd *cobra.Command, err error) {
	log, invokeErr := do.Invoke[*logger.Logger](a.injector)
	if invokeErr != nil {
		return
	}
	code := domainerrors.CodeOf(err)
	log = log.WithError(err).WithField("command", cmd.CommandPath())
	if code == domainerrors.CodeInternal {
		log.Error("Command failed")
		return
	}
	log.Debug("Command rejected", "code", code)
}

func (a *App) logger() *logger.Logger {
	return do.MustInvoke[*logger.Logger](a.injector)
}

func (a *App) users() *service.UserService {
	return do.MustInvoke[*service.UserService](a.injector)
}

func (a *App) books() *service.BookService {
	return do.MustInvoke[*service.BookService](a.injector)
}

func (a *App) exchanges() *service.ExchangeService {
	return do.MustInvoke[*service.ExchangeService](a.injector)
}

func (a *App) messages() *service.MessageService {
	return do.MustInvoke[*service.MessageService](a.injector)
}

func (a *App) seeder() *service.SeedService {
	return do.MustInvoke[*service.SeedService](a.injector)
}

// stdinFile returns stdin as a file when it is the process's terminal input.
func (a *App) stdinFile() (*os.File, bool) {
	f, ok := a.in.(*os.File)
	return f, ok
}
