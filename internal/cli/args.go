package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	domainerrors "github.com/bookexchange/bookexchange/internal/errors"
)

// noArgs rejects positional arguments with a VALIDATION error.
func noArgs(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return domainerrors.Validationf("%s takes no arguments, got %q", cmd.CommandPath(), args)
	}
	return nil
}

// exactArgs requires n positional arguments.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return domainerrors.Validationf("%s expects %d argument(s), got %d", cmd.CommandPath(), n, len(args))
		}
		return nil
	}
}

// minArgs requires at least n positional arguments.
func minArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) < n {
			return domainerrors.Validationf("%s expects at least %d argument(s), got %d", cmd.CommandPath(), n, len(args))
		}
		return nil
	}
}

// changed returns &value when the named flag was set on the command line.
func changed[T any](f *pflag.FlagSet, name string, value T) *T {
	if !f.Changed(name) {
		return nil
	}
	return &value
}
