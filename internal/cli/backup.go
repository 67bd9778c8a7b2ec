package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/bookexchange/bookexchange/internal/backup"
)

func (a *App) backupCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Export and restore the whole store",
	}
	cmd.AddCommand(a.backupCreateCommand(), a.backupListCommand(), a.backupRestoreCommand())
	return cmd
}

func (a *App) backups() *backup.Service {
	return do.MustInvoke[*backup.Service](a.injector)
}

func (a *App) backupCreateCommand() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Write a backup archive",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := a.backups().Create(cmd.Context(), output)
			if err != nil {
				return err
			}
			return a.emit(res, func(w io.Writer) {
				fmt.Fprintf(w, "Backup written to %s (%s).\n", res.Path, humanize.Bytes(uint64(res.Size)))
				fmt.Fprintf(w, "%d users, %d books, %d exchanges, %d messages, %d conversations.\n",
					res.Counts.Users, res.Counts.Books, res.Counts.Exchanges, res.Counts.Messages, res.Counts.Conversations)
				fmt.Fprintf(w, "SHA-256: %s\n", res.Checksum)
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "archive path (default: the backups directory)")
	return cmd
}

func (a *App) backupListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List backups in the backups directory",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			list, err := a.backups().List(cmd.Context())
			if err != nil {
				return err
			}
			return a.emit(list, func(w io.Writer) {
				if len(list) == 0 {
					fmt.Fprintln(w, "No backups yet.")
					return
				}
				table(w, "ID\tSIZE\tCREATED", func(tw *tabwriter.Writer) {
					for _, b := range list {
						fmt.Fprintf(tw, "%s\t%s\t%s\n", b.ID, humanize.Bytes(uint64(b.Size)), humanize.Time(b.CreatedAt))
					}
				})
			})
		},
	}
}

func (a *App) backupRestoreCommand() *cobra.Command {
	var mode string
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "restore <backup-id|path>",
		Short: "Restore a backup into the store",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := a.backups()
			path, err := svc.Resolve(args[0])
			if err != nil {
				return err
			}

			res, err := svc.Restore(cmd.Context(), path, backup.RestoreOptions{
				Mode:   backup.RestoreMode(mode),
				DryRun: dryRun,
			})
			if err != nil {
				return err
			}
			if backup.RestoreMode(mode) == backup.RestoreModeFull && !dryRun {
				// The store no longer holds a session; keep it that way on exit.
				a.sess.Clear()
			}

			return a.emit(res, func(w io.Writer) {
				verb := "Restored"
				if res.DryRun {
					verb = "Would restore"
				}
				fmt.Fprintf(w, "%s %d users, %d books, %d exchanges, %d messages, %d conversations.\n", verb,
					res.Imported.Users, res.Imported.Books, res.Imported.Exchanges, res.Imported.Messages, res.Imported.Conversations)
				if skipped := res.Skipped.Users + res.Skipped.Books + res.Skipped.Exchanges + res.Skipped.Messages + res.Skipped.Conversations; skipped > 0 {
					fmt.Fprintf(w, "%d record(s) already present or conflicting were skipped.\n", skipped)
				}
				if len(res.Conflicts) > 0 {
					fmt.Fprintf(w, "Users not imported (email or username taken): %s\n", strings.Join(res.Conflicts, ", "))
				}
			})
		},
	}
	cmd.Flags().StringVar(&mode, "mode", string(backup.RestoreModeMerge), "full (replace everything) or merge (add missing records)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "check the archive and report without writing")
	return cmd
}
