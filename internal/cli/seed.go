package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/bookexchange/bookexchange/internal/service"
)

func (a *App) seedCommand() *cobra.Command {
	var users, booksPerUser int
	var samples bool

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Fill the store with demo data",
		Long: "Fill the store with demo data. Generated accounts use the password \"" +
			service.SeedPassword + "\".",
		Args: noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			seeder := a.seeder()

			sampled := false
			if samples {
				var err error
				if sampled, err = seeder.SeedSampleCatalog(ctx); err != nil {
					return err
				}
			}

			res, err := seeder.SeedFake(ctx, users, booksPerUser)
			if err != nil {
				return err
			}

			a.logger().Debug("Seed finished", "users", res.Users, "books", res.Books, "sample_catalog", sampled)
			return a.emit(res, func(w io.Writer) {
				fmt.Fprintf(w, "Created %d user(s) and %d book(s).\n", res.Users, res.Books)
				if sampled {
					fmt.Fprintln(w, "Sample catalog written.")
				}
			})
		},
	}

	cmd.Flags().IntVar(&users, "users", 5, "number of fake users")
	cmd.Flags().IntVar(&booksPerUser, "books", 3, "books listed per fake user")
	cmd.Flags().BoolVar(&samples, "samples", false, "also write the sample catalog when the store has no books")
	return cmd
}
