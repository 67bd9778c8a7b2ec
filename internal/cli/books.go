package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/bookexchange/bookexchange/internal/domain"
	domainerrors "github.com/bookexchange/bookexchange/internal/errors"
	"github.com/bookexchange/bookexchange/internal/service"
)

func (a *App) booksCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "books",
		Aliases: []string{"book"},
		Short:   "Browse and manage book listings",
	}
	cmd.AddCommand(
		a.booksListCommand(),
		a.booksRecentCommand(),
		a.booksMineCommand(),
		a.booksShowCommand(),
		a.booksAddCommand(),
		a.booksUpdateCommand(),
		a.booksDeleteCommand(),
		a.booksSearchCommand(),
	)
	return cmd
}

func (a *App) booksListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every book",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			books, err := a.books().List(cmd.Context())
			if err != nil {
				return err
			}
			return a.emit(books, func(w io.Writer) { printBooks(w, books) })
		},
	}
}

func (a *App) booksRecentCommand() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "recent",
		Short: "List the most recently added books",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			books, err := a.books().GetRecent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return a.emit(books, func(w io.Writer) { printBooks(w, books) })
		},
	}
	cmd.Flags().IntVar(&limit, "limit", service.DefaultRecentLimit, "number of books to show")
	return cmd
}

func (a *App) booksMineCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "mine",
		Short: "List the books you have listed",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !a.sess.IsAuthenticated() {
				return domainerrors.NotAuthenticated("you must be logged in to see your books")
			}
			books, err := a.books().GetByOwner(cmd.Context(), a.sess.UserID())
			if err != nil {
				return err
			}
			return a.emit(books, func(w io.Writer) { printBooks(w, books) })
		},
	}
}

func (a *App) booksShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <book-id>",
		Short: "Show one book",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			book, err := a.books().GetByID(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.emit(book, func(w io.Writer) { printBook(w, book) })
		},
	}
}

// bookFlags holds the listing fields shared by add and update.
type bookFlags struct {
	title, author, description, bookType, condition string
	cover, isbn, publisher, year, language           string
	categories                                       []string
	pages                                            int
	price                                            float64
}

func (b *bookFlags) register(f *pflag.FlagSet) {
	f.StringVar(&b.title, "title", "", "title")
	f.StringVar(&b.author, "author", "", "author")
	f.StringVar(&b.description, "description", "", "description")
	f.StringVar(&b.bookType, "type", "", "listing type (loan, exchange, sale)")
	f.StringVar(&b.condition, "condition", "", "condition, e.g. \"Bon état\"")
	f.StringVar(&b.cover, "cover", "", "cover image URL")
	f.StringVar(&b.isbn, "isbn", "", "ISBN")
	f.StringVar(&b.publisher, "publisher", "", "publisher")
	f.StringVar(&b.year, "year", "", "publication year")
	f.StringVar(&b.language, "language", "", "language")
	f.StringSliceVar(&b.categories, "category", nil, "category (repeatable)")
	f.IntVar(&b.pages, "pages", 0, "page count")
	f.Float64Var(&b.price, "price", 0, "price, for sale listings")
}

func (a *App) booksAddCommand() *cobra.Command {
	var bf bookFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "List a new book",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req := service.AddBookRequest{
				Title:           bf.title,
				Author:          bf.author,
				Description:     bf.description,
				Type:            domain.BookType(bf.bookType),
				Condition:       bf.condition,
				CoverImage:      bf.cover,
				ISBN:            bf.isbn,
				Publisher:       bf.publisher,
				PublicationYear: bf.year,
				Language:        bf.language,
				Categories:      bf.categories,
				Pages:           bf.pages,
				Price:           changed(cmd.Flags(), "price", bf.price),
			}
			book, err := a.books().Add(cmd.Context(), a.sess, req)
			if err != nil {
				return err
			}
			return a.emit(book, func(w io.Writer) {
				fmt.Fprintf(w, "Book listed with id %s.\n", book.ID)
			})
		},
	}
	bf.register(cmd.Flags())
	return cmd
}

func (a *App) booksUpdateCommand() *cobra.Command {
	var bf bookFlags
	cmd := &cobra.Command{
		Use:   "update <book-id>",
		Short: "Edit one of your books",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := cmd.Flags()
			patch := service.BookUpdate{
				Title:           changed(f, "title", bf.title),
				Author:          changed(f, "author", bf.author),
				Description:     changed(f, "description", bf.description),
				Type:            changed(f, "type", domain.BookType(bf.bookType)),
				Condition:       changed(f, "condition", bf.condition),
				CoverImage:      changed(f, "cover", bf.cover),
				ISBN:            changed(f, "isbn", bf.isbn),
				Publisher:       changed(f, "publisher", bf.publisher),
				PublicationYear: changed(f, "year", bf.year),
				Language:        changed(f, "language", bf.language),
				Pages:           changed(f, "pages", bf.pages),
				Price:           changed(f, "price", bf.price),
			}
			if f.Changed("category") {
				patch.Categories = bf.categories
			}
			book, err := a.books().Update(cmd.Context(), a.sess, args[0], patch)
			if err != nil {
				return err
			}
			return a.emit(book, func(w io.Writer) { printBook(w, book) })
		},
	}
	bf.register(cmd.Flags())
	return cmd
}

func (a *App) booksDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <book-id>",
		Short: "Remove one of your books",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.books().Delete(cmd.Context(), a.sess, args[0]); err != nil {
				return err
			}
			return a.emit(map[string]string{"deleted": args[0]}, func(w io.Writer) {
				fmt.Fprintf(w, "Book %s deleted.\n", args[0])
			})
		},
	}
}

func (a *App) booksSearchCommand() *cobra.Command {
	var bookType, status string
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search titles and authors",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := ""
			if len(args) == 1 {
				query = args[0]
			}
			filters := service.SearchFilters{
				Type:   domain.BookType(bookType),
				Status: domain.BookStatus(status),
			}
			if filters.Type != "" && !filters.Type.Valid() {
				return domainerrors.Validationf("unknown book type %q", bookType)
			}
			if filters.Status != "" && !filters.Status.Valid() {
				return domainerrors.Validationf("unknown book status %q", status)
			}

			books, err := a.books().Search(cmd.Context(), query, filters)
			if err != nil {
				return err
			}
			return a.emit(books, func(w io.Writer) { printBooks(w, books) })
		},
	}
	cmd.Flags().StringVar(&bookType, "type", "", "only this listing type")
	cmd.Flags().StringVar(&status, "status", "", "only this status")
	return cmd
}
