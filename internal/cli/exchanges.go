package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/bookexchange/bookexchange/internal/domain"
	domainerrors "github.com/bookexchange/bookexchange/internal/errors"
	"github.com/bookexchange/bookexchange/internal/service"
)

func (a *App) exchangesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "exchanges",
		Aliases: []string{"exchange"},
		Short:   "Request and manage exchanges",
	}
	cmd.AddCommand(
		a.exchangesListCommand(),
		a.exchangesRequestCommand(),
		a.exchangesAcceptCommand(),
		a.exchangesCompleteCommand(),
		a.exchangesCancelCommand(),
		a.exchangesShowCommand(),
	)
	return cmd
}

func (a *App) exchangesListCommand() *cobra.Command {
	var exchangeType, status, role string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your exchanges, newest first",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !a.sess.IsAuthenticated() {
				return domainerrors.NotAuthenticated("you must be logged in to see your exchanges")
			}
			filter := service.ExchangeFilter{
				Type:   domain.BookType(exchangeType),
				Status: domain.ExchangeStatus(status),
				Role:   domain.ExchangeRole(role),
			}
			switch filter.Role {
			case domain.ExchangeRoleAny, domain.ExchangeRoleOwner, domain.ExchangeRoleBorrower:
			default:
				return domainerrors.Validationf("unknown role %q (owner or borrower)", role)
			}

			exchanges, err := a.exchanges().ListForUser(cmd.Context(), a.sess.UserID(), filter)
			if err != nil {
				return err
			}
			return a.emit(exchanges, func(w io.Writer) { printExchanges(w, exchanges) })
		},
	}
	cmd.Flags().StringVar(&exchangeType, "type", "", "only this exchange type")
	cmd.Flags().StringVar(&status, "status", "", "only this status")
	cmd.Flags().StringVar(&role, "role", "", "only exchanges where you are owner or borrower")
	return cmd
}

func (a *App) exchangesRequestCommand() *cobra.Command {
	var exchangeType, notes string
	cmd := &cobra.Command{
		Use:   "request <book-id>",
		Short: "Ask an owner for a book",
		Long:  "Ask an owner for a book. The exchange type defaults to the book's listing type.",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			t := domain.BookType(exchangeType)
			if t == "" {
				book, err := a.books().GetByID(ctx, args[0])
				if err != nil {
					return err
				}
				t = book.Type
			}

			exchange, err := a.exchanges().Create(ctx, a.sess, args[0], t, notes)
			if err != nil {
				return err
			}
			return a.emit(exchange, func(w io.Writer) {
				fmt.Fprintf(w, "Request %s sent to the owner.\n", exchange.ID)
			})
		},
	}
	cmd.Flags().StringVar(&exchangeType, "type", "", "loan, exchange, or sale")
	cmd.Flags().StringVar(&notes, "notes", "", "message for the owner")
	return cmd
}

func (a *App) exchangesAcceptCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "accept <exchange-id>",
		Short: "Accept a pending exchange",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			exchange, err := a.exchanges().Accept(cmd.Context(), a.sess, args[0])
			if err != nil {
				return err
			}
			return a.emit(exchange, func(w io.Writer) { printExchange(w, exchange) })
		},
	}
}

func (a *App) exchangesCompleteCommand() *cobra.Command {
	var condition, notes string
	cmd := &cobra.Command{
		Use:   "complete <exchange-id>",
		Short: "Close an active exchange",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			exchange, err := a.exchanges().Complete(cmd.Context(), a.sess, args[0], condition, notes)
			if err != nil {
				return err
			}
			return a.emit(exchange, func(w io.Writer) { printExchange(w, exchange) })
		},
	}
	cmd.Flags().StringVar(&condition, "condition", "", "condition of the returned book")
	cmd.Flags().StringVar(&notes, "notes", "", "return notes")
	return cmd
}

func (a *App) exchangesCancelCommand() *cobra.Command {
	var reason string
	cmd := &cobra.Command{
		Use:   "cancel <exchange-id>",
		Short: "Cancel a pending or active exchange",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			exchange, err := a.exchanges().Cancel(cmd.Context(), a.sess, args[0], reason)
			if err != nil {
				return err
			}
			return a.emit(exchange, func(w io.Writer) { printExchange(w, exchange) })
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "", "why the exchange is cancelled")
	return cmd
}

func (a *App) exchangesShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <exchange-id>",
		Short: "Show one of your exchanges",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			exchange, err := a.exchanges().GetByID(cmd.Context(), a.sess, args[0])
			if err != nil {
				return err
			}
			return a.emit(exchange, func(w io.Writer) { printExchange(w, exchange) })
		},
	}
}
