package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/bookexchange/bookexchange/internal/domain"
	domainerrors "github.com/bookexchange/bookexchange/internal/errors"
	"github.com/bookexchange/bookexchange/internal/service"
)

func (a *App) registerCommand() *cobra.Command {
	var req service.RegisterRequest

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and log in",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			password, err := a.passwordFlag(req.Password)
			if err != nil {
				return err
			}
			req.Password = password

			user, err := a.users().Register(cmd.Context(), a.sess, req)
			if err != nil {
				return err
			}
			return a.emit(user, func(w io.Writer) {
				fmt.Fprintf(w, "Welcome, %s! You are now logged in.\n", user.Username)
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&req.Username, "username", "", "public username")
	f.StringVar(&req.Email, "email", "", "email address used to log in")
	f.StringVar(&req.Password, "password", "", "password (prompted when omitted)")
	f.StringVar(&req.University, "university", "", "university")
	f.StringVar(&req.StudyField, "study-field", "", "field of study")
	return cmd
}

func (a *App) loginCommand() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in with email and password",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pw, err := a.passwordFlag(password)
			if err != nil {
				return err
			}
			user, err := a.users().Login(cmd.Context(), a.sess, email, pw)
			if err != nil {
				return err
			}
			return a.emit(user, func(w io.Writer) {
				fmt.Fprintf(w, "Logged in as %s.\n", user.Username)
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&password, "password", "", "password (prompted when omitted)")
	return cmd
}

func (a *App) logoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Log out",
		Args:  noArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			a.users().Logout(a.sess)
			return a.emit(map[string]bool{"logged_out": true}, func(w io.Writer) {
				fmt.Fprintln(w, "Logged out.")
			})
		},
	}
}

func (a *App) whoamiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in user",
		Args:  noArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			user := a.sess.User()
			if user == nil {
				return domainerrors.NotAuthenticated("not logged in")
			}
			return a.emit(user, func(w io.Writer) { printUser(w, user) })
		},
	}
}

func (a *App) profileCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage your profile",
	}

	var username, email, password, university, studyField, image string
	update := &cobra.Command{
		Use:   "update",
		Short: "Change profile fields",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f := cmd.Flags()
			patch := service.ProfileUpdate{
				Username:     changed(f, "username", username),
				Email:        changed(f, "email", email),
				Password:     changed(f, "password", password),
				University:   changed(f, "university", university),
				StudyField:   changed(f, "study-field", studyField),
				ProfileImage: changed(f, "image", image),
			}
			user, err := a.users().UpdateProfile(cmd.Context(), a.sess, patch)
			if err != nil {
				return err
			}
			return a.emit(user, func(w io.Writer) { printUser(w, user) })
		},
	}

	f := update.Flags()
	f.StringVar(&username, "username", "", "new username")
	f.StringVar(&email, "email", "", "new email address")
	f.StringVar(&password, "password", "", "new password")
	f.StringVar(&university, "university", "", "university")
	f.StringVar(&studyField, "study-field", "", "field of study")
	f.StringVar(&image, "image", "", "profile image URL")

	cmd.AddCommand(update)
	return cmd
}

func (a *App) userCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Look up other users",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show <user-id>",
		Short: "Show a user's public profile",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := a.users().GetByID(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			public := *user
			public.Email = ""
			return a.emit(&public, func(w io.Writer) { printPublicUser(w, &public) })
		},
	})
	return cmd
}

func printPublicUser(w io.Writer, u *domain.SessionUser) {
	fmt.Fprintf(w, "ID:          %s\n", u.ID)
	fmt.Fprintf(w, "Username:    %s\n", u.Username)
	if u.University != "" {
		fmt.Fprintf(w, "University:  %s\n", u.University)
	}
	fmt.Fprintf(w, "Books added: %d\n", u.BooksAdded)
	fmt.Fprintf(w, "Rating:      %.1f (%d reviews)\n", u.Rating, len(u.Reviews))
}
