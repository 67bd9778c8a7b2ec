package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

func (a *App) messagesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "messages",
		Aliases: []string{"msg"},
		Short:   "Talk to other users",
	}
	cmd.AddCommand(
		a.messagesSendCommand(),
		a.messagesThreadCommand(),
		a.messagesReadCommand(),
		a.messagesUnreadCommand(),
		a.messagesConversationsCommand(),
	)
	return cmd
}

func (a *App) messagesSendCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "send <user-id> <message...>",
		Short: "Send a message",
		Args:  minArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			msg, err := a.messages().Send(cmd.Context(), a.sess, args[0], strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			return a.emit(msg, func(w io.Writer) {
				fmt.Fprintln(w, "Message sent.")
			})
		},
	}
}

func (a *App) messagesThreadCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "thread <user-id>",
		Short: "Show your conversation with a user",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			thread, err := a.messages().GetThread(cmd.Context(), a.sess, args[0])
			if err != nil {
				return err
			}
			return a.emit(thread, func(w io.Writer) { printThread(w, a.sess.UserID(), thread) })
		},
	}
}

func (a *App) messagesReadCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "read <user-id>",
		Short: "Mark a user's messages to you as read",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.messages().MarkRead(cmd.Context(), a.sess, args[0]); err != nil {
				return err
			}
			return a.emit(map[string]string{"read": args[0]}, func(w io.Writer) {
				fmt.Fprintln(w, "Marked as read.")
			})
		},
	}
}

func (a *App) messagesUnreadCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "unread",
		Short: "Count unread messages",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			n, err := a.messages().UnreadTotal(cmd.Context(), a.sess)
			if err != nil {
				return err
			}
			return a.emit(map[string]int{"unread": n}, func(w io.Writer) {
				fmt.Fprintf(w, "%d unread message(s).\n", n)
			})
		},
	}
}

func (a *App) messagesConversationsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "conversations",
		Short: "List your conversations, most recent first",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			convs, err := a.messages().ListConversations(cmd.Context(), a.sess)
			if err != nil {
				return err
			}
			return a.emit(convs, func(w io.Writer) { printConversations(w, convs) })
		},
	}
}
