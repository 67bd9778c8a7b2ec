package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/bookexchange/bookexchange/internal/domain"
	"github.com/bookexchange/bookexchange/internal/service"
)

const dateLayout = "2006-01-02 15:04"

// emit prints v as indented JSON when --json is set, and calls text otherwise.
func (a *App) emit(v any, text func(w io.Writer)) error {
	if a.jsonOut {
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text(a.out)
	return nil
}

func table(w io.Writer, header string, rows func(tw *tabwriter.Writer)) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, header)
	rows(tw)
	_ = tw.Flush()
}

func printUser(w io.Writer, u *domain.SessionUser) {
	fmt.Fprintf(w, "ID:          %s\n", u.ID)
	fmt.Fprintf(w, "Username:    %s\n", u.Username)
	fmt.Fprintf(w, "Email:       %s\n", u.Email)
	if u.University != "" {
		fmt.Fprintf(w, "University:  %s\n", u.University)
	}
	if u.StudyField != "" {
		fmt.Fprintf(w, "Study field: %s\n", u.StudyField)
	}
	fmt.Fprintf(w, "Joined:      %s\n", formatDate(u.JoinDate))
	fmt.Fprintf(w, "Books added: %d\n", u.BooksAdded)
	fmt.Fprintf(w, "Rating:      %.1f (%d reviews)\n", u.Rating, len(u.Reviews))
}

func printBooks(w io.Writer, books []domain.Book) {
	if len(books) == 0 {
		fmt.Fprintln(w, "No books found.")
		return
	}
	table(w, "ID\tTITLE\tAUTHOR\tTYPE\tSTATUS\tOWNER", func(tw *tabwriter.Writer) {
		for _, b := range books {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", b.ID, b.Title, b.Author, bookType(&b), b.Status, b.OwnerName)
		}
	})
}

func printBook(w io.Writer, b *domain.Book) {
	fmt.Fprintf(w, "ID:        %s\n", b.ID)
	fmt.Fprintf(w, "Title:     %s\n", b.Title)
	fmt.Fprintf(w, "Author:    %s\n", b.Author)
	fmt.Fprintf(w, "Type:      %s\n", bookType(b))
	fmt.Fprintf(w, "Status:    %s\n", b.Status)
	fmt.Fprintf(w, "Owner:     %s (%s)\n", b.OwnerName, b.OwnerID)
	fmt.Fprintf(w, "Added:     %s\n", formatDate(b.AddedDate))
	if b.Condition != "" {
		fmt.Fprintf(w, "Condition: %s\n", b.Condition)
	}
	if b.ISBN != "" {
		fmt.Fprintf(w, "ISBN:      %s\n", b.ISBN)
	}
	if b.Publisher != "" || b.PublicationYear != "" {
		fmt.Fprintf(w, "Published: %s %s\n", b.Publisher, b.PublicationYear)
	}
	if b.Pages > 0 {
		fmt.Fprintf(w, "Pages:     %d\n", b.Pages)
	}
	fmt.Fprintf(w, "Language:  %s\n", b.Language)
	if len(b.Categories) > 0 {
		fmt.Fprintf(w, "Categories: %s\n", strings.Join(b.Categories, ", "))
	}
	if b.Description != "" {
		fmt.Fprintf(w, "\n%s\n", b.Description)
	}
}

func bookType(b *domain.Book) string {
	if b.Type == domain.BookTypeSale && b.Price != nil {
		return fmt.Sprintf("sale (%.2f €)", *b.Price)
	}
	return string(b.Type)
}

func printExchanges(w io.Writer, exchanges []domain.Exchange) {
	if len(exchanges) == 0 {
		fmt.Fprintln(w, "No exchanges found.")
		return
	}
	table(w, "ID\tBOOK\tTYPE\tSTATUS\tOWNER\tBORROWER\tSTARTED", func(tw *tabwriter.Writer) {
		for _, e := range exchanges {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				e.ID, e.BookID, e.Type, e.Status, e.OwnerID, e.BorrowerID, formatDate(e.StartDate))
		}
	})
}

func printExchange(w io.Writer, e *domain.Exchange) {
	fmt.Fprintf(w, "ID:       %s\n", e.ID)
	fmt.Fprintf(w, "Book:     %s\n", e.BookID)
	fmt.Fprintf(w, "Type:     %s\n", e.Type)
	fmt.Fprintf(w, "Status:   %s\n", e.Status)
	fmt.Fprintf(w, "Owner:    %s\n", e.OwnerID)
	fmt.Fprintf(w, "Borrower: %s\n", e.BorrowerID)
	fmt.Fprintf(w, "Started:  %s\n", formatDate(e.StartDate))
	if e.EndDate != nil {
		fmt.Fprintf(w, "Ended:    %s\n", formatDate(*e.EndDate))
	}
	if e.Type == domain.BookTypeSale {
		fmt.Fprintf(w, "Price:    %.2f €\n", e.Price)
	}
	if e.Notes != "" {
		fmt.Fprintf(w, "Notes:    %s\n", e.Notes)
	}
	if e.ReturnCondition != "" {
		fmt.Fprintf(w, "Returned: %s\n", e.ReturnCondition)
	}
	if e.ReturnNotes != "" {
		fmt.Fprintf(w, "Return notes: %s\n", e.ReturnNotes)
	}
	if e.CancelReason != "" {
		fmt.Fprintf(w, "Cancelled: %s\n", e.CancelReason)
	}
}

func printThread(w io.Writer, me string, messages []domain.Message) {
	if len(messages) == 0 {
		fmt.Fprintln(w, "No messages yet.")
		return
	}
	for _, m := range messages {
		who := m.SenderID
		if m.SenderID == me {
			who = "you"
		}
		fmt.Fprintf(w, "[%s] %s: %s\n", formatDate(m.Date), who, m.Content)
	}
}

func printConversations(w io.Writer, convs []service.ConversationSummary) {
	if len(convs) == 0 {
		fmt.Fprintln(w, "No conversations yet.")
		return
	}
	table(w, "USER\tUSERNAME\tUNREAD\tLAST MESSAGE", func(tw *tabwriter.Writer) {
		for _, c := range convs {
			last := ""
			if c.LastMessage != nil {
				last = truncate(c.LastMessage.Content, 50)
			}
			fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", c.Peer.ID, c.Peer.Username, c.Unread, last)
		}
	})
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func formatDate(t time.Time) string {
	return t.Local().Format(dateLayout)
}
