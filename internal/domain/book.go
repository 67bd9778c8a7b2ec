package domain

import "time"

// Book defaults applied when a listing omits them.
const (
	DefaultCoverImage   = "https://via.placeholder.com/300x400"
	DefaultBookLanguage = "Français"
)

// BookType is how the owner offers a book.
type BookType string

const (
	// BookTypeLoan offers the book for temporary borrowing.
	BookTypeLoan BookType = "loan"
	// BookTypeExchange offers the book in exchange for another.
	BookTypeExchange BookType = "exchange"
	// BookTypeSale offers the book for a price.
	BookTypeSale BookType = "sale"
)

// Valid reports whether t is a known book type.
func (t BookType) Valid() bool {
	switch t {
	case BookTypeLoan, BookTypeExchange, BookTypeSale:
		return true
	}
	return false
}

// Accepts reports whether an exchange of the requested type may be opened
// on a book of type t. Loan books may also be requested as an exchange.
func (t BookType) Accepts(requested BookType) bool {
	return requested == t || (t == BookTypeLoan && requested == BookTypeExchange)
}

// BookStatus is the availability of a listed book.
type BookStatus string

const (
	BookStatusAvailable   BookStatus = "available"
	BookStatusPending     BookStatus = "pending"
	BookStatusBorrowed    BookStatus = "borrowed"
	BookStatusUnavailable BookStatus = "unavailable"
)

// Valid reports whether s is a known book status.
func (s BookStatus) Valid() bool {
	switch s {
	case BookStatusAvailable, BookStatusPending, BookStatusBorrowed, BookStatusUnavailable:
		return true
	}
	return false
}

// Book is a listing owned by a user.
type Book struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Author          string     `json:"author"`
	Description     string     `json:"description,omitempty"`
	Type            BookType   `json:"type"`
	Condition       string     `json:"condition,omitempty"`
	Status          BookStatus `json:"status"`
	CoverImage      string     `json:"cover_image"`
	OwnerID         string     `json:"owner_id"`
	OwnerName       string     `json:"owner_name"`
	AddedDate       time.Time  `json:"added_date"`
	ISBN            string     `json:"isbn,omitempty"`
	Publisher       string     `json:"publisher,omitempty"`
	PublicationYear string     `json:"publication_year,omitempty"`
	Language        string     `json:"language"`
	Categories      []string   `json:"categories"`
	Pages           int        `json:"pages,omitempty"`
	Price           *float64   `json:"price,omitempty"` // set only for sale listings
}

// InOpenExchange reports whether the book is tied to a pending or active exchange.
func (b *Book) InOpenExchange() bool {
	return b.Status == BookStatusPending || b.Status == BookStatusBorrowed
}

// CountOwned returns how many of books belong to ownerID.
func CountOwned(books []Book, ownerID string) int {
	n := 0
	for i := range books {
		if books[i].OwnerID == ownerID {
			n++
		}
	}
	return n
}
