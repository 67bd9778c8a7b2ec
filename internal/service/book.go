package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"golang.org/x/text/cases"

	"github.com/bookexchange/bookexchange/internal/domain"
	domainerrors "github.com/bookexchange/bookexchange/internal/errors"
	"github.com/bookexchange/bookexchange/internal/id"
	"github.com/bookexchange/bookexchange/internal/session"
	"github.com/bookexchange/bookexchange/internal/store"
	"github.com/bookexchange/bookexchange/internal/validation"
)

// DefaultRecentLimit is how many books GetRecent returns when no limit is given.
const DefaultRecentLimit = 4

// BookService is the book catalog.
type BookService struct {
	kv        store.KV
	validator *validation.Validator
	logger    *slog.Logger
	now       func() time.Time
}

// NewBookService creates a new book service.
func NewBookService(kv store.KV, validator *validation.Validator, logger *slog.Logger) *BookService {
	return &BookService{
		kv:        kv,
		validator: validator,
		logger:    logger,
		now:       clock,
	}
}

// AddBookRequest contains a new listing. Price is kept only for sale listings.
type AddBookRequest struct {
	Title           string          `json:"title" validate:"notblank,max=300"`
	Author          string          `json:"author" validate:"notblank,max=200"`
	Description     string          `json:"description" validate:"max=5000"`
	Type            domain.BookType `json:"type" validate:"oneof=loan exchange sale"`
	Condition       string          `json:"condition" validate:"max=100"`
	CoverImage      string          `json:"cover_image" validate:"omitempty,url"`
	ISBN            string          `json:"isbn" validate:"max=20"`
	Publisher       string          `json:"publisher" validate:"max=200"`
	PublicationYear string          `json:"publication_year" validate:"max=10"`
	Language        string          `json:"language" validate:"max=50"`
	Categories      []string        `json:"categories" validate:"max=20,dive,notblank"`
	Pages           int             `json:"pages" validate:"gte=0"`
	Price           *float64        `json:"price,omitempty" validate:"omitempty,gte=0"`
}

// BookUpdate lists the fields an owner may change. Nil fields are left untouched.
// Identity, ownership, and status are not patchable.
type BookUpdate struct {
	Title           *string          `json:"title,omitempty" validate:"omitempty,notblank,max=300"`
	Author          *string          `json:"author,omitempty" validate:"omitempty,notblank,max=200"`
	Description     *string          `json:"description,omitempty" validate:"omitempty,max=5000"`
	Type            *domain.BookType `json:"type,omitempty" validate:"omitempty,oneof=loan exchange sale"`
	Condition       *string          `json:"condition,omitempty" validate:"omitempty,max=100"`
	CoverImage      *string          `json:"cover_image,omitempty" validate:"omitempty,url"`
	ISBN            *string          `json:"isbn,omitempty" validate:"omitempty,max=20"`
	Publisher       *string          `json:"publisher,omitempty" validate:"omitempty,max=200"`
	PublicationYear *string          `json:"publication_year,omitempty" validate:"omitempty,max=10"`
	Language        *string          `json:"language,omitempty" validate:"omitempty,max=50"`
	Categories      []string         `json:"categories,omitempty" validate:"omitempty,max=20,dive,notblank"`
	Pages           *int             `json:"pages,omitempty" validate:"omitempty,gte=0"`
	Price           *float64         `json:"price,omitempty" validate:"omitempty,gte=0"`
}

// SearchFilters narrows a search. Empty fields match everything.
type SearchFilters struct {
	Type   domain.BookType
	Status domain.BookStatus
}

// List returns every book in insertion order.
func (s *BookService) List(ctx context.Context) ([]domain.Book, error) {
	var books []domain.Book
	err := s.kv.View(ctx, func(tx store.Txn) error {
		var err error
		books, err = store.Books.Load(tx)
		return err
	})
	return books, err
}

// GetByID returns one book.
func (s *BookService) GetByID(ctx context.Context, bookID string) (*domain.Book, error) {
	books, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	i := store.IndexFunc(books, func(b *domain.Book) bool { return b.ID == bookID })
	if i < 0 {
		return nil, domainerrors.NotFoundf("book %s not found", bookID)
	}
	return &books[i], nil
}

// GetByOwner returns the books listed by ownerID.
func (s *BookService) GetByOwner(ctx context.Context, ownerID string) ([]domain.Book, error) {
	books, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(books, func(b domain.Book) bool { return b.OwnerID != ownerID }), nil
}

// GetRecent returns up to limit books, newest first. Books added at the same
// instant keep their insertion order. A limit of zero or less means DefaultRecentLimit.
func (s *BookService) GetRecent(ctx context.Context, limit int) ([]domain.Book, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	books, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(books, func(a, b domain.Book) int {
		return b.AddedDate.Compare(a.AddedDate)
	})
	if len(books) > limit {
		books = books[:limit]
	}
	return books, nil
}

// Add lists a new book owned by the session user.
func (s *BookService) Add(ctx context.Context, sess *session.Session, req AddBookRequest) (*domain.Book, error) {
	owner, err := requireUser(sess, "add a book")
	if err != nil {
		return nil, err
	}

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	bookID, err := id.Generate("book")
	if err != nil {
		return nil, fmt.Errorf("generate book ID: %w", err)
	}

	book := domain.Book{
		ID:              bookID,
		Title:           req.Title,
		Author:          req.Author,
		Description:     req.Description,
		Type:            req.Type,
		Condition:       req.Condition,
		Status:          domain.BookStatusAvailable,
		CoverImage:      orDefault(req.CoverImage, domain.DefaultCoverImage),
		OwnerID:         owner.ID,
		OwnerName:       owner.Username,
		AddedDate:       s.now(),
		ISBN:            req.ISBN,
		Publisher:       req.Publisher,
		PublicationYear: req.PublicationYear,
		Language:        orDefault(req.Language, domain.DefaultBookLanguage),
		Categories:      slices.Clone(req.Categories),
		Pages:           req.Pages,
	}
	if book.Categories == nil {
		book.Categories = []string{}
	}
	if book.Type == domain.BookTypeSale && req.Price != nil {
		price := *req.Price
		book.Price = &price
	}

	var ownerAfter *domain.User
	err = s.kv.Update(ctx, func(tx store.Txn) error {
		books, err := store.Books.Load(tx)
		if err != nil {
			return err
		}
		books = append(books, book)
		if err := store.Books.Save(tx, books); err != nil {
			return err
		}
		ownerAfter, err = recountBooksAdded(tx, owner.ID, books)
		return err
	})
	if err != nil {
		return nil, err
	}

	if s.logger != nil {
		s.logger.Info("Book added", "book_id", book.ID, "owner_id", owner.ID, "type", book.Type)
	}

	refreshSession(sess, ownerAfter)
	return &book, nil
}

// Update applies patch to a book owned by the session user.
func (s *BookService) Update(ctx context.Context, sess *session.Session, bookID string, patch BookUpdate) (*domain.Book, error) {
	if err := s.validator.Validate(patch); err != nil {
		return nil, err
	}

	var updated domain.Book
	err := s.kv.Update(ctx, func(tx store.Txn) error {
		books, err := store.Books.Load(tx)
		if err != nil {
			return err
		}

		i, err := ownedBookIndex(books, bookID, sess, "edit")
		if err != nil {
			return err
		}

		applyBookUpdate(&books[i], patch)
		updated = books[i]
		return store.Books.Save(tx, books)
	})
	if err != nil {
		return nil, err
	}

	if s.logger != nil {
		s.logger.Info("Book updated", "book_id", bookID)
	}

	return &updated, nil
}

// Delete removes a book owned by the session user. Books tied to a pending
// or active exchange cannot be deleted.
func (s *BookService) Delete(ctx context.Context, sess *session.Session, bookID string) error {
	var ownerAfter *domain.User
	err := s.kv.Update(ctx, func(tx store.Txn) error {
		books, err := store.Books.Load(tx)
		if err != nil {
			return err
		}

		i, err := ownedBookIndex(books, bookID, sess, "delete")
		if err != nil {
			return err
		}
		if books[i].InOpenExchange() {
			return domainerrors.BookInUsef("book %s is part of an open exchange (status %s)", bookID, books[i].Status)
		}

		ownerID := books[i].OwnerID
		books = slices.Delete(books, i, i+1)
		if err := store.Books.Save(tx, books); err != nil {
			return err
		}
		ownerAfter, err = recountBooksAdded(tx, ownerID, books)
		return err
	})
	if err != nil {
		return err
	}

	if s.logger != nil {
		s.logger.Info("Book deleted", "book_id", bookID)
	}

	refreshSession(sess, ownerAfter)
	return nil
}

// Search returns books whose title or author contains query, ignoring case,
// and that match every non-empty filter. An empty query matches all books.
func (s *BookService) Search(ctx context.Context, query string, filters SearchFilters) ([]domain.Book, error) {
	books, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	fold := cases.Fold()
	term := fold.String(query)

	return slices.DeleteFunc(books, func(b domain.Book) bool {
		if term != "" &&
			!strings.Contains(fold.String(b.Title), term) &&
			!strings.Contains(fold.String(b.Author), term) {
			return true
		}
		if filters.Type != "" && b.Type != filters.Type {
			return true
		}
		return filters.Status != "" && b.Status != filters.Status
	}), nil
}

// ownedBookIndex locates bookID and checks the session user owns it.
func ownedBookIndex(books []domain.Book, bookID string, sess *session.Session, action string) (int, error) {
	i := store.IndexFunc(books, func(b *domain.Book) bool { return b.ID == bookID })
	if i < 0 {
		return -1, domainerrors.NotFoundf("book %s not found", bookID)
	}
	if !sess.IsAuthenticated() || books[i].OwnerID != sess.UserID() {
		return -1, domainerrors.NotOwner("you are not allowed to " + action + " this book")
	}
	return i, nil
}

func applyBookUpdate(b *domain.Book, p BookUpdate) {
	setIf(&b.Title, p.Title)
	setIf(&b.Author, p.Author)
	setIf(&b.Description, p.Description)
	setIf(&b.Type, p.Type)
	setIf(&b.Condition, p.Condition)
	setIf(&b.CoverImage, p.CoverImage)
	setIf(&b.ISBN, p.ISBN)
	setIf(&b.Publisher, p.Publisher)
	setIf(&b.PublicationYear, p.PublicationYear)
	setIf(&b.Language, p.Language)
	setIf(&b.Pages, p.Pages)
	if p.Categories != nil {
		b.Categories = slices.Clone(p.Categories)
	}

	switch {
	case b.Type != domain.BookTypeSale:
		b.Price = nil
	case p.Price != nil:
		price := *p.Price
		b.Price = &price
	}
}

// setIf copies *src into dst when src is non-nil.
func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// setBookStatus writes status onto bookID within tx. It reports false when
// the book no longer exists.
func setBookStatus(tx store.Txn, bookID string, status domain.BookStatus) (bool, error) {
	books, err := store.Books.Load(tx)
	if err != nil {
		return false, err
	}
	i := store.IndexFunc(books, func(b *domain.Book) bool { return b.ID == bookID })
	if i < 0 {
		return false, nil
	}
	books[i].Status = status
	return true, store.Books.Save(tx, books)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
