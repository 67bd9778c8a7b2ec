package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/bookexchange/bookexchange/internal/domain"
	domainerrors "github.com/bookexchange/bookexchange/internal/errors"
	"github.com/bookexchange/bookexchange/internal/session"
	"github.com/bookexchange/bookexchange/internal/store"
)

// SeedPassword is the password given to every generated account.
const SeedPassword = "password123"

// SeedService fills an empty store with demo data. Intended for development only.
type SeedService struct {
	kv     store.KV
	users  *UserService
	books  *BookService
	logger *slog.Logger
	faker  *gofakeit.Faker
}

// NewSeedService creates a seed service. A seed of zero uses the current time.
func NewSeedService(kv store.KV, users *UserService, books *BookService, logger *slog.Logger, seed int64) *SeedService {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &SeedService{
		kv:     kv,
		users:  users,
		books:  books,
		logger: logger,
		faker:  gofakeit.New(seed),
	}
}

// SeedResult reports what a seeding run created.
type SeedResult struct {
	Users int `json:"users"`
	Books int `json:"books"`
}

// SeedSampleCatalog writes the sample catalog when no book has been listed yet.
// It reports whether anything was written.
func (s *SeedService) SeedSampleCatalog(ctx context.Context) (bool, error) {
	seeded := false
	err := s.kv.Update(ctx, func(tx store.Txn) error {
		books, err := store.Books.Load(tx)
		if err != nil {
			return err
		}
		if len(books) > 0 {
			return nil
		}
		seeded = true
		return store.Books.Save(tx, sampleCatalog())
	})
	if err != nil {
		return false, err
	}

	if s.logger != nil && seeded {
		s.logger.Info("Sample catalog seeded", "books", len(sampleCatalog()))
	}
	return seeded, nil
}

// SeedFake registers users fake accounts, each listing booksPerUser books.
// Accounts go through Register and Add so the usual rules apply.
func (s *SeedService) SeedFake(ctx context.Context, users, booksPerUser int) (SeedResult, error) {
	var res SeedResult
	f := s.faker

	for range users {
		sess := session.New()
		if err := s.registerFake(ctx, sess); err != nil {
			return res, err
		}
		res.Users++

		for range booksPerUser {
			req := AddBookRequest{
				Title:           f.Sentence(3),
				Author:          f.Name(),
				Description:     f.Paragraph(1, 2, 12, " "),
				Type:            domain.BookType(f.RandomString([]string{"loan", "exchange", "sale"})),
				Condition:       f.RandomString([]string{"Comme neuf", "Très bon état", "Bon état", "État moyen", "Usé"}),
				ISBN:            f.DigitN(13),
				Publisher:       f.Company(),
				PublicationYear: fmt.Sprintf("%d", f.Number(1950, 2024)),
				Categories:      []string{f.RandomString([]string{"Roman", "Science-fiction", "Fantasy", "Histoire", "Philosophie", "Manuel"})},
				Pages:           f.Number(60, 900),
			}
			if req.Type == domain.BookTypeSale {
				price := float64(f.Number(2, 40))
				req.Price = &price
			}
			if _, err := s.books.Add(ctx, sess, req); err != nil {
				return res, fmt.Errorf("seed book: %w", err)
			}
			res.Books++
		}
	}

	if s.logger != nil {
		s.logger.Info("Fake data seeded", "users", res.Users, "books", res.Books)
	}
	return res, nil
}

// registerFake registers one generated account into sess, retrying on a
// username or email collision.
func (s *SeedService) registerFake(ctx context.Context, sess *session.Session) error {
	const attempts = 5
	f := s.faker

	var err error
	for range attempts {
		req := RegisterRequest{
			Username:   fmt.Sprintf("%s%d", f.Username(), f.Number(100, 999)),
			Email:      fmt.Sprintf("%d.%s", f.Number(1000, 9999), f.Email()),
			Password:   SeedPassword,
			University: "Université de " + f.City(),
			StudyField: f.JobDescriptor(),
		}
		_, err = s.users.Register(ctx, sess, req)
		if err == nil {
			return nil
		}
		if !domainerrors.Is(err, domainerrors.ErrDuplicateEmail) && !domainerrors.Is(err, domainerrors.ErrDuplicateUsername) {
			break
		}
	}
	return fmt.Errorf("seed user: %w", err)
}

func sampleCatalog() []domain.Book {
	price := func(v float64) *float64 { return &v }
	date := func(s string) time.Time {
		t, _ := time.Parse(time.RFC3339, s)
		return t.UTC()
	}
	book := func(b domain.Book) domain.Book {
		b.CoverImage = domain.DefaultCoverImage
		b.Language = domain.DefaultBookLanguage
		return b
	}

	return []domain.Book{
		book(domain.Book{
			ID: "1", Title: "Le Seigneur des Anneaux", Author: "J.R.R. Tolkien",
			Description: "L'histoire de Frodon Sacquet, chargé de détruire l'Anneau unique pour sauver la Terre du Milieu.",
			Type:        domain.BookTypeLoan, Condition: "Très bon état", Status: domain.BookStatusAvailable,
			OwnerID: "1", OwnerName: "Marie Dupont", AddedDate: date("2023-05-15T10:30:00Z"),
			ISBN: "9782070612888", Publisher: "Pocket", PublicationYear: "2002",
			Categories: []string{"Fantasy", "Aventure"}, Pages: 528,
		}),
		book(domain.Book{
			ID: "2", Title: "Harry Potter à l'école des sorciers", Author: "J.K. Rowling",
			Description: "Le premier tome des aventures du jeune sorcier Harry Potter à Poudlard.",
			Type:        domain.BookTypeSale, Price: price(10), Condition: "Bon état", Status: domain.BookStatusAvailable,
			OwnerID: "2", OwnerName: "Thomas Martin", AddedDate: date("2023-06-20T14:15:00Z"),
			ISBN: "9782070643028", Publisher: "Gallimard", PublicationYear: "2003",
			Categories: []string{"Fantasy", "Jeunesse"}, Pages: 320,
		}),
		book(domain.Book{
			ID: "3", Title: "1984", Author: "George Orwell",
			Description: "Un roman dystopique qui décrit un futur où la société est soumise à une dictature totalitaire.",
			Type:        domain.BookTypeExchange, Condition: "Bon état", Status: domain.BookStatusAvailable,
			OwnerID: "3", OwnerName: "Sophie Bernard", AddedDate: date("2023-07-05T09:45:00Z"),
			ISBN: "9782070368228", Publisher: "Gallimard", PublicationYear: "1972",
			Categories: []string{"Science-fiction", "Dystopie"}, Pages: 438,
		}),
		book(domain.Book{
			ID: "4", Title: "L'Étranger", Author: "Albert Camus",
			Description: "Roman emblématique de l'absurde qui raconte l'histoire de Meursault.",
			Type:        domain.BookTypeLoan, Condition: "État moyen", Status: domain.BookStatusAvailable,
			OwnerID: "1", OwnerName: "Marie Dupont", AddedDate: date("2023-07-10T16:20:00Z"),
			ISBN: "9782070360024", Publisher: "Gallimard", PublicationYear: "1957",
			Categories: []string{"Roman", "Philosophie"}, Pages: 184,
		}),
		book(domain.Book{
			ID: "5", Title: "Les Misérables", Author: "Victor Hugo",
			Description: "Un roman historique qui suit la vie de Jean Valjean dans la France du 19e siècle.",
			Type:        domain.BookTypeExchange, Condition: "Usé", Status: domain.BookStatusAvailable,
			OwnerID: "2", OwnerName: "Thomas Martin", AddedDate: date("2023-08-01T11:10:00Z"),
			ISBN: "9782253096344", Publisher: "Le Livre de Poche", PublicationYear: "1985",
			Categories: []string{"Roman historique", "Classique"}, Pages: 1792,
		}),
		book(domain.Book{
			ID: "6", Title: "Dune", Author: "Frank Herbert",
			Description: "Un chef-d'œuvre de science-fiction qui se déroule sur la planète désertique Arrakis.",
			Type:        domain.BookTypeSale, Price: price(15), Condition: "Comme neuf", Status: domain.BookStatusAvailable,
			OwnerID: "3", OwnerName: "Sophie Bernard", AddedDate: date("2023-08-15T13:25:00Z"),
			ISBN: "9782266233200", Publisher: "Pocket", PublicationYear: "2012",
			Categories: []string{"Science-fiction", "Space Opera"}, Pages: 752,
		}),
		book(domain.Book{
			ID: "7", Title: "Le Petit Prince", Author: "Antoine de Saint-Exupéry",
			Description: "Un conte poétique et philosophique sous l'apparence d'un conte pour enfants.",
			Type:        domain.BookTypeLoan, Condition: "Bon état", Status: domain.BookStatusBorrowed,
			OwnerID: "1", OwnerName: "Marie Dupont", AddedDate: date("2023-09-01T10:00:00Z"),
			ISBN: "9782070612758", Publisher: "Gallimard", PublicationYear: "1999",
			Categories: []string{"Conte", "Philosophie"}, Pages: 96,
		}),
		book(domain.Book{
			ID: "8", Title: "Fondation", Author: "Isaac Asimov",
			Description: "Premier tome de la saga Fondation, une œuvre majeure de la science-fiction.",
			Type:        domain.BookTypeExchange, Condition: "Très bon état", Status: domain.BookStatusUnavailable,
			OwnerID: "2", OwnerName: "Thomas Martin", AddedDate: date("2023-09-10T15:30:00Z"),
			ISBN: "9782070415700", Publisher: "Gallimard", PublicationYear: "2000",
			Categories: []string{"Science-fiction"}, Pages: 256,
		}),
	}
}
