package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/bookexchange/bookexchange/internal/domain"
	domainerrors "github.com/bookexchange/bookexchange/internal/errors"
	"github.com/bookexchange/bookexchange/internal/id"
	"github.com/bookexchange/bookexchange/internal/session"
	"github.com/bookexchange/bookexchange/internal/store"
)

// ExchangeService runs the exchange state machine and keeps the exchanged
// book's status in step with it.
type ExchangeService struct {
	kv     store.KV
	logger *slog.Logger
	now    func() time.Time
}

// NewExchangeService creates a new exchange service.
func NewExchangeService(kv store.KV, logger *slog.Logger) *ExchangeService {
	return &ExchangeService{
		kv:     kv,
		logger: logger,
		now:    clock,
	}
}

// StatusExtra carries the optional fields merged into an exchange on a
// status change. Nil fields are left untouched.
type StatusExtra struct {
	ReturnCondition *string
	ReturnNotes     *string
	CancelReason    *string
}

// ExchangeFilter narrows ListForUser. Empty fields match everything.
type ExchangeFilter struct {
	Type   domain.BookType
	Status domain.ExchangeStatus
	Role   domain.ExchangeRole
}

// Create opens a pending exchange on bookID for the session user and marks
// the book pending, in one transaction.
func (s *ExchangeService) Create(ctx context.Context, sess *session.Session, bookID string, exchangeType domain.BookType, notes string) (*domain.Exchange, error) {
	borrower, err := requireUser(sess, "request an exchange")
	if err != nil {
		return nil, err
	}

	exchangeID, err := id.Generate("exch")
	if err != nil {
		return nil, fmt.Errorf("generate exchange ID: %w", err)
	}

	var exchange domain.Exchange
	err = s.kv.Update(ctx, func(tx store.Txn) error {
		books, err := store.Books.Load(tx)
		if err != nil {
			return err
		}

		i := store.IndexFunc(books, func(b *domain.Book) bool { return b.ID == bookID })
		if i < 0 {
			return domainerrors.NotFoundf("book %s not found", bookID)
		}
		book := &books[i]

		if book.Status != domain.BookStatusAvailable {
			return domainerrors.BookNotAvailable("this book is not currently available")
		}
		if book.OwnerID == borrower.ID {
			return domainerrors.SelfExchange("you cannot request your own book")
		}
		if !book.Type.Accepts(exchangeType) {
			return domainerrors.TypeMismatchf("this book is not offered for %s", exchangeType)
		}

		exchange = domain.Exchange{
			ID:         exchangeID,
			BookID:     book.ID,
			Type:       exchangeType,
			OwnerID:    book.OwnerID,
			BorrowerID: borrower.ID,
			Status:     domain.ExchangeStatusPending,
			StartDate:  s.now(),
			Notes:      notes,
		}
		if exchangeType == domain.BookTypeSale && book.Price != nil {
			exchange.Price = *book.Price
		}

		exchanges, err := store.Exchanges.Load(tx)
		if err != nil {
			return err
		}
		if err := store.Exchanges.Save(tx, append(exchanges, exchange)); err != nil {
			return err
		}

		book.Status = exchange.Status.BookStatus()
		return store.Books.Save(tx, books)
	})
	if err != nil {
		return nil, err
	}

	if s.logger != nil {
		s.logger.Info("Exchange requested",
			"exchange_id", exchange.ID,
			"book_id", exchange.BookID,
			"borrower_id", exchange.BorrowerID,
			"type", exchange.Type,
		)
	}

	return &exchange, nil
}

// UpdateStatus moves an exchange to newStatus, merges extra, and derives the
// book's status from the new state. Only the owner or the borrower may do this.
func (s *ExchangeService) UpdateStatus(ctx context.Context, sess *session.Session, exchangeID string, newStatus domain.ExchangeStatus, extra StatusExtra) (*domain.Exchange, error) {
	user, err := requireUser(sess, "update an exchange")
	if err != nil {
		return nil, err
	}

	var (
		updated   domain.Exchange
		bookFound bool
	)
	err = s.kv.Update(ctx, func(tx store.Txn) error {
		exchanges, err := store.Exchanges.Load(tx)
		if err != nil {
			return err
		}

		i := store.IndexFunc(exchanges, func(e *domain.Exchange) bool { return e.ID == exchangeID })
		if i < 0 {
			return domainerrors.NotFoundf("exchange %s not found", exchangeID)
		}
		e := &exchanges[i]

		if !e.IsParticipant(user.ID) {
			return domainerrors.NotParticipant("you are not a party to this exchange")
		}
		if !e.Status.CanTransitionTo(newStatus) {
			return domainerrors.InvalidTransitionf("cannot move exchange from %s to %s", e.Status, newStatus)
		}

		e.Status = newStatus
		setIf(&e.ReturnCondition, extra.ReturnCondition)
		setIf(&e.ReturnNotes, extra.ReturnNotes)
		setIf(&e.CancelReason, extra.CancelReason)
		if newStatus.IsTerminal() {
			end := s.now()
			e.EndDate = &end
		}

		updated = *e
		if err := store.Exchanges.Save(tx, exchanges); err != nil {
			return err
		}

		bookFound, err = setBookStatus(tx, e.BookID, newStatus.BookStatus())
		return err
	})
	if err != nil {
		return nil, err
	}

	if s.logger != nil {
		if !bookFound {
			s.logger.Warn("Exchanged book no longer exists", "exchange_id", updated.ID, "book_id", updated.BookID)
		}
		s.logger.Info("Exchange status changed", "exchange_id", updated.ID, "status", updated.Status, "user_id", user.ID)
	}

	return &updated, nil
}

// Accept moves a pending exchange to active.
func (s *ExchangeService) Accept(ctx context.Context, sess *session.Session, exchangeID string) (*domain.Exchange, error) {
	return s.UpdateStatus(ctx, sess, exchangeID, domain.ExchangeStatusActive, StatusExtra{})
}

// Complete closes an active exchange, recording how the book came back.
func (s *ExchangeService) Complete(ctx context.Context, sess *session.Session, exchangeID, returnCondition, returnNotes string) (*domain.Exchange, error) {
	return s.UpdateStatus(ctx, sess, exchangeID, domain.ExchangeStatusCompleted, StatusExtra{
		ReturnCondition: &returnCondition,
		ReturnNotes:     &returnNotes,
	})
}

// Cancel abandons a pending or active exchange.
func (s *ExchangeService) Cancel(ctx context.Context, sess *session.Session, exchangeID, reason string) (*domain.Exchange, error) {
	return s.UpdateStatus(ctx, sess, exchangeID, domain.ExchangeStatusCancelled, StatusExtra{
		CancelReason: &reason,
	})
}

// GetByID returns an exchange the session user takes part in.
func (s *ExchangeService) GetByID(ctx context.Context, sess *session.Session, exchangeID string) (*domain.Exchange, error) {
	user, err := requireUser(sess, "view an exchange")
	if err != nil {
		return nil, err
	}

	exchanges, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	i := store.IndexFunc(exchanges, func(e *domain.Exchange) bool { return e.ID == exchangeID })
	if i < 0 {
		return nil, domainerrors.NotFoundf("exchange %s not found", exchangeID)
	}
	if !exchanges[i].IsParticipant(user.ID) {
		return nil, domainerrors.NotParticipant("you are not a party to this exchange")
	}
	return &exchanges[i], nil
}

// ListForUser returns the exchanges userID owns or borrows in, matching
// filter, most recently started first.
func (s *ExchangeService) ListForUser(ctx context.Context, userID string, filter ExchangeFilter) ([]domain.Exchange, error) {
	exchanges, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	exchanges = slices.DeleteFunc(exchanges, func(e domain.Exchange) bool {
		if !e.HasRole(userID, filter.Role) || !e.IsParticipant(userID) {
			return true
		}
		if filter.Type != "" && e.Type != filter.Type {
			return true
		}
		return filter.Status != "" && e.Status != filter.Status
	})

	slices.SortStableFunc(exchanges, func(a, b domain.Exchange) int {
		return b.StartDate.Compare(a.StartDate)
	})
	return exchanges, nil
}

func (s *ExchangeService) load(ctx context.Context) ([]domain.Exchange, error) {
	var exchanges []domain.Exchange
	err := s.kv.View(ctx, func(tx store.Txn) error {
		var err error
		exchanges, err = store.Exchanges.Load(tx)
		return err
	})
	return exchanges, err
}
